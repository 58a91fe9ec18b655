// Package nlp is the offline entity extractor: deterministic pattern and keyword
// recognition of people, organizations, emails, phones, addresses and business hints.
package nlp

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/contact-extractor/internal/common"
)

// Kind is the type of a recognized span.
type Kind string

const (
	Person  Kind = "PERSON"
	Org     Kind = "ORG"
	Email   Kind = "EMAIL"
	Phone   Kind = "PHONE"
	Address Kind = "ADDRESS"
	Custom  Kind = "CUSTOM"
)

// Labels carried by CUSTOM candidates.
const (
	LabelDesignation    = "designation"
	LabelWebsite        = "website"
	CategoryLabelPrefix = "category:"
)

// Source confidences. Weak organizations are recognized only by a business keyword and
// sit below the default back-fill threshold on purpose.
const (
	confEmail         = 0.95
	confPhone         = 0.75
	confPhoneLabeled  = 0.9
	confWebsite       = 0.85
	confPerson        = 0.65
	confLabeled       = 0.8
	confOrg           = 0.75
	confOrgLabeled    = 0.85
	confOrgWeak       = 0.45
	confDesignation   = 0.7
	confAddress       = 0.65
	confCategoryMatch = 0.6
)

// Candidate is one typed span of the input text. Start and End are byte offsets.
type Candidate struct {
	Kind       Kind    `json:"kind"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Label      string  `json:"label,omitempty"`
}

// Entities maps each kind to its candidates in text order.
type Entities map[Kind][]Candidate

// All returns every candidate ordered by offset.
func (es Entities) All() []Candidate {
	var out []Candidate
	for _, cs := range es {
		out = append(out, cs...)
	}
	sortCandidates(out)
	return out
}

// Values lists the candidate values of kind, deduplicated, in text order.
func (es Entities) Values(kind Kind) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range es[kind] {
		key := strings.ToLower(c.Value)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c.Value)
	}
	return out
}

func (es Entities) Len() int {
	n := 0
	for _, cs := range es {
		n += len(cs)
	}
	return n
}

var (
	reEmail   = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,}`)
	rePhone   = regexp.MustCompile(`(?:\+|\()?\d[\d \t().\-/]{5,}\d`)
	reWebsite = regexp.MustCompile(`(?i)\b(?:https?://[^\s,;]+|www\.[^\s,;]+)`)
	reDateish = regexp.MustCompile(`^(?:\d{4}[-/.]\d{1,2}[-/.]\d{1,2}|\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4})$`)
	reLabel   = regexp.MustCompile(`(?i)^\s*(name|contact person|contact|title|designation|position|role|company|organi[sz]ation|org|firm|employer|address|addr|location|e-?mail|mail|phone|tel|telephone|mobile|mob|cell|fax|whatsapp|web|website|url)\s*[:\-]\s*`)
	rePhoneLb = regexp.MustCompile(`(?i)\b(tel|phone|telephone|mobile|mob|cell|ph|fax|whatsapp|call)\b`)
)

var particles = map[string]bool{
	"van": true, "von": true, "de": true, "der": true, "da": true, "di": true, "del": true,
	"bin": true, "binti": true, "al": true, "la": true, "le": true, "du": true,
}

// Extractor recognizes entities in raw text. It never calls external services.
type Extractor struct {
	opts     Options
	stopword map[string]bool
}

func New(opts Options) *Extractor {
	if len(opts.Vocabulary.Categories) == 0 {
		opts.Vocabulary = common.DefaultVocabulary()
	}
	stop := map[string]bool{}
	add := func(list []string) {
		for _, kw := range list {
			for _, w := range strings.Fields(strings.ToLower(kw)) {
				stop[strings.Trim(w, ".")] = true
			}
		}
	}
	add(genericWords)
	add(opts.Designations)
	add(opts.OrgSuffixes)
	add(opts.AddressMarkers)
	for _, k := range opts.Vocabulary.Keywords {
		add(k.Keywords)
	}
	return &Extractor{opts: opts, stopword: stop}
}

// Extract returns candidates grouped by kind, each group ordered by offset.
func (e *Extractor) Extract(text string) Entities {
	es := Entities{}
	if strings.TrimSpace(text) == "" {
		return es
	}
	var taken [][2]int

	for _, loc := range reEmail.FindAllStringIndex(text, -1) {
		es.add(Candidate{Kind: Email, Value: text[loc[0]:loc[1]], Confidence: confEmail, Start: loc[0], End: loc[1]})
		taken = append(taken, [2]int{loc[0], loc[1]})
	}
	for _, loc := range reWebsite.FindAllStringIndex(text, -1) {
		if overlaps(taken, loc[0], loc[1]) {
			continue
		}
		v := strings.TrimRight(text[loc[0]:loc[1]], ".)")
		es.add(Candidate{Kind: Custom, Label: LabelWebsite, Value: v, Confidence: confWebsite, Start: loc[0], End: loc[0] + len(v)})
		taken = append(taken, [2]int{loc[0], loc[1]})
	}
	for _, loc := range rePhone.FindAllStringIndex(text, -1) {
		for _, span := range phoneSpans(text, loc[0], loc[1]) {
			if c, ok := e.phone(text, span[0], span[1], taken); ok {
				es.add(c)
			}
		}
	}

	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		e.scanLine(es, strings.TrimRight(line, "\r\n"), offset)
		offset += len(line)
	}

	e.categoryHints(es, text)

	for k := range es {
		sortCandidates(es[k])
	}
	return es
}

func (es Entities) add(c Candidate) {
	es[c.Kind] = append(es[c.Kind], c)
}

// phoneSpans splits a match that is too long for one number at '/' or ',' separators,
// as in "555-123-4567 / 555-987-6543". Other matches are returned whole.
func phoneSpans(text string, start, end int) [][2]int {
	v := text[start:end]
	if len(common.PhoneDigits(v)) <= common.MaxPhoneDigits || !strings.ContainsAny(v, "/,") {
		return [][2]int{{start, end}}
	}
	var spans [][2]int
	from := 0
	for i := 0; i <= len(v); i++ {
		if i < len(v) && v[i] != '/' && v[i] != ',' {
			continue
		}
		part := v[from:i]
		lead := len(part) - len(strings.TrimLeft(part, " \t-."))
		trail := len(part) - len(strings.TrimRight(part, " \t-.("))
		if lead+trail < len(part) {
			spans = append(spans, [2]int{start + from + lead, start + i - trail})
		}
		from = i + 1
	}
	return spans
}

func (e *Extractor) phone(text string, start, end int, taken [][2]int) (Candidate, bool) {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return Candidate{}, false
		}
	}
	if overlaps(taken, start, end) {
		return Candidate{}, false
	}
	v := strings.TrimSpace(text[start:end])
	digits := len(common.PhoneDigits(v))
	if digits < common.MinPhoneDigits || digits > common.MaxPhoneDigits || reDateish.MatchString(v) {
		return Candidate{}, false
	}
	conf := confPhone
	lineStart := strings.LastIndexByte(text[:start], '\n') + 1
	if rePhoneLb.MatchString(text[lineStart:start]) {
		conf = confPhoneLabeled
	}
	return Candidate{Kind: Phone, Value: v, Confidence: conf, Start: start, End: start + len(v)}, true
}

// scanLine classifies the non-email, non-phone parts of one line.
func (e *Extractor) scanLine(es Entities, line string, offset int) {
	if strings.TrimSpace(line) == "" {
		return
	}
	label, rest, restOff := splitLabel(line)
	switch {
	case label == "address" || label == "addr" || label == "location":
		e.emit(es, Address, "", rest, offset+restOff, confLabeled)
		return
	case label == "" && e.isAddress(line):
		e.emit(es, Address, "", line, offset, confAddress)
		return
	}

	for _, p := range splitPieces(line) {
		e.scanPiece(es, p.text, offset+p.start)
	}
}

func (e *Extractor) scanPiece(es Entities, piece string, offset int) {
	label, rest, restOff := splitLabel(piece)
	offset += restOff
	if strings.ContainsAny(rest, "@") || reWebsite.MatchString(rest) || len(common.PhoneDigits(rest)) >= common.MinPhoneDigits {
		return
	}
	lower := asciiLower(rest)

	switch label {
	case "name", "contact person", "contact":
		if hasLetters(rest) {
			e.emit(es, Person, "", rest, offset, confLabeled)
		}
		return
	case "title", "designation", "position", "role":
		e.emit(es, Custom, LabelDesignation, rest, offset, confLabeled)
		return
	case "company", "organisation", "organization", "org", "firm", "employer":
		e.emit(es, Org, "", rest, offset, confOrgLabeled)
		return
	case "":
	default:
		// email/phone/web labels: the regex passes own those values
		return
	}

	switch {
	case hasAnyWord(lower, e.opts.OrgSuffixes):
		e.emit(es, Org, "", rest, offset, confOrg)
	case hasAnyWord(lower, e.opts.Designations):
		e.emit(es, Custom, LabelDesignation, rest, offset, confDesignation)
	case e.hasCategoryKeyword(lower) && startsUpper(rest):
		e.emit(es, Org, "", rest, offset, confOrgWeak)
	case e.nameLike(rest):
		e.emit(es, Person, "", rest, offset, confPerson)
	}
}

// emit trims value and records it with offsets adjusted to the trimmed span.
func (e *Extractor) emit(es Entities, kind Kind, label, value string, offset int, conf float64) {
	lead := len(value) - len(strings.TrimLeftFunc(value, unicode.IsSpace))
	v := strings.TrimRight(strings.TrimSpace(value), ".;:,-|")
	v = strings.TrimSpace(v)
	if v == "" || utf8.RuneCountInString(v) > 120 {
		return
	}
	start := offset + lead
	es.add(Candidate{Kind: kind, Label: label, Value: v, Confidence: conf, Start: start, End: start + len(v)})
}

func (e *Extractor) isAddress(line string) bool {
	if strings.Contains(line, "@") {
		return false
	}
	lower := asciiLower(line)
	if strings.Contains(lower, "p.o. box") || strings.Contains(lower, "po box") {
		return true
	}
	return hasAnyWord(lower, e.opts.AddressMarkers) && strings.IndexFunc(line, unicode.IsDigit) >= 0
}

func (e *Extractor) hasCategoryKeyword(lower string) bool {
	for _, k := range e.opts.Vocabulary.Keywords {
		if hasAnyWord(lower, k.Keywords) {
			return true
		}
	}
	return false
}

// nameLike accepts two to four capitalized tokens with no digits and no business words.
func (e *Extractor) nameLike(s string) bool {
	tokens := strings.Fields(s)
	if len(tokens) < 2 || len(tokens) > 4 {
		return false
	}
	for i, tok := range tokens {
		bare := strings.Trim(tok, ".,")
		if bare == "" {
			return false
		}
		low := asciiLower(bare)
		if e.stopword[low] {
			return false
		}
		if particles[low] && i > 0 && i < len(tokens)-1 {
			continue
		}
		first, _ := utf8.DecodeRuneInString(bare)
		if !unicode.IsUpper(first) {
			return false
		}
		for _, r := range bare {
			if !unicode.IsLetter(r) && r != '-' && r != '\'' && r != '’' && r != '.' {
				return false
			}
		}
	}
	return true
}

// categoryHints records the first keyword hit of every vocabulary category.
func (e *Extractor) categoryHints(es Entities, text string) {
	lower := asciiLower(text)
	for _, k := range e.opts.Vocabulary.Keywords {
		for _, kw := range k.Keywords {
			if i := indexWord(lower, asciiLower(kw)); i >= 0 {
				es.add(Candidate{
					Kind:       Custom,
					Label:      CategoryLabelPrefix + string(k.Category),
					Value:      text[i : i+len(kw)],
					Confidence: confCategoryMatch,
					Start:      i,
					End:        i + len(kw),
				})
				break
			}
		}
	}
}

type piece struct {
	text  string
	start int
}

// splitPieces cuts a line on commas, pipes, bullets and semicolons.
func splitPieces(line string) []piece {
	var out []piece
	start := 0
	for i, r := range line {
		if r == ',' || r == '|' || r == '•' || r == ';' || r == '·' {
			out = append(out, piece{line[start:i], start})
			start = i + utf8.RuneLen(r)
		}
	}
	return append(out, piece{line[start:], start})
}

// splitLabel strips a leading "Label:" and returns the lowercased label, the remainder
// and the remainder's offset within s.
func splitLabel(s string) (string, string, int) {
	loc := reLabel.FindStringSubmatchIndex(s)
	if loc == nil {
		return "", s, 0
	}
	label := strings.ToLower(s[loc[2]:loc[3]])
	switch label {
	case "email", "e-mail", "mail":
		label = "email"
	}
	return label, s[loc[1]:], loc[1]
}

func overlaps(spans [][2]int, start, end int) bool {
	for _, s := range spans {
		if start < s[1] && s[0] < end {
			return true
		}
	}
	return false
}

func hasAnyWord(lower string, kws []string) bool {
	for _, kw := range kws {
		if indexWord(lower, asciiLower(kw)) >= 0 {
			return true
		}
	}
	return false
}

// indexWord finds kw in s on word boundaries.
func indexWord(s, kw string) int {
	if kw == "" {
		return -1
	}
	from := 0
	for from <= len(s) {
		i := strings.Index(s[from:], kw)
		if i < 0 {
			return -1
		}
		start := from + i
		end := start + len(kw)
		if isBoundary(s, start-1) && isBoundary(s, end) {
			return start
		}
		from = start + 1
	}
	return -1
}

func isBoundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	// '-' binds words so "co" does not match inside "co-founder"
	return !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c >= 0x80)
}

// asciiLower lowercases ASCII letters only so byte offsets stay valid.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

func hasLetters(s string) bool { return strings.IndexFunc(s, unicode.IsLetter) >= 0 }

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(s))
	return unicode.IsUpper(r) || unicode.IsDigit(r)
}

var kindOrder = map[Kind]int{Person: 0, Org: 1, Email: 2, Phone: 3, Address: 4, Custom: 5}

func sortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Start != cs[j].Start {
			return cs[i].Start < cs[j].Start
		}
		return kindOrder[cs[i].Kind] < kindOrder[cs[j].Kind]
	})
}
