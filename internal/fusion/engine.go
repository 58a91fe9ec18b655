// Package fusion reconciles the entity extractor's candidates with a provider extraction into
// scored, categorized contacts.
package fusion

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/joseph-ayodele/contact-extractor/constants"
	"github.com/joseph-ayodele/contact-extractor/internal/common"
	"github.com/joseph-ayodele/contact-extractor/internal/entity"
	"github.com/joseph-ayodele/contact-extractor/internal/llm"
	"github.com/joseph-ayodele/contact-extractor/internal/nlp"
)

// Config holds the tunable fusion policy.
type Config struct {
	MinBackfillConfidence float64
	WeightLLM             float64
	WeightCompleteness    float64
	WeightEntity          float64
	LowConfidence         float64
}

func ConfigFrom(c common.FusionConfig) Config {
	return Config{
		MinBackfillConfidence: c.MinBackfillConfidence,
		WeightLLM:             c.WeightLLM,
		WeightCompleteness:    c.WeightCompleteness,
		WeightEntity:          c.WeightEntity,
		LowConfidence:         c.LowConfidence,
	}
}

func DefaultConfig() Config {
	return Config{
		MinBackfillConfidence: 0.6,
		WeightLLM:             0.3,
		WeightCompleteness:    0.5,
		WeightEntity:          0.2,
		LowConfidence:         0.4,
	}
}

// Input is everything fusion needs for one request.
type Input struct {
	Text     string
	Entities nlp.Entities
	LLM      *llm.Extraction // nil when no provider produced a result
}

type Engine struct {
	cfg   Config
	vocab common.Vocabulary
	log   *slog.Logger
}

func New(cfg Config, vocab common.Vocabulary, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if len(vocab.Categories) == 0 {
		vocab = common.DefaultVocabulary()
	}
	return &Engine{cfg: cfg, vocab: vocab, log: logger}
}

// Primary field names, used to key back-filled confidences.
const (
	fieldName        = "name"
	fieldDesignation = "designation"
	fieldCompany     = "company"
	fieldPhone       = "phone"
	fieldEmail       = "email"
	fieldWebsite     = "website"
	fieldAddress     = "address"
)

// draft is a contact under construction plus what fusion needs to score and order it.
type draft struct {
	contact     entity.Contact
	fromLLM     bool
	llmCategory string
	backfill    map[string]float64 // field -> confidence of the extractor candidate it came from
	segment     *nlp.Segment
	order       int
	seq         int
}

// Fuse returns the contacts in source order. Contacts without a name, an email or a phone
// are dropped.
func (e *Engine) Fuse(in Input) []entity.Contact {
	segs := nlp.Split(in.Text, in.Entities)

	var drafts []*draft
	if in.LLM != nil && len(in.LLM.Contacts) > 0 {
		drafts = e.fromLLM(in.Text, in.LLM.Contacts, segs)
	} else {
		for i := range segs {
			drafts = append(drafts, e.fromSegment(&segs[i], i))
		}
	}

	sort.SliceStable(drafts, func(i, j int) bool {
		if drafts[i].order != drafts[j].order {
			return drafts[i].order < drafts[j].order
		}
		return drafts[i].seq < drafts[j].seq
	})

	out := make([]entity.Contact, 0, len(drafts))
	for _, d := range drafts {
		e.validate(d)
		if !d.contact.Reachable() {
			e.log.Debug("fusion.contact.dropped", "reason", "no name, email or phone")
			continue
		}
		d.contact.Category = e.category(d)
		d.contact.Confidence = e.Score(d.fromLLM, d.contact.PopulatedFields(), d.backfill)
		d.contact.LowConfidence = d.contact.Confidence < e.cfg.LowConfidence
		switch {
		case d.fromLLM && len(d.backfill) > 0:
			d.contact.Provenance = constants.ProvenanceFused
		case d.fromLLM:
			d.contact.Provenance = constants.ProvenanceLLMOnly
		default:
			d.contact.Provenance = constants.ProvenanceNLPOnly
		}
		out = append(out, d.contact)
	}
	return out
}

func (e *Engine) fromLLM(text string, fields []llm.ContactFields, segs []nlp.Segment) []*draft {
	used := make([]bool, len(segs))
	drafts := make([]*draft, 0, len(fields))
	for i, f := range fields {
		d := &draft{
			fromLLM:     true,
			llmCategory: f.Category,
			backfill:    map[string]float64{},
			seq:         i,
			contact: entity.Contact{
				Name:        f.Name,
				Designation: f.Designation,
				Company:     f.Company,
				Phone:       f.Phone,
				Email:       f.Email,
				Website:     f.Website,
				Address:     f.Address,
				Notes:       f.Notes,
			},
		}
		if si := match(f, i, len(fields), segs, used); si >= 0 {
			used[si] = true
			d.segment = &segs[si]
			e.fill(d)
		}
		d.order = position(text, d)
		drafts = append(drafts, d)
	}

	// people the extractor found and the provider missed, when they add a way to reach someone
	for i := range segs {
		if used[i] {
			continue
		}
		nd := e.fromSegment(&segs[i], len(fields)+i)
		if reachableElsewhere(nd.contact, drafts) {
			continue
		}
		drafts = append(drafts, nd)
	}
	return drafts
}

func (e *Engine) fromSegment(seg *nlp.Segment, seq int) *draft {
	d := &draft{backfill: map[string]float64{}, segment: seg, order: seg.Start, seq: seq}
	e.fill(d)
	return d
}

// fill back-fills every empty field from the best candidate at or above the threshold.
func (e *Engine) fill(d *draft) {
	seg := d.segment
	if seg == nil {
		return
	}
	c := &d.contact
	slots := []struct {
		field string
		dst   *string
		kind  nlp.Kind
		label string
	}{
		{fieldName, &c.Name, nlp.Person, ""},
		{fieldDesignation, &c.Designation, nlp.Custom, nlp.LabelDesignation},
		{fieldCompany, &c.Company, nlp.Org, ""},
		{fieldPhone, &c.Phone, nlp.Phone, ""},
		{fieldEmail, &c.Email, nlp.Email, ""},
		{fieldWebsite, &c.Website, nlp.Custom, nlp.LabelWebsite},
		{fieldAddress, &c.Address, nlp.Address, ""},
	}
	for _, s := range slots {
		if strings.TrimSpace(*s.dst) != "" {
			continue
		}
		cand, ok := seg.BestAbove(s.kind, s.label, e.cfg.MinBackfillConfidence)
		if !ok {
			continue
		}
		*s.dst = cand.Value
		d.backfill[s.field] = cand.Confidence
	}
}

// validate discards emails and phones that fail format rules.
func (e *Engine) validate(d *draft) {
	c := &d.contact
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	if err := common.Email(fieldEmail, c.Email); err != nil {
		e.log.Debug("fusion.field.discarded", "field", fieldEmail, "error", err.Message)
		c.Email = ""
		delete(d.backfill, fieldEmail)
	}
	if err := common.Phone(fieldPhone, c.Phone); err != nil {
		e.log.Debug("fusion.field.discarded", "field", fieldPhone, "error", err.Message)
		c.Phone = ""
		delete(d.backfill, fieldPhone)
	}
}

// category prefers the provider's answer when it names a vocabulary category (the fallback
// included), then keyword inference over company and designation, then the segment's keyword
// hits, then the fallback.
func (e *Engine) category(d *draft) constants.Category {
	if d.llmCategory != "" {
		if c, ok := e.vocab.Canonicalize(d.llmCategory); ok {
			return c
		}
	}
	if c, ok := e.vocab.Infer(d.contact.Company, d.contact.Designation); ok {
		return c
	}
	if d.segment != nil {
		for _, cand := range d.segment.Candidates {
			if cand.Kind != nlp.Custom || !strings.HasPrefix(cand.Label, nlp.CategoryLabelPrefix) {
				continue
			}
			if c := constants.Category(strings.TrimPrefix(cand.Label, nlp.CategoryLabelPrefix)); e.vocab.Has(c) {
				return c
			}
		}
	}
	return e.vocab.Fallback
}

// Score is the weighted average of provider presence, field completeness and the extractor
// confidence of back-filled fields. Both completeness and the extractor term are normalized
// by the primary field count, so populating another field never lowers the score.
func (e *Engine) Score(fromLLM bool, populated int, backfill map[string]float64) float64 {
	wsum := e.cfg.WeightLLM + e.cfg.WeightCompleteness + e.cfg.WeightEntity
	if wsum <= 0 {
		return 0
	}
	var l float64
	if fromLLM {
		l = 1
	}
	completeness := float64(populated) / entity.PrimaryFieldCount
	var sum float64
	for _, c := range backfill {
		sum += c
	}
	ent := sum / entity.PrimaryFieldCount

	s := (e.cfg.WeightLLM*l + e.cfg.WeightCompleteness*completeness + e.cfg.WeightEntity*ent) / wsum
	s = math.Max(0, math.Min(1, s))
	return math.Round(s*1e4) / 1e4
}

// match finds the segment describing f: same email, then same phone, then same name, then
// the same position when the provider and the extractor agree on the number of contacts.
func match(f llm.ContactFields, i, n int, segs []nlp.Segment, used []bool) int {
	if email := strings.TrimSpace(f.Email); email != "" {
		for j := range segs {
			if !used[j] && segs[j].Has(nlp.Email, email) {
				return j
			}
		}
	}
	if digits := common.PhoneDigits(f.Phone); digits != "" {
		for j := range segs {
			if used[j] {
				continue
			}
			for _, c := range segs[j].Candidates {
				if c.Kind == nlp.Phone && common.PhoneDigits(c.Value) == digits {
					return j
				}
			}
		}
	}
	if name := strings.TrimSpace(f.Name); name != "" {
		for j := range segs {
			if !used[j] && segs[j].Has(nlp.Person, name) {
				return j
			}
		}
	}
	if n == len(segs) && i < len(segs) && !used[i] {
		return i
	}
	return -1
}

// position orders a provider contact by where it shows up in the text.
func position(text string, d *draft) int {
	if d.segment != nil {
		return d.segment.Start
	}
	lower := strings.ToLower(text)
	for _, v := range []string{d.contact.Email, d.contact.Name, d.contact.Phone, d.contact.Company} {
		if v = strings.ToLower(strings.TrimSpace(v)); v == "" {
			continue
		}
		if idx := strings.Index(lower, v); idx >= 0 {
			return idx
		}
	}
	return math.MaxInt32
}

func reachableElsewhere(c entity.Contact, drafts []*draft) bool {
	email := strings.ToLower(strings.TrimSpace(c.Email))
	phone := common.PhoneDigits(c.Phone)
	if email == "" && phone == "" {
		return true
	}
	for _, d := range drafts {
		if email != "" && strings.EqualFold(strings.TrimSpace(d.contact.Email), email) {
			return true
		}
		if phone != "" && common.PhoneDigits(d.contact.Phone) == phone {
			return true
		}
	}
	return false
}
