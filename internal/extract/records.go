package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// maxRecordRows bounds how many rows of a spreadsheet or CSV become text.
const maxRecordRows = 5000

// CSVText renders delimited records one row per line, cells joined by ", ". The delimiter is
// ';' or tab when the header line holds more of those than commas.
func CSVText(data []byte, delimiter rune) (string, int, error) {
	text, _ := DecodeText(data)
	if delimiter == 0 {
		delimiter = sniffDelimiter(text)
	}
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var b strings.Builder
	rows := 0
	for rows < maxRecordRows {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", rows, fmt.Errorf("csv row %d: %w", rows+1, err)
		}
		if line := joinCells(rec); line != "" {
			b.WriteString(line)
			b.WriteByte('\n')
			rows++
		}
	}
	return b.String(), rows, nil
}

func sniffDelimiter(text string) rune {
	head, _, _ := strings.Cut(text, "\n")
	best, bestN := ',', strings.Count(head, ",")
	for _, d := range []rune{';', '\t', '|'} {
		if n := strings.Count(head, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

func joinCells(cells []string) string {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return strings.Join(out, ", ")
}

// XLSXText renders every sheet's rows one per line via excelize.
func XLSXText(data []byte) (string, int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", 0, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	var b strings.Builder
	rows := 0
	for _, sheet := range f.GetSheetList() {
		all, err := f.GetRows(sheet)
		if err != nil {
			return "", rows, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		for _, row := range all {
			if rows >= maxRecordRows {
				return b.String(), rows, nil
			}
			if line := joinCells(row); line != "" {
				b.WriteString(line)
				b.WriteByte('\n')
				rows++
			}
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n") + "\n", rows, nil
}

// vCard properties we keep, rendered with a label the entity extractor understands.
var vcardLabels = map[string]string{
	"TITLE": "Title: ",
	"ROLE":  "Title: ",
	"ORG":   "Company: ",
	"TEL":   "Tel: ",
	"EMAIL": "Email: ",
	"ADR":   "Address: ",
	"URL":   "Web: ",
	"NOTE":  "Note: ",
}

// VCardText renders each card as a block of labeled lines led by the person's name, cards
// separated by a blank line.
func VCardText(data []byte) (string, int, error) {
	text, _ := DecodeText(data)

	var b strings.Builder
	cards := 0
	var fn, structured string
	var body []string
	for _, line := range unfoldVCard(text) {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		prop := strings.ToUpper(name)
		if i := strings.IndexByte(prop, ';'); i >= 0 {
			prop = prop[:i]
		}
		if i := strings.LastIndexByte(prop, '.'); i >= 0 { // item1.EMAIL
			prop = prop[i+1:]
		}
		value = unescapeVCard(value)

		switch prop {
		case "BEGIN":
			fn, structured, body = "", "", body[:0]
			continue
		case "END":
			if fn == "" {
				fn = structured
			}
			if fn != "" {
				b.WriteString(fn)
				b.WriteByte('\n')
			}
			for _, l := range body {
				b.WriteString(l)
				b.WriteByte('\n')
			}
			b.WriteByte('\n')
			cards++
			continue
		case "FN":
			fn = strings.TrimSpace(value)
			continue
		case "N":
			// Family;Given;Additional;Prefix;Suffix
			if parts := strings.Split(value, ";"); len(parts) >= 2 {
				structured = strings.TrimSpace(strings.TrimSpace(parts[1]) + " " + strings.TrimSpace(parts[0]))
			}
			continue
		}

		label, keep := vcardLabels[prop]
		if !keep {
			continue
		}
		if prop == "ORG" || prop == "ADR" {
			value = joinCells(strings.Split(value, ";"))
		}
		if value = strings.TrimSpace(value); value != "" {
			body = append(body, label+value)
		}
	}
	if cards == 0 {
		return "", 0, fmt.Errorf("no vcard found")
	}
	return b.String(), cards, nil
}

// unfoldVCard joins continuation lines (starting with a space or tab) per RFC 6350.
func unfoldVCard(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') && len(out) > 0 {
			out[len(out)-1] += line[1:]
			continue
		}
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

func unescapeVCard(s string) string {
	r := strings.NewReplacer(`\n`, " ", `\N`, " ", `\,`, ",", `\;`, ";", `\\`, `\`)
	return r.Replace(s)
}
