package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// maxDocumentXML bounds the decompressed size of the document part we read.
const maxDocumentXML = 32 << 20

// DOCXText returns the paragraphs of word/document.xml, one per line. A table row becomes one
// line with its cells joined by ", ".
func DOCXText(data []byte) (string, error) {
	return officeText(data, "word/document.xml", officeTags{
		paragraph: "p", text: "t", tab: "tab", lineBreak: "br", cell: "tc",
	})
}

// ODTText does the same for OpenDocument text (content.xml).
func ODTText(data []byte) (string, error) {
	return officeText(data, "content.xml", officeTags{
		paragraph: "p", heading: "h", tab: "tab", lineBreak: "line-break", cell: "table-cell", space: "s", charData: true,
	})
}

type officeTags struct {
	paragraph string
	heading   string
	text      string // element whose char data is text; empty means all char data inside a paragraph
	tab       string
	lineBreak string
	cell      string
	space     string
	charData  bool
}

func officeText(data []byte, part string, tags officeTags) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	var f *zip.File
	for _, zf := range zr.File {
		if zf.Name == part {
			f = zf
			break
		}
	}
	if f == nil {
		return "", fmt.Errorf("archive has no %s", part)
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", part, err)
	}
	defer func() { _ = rc.Close() }()

	dec := xml.NewDecoder(io.LimitReader(rc, maxDocumentXML))
	var (
		b       strings.Builder
		line    strings.Builder
		inText  int
		inPara  int
		inCell  int
		cellBuf []string
	)
	flush := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			if inCell > 0 {
				cellBuf = append(cellBuf, s)
			} else {
				b.WriteString(s)
				b.WriteByte('\n')
			}
		}
		line.Reset()
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", part, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case tags.paragraph, tags.heading:
				inPara++
			case tags.text:
				inText++
			case tags.tab:
				line.WriteByte(' ')
			case tags.space:
				line.WriteByte(' ')
			case tags.lineBreak:
				flush()
			case tags.cell:
				inCell++
			}
		case xml.EndElement:
			switch t.Name.Local {
			case tags.paragraph, tags.heading:
				inPara--
				flush()
			case tags.text:
				inText--
			case tags.cell:
				inCell--
			case "tr", "table-row":
				if row := joinCells(cellBuf); row != "" {
					b.WriteString(row)
					b.WriteByte('\n')
				}
				cellBuf = cellBuf[:0]
			}
		case xml.CharData:
			if inText > 0 || (tags.charData && inPara > 0) {
				line.Write(t)
			}
		}
	}
	return b.String(), nil
}
