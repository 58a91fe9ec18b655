package export

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/contact-extractor/internal/entity"
)

const sheet = "Contacts"

var headers = []string{
	"Name",
	"Designation",
	"Company",
	"Phone",
	"Email",
	"Website",
	"Address",
	"Category",
	"Notes",
	"Confidence",
	"Provenance",
	"Low Confidence",
	"Source File",
}

// Service turns extraction results into XLSX workbooks, one row per contact.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ContactsXLSX returns a workbook (as bytes) holding every contact of results in order.
func (s *Service) ContactsXLSX(results []entity.Result) ([]byte, error) {
	start := time.Now()
	f, rows, err := s.workbook(results)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"results", len(results),
		"rows", rows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// WriteContactsXLSX streams the workbook to w.
func (s *Service) WriteContactsXLSX(w io.Writer, results []entity.Result) error {
	f, rows, err := s.workbook(results)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok", "results", len(results), "rows", rows)
	return nil
}

func (s *Service) workbook(results []entity.Result) (*excelize.File, int, error) {
	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, 0, err
		}
	}
	// the default sheet only gets in the way
	_ = f.DeleteSheet("Sheet1")
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, res := range results {
		for _, c := range res.Contacts {
			write := func(col int, v any) {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				_ = f.SetCellValue(sheet, cell, v)
			}
			write(1, c.Name)
			write(2, c.Designation)
			write(3, c.Company)
			write(4, c.Phone)
			write(5, c.Email)
			write(6, c.Website)
			write(7, c.Address)
			write(8, string(c.Category))
			write(9, truncate(c.Notes, 140))
			write(10, c.Confidence)
			write(11, string(c.Provenance))
			write(12, yesNo(c.LowConfidence))
			write(13, res.Filename)
			row++
		}
	}

	_ = f.SetColWidth(sheet, "A", "C", 26) // name, designation, company
	_ = f.SetColWidth(sheet, "D", "D", 18) // phone
	_ = f.SetColWidth(sheet, "E", "F", 30) // email, website
	_ = f.SetColWidth(sheet, "G", "G", 40) // address
	_ = f.SetColWidth(sheet, "H", "H", 22) // category
	_ = f.SetColWidth(sheet, "I", "I", 48) // notes
	_ = f.SetColWidth(sheet, "J", "L", 14)
	_ = f.SetColWidth(sheet, "M", "M", 40) // source
	return f, row - 2, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
