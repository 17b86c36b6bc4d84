package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	pdfTitleSize  = 11
	pdfTableSize  = 8
	pdfLineHeight = 6
)

// RenderPDF draws rows as a table on landscape A4 pages under title. The
// header is taken from the first row and repeated on every page.
func RenderPDF(rows []Row, title string, loc *time.Location) ([]byte, error) {
	if len(rows) == 0 {
		return nil, ErrNoTickets
	}

	header := rows[0].Columns()
	columns := len(header)
	for _, row := range rows {
		if n := len(row.Columns()); n > columns {
			columns = n
		}
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.SetTitle(title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	cellWidth := (pageWidth - left - right) / float64(columns)

	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", pdfTableSize)
		pdf.SetFillColor(169, 169, 169)
		for i := 0; i < columns; i++ {
			text := ""
			if i < len(header) {
				text = header[i]
			}
			pdf.CellFormat(cellWidth, pdfLineHeight, tr(text), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", pdfTableSize)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			drawHeader()
		}
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", pdfTitleSize)
	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	drawHeader()

	for _, row := range rows {
		values := row.Values(loc)
		for i := 0; i < columns; i++ {
			text := ""
			if i < len(values) {
				text = fitText(pdf, tr(values[i]), cellWidth-2)
			}
			pdf.CellFormat(cellWidth, pdfLineHeight, text, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// fitText shortens s with an ellipsis until it fits in width.
func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if pdf.GetStringWidth(candidate) <= width {
			return candidate
		}
	}
	return ""
}
