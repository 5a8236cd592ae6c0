package integrations

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bawanisandunika/wattpad-downloader/pkg/data"
	"github.com/jung-kurt/gofpdf"
)

// TextStyle is the typography state applied at a section boundary.
type TextStyle struct {
	Family string
	Style  string // "", "B", "I", "BI"
	Size   float64
}

// coreFonts are the families gofpdf ships without font files. Anything else
// falls back to Helvetica instead of failing the document.
var coreFonts = map[string]bool{
	"courier": true, "helvetica": true, "arial": true,
	"times": true, "symbol": true, "zapfdingbats": true,
}

// PDFAssembler produces the paginated document: title page, table of
// contents, one section per chapter, closing page. Chapter sections are laid
// out one at a time as the bundle is walked, so memory stays proportional to
// the document rather than to intermediate buffers.
type PDFAssembler struct {
	Title   TextStyle
	Heading TextStyle
	Body    TextStyle
	Margin  float64 // mm
}

func NewPDFAssembler() *PDFAssembler {
	return &PDFAssembler{
		Title:   TextStyle{Family: "Helvetica", Style: "B", Size: 28},
		Heading: TextStyle{Family: "Helvetica", Style: "B", Size: 18},
		Body:    TextStyle{Family: "Times", Size: 12},
		Margin:  20,
	}
}

func (a *PDFAssembler) Extension() string   { return "pdf" }
func (a *PDFAssembler) ContentType() string { return "application/pdf" }

// Assemble writes the document to w. Placeholder chapter bodies are rendered
// exactly like normal prose, so the output is structurally complete even when
// every chapter failed upstream.
func (a *PDFAssembler) Assemble(bundle *data.Bundle, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(a.Margin, a.Margin, a.Margin)
	pdf.SetAutoPageBreak(true, a.Margin)
	translate := pdf.UnicodeTranslatorFromDescriptor("")

	a.titlePage(pdf, translate, bundle)
	a.tableOfContents(pdf, translate, bundle)
	for i, chapter := range bundle.Chapters {
		a.chapterSection(pdf, translate, i+1, chapter)
	}
	a.closingPage(pdf, translate)

	if pdf.Err() {
		return fmt.Errorf("pdf assembly: %w", pdf.Error())
	}
	return pdf.Output(w)
}

// applyStyle resets the typography state. Every section boundary goes through
// here so no section inherits the previous one's font.
func (a *PDFAssembler) applyStyle(pdf *gofpdf.Fpdf, style TextStyle) {
	family := style.Family
	if !coreFonts[strings.ToLower(family)] {
		family = "Helvetica"
	}
	pdf.SetFont(family, style.Style, style.Size)
	pdf.SetTextColor(0, 0, 0)
}

func (a *PDFAssembler) titlePage(pdf *gofpdf.Fpdf, translate func(string) string, bundle *data.Bundle) {
	pdf.AddPage()

	if len(bundle.Cover) > 0 {
		opts := gofpdf.ImageOptions{ImageType: "JPEG"}
		pdf.RegisterImageOptionsReader("cover", opts, bytes.NewReader(bundle.Cover))
		pageW, _ := pdf.GetPageSize()
		pdf.ImageOptions("cover", (pageW-80)/2, a.Margin, 80, 0, true, opts, 0, "")
	}

	pdf.Ln(20)
	a.applyStyle(pdf, a.Title)
	pdf.MultiCell(0, 14, translate(bundle.Title), "", "C", false)

	a.applyStyle(pdf, a.Heading)
	pdf.MultiCell(0, 10, translate("by "+bundle.Author), "", "C", false)

	if bundle.Description != "" {
		pdf.Ln(10)
		a.applyStyle(pdf, a.Body)
		pdf.MultiCell(0, 6, translate(truncate(bundle.Description, 600)), "", "C", false)
	}

	pdf.Ln(12)
	a.applyStyle(pdf, TextStyle{Family: a.Body.Family, Style: "I", Size: 9})
	pdf.SetTextColor(120, 120, 120)
	stamp := fmt.Sprintf("Generated %s", time.Now().Format("2 Jan 2006 15:04"))
	pdf.MultiCell(0, 5, translate(stamp), "", "C", false)
}

func (a *PDFAssembler) tableOfContents(pdf *gofpdf.Fpdf, translate func(string) string, bundle *data.Bundle) {
	pdf.AddPage()
	a.applyStyle(pdf, a.Heading)
	pdf.MultiCell(0, 10, "Contents", "", "L", false)
	pdf.Ln(4)

	a.applyStyle(pdf, a.Body)
	for i, chapter := range bundle.Chapters {
		line := fmt.Sprintf("%d. %s", i+1, chapter.Title)
		pdf.MultiCell(0, 7, translate(line), "", "L", false)
	}
}

func (a *PDFAssembler) chapterSection(pdf *gofpdf.Fpdf, translate func(string) string, ordinal int, chapter data.NormalizedChapter) {
	pdf.AddPage()

	a.applyStyle(pdf, TextStyle{Family: a.Heading.Family, Size: 11})
	pdf.SetTextColor(120, 120, 120)
	pdf.MultiCell(0, 6, translate(fmt.Sprintf("Chapter %d", ordinal)), "", "L", false)

	a.applyStyle(pdf, a.Heading)
	pdf.MultiCell(0, 9, translate(chapter.Title), "", "L", false)
	pdf.Ln(6)

	a.applyStyle(pdf, a.Body)
	for _, paragraph := range strings.Split(chapter.Body, "\n\n") {
		pdf.MultiCell(0, 6, translate(paragraph), "", "L", false)
		pdf.Ln(3)
	}
}

func (a *PDFAssembler) closingPage(pdf *gofpdf.Fpdf, translate func(string) string) {
	pdf.AddPage()
	pdf.Ln(60)
	a.applyStyle(pdf, a.Heading)
	pdf.MultiCell(0, 10, "The End", "", "C", false)
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "..."
}
