// Package artifact generates and serves application documents: a tailored CV
// as DOCX and PDF, and a cover letter as plain text.
package artifact

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/unidoc/unipdf/v3/creator"
	pdfmodel "github.com/unidoc/unipdf/v3/model"

	"findmygig/scan-service/internal/model"
)

// ─── DOCX ────────────────────────────────────────────────────────────────────

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// CVDocx assembles a WordprocessingML document from the tailored sections.
func CVDocx(name, email string, sections model.CVSections) ([]byte, error) {
	var body strings.Builder
	writeParagraph(&body, name, paraTitle)
	writeParagraph(&body, email, paraSubtitle)

	if sections.Summary != "" {
		writeParagraph(&body, "Professional Summary", paraHeading)
		writeParagraph(&body, sections.Summary, paraNormal)
	}
	if len(sections.Experience) > 0 {
		writeParagraph(&body, "Experience", paraHeading)
		for _, exp := range sections.Experience {
			writeParagraph(&body, exp, paraBullet)
		}
	}
	if len(sections.Education) > 0 {
		writeParagraph(&body, "Education", paraHeading)
		for _, edu := range sections.Education {
			writeParagraph(&body, edu, paraNormal)
		}
	}
	if len(sections.Skills) > 0 {
		writeParagraph(&body, "Skills", paraHeading)
		writeParagraph(&body, strings.Join(sections.Skills, ", "), paraNormal)
	}

	documentXML := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>` + body.String() + `</w:body>
</w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := []struct{ name, content string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", documentXML},
	}
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			return nil, fmt.Errorf("docx entry %s: %w", f.name, err)
		}
		if _, err := w.Write([]byte(f.content)); err != nil {
			return nil, fmt.Errorf("docx write %s: %w", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("docx close: %w", err)
	}
	return buf.Bytes(), nil
}

type paraKind int

const (
	paraNormal paraKind = iota
	paraTitle
	paraSubtitle
	paraHeading
	paraBullet
)

func writeParagraph(b *strings.Builder, text string, kind paraKind) {
	var props string
	switch kind {
	case paraTitle:
		props = `<w:pPr><w:jc w:val="center"/><w:rPr><w:b/><w:sz w:val="48"/></w:rPr></w:pPr><w:r><w:rPr><w:b/><w:sz w:val="48"/></w:rPr>`
	case paraSubtitle:
		props = `<w:pPr><w:jc w:val="center"/></w:pPr><w:r>`
	case paraHeading:
		props = `<w:pPr><w:rPr><w:b/><w:sz w:val="32"/></w:rPr></w:pPr><w:r><w:rPr><w:b/><w:sz w:val="32"/></w:rPr>`
	case paraBullet:
		props = `<w:pPr><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr><w:r>`
	default:
		props = `<w:r>`
	}

	var escaped bytes.Buffer
	xml.EscapeText(&escaped, []byte(text))

	b.WriteString(`<w:p>` + props + `<w:t xml:space="preserve">` + escaped.String() + `</w:t></w:r></w:p>`)
}

// ─── PDF ─────────────────────────────────────────────────────────────────────

// CVPdf lays the tailored CV text out on A4 pages. Lines that look like
// section headers (short, all caps) get the bold treatment.
func CVPdf(name, email, cvText string) ([]byte, error) {
	helvetica, err := pdfmodel.NewStandard14Font(pdfmodel.HelveticaName)
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	bold, err := pdfmodel.NewStandard14Font(pdfmodel.HelveticaBoldName)
	if err != nil {
		return nil, fmt.Errorf("load bold font: %w", err)
	}

	c := creator.New()
	c.SetPageSize(creator.PageSizeA4)
	c.SetPageMargins(50, 50, 50, 50)

	title := c.NewParagraph(name)
	title.SetFont(bold)
	title.SetFontSize(20)
	title.SetMargins(0, 0, 0, 8)
	if err := c.Draw(title); err != nil {
		return nil, fmt.Errorf("draw title: %w", err)
	}

	contact := c.NewParagraph(email)
	contact.SetFont(helvetica)
	contact.SetFontSize(12)
	contact.SetColor(creator.ColorRGBFrom8bit(77, 77, 77))
	contact.SetMargins(0, 0, 0, 20)
	if err := c.Draw(contact); err != nil {
		return nil, fmt.Errorf("draw contact: %w", err)
	}

	for _, line := range strings.Split(cvText, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		p := c.NewParagraph(trimmed)
		if isHeadingLine(trimmed) {
			p.SetFont(bold)
			p.SetFontSize(14)
			p.SetMargins(0, 0, 10, 4)
		} else {
			p.SetFont(helvetica)
			p.SetFontSize(11)
			p.SetMargins(0, 0, 0, 4)
		}
		if err := c.Draw(p); err != nil {
			return nil, fmt.Errorf("draw line: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := c.Write(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// isHeadingLine reports whether a CV line reads like a section header.
func isHeadingLine(line string) bool {
	if len(line) >= 50 || line != strings.ToUpper(line) {
		return false
	}
	for _, r := range line {
		if !(r == ' ' || (r >= 'A' && r <= 'Z')) {
			return false
		}
	}
	return true
}

// ─── Cover letter ────────────────────────────────────────────────────────────

// CoverLetterText wraps the generated letter body with a dated header and
// signature.
func CoverLetterText(name, email, company, jobTitle, content string) string {
	date := time.Now().Format("January 2, 2006")
	return fmt.Sprintf(`%s
%s
%s

Re: %s at %s

%s

Best regards,
%s`, name, email, date, jobTitle, company, content, name)
}

// FileName builds the canonical artifact file name, e.g. Dana_Levi_CV_Acme.docx.
func FileName(userName, kind, company, ext string) string {
	safe := strings.Join(strings.Fields(userName), "_")
	return fmt.Sprintf("%s_%s_%s.%s", safe, kind, company, ext)
}
