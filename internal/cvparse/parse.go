// Package cvparse turns uploaded DOCX résumés into plain text.
package cvparse

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

var (
	paragraphEnd = regexp.MustCompile(`</w:p>`)
	lineBreak    = regexp.MustCompile(`<w:br[^>]*/?>`)
	tabMark      = regexp.MustCompile(`<w:tab[^>]*/?>`)
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
)

// ParseDocx extracts the plain text of a DOCX document.
func ParseDocx(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}
	defer doc.Close()

	return TextFromXML(doc.Editable().GetContent()), nil
}

// TextFromXML flattens WordprocessingML into plain text: paragraphs become
// lines, explicit breaks and tabs are preserved, everything else is stripped.
func TextFromXML(content string) string {
	content = paragraphEnd.ReplaceAllString(content, "\n")
	content = lineBreak.ReplaceAllString(content, "\n")
	content = tabMark.ReplaceAllString(content, "\t")
	content = xmlTag.ReplaceAllString(content, "")

	content = strings.ReplaceAll(content, "&amp;", "&")
	content = strings.ReplaceAll(content, "&lt;", "<")
	content = strings.ReplaceAll(content, "&gt;", ">")
	content = strings.ReplaceAll(content, "&quot;", `"`)
	content = strings.ReplaceAll(content, "&apos;", "'")

	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, strings.TrimRight(line, " \t"))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// Sections is a rough structural split of a résumé.
type Sections struct {
	Experience []string
	Education  []string
	Skills     []string
}

// DetectSections walks the text line by line and buckets content under the
// last seen section header.
func DetectSections(text string) Sections {
	var (
		sections Sections
		current  *[]string
	)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)

		switch {
		case strings.Contains(lower, "experience") || strings.Contains(lower, "work history"):
			sections.Experience = []string{}
			current = &sections.Experience
		case strings.Contains(lower, "education"):
			sections.Education = []string{}
			current = &sections.Education
		case strings.Contains(lower, "skills"):
			sections.Skills = []string{}
			current = &sections.Skills
		case current != nil && trimmed != "":
			*current = append(*current, trimmed)
		}
	}
	return sections
}
