package cvparse_test

import (
	"strings"
	"testing"

	"findmygig/scan-service/internal/cvparse"
)

func TestTextFromXML(t *testing.T) {
	content := `<w:body>` +
		`<w:p><w:r><w:t>Dana Levi</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Operations</w:t><w:tab/><w:t>Leader</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Scaled GTM &amp; RevOps teams</w:t></w:r></w:p>` +
		`</w:body>`

	got := cvparse.TextFromXML(content)
	want := "Dana Levi\nOperations\tLeader\nScaled GTM & RevOps teams"
	if got != want {
		t.Errorf("TextFromXML = %q, want %q", got, want)
	}
}

func TestTextFromXML_LineBreaks(t *testing.T) {
	got := cvparse.TextFromXML(`<w:p><w:r><w:t>first</w:t><w:br/><w:t>second</w:t></w:r></w:p>`)
	if got != "first\nsecond" {
		t.Errorf("TextFromXML = %q", got)
	}
}

func TestDetectSections(t *testing.T) {
	text := strings.Join([]string{
		"Dana Levi",
		"Experience",
		"BizOps Lead at Acme",
		"RevOps Manager at Initech",
		"",
		"Education",
		"BA, Economics",
		"Skills",
		"SQL, Salesforce, Looker",
	}, "\n")

	sections := cvparse.DetectSections(text)
	if len(sections.Experience) != 2 || sections.Experience[0] != "BizOps Lead at Acme" {
		t.Errorf("Experience = %v", sections.Experience)
	}
	if len(sections.Education) != 1 || sections.Education[0] != "BA, Economics" {
		t.Errorf("Education = %v", sections.Education)
	}
	if len(sections.Skills) != 1 {
		t.Errorf("Skills = %v", sections.Skills)
	}
}

func TestDetectSections_NoHeaders(t *testing.T) {
	sections := cvparse.DetectSections("just a paragraph of text\nwith no headers")
	if sections.Experience != nil || sections.Education != nil || sections.Skills != nil {
		t.Errorf("sections = %+v, want all nil", sections)
	}
}
