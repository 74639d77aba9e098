package artifact_test

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"findmygig/scan-service/internal/artifact"
	"findmygig/scan-service/internal/model"
)

func TestCVDocx_StructureAndContent(t *testing.T) {
	data, err := artifact.CVDocx("Dana Levi", "dana@example.com", model.CVSections{
		Summary:    "Operations leader with GTM & RevOps depth.",
		Experience: []string{"BizOps Lead at Acme", "RevOps Manager at Initech"},
		Education:  []string{"BA, Economics"},
		Skills:     []string{"SQL", "Salesforce"},
	})
	if err != nil {
		t.Fatalf("CVDocx error: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("output is not a valid zip: %v", err)
	}

	var document string
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				t.Fatalf("open document.xml: %v", err)
			}
			raw, _ := io.ReadAll(rc)
			rc.Close()
			document = string(raw)
		}
	}
	if document == "" {
		t.Fatal("word/document.xml missing from archive")
	}

	for _, want := range []string{"Dana Levi", "dana@example.com", "Professional Summary", "BizOps Lead at Acme", "SQL, Salesforce"} {
		if !strings.Contains(document, want) {
			t.Errorf("document.xml missing %q", want)
		}
	}
	// Ampersand from the summary must be XML-escaped.
	if !strings.Contains(document, "GTM &amp; RevOps") {
		t.Error("text content must be XML-escaped")
	}
}

func TestCVDocx_EmptySectionsOmitted(t *testing.T) {
	data, err := artifact.CVDocx("Dana Levi", "dana@example.com", model.CVSections{
		Experience: []string{"BizOps Lead at Acme"},
	})
	if err != nil {
		t.Fatalf("CVDocx error: %v", err)
	}
	zr, _ := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, _ := f.Open()
		raw, _ := io.ReadAll(rc)
		rc.Close()
		for _, absent := range []string{"Professional Summary", "Education", "Skills"} {
			if strings.Contains(string(raw), absent) {
				t.Errorf("empty section %q must not render a header", absent)
			}
		}
	}
}

func TestCoverLetterText(t *testing.T) {
	got := artifact.CoverLetterText("Dana Levi", "dana@example.com", "Acme", "BizOps Lead", "I want this job.")

	if !strings.HasPrefix(got, "Dana Levi\ndana@example.com\n") {
		t.Errorf("letter header wrong: %q", got[:40])
	}
	if !strings.Contains(got, "Re: BizOps Lead at Acme") {
		t.Error("subject line missing")
	}
	if !strings.HasSuffix(got, "Best regards,\nDana Levi") {
		t.Error("signature missing")
	}
}

func TestFileName(t *testing.T) {
	if got := artifact.FileName("Dana Levi", "CV", "Acme", "docx"); got != "Dana_Levi_CV_Acme.docx" {
		t.Errorf("FileName = %q", got)
	}
	if got := artifact.FileName("  Dana   Levi ", "CoverLetter", "Acme", "txt"); got != "Dana_Levi_CoverLetter_Acme.txt" {
		t.Errorf("FileName = %q", got)
	}
}
