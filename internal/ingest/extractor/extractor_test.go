package extractor

import (
	"testing"
)

func TestPlainTextSingleSection(t *testing.T) {
	ex, err := ForFormat("txt")
	if err != nil {
		t.Fatalf("resolve extractor: %v", err)
	}
	sections, err := ex.Extract([]byte("  hello world\nsecond line  \n"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("expected one section, got %d", len(sections))
	}
	if sections[0].SourceRef != "section=all" {
		t.Fatalf("unexpected source_ref %q", sections[0].SourceRef)
	}
	if sections[0].Text != "hello world\nsecond line" {
		t.Fatalf("unexpected text %q", sections[0].Text)
	}
}

func TestMarkdownSectionsByHeading(t *testing.T) {
	input := []byte(`intro before any heading

# Setup

Install the tool.
Run it once.

## Usage

Pass a file.

#not-a-heading stays in the body
`)
	ex, _ := ForFormat("md")
	sections, err := ex.Extract(input)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d: %+v", len(sections), sections)
	}
	if sections[0].SourceRef != "heading=document_start" || sections[0].Text != "intro before any heading" {
		t.Fatalf("unexpected preamble section %+v", sections[0])
	}
	if sections[1].SourceRef != "heading=Setup" {
		t.Fatalf("unexpected source_ref %q", sections[1].SourceRef)
	}
	if sections[2].SourceRef != "heading=Usage" {
		t.Fatalf("unexpected source_ref %q", sections[2].SourceRef)
	}
	if sections[2].Text != "Pass a file.\n#not-a-heading stays in the body" {
		t.Fatalf("unexpected usage text %q", sections[2].Text)
	}
}

func TestMarkdownWithoutHeadingsFallsBack(t *testing.T) {
	ex, _ := ForFormat("markdown")
	sections, err := ex.Extract([]byte("just a paragraph\nand another line\n"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(sections) != 1 || sections[0].SourceRef != "section=all" {
		t.Fatalf("expected single section=all fallback, got %+v", sections)
	}
}

func TestMarkdownRepeatedHeadingsGetDistinctRefs(t *testing.T) {
	input := []byte("# Notes\n\nfirst body\n\n# Notes\n\nsecond body\n")
	ex, _ := ForFormat("md")
	sections, err := ex.Extract(input)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d: %+v", len(sections), sections)
	}
	if sections[0].SourceRef != "heading=Notes" || sections[0].Text != "first body" {
		t.Fatalf("unexpected first section %+v", sections[0])
	}
	if sections[1].SourceRef != "heading=Notes#2" || sections[1].Text != "second body" {
		t.Fatalf("repeated heading must get a distinct source_ref, got %+v", sections[1])
	}
}

func TestExtractionIsStable(t *testing.T) {
	input := []byte("# Title\n\nbody text\n")
	ex, _ := ForFormat("md")
	first, err := ex.Extract(input)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	second, err := ex.Extract(input)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("section counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("section %d differs between extractions", i)
		}
	}
}

func TestHTMLSectionsByHeading(t *testing.T) {
	input := []byte(`<html><head><style>p{color:red}</style></head><body>
<p>lead paragraph</p>
<h1>Guide</h1>
<p>first step</p>
<li>a bullet</li>
<h2>Appendix</h2>
<p>extra notes</p>
<script>alert("ignored")</script>
</body></html>`)
	ex, _ := ForFormat("html")
	sections, err := ex.Extract(input)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d: %+v", len(sections), sections)
	}
	if sections[0].SourceRef != "heading=document_start" || sections[0].Text != "lead paragraph" {
		t.Fatalf("unexpected preamble section %+v", sections[0])
	}
	if sections[1].SourceRef != "heading=Guide" || sections[1].Text != "first step\na bullet" {
		t.Fatalf("unexpected guide section %+v", sections[1])
	}
	if sections[2].SourceRef != "heading=Appendix" || sections[2].Text != "extra notes" {
		t.Fatalf("unexpected appendix section %+v", sections[2])
	}
}

func TestHTMLWithoutHeadingsFallsBack(t *testing.T) {
	input := []byte("<html><body>\n<p>alpha</p>\n<p>beta</p>\n</body></html>")
	ex, _ := ForFormat("html")
	sections, err := ex.Extract(input)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(sections) != 1 || sections[0].SourceRef != "section=all" {
		t.Fatalf("expected single section=all fallback, got %+v", sections)
	}
	if sections[0].Text != "alpha\nbeta" {
		t.Fatalf("unexpected fallback text %q", sections[0].Text)
	}
}

func TestHTMLRepeatedHeadingsGetDistinctRefs(t *testing.T) {
	input := []byte(`<html><body>
<h2>Notes</h2>
<p>first body</p>
<h2>Notes</h2>
<p>second body</p>
</body></html>`)
	ex, _ := ForFormat("html")
	sections, err := ex.Extract(input)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d: %+v", len(sections), sections)
	}
	if sections[0].SourceRef != "heading=Notes" || sections[0].Text != "first body" {
		t.Fatalf("unexpected first section %+v", sections[0])
	}
	if sections[1].SourceRef != "heading=Notes#2" || sections[1].Text != "second body" {
		t.Fatalf("repeated heading must get a distinct source_ref, got %+v", sections[1])
	}
}

func TestForFormatUnsupported(t *testing.T) {
	if _, err := ForFormat("pdf"); err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
}
