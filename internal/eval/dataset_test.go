package eval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestLoadDatasetJSONL(t *testing.T) {
	docID := uuid.New()
	path := filepath.Join(t.TempDir(), "golden.jsonl")
	content := `{"id":"q1","question":"What is indexing?","expected_answer":"Splitting and embedding.","expected_sources":[{"document_id":"` + docID.String() + `","source_ref":"page=5"}]}

{"id":"q2","question":"Second question","expected_answer":"Second answer","expected_sources":[]}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	name, items, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if name != "golden.jsonl" {
		t.Fatalf("unexpected dataset name %q", name)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != "q1" || len(items[0].ExpectedSources) != 1 {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[0].ExpectedSources[0].DocumentID != docID || items[0].ExpectedSources[0].SourceRef != "page=5" {
		t.Fatalf("unexpected citation: %+v", items[0].ExpectedSources[0])
	}
}

func TestLoadDatasetYAML(t *testing.T) {
	docID := uuid.New()
	path := filepath.Join(t.TempDir(), "golden.yaml")
	content := `- id: q1
  question: What is chunk overlap?
  expected_answer: Characters shared between adjacent chunks.
  expected_sources:
    - document_id: ` + docID.String() + `
      source_ref: heading=Chunking
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, items, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(items) != 1 || items[0].ExpectedSources[0].SourceRef != "heading=Chunking" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if items[0].ExpectedSources[0].DocumentID != docID {
		t.Fatalf("document id not parsed: %+v", items[0].ExpectedSources[0])
	}
}

func TestLoadDatasetRejectsInvalidItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	if err := os.WriteFile(path, []byte(`{"question":"missing id"}`+"\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, _, err := LoadDataset(path); err == nil {
		t.Fatal("expected an error for an item without an id")
	}

	if _, _, err := LoadDataset(filepath.Join(t.TempDir(), "golden.csv")); err == nil {
		t.Fatal("expected an error for an unsupported extension")
	}
}
