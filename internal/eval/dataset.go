package eval

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
)

// LoadDataset reads a golden set from disk. JSONL files carry one item per
// line; YAML and JSON files carry a top-level list. Returns the dataset name
// (the file's base name) with the parsed items.
func LoadDataset(path string) (string, []types.EvaluationItem, error) {
	name := filepath.Base(path)
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var items []types.EvaluationItem
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		line := 0
		for sc.Scan() {
			line++
			raw := strings.TrimSpace(sc.Text())
			if raw == "" {
				continue
			}
			var item types.EvaluationItem
			if err := json.Unmarshal([]byte(raw), &item); err != nil {
				return "", nil, fmt.Errorf("parse %s line %d: %w", name, line, err)
			}
			items = append(items, item)
		}
		if err := sc.Err(); err != nil {
			return "", nil, fmt.Errorf("read %s: %w", name, err)
		}
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(f).Decode(&items); err != nil {
			return "", nil, fmt.Errorf("parse %s: %w", name, err)
		}
	case ".json":
		if err := json.NewDecoder(f).Decode(&items); err != nil {
			return "", nil, fmt.Errorf("parse %s: %w", name, err)
		}
	default:
		return "", nil, fmt.Errorf("unsupported dataset format %q", filepath.Ext(path))
	}

	for i, item := range items {
		if item.ID == "" {
			return "", nil, fmt.Errorf("%s: item %d has no id", name, i)
		}
		if strings.TrimSpace(item.Question) == "" {
			return "", nil, fmt.Errorf("%s: item %q has no question", name, item.ID)
		}
	}
	return name, items, nil
}
