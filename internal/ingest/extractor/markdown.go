package extractor

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"
)

// Markdown sections a document by ATX headings. Text before the first
// heading is grouped under "document_start"; a document with no headings
// collapses to a single "section=all" section. Repeated heading text gets
// a positional suffix so source_refs stay unique within the document.
type Markdown struct{}

func (m *Markdown) Extract(data []byte) ([]Section, error) {
	if !utf8.Valid(data) {
		return nil, &ExtractionError{Format: "md", Err: errors.New("not valid utf-8")}
	}

	var sections []Section
	heading := "document_start"
	sawHeading := false
	refs := refCounter{}
	var body []string

	flush := func() {
		if len(body) == 0 {
			return
		}
		sections = append(sections, Section{
			SourceRef: refs.next(heading),
			Text:      strings.Join(body, "\n"),
		})
		body = nil
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if h, ok := atxHeading(line); ok {
			flush()
			heading = h
			sawHeading = true
			continue
		}
		body = append(body, line)
	}
	if err := sc.Err(); err != nil {
		return nil, &ExtractionError{Format: "md", Err: err}
	}
	flush()

	if !sawHeading || len(sections) == 0 {
		text := strings.TrimSpace(string(data))
		if text == "" {
			return nil, nil
		}
		return []Section{{SourceRef: "section=all", Text: text}}, nil
	}
	return sections, nil
}

// atxHeading reports whether the line is a markdown heading (1-6 leading
// hashes followed by a space) and returns its title.
func atxHeading(line string) (string, bool) {
	if !strings.HasPrefix(line, "#") {
		return "", false
	}
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level > 6 || level == len(line) || line[level] != ' ' {
		return "", false
	}
	title := strings.TrimSpace(line[level+1:])
	if title == "" {
		return "", false
	}
	return title, true
}
