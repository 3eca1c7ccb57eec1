package extractor

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// PlainText treats the whole file as one section.
type PlainText struct{}

func (p *PlainText) Extract(data []byte) ([]Section, error) {
	if !utf8.Valid(data) {
		return nil, &ExtractionError{Format: "txt", Err: errors.New("not valid utf-8")}
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}
	return []Section{{SourceRef: "section=all", Text: text}}, nil
}
