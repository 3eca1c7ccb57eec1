package extractor

import (
	"fmt"
	"strings"
)

// Section is one extracted unit of text with a stable source_ref. Repeated
// extraction of identical bytes yields identical (SourceRef, Text) sequences.
type Section struct {
	SourceRef string
	Text      string
}

// Extractor turns raw document bytes into an ordered list of sections.
type Extractor interface {
	Extract(data []byte) ([]Section, error)
}

// ExtractionError marks malformed or unreadable input for a given format.
type ExtractionError struct {
	Format string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// headings longer than this are truncated in source_refs.
const maxHeadingRef = 100

// ForFormat resolves an extractor from a format hint (file extension with or
// without the leading dot, case-insensitive).
func ForFormat(format string) (Extractor, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "txt", "text":
		return &PlainText{}, nil
	case "md", "markdown":
		return &Markdown{}, nil
	case "html", "htm":
		return &HTML{}, nil
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
}

func headingRef(heading string) string {
	if len(heading) > maxHeadingRef {
		heading = heading[:maxHeadingRef]
	}
	return "heading=" + heading
}

// refCounter keeps source_refs unique within one extraction when the same
// heading text repeats; later occurrences get a positional suffix
// (heading=Notes, heading=Notes#2).
type refCounter map[string]int

func (c refCounter) next(heading string) string {
	ref := headingRef(heading)
	c[ref]++
	if n := c[ref]; n > 1 {
		ref = fmt.Sprintf("%s#%d", ref, n)
	}
	return ref
}
