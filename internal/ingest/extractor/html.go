package extractor

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTML sections a document by heading elements after stripping script and
// style nodes. Content under each h1-h6 is grouped under that heading;
// content before the first heading lands under "document_start"; repeated
// heading text gets a positional suffix. Documents without usable headings
// collapse to a single "section=all" section of the page text.
type HTML struct{}

func (h *HTML) Extract(data []byte) ([]Section, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ExtractionError{Format: "html", Err: err}
	}
	doc.Find("script, style").Remove()

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

	doc.Find("h1, h2, h3, h4, h5, h6, p, li").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		switch goquery.NodeName(s) {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			flush()
			heading = text
			sawHeading = true
		default:
			body = append(body, text)
		}
	})
	flush()

	if !sawHeading || len(sections) == 0 {
		var lines []string
		for _, line := range strings.Split(doc.Text(), "\n") {
			if t := strings.TrimSpace(line); t != "" {
				lines = append(lines, t)
			}
		}
		if len(lines) == 0 {
			return nil, nil
		}
		return []Section{{SourceRef: "section=all", Text: strings.Join(lines, "\n")}}, nil
	}
	return sections, nil
}
