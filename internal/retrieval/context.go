package retrieval

import (
	"errors"
	"fmt"
	"strings"
)

var errBadQueryEmbedding = errors.New("embedder returned an unexpected number of query vectors")

// AnswerSystemPrompt instructs the generator to stay grounded in the
// retrieved sources and cite them.
const AnswerSystemPrompt = "You are a careful assistant answering questions from a document knowledge base. " +
	"Use only the provided sources. Cite sources by their bracketed labels. " +
	"If the sources do not contain the answer, say so plainly."

// BuildContext renders retrieved candidates as a numbered source block for
// the generator prompt.
func BuildContext(candidates []Candidate) string {
	if len(candidates) == 0 {
		return "No sources were retrieved."
	}
	var b strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&b, "[Source %d: %s]\n%s\n\n", i+1, c.SourceRef, c.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// BuildUserPrompt combines the rendered sources with the question.
func BuildUserPrompt(candidates []Candidate, question string) string {
	return "Sources:\n\n" + BuildContext(candidates) + "\n\nQuestion: " + question
}
