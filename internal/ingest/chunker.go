package ingest

import (
	"strings"

	"github.com/IGabriel/ai-knowledge-bench/internal/domain"
)

// sentence terminators considered when looking for a cut point.
var chunkBoundaries = []string{". ", "! ", "? ", "\n\n"}

// Chunk splits section text into an ordered sequence of overlapping chunks
// under the given profile. Cuts prefer the nearest preceding sentence
// terminator within the chunk window; when none exists the cut lands at
// chunk_size exactly. Each chunk after the first starts chunk_overlap
// characters before the previous cut point. A tail shorter than the overlap
// is folded into the final chunk instead of being emitted on its own.
// Deterministic: identical inputs always yield identical output.
func Chunk(text string, profile domain.ChunkProfile) []string {
	size := profile.ChunkSize
	overlap := profile.ChunkOverlap
	if strings.TrimSpace(text) == "" || size <= 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			end = len(text)
		} else {
			if cut := lastBoundary(text, start, end); cut > start {
				end = cut
			}
			if len(text)-end < overlap {
				end = len(text)
			}
		}

		piece := strings.TrimSpace(text[start:end])
		if piece != "" {
			chunks = append(chunks, piece)
		}
		if end >= len(text) {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// lastBoundary returns the position just past the latest sentence terminator
// in text[start:end], or -1 when the window holds none.
func lastBoundary(text string, start, end int) int {
	window := text[start:end]
	best := -1
	for _, b := range chunkBoundaries {
		if i := strings.LastIndex(window, b); i > best {
			best = i
		}
	}
	if best < 0 {
		return -1
	}
	return start + best + 1
}
