package kb

import "strings"

// separators are tried in order, preferring paragraph boundaries over
// line boundaries over word boundaries over raw characters — the
// "recursive character splitter" described in spec §4.1.
var separators = []string{"\n\n", "\n", " ", ""}

// splitChunks splits content into overlapping chunks targeting
// chunkSize characters with chunkOverlap characters of overlap between
// consecutive chunks, preferring to break on paragraph/line boundaries
// before falling back to raw character splits.
func splitChunks(content string, chunkSize, chunkOverlap int) []string {
	if content == "" {
		return nil
	}
	if chunkSize <= 0 {
		return []string{content}
	}

	pieces := recursiveSplit(content, chunkSize, 0)
	return mergeWithOverlap(pieces, chunkSize, chunkOverlap)
}

// recursiveSplit breaks content into pieces no larger than chunkSize,
// trying each separator in turn before falling back to a hard
// character cut.
func recursiveSplit(content string, chunkSize int, sepIdx int) []string {
	if len(content) <= chunkSize {
		return []string{content}
	}
	if sepIdx >= len(separators) {
		return hardSplit(content, chunkSize)
	}

	sep := separators[sepIdx]
	var parts []string
	if sep == "" {
		return hardSplit(content, chunkSize)
	}
	parts = strings.Split(content, sep)

	var out []string
	for i, part := range parts {
		piece := part
		if i < len(parts)-1 {
			piece += sep
		}
		if piece == "" {
			continue
		}
		if len(piece) > chunkSize {
			out = append(out, recursiveSplit(piece, chunkSize, sepIdx+1)...)
		} else {
			out = append(out, piece)
		}
	}
	return out
}

func hardSplit(content string, chunkSize int) []string {
	var out []string
	runes := []rune(content)
	for i := 0; i < len(runes); i += chunkSize {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}

// mergeWithOverlap packs small pieces together up to chunkSize and
// carries chunkOverlap trailing characters from one chunk into the
// start of the next.
func mergeWithOverlap(pieces []string, chunkSize, chunkOverlap int) []string {
	if len(pieces) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, current.String())
		current.Reset()
	}

	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+len(piece) > chunkSize {
			flush()
			if chunkOverlap > 0 && len(chunks) > 0 {
				tail := chunks[len(chunks)-1]
				if len(tail) > chunkOverlap {
					tail = tail[len(tail)-chunkOverlap:]
				}
				current.WriteString(tail)
			}
		}
		current.WriteString(piece)
	}
	flush()

	return chunks
}
