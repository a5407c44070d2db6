package summarize

import (
	"fmt"
	"strings"
)

// Chunk is one window of a ChunkSet. Start and End are rune offsets into the
// normalized text; Overlap counts the leading runes shared with the previous
// chunk (0 for the first one).
type Chunk struct {
	Index   int
	Text    string
	Start   int
	End     int
	Overlap int
}

// ChunkSet is the ordered split of a transcript.
type ChunkSet struct {
	Size    int
	Overlap int
	Chunks  []Chunk
}

// Len returns the number of chunks.
func (s *ChunkSet) Len() int { return len(s.Chunks) }

// Reconstruct concatenates the chunks with overlaps removed. The result
// equals Normalize of the split input.
func (s *ChunkSet) Reconstruct() string {
	var b strings.Builder
	for _, c := range s.Chunks {
		r := []rune(c.Text)
		b.WriteString(string(r[c.Overlap:]))
	}
	return b.String()
}

// Normalize collapses every whitespace run to one space and trims the ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Split cuts the normalized text into windows of at most size runes, each
// starting overlap runes before the previous one ended. A window that would
// end mid-word is pulled back to the last space in its trailing 2%.
func Split(text string, size, overlap int) (*ChunkSet, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d out of range [0, %d)", overlap, size)
	}

	runes := []rune(Normalize(text))
	set := &ChunkSet{Size: size, Overlap: overlap}
	if len(runes) == 0 {
		return set, nil
	}

	slack := size / 50
	start, prevEnd := 0, 0
	for {
		end := min(start+size, len(runes))
		if end < len(runes) {
			end = snapBack(runes, start, end, slack)
		}
		set.Chunks = append(set.Chunks, Chunk{
			Index:   len(set.Chunks),
			Text:    string(runes[start:end]),
			Start:   start,
			End:     end,
			Overlap: prevEnd - start,
		})
		if end == len(runes) {
			return set, nil
		}
		prevEnd = end
		start = max(end-overlap, start+1)
	}
}

// snapBack moves end to the last space within slack runes before it. A cut
// that already falls on a space is kept.
func snapBack(runes []rune, start, end, slack int) int {
	for i := end; i >= end-slack && i > start; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return end
}
