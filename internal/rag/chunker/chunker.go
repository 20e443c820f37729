// Package chunker splits extracted text into overlapping fixed-size windows.
// The unit is a rune ("character" chunking, fixed per deployment); offsets in
// the produced pieces are rune offsets into the input.
package chunker

import (
	"fmt"
	"strings"
)

// Piece is one window of the input text. Index is the ordinal within the
// input, Start/End the half-open rune range the text was cut from.
type Piece struct {
	Text  string
	Index int
	Start int
	End   int
}

// Chunk walks text in a sliding window of size runes, advancing by
// size-overlap each step. The final window may be shorter and is kept only if
// it contains at least one non-whitespace rune. Deterministic for a given
// (text, size, overlap) triple.
func Chunk(text string, size, overlap int) ([]Piece, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunker: size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunker: overlap must be in [0,%d), got %d", size, overlap)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	// Short input is a single chunk equal to the whole text.
	if len(runes) <= size {
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}
		return []Piece{{Text: text, Index: 0, Start: 0, End: len(runes)}}, nil
	}

	step := size - overlap
	var pieces []Piece
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}

		window := string(runes[start:end])
		// Only the final window may be dropped, and only when it is pure
		// whitespace; interior windows always count so offsets stay gapless.
		if end == len(runes) && strings.TrimSpace(window) == "" {
			break
		}
		pieces = append(pieces, Piece{
			Text:  window,
			Index: len(pieces),
			Start: start,
			End:   end,
		})

		if end == len(runes) {
			break
		}
	}
	return pieces, nil
}
