package chunker

import (
	"strings"
	"testing"
)

func TestChunk_ShortTextIsSingleChunk(t *testing.T) {
	text := "short text"
	pieces, err := Chunk(text, 100, 10)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(pieces))
	}
	if pieces[0].Text != text {
		t.Errorf("piece text = %q, want %q", pieces[0].Text, text)
	}
	if pieces[0].Start != 0 || pieces[0].End != len([]rune(text)) {
		t.Errorf("offsets = [%d,%d), want [0,%d)", pieces[0].Start, pieces[0].End, len([]rune(text)))
	}
}

func TestChunk_Deterministic(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 40)

	first, err := Chunk(text, 120, 20)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	second, _ := Chunk(text, 120, 20)

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("piece %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestChunk_WindowsCoverInput(t *testing.T) {
	text := strings.Repeat("abcdefghij", 35)
	size, overlap := 100, 25

	pieces, err := Chunk(text, size, overlap)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(pieces) < 2 {
		t.Fatalf("expected multiple pieces, got %d", len(pieces))
	}

	// Each window starts exactly size-overlap after the previous one and the
	// last window reaches the end of the input.
	for i := 1; i < len(pieces); i++ {
		if pieces[i].Start != pieces[i-1].Start+(size-overlap) {
			t.Errorf("piece %d starts at %d, want %d", i, pieces[i].Start, pieces[i-1].Start+(size-overlap))
		}
	}
	last := pieces[len(pieces)-1]
	if last.End != len([]rune(text)) {
		t.Errorf("last window ends at %d, want %d", last.End, len([]rune(text)))
	}
	for _, p := range pieces {
		if string([]rune(text)[p.Start:p.End]) != p.Text {
			t.Errorf("piece %d text does not match its offsets", p.Index)
		}
	}
}

func TestChunk_DropsWhitespaceTail(t *testing.T) {
	text := strings.Repeat("x", 100) + strings.Repeat(" ", 10)

	pieces, err := Chunk(text, 100, 0)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(pieces) != 1 {
		t.Fatalf("expected whitespace tail to be dropped, got %d pieces", len(pieces))
	}
}

func TestChunk_KeepsInteriorWhitespaceWindows(t *testing.T) {
	text := strings.Repeat("x", 100) + strings.Repeat(" ", 100) + strings.Repeat("y", 100)

	pieces, err := Chunk(text, 100, 0)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(pieces) != 3 {
		t.Fatalf("expected 3 pieces including the whitespace window, got %d", len(pieces))
	}
	for i := 1; i < len(pieces); i++ {
		if pieces[i].Start != pieces[i-1].End {
			t.Errorf("gap between piece %d and %d: [%d,%d) then [%d,%d)",
				i-1, i, pieces[i-1].Start, pieces[i-1].End, pieces[i].Start, pieces[i].End)
		}
	}
	if pieces[1].Text != strings.Repeat(" ", 100) {
		t.Errorf("interior whitespace window was altered: %q", pieces[1].Text)
	}
}

func TestChunk_AllWhitespace(t *testing.T) {
	pieces, err := Chunk("   \n\t  ", 100, 10)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(pieces) != 0 {
		t.Errorf("expected no pieces for whitespace input, got %d", len(pieces))
	}
}

func TestChunk_InvalidParams(t *testing.T) {
	if _, err := Chunk("text", 0, 0); err == nil {
		t.Error("expected error for size=0")
	}
	if _, err := Chunk("text", 10, 10); err == nil {
		t.Error("expected error for overlap == size")
	}
	if _, err := Chunk("text", 10, -1); err == nil {
		t.Error("expected error for negative overlap")
	}
}

func TestChunk_OrdinalsAreSequential(t *testing.T) {
	pieces, err := Chunk(strings.Repeat("word ", 200), 80, 10)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	for i, p := range pieces {
		if p.Index != i {
			t.Errorf("piece %d has ordinal %d", i, p.Index)
		}
	}
}
