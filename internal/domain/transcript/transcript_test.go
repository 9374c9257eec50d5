package transcript

import (
	"testing"

	"github.com/retakecut/retakecut/internal/types"
)

func sampleWords() []types.TranscriptWord {
	return []types.TranscriptWord{
		{Word: "So", Start: 10.0, End: 10.2},
		{Word: "today", Start: 10.2, End: 10.5},
		{Word: "we're", Start: 10.5, End: 10.8},
		{Word: "um", Start: 12.0, End: 12.2},
		{Word: "actually", Start: 12.2, End: 12.6},
		{Word: "Cut,", Start: 13.0, End: 13.3},
		{Word: "cut.", Start: 13.3, End: 13.6},
		{Word: "So", Start: 14.0, End: 14.2},
		{Word: "basics.", Start: 15.4, End: 15.8},
	}
}

func TestFindPhrases_CaseAndPunctuationInsensitive(t *testing.T) {
	t.Parallel()

	matches := FindPhrases(sampleWords(), []string{"cut cut"})
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1: %+v", len(matches), matches)
	}
	m := matches[0]
	if m.Start != 13.0 || m.End != 13.6 {
		t.Fatalf("match span: got [%v,%v], want [13.0,13.6]", m.Start, m.End)
	}
	if m.WordIndex != 5 {
		t.Fatalf("word index: got %d, want 5", m.WordIndex)
	}
}

func TestFindPhrases_RepeatsAllReported(t *testing.T) {
	t.Parallel()

	words := []types.TranscriptWord{
		{Word: "cut", Start: 1.0, End: 1.3},
		{Word: "cut", Start: 1.3, End: 1.6},
		{Word: "fine", Start: 5.0, End: 5.4},
		{Word: "cut", Start: 9.0, End: 9.3},
		{Word: "cut", Start: 9.3, End: 9.6},
	}
	matches := FindPhrases(words, []string{"cut cut"})
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
}

func TestFindPhrases_OverlappingPhrases(t *testing.T) {
	t.Parallel()

	words := []types.TranscriptWord{
		{Word: "cut", Start: 1.0, End: 1.3},
		{Word: "cut", Start: 1.3, End: 1.6},
		{Word: "that", Start: 1.6, End: 1.9},
	}
	matches := FindPhrases(words, []string{"cut cut", "cut cut that"})
	if len(matches) != 2 {
		t.Fatalf("overlapping windows for different phrases must all be reported, got %d", len(matches))
	}
}

func TestSentenceBoundaries(t *testing.T) {
	t.Parallel()

	words := []types.TranscriptWord{
		{Word: "First", Start: 0.0, End: 0.3},
		{Word: "sentence.", Start: 0.3, End: 0.8},
		{Word: "Second", Start: 1.0, End: 1.4},
		{Word: "part", Start: 1.4, End: 1.8},
		// 0.7s pause follows
		{Word: "third", Start: 2.5, End: 2.9},
	}
	boundaries := SentenceBoundaries(words, 0.5)

	want := map[int]bool{1: true, 3: true, 4: true}
	if len(boundaries) != len(want) {
		t.Fatalf("got boundaries %v, want indices 1 (punctuation), 3 (pause), 4 (last)", boundaries)
	}
	for _, b := range boundaries {
		if !want[b] {
			t.Fatalf("unexpected boundary index %d in %v", b, boundaries)
		}
	}
}

func TestSentenceBoundaries_Empty(t *testing.T) {
	t.Parallel()

	if got := SentenceBoundaries(nil, 0.5); len(got) != 0 {
		t.Fatalf("expected no boundaries, got %v", got)
	}
}

func TestRemoveWordsIn(t *testing.T) {
	t.Parallel()

	words := sampleWords()
	cuts := []types.CutInstruction{{Start: 11.8, End: 13.6}}
	kept := RemoveWordsIn(words, cuts)

	for _, w := range kept {
		if w.End >= 11.8 && w.Start <= 13.6 {
			t.Fatalf("word %q [%v,%v] intersects cut but was kept", w.Word, w.Start, w.End)
		}
	}
	// Words fully outside survive.
	if len(kept) != 5 {
		t.Fatalf("got %d kept words, want 5: %+v", len(kept), kept)
	}
}

func TestRemoveWordsIn_NoCuts(t *testing.T) {
	t.Parallel()

	words := sampleWords()
	if got := RemoveWordsIn(words, nil); len(got) != len(words) {
		t.Fatalf("no cuts should keep all words")
	}
}

func TestPlaintext(t *testing.T) {
	t.Parallel()

	got := Plaintext([]types.TranscriptWord{
		{Word: " Hello "},
		{Word: "world."},
	})
	if got != "Hello world." {
		t.Fatalf("plaintext: got %q", got)
	}
}
