package ingestion_engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oluseyi-dev/paperscope/internal/models"
)

func TestSplitShortTextIsSingleChunk(t *testing.T) {
	s := Splitter{MaxSize: 100, Overlap: 0}
	got := s.Split("Abstract\nThis paper studies X.")
	assert.Equal(t, []string{"Abstract\nThis paper studies X."}, got)
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	s := Splitter{MaxSize: 10, Overlap: 0}
	got := s.Split("aaaa\n\nbbbb\n\ncccc")
	assert.Equal(t, []string{"aaaa\n\nbbbb", "cccc"}, got)
}

func TestSplitOverlapSeedsNextChunk(t *testing.T) {
	s := Splitter{MaxSize: 10, Overlap: 5}
	got := s.Split("aaaa\n\nbbbb\n\ncccc")
	require.Equal(t, []string{"aaaa\n\nbbbb", "bbbb\n\ncccc"}, got)
}

func TestSplitFallsBackToWords(t *testing.T) {
	s := Splitter{MaxSize: 9, Overlap: 0}
	got := s.Split("one two three four")
	assert.Equal(t, []string{"one two", "three", "four"}, got)
}

func TestSplitHardCutWithoutSeparators(t *testing.T) {
	s := Splitter{MaxSize: 4, Overlap: 1}
	got := s.Split("abcdefghij")
	assert.Equal(t, []string{"abcd", "defg", "ghij"}, got)
}

func TestSplitSizeBound(t *testing.T) {
	text := strings.Repeat("word ", 200) + "\n\n" + strings.Repeat("more ", 200)
	for _, overlap := range []int{0, 20} {
		s := Splitter{MaxSize: 80, Overlap: overlap}
		for _, chunk := range s.Split(text) {
			assert.LessOrEqual(t, len(chunk), 80+overlap+2, "overlap=%d", overlap)
			assert.NotEmpty(t, strings.TrimSpace(chunk))
		}
	}
}

func TestSplitDropsWhitespaceOnlyPassages(t *testing.T) {
	s := Splitter{MaxSize: 5, Overlap: 0}
	got := s.Split("aaaa\n\n   \n\nbbbb")
	assert.Equal(t, []string{"aaaa", "bbbb"}, got)
}

func TestChunkSectionsRunningIndex(t *testing.T) {
	sections := []models.Section{
		{Name: "abstract", Text: strings.Repeat("alpha ", 40), PageStart: 1, PageEnd: 1},
		{Name: "conclusion", Text: strings.Repeat("omega ", 40), PageStart: 4, PageEnd: 5},
	}

	chunks := ChunkSections(sections, 100, 0)
	require.NotEmpty(t, chunks)

	for i, c := range chunks {
		assert.Equal(t, i, c.Meta.ChunkIndex, "indices must be contiguous from 0")
	}

	// Section order is preserved: all abstract chunks precede conclusion.
	lastAbstract, firstConclusion := -1, len(chunks)
	for i, c := range chunks {
		switch c.Meta.Section {
		case "abstract":
			lastAbstract = i
			assert.Equal(t, 1, c.Meta.PageStart)
			assert.Equal(t, 1, c.Meta.PageEnd)
		case "conclusion":
			if i < firstConclusion {
				firstConclusion = i
			}
			assert.Equal(t, 4, c.Meta.PageStart)
			assert.Equal(t, 5, c.Meta.PageEnd)
		default:
			t.Fatalf("unexpected section %q", c.Meta.Section)
		}
	}
	assert.Less(t, lastAbstract, firstConclusion)
}

func TestChunkSectionsSpecExample(t *testing.T) {
	pages := pagesFrom(
		"Abstract\nThis paper studies X.",
		"Methods\nWe did Y.",
		"Conclusion\nX holds under Z.",
	)
	filtered := FilterSections(SegmentSections(pages))
	require.Equal(t, []string{"abstract", "conclusion"}, SectionNames(filtered))

	chunks := ChunkSections(filtered, 100, 0)
	require.Len(t, chunks, 2)

	assert.Equal(t, "abstract", chunks[0].Meta.Section)
	assert.Equal(t, "Abstract\nThis paper studies X.", chunks[0].Text)
	assert.Equal(t, 1, chunks[0].Meta.PageStart)

	assert.Equal(t, "conclusion", chunks[1].Meta.Section)
	assert.Equal(t, 3, chunks[1].Meta.PageStart)
	assert.Equal(t, 3, chunks[1].Meta.PageEnd)

	assert.NotContains(t, chunks[0].Text+chunks[1].Text, "We did Y.")
}

func TestChunkSectionsEmptyInput(t *testing.T) {
	assert.Empty(t, ChunkSections(nil, 100, 0))
}
