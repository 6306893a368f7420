package ingestion_engine

import (
	"strings"
	"unicode/utf8"

	"github.com/oluseyi-dev/paperscope/internal/models"
)

// defaultSeparators is the boundary preference order: paragraph, line, word,
// then a hard character cut.
var defaultSeparators = []string{"\n\n", "\n", " "}

// Splitter splits text into passages of at most MaxSize characters,
// preferring the largest natural boundary that fits and overlapping
// consecutive passages by up to Overlap characters.
type Splitter struct {
	MaxSize int
	Overlap int
}

// Split returns the non-empty passages of text, trimmed of surrounding
// whitespace. A passage may exceed MaxSize by at most Overlap characters,
// and only at a natural boundary.
func (s Splitter) Split(text string) []string {
	raw := s.split(text, defaultSeparators)
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s Splitter) split(text string, seps []string) []string {
	if runeLen(text) <= s.MaxSize {
		return []string{text}
	}
	if len(seps) == 0 {
		return s.hardSplit(text)
	}
	sep := seps[0]
	if !strings.Contains(text, sep) {
		return s.split(text, seps[1:])
	}
	return s.merge(strings.Split(text, sep), sep, seps[1:])
}

// merge greedily joins parts into passages up to MaxSize, recursing into
// parts that are themselves oversized. After each emitted passage a tail of
// at most Overlap characters seeds the next one.
func (s Splitter) merge(parts []string, sep string, nextSeps []string) []string {
	var (
		out    []string
		cur    []string
		curLen int
		fresh  int // parts appended since the last flush
	)

	flush := func() {
		if fresh == 0 {
			return
		}
		out = append(out, strings.Join(cur, sep))
		if s.Overlap > 0 {
			var keep []string
			kept := 0
			for i := len(cur) - 1; i >= 0; i-- {
				add := runeLen(cur[i])
				if len(keep) > 0 {
					add += runeLen(sep)
				}
				if kept+add > s.Overlap {
					break
				}
				keep = append([]string{cur[i]}, keep...)
				kept += add
			}
			cur, curLen = keep, kept
		} else {
			cur, curLen = nil, 0
		}
		fresh = 0
	}

	for _, p := range parts {
		if runeLen(p) > s.MaxSize {
			flush()
			out = append(out, s.split(p, nextSeps)...)
			cur, curLen, fresh = nil, 0, 0
			continue
		}
		add := runeLen(p)
		if len(cur) > 0 {
			add += runeLen(sep)
		}
		if len(cur) > 0 && curLen+add > s.MaxSize {
			flush()
			add = runeLen(p)
			if len(cur) > 0 {
				add += runeLen(sep)
			}
		}
		cur = append(cur, p)
		curLen += add
		fresh++
	}
	flush()
	return out
}

func (s Splitter) hardSplit(text string) []string {
	runes := []rune(text)
	step := s.MaxSize - s.Overlap
	if step < 1 {
		step = 1
	}
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + s.MaxSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

// ChunkSections splits each section independently and numbers the resulting
// chunks with a single running index across the whole document, in section
// order, so identifiers stay stable and reproducible.
func ChunkSections(sections []models.Section, maxSize, overlap int) []models.Chunk {
	splitter := Splitter{MaxSize: maxSize, Overlap: overlap}
	var chunks []models.Chunk
	idx := 0
	for _, sec := range sections {
		for _, text := range splitter.Split(sec.Text) {
			chunks = append(chunks, models.Chunk{
				Text: text,
				Meta: models.ChunkMeta{
					Section:    sec.Name,
					PageStart:  sec.PageStart,
					PageEnd:    sec.PageEnd,
					ChunkIndex: idx,
				},
			})
			idx++
		}
	}
	return chunks
}
