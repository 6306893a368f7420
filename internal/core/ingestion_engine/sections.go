package ingestion_engine

import (
	"regexp"
	"strings"

	"github.com/oluseyi-dev/paperscope/internal/models"
)

// backMatterRe marks the start of references/bibliography/acknowledgements.
// Everything from the first matching line onward is discarded before
// segmentation.
var backMatterRe = regexp.MustCompile(`(?i)^\s*(references|bibliography|works\s+cited|acknowledge?ments?)\b`)

// sectionCatalog is the ordered heading catalog. Order is the tie-break:
// the first pattern that matches a line names the section.
var sectionCatalog = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"abstract", regexp.MustCompile(`(?i)^\s*abstract\b[:.\s]*`)},
	{"introduction", regexp.MustCompile(`(?i)^\s*introduction\b[:.\s]*`)},
	{"background", regexp.MustCompile(`(?i)^\s*background\b[:.\s]*`)},
	{"related work", regexp.MustCompile(`(?i)^\s*related\s+work\b[:.\s]*`)},
	{"methods", regexp.MustCompile(`(?i)^\s*(methods?|methodology)\b[:.\s]*`)},
	{"results", regexp.MustCompile(`(?i)^\s*results?\b[:.\s]*`)},
	{"discussion", regexp.MustCompile(`(?i)^\s*discussion\b[:.\s]*`)},
	{"conclusion", regexp.MustCompile(`(?i)^\s*conclusions?\b[:.\s]*`)},
	{"limitations", regexp.MustCompile(`(?i)^\s*limitations?\b[:.\s]*`)},
	{"future work", regexp.MustCompile(`(?i)^\s*(future\s+work|future\s+directions|further\s+work)\b[:.\s]*`)},
}

// indexedSections is the allow-list of section names worth indexing:
// argumentative and summary content rather than raw methods/results detail.
var indexedSections = map[string]bool{
	"abstract":     true,
	"introduction": true,
	"conclusion":   true,
	"future work":  true,
	"limitations":  true,
	"discussion":   true,
}

type pageLine struct {
	page int
	text string
}

// SegmentSections converts the ordered page texts into named sections.
//
// The page stream is flattened to lines first. The first back-matter heading
// is a hard cutoff: the line and everything after it never reach a section.
// Each catalog heading then starts a section running until the next heading
// or the end of text. With no headings at all the whole remaining text
// becomes a single "body" section.
func SegmentSections(pages []models.Page) []models.Section {
	var lines []pageLine
	for _, p := range pages {
		for _, ln := range strings.Split(p.Text, "\n") {
			lines = append(lines, pageLine{page: p.Index, text: ln})
		}
	}

	for i, ln := range lines {
		if backMatterRe.MatchString(ln.text) {
			lines = lines[:i]
			break
		}
	}

	type heading struct {
		line int
		name string
	}
	var headings []heading
	for i, ln := range lines {
		for _, cat := range sectionCatalog {
			if cat.pattern.MatchString(ln.text) {
				headings = append(headings, heading{line: i, name: cat.name})
				break
			}
		}
	}

	if len(headings) == 0 {
		var sb strings.Builder
		for i, ln := range lines {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(ln.text)
		}
		body := strings.TrimSpace(sb.String())
		if body == "" {
			return nil
		}
		return []models.Section{{
			Name:      "body",
			Text:      body,
			PageStart: 1,
			PageEnd:   lastPageIndex(pages),
		}}
	}

	var sections []models.Section
	for k, h := range headings {
		end := len(lines)
		if k+1 < len(headings) {
			end = headings[k+1].line
		}
		span := lines[h.line:end]

		var sb strings.Builder
		for i, ln := range span {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(ln.text)
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}

		pageStart, pageEnd := span[0].page, span[0].page
		for _, ln := range span {
			if ln.page < pageStart {
				pageStart = ln.page
			}
			if ln.page > pageEnd {
				pageEnd = ln.page
			}
		}
		sections = append(sections, models.Section{
			Name:      h.name,
			Text:      text,
			PageStart: pageStart,
			PageEnd:   pageEnd,
		})
	}
	return sections
}

// FilterSections keeps the allow-listed sections. When none match it falls
// back to a "body" section if one exists (headerless documents). An empty
// result means the document has nothing indexable; the caller reports zero
// chunks rather than an error.
func FilterSections(sections []models.Section) []models.Section {
	var kept []models.Section
	for _, s := range sections {
		if indexedSections[s.Name] {
			kept = append(kept, s)
		}
	}
	if len(kept) > 0 {
		return kept
	}
	for _, s := range sections {
		if s.Name == "body" {
			kept = append(kept, s)
		}
	}
	return kept
}

// SectionNames lists section names in order, for result payloads.
func SectionNames(sections []models.Section) []string {
	names := make([]string, 0, len(sections))
	for _, s := range sections {
		names = append(names, s.Name)
	}
	return names
}

func lastPageIndex(pages []models.Page) int {
	if len(pages) == 0 {
		return 1
	}
	return pages[len(pages)-1].Index
}
