package ingestion_engine

import (
	"regexp"
	"strings"

	"github.com/oluseyi-dev/paperscope/internal/models"
)

const maxHeuristicLen = 200

var yearRe = regexp.MustCompile(`(19|20)\d{2}`)

// authorsRe is the disambiguator for a first-page authors line: author lists
// carry a comma or the word "and".
var authorsRe = regexp.MustCompile(`(?i)(,| and )`)

// yearFields is the fixed set of raw metadata fields scanned for a
// publication year, in order.
var yearFields = []string{"modDate", "creationDate", "producer", "creator"}

// ResolveMetadata derives title/authors/subject/keywords/year for a
// document. Embedded metadata wins; missing title or authors fall back to
// first-page heuristics. Every step is best-effort and yields an empty
// string rather than an error.
func ResolveMetadata(raw map[string]string, firstPage string) models.DocumentMetadata {
	md := models.DocumentMetadata{
		Title:    strings.TrimSpace(raw["title"]),
		Authors:  strings.TrimSpace(raw["author"]),
		Subject:  strings.TrimSpace(raw["subject"]),
		Keywords: strings.TrimSpace(raw["keywords"]),
	}

	if md.Title == "" || md.Authors == "" {
		var lines []string
		for _, ln := range strings.Split(firstPage, "\n") {
			if ln = strings.TrimSpace(ln); ln != "" {
				lines = append(lines, ln)
			}
		}
		if md.Title == "" && len(lines) > 0 {
			md.Title = truncate(lines[0], maxHeuristicLen)
		}
		if md.Authors == "" && len(lines) > 1 && authorsRe.MatchString(lines[1]) {
			md.Authors = truncate(lines[1], maxHeuristicLen)
		}
	}

	for _, field := range yearFields {
		if y := yearRe.FindString(raw[field]); y != "" {
			md.Year = y
			break
		}
	}
	if md.Year == "" {
		md.Year = yearRe.FindString(firstPage)
	}
	return md
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
