package models

import "fmt"

// Page is the text of a single PDF page. Index is 1-based and matches the
// page order in the source document.
type Page struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// DocumentMetadata holds best-effort bibliographic metadata for a document.
// Every field may be empty; resolution never fails.
type DocumentMetadata struct {
	Title    string `json:"title"`
	Authors  string `json:"authors"`
	Subject  string `json:"subject"`
	Keywords string `json:"keywords"`
	Year     string `json:"year"`
}

// Section is a contiguous, named span of a document's body text.
// PageStart <= PageEnd always holds; Text is never empty.
type Section struct {
	Name      string `json:"name"`
	Text      string `json:"text"`
	PageStart int    `json:"page_start"`
	PageEnd   int    `json:"page_end"`
}

// Chunk is one indexable passage of a section, with its provenance.
type Chunk struct {
	Text string
	Meta ChunkMeta
}

// ChunkMeta is everything stored alongside a chunk's text in the vector
// index: provenance plus the common document metadata.
type ChunkMeta struct {
	DocID      string `json:"doc_id"`
	SourceFile string `json:"source_file"`
	Section    string `json:"section"`
	PageStart  int    `json:"page_start"`
	PageEnd    int    `json:"page_end"`
	ChunkIndex int    `json:"chunk_index"`
	Title      string `json:"title,omitempty"`
	Authors    string `json:"authors,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Keywords   string `json:"keywords,omitempty"`
	Year       string `json:"year,omitempty"`
}

// ChunkID builds the stable identifier stored in the vector index.
func ChunkID(docID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", docID, index)
}

// ID returns the identifier for this chunk's metadata.
func (m ChunkMeta) ID() string {
	return ChunkID(m.DocID, m.ChunkIndex)
}

// RetrievalHit is one ranked result from the vector index. Distance is a
// similarity-inverse score: lower means more relevant.
type RetrievalHit struct {
	ID       string    `json:"id"`
	Document string    `json:"document"`
	Metadata ChunkMeta `json:"metadata"`
	Distance float32   `json:"distance"`
}

// IngestResult reports the outcome of one ingestion call.
type IngestResult struct {
	OK               bool             `json:"ok"`
	PDF              string           `json:"pdf"`
	DocID            string           `json:"doc_id"`
	Pages            int              `json:"pages"`
	SectionsDetected []string         `json:"sections_detected"`
	SectionsIndexed  []string         `json:"sections_indexed"`
	Chunks           int              `json:"chunks"`
	Embedded         int              `json:"embedded"`
	IDs              []string         `json:"ids"`
	Collection       string           `json:"collection"`
	Meta             DocumentMetadata `json:"meta"`
}

// Answer is the response to an ask or gap-analysis query.
type Answer struct {
	Question string      `json:"question"`
	Answer   string      `json:"answer"`
	Sources  []SourceRef `json:"sources"`
}

// SourceRef attributes part of an answer to a retrieved chunk.
type SourceRef struct {
	ID       string    `json:"id"`
	Document string    `json:"document"`
	Metadata ChunkMeta `json:"metadata"`
	Distance float32   `json:"distance"`
}
