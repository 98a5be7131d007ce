package domain

import "time"

// DefaultSection is the section label stamped on every chunk.
const DefaultSection = "body"

// NoAnswer is returned whenever retrieval or the model cannot support an answer.
const NoAnswer = "I don't know."

// Chunk is a bounded, overlapping segment of normalized source text.
type Chunk struct {
	Text     string
	Section  string
	Position int
}

// DocumentMeta is the document-level metadata shared by every record of one ingestion.
type DocumentMeta struct {
	DocID       string
	Source      string
	Title       string
	URL         string
	PublishedAt string
}

// IndexedRecord is the persisted form of a chunk in the vector store.
type IndexedRecord struct {
	DocID       string
	ChunkID     string
	Source      string
	Title       string
	Section     string
	Position    int
	Text        string
	URL         string
	PublishedAt string
	Vector      []float32
}

// RetrievedHit is a read projection of an IndexedRecord plus its distance to the query.
type RetrievedHit struct {
	ID       string
	DocID    string
	ChunkID  string
	Source   string
	Title    string
	Section  string
	Position int
	Text     string
	URL      string
	Distance float64
}

// NearQuery scopes a nearest-vector lookup.
type NearQuery struct {
	Limit int
	// DocID restricts candidates to one document before ranking when set.
	DocID string
}

// Source is a numbered, citation-ready view of a retrieved hit.
type Source struct {
	N        int    `json:"n"`
	Title    string `json:"title"`
	Section  string `json:"section"`
	Position int    `json:"position"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet"`
}

// RerankResult addresses one candidate of a rerank call by its input index.
type RerankResult struct {
	Index int
	Score float64
}

// IngestRequest is the caller-facing ingestion input.
type IngestRequest struct {
	Text   string
	Title  string
	Source string
	URL    string
	DocID  string
}

// IngestResult reports what one ingestion produced.
type IngestResult struct {
	DocID    string `json:"doc_id"`
	Chunks   int    `json:"chunks"`
	Embedded int    `json:"embedded"`
	Inserted int    `json:"inserted"`
}

// AskRequest is the caller-facing question input.
type AskRequest struct {
	Query  string
	TopK   int
	FinalN int
	DocID  string
}

// Answer is a cited answer together with the sources its markers refer to.
type Answer struct {
	Text     string
	Sources  []Source
	NoResult bool
	Elapsed  time.Duration
}
