package models

import "fmt"

// Metadata records the provenance of a chunk within the manual.
type Metadata struct {
	Source  string `json:"source"`
	Chapter string `json:"chapter"`
	Page    int    `json:"page"`
}

// Validate rejects malformed metadata before it reaches the index.
func (m Metadata) Validate() error {
	if m.Source == "" {
		return fmt.Errorf("%w: metadata missing source", ErrIndex)
	}
	if m.Chapter == "" {
		return fmt.Errorf("%w: metadata missing chapter", ErrIndex)
	}
	if m.Page < 1 {
		return fmt.Errorf("%w: metadata page %d out of range", ErrIndex, m.Page)
	}
	return nil
}

// Chunk is the unit of embedding and retrieval.
type Chunk struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// SearchResult is one retrieved chunk, ordered by ascending distance.
type SearchResult struct {
	Text     string
	Metadata Metadata
	Distance float32
}

// Stats summarizes the indexed collection.
type Stats struct {
	TotalChunks    int
	UniqueChapters int
	Chapters       []string
}
