package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"manual-rag/internal/models"
)

// Record is one embedded chunk as persisted by a vector index.
type Record struct {
	ID        string
	Embedding []float32
	Text      string
	Metadata  models.Metadata
}

// VectorIndex is the persistence capability behind the store. Query results
// come back ordered by ascending distance; an empty chapterFilter means no
// filtering, a non-empty one is an exact match on the chapter field.
type VectorIndex interface {
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, embedding []float32, topK int, chapterFilter string) ([]models.SearchResult, error)
	Count(ctx context.Context) (int, error)
	ScanMetadata(ctx context.Context) ([]models.Metadata, error)
	Drop(ctx context.Context) error
}

// Store pairs an embedder with a vector index. The same embedder must be used
// for ingest and query; mixing models invalidates the index.
type Store struct {
	embedder       embeddings.Embedder
	index          VectorIndex
	writeBatchSize int
}

func New(embedder embeddings.Embedder, index VectorIndex) *Store {
	return &Store{
		embedder:       embedder,
		index:          index,
		writeBatchSize: models.WriteBatchSize,
	}
}

// Ingest embeds all chunk texts in one batched call and writes the records to
// the index in bounded batches. Empty input is a no-op. Records are keyed
// chunk_<ordinal>; re-ingesting overwrites, ids are not stable across runs.
func (s *Store) Ingest(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		log.Warn().Msg("No chunks to ingest")
		return nil
	}

	for _, chunk := range chunks {
		if err := chunk.Metadata.Validate(); err != nil {
			return err
		}
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	start := time.Now()
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embedding chunks: %v", models.ErrIndex, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: embedder returned %d vectors for %d chunks", models.ErrIndex, len(vectors), len(chunks))
	}
	log.Info().Int("chunks", len(chunks)).Dur("elapsed", time.Since(start)).Msg("Generated embeddings")

	records := make([]Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = Record{
			ID:        fmt.Sprintf(models.ChunkIDFormat, i),
			Embedding: vectors[i],
			Text:      chunk.Text,
			Metadata:  chunk.Metadata,
		}
	}

	batches := (len(records) + s.writeBatchSize - 1) / s.writeBatchSize
	for i := 0; i < len(records); i += s.writeBatchSize {
		end := i + s.writeBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := s.index.Upsert(ctx, records[i:end]); err != nil {
			return fmt.Errorf("%w: storing batch %d/%d: %v", models.ErrIndex, i/s.writeBatchSize+1, batches, err)
		}
		log.Debug().Int("batch", i/s.writeBatchSize+1).Int("batches", batches).Msg("Stored batch")
	}

	log.Info().Int("chunks", len(chunks)).Msg("Added chunks to vector store")
	return nil
}

// Query embeds the query text and returns up to topK results, restricted to
// chapterFilter when non-empty. Zero hits is a normal outcome, not an error.
func (s *Store) Query(ctx context.Context, query, chapterFilter string, topK int) ([]models.SearchResult, error) {
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %v", models.ErrIndex, err)
	}
	results, err := s.index.Query(ctx, vector, topK, chapterFilter)
	if err != nil {
		return nil, fmt.Errorf("%w: similarity query: %v", models.ErrIndex, err)
	}
	return results, nil
}

// Stats scans all stored metadata. Linear in collection size, which is fine
// for a single manual.
func (s *Store) Stats(ctx context.Context) (models.Stats, error) {
	count, err := s.index.Count(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("%w: counting records: %v", models.ErrIndex, err)
	}
	metas, err := s.index.ScanMetadata(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("%w: scanning metadata: %v", models.ErrIndex, err)
	}

	seen := make(map[string]struct{})
	var chapters []string
	for _, meta := range metas {
		if _, ok := seen[meta.Chapter]; ok {
			continue
		}
		seen[meta.Chapter] = struct{}{}
		chapters = append(chapters, meta.Chapter)
	}
	sort.Strings(chapters)

	return models.Stats{
		TotalChunks:    count,
		UniqueChapters: len(chapters),
		Chapters:       chapters,
	}, nil
}

// Clear irreversibly destroys the collection.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.index.Drop(ctx); err != nil {
		return fmt.Errorf("%w: clearing collection: %v", models.ErrIndex, err)
	}
	return nil
}
