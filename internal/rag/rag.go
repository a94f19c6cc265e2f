package rag

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"manual-rag/internal/models"
)

// Searcher is the retrieval surface the pipeline needs from the store.
type Searcher interface {
	Query(ctx context.Context, query, chapterFilter string, topK int) ([]models.SearchResult, error)
	Stats(ctx context.Context) (models.Stats, error)
}

// Generator is the answer-generation capability.
type Generator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// RAG answers questions about one manual: chapter-aware retrieval followed by
// grounded generation.
type RAG struct {
	store Searcher
	llm   Generator
	topK  int
}

func NewRAG(store Searcher, llm Generator, topK int) *RAG {
	if topK <= 0 {
		topK = models.DefaultTopK
	}
	return &RAG{store: store, llm: llm, topK: topK}
}

// Retrieval is the outcome of one retrieval call. Results may be empty; that
// is a representable outcome, not an error.
type Retrieval struct {
	Results       []models.SearchResult
	RetrievalTime time.Duration
	ChapterFilter string
}

// Retrieve infers a chapter filter from the query and runs the filtered
// similarity search, timing the embed+search operation.
func (r *RAG) Retrieve(ctx context.Context, query string, knownChapters []string) (*Retrieval, error) {
	filter, ok := InferChapter(query, knownChapters)
	if ok {
		log.Debug().Str("chapter", filter).Msg("Detected chapter filter")
	}

	start := time.Now()
	results, err := r.store.Query(ctx, query, filter, r.topK)
	if err != nil {
		return nil, err
	}
	return &Retrieval{
		Results:       results,
		RetrievalTime: time.Since(start),
		ChapterFilter: filter,
	}, nil
}

// Answer is the full result of one question.
type Answer struct {
	Query          string
	Answer         string
	ChapterFilter  string
	Sources        []models.Metadata
	RetrievalTime  time.Duration
	GenerationTime time.Duration
	TotalTime      time.Duration
}

// AnswerQuestion runs the whole pipeline for one query. Generation failures
// surface inside the answer text; only retrieval-side failures are errors.
func (r *RAG) AnswerQuestion(ctx context.Context, query string) (*Answer, error) {
	stats, err := r.store.Stats(ctx)
	if err != nil {
		return nil, err
	}

	retrieval, err := r.Retrieve(ctx, query, stats.Chapters)
	if err != nil {
		return nil, err
	}

	answer, generationTime := r.Synthesize(ctx, query, retrieval.Results)

	sources := make([]models.Metadata, len(retrieval.Results))
	for i, res := range retrieval.Results {
		sources[i] = res.Metadata
	}

	return &Answer{
		Query:          query,
		Answer:         answer,
		ChapterFilter:  retrieval.ChapterFilter,
		Sources:        sources,
		RetrievalTime:  retrieval.RetrievalTime,
		GenerationTime: generationTime,
		TotalTime:      retrieval.RetrievalTime + generationTime,
	}, nil
}

// Stats reports the collection statistics.
func (r *RAG) Stats(ctx context.Context) (models.Stats, error) {
	return r.store.Stats(ctx)
}
