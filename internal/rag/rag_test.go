package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manual-rag/internal/models"
)

type stubSearcher struct {
	results   []models.SearchResult
	stats     models.Stats
	err       error
	gotQuery  string
	gotFilter string
	gotTopK   int
}

func (s *stubSearcher) Query(ctx context.Context, query, chapterFilter string, topK int) ([]models.SearchResult, error) {
	s.gotQuery = query
	s.gotFilter = chapterFilter
	s.gotTopK = topK
	return s.results, s.err
}

func (s *stubSearcher) Stats(ctx context.Context) (models.Stats, error) {
	return s.stats, nil
}

type stubGenerator struct {
	answer     string
	err        error
	calls      int
	lastSystem string
	lastUser   string
}

func (g *stubGenerator) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	g.calls++
	g.lastSystem = systemPrompt
	g.lastUser = userPrompt
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func result(text, chapter string, page int, distance float32) models.SearchResult {
	return models.SearchResult{
		Text:     text,
		Metadata: models.Metadata{Source: "manual.pdf", Chapter: chapter, Page: page},
		Distance: distance,
	}
}

func TestSynthesizeShortCircuitsOnEmptyResults(t *testing.T) {
	gen := &stubGenerator{answer: "should never be used"}
	r := NewRAG(&stubSearcher{}, gen, 3)

	answer, elapsed := r.Synthesize(context.Background(), "anything", nil)

	assert.Equal(t, models.InsufficientContextAnswer, answer)
	assert.Zero(t, elapsed)
	assert.Zero(t, gen.calls, "generation must not be called without context")
}

func TestSynthesizePromptFormat(t *testing.T) {
	gen := &stubGenerator{answer: "Turn the valve clockwise."}
	r := NewRAG(&stubSearcher{}, gen, 3)
	results := []models.SearchResult{
		result("Close the valve before servicing.", "Setup", 4, 0.1),
		result("Wear gloves at all times.", "Safety", 9, 0.2),
	}

	answer, _ := r.Synthesize(context.Background(), "How do I close the valve?", results)

	assert.Equal(t, "Turn the valve clockwise.", answer)
	require.Equal(t, 1, gen.calls)
	assert.Equal(t, models.SystemPrompt, gen.lastSystem)
	assert.Contains(t, gen.lastUser, "[Source 1 - Chapter: Setup, Page: 4]\nClose the valve before servicing.")
	assert.Contains(t, gen.lastUser, "[Source 2 - Chapter: Safety, Page: 9]\nWear gloves at all times.")
	assert.Contains(t, gen.lastUser, models.ContextSeparator)
	assert.Contains(t, gen.lastUser, "USER QUESTION: How do I close the valve?")
}

func TestSynthesizeRecoversFromGenerationFailure(t *testing.T) {
	gen := &stubGenerator{err: fmt.Errorf("%w: rate limited", models.ErrGeneration)}
	r := NewRAG(&stubSearcher{}, gen, 3)

	answer, _ := r.Synthesize(context.Background(), "q", []models.SearchResult{result("text", "Setup", 1, 0.1)})

	assert.True(t, strings.HasPrefix(answer, "Error generating answer:"))
	assert.Contains(t, answer, "rate limited")
}

func TestRetrieveAppliesChapterFilter(t *testing.T) {
	searcher := &stubSearcher{results: []models.SearchResult{result("text", "Setup", 2, 0.3)}}
	r := NewRAG(searcher, &stubGenerator{}, 3)

	ret, err := r.Retrieve(context.Background(), "problems in the Setup chapter", []string{"Intro", "Setup"})

	require.NoError(t, err)
	assert.Equal(t, "Setup", searcher.gotFilter)
	assert.Equal(t, "Setup", ret.ChapterFilter)
	assert.Equal(t, 3, searcher.gotTopK)
	assert.Len(t, ret.Results, 1)
	assert.GreaterOrEqual(t, ret.RetrievalTime.Nanoseconds(), int64(0))
}

func TestRetrieveEmptyIsNotAnError(t *testing.T) {
	searcher := &stubSearcher{}
	r := NewRAG(searcher, &stubGenerator{}, 3)

	ret, err := r.Retrieve(context.Background(), "anything", nil)

	require.NoError(t, err)
	assert.Empty(t, ret.Results)
	assert.Empty(t, ret.ChapterFilter)
}

func TestRetrievePropagatesStoreFailure(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("index offline")}
	r := NewRAG(searcher, &stubGenerator{}, 3)

	_, err := r.Retrieve(context.Background(), "anything", nil)
	assert.Error(t, err)
}

func TestAnswerQuestion(t *testing.T) {
	searcher := &stubSearcher{
		results: []models.SearchResult{result("Reset via the rear button.", "Troubleshooting", 12, 0.2)},
		stats:   models.Stats{TotalChunks: 10, UniqueChapters: 2, Chapters: []string{"Intro", "Troubleshooting"}},
	}
	gen := &stubGenerator{answer: "Press the rear reset button."}
	r := NewRAG(searcher, gen, 3)

	ans, err := r.AnswerQuestion(context.Background(), "How do I reset it in the Troubleshooting chapter?")

	require.NoError(t, err)
	assert.Equal(t, "Press the rear reset button.", ans.Answer)
	assert.Equal(t, "Troubleshooting", ans.ChapterFilter)
	require.Len(t, ans.Sources, 1)
	assert.Equal(t, 12, ans.Sources[0].Page)
	assert.Equal(t, ans.RetrievalTime+ans.GenerationTime, ans.TotalTime)
}

func TestAnswerQuestionEmptyRetrieval(t *testing.T) {
	searcher := &stubSearcher{stats: models.Stats{Chapters: []string{"Intro"}}}
	gen := &stubGenerator{}
	r := NewRAG(searcher, gen, 3)

	ans, err := r.AnswerQuestion(context.Background(), "completely unrelated question")

	require.NoError(t, err)
	assert.Equal(t, models.InsufficientContextAnswer, ans.Answer)
	assert.Zero(t, ans.GenerationTime)
	assert.Zero(t, gen.calls)
	assert.Empty(t, ans.Sources)
}
