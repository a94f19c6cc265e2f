package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"manual-rag/internal/models"
)

// Synthesize turns retrieved context into an answer. Empty results
// short-circuit to a fixed answer with zero elapsed time and no model call.
// A generation failure becomes an answer-shaped string so the session keeps
// going.
func (r *RAG) Synthesize(ctx context.Context, query string, results []models.SearchResult) (string, time.Duration) {
	if len(results) == 0 {
		return models.InsufficientContextAnswer, 0
	}

	userPrompt := fmt.Sprintf(models.UserPromptTemplate, buildContext(results), query)

	start := time.Now()
	answer, err := r.llm.Complete(ctx, models.SystemPrompt, userPrompt)
	elapsed := time.Since(start)
	if err != nil {
		log.Warn().Err(err).Msg("Answer generation failed")
		return fmt.Sprintf("Error generating answer: %v", err), elapsed
	}
	return answer, elapsed
}

func buildContext(results []models.SearchResult) string {
	blocks := make([]string, len(results))
	for i, res := range results {
		blocks[i] = fmt.Sprintf(models.SourceBlockTemplate, i+1, res.Metadata.Chapter, res.Metadata.Page, res.Text)
	}
	return strings.Join(blocks, models.ContextSeparator)
}
