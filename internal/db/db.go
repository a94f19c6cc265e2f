package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"manual-rag/internal/config"
	"manual-rag/internal/models"
	"manual-rag/internal/store"
)

// vectorSize must match the embedding model; the default config uses
// nomic-embed-text which emits 768-dim vectors.
const vectorSize = 768

// Document is one embedded chunk row.
type Document struct {
	bun.BaseModel `bun:"table:manual_chunks,alias:mc"`

	ID        string          `bun:"id,pk"`
	Content   string          `bun:"content,notnull"`
	Embedding pgvector.Vector `bun:"embedding,notnull,type:vector(768)"`
	Source    string          `bun:"source,notnull"`
	Chapter   string          `bun:"chapter,notnull"`
	Page      int             `bun:"page,notnull"`
}

func ConnectDB(cfg *config.DatabaseConfig) *bun.DB {
	opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
	if cfg.Password != "" {
		opts = append(opts, pgdriver.WithPassword(cfg.Password))
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(opts...))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// Index implements store.VectorIndex on Postgres with the pgvector extension.
type Index struct {
	db *bun.DB
}

func NewIndex(db *bun.DB) *Index {
	return &Index{db: db}
}

func (i *Index) Init(ctx context.Context) error {
	if _, err := i.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("creating vector extension: %w", err)
	}
	if _, err := i.db.NewCreateTable().Model((*Document)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}
	return nil
}

func (i *Index) Upsert(ctx context.Context, records []store.Record) error {
	docs := make([]Document, len(records))
	for j, rec := range records {
		docs[j] = Document{
			ID:        rec.ID,
			Content:   rec.Text,
			Embedding: pgvector.NewVector(rec.Embedding),
			Source:    rec.Metadata.Source,
			Chapter:   rec.Metadata.Chapter,
			Page:      rec.Metadata.Page,
		}
	}
	_, err := i.db.NewInsert().
		Model(&docs).
		On("CONFLICT (id) DO UPDATE").
		Set("content = EXCLUDED.content").
		Set("embedding = EXCLUDED.embedding").
		Set("source = EXCLUDED.source").
		Set("chapter = EXCLUDED.chapter").
		Set("page = EXCLUDED.page").
		Exec(ctx)
	return err
}

func (i *Index) Query(ctx context.Context, embedding []float32, topK int, chapterFilter string) ([]models.SearchResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	var rows []struct {
		Content  string  `bun:"content"`
		Source   string  `bun:"source"`
		Chapter  string  `bun:"chapter"`
		Page     int     `bun:"page"`
		Distance float32 `bun:"distance"`
	}
	q := i.db.NewSelect().
		Model((*Document)(nil)).
		ColumnExpr("content, source, chapter, page").
		ColumnExpr("embedding <-> ? AS distance", pgvector.NewVector(embedding)).
		OrderExpr("distance").
		Limit(topK)
	if chapterFilter != "" {
		q = q.Where("chapter = ?", chapterFilter)
	}
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, len(rows))
	for j, row := range rows {
		results[j] = models.SearchResult{
			Text: row.Content,
			Metadata: models.Metadata{
				Source:  row.Source,
				Chapter: row.Chapter,
				Page:    row.Page,
			},
			Distance: row.Distance,
		}
	}
	return results, nil
}

func (i *Index) Count(ctx context.Context) (int, error) {
	return i.db.NewSelect().Model((*Document)(nil)).Count(ctx)
}

func (i *Index) ScanMetadata(ctx context.Context) ([]models.Metadata, error) {
	var rows []struct {
		Source  string `bun:"source"`
		Chapter string `bun:"chapter"`
		Page    int    `bun:"page"`
	}
	err := i.db.NewSelect().
		Model((*Document)(nil)).
		ColumnExpr("source, chapter, page").
		OrderExpr("id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	metas := make([]models.Metadata, len(rows))
	for j, row := range rows {
		metas[j] = models.Metadata{Source: row.Source, Chapter: row.Chapter, Page: row.Page}
	}
	return metas, nil
}

// Drop destroys all records and recreates the empty table.
func (i *Index) Drop(ctx context.Context) error {
	if _, err := i.db.NewDropTable().Model((*Document)(nil)).IfExists().Exec(ctx); err != nil {
		return err
	}
	return i.Init(ctx)
}
