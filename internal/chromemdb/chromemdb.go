package chromemdb

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"manual-rag/internal/models"
	"manual-rag/internal/store"
)

// VectorDBManager implements store.VectorIndex on a chromem-go collection.
type VectorDBManager struct {
	db             *chromem.DB
	collection     *chromem.Collection
	dbPath         string
	collectionName string
	compress       bool
	encryptionKey  string
	filePath       string
}

const compress = false

// NewVectorDBManager opens (or creates) the database and collection.
func NewVectorDBManager(dbPath, collectionName string, inMemory bool, encryptionKey string) (*VectorDBManager, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	}

	m := &VectorDBManager{
		db:             db,
		dbPath:         dbPath,
		collectionName: collectionName,
		compress:       compress,
		encryptionKey:  encryptionKey,
		filePath:       dbPath + "/" + collectionName + ".chromem",
	}
	if err := m.openCollection(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *VectorDBManager) openCollection() error {
	c, err := m.db.GetOrCreateCollection(m.collectionName, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %v", err)
	}
	m.collection = c
	return nil
}

// Upsert writes records keyed by id; an existing id is overwritten.
func (m *VectorDBManager) Upsert(ctx context.Context, records []store.Record) error {
	docs := make([]chromem.Document, len(records))
	for i, rec := range records {
		docs[i] = chromem.Document{
			ID:        rec.ID,
			Content:   rec.Text,
			Metadata:  metadataToMap(rec.Metadata),
			Embedding: rec.Embedding,
		}
	}
	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	return nil
}

// Query returns up to topK results by ascending distance. topK is clamped to
// the number of candidate documents first, since chromem rejects nResults
// larger than the candidate set; zero candidates yields an empty result.
func (m *VectorDBManager) Query(ctx context.Context, embedding []float32, topK int, chapterFilter string) ([]models.SearchResult, error) {
	var where map[string]string
	candidates := m.collection.Count()
	if chapterFilter != "" {
		where = map[string]string{"chapter": chapterFilter}
		metas, err := m.ScanMetadata(ctx)
		if err != nil {
			return nil, err
		}
		candidates = 0
		for _, meta := range metas {
			if meta.Chapter == chapterFilter {
				candidates++
			}
		}
	}
	if topK > candidates {
		topK = candidates
	}
	if topK <= 0 {
		return nil, nil
	}

	results, err := m.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: embedding,
		NResults:       topK,
		Where:          where,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	out := make([]models.SearchResult, len(results))
	for i, res := range results {
		meta, err := metadataFromMap(res.Metadata)
		if err != nil {
			return nil, err
		}
		out[i] = models.SearchResult{
			Text:     res.Content,
			Metadata: meta,
			// chromem reports cosine similarity, higher is better.
			Distance: 1 - res.Similarity,
		}
	}
	return out, nil
}

func (m *VectorDBManager) Count(ctx context.Context) (int, error) {
	return m.collection.Count(), nil
}

// ScanMetadata walks the dense chunk_<i> id space up to the collection count.
// Linear in collection size.
func (m *VectorDBManager) ScanMetadata(ctx context.Context) ([]models.Metadata, error) {
	count := m.collection.Count()
	metas := make([]models.Metadata, 0, count)
	for i := 0; i < count; i++ {
		doc, err := m.collection.GetByID(ctx, fmt.Sprintf(models.ChunkIDFormat, i))
		if err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %v", err)
		}
		meta, err := metadataFromMap(doc.Metadata)
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

// Drop destroys the collection and recreates it empty.
func (m *VectorDBManager) Drop(ctx context.Context) error {
	if err := m.db.DeleteCollection(m.collectionName); err != nil {
		return fmt.Errorf("failed to drop collection: %v", err)
	}
	return m.openCollection()
}

// Export writes an encrypted snapshot of the collection next to the database.
func (m *VectorDBManager) Export(ctx context.Context) error {
	if m.encryptionKey == "" {
		return fmt.Errorf("encryption key is required")
	}
	log.Debug().Str("collection", m.collectionName).Str("file", m.filePath).Msg("Exporting collection")
	if err := m.db.ExportToFile(m.filePath, m.compress, m.encryptionKey, m.collectionName); err != nil {
		return fmt.Errorf("failed to export database: %v", err)
	}
	return nil
}

// Import restores a previously exported snapshot.
func (m *VectorDBManager) Import(ctx context.Context) error {
	if err := m.db.ImportFromFile(m.filePath, m.encryptionKey); err != nil {
		return fmt.Errorf("failed to import database: %v", err)
	}
	return m.openCollection()
}

func metadataToMap(meta models.Metadata) map[string]string {
	return map[string]string{
		"source":  meta.Source,
		"chapter": meta.Chapter,
		"page":    strconv.Itoa(meta.Page),
	}
}

func metadataFromMap(m map[string]string) (models.Metadata, error) {
	page, err := strconv.Atoi(m["page"])
	if err != nil {
		return models.Metadata{}, fmt.Errorf("malformed page metadata %q: %v", m["page"], err)
	}
	return models.Metadata{
		Source:  m["source"],
		Chapter: m["chapter"],
		Page:    page,
	}, nil
}
