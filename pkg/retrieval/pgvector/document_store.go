package pgvector

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"sat-sight-be/pkg/embedding"
	"sat-sight-be/pkg/retrieval"
	"sat-sight-be/pkg/store"
)

type documentChunkModel struct {
	ID        string          `gorm:"primaryKey;column:id"`
	Content   string          `gorm:"column:content"`
	Source    string          `gorm:"column:source;index"`
	Embedding pgvector.Vector `gorm:"column:embedding;type:vector(768)"`
}

func (documentChunkModel) TableName() string {
	return "document_chunks"
}

// DocumentStore searches the domain knowledge base by embedding distance.
type DocumentStore struct {
	db       *gorm.DB
	embedder embedding.EmbeddingProvider
}

var _ retrieval.DocumentStore = &DocumentStore{}

func NewDocumentStore(db *gorm.DB, embedder embedding.EmbeddingProvider) (*DocumentStore, error) {
	if err := db.AutoMigrate(&documentChunkModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate document chunks: %w", err)
	}
	return &DocumentStore{db: db, embedder: embedder}, nil
}

func (ds *DocumentStore) Search(ctx context.Context, query string, k int) ([]store.TextChunk, error) {
	if k <= 0 {
		k = 5
	}

	res, err := ds.embedder.Generate(query, "retrieval_query")
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	vec := pgvector.NewVector(res.Embedding.Values)

	type row struct {
		documentChunkModel
		Similarity float64
	}
	var rows []row

	// Cosine distance in pgvector is 1 - cosine_similarity
	err = ds.db.WithContext(ctx).
		Table("document_chunks").
		Select("document_chunks.*, 1 - (embedding <=> ?) as similarity", vec).
		Order("similarity DESC").
		Limit(k).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	chunks := make([]store.TextChunk, 0, len(rows))
	for _, r := range rows {
		chunks = append(chunks, store.TextChunk{
			Content: r.Content,
			Source:  r.Source,
			Score:   r.Similarity,
		})
	}
	return chunks, nil
}
