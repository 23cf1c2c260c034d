// Package pgvector implements the vector-backed retrieval interfaces on
// Postgres with the pgvector extension, queried through gorm.
package pgvector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"sat-sight-be/pkg/embedding"
	"sat-sight-be/pkg/retrieval"
	"sat-sight-be/pkg/store"
)

type imageCatalogModel struct {
	ID          string          `gorm:"primaryKey;column:id"`
	Filename    string          `gorm:"column:filename;index"`
	Class       string          `gorm:"column:class"`
	Description string          `gorm:"column:description"`
	Region      string          `gorm:"column:region"`
	Tags        datatypes.JSON  `gorm:"column:tags;type:jsonb"`
	Embedding   pgvector.Vector `gorm:"column:embedding;type:vector(768)"`
}

func (imageCatalogModel) TableName() string {
	return "image_catalog"
}

// ImageIndex searches the satellite image catalog by embedding distance.
type ImageIndex struct {
	db       *gorm.DB
	embedder embedding.EmbeddingProvider
}

var _ retrieval.ImageIndex = &ImageIndex{}

func NewImageIndex(db *gorm.DB, embedder embedding.EmbeddingProvider) (*ImageIndex, error) {
	if err := db.AutoMigrate(&imageCatalogModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate image catalog: %w", err)
	}
	return &ImageIndex{db: db, embedder: embedder}, nil
}

// SearchByImage looks up the stored embedding of the referenced catalog
// image and returns its nearest neighbours, excluding the image itself.
func (idx *ImageIndex) SearchByImage(ctx context.Context, imageRef string, k int) ([]store.ImageMatch, error) {
	if k <= 0 {
		k = 5
	}

	var anchor imageCatalogModel
	err := idx.db.WithContext(ctx).
		Where("filename = ? OR id = ?", imageRef, imageRef).
		First(&anchor).Error
	if err != nil {
		return nil, fmt.Errorf("image %q not found in catalog: %w", imageRef, err)
	}

	return idx.nearest(ctx, anchor.Embedding, k, anchor.ID)
}

// SearchByText embeds the query and returns the nearest catalog entries in
// the shared embedding space.
func (idx *ImageIndex) SearchByText(ctx context.Context, query string, k int) ([]store.ImageMatch, error) {
	if k <= 0 {
		k = 5
	}

	res, err := idx.embedder.Generate(query, "retrieval_query")
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return idx.nearest(ctx, pgvector.NewVector(res.Embedding.Values), k, "")
}

func (idx *ImageIndex) nearest(ctx context.Context, vec pgvector.Vector, k int, excludeID string) ([]store.ImageMatch, error) {
	type row struct {
		imageCatalogModel
		Distance float64
	}
	var rows []row

	q := idx.db.WithContext(ctx).
		Table("image_catalog").
		Select("image_catalog.*, embedding <=> ? as distance", vec)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Order("distance ASC").
		Limit(k).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	matches := make([]store.ImageMatch, 0, len(rows))
	for _, r := range rows {
		var tags []string
		if len(r.Tags) > 0 {
			_ = json.Unmarshal(r.Tags, &tags)
		}
		matches = append(matches, store.ImageMatch{
			ID:          r.ID,
			Class:       r.Class,
			Description: r.Description,
			Region:      r.Region,
			Tags:        tags,
			Distance:    r.Distance,
		})
	}
	return matches, nil
}
