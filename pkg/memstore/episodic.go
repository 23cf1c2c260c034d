package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type interactionModel struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EpisodeID  string         `gorm:"type:varchar(64);not null;index"`
	UserID     string         `gorm:"type:varchar(255);not null;index:idx_user_interactions,sort:desc"`
	Query      string         `gorm:"type:text"`
	Response   string         `gorm:"type:text"`
	NodesUsed  datatypes.JSON `gorm:"type:jsonb"`
	ImageRef   string         `gorm:"type:text"`
	Confidence float64
	CreatedAt  time.Time `gorm:"autoCreateTime;index:idx_user_interactions,sort:desc"`
}

func (interactionModel) TableName() string {
	return "interactions"
}

// GormEpisodic records full interactions and serves the coarse
// term-over-past-queries lookup the memory node performs.
type GormEpisodic struct {
	db *gorm.DB
}

var _ Episodic = &GormEpisodic{}

func NewGormEpisodic(db *gorm.DB) (*GormEpisodic, error) {
	if err := db.AutoMigrate(&interactionModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate episodic memory schema: %w", err)
	}
	return &GormEpisodic{db: db}, nil
}

func (e *GormEpisodic) RecordInteraction(ctx context.Context, interaction Interaction) error {
	nodes, err := json.Marshal(interaction.NodesUsed)
	if err != nil {
		return fmt.Errorf("failed to marshal nodes used: %w", err)
	}

	row := interactionModel{
		EpisodeID:  interaction.EpisodeID,
		UserID:     interaction.UserID,
		Query:      interaction.Query,
		Response:   interaction.Response,
		NodesUsed:  datatypes.JSON(nodes),
		ImageRef:   interaction.ImageRef,
		Confidence: interaction.Confidence,
	}
	if err := e.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to record interaction: %w", err)
	}
	return nil
}

func (e *GormEpisodic) SearchInteractions(ctx context.Context, userID, term string, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = 3
	}

	var rows []interactionModel
	err := e.db.WithContext(ctx).
		Where("user_id = ? AND query ILIKE ?", userID, "%"+term+"%").
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search interactions: %w", err)
	}

	out := make([]Interaction, 0, len(rows))
	for _, row := range rows {
		var nodes []string
		_ = json.Unmarshal(row.NodesUsed, &nodes)
		out = append(out, Interaction{
			EpisodeID:  row.EpisodeID,
			UserID:     row.UserID,
			Query:      row.Query,
			Response:   row.Response,
			NodesUsed:  nodes,
			ImageRef:   row.ImageRef,
			Confidence: row.Confidence,
			CreatedAt:  row.CreatedAt,
		})
	}
	return out, nil
}
