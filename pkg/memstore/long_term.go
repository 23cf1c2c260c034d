package memstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userProfileModel struct {
	UserID      string    `gorm:"type:varchar(255);primaryKey"`
	Preferences string    `gorm:"type:text"` // JSON-encoded key-value pairs
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	LastActive  time.Time
}

func (userProfileModel) TableName() string {
	return "user_profiles"
}

type queryPatternModel struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    string    `gorm:"type:varchar(255);not null;index"`
	QueryType string    `gorm:"type:varchar(100);not null"`
	QueryText string    `gorm:"type:text"`
	Frequency int       `gorm:"default:1"`
	LastUsed  time.Time
}

func (queryPatternModel) TableName() string {
	return "query_patterns"
}

type feedbackModel struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID       string    `gorm:"type:varchar(255);not null;index"`
	Query        string    `gorm:"type:text"`
	Response     string    `gorm:"type:text"`
	Rating       int
	FeedbackText string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (feedbackModel) TableName() string {
	return "feedback_history"
}

// GormLongTerm persists user profiles, query patterns, and feedback in the
// relational store.
type GormLongTerm struct {
	db *gorm.DB
}

var _ LongTerm = &GormLongTerm{}

func NewGormLongTerm(db *gorm.DB) (*GormLongTerm, error) {
	if err := db.AutoMigrate(&userProfileModel{}, &queryPatternModel{}, &feedbackModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate long-term memory schema: %w", err)
	}
	return &GormLongTerm{db: db}, nil
}

func (l *GormLongTerm) GetOrCreateUser(ctx context.Context, userID string) (*UserProfile, error) {
	var row userProfileModel
	err := l.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = userProfileModel{
			UserID:      userID,
			Preferences: "{}",
			LastActive:  time.Now(),
		}
		if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, fmt.Errorf("failed to create user profile: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to load user profile: %w", err)
	} else {
		l.db.WithContext(ctx).Model(&row).Update("last_active", time.Now())
	}

	prefs := map[string]string{}
	if row.Preferences != "" {
		// A corrupt blob degrades to empty preferences rather than failing
		// the request.
		_ = json.Unmarshal([]byte(row.Preferences), &prefs)
	}

	return &UserProfile{
		UserID:      row.UserID,
		Preferences: prefs,
		CreatedAt:   row.CreatedAt,
		LastActive:  row.LastActive,
	}, nil
}

func (l *GormLongTerm) RecordQueryPattern(ctx context.Context, userID, category, queryText string) error {
	if len(queryText) > 200 {
		queryText = queryText[:200]
	}

	var existing queryPatternModel
	err := l.db.WithContext(ctx).
		First(&existing, "user_id = ? AND query_type = ?", userID, category).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		pattern := queryPatternModel{
			UserID:    userID,
			QueryType: category,
			QueryText: queryText,
			LastUsed:  time.Now(),
		}
		if err := l.db.WithContext(ctx).Create(&pattern).Error; err != nil {
			return fmt.Errorf("failed to record query pattern: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up query pattern: %w", err)
	}

	return l.db.WithContext(ctx).Model(&existing).
		Updates(map[string]interface{}{
			"frequency":  gorm.Expr("frequency + 1"),
			"query_text": queryText,
			"last_used":  time.Now(),
		}).Error
}

func (l *GormLongTerm) RecordFeedback(ctx context.Context, userID, query, response string, rating int, feedbackText string) error {
	entry := feedbackModel{
		UserID:       userID,
		Query:        query,
		Response:     response,
		Rating:       rating,
		FeedbackText: feedbackText,
	}
	if err := l.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}
	return nil
}
