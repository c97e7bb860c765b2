package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/steemit/tweetstore/internal/models"
)

const saveBatchSize = 500

// SettingsRepository reads and writes the tweet collection of the settings container
type SettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Load returns the stored collection, newest first
func (r *SettingsRepository) Load(ctx context.Context) (*models.Settings, error) {
	var posts []*models.Post
	if err := r.db.WithContext(ctx).Order("position ASC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to load tweets: %w", err)
	}
	return &models.Settings{Tweets: posts}, nil
}

// Save replaces the stored collection with posts in a single transaction.
// Position is overwritten with each post's place in the slice.
func (r *SettingsRepository) Save(ctx context.Context, posts []*models.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM tweets").Error; err != nil {
			return fmt.Errorf("failed to clear tweets: %w", err)
		}
		if len(posts) == 0 {
			return nil
		}

		for i, p := range posts {
			p.Position = i + 1
		}
		if err := tx.CreateInBatches(posts, saveBatchSize).Error; err != nil {
			return fmt.Errorf("failed to save tweets: %w", err)
		}
		return nil
	})
}

// Count returns the number of stored tweets
func (r *SettingsRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
