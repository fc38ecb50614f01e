package repository

import (
	"context"

	"chirp/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HashtagRepository deduplicates hashtags by name.
type HashtagRepository interface {
	// Upsert returns the hashtag rows for names, creating the missing ones.
	Upsert(ctx context.Context, names []string) ([]models.Hashtag, error)
}

type hashtagRepository struct {
	db *gorm.DB
}

// NewHashtagRepository returns a new HashtagRepository implementation.
func NewHashtagRepository(db *gorm.DB) HashtagRepository {
	return &hashtagRepository{db: db}
}

func (r *hashtagRepository) Upsert(ctx context.Context, names []string) ([]models.Hashtag, error) {
	if len(names) == 0 {
		return nil, nil
	}
	rows := make([]models.Hashtag, 0, len(names))
	for _, n := range names {
		rows = append(rows, models.Hashtag{Name: n})
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	var stored []models.Hashtag
	if err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&stored).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	byName := make(map[string]models.Hashtag, len(stored))
	for _, h := range stored {
		byName[h.Name] = h
	}
	ordered := make([]models.Hashtag, 0, len(names))
	for _, n := range names {
		if h, ok := byName[n]; ok {
			ordered = append(ordered, h)
		}
	}
	return ordered, nil
}
