package repository

import (
	"context"

	"chirp/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CircleRepository stores each author's circle of members.
type CircleRepository interface {
	Add(ctx context.Context, ownerID, memberID uint) error
	Remove(ctx context.Context, ownerID, memberID uint) error
	IsMember(ctx context.Context, ownerID, memberID uint) (bool, error)
	List(ctx context.Context, ownerID uint) ([]models.User, error)
}

type circleRepository struct {
	db *gorm.DB
}

// NewCircleRepository returns a new CircleRepository implementation.
func NewCircleRepository(db *gorm.DB) CircleRepository {
	return &circleRepository{db: db}
}

func (r *circleRepository) Add(ctx context.Context, ownerID, memberID uint) error {
	member := models.CircleMember{OwnerID: ownerID, MemberID: memberID}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "member_id"}},
			DoNothing: true,
		}).
		Create(&member).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *circleRepository) Remove(ctx context.Context, ownerID, memberID uint) error {
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND member_id = ?", ownerID, memberID).
		Delete(&models.CircleMember{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *circleRepository) IsMember(ctx context.Context, ownerID, memberID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CircleMember{}).
		Where("owner_id = ? AND member_id = ?", ownerID, memberID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *circleRepository) List(ctx context.Context, ownerID uint) ([]models.User, error) {
	users := []models.User{}
	if err := r.db.WithContext(ctx).
		Joins("JOIN circle_members cm ON cm.member_id = users.id").
		Where("cm.owner_id = ?", ownerID).
		Order("cm.created_at DESC").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
