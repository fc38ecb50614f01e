package repository

import (
	"context"
	"errors"
	"time"

	"chirp/internal/cache"
	"chirp/internal/models"
	"chirp/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository stores directed follow edges.
type FollowRepository interface {
	// Get returns nil, nil when no edge exists.
	Get(ctx context.Context, followerID, followingID uint) (*models.Follower, error)
	// Create inserts the edge unless one already exists and returns the stored edge.
	Create(ctx context.Context, edge *models.Follower) (*models.Follower, error)
	Delete(ctx context.Context, followerID, followingID uint) (int64, error)
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	FollowingIDs(ctx context.Context, userID uint) ([]uint, error)
	FollowerIDs(ctx context.Context, userID uint) ([]uint, error)
}

type followRepository struct {
	db       *gorm.DB
	cacheTTL time.Duration
	log      *observability.RepoLogger
}

// NewFollowRepository returns a FollowRepository. FollowingIDs results are cached for cacheTTL;
// a zero TTL disables caching.
func NewFollowRepository(db *gorm.DB, cacheTTL time.Duration) FollowRepository {
	return &followRepository{db: db, cacheTTL: cacheTTL, log: observability.NewRepoLogger("followers")}
}

func (r *followRepository) Get(ctx context.Context, followerID, followingID uint) (*models.Follower, error) {
	var edge models.Follower
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		First(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &edge, nil
}

func (r *followRepository) Create(ctx context.Context, edge *models.Follower) (*models.Follower, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "follower_id"}, {Name: "following_id"}},
			DoNothing: true,
		}).
		Create(edge)
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	cache.InvalidateFollowing(ctx, edge.FollowerID)
	if res.RowsAffected == 1 {
		r.log.LogCreate(ctx, "follower_id", edge.FollowerID, "following_id", edge.FollowingID)
		return edge, nil
	}

	// lost the race to a concurrent insert
	existing, err := r.Get(ctx, edge.FollowerID, edge.FollowingID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, models.NewInternalError(errors.New("follow edge vanished after conflict"))
	}
	return existing, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followingID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follower{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	cache.InvalidateFollowing(ctx, followerID)
	return res.RowsAffected, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follower{}).
		Where("follower_id = ? AND following_id = ? AND status = ?", followerID, followingID, models.FollowStatusFollowing).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	load := func(ctx context.Context) ([]uint, error) {
		return r.pluckIDs(ctx, "following_id", "follower_id = ? AND status = ?", userID)
	}
	if r.cacheTTL <= 0 {
		return load(ctx)
	}
	return cache.Aside(ctx, "following_ids", cache.FollowingIDsKey(userID), r.cacheTTL, load)
}

func (r *followRepository) FollowerIDs(ctx context.Context, userID uint) ([]uint, error) {
	return r.pluckIDs(ctx, "follower_id", "following_id = ? AND status = ?", userID)
}

func (r *followRepository) pluckIDs(ctx context.Context, column, where string, userID uint) ([]uint, error) {
	defer observability.TrackQuery("select", "followers")()
	ids := []uint{}
	if err := r.db.WithContext(ctx).Model(&models.Follower{}).
		Where(where, userID, models.FollowStatusFollowing).
		Order(column).
		Pluck(column, &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
