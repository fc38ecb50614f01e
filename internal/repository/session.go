package repository

import (
	"context"
	"time"

	"chirp/internal/models"
	"chirp/internal/observability"

	"gorm.io/gorm"
)

// SessionRepository is the registry of live refresh sessions keyed by jti.
type SessionRepository interface {
	Create(ctx context.Context, session *models.RefreshToken) error
	// DeleteByJTI removes the session and reports how many rows went away.
	DeleteByJTI(ctx context.Context, jti string) (int64, error)
	DeleteByUser(ctx context.Context, userID uint) (int64, error)
	IsLive(ctx context.Context, jti string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
	now func() time.Time
}

// NewSessionRepository returns a new SessionRepository implementation.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db, log: observability.NewRepoLogger("refresh_tokens"), now: time.Now}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.RefreshToken) error {
	defer observability.TrackQuery("insert", "refresh_tokens")()
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Session already exists")
		}
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, "user_id", session.UserID)
	return nil
}

func (r *sessionRepository) DeleteByJTI(ctx context.Context, jti string) (int64, error) {
	defer observability.TrackQuery("delete", "refresh_tokens")()
	res := r.db.WithContext(ctx).
		Where("jti = ? AND exp > ?", jti, r.now()).
		Delete(&models.RefreshToken{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *sessionRepository) DeleteByUser(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	r.log.LogDelete(ctx, "user_id", userID, "rows", res.RowsAffected)
	return res.RowsAffected, nil
}

func (r *sessionRepository) IsLive(ctx context.Context, jti string) (bool, error) {
	defer observability.TrackQuery("select", "refresh_tokens")()
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("jti = ? AND exp > ?", jti, r.now()).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *sessionRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("exp <= ?", now).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	observability.SessionsPurged.Add(float64(res.RowsAffected))
	return res.RowsAffected, nil
}
