package repository

import (
	"context"
	"testing"
	"time"

	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(userID uint, jti string, exp time.Time) *models.RefreshToken {
	return &models.RefreshToken{UserID: userID, JTI: jti, IssuedAt: time.Now().Add(-time.Minute), ExpiresAt: exp}
}

func TestSessionRepository_DeleteByJTIReportsRows(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newSession(1, "j1", time.Now().Add(time.Hour))))

	n, err := repo.DeleteByJTI(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteByJTI(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestSessionRepository_DuplicateJTI(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newSession(1, "dup", time.Now().Add(time.Hour))))
	err := repo.Create(ctx, newSession(2, "dup", time.Now().Add(time.Hour)))
	assert.True(t, models.IsCode(err, models.CodeConflict))
}

func TestSessionRepository_ExpiredIsNotLive(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newSession(1, "live", time.Now().Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, newSession(1, "stale", time.Now().Add(-time.Hour))))

	live, err := repo.IsLive(ctx, "live")
	require.NoError(t, err)
	assert.True(t, live)

	live, err = repo.IsLive(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, live)

	// an expired row cannot be rotated even before the purge runs
	n, err := repo.DeleteByJTI(ctx, "stale")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	purged, err := repo.PurgeExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	var remaining int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}

func TestSessionRepository_DeleteByUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newSession(1, "a", time.Now().Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, newSession(1, "b", time.Now().Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, newSession(2, "c", time.Now().Add(time.Hour))))

	n, err := repo.DeleteByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	live, err := repo.IsLive(ctx, "c")
	require.NoError(t, err)
	assert.True(t, live)
}

func TestSessionRepository_DeleteByJTISQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "refresh_tokens" WHERE .*jti = \$1 AND exp > \$2`).
		WillReturnResult(sqlmockResult(0))
	mock.ExpectCommit()

	n, err := repo.DeleteByJTI(context.Background(), "gone")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
