package repository

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"chirp/internal/database"
	"chirp/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// setupMockDB creates a GORM *gorm.DB backed by sqlmock for SQL shape tests.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return gormDB, mock
}

func createUser(t *testing.T, db *gorm.DB, email string, private bool) *models.User {
	t.Helper()
	u := &models.User{
		Name:      email,
		Email:     email,
		Password:  "hash",
		BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		IsPrivate: private,
		Verify:    models.UserVerified,
	}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	return u
}

func createTweet(t *testing.T, db *gorm.DB, tw *models.Tweet) *models.Tweet {
	t.Helper()
	require.NoError(t, NewTweetRepository(db).Create(context.Background(), tw))
	return tw
}

func follow(t *testing.T, db *gorm.DB, from, to uint, status models.FollowStatus) {
	t.Helper()
	_, err := NewFollowRepository(db, 0).Create(context.Background(),
		&models.Follower{FollowerID: from, FollowingID: to, Status: status})
	require.NoError(t, err)
}

func sqlmockResult(rowsAffected int64) driver.Result {
	return sqlmock.NewResult(0, rowsAffected)
}
