// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"testing"
	"time"

	"chirp/internal/config"
	"chirp/internal/database"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens an isolated in-memory sqlite database with the full schema.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to ":memory:" is a new database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// TestConfig returns a development config with distinct signing keys.
func TestConfig() *config.Config {
	return &config.Config{
		Env:                       "test",
		Port:                      "0",
		PublicBaseURL:             "http://localhost:4000",
		AccessTokenSecret:         "access-secret-for-tests-0123456789abcdef",
		RefreshTokenSecret:        "refresh-secret-for-tests-0123456789abcdef",
		EmailVerifyTokenSecret:    "verify-secret-for-tests-0123456789abcdef",
		ForgotPasswordTokenSecret: "forgot-secret-for-tests-0123456789abcdef",
		AccessTokenTTL:            15 * time.Minute,
		RefreshTokenTTL:           24 * time.Hour,
		EmailVerifyTokenTTL:       time.Hour,
		ForgotPasswordTokenTTL:    time.Hour,
		TokenClockSkew:            30 * time.Second,
		MaxImageUploadBytes:       300 * 1024,
		MaxVideoUploadBytes:       1024 * 1024,
	}
}
