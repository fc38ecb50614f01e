package database

import "chirp/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.RefreshToken{},
		&models.Follower{},
		&models.CircleMember{},
		&models.Tweet{},
		&models.Hashtag{},
		&models.TweetHashtag{},
		&models.TweetMention{},
		&models.Like{},
		&models.Bookmark{},
	}
}
