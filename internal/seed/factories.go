// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"chirp/internal/auth"
	"chirp/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password every seeded account can log in with.
const DefaultPassword = "Passw0rd!"

// SeedOptions tune how the Factory builds rows.
type SeedOptions struct {
	DryRun     bool
	SkipBcrypt bool
	MaxDays    int
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by Seed and tests.
type Factory struct {
	db   *gorm.DB
	opts SeedOptions
	rng  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint

	hashed string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak random number generator is fine for seeding
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Factory{db: db, opts: opts, rng: rng, nextID: 1000}
}

func (f *Factory) password() (string, error) {
	if f.opts.SkipBcrypt {
		return DefaultPassword, nil
	}
	if f.hashed == "" {
		h, err := auth.HashPassword(DefaultPassword)
		if err != nil {
			return "", err
		}
		f.hashed = h
	}
	return f.hashed, nil
}

// createdAt spreads timestamps over the last MaxDays days.
func (f *Factory) createdAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

// BuildUser constructs a verified user without persisting it.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	hashed, err := f.password()
	if err != nil {
		return nil, err
	}
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	username := strings.ToLower(fmt.Sprintf("%s_%s%d", first, last, gofakeit.Number(100, 999)))
	if len(username) > 30 {
		username = username[:30]
	}
	user := &models.User{
		Name:      first + " " + last,
		Email:     strings.ToLower(fmt.Sprintf("%s.%s.%s@example.com", first, last, gofakeit.LetterN(6))),
		Password:  hashed,
		BirthDate: gofakeit.DateRange(time.Now().AddDate(-60, 0, 0), time.Now().AddDate(-18, 0, 0)),
		Bio:       gofakeit.Sentence(10),
		Location:  gofakeit.City(),
		Website:   gofakeit.URL(),
		Username:  &username,
		Avatar:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		Verify:    models.UserVerified,
	}
	if len(user.Bio) > 160 {
		user.Bio = user.Bio[:160]
	}
	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// CreateUser constructs and persists a sample user.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user, err := f.BuildUser(overrides...)
	if err != nil {
		return nil, err
	}
	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s", user.Email)
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildTweet constructs a tweet for author without persisting it. A non-nil parent
// makes it a child of the given type.
func (f *Factory) BuildTweet(author *models.User, typ models.TweetType, parent *models.Tweet, overrides ...func(*models.Tweet)) *models.Tweet {
	tweet := &models.Tweet{
		UserID:    author.ID,
		Type:      typ,
		Audience:  models.AudienceEveryone,
		Content:   gofakeit.Sentence(f.rng.Intn(20) + 3),
		CreatedAt: f.createdAt(),
	}
	if parent != nil {
		tweet.ParentID = &parent.ID
		if tweet.CreatedAt.Before(parent.CreatedAt) {
			tweet.CreatedAt = parent.CreatedAt.Add(time.Duration(f.rng.Intn(120)+1) * time.Minute)
		}
	}
	if typ == models.TweetTypeRetweet {
		tweet.Content = ""
	}
	if typ == models.TweetTypeTweet && f.rng.Float32() < 0.3 {
		tweet.Medias = []models.Media{{
			URL:  fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID()),
			Type: models.MediaTypeImage,
		}}
	}
	for _, override := range overrides {
		override(tweet)
	}
	return tweet
}

// CreateTweetsBatch persists multiple tweets in a single DB call when possible.
func (f *Factory) CreateTweetsBatch(tweets []*models.Tweet) error {
	if len(tweets) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, t := range tweets {
			f.nextID++
			t.ID = f.nextID
		}
		log.Printf("[dry-run] CreateTweetsBatch: %d tweets (no DB write)", len(tweets))
		return nil
	}
	return f.db.CreateInBatches(&tweets, 200).Error
}

// CreateFollow inserts follower -> following unless it already exists.
func (f *Factory) CreateFollow(follower, following *models.User, status models.FollowStatus) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Follower{
		FollowerID:  follower.ID,
		FollowingID: following.ID,
		Status:      status,
	}).Error
}

// CreateLike records a like and bumps the tweet's like_count.
func (f *Factory) CreateLike(user *models.User, tweet *models.Tweet) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Like{UserID: user.ID, TweetID: tweet.ID})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		return tx.Model(&models.Tweet{}).Where("id = ?", tweet.ID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	})
}

// CreateBookmark records a bookmark, ignoring duplicates.
func (f *Factory) CreateBookmark(user *models.User, tweet *models.Tweet) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Bookmark{UserID: user.ID, TweetID: tweet.ID}).Error
}

// CreateHashtags links the named hashtags to tweet, creating missing names.
func (f *Factory) CreateHashtags(tweet *models.Tweet, names ...string) error {
	if f.opts.DryRun || len(names) == 0 {
		return nil
	}
	return f.db.Transaction(func(tx *gorm.DB) error {
		for _, name := range names {
			tag := models.Hashtag{Name: strings.ToLower(name)}
			if err := tx.Where(models.Hashtag{Name: tag.Name}).FirstOrCreate(&tag).Error; err != nil {
				return err
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.TweetHashtag{TweetID: tweet.ID, HashtagID: tag.ID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
