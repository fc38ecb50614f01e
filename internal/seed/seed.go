package seed

import (
	"fmt"
	"log"

	"chirp/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumTweets   int
	ShouldClean bool
	Factory     SeedOptions
}

// Stats reports what a Seed run created.
type Stats struct {
	Users     int
	Follows   int
	Tweets    int
	Children  int
	Likes     int
	Bookmarks int
}

var hashtagPool = []string{
	"golang", "postgres", "redis", "devops", "music", "travel", "coffee",
	"books", "running", "photography", "startups", "gaming", "cooking",
}

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) (*Stats, error) {
	if opts.NumUsers < 2 {
		return nil, fmt.Errorf("seed needs at least 2 users, got %d", opts.NumUsers)
	}
	log.Printf("Starting database seeding with %d users and %d tweets...", opts.NumUsers, opts.NumTweets)

	if opts.ShouldClean && !opts.Factory.DryRun {
		if err := clearData(db); err != nil {
			log.Printf("Warning: could not clear existing data, continuing anyway: %v", err)
		}
	}

	f := NewFactory(db, opts.Factory)
	stats := &Stats{}

	users, err := createUsers(f, opts.NumUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	stats.Users = len(users)
	log.Printf("%d users created", stats.Users)

	stats.Follows, err = createFollows(f, users)
	if err != nil {
		return nil, fmt.Errorf("failed to create follows: %w", err)
	}

	roots, err := createTweets(f, users, opts.NumTweets)
	if err != nil {
		return nil, fmt.Errorf("failed to create tweets: %w", err)
	}
	stats.Tweets = len(roots)

	stats.Children, err = createChildren(f, users, roots)
	if err != nil {
		return nil, fmt.Errorf("failed to create replies: %w", err)
	}
	log.Printf("%d tweets and %d replies created", stats.Tweets, stats.Children)

	stats.Likes, stats.Bookmarks, err = createEngagement(f, users, roots)
	if err != nil {
		return nil, fmt.Errorf("failed to create likes: %w", err)
	}

	log.Printf("Database seeding completed: %+v", *stats)
	return stats, nil
}

func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE likes, bookmarks, tweet_hashtags, tweet_mentions, hashtags, tweets,
			circle_members, followers, refresh_tokens, users RESTART IDENTITY CASCADE`).Error
	}
	for _, table := range []string{
		"likes", "bookmarks", "tweet_hashtags", "tweet_mentions", "hashtags", "tweets",
		"circle_members", "followers", "refresh_tokens", "users",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

func createUsers(f *Factory, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)

	// A stable account to log in with.
	demo := "demo"
	user, err := f.CreateUser(func(u *models.User) {
		u.Name = "Demo User"
		u.Email = "demo@example.com"
		u.Username = &demo
	})
	if err != nil {
		log.Printf("demo user not created (probably exists): %v", err)
	} else {
		users = append(users, user)
	}

	failures := 0
	for len(users) < count {
		user, err := f.CreateUser(func(u *models.User) {
			u.IsPrivate = f.rng.Float32() < 0.1
		})
		if err != nil {
			failures++
			if failures > count {
				return nil, fmt.Errorf("too many failed inserts: %w", err)
			}
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, user)
		if len(users)%100 == 0 {
			log.Printf("Created %d users...", len(users))
		}
	}
	return users, nil
}

// createFollows gives each user a handful of followees; some targets are private.
func createFollows(f *Factory, users []*models.User) (int, error) {
	n := 0
	for _, u := range users {
		want := f.rng.Intn(min(len(users)-1, 15)) + 1
		for _, idx := range f.rng.Perm(len(users))[:want+1] {
			target := users[idx]
			if target.ID == u.ID {
				continue
			}
			status := models.FollowStatusFollowing
			if target.IsPrivate {
				status = models.FollowStatusRequested
			}
			if err := f.CreateFollow(u, target, status); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

func createTweets(f *Factory, users []*models.User, count int) ([]*models.Tweet, error) {
	tweets := make([]*models.Tweet, 0, count)
	for i := 0; i < count; i++ {
		author := users[f.rng.Intn(len(users))]
		tweets = append(tweets, f.BuildTweet(author, models.TweetTypeTweet, nil, func(t *models.Tweet) {
			t.Audience = models.TweetAudience(f.rng.Intn(3))
		}))
	}
	if err := f.CreateTweetsBatch(tweets); err != nil {
		return nil, err
	}

	for _, t := range tweets {
		if f.rng.Float32() >= 0.4 {
			continue
		}
		names := make([]string, 0, 2)
		for _, idx := range f.rng.Perm(len(hashtagPool))[:f.rng.Intn(2)+1] {
			names = append(names, hashtagPool[idx])
		}
		if err := f.CreateHashtags(t, names...); err != nil {
			return nil, err
		}
	}
	return tweets, nil
}

// createChildren adds comments, retweets and quotes under a subset of roots.
func createChildren(f *Factory, users []*models.User, roots []*models.Tweet) (int, error) {
	var children []*models.Tweet
	for _, root := range roots {
		for i := f.rng.Intn(4); i > 0; i-- {
			author := users[f.rng.Intn(len(users))]
			typ := models.TweetType(f.rng.Intn(3) + 1)
			children = append(children, f.BuildTweet(author, typ, root, func(t *models.Tweet) {
				if typ == models.TweetTypeComment {
					t.Content = gofakeit.Sentence(f.rng.Intn(10) + 2)
				}
			}))
		}
	}
	if err := f.CreateTweetsBatch(children); err != nil {
		return 0, err
	}
	return len(children), nil
}

func createEngagement(f *Factory, users []*models.User, tweets []*models.Tweet) (likes, bookmarks int, err error) {
	for _, t := range tweets {
		for _, idx := range f.rng.Perm(len(users))[:f.rng.Intn(min(len(users), 10))] {
			if err := f.CreateLike(users[idx], t); err != nil {
				return likes, bookmarks, err
			}
			likes++
			if f.rng.Float32() < 0.2 {
				if err := f.CreateBookmark(users[idx], t); err != nil {
					return likes, bookmarks, err
				}
				bookmarks++
			}
		}
	}
	return likes, bookmarks, nil
}
