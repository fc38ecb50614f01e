// Command main runs the database seeder for chirp.
package main

import (
	"context"
	"flag"
	"log"

	"chirp/internal/bootstrap"
	"chirp/internal/config"
	"chirp/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numTweets := flag.Int("tweets", 200, "Number of root tweets to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Store plain-text passwords (login will not work)")
	dryRun := flag.Bool("dry-run", false, "Build rows without writing them")
	maxDays := flag.Int("max-days", 90, "Spread created_at over this many days")
	flag.Parse()

	log.Printf("Target: %d users, %d tweets, clean=%v", *numUsers, *numTweets, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{ServiceName: "chirp-seed"})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = rt.Close(context.Background()) }()

	stats, err := seed.Seed(rt.DB, seed.Options{
		NumUsers:    *numUsers,
		NumTweets:   *numTweets,
		ShouldClean: *shouldClean,
		Factory: seed.SeedOptions{
			DryRun:     *dryRun,
			SkipBcrypt: *fast,
			MaxDays:    *maxDays,
		},
	})
	if err != nil {
		log.Printf("Seeding failed: %v", err)
		return
	}

	log.Printf("Done: %d users, %d follows, %d tweets, %d replies, %d likes, %d bookmarks",
		stats.Users, stats.Follows, stats.Tweets, stats.Children, stats.Likes, stats.Bookmarks)
	if !*fast {
		log.Printf("All seeded users have the password %q (demo@example.com is stable)", seed.DefaultPassword)
	}
}
