// Package main provides account moderation utilities for chirp.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"chirp/internal/bootstrap"
	"chirp/internal/config"
	"chirp/internal/models"
	"chirp/internal/repository"

	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin ban <user_id>      - Ban user and revoke their sessions")
		fmt.Println("  go run ./cmd/admin unban <user_id>    - Restore a banned user to verified")
		fmt.Println("  go run ./cmd/admin list-banned        - List banned users")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{ServiceName: "chirp-admin", SkipSchema: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = rt.Close(context.Background()) }()

	ctx := context.Background()
	command := os.Args[1]

	switch command {
	case "ban", "unban":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <user_id>\n", command)
			os.Exit(1)
		}
		id, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil || id == 0 {
			fmt.Printf("Invalid user ID %q\n", os.Args[2])
			os.Exit(1)
		}
		if command == "ban" {
			err = banUser(ctx, rt.DB, uint(id))
		} else {
			err = unbanUser(ctx, rt.DB, uint(id))
		}
		if err != nil {
			var appErr *models.AppError
			if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
				fmt.Printf("User with ID %d not found\n", id)
				os.Exit(1)
			}
			log.Fatalf("%s failed: %v", command, err)
		}

	case "list-banned":
		listBanned(rt.DB)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func banUser(ctx context.Context, db *gorm.DB, id uint) error {
	users := repository.NewUserRepository(db)
	user, err := users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Verify == models.UserBanned {
		fmt.Printf("User %s (ID: %d) is already banned\n", user.UsernameValue(), user.ID)
		return nil
	}

	if err := users.UpdateFields(ctx, id, map[string]any{"verify": models.UserBanned}); err != nil {
		return err
	}
	revoked, err := repository.NewSessionRepository(db).DeleteByUser(ctx, id)
	if err != nil {
		return fmt.Errorf("user banned but sessions not revoked: %w", err)
	}

	fmt.Printf("Banned %s (ID: %d), revoked %d sessions\n", user.UsernameValue(), user.ID, revoked)
	return nil
}

func unbanUser(ctx context.Context, db *gorm.DB, id uint) error {
	users := repository.NewUserRepository(db)
	user, err := users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Verify != models.UserBanned {
		fmt.Printf("User %s (ID: %d) is not banned\n", user.UsernameValue(), user.ID)
		return nil
	}

	if err := users.UpdateFields(ctx, id, map[string]any{"verify": models.UserVerified}); err != nil {
		return err
	}
	fmt.Printf("Unbanned %s (ID: %d)\n", user.UsernameValue(), user.ID)
	return nil
}

func listBanned(db *gorm.DB) {
	var banned []models.User
	if err := db.Where("verify = ?", models.UserBanned).Order("id").Find(&banned).Error; err != nil {
		log.Fatalf("Failed to fetch banned users: %v", err)
	}

	if len(banned) == 0 {
		fmt.Println("No banned users")
		return
	}

	fmt.Println("Banned users:")
	fmt.Println("─────────────────────────────────────")
	for _, u := range banned {
		fmt.Printf("ID: %d | Username: %s | Email: %s\n", u.ID, u.UsernameValue(), u.Email)
	}
	fmt.Println("─────────────────────────────────────")
}
