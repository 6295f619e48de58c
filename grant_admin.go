//go:build ignore

// Grants the admin role to an existing user. Needed to bootstrap the first
// admin when ADMIN_EMAILS is empty.
//
//	go run grant_admin.go <user-id>
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/masterchelly/microsites/config"
	"github.com/masterchelly/microsites/database"
	"github.com/masterchelly/microsites/models"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
		fmt.Println("Continuing with environment variables...")
	}

	if len(os.Args) != 2 {
		fmt.Println("usage: go run grant_admin.go <user-id>")
		os.Exit(2)
	}
	userID, err := uuid.Parse(os.Args[1])
	if err != nil {
		fmt.Printf("❌ %q is not a user id: %v\n", os.Args[1], err)
		os.Exit(2)
	}

	cfg, err := config.Load(config.New())
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.NewUserRoleRepo(db).Grant(ctx, userID, models.RoleAdmin); err != nil {
		fmt.Printf("❌ Error granting role: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ %s is now an admin\n", userID)
}
