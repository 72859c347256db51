package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"green-roots/internal/auth"
	"green-roots/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	email := flag.String("email", "admin@greenroots.ph", "admin email")
	nickname := flag.String("nickname", "Administrator", "display name")
	password := flag.String("password", "", "admin password (required)")
	barangayID := flag.Int("barangay", 1, "home barangay id")
	flag.Parse()

	if *password == "" {
		log.Fatal("a -password is required")
	}

	_ = godotenv.Load()

	database, err := db.New()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin, err := database.CreateAdmin(context.Background(), *email, *nickname, hash, *barangayID)
	if err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	fmt.Printf("Admin created: id=%d email=%s role=%s\n", admin.ID, admin.Email, admin.Role)
}
