package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"booking-api/config"
	"booking-api/pkg/helpers"
)

// Seeds an admin account so the weekly calendar is reachable out of the box.
// Override the defaults with SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := envOr("SEED_ADMIN_EMAIL", "admin@example.com")
	password := envOr("SEED_ADMIN_PASSWORD", "admin12345")
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET updated_at = now()
		RETURNING id
	`, email, hash).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin user: %v", err)
	}

	if _, err := db.Exec(`
		INSERT INTO profiles (user_id, first_name, last_name, role)
		VALUES ($1, $2, $3, 'admin')
		ON CONFLICT (user_id) DO UPDATE SET role = 'admin', updated_at = now()
	`, id, "Admin", "User"); err != nil {
		log.Fatalf("failed to seed admin profile: %v", err)
	}

	fmt.Printf("seeded admin: id=%s email=%s\n", id, email)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
