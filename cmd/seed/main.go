package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/grymm/barber-auth/config"
	"github.com/grymm/barber-auth/pkg/helpers"
)

// Seeds the bootstrap admin identity. Regular identities are created by the
// OTP flow; the first admin has to exist before anyone can pass the role
// gate, so it is provisioned here from SEED_ADMIN_EMAIL/SEED_ADMIN_PASSWORD.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		log.Fatal("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD must be set")
	}

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	hash, err := helpers.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (email, role, is_active, is_staff, password_hash)
		VALUES ($1, 'admin', true, true, $2)
		ON CONFLICT (email) DO UPDATE SET role = 'admin', is_staff = true
		RETURNING id
	`, cfg.SeedAdminEmail, hash).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%s email=%s\n", id, cfg.SeedAdminEmail)
}
