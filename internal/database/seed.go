package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"spruceup/internal/slug"
)

// Seed populates the database with initial development data: a default
// admin user and the starter category set. It is a no-op if users
// already exist. The admin is prompted to set up 2FA on first login
// (totp_enabled = false).
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
		VALUES ($1, $2, $3, $4, $5)
	`, "admin@spruceup.local", string(hash), "Admin", "admin", false)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	for _, name := range []string{"Living Room", "Bedroom", "Kitchen", "Cleaning", "Decor", "Organization"} {
		_, err = db.Exec(`
			INSERT INTO categories (name, slug, description)
			VALUES ($1, $2, $3)
		`, name, slug.Generate(name), "")
		if err != nil {
			return fmt.Errorf("seed insert category %q: %w", name, err)
		}
	}

	slog.Info("database seeded with default admin user and starter categories",
		"email", "admin@spruceup.local",
		"password", "admin",
	)

	return nil
}
