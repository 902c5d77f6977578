package db

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
)

var DB *sql.DB

func Connect() error {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		fmt.Println("DATABASE_URL environment variable is not set")
	}

	var err error
	DB, err = sql.Open("postgres", connStr)
	if err != nil {
		return err
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	return DB.Ping()
}

// Migrate creates the preference tables if they are missing. One row per
// (profile, kind, name_key); kind is "source" or "topic". name_key is the
// lowercased merge key, name keeps the casing the user first gave.
func Migrate() error {
	_, err := DB.Exec(`
		CREATE TABLE IF NOT EXISTS preference_weight (
			profile_id   TEXT NOT NULL,
			kind         TEXT NOT NULL,
			name_key     TEXT NOT NULL,
			name         TEXT NOT NULL,
			weight       DOUBLE PRECISION NOT NULL DEFAULT 0,
			last_updated TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (profile_id, kind, name_key)
		)
	`)
	return err
}

func Close() {
	if DB != nil {
		DB.Close()
	}
}
