package config

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

func InitDB() (*sql.DB, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func RunMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

		`CREATE TABLE IF NOT EXISTS businesses (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name VARCHAR(255) NOT NULL,
			category VARCHAR(100),
			location VARCHAR(255),
			subscription_tier VARCHAR(50) DEFAULT 'free',
			website_url TEXT,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS deals (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			business_id UUID REFERENCES businesses(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			deal_kind VARCHAR(50) DEFAULT 'standard',
			original_price NUMERIC(10,2) NOT NULL,
			deal_price NUMERIC(10,2) NOT NULL,
			discount_percent NUMERIC(5,2) NOT NULL,
			claim_count INTEGER DEFAULT 0,
			status VARCHAR(50) DEFAULT 'active',
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_businesses_category ON businesses(category)`,
		`CREATE INDEX IF NOT EXISTS idx_deals_business_id ON deals(business_id)`,
		`CREATE INDEX IF NOT EXISTS idx_deals_status ON deals(status)`,
		`CREATE INDEX IF NOT EXISTS idx_deals_claim_count ON deals(claim_count DESC)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}
