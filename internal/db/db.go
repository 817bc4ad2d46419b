package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// The rentals exclusion constraint is the source of truth for non-overlapping
// bookings; the in-process calendar check only pre-filters.
var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist;`,
	`CREATE TABLE IF NOT EXISTS listings (
            id BIGSERIAL PRIMARY KEY,
            owner_id BIGINT NOT NULL,
            title TEXT NOT NULL DEFAULT '',
            daily_price NUMERIC(12,2) NOT NULL CHECK (daily_price >= 0),
            security_deposit NUMERIC(12,2) NOT NULL DEFAULT 0,
            currency CHAR(3) NOT NULL,
            status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'active', 'inactive')),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE TABLE IF NOT EXISTS rentals (
            id BIGSERIAL PRIMARY KEY,
            listing_id BIGINT NOT NULL REFERENCES listings(id),
            renter_id BIGINT NOT NULL,
            owner_id BIGINT NOT NULL,
            start_date DATE NOT NULL,
            end_date DATE NOT NULL,
            total_price NUMERIC(12,2) NOT NULL,
            currency CHAR(3) NOT NULL,
            status TEXT NOT NULL CHECK (status IN ('waiting_for_payment', 'paid', 'completed', 'canceled')),
            code TEXT NOT NULL UNIQUE,
            payment_reference TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK (end_date >= start_date),
            CONSTRAINT rentals_no_overlap EXCLUDE USING gist (
                listing_id WITH =,
                daterange(start_date, end_date, '[]') WITH &&
            ) WHERE (status <> 'canceled')
        );`,
	`CREATE INDEX IF NOT EXISTS rentals_renter_idx ON rentals (renter_id);`,
	`CREATE INDEX IF NOT EXISTS rentals_owner_idx ON rentals (owner_id);`,
	`CREATE TABLE IF NOT EXISTS conversations (
            id BIGSERIAL PRIMARY KEY,
            listing_id BIGINT NOT NULL REFERENCES listings(id),
            sender_id BIGINT NOT NULL,
            recipient_id BIGINT NOT NULL,
            last_message_text TEXT NOT NULL DEFAULT '',
            last_message_at TIMESTAMPTZ,
            last_message_id BIGINT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK (sender_id <> recipient_id)
        );`,
	`CREATE UNIQUE INDEX IF NOT EXISTS conversations_pair_idx ON conversations
            (listing_id, LEAST(sender_id, recipient_id), GREATEST(sender_id, recipient_id));`,
	`CREATE TABLE IF NOT EXISTS messages (
            id BIGSERIAL PRIMARY KEY,
            conversation_id BIGINT REFERENCES conversations(id),
            rental_id BIGINT REFERENCES rentals(id),
            sender_id BIGINT NOT NULL,
            body TEXT NOT NULL CHECK (length(btrim(body)) > 0),
            is_read BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
            CHECK (num_nonnulls(conversation_id, rental_id) = 1)
        );`,
	`CREATE INDEX IF NOT EXISTS messages_conversation_idx ON messages (conversation_id, created_at, id) WHERE conversation_id IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS messages_rental_idx ON messages (rental_id, created_at, id) WHERE rental_id IS NOT NULL;`,
}

func runMigrations(db *sqlx.DB) error {
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
