// cmd/migrate/main.go
package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/leadloop/drip-backend/internal/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS campaigns (
    id           SERIAL PRIMARY KEY,
    user_id      INTEGER NOT NULL,
    name         TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    sms_agent_id INTEGER,
    is_active    BOOLEAN NOT NULL DEFAULT FALSE,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_campaigns_user ON campaigns (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS campaign_steps (
    id               SERIAL PRIMARY KEY,
    campaign_id      INTEGER NOT NULL REFERENCES campaigns (id),
    step_order       INTEGER NOT NULL CHECK (step_order > 0),
    delay_minutes    INTEGER NOT NULL CHECK (delay_minutes >= 0),
    message_template TEXT NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (campaign_id, step_order)
);

CREATE TABLE IF NOT EXISTS contacts (
    id               SERIAL PRIMARY KEY,
    user_id          INTEGER NOT NULL,
    phone            TEXT NOT NULL,
    first_name       TEXT NOT NULL DEFAULT '',
    last_name        TEXT NOT NULL DEFAULT '',
    business_name    TEXT NOT NULL DEFAULT '',
    service_category TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS enrollments (
    id           SERIAL PRIMARY KEY,
    campaign_id  INTEGER NOT NULL REFERENCES campaigns (id),
    contact_id   INTEGER NOT NULL REFERENCES contacts (id),
    status       TEXT NOT NULL DEFAULT 'active',
    next_fire_at TIMESTAMPTZ,
    enrolled_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (campaign_id, contact_id)
);

CREATE INDEX IF NOT EXISTS idx_enrollments_due ON enrollments (next_fire_at) WHERE status = 'active';

CREATE TABLE IF NOT EXISTS step_sends (
    id          SERIAL PRIMARY KEY,
    campaign_id INTEGER NOT NULL,
    contact_id  INTEGER NOT NULL,
    step_id     INTEGER NOT NULL,
    status      TEXT NOT NULL DEFAULT 'claimed',
    attempts    INTEGER NOT NULL DEFAULT 0,
    last_error  TEXT NOT NULL DEFAULT '',
    fire_at     TIMESTAMPTZ NOT NULL,
    claimed_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    sent_at     TIMESTAMPTZ,
    UNIQUE (campaign_id, contact_id, step_id)
);
`

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	db.Init()

	if _, err := db.DB.Exec(schema); err != nil {
		log.Fatal("migration failed:", err)
	}
	log.Println("✅ Schema applied")
}
