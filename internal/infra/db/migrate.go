package db

import (
	"database/sql"
)

// MigrateUp creates the Intelligence Integration Hub schema: the Durable
// Cache Store (B), the Archive Store (C) with its secondary indexes, the
// pgvector-backed Vector Index (D), and the Recommendation collection (N).
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS cache_items (
    uuid          UUID PRIMARY KEY,
    token         TEXT NOT NULL,
    source        TEXT,
    target        TEXT,
    prompt        TEXT,
    title         TEXT,
    authors       TEXT[],
    content       TEXT NOT NULL,
    pub_time      TIMESTAMPTZ,
    informant     TEXT,
    archived_flag VARCHAR(1) NOT NULL DEFAULT '',
    time_got      TIMESTAMPTZ NOT NULL DEFAULT now(),
    time_post     TIMESTAMPTZ,
    time_done     TIMESTAMPTZ
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE INDEX IF NOT EXISTS idx_cache_items_unflagged ON cache_items(time_got) WHERE archived_flag = ''`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS archive_items (
    uuid           UUID PRIMARY KEY,
    informant      TEXT,
    pub_time       TIMESTAMPTZ,
    event_time     TEXT[],
    location       TEXT[],
    people         TEXT[],
    organization   TEXT[],
    event_title    TEXT NOT NULL,
    event_brief    TEXT NOT NULL,
    event_text     TEXT NOT NULL,
    rate           JSONB NOT NULL DEFAULT '{}',
    impact         TEXT,
    tips           TEXT,
    raw_data       TEXT,
    submitter      TEXT,
    max_rate_class TEXT,
    max_rate_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    time_archived  TIMESTAMPTZ NOT NULL DEFAULT now(),
    retry_count    INT NOT NULL DEFAULT 0,
    seq            BIGSERIAL
)`); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_archive_items_time_archived ON archive_items(time_archived DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_archive_items_pub_time ON archive_items(pub_time DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_archive_items_max_rate_score ON archive_items(max_rate_score DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_archive_items_location ON archive_items USING gin(location)`,
		`CREATE INDEX IF NOT EXISTS idx_archive_items_people ON archive_items USING gin(people)`,
		`CREATE INDEX IF NOT EXISTS idx_archive_items_organization ON archive_items USING gin(organization)`,
		`CREATE INDEX IF NOT EXISTS idx_archive_items_informant ON archive_items(informant)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	// pg_trgm speeds up the Query Engine's keyword ILIKE/regex filters.
	_, _ = db.Exec(`CREATE EXTENSION IF NOT EXISTS pg_trgm`)
	searchIndexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_archive_items_brief_gin ON archive_items USING gin(event_brief gin_trgm_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_archive_items_text_gin ON archive_items USING gin(event_text gin_trgm_ops)`,
	}
	for _, idx := range searchIndexes {
		_, _ = db.Exec(idx)
	}

	// Vector index: pgvector-backed, one row per indexed event text.
	_, _ = db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`)
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS archive_embeddings (
    uuid       UUID PRIMARY KEY REFERENCES archive_items(uuid) ON DELETE CASCADE,
    embedding  vector(1536) NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}
	_, _ = db.Exec(`
CREATE INDEX IF NOT EXISTS idx_archive_embeddings_vector
    ON archive_embeddings USING ivfflat (embedding vector_cosine_ops)
    WITH (lists = 100)`)

	// Recommendation collection: one row per generation hour.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS recommendations (
    generated_hour       TIMESTAMPTZ PRIMARY KEY,
    candidate_uuids      UUID[] NOT NULL DEFAULT '{}',
    recommended_uuids    UUID[] NOT NULL DEFAULT '{}',
    created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	return nil
}

// MigrateDown drops the Vector Index and Recommendation tables, preserving
// the Cache/Archive Stores (core durable state) as a targeted rollback.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP INDEX IF EXISTS idx_archive_embeddings_vector`,
		`DROP TABLE IF EXISTS archive_embeddings CASCADE`,
		`DROP TABLE IF EXISTS recommendations CASCADE`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
