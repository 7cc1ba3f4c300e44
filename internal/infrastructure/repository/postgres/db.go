package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	customer_id TEXT NOT NULL,
	document_type TEXT NOT NULL,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	file_size BIGINT NOT NULL DEFAULT 0,
	checksum TEXT NOT NULL DEFAULT '',
	storage_key TEXT NOT NULL,
	status TEXT NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	processed_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_tenant_customer ON documents(tenant_id, customer_id);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);

CREATE TABLE IF NOT EXISTS ocr_extractions (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	tenant_id TEXT NOT NULL,
	raw_text TEXT NOT NULL DEFAULT '',
	fields JSONB NOT NULL DEFAULT '[]'::jsonb,
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	language TEXT NOT NULL DEFAULT '',
	page_count INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	started_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_extractions_document ON ocr_extractions(tenant_id, document_id, completed_at DESC);

CREATE TABLE IF NOT EXISTS identity_profiles (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	customer_id TEXT NOT NULL,
	first_name TEXT NOT NULL DEFAULT '',
	middle_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	date_of_birth TIMESTAMPTZ,
	nationality TEXT NOT NULL DEFAULT '',
	gender TEXT NOT NULL DEFAULT '',
	id_numbers JSONB NOT NULL DEFAULT '[]'::jsonb,
	addresses JSONB NOT NULL DEFAULT '[]'::jsonb,
	contact JSONB NOT NULL DEFAULT '{}'::jsonb,
	employment JSONB NOT NULL DEFAULT '{}'::jsonb,
	photo_on_file BOOLEAN NOT NULL DEFAULT FALSE,
	provenance JSONB NOT NULL DEFAULT '{}'::jsonb,
	completeness INTEGER NOT NULL DEFAULT 0,
	verification_status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (tenant_id, customer_id)
);

CREATE TABLE IF NOT EXISTS fraud_scores (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	tenant_id TEXT NOT NULL,
	customer_id TEXT NOT NULL,
	checksum TEXT NOT NULL DEFAULT '',
	indicators JSONB NOT NULL DEFAULT '[]'::jsonb,
	score DOUBLE PRECISION NOT NULL DEFAULT 0,
	risk_level TEXT NOT NULL,
	model_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	review_required BOOLEAN NOT NULL DEFAULT FALSE,
	decision TEXT NOT NULL DEFAULT '',
	decision_reason TEXT NOT NULL DEFAULT '',
	review_notes TEXT NOT NULL DEFAULT '',
	reviewer_id TEXT NOT NULL DEFAULT '',
	reviewed_at TIMESTAMPTZ,
	analyzed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fraud_scores_checksum ON fraud_scores(checksum);
CREATE INDEX IF NOT EXISTS idx_fraud_scores_document ON fraud_scores(tenant_id, document_id, analyzed_at DESC);

CREATE TABLE IF NOT EXISTS validation_results (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	customer_id TEXT NOT NULL,
	document_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
	checks JSONB NOT NULL DEFAULT '[]'::jsonb,
	overall_status TEXT NOT NULL,
	overall_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	requires_manual_review BOOLEAN NOT NULL DEFAULT FALSE,
	summary TEXT NOT NULL DEFAULT '',
	recommendations JSONB NOT NULL DEFAULT '[]'::jsonb,
	validated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_validation_customer ON validation_results(tenant_id, customer_id, validated_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
