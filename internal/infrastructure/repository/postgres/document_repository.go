package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nyumbani/idverify/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, tenant_id, customer_id, document_type, filename, mime_type, file_size, checksum, storage_key, status, metadata, processed_at, created_at, updated_at`

func (r *DocumentRepository) GetByID(ctx context.Context, documentID, tenantID string) (*domain.DocumentUpload, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1 AND tenant_id = $2
`, documentID, tenantID)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", documentID))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) ListByCustomer(ctx context.Context, customerID, tenantID string) ([]domain.DocumentUpload, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE customer_id = $1 AND tenant_id = $2
ORDER BY created_at
`, customerID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query customer documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.DocumentUpload
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, documentID, tenantID string, status domain.DocumentStatus, processedAt *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $3, processed_at = COALESCE($4, processed_at), updated_at = $5
WHERE id = $1 AND tenant_id = $2
`, documentID, tenantID, string(status), processedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document status", fmt.Errorf("id %s", documentID))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.DocumentUpload, error) {
	var (
		doc         domain.DocumentUpload
		docType     string
		status      string
		metadataRaw []byte
		processedAt sql.NullTime
	)
	err := row.Scan(
		&doc.ID, &doc.TenantID, &doc.CustomerID, &docType, &doc.Filename, &doc.MimeType,
		&doc.FileSize, &doc.Checksum, &doc.StorageKey, &status, &metadataRaw,
		&processedAt, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metadataRaw, &doc.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	doc.Type = domain.DocumentType(docType)
	doc.Status = domain.DocumentStatus(status)
	if processedAt.Valid {
		t := processedAt.Time
		doc.ProcessedAt = &t
	}
	return &doc, nil
}
