package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nyumbani/idverify/internal/core/domain"
)

type ExtractionRepository struct {
	db *sql.DB
}

func NewExtractionRepository(db *sql.DB) *ExtractionRepository {
	return &ExtractionRepository{db: db}
}

func (r *ExtractionRepository) Save(ctx context.Context, result *domain.OCRExtractionResult) error {
	fieldsJSON, err := json.Marshal(result.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	if result.Fields == nil {
		fieldsJSON = []byte("[]")
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO ocr_extractions (
	id, document_id, tenant_id, raw_text, fields, confidence, language, page_count, status, error_message, started_at, completed_at, duration_ms
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`,
		result.ID, result.DocumentID, result.TenantID, result.RawText, fieldsJSON,
		result.Confidence, result.Language, result.PageCount, string(result.Status),
		result.ErrorMessage, result.StartedAt, result.CompletedAt, result.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("insert extraction: %w", err)
	}
	return nil
}

const extractionColumns = `id, document_id, tenant_id, raw_text, fields, confidence, language, page_count, status, error_message, started_at, completed_at, duration_ms`

func (r *ExtractionRepository) LatestCompleted(ctx context.Context, documentID, tenantID string) (*domain.OCRExtractionResult, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+extractionColumns+`
FROM ocr_extractions
WHERE document_id = $1 AND tenant_id = $2 AND status = $3
ORDER BY completed_at DESC
LIMIT 1
`, documentID, tenantID, string(domain.ExtractionCompleted))

	result, err := scanExtraction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrExtractionNotFound, "latest extraction", fmt.Errorf("no completed run for document %s", documentID))
		}
		return nil, fmt.Errorf("scan extraction: %w", err)
	}
	return result, nil
}

func (r *ExtractionRepository) ListCompletedForDocuments(ctx context.Context, tenantID string, documentIDs []string) ([]domain.OCRExtractionResult, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}
	idsJSON, err := json.Marshal(documentIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal document ids: %w", err)
	}

	// Latest completed run per document only.
	rows, err := r.db.QueryContext(ctx, `
SELECT DISTINCT ON (document_id) `+extractionColumns+`
FROM ocr_extractions
WHERE tenant_id = $1 AND status = $2 AND document_id IN (SELECT jsonb_array_elements_text($3::jsonb))
ORDER BY document_id, completed_at DESC
`, tenantID, string(domain.ExtractionCompleted), idsJSON)
	if err != nil {
		return nil, fmt.Errorf("query extractions: %w", err)
	}
	defer rows.Close()

	var results []domain.OCRExtractionResult
	for rows.Next() {
		result, err := scanExtraction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan extraction: %w", err)
		}
		results = append(results, *result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extractions: %w", err)
	}
	return results, nil
}

func scanExtraction(row rowScanner) (*domain.OCRExtractionResult, error) {
	var (
		result    domain.OCRExtractionResult
		fieldsRaw []byte
		status    string
	)
	err := row.Scan(
		&result.ID, &result.DocumentID, &result.TenantID, &result.RawText, &fieldsRaw,
		&result.Confidence, &result.Language, &result.PageCount, &status,
		&result.ErrorMessage, &result.StartedAt, &result.CompletedAt, &result.DurationMS,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fieldsRaw, &result.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	result.Status = domain.ExtractionStatus(status)
	return &result, nil
}
