package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nyumbani/idverify/internal/core/domain"
)

type ValidationRepository struct {
	db *sql.DB
}

func NewValidationRepository(db *sql.DB) *ValidationRepository {
	return &ValidationRepository{db: db}
}

func (r *ValidationRepository) Save(ctx context.Context, result *domain.ValidationResult) error {
	documentIDsJSON, err := json.Marshal(result.DocumentIDs)
	if err != nil {
		return fmt.Errorf("marshal document ids: %w", err)
	}
	checksJSON, err := json.Marshal(result.Checks)
	if err != nil {
		return fmt.Errorf("marshal checks: %w", err)
	}
	recommendationsJSON, err := json.Marshal(result.Recommendations)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	if result.Recommendations == nil {
		recommendationsJSON = []byte("[]")
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO validation_results (
	id, tenant_id, customer_id, document_ids, checks, overall_status, overall_score,
	requires_manual_review, summary, recommendations, validated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		result.ID, result.TenantID, result.CustomerID, documentIDsJSON, checksJSON,
		string(result.OverallStatus), result.OverallScore, result.RequiresManualReview,
		result.Summary, recommendationsJSON, result.ValidatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert validation result: %w", err)
	}
	return nil
}

func (r *ValidationRepository) LatestByCustomer(ctx context.Context, customerID, tenantID string) (*domain.ValidationResult, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, tenant_id, customer_id, document_ids, checks, overall_status, overall_score,
	requires_manual_review, summary, recommendations, validated_at
FROM validation_results
WHERE customer_id = $1 AND tenant_id = $2
ORDER BY validated_at DESC
LIMIT 1
`, customerID, tenantID)

	var (
		result             domain.ValidationResult
		documentIDsRaw     []byte
		checksRaw          []byte
		recommendationsRaw []byte
		status             string
	)
	err := row.Scan(
		&result.ID, &result.TenantID, &result.CustomerID, &documentIDsRaw, &checksRaw,
		&status, &result.OverallScore, &result.RequiresManualReview, &result.Summary,
		&recommendationsRaw, &result.ValidatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrValidationNotFound, "latest validation", fmt.Errorf("customer %s", customerID))
		}
		return nil, fmt.Errorf("scan validation result: %w", err)
	}
	if err := json.Unmarshal(documentIDsRaw, &result.DocumentIDs); err != nil {
		return nil, fmt.Errorf("unmarshal document ids: %w", err)
	}
	if err := json.Unmarshal(checksRaw, &result.Checks); err != nil {
		return nil, fmt.Errorf("unmarshal checks: %w", err)
	}
	if err := json.Unmarshal(recommendationsRaw, &result.Recommendations); err != nil {
		return nil, fmt.Errorf("unmarshal recommendations: %w", err)
	}
	result.OverallStatus = domain.OverallStatus(status)
	return &result, nil
}
