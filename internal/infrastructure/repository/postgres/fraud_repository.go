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

type FraudScoreRepository struct {
	db *sql.DB
}

func NewFraudScoreRepository(db *sql.DB) *FraudScoreRepository {
	return &FraudScoreRepository{db: db}
}

func (r *FraudScoreRepository) Save(ctx context.Context, score *domain.FraudRiskScore) error {
	indicatorsJSON, err := json.Marshal(score.Indicators)
	if err != nil {
		return fmt.Errorf("marshal indicators: %w", err)
	}
	if score.Indicators == nil {
		indicatorsJSON = []byte("[]")
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO fraud_scores (
	id, document_id, tenant_id, customer_id, checksum, indicators, score, risk_level, model_confidence,
	review_required, decision, decision_reason, review_notes, reviewer_id, reviewed_at, analyzed_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
`,
		score.ID, score.DocumentID, score.TenantID, score.CustomerID, score.Checksum, indicatorsJSON,
		score.Score, string(score.RiskLevel), score.ModelConfidence, score.ReviewRequired,
		string(score.Decision), score.DecisionReason, score.ReviewNotes, score.ReviewerID,
		score.ReviewedAt, score.AnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("insert fraud score: %w", err)
	}
	return nil
}

const fraudScoreColumns = `id, document_id, tenant_id, customer_id, checksum, indicators, score, risk_level, model_confidence, review_required, decision, decision_reason, review_notes, reviewer_id, reviewed_at, analyzed_at`

func (r *FraudScoreRepository) GetByID(ctx context.Context, scoreID, tenantID string) (*domain.FraudRiskScore, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+fraudScoreColumns+`
FROM fraud_scores
WHERE id = $1 AND tenant_id = $2
`, scoreID, tenantID)

	score, err := scanFraudScore(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrFraudScoreNotFound, "get fraud score", fmt.Errorf("id %s", scoreID))
		}
		return nil, fmt.Errorf("scan fraud score: %w", err)
	}
	return score, nil
}

func (r *FraudScoreRepository) GetByDocument(ctx context.Context, documentID, tenantID string) (*domain.FraudRiskScore, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+fraudScoreColumns+`
FROM fraud_scores
WHERE document_id = $1 AND tenant_id = $2
ORDER BY analyzed_at DESC
LIMIT 1
`, documentID, tenantID)

	score, err := scanFraudScore(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrFraudScoreNotFound, "get fraud score", fmt.Errorf("document %s", documentID))
		}
		return nil, fmt.Errorf("scan fraud score: %w", err)
	}
	return score, nil
}

// FindByChecksum deliberately queries across tenants: shared fraudulent
// documents are exactly the ones submitted under unrelated tenancies.
func (r *FraudScoreRepository) FindByChecksum(ctx context.Context, checksum string) ([]domain.FraudRiskScore, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+fraudScoreColumns+`
FROM fraud_scores
WHERE checksum = $1
ORDER BY analyzed_at
`, checksum)
	if err != nil {
		return nil, fmt.Errorf("query by checksum: %w", err)
	}
	defer rows.Close()

	var scores []domain.FraudRiskScore
	for rows.Next() {
		score, err := scanFraudScore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fraud score: %w", err)
		}
		scores = append(scores, *score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fraud scores: %w", err)
	}
	return scores, nil
}

// RecordReview is append-once: the guard predicate refuses a second write.
func (r *FraudScoreRepository) RecordReview(ctx context.Context, scoreID, tenantID string, review domain.ManualReview, reviewedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE fraud_scores
SET decision = $3, decision_reason = $4, review_notes = $5, reviewer_id = $6, reviewed_at = $7
WHERE id = $1 AND tenant_id = $2 AND reviewed_at IS NULL
`, scoreID, tenantID, string(review.Decision), review.Reason, review.Notes, review.ReviewerID, reviewedAt)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrReviewAlreadyRecorded, "record review", fmt.Errorf("score %s", scoreID))
	}
	return nil
}

func scanFraudScore(row rowScanner) (*domain.FraudRiskScore, error) {
	var (
		score         domain.FraudRiskScore
		indicatorsRaw []byte
		riskLevel     string
		decision      string
		reviewedAt    sql.NullTime
	)
	err := row.Scan(
		&score.ID, &score.DocumentID, &score.TenantID, &score.CustomerID, &score.Checksum,
		&indicatorsRaw, &score.Score, &riskLevel, &score.ModelConfidence, &score.ReviewRequired,
		&decision, &score.DecisionReason, &score.ReviewNotes, &score.ReviewerID, &reviewedAt, &score.AnalyzedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(indicatorsRaw, &score.Indicators); err != nil {
		return nil, fmt.Errorf("unmarshal indicators: %w", err)
	}
	score.RiskLevel = domain.RiskLevel(riskLevel)
	score.Decision = domain.ReviewDecision(decision)
	if reviewedAt.Valid {
		t := reviewedAt.Time
		score.ReviewedAt = &t
	}
	return &score, nil
}
