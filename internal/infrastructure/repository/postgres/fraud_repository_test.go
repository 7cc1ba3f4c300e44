package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/nyumbani/idverify/internal/core/domain"
)

func newFraudRepoWithMock(t *testing.T) (*FraudScoreRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &FraudScoreRepository{db: db}, mock, func() { _ = db.Close() }
}

func fraudScoreRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "document_id", "tenant_id", "customer_id", "checksum", "indicators",
		"score", "risk_level", "model_confidence", "review_required", "decision",
		"decision_reason", "review_notes", "reviewer_id", "reviewed_at", "analyzed_at",
	}).AddRow(
		"score-1", "doc-1", "tenant-1", "cust-1", "abc123",
		[]byte(`[{"type":"suspicious_format","severity":"high","confidence":0.9}]`),
		0.7, "high", 0.9, true, "", "", "", "", nil, now,
	)
}

func TestFraudScoreGetByID(t *testing.T) {
	repo, mock, done := newFraudRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM fraud_scores").
		WithArgs("score-1", "tenant-1").
		WillReturnRows(fraudScoreRows())

	score, err := repo.GetByID(context.Background(), "score-1", "tenant-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if score.RiskLevel != domain.RiskHigh || !score.ReviewRequired {
		t.Fatalf("scanned score = %+v", score)
	}
	if len(score.Indicators) != 1 || score.Indicators[0].Type != domain.IndicatorSuspiciousFormat {
		t.Fatalf("indicators = %+v", score.Indicators)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFraudScoreFindByChecksumSpansTenants(t *testing.T) {
	repo, mock, done := newFraudRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM fraud_scores WHERE checksum").
		WithArgs("abc123").
		WillReturnRows(fraudScoreRows())

	scores, err := repo.FindByChecksum(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("FindByChecksum() error = %v", err)
	}
	if len(scores) != 1 || scores[0].Checksum != "abc123" {
		t.Fatalf("scores = %+v", scores)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordReviewReturnsConflictWhenAlreadyReviewed(t *testing.T) {
	repo, mock, done := newFraudRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE fraud_scores").
		WithArgs("score-1", "tenant-1", "approved", "looks legitimate", "", "reviewer-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	review := domain.ManualReview{
		Decision:   domain.DecisionApproved,
		Reason:     "looks legitimate",
		ReviewerID: "reviewer-1",
	}
	err := repo.RecordReview(context.Background(), "score-1", "tenant-1", review, time.Now().UTC())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrReviewAlreadyRecorded) {
		t.Fatalf("expected ErrReviewAlreadyRecorded, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
