package ports

import (
	"context"

	"github.com/nyumbani/idverify/internal/core/domain"
)

// ExtractionOptions tunes one OCR run.
type ExtractionOptions struct {
	Language       string
	ForceReprocess bool
}

// DocumentExtractor is the inbound contract for OCR extraction orchestration.
type DocumentExtractor interface {
	ExtractFromDocument(ctx context.Context, documentID, tenantID string, opts ExtractionOptions) (*domain.OCRExtractionResult, error)
}

// ProfileBuilder merges document extractions into the customer's canonical
// identity profile.
type ProfileBuilder interface {
	BuildIdentityProfile(ctx context.Context, customerID, tenantID string, documentIDs []string) (*domain.TenantIdentityProfile, error)
}

// FraudAnalyzer scores a single document for fraud signals and records
// manual review outcomes.
type FraudAnalyzer interface {
	AnalyzeDocument(ctx context.Context, documentID, tenantID string) (*domain.FraudRiskScore, error)
	ScoreForDocument(ctx context.Context, documentID, tenantID string) (*domain.FraudRiskScore, error)
	RecordReview(ctx context.Context, scoreID, tenantID string, review domain.ManualReview) (*domain.FraudRiskScore, error)
}

// DocumentValidator cross-checks a customer's document set against itself and
// the identity profile.
type DocumentValidator interface {
	ValidateCustomerDocuments(ctx context.Context, customerID, tenantID string, documentIDs []string) (*domain.ValidationResult, error)
}
