package ports

import (
	"context"
	"time"

	"github.com/nyumbani/idverify/internal/core/domain"
)

// DocumentRepository reads and mutates uploaded-document state. Every call is
// tenant-scoped; there is no cross-tenant document query.
type DocumentRepository interface {
	GetByID(ctx context.Context, documentID, tenantID string) (*domain.DocumentUpload, error)
	ListByCustomer(ctx context.Context, customerID, tenantID string) ([]domain.DocumentUpload, error)
	UpdateStatus(ctx context.Context, documentID, tenantID string, status domain.DocumentStatus, processedAt *time.Time) error
}

// ExtractionRepository appends OCR runs and serves completed results.
type ExtractionRepository interface {
	Save(ctx context.Context, result *domain.OCRExtractionResult) error
	LatestCompleted(ctx context.Context, documentID, tenantID string) (*domain.OCRExtractionResult, error)
	ListCompletedForDocuments(ctx context.Context, tenantID string, documentIDs []string) ([]domain.OCRExtractionResult, error)
}

// ProfileRepository persists the single profile per (tenant, customer).
// Save must serialize concurrent writes for the same customer.
type ProfileRepository interface {
	GetByCustomer(ctx context.Context, customerID, tenantID string) (*domain.TenantIdentityProfile, error)
	Save(ctx context.Context, profile *domain.TenantIdentityProfile) error
}

// FraudScoreRepository persists fraud assessments. FindByChecksum is the one
// deliberate cross-tenant query in the system, used for duplicate detection.
type FraudScoreRepository interface {
	Save(ctx context.Context, score *domain.FraudRiskScore) error
	GetByID(ctx context.Context, scoreID, tenantID string) (*domain.FraudRiskScore, error)
	GetByDocument(ctx context.Context, documentID, tenantID string) (*domain.FraudRiskScore, error)
	FindByChecksum(ctx context.Context, checksum string) ([]domain.FraudRiskScore, error)
	RecordReview(ctx context.Context, scoreID, tenantID string, review domain.ManualReview, reviewedAt time.Time) error
}

// ValidationRepository appends validation runs per customer.
type ValidationRepository interface {
	Save(ctx context.Context, result *domain.ValidationResult) error
	LatestByCustomer(ctx context.Context, customerID, tenantID string) (*domain.ValidationResult, error)
}

// ObjectStorage serves raw document bytes, keyed within a tenant.
type ObjectStorage interface {
	Download(ctx context.Context, tenantID, key string) ([]byte, error)
}

// OCRPayload is one provider response.
type OCRPayload struct {
	RawText    string
	Fields     domain.FieldSet
	Confidence float64
	Language   string
	PageCount  int
}

// OCRProvider drives the external OCR engine.
type OCRProvider interface {
	Supports(mimeType string) bool
	ExtractText(ctx context.Context, data []byte, mimeType string, opts ExtractionOptions) (*OCRPayload, error)
}

// IntegrityReport is the external image analyzer's tamper assessment.
type IntegrityReport struct {
	Tampered   bool
	Confidence float64
	Details    string
}

// CloneReport flags duplicated ("copy-paste") regions within an image.
type CloneReport struct {
	RegionsFound int
	Confidence   float64
	Details      string
}

// ImageAnalyzer is the optional image-forensics collaborator. Callers hold it
// behind an explicit capability flag; a nil analyzer means the image checks
// are skipped, not failed.
type ImageAnalyzer interface {
	AnalyzeIntegrity(ctx context.Context, data []byte, mimeType string) (*IntegrityReport, error)
	DetectDuplicateRegions(ctx context.Context, data []byte) (*CloneReport, error)
}

// VerificationQuery asks the external registry to confirm an identity.
type VerificationQuery struct {
	IDType      domain.DocumentType
	IDNumber    string
	FullName    string
	DateOfBirth *time.Time
}

// VerificationOutcome is the registry's answer.
type VerificationOutcome struct {
	Verified         bool
	Confidence       float64
	MatchedFields    []string
	MismatchedFields []string
}

// ExternalVerifier is the optional registry collaborator behind the
// external-verification feature flag.
type ExternalVerifier interface {
	VerifyIdentity(ctx context.Context, query VerificationQuery) (*VerificationOutcome, error)
}

// MessageQueue fans uploaded-document events into the verification worker.
type MessageQueue interface {
	PublishDocumentUploaded(ctx context.Context, tenantID, documentID string) error
	SubscribeDocumentUploaded(ctx context.Context, handler func(ctx context.Context, tenantID, documentID string) error) error
}
