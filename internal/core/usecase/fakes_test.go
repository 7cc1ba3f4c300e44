package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/nyumbani/idverify/internal/core/domain"
	"github.com/nyumbani/idverify/internal/core/ports"
)

type statusChange struct {
	documentID  string
	status      domain.DocumentStatus
	processedAt *time.Time
}

type fakeDocumentRepo struct {
	docs          map[string]*domain.DocumentUpload
	statusChanges []statusChange
}

func newFakeDocumentRepo(docs ...*domain.DocumentUpload) *fakeDocumentRepo {
	repo := &fakeDocumentRepo{docs: make(map[string]*domain.DocumentUpload)}
	for _, d := range docs {
		repo.docs[d.ID] = d
	}
	return repo
}

func (r *fakeDocumentRepo) GetByID(_ context.Context, documentID, tenantID string) (*domain.DocumentUpload, error) {
	doc, ok := r.docs[documentID]
	if !ok || doc.TenantID != tenantID {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "fake get", fmt.Errorf("document %s", documentID))
	}
	copied := *doc
	return &copied, nil
}

func (r *fakeDocumentRepo) ListByCustomer(_ context.Context, customerID, tenantID string) ([]domain.DocumentUpload, error) {
	var out []domain.DocumentUpload
	for _, d := range r.docs {
		if d.CustomerID == customerID && d.TenantID == tenantID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDocumentRepo) UpdateStatus(_ context.Context, documentID, _ string, status domain.DocumentStatus, processedAt *time.Time) error {
	doc, ok := r.docs[documentID]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "fake update", fmt.Errorf("document %s", documentID))
	}
	doc.Status = status
	if processedAt != nil {
		doc.ProcessedAt = processedAt
	}
	r.statusChanges = append(r.statusChanges, statusChange{documentID: documentID, status: status, processedAt: processedAt})
	return nil
}

type fakeExtractionRepo struct {
	saved     []*domain.OCRExtractionResult
	latest    *domain.OCRExtractionResult
	completed []domain.OCRExtractionResult
	saveErr   error
}

func (r *fakeExtractionRepo) Save(_ context.Context, result *domain.OCRExtractionResult) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, result)
	return nil
}

func (r *fakeExtractionRepo) LatestCompleted(_ context.Context, documentID, _ string) (*domain.OCRExtractionResult, error) {
	if r.latest != nil && r.latest.DocumentID == documentID {
		return r.latest, nil
	}
	return nil, domain.WrapError(domain.ErrExtractionNotFound, "fake latest", fmt.Errorf("document %s", documentID))
}

func (r *fakeExtractionRepo) ListCompletedForDocuments(_ context.Context, _ string, documentIDs []string) ([]domain.OCRExtractionResult, error) {
	wanted := make(map[string]bool, len(documentIDs))
	for _, id := range documentIDs {
		wanted[id] = true
	}
	var out []domain.OCRExtractionResult
	for _, ex := range r.completed {
		if wanted[ex.DocumentID] {
			out = append(out, ex)
		}
	}
	return out, nil
}

type fakeStorage struct {
	data map[string][]byte
	err  error
}

func (s *fakeStorage) Download(_ context.Context, _, key string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	data, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("no object for key %s", key)
	}
	return data, nil
}

type fakeProvider struct {
	supported map[string]bool
	payload   *ports.OCRPayload
	err       error
	calls     int
}

func (p *fakeProvider) Supports(mimeType string) bool {
	if p.supported == nil {
		return true
	}
	return p.supported[mimeType]
}

func (p *fakeProvider) ExtractText(_ context.Context, _ []byte, _ string, _ ports.ExtractionOptions) (*ports.OCRPayload, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.payload, nil
}

type fakeScoreRepo struct {
	saved      []*domain.FraudRiskScore
	byID       map[string]*domain.FraudRiskScore
	byChecksum []domain.FraudRiskScore
	reviews    []domain.ManualReview
}

func (r *fakeScoreRepo) Save(_ context.Context, score *domain.FraudRiskScore) error {
	r.saved = append(r.saved, score)
	return nil
}

func (r *fakeScoreRepo) GetByID(_ context.Context, scoreID, _ string) (*domain.FraudRiskScore, error) {
	score, ok := r.byID[scoreID]
	if !ok {
		return nil, domain.WrapError(domain.ErrFraudScoreNotFound, "fake get", fmt.Errorf("score %s", scoreID))
	}
	copied := *score
	return &copied, nil
}

func (r *fakeScoreRepo) GetByDocument(_ context.Context, documentID, _ string) (*domain.FraudRiskScore, error) {
	for _, s := range r.saved {
		if s.DocumentID == documentID {
			return s, nil
		}
	}
	return nil, domain.WrapError(domain.ErrFraudScoreNotFound, "fake get", fmt.Errorf("document %s", documentID))
}

func (r *fakeScoreRepo) FindByChecksum(_ context.Context, checksum string) ([]domain.FraudRiskScore, error) {
	var out []domain.FraudRiskScore
	for _, s := range r.byChecksum {
		if s.Checksum == checksum {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeScoreRepo) RecordReview(_ context.Context, scoreID, _ string, review domain.ManualReview, reviewedAt time.Time) error {
	score, ok := r.byID[scoreID]
	if !ok {
		return domain.WrapError(domain.ErrFraudScoreNotFound, "fake review", fmt.Errorf("score %s", scoreID))
	}
	if score.ReviewedAt != nil {
		return domain.WrapError(domain.ErrReviewAlreadyRecorded, "fake review", fmt.Errorf("score %s", scoreID))
	}
	score.ReviewedAt = &reviewedAt
	r.reviews = append(r.reviews, review)
	return nil
}

type fakeProfileRepo struct {
	profile *domain.TenantIdentityProfile
	saved   []*domain.TenantIdentityProfile
}

func (r *fakeProfileRepo) GetByCustomer(_ context.Context, customerID, _ string) (*domain.TenantIdentityProfile, error) {
	if r.profile == nil || r.profile.CustomerID != customerID {
		return nil, domain.WrapError(domain.ErrProfileNotFound, "fake get", fmt.Errorf("customer %s", customerID))
	}
	return r.profile, nil
}

func (r *fakeProfileRepo) Save(_ context.Context, profile *domain.TenantIdentityProfile) error {
	r.saved = append(r.saved, profile)
	r.profile = profile
	return nil
}

type fakeValidationRepo struct {
	saved []*domain.ValidationResult
}

func (r *fakeValidationRepo) Save(_ context.Context, result *domain.ValidationResult) error {
	r.saved = append(r.saved, result)
	return nil
}

func (r *fakeValidationRepo) LatestByCustomer(_ context.Context, customerID, _ string) (*domain.ValidationResult, error) {
	if len(r.saved) == 0 {
		return nil, domain.WrapError(domain.ErrValidationNotFound, "fake latest", fmt.Errorf("customer %s", customerID))
	}
	return r.saved[len(r.saved)-1], nil
}

type fakeAnalyzer struct {
	integrity *ports.IntegrityReport
	clone     *ports.CloneReport
	err       error
}

func (a *fakeAnalyzer) AnalyzeIntegrity(_ context.Context, _ []byte, _ string) (*ports.IntegrityReport, error) {
	return a.integrity, a.err
}

func (a *fakeAnalyzer) DetectDuplicateRegions(_ context.Context, _ []byte) (*ports.CloneReport, error) {
	return a.clone, a.err
}

type fakeVerifier struct {
	outcome *ports.VerificationOutcome
	err     error
	queries []ports.VerificationQuery
}

func (v *fakeVerifier) VerifyIdentity(_ context.Context, query ports.VerificationQuery) (*ports.VerificationOutcome, error) {
	v.queries = append(v.queries, query)
	if v.err != nil {
		return nil, v.err
	}
	return v.outcome, nil
}
