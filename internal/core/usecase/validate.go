package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nyumbani/idverify/internal/core/domain"
	"github.com/nyumbani/idverify/internal/core/ports"
)

// documentEvidence pairs one document with its completed extraction fields.
type documentEvidence struct {
	doc    domain.DocumentUpload
	fields domain.FieldSet
}

// ValidateDocumentsUseCase reconciles a customer's document set against
// itself and the identity profile, producing an explainable verdict per check
// plus an aggregate status.
type ValidateDocumentsUseCase struct {
	docs        ports.DocumentRepository
	extractions ports.ExtractionRepository
	profiles    ports.ProfileRepository
	validations ports.ValidationRepository
	verifier    ports.ExternalVerifier
	thresholds  Thresholds
	now         func() time.Time
}

// ValidatorOptions carries the optional collaborators. A nil ExternalVerifier
// makes the external-verification check report skipped.
type ValidatorOptions struct {
	ExternalVerifier ports.ExternalVerifier
}

func NewValidateDocumentsUseCase(
	docs ports.DocumentRepository,
	extractions ports.ExtractionRepository,
	profiles ports.ProfileRepository,
	validations ports.ValidationRepository,
	thresholds Thresholds,
	opts ValidatorOptions,
) *ValidateDocumentsUseCase {
	return &ValidateDocumentsUseCase{
		docs:        docs,
		extractions: extractions,
		profiles:    profiles,
		validations: validations,
		verifier:    opts.ExternalVerifier,
		thresholds:  thresholds.normalize(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ValidateDocumentsUseCase) ValidateCustomerDocuments(
	ctx context.Context,
	customerID, tenantID string,
	documentIDs []string,
) (*domain.ValidationResult, error) {
	evidence, err := uc.loadEvidence(ctx, customerID, tenantID, documentIDs)
	if err != nil {
		return nil, err
	}
	if len(evidence) == 0 {
		return nil, domain.WrapError(domain.ErrNoDocuments, "validate customer documents",
			fmt.Errorf("customer %s", customerID))
	}

	profile, err := uc.profiles.GetByCustomer(ctx, customerID, tenantID)
	if err != nil {
		if !domain.IsKind(err, domain.ErrProfileNotFound) {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		profile = nil
	}

	now := uc.now()
	checks := []domain.ValidationCheck{
		uc.checkNames(evidence, profile),
		uc.checkIDNumbers(evidence, profile),
		uc.checkAddresses(evidence),
		uc.checkDateAlignment(evidence, now),
		uc.checkContact(evidence, profile),
		uc.checkCompleteness(evidence),
		uc.checkExternal(ctx, profile),
	}

	result := uc.aggregate(checks, now)
	result.ID = uuid.NewString()
	result.TenantID = tenantID
	result.CustomerID = customerID
	for _, ev := range evidence {
		result.DocumentIDs = append(result.DocumentIDs, ev.doc.ID)
	}

	if err := uc.validations.Save(ctx, result); err != nil {
		return nil, fmt.Errorf("save validation result: %w", err)
	}
	return result, nil
}

func (uc *ValidateDocumentsUseCase) loadEvidence(
	ctx context.Context,
	customerID, tenantID string,
	documentIDs []string,
) ([]documentEvidence, error) {
	var docs []domain.DocumentUpload
	if len(documentIDs) == 0 {
		all, err := uc.docs.ListByCustomer(ctx, customerID, tenantID)
		if err != nil {
			return nil, fmt.Errorf("list customer documents: %w", err)
		}
		docs = all
	} else {
		for _, id := range documentIDs {
			doc, err := uc.docs.GetByID(ctx, id, tenantID)
			if err != nil {
				return nil, fmt.Errorf("fetch document %s: %w", id, err)
			}
			docs = append(docs, *doc)
		}
	}
	if len(docs) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	extractions, err := uc.extractions.ListCompletedForDocuments(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("load extractions: %w", err)
	}
	fieldsByDoc := make(map[string]domain.FieldSet, len(extractions))
	for _, ex := range extractions {
		fieldsByDoc[ex.DocumentID] = ex.Fields
	}

	evidence := make([]documentEvidence, 0, len(docs))
	for _, d := range docs {
		evidence = append(evidence, documentEvidence{doc: d, fields: fieldsByDoc[d.ID]})
	}
	return evidence, nil
}

// aggregate applies the verdict rules: skipped checks do not score, any
// failure forces overall failure, warnings above the tolerance force review,
// and a passing run must clear the auto-approve threshold.
func (uc *ValidateDocumentsUseCase) aggregate(checks []domain.ValidationCheck, now time.Time) *domain.ValidationResult {
	result := &domain.ValidationResult{
		Checks:      checks,
		ValidatedAt: now,
	}

	var (
		active   int
		failed   int
		warnings int
		scoreSum float64
	)
	for _, c := range checks {
		if c.Status == domain.CheckSkipped {
			continue
		}
		active++
		scoreSum += c.Score
		switch c.Status {
		case domain.CheckFailed:
			failed++
		case domain.CheckWarning:
			warnings++
		}
	}

	if active > 0 {
		result.OverallScore = scoreSum / float64(active)
	}

	switch {
	case active == 0:
		result.OverallStatus = domain.OverallManualReview
		result.RequiresManualReview = true
	case failed > 0:
		result.OverallStatus = domain.OverallFailed
		result.RequiresManualReview = true
	case warnings > 0:
		result.OverallStatus = domain.OverallWarning
		result.RequiresManualReview = warnings > uc.thresholds.MaxValidationWarnings
	case result.OverallScore >= uc.thresholds.AutoApproveThreshold:
		result.OverallStatus = domain.OverallPassed
	default:
		result.OverallStatus = domain.OverallManualReview
		result.RequiresManualReview = true
	}

	result.Summary = buildSummary(active, failed, warnings, len(checks)-active)
	result.Recommendations = buildRecommendations(checks)
	return result
}

func buildSummary(active, failed, warnings, skipped int) string {
	passed := active - failed - warnings
	s := fmt.Sprintf("%d of %d checks passed", passed, active)
	if warnings > 0 {
		s += fmt.Sprintf(", %d warning(s)", warnings)
	}
	if failed > 0 {
		s += fmt.Sprintf(", %d failed", failed)
	}
	if skipped > 0 {
		s += fmt.Sprintf(", %d skipped", skipped)
	}
	return s
}

var recommendationByCheck = map[domain.CheckType]string{
	domain.CheckNameMatching:         "verify customer name across all documents",
	domain.CheckIDNumberVerification: "confirm government ID number with the issuing authority",
	domain.CheckAddressConsistency:   "confirm current address with the customer",
	domain.CheckDateAlignment:        "review document validity dates",
	domain.CheckContactConsistency:   "confirm phone and email with the customer",
	domain.CheckDocumentCompleteness: "request the missing required documents",
	domain.CheckExternalVerification: "re-run external registry verification",
}

// buildRecommendations derives deduplicated recommendations mechanically from
// the non-passing checks.
func buildRecommendations(checks []domain.ValidationCheck) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, c := range checks {
		if c.Status != domain.CheckFailed && c.Status != domain.CheckWarning {
			continue
		}
		rec, ok := recommendationByCheck[c.Type]
		if !ok {
			continue
		}
		if _, dup := seen[rec]; dup {
			continue
		}
		seen[rec] = struct{}{}
		out = append(out, rec)
	}
	return out
}
