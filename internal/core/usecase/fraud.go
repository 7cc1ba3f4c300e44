package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nyumbani/idverify/internal/core/domain"
	"github.com/nyumbani/idverify/internal/core/ports"
)

const autoApprovalReason = "Automated approval - low risk"

// noIndicatorConfidence is the model confidence reported when no check found
// anything: absence of evidence is strong, not conclusive.
const noIndicatorConfidence = 0.95

// FraudDetectionUseCase runs the independent fraud checks over one document
// and combines their findings into a severity-weighted risk score.
type FraudDetectionUseCase struct {
	docs       ports.DocumentRepository
	scores     ports.FraudScoreRepository
	storage    ports.ObjectStorage
	imaging    ports.ImageAnalyzer
	thresholds Thresholds
	now        func() time.Time
}

// FraudOptions carries the optional collaborators. A nil ImageAnalyzer means
// image integrity and clone detection are skipped for every document.
type FraudOptions struct {
	ImageAnalyzer ports.ImageAnalyzer
}

func NewFraudDetectionUseCase(
	docs ports.DocumentRepository,
	scores ports.FraudScoreRepository,
	storage ports.ObjectStorage,
	thresholds Thresholds,
	opts FraudOptions,
) *FraudDetectionUseCase {
	return &FraudDetectionUseCase{
		docs:       docs,
		scores:     scores,
		storage:    storage,
		imaging:    opts.ImageAnalyzer,
		thresholds: thresholds.normalize(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (uc *FraudDetectionUseCase) AnalyzeDocument(ctx context.Context, documentID, tenantID string) (*domain.FraudRiskScore, error) {
	doc, err := uc.docs.GetByID(ctx, documentID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}

	data, err := uc.storage.Download(ctx, tenantID, doc.StorageKey)
	if err != nil {
		return nil, domain.WrapError(domain.ErrAnalysisFailed, "analyze document",
			fmt.Errorf("download bytes: %w", err))
	}

	now := uc.now()
	indicators, err := uc.runChecks(ctx, doc, data, now)
	if err != nil {
		return nil, domain.WrapError(domain.ErrAnalysisFailed, "analyze document", err)
	}

	score := uc.assemble(doc, indicators, now)
	if err := uc.scores.Save(ctx, score); err != nil {
		return nil, fmt.Errorf("save fraud score: %w", err)
	}

	if doc.Status == domain.StatusOCRCompleted {
		if err := uc.docs.UpdateStatus(ctx, documentID, tenantID, domain.StatusFraudCheck, nil); err != nil {
			return nil, fmt.Errorf("advance document status: %w", err)
		}
	}
	return score, nil
}

// runChecks executes the independent checks concurrently and unions their
// findings in a deterministic order.
func (uc *FraudDetectionUseCase) runChecks(ctx context.Context, doc *domain.DocumentUpload, data []byte, now time.Time) ([]domain.FraudIndicator, error) {
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		indicators []domain.FraudIndicator
		checkErr   error
	)

	collect := func(found []domain.FraudIndicator, err error) {
		mu.Lock()
		defer mu.Unlock()
		indicators = append(indicators, found...)
		if err != nil && checkErr == nil {
			checkErr = err
		}
	}

	checks := []func() ([]domain.FraudIndicator, error){
		func() ([]domain.FraudIndicator, error) { return uc.checkMetadata(doc), nil },
		func() ([]domain.FraudIndicator, error) { return uc.checkFileIntegrity(doc, data), nil },
		func() ([]domain.FraudIndicator, error) { return uc.checkCrossTenantDuplicate(ctx, doc) },
		func() ([]domain.FraudIndicator, error) { return uc.checkFormat(doc), nil },
		func() ([]domain.FraudIndicator, error) { return uc.checkDates(doc, now), nil },
		func() ([]domain.FraudIndicator, error) { return uc.checkImage(ctx, doc, data), nil },
	}

	wg.Add(len(checks))
	for _, check := range checks {
		go func(run func() ([]domain.FraudIndicator, error)) {
			defer wg.Done()
			collect(run())
		}(check)
	}
	wg.Wait()

	if checkErr != nil {
		return nil, checkErr
	}

	sort.Slice(indicators, func(i, j int) bool {
		if indicators[i].Type != indicators[j].Type {
			return indicators[i].Type < indicators[j].Type
		}
		return indicators[i].Evidence < indicators[j].Evidence
	})
	return indicators, nil
}

// assemble computes the confidence-weighted score, the risk level with its
// hard critical override, and the disposition.
func (uc *FraudDetectionUseCase) assemble(doc *domain.DocumentUpload, indicators []domain.FraudIndicator, now time.Time) *domain.FraudRiskScore {
	score := &domain.FraudRiskScore{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		TenantID:   doc.TenantID,
		CustomerID: doc.CustomerID,
		Checksum:   doc.Checksum,
		Indicators: indicators,
		AnalyzedAt: now,
	}

	if len(indicators) == 0 {
		score.RiskLevel = domain.RiskLow
		score.ModelConfidence = noIndicatorConfidence
		score.Decision = domain.DecisionApproved
		score.DecisionReason = autoApprovalReason
		return score
	}

	var weightedSum, weightTotal, confidenceSum float64
	hasCritical := false
	for _, ind := range indicators {
		w := ind.Severity.Weight()
		weightedSum += ind.Confidence * w
		weightTotal += w
		confidenceSum += ind.Confidence
		if ind.Severity == domain.SeverityCritical {
			hasCritical = true
		}
	}

	value := weightedSum / weightTotal
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	score.Score = value
	score.ModelConfidence = confidenceSum / float64(len(indicators))
	score.RiskLevel = uc.riskLevel(value, hasCritical)
	score.ReviewRequired = score.RiskLevel == domain.RiskHigh || score.RiskLevel == domain.RiskCritical

	if !score.ReviewRequired {
		score.Decision = domain.DecisionApproved
		score.DecisionReason = autoApprovalReason
	}
	return score
}

func (uc *FraudDetectionUseCase) riskLevel(score float64, hasCritical bool) domain.RiskLevel {
	// A single critical indicator forces the terminal level, not blended.
	if hasCritical {
		return domain.RiskCritical
	}
	switch {
	case score < 0.4:
		return domain.RiskLow
	case score < 0.6:
		return domain.RiskMedium
	case score < uc.thresholds.CriticalRiskThreshold:
		return domain.RiskHigh
	default:
		return domain.RiskCritical
	}
}

func (uc *FraudDetectionUseCase) ScoreForDocument(ctx context.Context, documentID, tenantID string) (*domain.FraudRiskScore, error) {
	score, err := uc.scores.GetByDocument(ctx, documentID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("fetch fraud score: %w", err)
	}
	return score, nil
}

// RecordReview applies the one-time manual review and flips the underlying
// document to its terminal status.
func (uc *FraudDetectionUseCase) RecordReview(ctx context.Context, scoreID, tenantID string, review domain.ManualReview) (*domain.FraudRiskScore, error) {
	if review.Decision != domain.DecisionApproved && review.Decision != domain.DecisionRejected {
		return nil, domain.WrapError(domain.ErrInvalidInput, "record review",
			fmt.Errorf("decision %q", review.Decision))
	}

	score, err := uc.scores.GetByID(ctx, scoreID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("fetch fraud score: %w", err)
	}
	if score.Reviewed() {
		return nil, domain.WrapError(domain.ErrReviewAlreadyRecorded, "record review",
			fmt.Errorf("score %s", scoreID))
	}

	reviewedAt := uc.now()
	if err := uc.scores.RecordReview(ctx, scoreID, tenantID, review, reviewedAt); err != nil {
		return nil, fmt.Errorf("record review: %w", err)
	}

	status := domain.StatusVerified
	if review.Decision == domain.DecisionRejected {
		status = domain.StatusRejected
	}
	if err := uc.docs.UpdateStatus(ctx, score.DocumentID, tenantID, status, nil); err != nil {
		return nil, fmt.Errorf("advance document status: %w", err)
	}

	score.Decision = review.Decision
	score.DecisionReason = review.Reason
	score.ReviewNotes = review.Notes
	score.ReviewerID = review.ReviewerID
	score.ReviewedAt = &reviewedAt
	return score, nil
}
