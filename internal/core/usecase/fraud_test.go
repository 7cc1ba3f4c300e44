package usecase

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/nyumbani/idverify/internal/core/domain"
	"github.com/nyumbani/idverify/internal/core/ports"
)

func newFraudUseCase(docs *fakeDocumentRepo, scores *fakeScoreRepo, storage *fakeStorage, opts FraudOptions) *FraudDetectionUseCase {
	return NewFraudDetectionUseCase(docs, scores, storage, DefaultThresholds(), opts)
}

func TestAnalyzeCleanDocumentAutoApproves(t *testing.T) {
	doc := testDocument()
	doc.Status = domain.StatusOCRCompleted
	docs := newFakeDocumentRepo(doc)
	scores := &fakeScoreRepo{}
	storage := &fakeStorage{data: map[string][]byte{"doc-1.pdf": []byte("%PDF-1.4 clean")}}

	uc := newFraudUseCase(docs, scores, storage, FraudOptions{})
	score, err := uc.AnalyzeDocument(context.Background(), "doc-1", "tenant-1")
	if err != nil {
		t.Fatalf("AnalyzeDocument() error = %v", err)
	}
	if len(score.Indicators) != 0 {
		t.Fatalf("indicators = %+v, want none", score.Indicators)
	}
	if score.RiskLevel != domain.RiskLow || score.Score != 0 {
		t.Fatalf("risk = %s score = %f, want low/0", score.RiskLevel, score.Score)
	}
	if score.Decision != domain.DecisionApproved || score.DecisionReason != "Automated approval - low risk" {
		t.Fatalf("decision = %s reason = %q", score.Decision, score.DecisionReason)
	}
	if score.ModelConfidence != 0.95 {
		t.Fatalf("model confidence = %f, want 0.95", score.ModelConfidence)
	}
	if score.ReviewRequired {
		t.Fatalf("clean document must not require review")
	}
	if len(docs.statusChanges) != 1 || docs.statusChanges[0].status != domain.StatusFraudCheck {
		t.Fatalf("status changes = %+v, want advance to fraud_check", docs.statusChanges)
	}
}

func TestAnalyzeDoesNotAdvanceFromOtherStatuses(t *testing.T) {
	doc := testDocument()
	doc.Status = domain.StatusUploaded
	docs := newFakeDocumentRepo(doc)
	storage := &fakeStorage{data: map[string][]byte{"doc-1.pdf": []byte("%PDF-1.4")}}

	uc := newFraudUseCase(docs, &fakeScoreRepo{}, storage, FraudOptions{})
	if _, err := uc.AnalyzeDocument(context.Background(), "doc-1", "tenant-1"); err != nil {
		t.Fatalf("AnalyzeDocument() error = %v", err)
	}
	if len(docs.statusChanges) != 0 {
		t.Fatalf("status changes = %+v, want none before OCR completion", docs.statusChanges)
	}
}

func TestAnalyzeMagicByteMismatchIsCritical(t *testing.T) {
	doc := testDocument()
	docs := newFakeDocumentRepo(doc)
	storage := &fakeStorage{data: map[string][]byte{"doc-1.pdf": []byte("GIF89a definitely not a pdf")}}

	uc := newFraudUseCase(docs, &fakeScoreRepo{}, storage, FraudOptions{})
	score, err := uc.AnalyzeDocument(context.Background(), "doc-1", "tenant-1")
	if err != nil {
		t.Fatalf("AnalyzeDocument() error = %v", err)
	}

	var found bool
	for _, ind := range score.Indicators {
		if ind.Type == domain.IndicatorSuspiciousFormat && ind.Severity == domain.SeverityCritical {
			found = true
		}
	}
	if !found {
		t.Fatalf("indicators = %+v, want critical suspicious_format", score.Indicators)
	}
	if score.RiskLevel != domain.RiskCritical {
		t.Fatalf("risk = %s, want critical (hard override)", score.RiskLevel)
	}
	if !score.ReviewRequired {
		t.Fatalf("critical risk must require review")
	}
	if score.Decision != "" {
		t.Fatalf("decision = %s, want no automated decision", score.Decision)
	}
}

func TestAnalyzeSmallIDScanScoresHigh(t *testing.T) {
	doc := testDocument()
	doc.FileSize = 10 * 1024
	docs := newFakeDocumentRepo(doc)
	storage := &fakeStorage{data: map[string][]byte{"doc-1.pdf": []byte("%PDF-1.4")}}

	uc := newFraudUseCase(docs, &fakeScoreRepo{}, storage, FraudOptions{})
	score, err := uc.AnalyzeDocument(context.Background(), "doc-1", "tenant-1")
	if err != nil {
		t.Fatalf("AnalyzeDocument() error = %v", err)
	}
	if len(score.Indicators) != 1 {
		t.Fatalf("indicators = %+v, want exactly the small-scan anomaly", score.Indicators)
	}
	// One medium indicator at 0.7 confidence: 0.7*0.3/0.3 = 0.7.
	if math.Abs(score.Score-0.7) > 1e-9 {
		t.Fatalf("score = %f, want 0.7", score.Score)
	}
	if score.RiskLevel != domain.RiskHigh {
		t.Fatalf("risk = %s, want high", score.RiskLevel)
	}
	if !score.ReviewRequired {
		t.Fatalf("high risk must require review")
	}
}

func TestAnalyzeWeightedScoreBlendsSeverities(t *testing.T) {
	doc := testDocument()
	doc.FileSize = 10 * 1024
	doc.Metadata.Software = "Adobe Photoshop 2025"
	docs := newFakeDocumentRepo(doc)
	storage := &fakeStorage{data: map[string][]byte{"doc-1.pdf": []byte("%PDF-1.4")}}

	uc := newFraudUseCase(docs, &fakeScoreRepo{}, storage, FraudOptions{})
	score, err := uc.AnalyzeDocument(context.Background(), "doc-1", "tenant-1")
	if err != nil {
		t.Fatalf("AnalyzeDocument() error = %v", err)
	}
	// medium 0.7 conf + high 0.85 conf: (0.7*0.3 + 0.85*0.6) / 0.9 = 0.8.
	if math.Abs(score.Score-0.8) > 1e-9 {
		t.Fatalf("score = %f, want 0.8", score.Score)
	}
	expectedConfidence := (0.7 + 0.85) / 2
	if math.Abs(score.ModelConfidence-expectedConfidence) > 1e-9 {
		t.Fatalf("model confidence = %f, want %f", score.ModelConfidence, expectedConfidence)
	}
}

func TestAnalyzeExpiredDocument(t *testing.T) {
	doc := testDocument()
	expired := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	doc.Metadata.ExpiresAt = &expired
	docs := newFakeDocumentRepo(doc)
	storage := &fakeStorage{data: map[string][]byte{"doc-1.pdf": []byte("%PDF-1.4")}}

	uc := newFraudUseCase(docs, &fakeScoreRepo{}, storage, FraudOptions{})
	score, err := uc.AnalyzeDocument(context.Background(), "doc-1", "tenant-1")
	if err != nil {
		t.Fatalf("AnalyzeDocument() error = %v", err)
	}
	var found bool
	for _, ind := range score.Indicators {
		if ind.Type == domain.IndicatorDateInconsistency {
			found = true
		}
	}
	if !found {
		t.Fatalf("indicators = %+v, want date_inconsistency", score.Indicators)
	}
	if !score.ReviewRequired {
		t.Fatalf("expired document must require review")
	}
}

func TestAnalyzeCrossTenantDuplicate(t *testing.T) {
	doc := testDocument()
	docs := newFakeDocumentRepo(doc)
	scores := &fakeScoreRepo{byChecksum: []domain.FraudRiskScore{
		{DocumentID: "other-doc", TenantID: "tenant-2", CustomerID: "cust-99", Checksum: doc.Checksum},
	}}
	storage := &fakeStorage{data: map[string][]byte{"doc-1.pdf": []byte("%PDF-1.4")}}

	uc := newFraudUseCase(docs, scores, storage, FraudOptions{})
	score, err := uc.AnalyzeDocument(context.Background(), "doc-1", "tenant-1")
	if err != nil {
		t.Fatalf("AnalyzeDocument() error = %v", err)
	}
	var dup *domain.FraudIndicator
	for i, ind := range score.Indicators {
		if ind.Type == domain.IndicatorCrossTenantDup {
			dup = &score.Indicators[i]
		}
	}
	if dup == nil {
		t.Fatalf("indicators = %+v, want cross_tenant_duplicate", score.Indicators)
	}
	if dup.Severity != domain.SeverityHigh {
		t.Fatalf("severity = %s, want high for a single match", dup.Severity)
	}
	// Evidence must stay redacted: match count plus checksum prefix only.
	if !strings.Contains(dup.Evidence, "abc123de") || !strings.Contains(dup.Evidence, "1 prior") {
		t.Fatalf("evidence %q missing redacted prefix or count", dup.Evidence)
	}
	if strings.Contains(dup.Evidence, "tenant-2") || strings.Contains(dup.Evidence, "cust-99") {
		t.Fatalf("evidence %q leaks other-tenant identifiers", dup.Evidence)
	}
}

func TestAnalyzeManyDuplicatesEscalateToCritical(t *testing.T) {
	doc := testDocument()
	docs := newFakeDocumentRepo(doc)
	scores := &fakeScoreRepo{byChecksum: []domain.FraudRiskScore{
		{DocumentID: "d1", TenantID: "t2", CustomerID: "c2", Checksum: doc.Checksum},
		{DocumentID: "d2", TenantID: "t3", CustomerID: "c3", Checksum: doc.Checksum},
		{DocumentID: "d3", TenantID: "t4", CustomerID: "c4", Checksum: doc.Checksum},
	}}
	storage := &fakeStorage{data: map[string][]byte{"doc-1.pdf": []byte("%PDF-1.4")}}

	uc := newFraudUseCase(docs, scores, storage, FraudOptions{})
	score, err := uc.AnalyzeDocument(context.Background(), "doc-1", "tenant-1")
	if err != nil {
		t.Fatalf("AnalyzeDocument() error = %v", err)
	}
	if score.RiskLevel != domain.RiskCritical {
		t.Fatalf("risk = %s, want critical for >2 duplicates", score.RiskLevel)
	}
}

func TestAnalyzeSameCustomerResubmissionIsNotDuplicate(t *testing.T) {
	doc := testDocument()
	docs := newFakeDocumentRepo(doc)
	scores := &fakeScoreRepo{byChecksum: []domain.FraudRiskScore{
		{DocumentID: "earlier-doc", TenantID: doc.TenantID, CustomerID: doc.CustomerID, Checksum: doc.Checksum},
	}}
	storage := &fakeStorage{data: map[string][]byte{"doc-1.pdf": []byte("%PDF-1.4")}}

	uc := newFraudUseCase(docs, scores, storage, FraudOptions{})
	score, err := uc.AnalyzeDocument(context.Background(), "doc-1", "tenant-1")
	if err != nil {
		t.Fatalf("AnalyzeDocument() error = %v", err)
	}
	for _, ind := range score.Indicators {
		if ind.Type == domain.IndicatorCrossTenantDup {
			t.Fatalf("same customer resubmission flagged as duplicate: %+v", ind)
		}
	}
}

func TestAnalyzeImageTampering(t *testing.T) {
	doc := testDocument()
	doc.MimeType = "image/jpeg"
	doc.Filename = "id-front.jpg"
	docs := newFakeDocumentRepo(doc)
	storage := &fakeStorage{data: map[string][]byte{"doc-1.pdf": {0xFF, 0xD8, 0xFF, 0xE0, 0x00}}}
	analyzer := &fakeAnalyzer{
		integrity: &ports.IntegrityReport{Tampered: true, Confidence: 0.9, Details: "splicing artifacts"},
	}

	uc := newFraudUseCase(docs, &fakeScoreRepo{}, storage, FraudOptions{ImageAnalyzer: analyzer})
	score, err := uc.AnalyzeDocument(context.Background(), "doc-1", "tenant-1")
	if err != nil {
		t.Fatalf("AnalyzeDocument() error = %v", err)
	}
	var found bool
	for _, ind := range score.Indicators {
		if ind.Type == domain.IndicatorImageTampering {
			found = true
		}
	}
	if !found {
		t.Fatalf("indicators = %+v, want image_tampering", score.Indicators)
	}
}

func TestRecordReviewRejectsInvalidDecision(t *testing.T) {
	uc := newFraudUseCase(newFakeDocumentRepo(), &fakeScoreRepo{}, &fakeStorage{}, FraudOptions{})
	_, err := uc.RecordReview(context.Background(), "score-1", "tenant-1", domain.ManualReview{Decision: "maybe"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestRecordReviewIsOneShot(t *testing.T) {
	reviewed := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	scores := &fakeScoreRepo{byID: map[string]*domain.FraudRiskScore{
		"score-1": {ID: "score-1", DocumentID: "doc-1", ReviewedAt: &reviewed},
	}}
	uc := newFraudUseCase(newFakeDocumentRepo(), scores, &fakeStorage{}, FraudOptions{})
	_, err := uc.RecordReview(context.Background(), "score-1", "tenant-1", domain.ManualReview{Decision: domain.DecisionApproved, ReviewerID: "rev-1"})
	if !domain.IsKind(err, domain.ErrReviewAlreadyRecorded) {
		t.Fatalf("error = %v, want ErrReviewAlreadyRecorded", err)
	}
}

func TestRecordReviewFlipsDocumentStatus(t *testing.T) {
	doc := testDocument()
	doc.Status = domain.StatusFraudCheck
	docs := newFakeDocumentRepo(doc)
	scores := &fakeScoreRepo{byID: map[string]*domain.FraudRiskScore{
		"score-1": {ID: "score-1", DocumentID: "doc-1", TenantID: "tenant-1"},
	}}

	uc := newFraudUseCase(docs, scores, &fakeStorage{}, FraudOptions{})
	score, err := uc.RecordReview(context.Background(), "score-1", "tenant-1", domain.ManualReview{
		Decision:   domain.DecisionRejected,
		Reason:     "suspected forgery",
		ReviewerID: "rev-1",
	})
	if err != nil {
		t.Fatalf("RecordReview() error = %v", err)
	}
	if score.ReviewedAt == nil || score.Decision != domain.DecisionRejected {
		t.Fatalf("review not applied: %+v", score)
	}
	if len(docs.statusChanges) != 1 || docs.statusChanges[0].status != domain.StatusRejected {
		t.Fatalf("status changes = %+v, want rejected", docs.statusChanges)
	}
}
