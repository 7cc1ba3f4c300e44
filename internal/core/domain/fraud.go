package domain

import "time"

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Weight is the contribution of one indicator of this severity to the
// confidence-weighted document score.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityCritical:
		return 1.0
	case SeverityHigh:
		return 0.6
	case SeverityMedium:
		return 0.3
	default:
		return 0.1
	}
}

type IndicatorType string

const (
	IndicatorMetadataAnomaly     IndicatorType = "metadata_anomaly"
	IndicatorSuspiciousFormat    IndicatorType = "suspicious_format"
	IndicatorFormatAnomaly       IndicatorType = "format_anomaly"
	IndicatorCrossTenantDup      IndicatorType = "cross_tenant_duplicate"
	IndicatorDateInconsistency   IndicatorType = "date_inconsistency"
	IndicatorImageTampering      IndicatorType = "image_tampering"
	IndicatorDuplicatedRegion    IndicatorType = "duplicated_region"
)

// FraudIndicator is one discrete fraud signal with its evidence.
type FraudIndicator struct {
	Type           IndicatorType `json:"type"`
	Severity       Severity      `json:"severity"`
	Confidence     float64       `json:"confidence"`
	Evidence       string        `json:"evidence"`
	Recommendation string        `json:"recommendation"`
}

type ReviewDecision string

const (
	DecisionApproved ReviewDecision = "approved"
	DecisionRejected ReviewDecision = "rejected"
)

// ManualReview is the one-time reviewer write on a fraud score.
type ManualReview struct {
	Decision   ReviewDecision `json:"decision"`
	Reason     string         `json:"reason"`
	Notes      string         `json:"notes,omitempty"`
	ReviewerID string         `json:"reviewer_id"`
}

// FraudRiskScore is one risk assessment per document. Immutable once created
// except for the review fields, which are set exactly once.
type FraudRiskScore struct {
	ID              string           `json:"id"`
	DocumentID      string           `json:"document_id"`
	TenantID        string           `json:"tenant_id"`
	CustomerID      string           `json:"customer_id"`
	Checksum        string           `json:"checksum"`
	Indicators      []FraudIndicator `json:"indicators"`
	Score           float64          `json:"score"`
	RiskLevel       RiskLevel        `json:"risk_level"`
	ModelConfidence float64          `json:"model_confidence"`
	ReviewRequired  bool             `json:"review_required"`
	Decision        ReviewDecision   `json:"decision,omitempty"`
	DecisionReason  string           `json:"decision_reason,omitempty"`
	ReviewNotes     string           `json:"review_notes,omitempty"`
	ReviewerID      string           `json:"reviewer_id,omitempty"`
	ReviewedAt      *time.Time       `json:"reviewed_at,omitempty"`
	AnalyzedAt      time.Time        `json:"analyzed_at"`
}

// Reviewed reports whether a manual review has already been recorded.
func (s *FraudRiskScore) Reviewed() bool {
	return s.ReviewedAt != nil
}
