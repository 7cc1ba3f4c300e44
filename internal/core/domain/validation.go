package domain

import "time"

type CheckType string

const (
	CheckNameMatching         CheckType = "name_matching"
	CheckIDNumberVerification CheckType = "id_number_verification"
	CheckAddressConsistency   CheckType = "address_consistency"
	CheckDateAlignment        CheckType = "date_alignment"
	CheckContactConsistency   CheckType = "contact_consistency"
	CheckDocumentCompleteness CheckType = "document_completeness"
	CheckExternalVerification CheckType = "external_verification"
)

type CheckStatus string

const (
	CheckPassed  CheckStatus = "passed"
	CheckWarning CheckStatus = "warning"
	CheckFailed  CheckStatus = "failed"
	CheckSkipped CheckStatus = "skipped"
)

// ValidationCheck is one cross-document or cross-profile consistency test.
type ValidationCheck struct {
	Type     CheckType   `json:"type"`
	Status   CheckStatus `json:"status"`
	Score    float64     `json:"score"`
	Evidence string      `json:"evidence"`
}

type OverallStatus string

const (
	OverallPassed       OverallStatus = "passed"
	OverallWarning      OverallStatus = "warning"
	OverallFailed       OverallStatus = "failed"
	OverallManualReview OverallStatus = "manual_review"
)

// ValidationResult is one consistency assessment per customer over a document
// set. Results append per run; history stays auditable.
type ValidationResult struct {
	ID                   string            `json:"id"`
	TenantID             string            `json:"tenant_id"`
	CustomerID           string            `json:"customer_id"`
	DocumentIDs          []string          `json:"document_ids"`
	Checks               []ValidationCheck `json:"checks"`
	OverallStatus        OverallStatus     `json:"overall_status"`
	OverallScore         float64           `json:"overall_score"`
	RequiresManualReview bool              `json:"requires_manual_review"`
	Summary              string            `json:"summary"`
	Recommendations      []string          `json:"recommendations"`
	ValidatedAt          time.Time         `json:"validated_at"`
}
