package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded         DocumentStatus = "uploaded"
	StatusValidating       DocumentStatus = "validating"
	StatusOCRCompleted     DocumentStatus = "ocr_completed"
	StatusFraudCheck       DocumentStatus = "fraud_check"
	StatusVerified         DocumentStatus = "verified"
	StatusRejected         DocumentStatus = "rejected"
	StatusRequiresReupload DocumentStatus = "requires_reupload"
)

type DocumentType string

const (
	DocTypeNationalID       DocumentType = "national_id"
	DocTypePassport         DocumentType = "passport"
	DocTypeDriversLicense   DocumentType = "drivers_license"
	DocTypeLeaseAgreement   DocumentType = "lease_agreement"
	DocTypeUtilityBill      DocumentType = "utility_bill"
	DocTypeBankStatement    DocumentType = "bank_statement"
	DocTypePayslip          DocumentType = "payslip"
	DocTypeEmploymentLetter DocumentType = "employment_letter"
	DocTypePhoto            DocumentType = "photo"
)

// IsIdentityDocument reports whether the type carries a government-issued
// identity number.
func (t DocumentType) IsIdentityDocument() bool {
	switch t {
	case DocTypeNationalID, DocTypePassport, DocTypeDriversLicense:
		return true
	default:
		return false
	}
}

// IsAddressDocument reports whether the type is accepted as proof of address.
func (t DocumentType) IsAddressDocument() bool {
	switch t {
	case DocTypeUtilityBill, DocTypeBankStatement, DocTypeLeaseAgreement:
		return true
	default:
		return false
	}
}

// DocumentMetadata holds upload-time facts about the source file. Dates come
// from the uploader or an out-of-band metadata pass, not from OCR.
type DocumentMetadata struct {
	IssuedDate *time.Time `json:"issued_date,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreateDate *time.Time `json:"create_date,omitempty"`
	ModifyDate *time.Time `json:"modify_date,omitempty"`
	Software   string     `json:"software,omitempty"`
}

type DocumentUpload struct {
	ID          string           `json:"id"`
	TenantID    string           `json:"tenant_id"`
	CustomerID  string           `json:"customer_id"`
	Type        DocumentType     `json:"document_type"`
	Filename    string           `json:"filename"`
	MimeType    string           `json:"mime_type"`
	FileSize    int64            `json:"file_size"`
	Checksum    string           `json:"checksum"`
	StorageKey  string           `json:"storage_key"`
	Status      DocumentStatus   `json:"status"`
	Metadata    DocumentMetadata `json:"metadata"`
	ProcessedAt *time.Time       `json:"processed_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
