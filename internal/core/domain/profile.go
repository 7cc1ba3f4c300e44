package domain

import "time"

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationPartial  VerificationStatus = "partial"
	VerificationComplete VerificationStatus = "complete"
)

// IDNumber is one government-issued identifier attached to a profile.
// Entries are append-only; a verified entry is never overwritten by a merge.
type IDNumber struct {
	Type       DocumentType `json:"type"`
	Number     string       `json:"number"`
	IssuedDate *time.Time   `json:"issued_date,omitempty"`
	ExpiryDate *time.Time   `json:"expiry_date,omitempty"`
	Verified   bool         `json:"verified"`
}

type Address struct {
	Line1            string `json:"line1"`
	Line2            string `json:"line2,omitempty"`
	City             string `json:"city"`
	PostalCode       string `json:"postal_code,omitempty"`
	Country          string `json:"country,omitempty"`
	SourceDocumentID string `json:"source_document_id,omitempty"`
}

type ContactInfo struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type Employment struct {
	Employer      string  `json:"employer,omitempty"`
	JobTitle      string  `json:"job_title,omitempty"`
	MonthlyIncome float64 `json:"monthly_income,omitempty"`
}

// FieldOrigin records which document supplied a scalar profile field and at
// what confidence. The merge rules consult it before overwriting.
type FieldOrigin struct {
	DocumentID string    `json:"document_id"`
	Confidence float64   `json:"confidence"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// TenantIdentityProfile is the canonical merged identity for one customer.
// Exactly one profile exists per (tenant, customer). Merges produce new
// values; the stored record is replaced wholesale under a per-customer lock.
type TenantIdentityProfile struct {
	ID            string             `json:"id"`
	TenantID      string             `json:"tenant_id"`
	CustomerID    string             `json:"customer_id"`
	FirstName     string             `json:"first_name,omitempty"`
	MiddleName    string             `json:"middle_name,omitempty"`
	LastName      string             `json:"last_name,omitempty"`
	DateOfBirth   *time.Time         `json:"date_of_birth,omitempty"`
	Nationality   string             `json:"nationality,omitempty"`
	Gender        string             `json:"gender,omitempty"`
	IDNumbers     []IDNumber         `json:"id_numbers"`
	Addresses     []Address          `json:"addresses"`
	Contact       ContactInfo        `json:"contact"`
	Employment    Employment         `json:"employment"`
	PhotoOnFile   bool               `json:"photo_on_file"`
	Provenance    map[FieldName]FieldOrigin `json:"provenance"`
	Completeness  int                `json:"completeness_score"`
	Verification  VerificationStatus `json:"verification_status"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// FullName returns the displayable merged name.
func (p *TenantIdentityProfile) FullName() string {
	switch {
	case p.FirstName == "" && p.LastName == "":
		return ""
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}

// HasIDNumber reports whether an entry with the same type and number exists.
func (p *TenantIdentityProfile) HasIDNumber(idType DocumentType, number string) bool {
	for _, id := range p.IDNumbers {
		if id.Type == idType && id.Number == number {
			return true
		}
	}
	return false
}

// IDNumberByType returns the first ID entry of the given type.
func (p *TenantIdentityProfile) IDNumberByType(idType DocumentType) (IDNumber, bool) {
	for _, id := range p.IDNumbers {
		if id.Type == idType {
			return id, true
		}
	}
	return IDNumber{}, false
}

// Completeness section weights. The score is a pure function of profile
// contents; CompletenessScore is the only writer of Completeness.
const (
	weightName       = 20
	weightDOB        = 10
	weightIDNumbers  = 25
	weightAddresses  = 15
	weightContact    = 15
	weightEmployment = 10
	weightPhoto      = 5
)

// CompletenessScore computes the deterministic weighted sum over present
// profile sections (total 100).
func (p *TenantIdentityProfile) CompletenessScore() int {
	score := 0
	if p.FirstName != "" && p.LastName != "" {
		score += weightName
	}
	if p.DateOfBirth != nil {
		score += weightDOB
	}
	if len(p.IDNumbers) > 0 {
		score += weightIDNumbers
	}
	if len(p.Addresses) > 0 {
		score += weightAddresses
	}
	if p.Contact.Phone != "" || p.Contact.Email != "" {
		score += weightContact
	}
	if p.Employment.Employer != "" {
		score += weightEmployment
	}
	if p.PhotoOnFile {
		score += weightPhoto
	}
	return score
}

// VerificationFromScore maps a completeness score onto the profile's
// verification status.
func VerificationFromScore(score int) VerificationStatus {
	switch {
	case score >= 80:
		return VerificationComplete
	case score >= 50:
		return VerificationPartial
	default:
		return VerificationPending
	}
}
