package domain

import "time"

type ExtractionStatus string

const (
	ExtractionCompleted ExtractionStatus = "completed"
	ExtractionFailed    ExtractionStatus = "failed"
)

// FieldName is the closed set of field keys an extraction may produce.
// Consumers dispatch on field names, never on raw provider strings.
type FieldName string

const (
	FieldFullName       FieldName = "full_name"
	FieldFirstName      FieldName = "first_name"
	FieldLastName       FieldName = "last_name"
	FieldDateOfBirth    FieldName = "date_of_birth"
	FieldNationality    FieldName = "nationality"
	FieldGender         FieldName = "gender"
	FieldIDNumber       FieldName = "id_number"
	FieldIssuedDate     FieldName = "issued_date"
	FieldExpiryDate     FieldName = "expiry_date"
	FieldAddressLine1   FieldName = "address_line1"
	FieldAddressLine2   FieldName = "address_line2"
	FieldCity           FieldName = "city"
	FieldPostalCode     FieldName = "postal_code"
	FieldCountry        FieldName = "country"
	FieldPhoneNumber    FieldName = "phone_number"
	FieldEmail          FieldName = "email"
	FieldEmployerName   FieldName = "employer_name"
	FieldJobTitle       FieldName = "job_title"
	FieldMonthlyIncome  FieldName = "monthly_income"
	FieldLeaseStartDate FieldName = "lease_start_date"
	FieldLeaseEndDate   FieldName = "lease_end_date"
	FieldLandlordName   FieldName = "landlord_name"
	FieldMonthlyRent    FieldName = "monthly_rent"
)

type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ExtractedField is one OCR-derived datum. Immutable once produced;
// re-extraction supersedes, never edits.
type ExtractedField struct {
	Name       FieldName    `json:"name"`
	Value      string       `json:"value"`
	Confidence float64      `json:"confidence"`
	Bounds     *BoundingBox `json:"bounds,omitempty"`
}

// FieldSet is the lookup abstraction over one extraction's fields.
type FieldSet []ExtractedField

// Get returns the first field with the given name.
func (s FieldSet) Get(name FieldName) (ExtractedField, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return ExtractedField{}, false
}

// Value returns the field's trimmed value, or "" when absent.
func (s FieldSet) Value(name FieldName) string {
	f, ok := s.Get(name)
	if !ok {
		return ""
	}
	return f.Value
}

// Has reports whether any of the given names is present with a non-empty value.
func (s FieldSet) Has(names ...FieldName) bool {
	for _, name := range names {
		if f, ok := s.Get(name); ok && f.Value != "" {
			return true
		}
	}
	return false
}

// OCRExtractionResult records one provider run over one document, success or
// failure. History is append-only for replay and audit.
type OCRExtractionResult struct {
	ID           string           `json:"id"`
	DocumentID   string           `json:"document_id"`
	TenantID     string           `json:"tenant_id"`
	RawText      string           `json:"raw_text"`
	Fields       FieldSet         `json:"fields"`
	Confidence   float64          `json:"confidence"`
	Language     string           `json:"language"`
	PageCount    int              `json:"page_count"`
	Status       ExtractionStatus `json:"status"`
	ErrorMessage string           `json:"error_message,omitempty"`
	StartedAt    time.Time        `json:"started_at"`
	CompletedAt  time.Time        `json:"completed_at"`
	DurationMS   int64            `json:"duration_ms"`
}
