package usecase

import (
	"strconv"
	"strings"
	"time"

	"github.com/nyumbani/idverify/internal/core/domain"
)

// mergeExtraction folds one document's extracted fields into a copy of the
// profile and returns the copy. The input profile is never mutated, which
// keeps merges trivially testable and auditable.
//
// Dispatch is by field name: an extraction contributes identity, employment,
// and address data whenever the matching fields are present, regardless of
// the document's declared type.
func mergeExtraction(
	profile *domain.TenantIdentityProfile,
	doc *domain.DocumentUpload,
	fields domain.FieldSet,
	now time.Time,
	th Thresholds,
) *domain.TenantIdentityProfile {
	out := cloneProfile(profile)

	mergeNames(out, doc, fields, th)
	mergeScalar(out, doc, fields, domain.FieldNationality, th, func(p *domain.TenantIdentityProfile, v string) { p.Nationality = v })
	mergeScalar(out, doc, fields, domain.FieldGender, th, func(p *domain.TenantIdentityProfile, v string) { p.Gender = v })
	mergeDateOfBirth(out, doc, fields, th)
	mergeIDNumber(out, doc, fields)
	mergeAddress(out, doc, fields)
	mergeContact(out, doc, fields, th)
	mergeEmployment(out, doc, fields, th)

	if doc.Type == domain.DocTypePhoto {
		out.PhotoOnFile = true
	}

	out.Completeness = out.CompletenessScore()
	out.Verification = domain.VerificationFromScore(out.Completeness)
	out.UpdatedAt = now
	return out
}

func cloneProfile(p *domain.TenantIdentityProfile) *domain.TenantIdentityProfile {
	out := *p
	out.IDNumbers = append([]domain.IDNumber(nil), p.IDNumbers...)
	out.Addresses = append([]domain.Address(nil), p.Addresses...)
	out.Provenance = make(map[domain.FieldName]domain.FieldOrigin, len(p.Provenance))
	for k, v := range p.Provenance {
		out.Provenance[k] = v
	}
	return &out
}

// canOverwrite applies the confidence guard: data set at or above the
// threshold is only replaced by data that also clears it.
func canOverwrite(p *domain.TenantIdentityProfile, name domain.FieldName, newConfidence float64, th Thresholds) bool {
	origin, ok := p.Provenance[name]
	if !ok {
		return true
	}
	if origin.Confidence >= th.ProfileOverwriteConfidence {
		return newConfidence >= th.ProfileOverwriteConfidence
	}
	return true
}

func recordOrigin(p *domain.TenantIdentityProfile, name domain.FieldName, doc *domain.DocumentUpload, confidence float64) {
	p.Provenance[name] = domain.FieldOrigin{
		DocumentID:  doc.ID,
		Confidence:  confidence,
		ExtractedAt: time.Now().UTC(),
	}
}

// mergeNames prefers a confident full_name field split into parts, and falls
// back to separately extracted first/last names.
func mergeNames(p *domain.TenantIdentityProfile, doc *domain.DocumentUpload, fields domain.FieldSet, th Thresholds) {
	if full, ok := fields.Get(domain.FieldFullName); ok && full.Value != "" && full.Confidence > th.ProfileOverwriteConfidence {
		first, middle, last := splitFullName(full.Value)
		if first != "" && canOverwrite(p, domain.FieldFirstName, full.Confidence, th) {
			p.FirstName = first
			recordOrigin(p, domain.FieldFirstName, doc, full.Confidence)
		}
		if last != "" && canOverwrite(p, domain.FieldLastName, full.Confidence, th) {
			p.LastName = last
			recordOrigin(p, domain.FieldLastName, doc, full.Confidence)
		}
		if middle != "" {
			p.MiddleName = middle
		}
		return
	}

	if first, ok := fields.Get(domain.FieldFirstName); ok && first.Value != "" && canOverwrite(p, domain.FieldFirstName, first.Confidence, th) {
		p.FirstName = strings.TrimSpace(first.Value)
		recordOrigin(p, domain.FieldFirstName, doc, first.Confidence)
	}
	if last, ok := fields.Get(domain.FieldLastName); ok && last.Value != "" && canOverwrite(p, domain.FieldLastName, last.Confidence, th) {
		p.LastName = strings.TrimSpace(last.Value)
		recordOrigin(p, domain.FieldLastName, doc, last.Confidence)
	}
}

// splitFullName applies the name-parts heuristic: first token is the first
// name, last token the surname, anything between is middle.
func splitFullName(full string) (first, middle, last string) {
	parts := strings.Fields(strings.TrimSpace(full))
	switch len(parts) {
	case 0:
		return "", "", ""
	case 1:
		return parts[0], "", ""
	case 2:
		return parts[0], "", parts[1]
	default:
		return parts[0], strings.Join(parts[1:len(parts)-1], " "), parts[len(parts)-1]
	}
}

func mergeScalar(
	p *domain.TenantIdentityProfile,
	doc *domain.DocumentUpload,
	fields domain.FieldSet,
	name domain.FieldName,
	th Thresholds,
	set func(*domain.TenantIdentityProfile, string),
) {
	f, ok := fields.Get(name)
	if !ok || strings.TrimSpace(f.Value) == "" {
		return
	}
	if !canOverwrite(p, name, f.Confidence, th) {
		return
	}
	set(p, strings.TrimSpace(f.Value))
	recordOrigin(p, name, doc, f.Confidence)
}

func mergeDateOfBirth(p *domain.TenantIdentityProfile, doc *domain.DocumentUpload, fields domain.FieldSet, th Thresholds) {
	f, ok := fields.Get(domain.FieldDateOfBirth)
	if !ok {
		return
	}
	dob := parseDate(f.Value)
	if dob == nil {
		return
	}
	if !canOverwrite(p, domain.FieldDateOfBirth, f.Confidence, th) {
		return
	}
	p.DateOfBirth = dob
	recordOrigin(p, domain.FieldDateOfBirth, doc, f.Confidence)
}

// mergeIDNumber appends a new (type, number) entry. Existing entries are
// never replaced; a verified entry in particular survives every merge.
func mergeIDNumber(p *domain.TenantIdentityProfile, doc *domain.DocumentUpload, fields domain.FieldSet) {
	if !doc.Type.IsIdentityDocument() {
		return
	}
	number := strings.TrimSpace(fields.Value(domain.FieldIDNumber))
	if number == "" {
		return
	}
	if p.HasIDNumber(doc.Type, number) {
		return
	}
	p.IDNumbers = append(p.IDNumbers, domain.IDNumber{
		Type:       doc.Type,
		Number:     number,
		IssuedDate: parseDate(fields.Value(domain.FieldIssuedDate)),
		ExpiryDate: parseDate(fields.Value(domain.FieldExpiryDate)),
	})
}

// mergeAddress appends a new address, deduplicated by (line1, city).
func mergeAddress(p *domain.TenantIdentityProfile, doc *domain.DocumentUpload, fields domain.FieldSet) {
	line1 := strings.TrimSpace(fields.Value(domain.FieldAddressLine1))
	if line1 == "" {
		return
	}
	city := strings.TrimSpace(fields.Value(domain.FieldCity))
	for _, a := range p.Addresses {
		if strings.EqualFold(a.Line1, line1) && strings.EqualFold(a.City, city) {
			return
		}
	}
	p.Addresses = append(p.Addresses, domain.Address{
		Line1:            line1,
		Line2:            strings.TrimSpace(fields.Value(domain.FieldAddressLine2)),
		City:             city,
		PostalCode:       strings.TrimSpace(fields.Value(domain.FieldPostalCode)),
		Country:          strings.TrimSpace(fields.Value(domain.FieldCountry)),
		SourceDocumentID: doc.ID,
	})
}

func mergeContact(p *domain.TenantIdentityProfile, doc *domain.DocumentUpload, fields domain.FieldSet, th Thresholds) {
	mergeScalar(p, doc, fields, domain.FieldPhoneNumber, th, func(pr *domain.TenantIdentityProfile, v string) { pr.Contact.Phone = v })
	mergeScalar(p, doc, fields, domain.FieldEmail, th, func(pr *domain.TenantIdentityProfile, v string) { pr.Contact.Email = v })
}

func mergeEmployment(p *domain.TenantIdentityProfile, doc *domain.DocumentUpload, fields domain.FieldSet, th Thresholds) {
	mergeScalar(p, doc, fields, domain.FieldEmployerName, th, func(pr *domain.TenantIdentityProfile, v string) { pr.Employment.Employer = v })
	mergeScalar(p, doc, fields, domain.FieldJobTitle, th, func(pr *domain.TenantIdentityProfile, v string) { pr.Employment.JobTitle = v })
	if income, ok := fields.Get(domain.FieldMonthlyIncome); ok {
		if v := parseAmount(income.Value); v > 0 && canOverwrite(p, domain.FieldMonthlyIncome, income.Confidence, th) {
			p.Employment.MonthlyIncome = v
			recordOrigin(p, domain.FieldMonthlyIncome, doc, income.Confidence)
		}
	}
}

// parseAmount strips currency symbols and separators before parsing.
func parseAmount(value string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.':
			return r
		default:
			return -1
		}
	}, value)
	if cleaned == "" {
		return 0
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return amount
}
