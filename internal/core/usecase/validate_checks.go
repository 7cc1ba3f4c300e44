package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nyumbani/idverify/internal/core/domain"
	"github.com/nyumbani/idverify/internal/core/ports"
)

func portsQuery(profile *domain.TenantIdentityProfile, id domain.IDNumber) ports.VerificationQuery {
	return ports.VerificationQuery{
		IDType:      id.Type,
		IDNumber:    id.Number,
		FullName:    profile.FullName(),
		DateOfBirth: profile.DateOfBirth,
	}
}

// checkNames compares every extracted name pairwise and against the profile.
// Names legitimately vary in transliteration, so a miss is a warning, never a
// failure.
func (uc *ValidateDocumentsUseCase) checkNames(evidence []documentEvidence, profile *domain.TenantIdentityProfile) domain.ValidationCheck {
	var names []string
	for _, ev := range evidence {
		if name := extractedName(ev.fields); name != "" {
			names = append(names, name)
		}
	}
	if profile != nil {
		if name := profile.FullName(); name != "" {
			names = append(names, name)
		}
	}

	if len(names) < 2 {
		return domain.ValidationCheck{
			Type:     domain.CheckNameMatching,
			Status:   domain.CheckSkipped,
			Evidence: "fewer than two names to compare",
		}
	}

	minSim := 1.0
	var simSum float64
	var pairs int
	var worstA, worstB string
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			sim := nameSimilarity(names[i], names[j])
			simSum += sim
			pairs++
			if sim < minSim {
				minSim = sim
				worstA, worstB = names[i], names[j]
			}
		}
	}
	avg := simSum / float64(pairs)

	if minSim < uc.thresholds.NameMatchThreshold {
		return domain.ValidationCheck{
			Type:     domain.CheckNameMatching,
			Status:   domain.CheckWarning,
			Score:    minSim,
			Evidence: fmt.Sprintf("%q and %q similarity %.2f below threshold %.2f", worstA, worstB, minSim, uc.thresholds.NameMatchThreshold),
		}
	}
	return domain.ValidationCheck{
		Type:     domain.CheckNameMatching,
		Status:   domain.CheckPassed,
		Score:    avg,
		Evidence: fmt.Sprintf("%d name pair(s) matched at or above %.2f", pairs, uc.thresholds.NameMatchThreshold),
	}
}

func extractedName(fields domain.FieldSet) string {
	if full := strings.TrimSpace(fields.Value(domain.FieldFullName)); full != "" {
		return full
	}
	first := strings.TrimSpace(fields.Value(domain.FieldFirstName))
	last := strings.TrimSpace(fields.Value(domain.FieldLastName))
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	default:
		return last
	}
}

var idNumberFormats = map[domain.DocumentType]*regexp.Regexp{
	domain.DocTypeNationalID:     regexp.MustCompile(`^\d{6,10}$`),
	domain.DocTypePassport:       regexp.MustCompile(`^[A-Z]{1,2}\d{6,7}$`),
	domain.DocTypeDriversLicense: regexp.MustCompile(`^[A-Z0-9]{5,12}$`),
}

// checkIDNumbers validates extracted ID-number formats and cross-checks them
// against the profile. Unlike names, a number either matches or it signals
// fraud or data error, so mismatches fail.
func (uc *ValidateDocumentsUseCase) checkIDNumbers(evidence []documentEvidence, profile *domain.TenantIdentityProfile) domain.ValidationCheck {
	var problems []string
	var checked int

	for _, ev := range evidence {
		if !ev.doc.Type.IsIdentityDocument() {
			continue
		}
		number := strings.TrimSpace(ev.fields.Value(domain.FieldIDNumber))
		if number == "" {
			continue
		}
		checked++

		if format, ok := idNumberFormats[ev.doc.Type]; ok && !format.MatchString(strings.ToUpper(number)) {
			problems = append(problems, fmt.Sprintf("%s number %q does not match the expected format", ev.doc.Type, number))
			continue
		}

		if profile != nil {
			if known, ok := profile.IDNumberByType(ev.doc.Type); ok && known.Number != number {
				problems = append(problems, fmt.Sprintf("%s number differs from the profile record", ev.doc.Type))
			}
		}
	}

	if checked == 0 {
		return domain.ValidationCheck{
			Type:     domain.CheckIDNumberVerification,
			Status:   domain.CheckSkipped,
			Evidence: "no identity documents with an extracted ID number",
		}
	}
	if len(problems) > 0 {
		return domain.ValidationCheck{
			Type:     domain.CheckIDNumberVerification,
			Status:   domain.CheckFailed,
			Evidence: strings.Join(problems, "; "),
		}
	}
	return domain.ValidationCheck{
		Type:     domain.CheckIDNumberVerification,
		Status:   domain.CheckPassed,
		Score:    1,
		Evidence: fmt.Sprintf("%d ID number(s) valid and consistent", checked),
	}
}

const addressOverlapThreshold = 0.5

// checkAddresses compares address-bearing documents by naive token overlap.
// Formatting differences are common and low-stakes, so disagreement warns.
func (uc *ValidateDocumentsUseCase) checkAddresses(evidence []documentEvidence) domain.ValidationCheck {
	var addresses []string
	for _, ev := range evidence {
		if !ev.doc.Type.IsAddressDocument() {
			continue
		}
		parts := []string{
			ev.fields.Value(domain.FieldAddressLine1),
			ev.fields.Value(domain.FieldAddressLine2),
			ev.fields.Value(domain.FieldCity),
			ev.fields.Value(domain.FieldPostalCode),
		}
		addr := strings.TrimSpace(strings.Join(parts, " "))
		if addr != "" {
			addresses = append(addresses, addr)
		}
	}

	if len(addresses) < 2 {
		return domain.ValidationCheck{
			Type:     domain.CheckAddressConsistency,
			Status:   domain.CheckSkipped,
			Evidence: "fewer than two addresses to compare",
		}
	}

	minOverlap := 1.0
	var overlapSum float64
	var pairs int
	for i := 0; i < len(addresses); i++ {
		for j := i + 1; j < len(addresses); j++ {
			ov := tokenOverlap(addresses[i], addresses[j])
			overlapSum += ov
			pairs++
			if ov < minOverlap {
				minOverlap = ov
			}
		}
	}

	if minOverlap < addressOverlapThreshold {
		return domain.ValidationCheck{
			Type:     domain.CheckAddressConsistency,
			Status:   domain.CheckWarning,
			Score:    minOverlap,
			Evidence: fmt.Sprintf("address token overlap %.2f below %.2f across %d pair(s)", minOverlap, addressOverlapThreshold, pairs),
		}
	}
	return domain.ValidationCheck{
		Type:     domain.CheckAddressConsistency,
		Status:   domain.CheckPassed,
		Score:    overlapSum / float64(pairs),
		Evidence: fmt.Sprintf("%d address pair(s) consistent", pairs),
	}
}

// checkDateAlignment verifies lease date ordering and ID validity windows.
func (uc *ValidateDocumentsUseCase) checkDateAlignment(evidence []documentEvidence, now time.Time) domain.ValidationCheck {
	var failures, warnings []string
	var examined int

	for _, ev := range evidence {
		if ev.doc.Type == domain.DocTypeLeaseAgreement {
			start := parseDate(ev.fields.Value(domain.FieldLeaseStartDate))
			end := parseDate(ev.fields.Value(domain.FieldLeaseEndDate))
			if start != nil && end != nil {
				examined++
				if !end.After(*start) {
					failures = append(failures, fmt.Sprintf("lease end %s is not after start %s", end.Format("2006-01-02"), start.Format("2006-01-02")))
				}
			}
		}

		if ev.doc.Type.IsIdentityDocument() && ev.doc.Metadata.ExpiresAt != nil {
			examined++
			expires := *ev.doc.Metadata.ExpiresAt
			remaining := expires.Sub(now)
			switch {
			case remaining <= 0:
				failures = append(failures, fmt.Sprintf("%s expired on %s", ev.doc.Type, expires.Format("2006-01-02")))
			case remaining < time.Duration(uc.thresholds.ExpiryWarningDays)*24*time.Hour:
				warnings = append(warnings, fmt.Sprintf("%s expires within %d days", ev.doc.Type, uc.thresholds.ExpiryWarningDays))
			}
		}
	}

	switch {
	case examined == 0:
		return domain.ValidationCheck{
			Type:     domain.CheckDateAlignment,
			Status:   domain.CheckSkipped,
			Evidence: "no dated documents to examine",
		}
	case len(failures) > 0:
		return domain.ValidationCheck{
			Type:     domain.CheckDateAlignment,
			Status:   domain.CheckFailed,
			Evidence: strings.Join(failures, "; "),
		}
	case len(warnings) > 0:
		return domain.ValidationCheck{
			Type:     domain.CheckDateAlignment,
			Status:   domain.CheckWarning,
			Score:    0.5,
			Evidence: strings.Join(warnings, "; "),
		}
	default:
		return domain.ValidationCheck{
			Type:     domain.CheckDateAlignment,
			Status:   domain.CheckPassed,
			Score:    1,
			Evidence: fmt.Sprintf("%d dated document(s) aligned", examined),
		}
	}
}

// checkContact requires document-extracted phone/email to appear in the
// profile's contact info.
func (uc *ValidateDocumentsUseCase) checkContact(evidence []documentEvidence, profile *domain.TenantIdentityProfile) domain.ValidationCheck {
	if profile == nil || (profile.Contact.Phone == "" && profile.Contact.Email == "") {
		return domain.ValidationCheck{
			Type:     domain.CheckContactConsistency,
			Status:   domain.CheckSkipped,
			Evidence: "no profile contact info to compare against",
		}
	}

	var mismatches []string
	var compared int
	for _, ev := range evidence {
		if phone := strings.TrimSpace(ev.fields.Value(domain.FieldPhoneNumber)); phone != "" {
			compared++
			if !phoneMatches(phone, profile.Contact.Phone) {
				mismatches = append(mismatches, fmt.Sprintf("phone on %s differs from profile", ev.doc.Type))
			}
		}
		if email := strings.TrimSpace(ev.fields.Value(domain.FieldEmail)); email != "" {
			compared++
			if !strings.Contains(strings.ToLower(profile.Contact.Email), strings.ToLower(email)) {
				mismatches = append(mismatches, fmt.Sprintf("email on %s differs from profile", ev.doc.Type))
			}
		}
	}

	switch {
	case compared == 0:
		return domain.ValidationCheck{
			Type:     domain.CheckContactConsistency,
			Status:   domain.CheckSkipped,
			Evidence: "no contact fields extracted from documents",
		}
	case len(mismatches) > 0:
		return domain.ValidationCheck{
			Type:     domain.CheckContactConsistency,
			Status:   domain.CheckWarning,
			Score:    0.5,
			Evidence: strings.Join(mismatches, "; "),
		}
	default:
		return domain.ValidationCheck{
			Type:     domain.CheckContactConsistency,
			Status:   domain.CheckPassed,
			Score:    1,
			Evidence: fmt.Sprintf("%d contact value(s) consistent with profile", compared),
		}
	}
}

func phoneMatches(a, b string) bool {
	return digitsOnly(a) != "" && strings.Contains(digitsOnly(b), lastDigits(digitsOnly(a), 9))
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func lastDigits(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

var requiredDocumentTypes = []domain.DocumentType{
	domain.DocTypeNationalID,
	domain.DocTypeLeaseAgreement,
}

// checkCompleteness verifies the required document types are present. Missing
// documents block progress without implicating fraud, so absence warns.
func (uc *ValidateDocumentsUseCase) checkCompleteness(evidence []documentEvidence) domain.ValidationCheck {
	present := make(map[domain.DocumentType]bool, len(evidence))
	for _, ev := range evidence {
		present[ev.doc.Type] = true
	}

	var missing []string
	for _, required := range requiredDocumentTypes {
		if !present[required] {
			missing = append(missing, string(required))
		}
	}

	if len(missing) > 0 {
		return domain.ValidationCheck{
			Type:     domain.CheckDocumentCompleteness,
			Status:   domain.CheckWarning,
			Score:    float64(len(requiredDocumentTypes)-len(missing)) / float64(len(requiredDocumentTypes)),
			Evidence: "missing required documents: " + strings.Join(missing, ", "),
		}
	}
	return domain.ValidationCheck{
		Type:     domain.CheckDocumentCompleteness,
		Status:   domain.CheckPassed,
		Score:    1,
		Evidence: "all required document types present",
	}
}

// checkExternal delegates identity confirmation to the registry provider.
// Provider errors degrade to skipped and never block the pipeline.
func (uc *ValidateDocumentsUseCase) checkExternal(ctx context.Context, profile *domain.TenantIdentityProfile) domain.ValidationCheck {
	if uc.verifier == nil {
		return domain.ValidationCheck{
			Type:     domain.CheckExternalVerification,
			Status:   domain.CheckSkipped,
			Evidence: "external verification disabled",
		}
	}
	if profile == nil || len(profile.IDNumbers) == 0 {
		return domain.ValidationCheck{
			Type:     domain.CheckExternalVerification,
			Status:   domain.CheckSkipped,
			Evidence: "no profile ID number to verify",
		}
	}

	id := profile.IDNumbers[0]
	outcome, err := uc.verifier.VerifyIdentity(ctx, portsQuery(profile, id))
	if err != nil {
		return domain.ValidationCheck{
			Type:     domain.CheckExternalVerification,
			Status:   domain.CheckSkipped,
			Evidence: "registry unavailable: " + err.Error(),
		}
	}

	if !outcome.Verified {
		return domain.ValidationCheck{
			Type:     domain.CheckExternalVerification,
			Status:   domain.CheckFailed,
			Evidence: "registry mismatch on: " + strings.Join(outcome.MismatchedFields, ", "),
		}
	}
	return domain.ValidationCheck{
		Type:     domain.CheckExternalVerification,
		Status:   domain.CheckPassed,
		Score:    outcome.Confidence,
		Evidence: "registry confirmed: " + strings.Join(outcome.MatchedFields, ", "),
	}
}
