package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/nyumbani/idverify/internal/core/domain"
)

var editingSoftwareSignatures = []string{
	"photoshop",
	"gimp",
	"lightroom",
	"affinity",
	"pixelmator",
	"canva",
}

// checkMetadata flags size and file-metadata anomalies.
func (uc *FraudDetectionUseCase) checkMetadata(doc *domain.DocumentUpload) []domain.FraudIndicator {
	var indicators []domain.FraudIndicator

	if doc.FileSize == 0 {
		indicators = append(indicators, domain.FraudIndicator{
			Type:           domain.IndicatorMetadataAnomaly,
			Severity:       domain.SeverityCritical,
			Confidence:     1.0,
			Evidence:       "file is zero bytes",
			Recommendation: "request re-upload of the document",
		})
	}

	if doc.Type.IsIdentityDocument() && doc.FileSize > 0 && doc.FileSize < uc.thresholds.MinIDScanBytes {
		indicators = append(indicators, domain.FraudIndicator{
			Type:           domain.IndicatorMetadataAnomaly,
			Severity:       domain.SeverityMedium,
			Confidence:     0.7,
			Evidence:       fmt.Sprintf("identity scan is abnormally small (%d bytes)", doc.FileSize),
			Recommendation: "request a higher-resolution scan",
		})
	}

	if doc.FileSize > uc.thresholds.MaxFileBytes {
		indicators = append(indicators, domain.FraudIndicator{
			Type:           domain.IndicatorMetadataAnomaly,
			Severity:       domain.SeverityLow,
			Confidence:     0.6,
			Evidence:       fmt.Sprintf("file is abnormally large (%d bytes)", doc.FileSize),
			Recommendation: "confirm the upload is a single document",
		})
	}

	if software := strings.ToLower(doc.Metadata.Software); software != "" {
		for _, sig := range editingSoftwareSignatures {
			if strings.Contains(software, sig) {
				indicators = append(indicators, domain.FraudIndicator{
					Type:           domain.IndicatorMetadataAnomaly,
					Severity:       domain.SeverityHigh,
					Confidence:     0.85,
					Evidence:       fmt.Sprintf("editing software signature in file metadata: %s", doc.Metadata.Software),
					Recommendation: "inspect the document for manipulation",
				})
				break
			}
		}
	}

	if doc.Metadata.CreateDate != nil && doc.Metadata.ModifyDate != nil {
		if doc.Metadata.ModifyDate.Sub(*doc.Metadata.CreateDate) > 24*time.Hour {
			indicators = append(indicators, domain.FraudIndicator{
				Type:           domain.IndicatorMetadataAnomaly,
				Severity:       domain.SeverityMedium,
				Confidence:     0.7,
				Evidence:       "file modified more than a day after creation",
				Recommendation: "verify the document against the issuing source",
			})
		}
	}

	return indicators
}

// checkFileIntegrity compares leading magic bytes against the claimed MIME type.
func (uc *FraudDetectionUseCase) checkFileIntegrity(doc *domain.DocumentUpload, data []byte) []domain.FraudIndicator {
	if len(data) == 0 {
		return nil
	}
	match, known := matchesMagicBytes(doc.MimeType, data)
	if !known || match {
		return nil
	}
	return []domain.FraudIndicator{{
		Type:           domain.IndicatorSuspiciousFormat,
		Severity:       domain.SeverityCritical,
		Confidence:     0.95,
		Evidence:       fmt.Sprintf("file content does not match claimed type %s", doc.MimeType),
		Recommendation: "reject the document and request the original file",
	}}
}

// checkCrossTenantDuplicate looks for the same content checksum submitted by
// unrelated applicants. Evidence is redacted to the match count and a
// checksum prefix; no other tenant's identifiers leak into the indicator.
func (uc *FraudDetectionUseCase) checkCrossTenantDuplicate(ctx context.Context, doc *domain.DocumentUpload) ([]domain.FraudIndicator, error) {
	if doc.Checksum == "" {
		return nil, nil
	}
	prior, err := uc.scores.FindByChecksum(ctx, doc.Checksum)
	if err != nil {
		return nil, fmt.Errorf("checksum lookup: %w", err)
	}

	matches := 0
	for _, p := range prior {
		if p.DocumentID == doc.ID {
			continue
		}
		if p.TenantID == doc.TenantID && p.CustomerID == doc.CustomerID {
			continue
		}
		matches++
	}
	if matches == 0 {
		return nil, nil
	}

	severity := domain.SeverityHigh
	confidence := 0.85
	if matches > 2 {
		severity = domain.SeverityCritical
		confidence = 0.9
	}
	return []domain.FraudIndicator{{
		Type:           domain.IndicatorCrossTenantDup,
		Severity:       severity,
		Confidence:     confidence,
		Evidence:       fmt.Sprintf("content checksum %s matched %d prior submissions by unrelated applicants", checksumPrefix(doc.Checksum), matches),
		Recommendation: "escalate for cross-application fraud review",
	}}, nil
}

func checksumPrefix(checksum string) string {
	if len(checksum) <= 8 {
		return checksum
	}
	return checksum[:8] + "…"
}

// checkFormat requires the file extension to belong to the expected set for
// the claimed MIME type.
func (uc *FraudDetectionUseCase) checkFormat(doc *domain.DocumentUpload) []domain.FraudIndicator {
	expected, ok := extensionsByMime[doc.MimeType]
	if !ok {
		return nil
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(doc.Filename), "."))
	if ext == "" {
		return nil
	}
	for _, e := range expected {
		if e == ext {
			return nil
		}
	}
	return []domain.FraudIndicator{{
		Type:           domain.IndicatorFormatAnomaly,
		Severity:       domain.SeverityMedium,
		Confidence:     0.8,
		Evidence:       fmt.Sprintf("extension .%s does not belong to %s", ext, doc.MimeType),
		Recommendation: "confirm the file was not renamed",
	}}
}

// checkDates validates issue/expiry dates from document metadata.
func (uc *FraudDetectionUseCase) checkDates(doc *domain.DocumentUpload, now time.Time) []domain.FraudIndicator {
	var indicators []domain.FraudIndicator
	issued := doc.Metadata.IssuedDate
	expires := doc.Metadata.ExpiresAt

	if issued != nil && expires != nil && !expires.After(*issued) {
		indicators = append(indicators, domain.FraudIndicator{
			Type:           domain.IndicatorDateInconsistency,
			Severity:       domain.SeverityHigh,
			Confidence:     0.9,
			Evidence:       fmt.Sprintf("expiry %s is not after issue date %s", expires.Format("2006-01-02"), issued.Format("2006-01-02")),
			Recommendation: "verify the document dates against the issuing source",
		})
	}

	if expires != nil && expires.Before(now) {
		indicators = append(indicators, domain.FraudIndicator{
			Type:           domain.IndicatorDateInconsistency,
			Severity:       domain.SeverityHigh,
			Confidence:     0.85,
			Evidence:       fmt.Sprintf("document expired on %s", expires.Format("2006-01-02")),
			Recommendation: "request a current document",
		})
	}

	if issued != nil && issued.After(now) {
		indicators = append(indicators, domain.FraudIndicator{
			Type:           domain.IndicatorDateInconsistency,
			Severity:       domain.SeverityCritical,
			Confidence:     0.9,
			Evidence:       fmt.Sprintf("issue date %s is in the future", issued.Format("2006-01-02")),
			Recommendation: "reject the document",
		})
	}

	return indicators
}

// checkImage delegates tamper and duplicated-region detection to the external
// analyzer. Analyzer failures degrade to no signal; they never abort the run.
func (uc *FraudDetectionUseCase) checkImage(ctx context.Context, doc *domain.DocumentUpload, data []byte) []domain.FraudIndicator {
	if uc.imaging == nil || !strings.HasPrefix(doc.MimeType, "image/") {
		return nil
	}

	var indicators []domain.FraudIndicator

	if report, err := uc.imaging.AnalyzeIntegrity(ctx, data, doc.MimeType); err == nil && report != nil && report.Tampered {
		indicators = append(indicators, domain.FraudIndicator{
			Type:           domain.IndicatorImageTampering,
			Severity:       domain.SeverityHigh,
			Confidence:     report.Confidence,
			Evidence:       report.Details,
			Recommendation: "inspect the image for manipulation",
		})
	}

	if report, err := uc.imaging.DetectDuplicateRegions(ctx, data); err == nil && report != nil && report.RegionsFound > 0 {
		indicators = append(indicators, domain.FraudIndicator{
			Type:           domain.IndicatorDuplicatedRegion,
			Severity:       domain.SeverityHigh,
			Confidence:     report.Confidence,
			Evidence:       fmt.Sprintf("%d duplicated regions: %s", report.RegionsFound, report.Details),
			Recommendation: "inspect the image for copy-paste forgery",
		})
	}

	return indicators
}
