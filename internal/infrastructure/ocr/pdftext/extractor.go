// Package pdftext reads the embedded text layer of digitally produced PDFs.
// Lease agreements and payslips are usually generated, not scanned, so the
// text layer is both faster and more accurate than sending them to OCR.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/nyumbani/idverify/internal/core/domain"
	"github.com/nyumbani/idverify/internal/core/ports"
)

// minTextBytes is the smallest text layer worth trusting. Below this the PDF
// is almost certainly a scan and belongs with the OCR provider.
const minTextBytes = 64

const textLayerConfidence = 0.98

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Supports(mimeType string) bool {
	return strings.EqualFold(strings.TrimSpace(mimeType), "application/pdf")
}

// HasTextLayer reports whether the PDF carries enough embedded text to skip
// OCR entirely.
func (e *Extractor) HasTextLayer(data []byte) bool {
	text, _, err := readTextLayer(data)
	return err == nil && len(strings.TrimSpace(text)) >= minTextBytes
}

func (e *Extractor) ExtractText(_ context.Context, data []byte, mimeType string, _ ports.ExtractionOptions) (*ports.OCRPayload, error) {
	if !e.Supports(mimeType) {
		return nil, fmt.Errorf("pdftext: unsupported mime type %q", mimeType)
	}
	text, pages, err := readTextLayer(data)
	if err != nil {
		return nil, fmt.Errorf("read pdf text layer: %w", err)
	}
	text = strings.TrimSpace(text)
	if len(text) < minTextBytes {
		return nil, fmt.Errorf("pdftext: no usable text layer")
	}

	return &ports.OCRPayload{
		RawText:    text,
		Fields:     parseLabeledFields(text),
		Confidence: textLayerConfidence,
		Language:   "",
		PageCount:  pages,
	}, nil
}

func readTextLayer(data []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", 0, err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", 0, err
	}
	return buf.String(), reader.NumPage(), nil
}

// fieldLabels maps the labels generated documents actually print to the
// field names the pipeline consumes.
var fieldLabels = map[string]domain.FieldName{
	"full name":         domain.FieldFullName,
	"name":              domain.FieldFullName,
	"tenant name":       domain.FieldFullName,
	"date of birth":     domain.FieldDateOfBirth,
	"id number":         domain.FieldIDNumber,
	"national id":       domain.FieldIDNumber,
	"passport number":   domain.FieldIDNumber,
	"address":           domain.FieldAddressLine1,
	"city":              domain.FieldCity,
	"postal code":       domain.FieldPostalCode,
	"phone":             domain.FieldPhoneNumber,
	"phone number":      domain.FieldPhoneNumber,
	"email":             domain.FieldEmail,
	"employer":          domain.FieldEmployerName,
	"employer name":     domain.FieldEmployerName,
	"job title":         domain.FieldJobTitle,
	"monthly income":    domain.FieldMonthlyIncome,
	"gross income":      domain.FieldMonthlyIncome,
	"lease start":       domain.FieldLeaseStartDate,
	"lease start date":  domain.FieldLeaseStartDate,
	"commencement date": domain.FieldLeaseStartDate,
	"lease end":         domain.FieldLeaseEndDate,
	"lease end date":    domain.FieldLeaseEndDate,
	"expiry date":       domain.FieldExpiryDate,
	"landlord":          domain.FieldLandlordName,
	"landlord name":     domain.FieldLandlordName,
	"monthly rent":      domain.FieldMonthlyRent,
	"rent":              domain.FieldMonthlyRent,
}

// parseLabeledFields pulls "Label: value" pairs out of generated documents.
// The first occurrence of each field wins.
func parseLabeledFields(text string) domain.FieldSet {
	var fields domain.FieldSet
	seen := make(map[domain.FieldName]bool)

	for _, line := range strings.Split(text, "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		name, ok := fieldLabels[strings.ToLower(strings.TrimSpace(label))]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		fields = append(fields, domain.ExtractedField{
			Name:       name,
			Value:      value,
			Confidence: textLayerConfidence,
		})
	}
	return fields
}
