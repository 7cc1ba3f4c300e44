// Package ocr composes the extraction backends into the single provider the
// pipeline talks to.
package ocr

import (
	"context"
	"strings"

	"github.com/nyumbani/idverify/internal/core/ports"
	"github.com/nyumbani/idverify/internal/infrastructure/ocr/pdftext"
)

// CompositeProvider routes PDFs with a usable text layer to the local text
// extractor and everything else to the remote OCR service. A text-layer
// failure falls through to the remote service rather than failing the run.
type CompositeProvider struct {
	pdf    *pdftext.Extractor
	remote ports.OCRProvider
}

func NewCompositeProvider(pdf *pdftext.Extractor, remote ports.OCRProvider) *CompositeProvider {
	return &CompositeProvider{pdf: pdf, remote: remote}
}

func (p *CompositeProvider) Supports(mimeType string) bool {
	if p.remote != nil && p.remote.Supports(mimeType) {
		return true
	}
	return p.pdf != nil && p.pdf.Supports(mimeType)
}

func (p *CompositeProvider) ExtractText(ctx context.Context, data []byte, mimeType string, opts ports.ExtractionOptions) (*ports.OCRPayload, error) {
	isPDF := strings.EqualFold(strings.TrimSpace(mimeType), "application/pdf")
	if isPDF && p.pdf != nil && p.pdf.HasTextLayer(data) {
		payload, err := p.pdf.ExtractText(ctx, data, mimeType, opts)
		if err == nil {
			return payload, nil
		}
	}
	return p.remote.ExtractText(ctx, data, mimeType, opts)
}
