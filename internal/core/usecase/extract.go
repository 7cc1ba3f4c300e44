package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nyumbani/idverify/internal/core/domain"
	"github.com/nyumbani/idverify/internal/core/ports"
)

// ExtractDocumentUseCase orchestrates one OCR run over one document: download
// bytes, drive the provider, persist the run, and advance document status.
type ExtractDocumentUseCase struct {
	docs        ports.DocumentRepository
	extractions ports.ExtractionRepository
	storage     ports.ObjectStorage
	provider    ports.OCRProvider
	now         func() time.Time
}

func NewExtractDocumentUseCase(
	docs ports.DocumentRepository,
	extractions ports.ExtractionRepository,
	storage ports.ObjectStorage,
	provider ports.OCRProvider,
) *ExtractDocumentUseCase {
	return &ExtractDocumentUseCase{
		docs:        docs,
		extractions: extractions,
		storage:     storage,
		provider:    provider,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ExtractDocumentUseCase) ExtractFromDocument(
	ctx context.Context,
	documentID, tenantID string,
	opts ports.ExtractionOptions,
) (*domain.OCRExtractionResult, error) {
	doc, err := uc.docs.GetByID(ctx, documentID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}

	if !uc.provider.Supports(doc.MimeType) {
		return nil, domain.WrapError(domain.ErrUnsupportedType, "extract from document",
			fmt.Errorf("mime type %q", doc.MimeType))
	}

	if !opts.ForceReprocess {
		if existing, err := uc.extractions.LatestCompleted(ctx, documentID, tenantID); err == nil && existing != nil {
			return existing, nil
		}
	}

	data, err := uc.storage.Download(ctx, tenantID, doc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("download document bytes: %w", err)
	}

	startedAt := uc.now()
	payload, provErr := uc.provider.ExtractText(ctx, data, doc.MimeType, opts)
	completedAt := uc.now()

	result := &domain.OCRExtractionResult{
		ID:          uuid.NewString(),
		DocumentID:  documentID,
		TenantID:    tenantID,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		DurationMS:  completedAt.Sub(startedAt).Milliseconds(),
	}

	if provErr != nil {
		// Failed runs are persisted too; the provider's behavior stays
		// replayable and the document keeps its prior status.
		result.Status = domain.ExtractionFailed
		result.ErrorMessage = provErr.Error()
		if saveErr := uc.extractions.Save(ctx, result); saveErr != nil {
			return nil, fmt.Errorf("persist failed extraction: %w; provider error: %v", saveErr, provErr)
		}
		return nil, domain.WrapError(domain.ErrOCRFailed, "extract from document", provErr)
	}

	result.Status = domain.ExtractionCompleted
	result.RawText = payload.RawText
	result.Fields = payload.Fields
	result.Confidence = payload.Confidence
	result.Language = payload.Language
	result.PageCount = payload.PageCount

	if err := uc.extractions.Save(ctx, result); err != nil {
		return nil, fmt.Errorf("persist extraction: %w", err)
	}

	processedAt := completedAt
	if err := uc.docs.UpdateStatus(ctx, documentID, tenantID, domain.StatusOCRCompleted, &processedAt); err != nil {
		return nil, fmt.Errorf("advance document status: %w", err)
	}

	return result, nil
}
