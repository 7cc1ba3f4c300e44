package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound      = errors.New("document not found")
	ErrUnsupportedType       = errors.New("unsupported document type")
	ErrOCRFailed             = errors.New("ocr extraction failed")
	ErrAnalysisFailed        = errors.New("fraud analysis failed")
	ErrNoDocuments           = errors.New("no documents to validate")
	ErrExtractionNotFound    = errors.New("extraction result not found")
	ErrFraudScoreNotFound    = errors.New("fraud score not found")
	ErrValidationNotFound    = errors.New("validation result not found")
	ErrProfileNotFound       = errors.New("identity profile not found")
	ErrReviewAlreadyRecorded = errors.New("review already recorded")
	ErrInvalidInput          = errors.New("invalid input")
	ErrTemporary             = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
