package httpadapter

import (
	"net/http"

	"github.com/nyumbani/idverify/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrDocumentNotFound),
		domain.IsKind(err, domain.ErrExtractionNotFound),
		domain.IsKind(err, domain.ErrFraudScoreNotFound),
		domain.IsKind(err, domain.ErrValidationNotFound),
		domain.IsKind(err, domain.ErrProfileNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrNoDocuments):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case domain.IsKind(err, domain.ErrReviewAlreadyRecorded):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrOCRFailed), domain.IsKind(err, domain.ErrAnalysisFailed):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
