package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nyumbani/idverify/internal/core/domain"
	"github.com/nyumbani/idverify/internal/core/ports"
)

const tenantIDHeader = "X-Tenant-Id"

type Router struct {
	extractor ports.DocumentExtractor
	profiles  ports.ProfileBuilder
	fraud     ports.FraudAnalyzer
	validator ports.DocumentValidator
	docs      ports.DocumentRepository
	queue     ports.MessageQueue
}

func NewRouter(
	extractor ports.DocumentExtractor,
	profiles ports.ProfileBuilder,
	fraud ports.FraudAnalyzer,
	validator ports.DocumentValidator,
	docs ports.DocumentRepository,
	queue ports.MessageQueue,
) *Router {
	return &Router{
		extractor: extractor,
		profiles:  profiles,
		fraud:     fraud,
		validator: validator,
		docs:      docs,
		queue:     queue,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /v1/documents/{id}", rt.getDocument)
	mux.HandleFunc("POST /v1/documents/{id}/extract", rt.extractDocument)
	mux.HandleFunc("POST /v1/documents/{id}/reprocess", rt.reprocessDocument)
	mux.HandleFunc("POST /v1/documents/{id}/fraud-analysis", rt.analyzeDocument)
	mux.HandleFunc("GET /v1/documents/{id}/fraud-score", rt.getFraudScore)
	mux.HandleFunc("POST /v1/fraud-scores/{id}/review", rt.reviewFraudScore)
	mux.HandleFunc("POST /v1/customers/{id}/profile", rt.buildProfile)
	mux.HandleFunc("POST /v1/customers/{id}/validation", rt.validateCustomer)
	return requestIDMiddleware(accessLogMiddleware(mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// tenantID pulls the mandatory tenant header. Every data-path endpoint is
// tenant-scoped; a missing header is a client error, never a wildcard.
func tenantID(r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get(tenantIDHeader))
	return id, id != ""
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "X-Tenant-Id header is required"})
		return
	}
	doc, err := rt.docs.GetByID(r.Context(), r.PathValue("id"), tenant)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) extractDocument(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "X-Tenant-Id header is required"})
		return
	}

	var req struct {
		Language       string `json:"language"`
		ForceReprocess bool   `json:"force_reprocess"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
	}

	result, err := rt.extractor.ExtractFromDocument(r.Context(), r.PathValue("id"), tenant, ports.ExtractionOptions{
		Language:       req.Language,
		ForceReprocess: req.ForceReprocess,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// reprocessDocument re-enqueues the document for the async worker pipeline
// instead of running extraction inline.
func (rt *Router) reprocessDocument(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "X-Tenant-Id header is required"})
		return
	}

	doc, err := rt.docs.GetByID(r.Context(), r.PathValue("id"), tenant)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := rt.queue.PublishDocumentUploaded(r.Context(), tenant, doc.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "document_id": doc.ID})
}

func (rt *Router) analyzeDocument(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "X-Tenant-Id header is required"})
		return
	}
	score, err := rt.fraud.AnalyzeDocument(r.Context(), r.PathValue("id"), tenant)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (rt *Router) getFraudScore(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "X-Tenant-Id header is required"})
		return
	}
	score, err := rt.fraud.ScoreForDocument(r.Context(), r.PathValue("id"), tenant)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (rt *Router) reviewFraudScore(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "X-Tenant-Id header is required"})
		return
	}

	var req struct {
		Decision   string `json:"decision"`
		Reason     string `json:"reason"`
		Notes      string `json:"notes"`
		ReviewerID string `json:"reviewer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.ReviewerID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reviewer_id is required"})
		return
	}

	score, err := rt.fraud.RecordReview(r.Context(), r.PathValue("id"), tenant, domain.ManualReview{
		Decision:   domain.ReviewDecision(req.Decision),
		Reason:     req.Reason,
		Notes:      req.Notes,
		ReviewerID: req.ReviewerID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (rt *Router) buildProfile(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "X-Tenant-Id header is required"})
		return
	}

	var req struct {
		DocumentIDs []string `json:"document_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	profile, err := rt.profiles.BuildIdentityProfile(r.Context(), r.PathValue("id"), tenant, req.DocumentIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (rt *Router) validateCustomer(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "X-Tenant-Id header is required"})
		return
	}

	var req struct {
		DocumentIDs []string `json:"document_ids"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
	}

	result, err := rt.validator.ValidateCustomerDocuments(r.Context(), r.PathValue("id"), tenant, req.DocumentIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
