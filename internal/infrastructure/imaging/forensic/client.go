// Package forensic calls the image-forensics service used for tamper and
// clone detection on photographic documents. The whole capability is
// optional; deployments without the service simply skip those checks.
package forensic

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/nyumbani/idverify/internal/core/domain"
	"github.com/nyumbani/idverify/internal/core/ports"
	"github.com/nyumbani/idverify/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, apiKey string) *Client {
	return NewWithOptions(baseURL, apiKey, Options{})
}

func NewWithOptions(baseURL, apiKey string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

func (c *Client) AnalyzeIntegrity(ctx context.Context, data []byte, mimeType string) (*ports.IntegrityReport, error) {
	request := map[string]any{
		"content":   base64.StdEncoding.EncodeToString(data),
		"mime_type": mimeType,
	}
	var response struct {
		Tampered   bool    `json:"tampered"`
		Confidence float64 `json:"confidence"`
		Details    string  `json:"details"`
	}
	if err := c.call(ctx, "/v1/integrity", request, &response, "forensic.integrity"); err != nil {
		return nil, err
	}
	return &ports.IntegrityReport{
		Tampered:   response.Tampered,
		Confidence: response.Confidence,
		Details:    response.Details,
	}, nil
}

func (c *Client) DetectDuplicateRegions(ctx context.Context, data []byte) (*ports.CloneReport, error) {
	request := map[string]any{
		"content": base64.StdEncoding.EncodeToString(data),
	}
	var response struct {
		RegionsFound int     `json:"regions_found"`
		Confidence   float64 `json:"confidence"`
		Details      string  `json:"details"`
	}
	if err := c.call(ctx, "/v1/clone-regions", request, &response, "forensic.clone"); err != nil {
		return nil, err
	}
	return &ports.CloneReport{
		RegionsFound: response.RegionsFound,
		Confidence:   response.Confidence,
		Details:      response.Details,
	}, nil
}

func (c *Client) call(ctx context.Context, path string, payload, out any, operation string) error {
	fn := func(callCtx context.Context) error {
		return c.postJSON(callCtx, path, payload, out, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, fn, classifyForensicError)
	} else {
		err = fn(ctx)
	}
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	class := classifyForensicError(err)
	if class.Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("forensic %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &statusError{
			operation:  operation,
			statusCode: resp.StatusCode,
			status:     resp.Status,
			body:       strings.TrimSpace(string(raw)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

type statusError struct {
	operation  string
	statusCode int
	status     string
	body       string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("forensic %s status: %s", e.operation, e.status)
	}
	return fmt.Sprintf("forensic %s status: %s: %s", e.operation, e.status, e.body)
}

func classifyForensicError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *statusError
	if errors.As(err, &statusErr) {
		switch statusErr.statusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
