// Package registry queries the government identity registry gateway. The
// lookup is feature-flagged per deployment; pipelines without it record the
// external check as skipped.
package registry

import (
	"bytes"
	"context"
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
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

func (c *Client) VerifyIdentity(ctx context.Context, query ports.VerificationQuery) (*ports.VerificationOutcome, error) {
	request := map[string]any{
		"id_type":   string(query.IDType),
		"id_number": query.IDNumber,
		"full_name": query.FullName,
	}
	if query.DateOfBirth != nil {
		request["date_of_birth"] = query.DateOfBirth.Format("2006-01-02")
	}

	var response struct {
		Verified         bool     `json:"verified"`
		Confidence       float64  `json:"confidence"`
		MatchedFields    []string `json:"matched_fields"`
		MismatchedFields []string `json:"mismatched_fields"`
	}

	fn := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/v1/verify", request, &response)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "registry.verify", fn, classifyRegistryError)
	} else {
		err = fn(ctx)
	}
	if err != nil {
		if !domain.IsKind(err, domain.ErrTemporary) {
			class := classifyRegistryError(err)
			if class.Retryable || resilience.IsCircuitOpen(err) {
				err = domain.WrapError(domain.ErrTemporary, "registry verify", err)
			}
		}
		return nil, err
	}

	return &ports.VerificationOutcome{
		Verified:         response.Verified,
		Confidence:       response.Confidence,
		MatchedFields:    response.MatchedFields,
		MismatchedFields: response.MismatchedFields,
	}, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("registry verify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &statusError{
			statusCode: resp.StatusCode,
			status:     resp.Status,
			body:       strings.TrimSpace(string(raw)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode verify response: %w", err)
	}
	return nil
}

type statusError struct {
	statusCode int
	status     string
	body       string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("registry verify status: %s", e.status)
	}
	return fmt.Sprintf("registry verify status: %s: %s", e.status, e.body)
}

func classifyRegistryError(err error) resilience.ErrorClassification {
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
