// Package vision calls the hosted OCR service that reads identity and tenancy
// documents. Requests carry the document bytes base64-encoded; the service
// answers with raw text plus typed fields and per-field confidence.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nyumbani/idverify/internal/core/domain"
	"github.com/nyumbani/idverify/internal/core/ports"
	"github.com/nyumbani/idverify/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	RequestsPerSecond  float64
	Burst              int
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, apiKey string) *Client {
	return NewWithOptions(baseURL, apiKey, Options{})
}

func NewWithOptions(baseURL, apiKey string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	rps := options.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := options.Burst
	if burst <= 0 {
		burst = 10
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		executor:   options.ResilienceExecutor,
	}
}

var supportedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/tiff":      true,
}

func (c *Client) Supports(mimeType string) bool {
	return supportedMimeTypes[strings.ToLower(strings.TrimSpace(mimeType))]
}

type extractRequest struct {
	Content  string `json:"content"`
	MimeType string `json:"mime_type"`
	Language string `json:"language,omitempty"`
}

type extractResponse struct {
	Text       string  `json:"text"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
	PageCount  int     `json:"page_count"`
	Fields     []struct {
		Name       string   `json:"name"`
		Value      string   `json:"value"`
		Confidence float64  `json:"confidence"`
		Bounds     *boundingBox `json:"bounds,omitempty"`
	} `json:"fields"`
}

type boundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (c *Client) ExtractText(ctx context.Context, data []byte, mimeType string, opts ports.ExtractionOptions) (*ports.OCRPayload, error) {
	if !c.Supports(mimeType) {
		return nil, fmt.Errorf("vision: unsupported mime type %q", mimeType)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("vision rate limit: %w", err)
	}

	request := extractRequest{
		Content:  base64.StdEncoding.EncodeToString(data),
		MimeType: mimeType,
		Language: opts.Language,
	}

	var response extractResponse
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/v1/extract", request, &response, "extract")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "vision.extract", call, classifyVisionError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapTemporaryIfNeeded("vision extract", err)
	}

	fields := make(domain.FieldSet, 0, len(response.Fields))
	for _, f := range response.Fields {
		value := strings.TrimSpace(f.Value)
		if value == "" {
			continue
		}
		field := domain.ExtractedField{
			Name:       domain.FieldName(f.Name),
			Value:      value,
			Confidence: f.Confidence,
		}
		if f.Bounds != nil {
			field.Bounds = &domain.BoundingBox{
				X:      f.Bounds.X,
				Y:      f.Bounds.Y,
				Width:  f.Bounds.Width,
				Height: f.Bounds.Height,
			}
		}
		fields = append(fields, field)
	}

	pageCount := response.PageCount
	if pageCount <= 0 {
		pageCount = 1
	}
	return &ports.OCRPayload{
		RawText:    response.Text,
		Fields:     fields,
		Confidence: response.Confidence,
		Language:   response.Language,
		PageCount:  pageCount,
	}, nil
}
