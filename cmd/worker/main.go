package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nyumbani/idverify/internal/bootstrap"
	"github.com/nyumbani/idverify/internal/config"
	"github.com/nyumbani/idverify/internal/core/domain"
	"github.com/nyumbani/idverify/internal/core/ports"
	"github.com/nyumbani/idverify/internal/observability/logging"
	"github.com/nyumbani/idverify/internal/observability/metrics"
)

const serviceName = "idverify-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	pipelineMetrics := metrics.NewPipelineMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: pipelineMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentUploaded(ctx, func(handlerCtx context.Context, tenantID, documentID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()
		return processDocument(processCtx, app, pipelineMetrics, tenantID, documentID)
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

// processDocument runs the full verification pipeline for one uploaded
// document: OCR extraction, fraud analysis, then profile rebuild and
// cross-document validation for the owning customer. Extraction failure stops
// the pipeline; later stage failures are logged and surfaced but do not undo
// earlier stages.
func processDocument(ctx context.Context, app *bootstrap.App, m *metrics.PipelineMetrics, tenantID, documentID string) error {
	m.StartDocument()
	defer m.FinishDocument()

	logger := slog.With("tenant_id", tenantID, "document_id", documentID)

	start := time.Now()
	extraction, err := app.Extractor.ExtractFromDocument(ctx, documentID, tenantID, ports.ExtractionOptions{})
	m.FinishStage(serviceName, "extract", time.Since(start), err)
	if err != nil {
		logger.Error("extraction failed", "error", err)
		return err
	}
	logger.Info("extraction completed", "fields", len(extraction.Fields), "confidence", extraction.Confidence)

	start = time.Now()
	score, err := app.Fraud.AnalyzeDocument(ctx, documentID, tenantID)
	m.FinishStage(serviceName, "fraud", time.Since(start), err)
	if err != nil {
		logger.Error("fraud analysis failed", "error", err)
		return err
	}
	m.ObserveFraudOutcome(serviceName, string(score.RiskLevel), len(score.Indicators))
	logger.Info("fraud analysis completed", "risk_level", score.RiskLevel, "score", score.Score, "indicators", len(score.Indicators))

	doc, err := app.Docs.GetByID(ctx, documentID, tenantID)
	if err != nil {
		logger.Error("load document after analysis failed", "error", err)
		return err
	}

	start = time.Now()
	profile, err := app.Profiles.BuildIdentityProfile(ctx, doc.CustomerID, tenantID, []string{documentID})
	m.FinishStage(serviceName, "profile", time.Since(start), err)
	if err != nil {
		logger.Error("profile build failed", "customer_id", doc.CustomerID, "error", err)
		return err
	}
	logger.Info("profile updated", "customer_id", doc.CustomerID, "completeness", profile.Completeness)

	start = time.Now()
	result, err := app.Validator.ValidateCustomerDocuments(ctx, doc.CustomerID, tenantID, nil)
	m.FinishStage(serviceName, "validate", time.Since(start), err)
	if err != nil {
		// A single-document customer can legitimately have nothing to
		// cross-check yet.
		if domain.IsKind(err, domain.ErrNoDocuments) {
			logger.Info("validation skipped", "customer_id", doc.CustomerID)
			return nil
		}
		logger.Error("validation failed", "customer_id", doc.CustomerID, "error", err)
		return err
	}
	logger.Info("validation completed",
		"customer_id", doc.CustomerID,
		"overall_status", result.OverallStatus,
		"overall_score", result.OverallScore,
		"manual_review", result.RequiresManualReview,
	)
	return nil
}
