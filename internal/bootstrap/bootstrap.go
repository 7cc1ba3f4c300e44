package bootstrap

import (
	"context"
	"fmt"

	"github.com/nyumbani/idverify/internal/config"
	"github.com/nyumbani/idverify/internal/core/ports"
	"github.com/nyumbani/idverify/internal/core/usecase"
	"github.com/nyumbani/idverify/internal/infrastructure/imaging/forensic"
	"github.com/nyumbani/idverify/internal/infrastructure/ocr"
	"github.com/nyumbani/idverify/internal/infrastructure/ocr/pdftext"
	"github.com/nyumbani/idverify/internal/infrastructure/ocr/vision"
	"github.com/nyumbani/idverify/internal/infrastructure/queue/nats"
	"github.com/nyumbani/idverify/internal/infrastructure/repository/postgres"
	"github.com/nyumbani/idverify/internal/infrastructure/resilience"
	"github.com/nyumbani/idverify/internal/infrastructure/storage/localfs"
	"github.com/nyumbani/idverify/internal/infrastructure/verify/registry"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Docs      ports.DocumentRepository
	Extractor ports.DocumentExtractor
	Profiles  ports.ProfileBuilder
	Fraud     ports.FraudAnalyzer
	Validator ports.DocumentValidator

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	docs := postgres.NewDocumentRepository(db)
	extractions := postgres.NewExtractionRepository(db)
	profiles := postgres.NewProfileRepository(db)
	fraudScores := postgres.NewFraudScoreRepository(db)
	validations := postgres.NewValidationRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultPolicy())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	visionClient := vision.NewWithOptions(cfg.VisionURL, cfg.VisionAPIKey, vision.Options{
		RequestsPerSecond:  cfg.VisionRPS,
		Burst:              cfg.VisionBurst,
		ResilienceExecutor: executor,
	})
	provider := ocr.NewCompositeProvider(pdftext.New(), visionClient)

	thresholds := usecase.Thresholds{
		ProfileOverwriteConfidence: cfg.ProfileOverwriteConfidence,
		NameMatchThreshold:         cfg.NameMatchThreshold,
		AutoApproveThreshold:       cfg.AutoApproveThreshold,
		CriticalRiskThreshold:      cfg.CriticalRiskThreshold,
		MaxValidationWarnings:      cfg.MaxValidationWarnings,
		ExpiryWarningDays:          cfg.ExpiryWarningDays,
	}

	var analyzer ports.ImageAnalyzer
	if cfg.ForensicEnabled && cfg.ForensicURL != "" {
		analyzer = forensic.NewWithOptions(cfg.ForensicURL, cfg.ForensicAPIKey, forensic.Options{
			ResilienceExecutor: executor,
		})
	}
	var verifier ports.ExternalVerifier
	if cfg.RegistryEnabled && cfg.RegistryURL != "" {
		verifier = registry.NewWithOptions(cfg.RegistryURL, cfg.RegistryAPIKey, registry.Options{
			ResilienceExecutor: executor,
		})
	}

	extractor := usecase.NewExtractDocumentUseCase(docs, extractions, storage, provider)
	builder := usecase.NewBuildProfileUseCase(docs, extractions, profiles, thresholds)
	fraud := usecase.NewFraudDetectionUseCase(docs, fraudScores, storage, thresholds, usecase.FraudOptions{
		ImageAnalyzer: analyzer,
	})
	validator := usecase.NewValidateDocumentsUseCase(docs, extractions, profiles, validations, thresholds, usecase.ValidatorOptions{
		ExternalVerifier: verifier,
	})

	return &App{
		Config: cfg,

		Queue:     queue,
		Docs:      docs,
		Extractor: extractor,
		Profiles:  builder,
		Fraud:     fraud,
		Validator: validator,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
