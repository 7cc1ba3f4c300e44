package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nyumbani/idverify/internal/core/domain"
	"github.com/nyumbani/idverify/internal/core/ports"
)

// BuildProfileUseCase folds completed extractions into the single identity
// profile per (tenant, customer). The first build creates the profile; later
// builds merge into it. Concurrent builds for the same customer are
// serialized by the profile repository.
type BuildProfileUseCase struct {
	docs        ports.DocumentRepository
	extractions ports.ExtractionRepository
	profiles    ports.ProfileRepository
	thresholds  Thresholds
	now         func() time.Time
}

func NewBuildProfileUseCase(
	docs ports.DocumentRepository,
	extractions ports.ExtractionRepository,
	profiles ports.ProfileRepository,
	thresholds Thresholds,
) *BuildProfileUseCase {
	return &BuildProfileUseCase{
		docs:        docs,
		extractions: extractions,
		profiles:    profiles,
		thresholds:  thresholds.normalize(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (uc *BuildProfileUseCase) BuildIdentityProfile(
	ctx context.Context,
	customerID, tenantID string,
	documentIDs []string,
) (*domain.TenantIdentityProfile, error) {
	if len(documentIDs) == 0 {
		return nil, domain.WrapError(domain.ErrNoDocuments, "build identity profile",
			fmt.Errorf("customer %s", customerID))
	}

	profile, err := uc.loadOrCreate(ctx, customerID, tenantID)
	if err != nil {
		return nil, err
	}

	extractions, err := uc.extractions.ListCompletedForDocuments(ctx, tenantID, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("load extractions: %w", err)
	}
	byDocument := make(map[string]domain.OCRExtractionResult, len(extractions))
	for _, ex := range extractions {
		byDocument[ex.DocumentID] = ex
	}

	now := uc.now()
	for _, documentID := range documentIDs {
		doc, err := uc.docs.GetByID(ctx, documentID, tenantID)
		if err != nil {
			return nil, fmt.Errorf("fetch document %s: %w", documentID, err)
		}
		ex, ok := byDocument[documentID]
		if !ok {
			continue
		}
		profile = mergeExtraction(profile, doc, ex.Fields, now, uc.thresholds)
	}

	if err := uc.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

func (uc *BuildProfileUseCase) loadOrCreate(ctx context.Context, customerID, tenantID string) (*domain.TenantIdentityProfile, error) {
	profile, err := uc.profiles.GetByCustomer(ctx, customerID, tenantID)
	if err == nil {
		return profile, nil
	}
	if !domain.IsKind(err, domain.ErrProfileNotFound) {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	now := uc.now()
	return &domain.TenantIdentityProfile{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		CustomerID:   customerID,
		IDNumbers:    []domain.IDNumber{},
		Addresses:    []domain.Address{},
		Provenance:   map[domain.FieldName]domain.FieldOrigin{},
		Verification: domain.VerificationPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
