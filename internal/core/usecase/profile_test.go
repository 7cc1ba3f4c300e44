package usecase

import (
	"context"
	"testing"

	"github.com/nyumbani/idverify/internal/core/domain"
)

func TestBuildIdentityProfileRejectsEmptyDocumentList(t *testing.T) {
	uc := NewBuildProfileUseCase(newFakeDocumentRepo(), &fakeExtractionRepo{}, &fakeProfileRepo{}, DefaultThresholds())

	_, err := uc.BuildIdentityProfile(context.Background(), "cust-1", "tenant-1", nil)
	if !domain.IsKind(err, domain.ErrNoDocuments) {
		t.Fatalf("err = %v, want ErrNoDocuments", err)
	}
}

func TestBuildIdentityProfileCreatesProfile(t *testing.T) {
	doc := testDocument()
	docs := newFakeDocumentRepo(doc)
	extractions := &fakeExtractionRepo{completed: []domain.OCRExtractionResult{{
		DocumentID: doc.ID,
		TenantID:   doc.TenantID,
		Status:     domain.ExtractionCompleted,
		Fields: domain.FieldSet{
			{Name: domain.FieldFullName, Value: "John Mwangi", Confidence: 0.95},
			{Name: domain.FieldIDNumber, Value: "12345678", Confidence: 0.9},
		},
	}}}
	profiles := &fakeProfileRepo{}
	uc := NewBuildProfileUseCase(docs, extractions, profiles, DefaultThresholds())

	profile, err := uc.BuildIdentityProfile(context.Background(), "cust-1", "tenant-1", []string{doc.ID})
	if err != nil {
		t.Fatalf("BuildIdentityProfile: %v", err)
	}
	if len(profiles.saved) != 1 {
		t.Fatalf("saved profiles = %d, want 1", len(profiles.saved))
	}
	if profile.ID == "" {
		t.Fatalf("new profile has no ID")
	}
	if profile.CustomerID != "cust-1" || profile.TenantID != "tenant-1" {
		t.Fatalf("profile scoping = %s/%s", profile.TenantID, profile.CustomerID)
	}
	if profile.FirstName != "John" || profile.LastName != "Mwangi" {
		t.Fatalf("names = %q %q", profile.FirstName, profile.LastName)
	}
	if len(profile.IDNumbers) != 1 || profile.IDNumbers[0].Number != "12345678" {
		t.Fatalf("id numbers = %+v", profile.IDNumbers)
	}
}

func TestBuildIdentityProfileMergesIntoExisting(t *testing.T) {
	doc := testDocument()
	doc.ID = "doc-2"
	doc.Type = domain.DocTypeUtilityBill
	docs := newFakeDocumentRepo(doc)
	extractions := &fakeExtractionRepo{completed: []domain.OCRExtractionResult{{
		DocumentID: doc.ID,
		TenantID:   doc.TenantID,
		Status:     domain.ExtractionCompleted,
		Fields: domain.FieldSet{
			{Name: domain.FieldAddressLine1, Value: "12 Riverside Drive", Confidence: 0.8},
			{Name: domain.FieldCity, Value: "Nairobi", Confidence: 0.8},
		},
	}}}

	existing := emptyProfile()
	existing.FirstName = "John"
	existing.LastName = "Mwangi"
	existing.Provenance[domain.FieldFirstName] = domain.FieldOrigin{DocumentID: "doc-1", Confidence: 0.95}
	profiles := &fakeProfileRepo{profile: existing}

	uc := NewBuildProfileUseCase(docs, extractions, profiles, DefaultThresholds())
	profile, err := uc.BuildIdentityProfile(context.Background(), "cust-1", "tenant-1", []string{doc.ID})
	if err != nil {
		t.Fatalf("BuildIdentityProfile: %v", err)
	}
	if profile.ID != existing.ID {
		t.Fatalf("profile ID = %s, want existing %s", profile.ID, existing.ID)
	}
	if profile.FirstName != "John" {
		t.Fatalf("existing name lost: %q", profile.FirstName)
	}
	if len(profile.Addresses) != 1 || profile.Addresses[0].City != "Nairobi" {
		t.Fatalf("addresses = %+v", profile.Addresses)
	}
}

func TestBuildIdentityProfileSkipsDocumentsWithoutExtraction(t *testing.T) {
	withExtraction := testDocument()
	withoutExtraction := testDocument()
	withoutExtraction.ID = "doc-2"
	docs := newFakeDocumentRepo(withExtraction, withoutExtraction)
	extractions := &fakeExtractionRepo{completed: []domain.OCRExtractionResult{{
		DocumentID: withExtraction.ID,
		TenantID:   withExtraction.TenantID,
		Status:     domain.ExtractionCompleted,
		Fields:     domain.FieldSet{{Name: domain.FieldIDNumber, Value: "12345678", Confidence: 0.9}},
	}}}
	profiles := &fakeProfileRepo{}

	uc := NewBuildProfileUseCase(docs, extractions, profiles, DefaultThresholds())
	profile, err := uc.BuildIdentityProfile(context.Background(), "cust-1", "tenant-1",
		[]string{withExtraction.ID, withoutExtraction.ID})
	if err != nil {
		t.Fatalf("BuildIdentityProfile: %v", err)
	}
	if len(profile.IDNumbers) != 1 {
		t.Fatalf("id numbers = %+v", profile.IDNumbers)
	}
}

func TestBuildIdentityProfileScopesTenant(t *testing.T) {
	doc := testDocument()
	docs := newFakeDocumentRepo(doc)
	uc := NewBuildProfileUseCase(docs, &fakeExtractionRepo{}, &fakeProfileRepo{}, DefaultThresholds())

	_, err := uc.BuildIdentityProfile(context.Background(), "cust-1", "tenant-2", []string{doc.ID})
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("err = %v, want ErrDocumentNotFound", err)
	}
}
