package pdftext

import (
	"testing"

	"github.com/nyumbani/idverify/internal/core/domain"
)

func TestSupports(t *testing.T) {
	e := New()
	if !e.Supports("application/pdf") || !e.Supports(" Application/PDF ") {
		t.Fatalf("pdf mime not supported")
	}
	if e.Supports("image/jpeg") {
		t.Fatalf("jpeg must not be supported")
	}
}

func TestParseLabeledFields(t *testing.T) {
	text := `RESIDENTIAL LEASE AGREEMENT

Tenant Name: John Mwangi
ID Number: 12345678
Commencement Date: 2026-01-01
Lease End Date: 2027-01-01
Monthly Rent: KES 45,000
Landlord: Acme Properties Ltd
Unlabeled line without separator
Notes:
`

	fields := parseLabeledFields(text)

	want := map[domain.FieldName]string{
		domain.FieldFullName:       "John Mwangi",
		domain.FieldIDNumber:       "12345678",
		domain.FieldLeaseStartDate: "2026-01-01",
		domain.FieldLeaseEndDate:   "2027-01-01",
		domain.FieldMonthlyRent:    "KES 45,000",
		domain.FieldLandlordName:   "Acme Properties Ltd",
	}
	if len(fields) != len(want) {
		t.Fatalf("fields = %+v, want %d entries", fields, len(want))
	}
	for name, value := range want {
		got, ok := fields.Get(name)
		if !ok || got.Value != value {
			t.Fatalf("field %s = %+v, want %q", name, got, value)
		}
		if got.Confidence != textLayerConfidence {
			t.Fatalf("field %s confidence = %f", name, got.Confidence)
		}
	}
}

func TestParseLabeledFieldsFirstOccurrenceWins(t *testing.T) {
	fields := parseLabeledFields("Full Name: John Mwangi\nName: Someone Else\n")
	if len(fields) != 1 {
		t.Fatalf("fields = %+v, want one full_name", fields)
	}
	if got, _ := fields.Get(domain.FieldFullName); got.Value != "John Mwangi" {
		t.Fatalf("full name = %q, first occurrence must win", got.Value)
	}
}

func TestHasTextLayerRejectsNonPDF(t *testing.T) {
	if New().HasTextLayer([]byte("not a pdf at all")) {
		t.Fatalf("garbage bytes reported as a text layer")
	}
}
