package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nyumbani/idverify/internal/core/domain"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByCustomer(ctx context.Context, customerID, tenantID string) (*domain.TenantIdentityProfile, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, tenant_id, customer_id, first_name, middle_name, last_name, date_of_birth, nationality, gender,
	id_numbers, addresses, contact, employment, photo_on_file, provenance, completeness, verification_status,
	created_at, updated_at
FROM identity_profiles
WHERE customer_id = $1 AND tenant_id = $2
`, customerID, tenantID)

	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrProfileNotFound, "get profile", fmt.Errorf("customer %s", customerID))
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return profile, nil
}

// Save upserts the whole profile. The merge is read-then-write over the full
// record, so writes for one customer are serialized with a per-customer
// advisory transaction lock.
func (r *ProfileRepository) Save(ctx context.Context, profile *domain.TenantIdentityProfile) error {
	idNumbersJSON, err := json.Marshal(profile.IDNumbers)
	if err != nil {
		return fmt.Errorf("marshal id numbers: %w", err)
	}
	addressesJSON, err := json.Marshal(profile.Addresses)
	if err != nil {
		return fmt.Errorf("marshal addresses: %w", err)
	}
	contactJSON, err := json.Marshal(profile.Contact)
	if err != nil {
		return fmt.Errorf("marshal contact: %w", err)
	}
	employmentJSON, err := json.Marshal(profile.Employment)
	if err != nil {
		return fmt.Errorf("marshal employment: %w", err)
	}
	provenanceJSON, err := json.Marshal(profile.Provenance)
	if err != nil {
		return fmt.Errorf("marshal provenance: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin profile tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, profile.TenantID+":"+profile.CustomerID); err != nil {
		return fmt.Errorf("acquire profile lock: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO identity_profiles (
	id, tenant_id, customer_id, first_name, middle_name, last_name, date_of_birth, nationality, gender,
	id_numbers, addresses, contact, employment, photo_on_file, provenance, completeness, verification_status,
	created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
ON CONFLICT (tenant_id, customer_id) DO UPDATE SET
	first_name = EXCLUDED.first_name,
	middle_name = EXCLUDED.middle_name,
	last_name = EXCLUDED.last_name,
	date_of_birth = EXCLUDED.date_of_birth,
	nationality = EXCLUDED.nationality,
	gender = EXCLUDED.gender,
	id_numbers = EXCLUDED.id_numbers,
	addresses = EXCLUDED.addresses,
	contact = EXCLUDED.contact,
	employment = EXCLUDED.employment,
	photo_on_file = EXCLUDED.photo_on_file,
	provenance = EXCLUDED.provenance,
	completeness = EXCLUDED.completeness,
	verification_status = EXCLUDED.verification_status,
	updated_at = EXCLUDED.updated_at
`,
		profile.ID, profile.TenantID, profile.CustomerID, profile.FirstName, profile.MiddleName, profile.LastName,
		profile.DateOfBirth, profile.Nationality, profile.Gender, idNumbersJSON, addressesJSON, contactJSON,
		employmentJSON, profile.PhotoOnFile, provenanceJSON, profile.Completeness, string(profile.Verification),
		profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit profile tx: %w", err)
	}
	return nil
}

func scanProfile(row rowScanner) (*domain.TenantIdentityProfile, error) {
	var (
		profile       domain.TenantIdentityProfile
		dob           sql.NullTime
		idNumbersRaw  []byte
		addressesRaw  []byte
		contactRaw    []byte
		employmentRaw []byte
		provenanceRaw []byte
		verification  string
	)
	err := row.Scan(
		&profile.ID, &profile.TenantID, &profile.CustomerID, &profile.FirstName, &profile.MiddleName,
		&profile.LastName, &dob, &profile.Nationality, &profile.Gender, &idNumbersRaw, &addressesRaw,
		&contactRaw, &employmentRaw, &profile.PhotoOnFile, &provenanceRaw, &profile.Completeness,
		&verification, &profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if dob.Valid {
		t := dob.Time
		profile.DateOfBirth = &t
	}
	if err := json.Unmarshal(idNumbersRaw, &profile.IDNumbers); err != nil {
		return nil, fmt.Errorf("unmarshal id numbers: %w", err)
	}
	if err := json.Unmarshal(addressesRaw, &profile.Addresses); err != nil {
		return nil, fmt.Errorf("unmarshal addresses: %w", err)
	}
	if err := json.Unmarshal(contactRaw, &profile.Contact); err != nil {
		return nil, fmt.Errorf("unmarshal contact: %w", err)
	}
	if err := json.Unmarshal(employmentRaw, &profile.Employment); err != nil {
		return nil, fmt.Errorf("unmarshal employment: %w", err)
	}
	if err := json.Unmarshal(provenanceRaw, &profile.Provenance); err != nil {
		return nil, fmt.Errorf("unmarshal provenance: %w", err)
	}
	profile.Verification = domain.VerificationStatus(verification)
	return &profile, nil
}
