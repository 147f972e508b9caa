package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ppdb/core/applicant"
	"github.com/trezcool/ppdb/core/region"
)

// AddressRepository stores the address and prior school forms of applicants.
type AddressRepository struct {
	db *sqlx.DB
}

func NewAddressRepository(db *sql.DB) *AddressRepository {
	return &AddressRepository{db: sqlx.NewDb(db, "postgres")}
}

type addressRow struct {
	UserID int `db:"user_id"`
	region.AddressRecord
}

type priorSchoolRow struct {
	UserID int `db:"user_id"`
	applicant.PriorSchool
}

// trapNoRowsErr maps psql "no rows" err to applicant.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return applicant.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

const (
	selectAddress = `
SELECT province, city, district, village, street_address, postal_code, distance_km, transport_mode
FROM addresses
WHERE user_id = $1`

	upsertAddress = `
INSERT INTO addresses (user_id, province, city, district, village, street_address, postal_code, distance_km, transport_mode)
VALUES (:user_id, :province, :city, :district, :village, :street_address, :postal_code, :distance_km, :transport_mode)
ON CONFLICT (user_id) DO UPDATE SET
	province = EXCLUDED.province,
	city = EXCLUDED.city,
	district = EXCLUDED.district,
	village = EXCLUDED.village,
	street_address = EXCLUDED.street_address,
	postal_code = EXCLUDED.postal_code,
	distance_km = EXCLUDED.distance_km,
	transport_mode = EXCLUDED.transport_mode,
	updated_at = now()`

	selectPriorSchool = `
SELECT npsn, name, province, city, district, village
FROM prior_schools
WHERE user_id = $1`

	upsertPriorSchool = `
INSERT INTO prior_schools (user_id, npsn, name, province, city, district, village)
VALUES (:user_id, :npsn, :name, :province, :city, :district, :village)
ON CONFLICT (user_id) DO UPDATE SET
	npsn = EXCLUDED.npsn,
	name = EXCLUDED.name,
	province = EXCLUDED.province,
	city = EXCLUDED.city,
	district = EXCLUDED.district,
	village = EXCLUDED.village,
	updated_at = now()`
)

func (repo *AddressRepository) GetAddress(ctx context.Context, userID int) (region.AddressRecord, error) {
	var rec region.AddressRecord
	if err := repo.db.GetContext(ctx, &rec, selectAddress, userID); err != nil {
		return region.AddressRecord{}, trapNoRowsErr(err, "selecting address")
	}
	return rec, nil
}

func (repo *AddressRepository) UpsertAddress(ctx context.Context, userID int, rec region.AddressRecord) error {
	if _, err := repo.db.NamedExecContext(ctx, upsertAddress, addressRow{UserID: userID, AddressRecord: rec}); err != nil {
		return errors.Wrap(err, "upserting address")
	}
	return nil
}

func (repo *AddressRepository) GetPriorSchool(ctx context.Context, userID int) (applicant.PriorSchool, error) {
	var ps applicant.PriorSchool
	if err := repo.db.GetContext(ctx, &ps, selectPriorSchool, userID); err != nil {
		return applicant.PriorSchool{}, trapNoRowsErr(err, "selecting prior school")
	}
	return ps, nil
}

func (repo *AddressRepository) UpsertPriorSchool(ctx context.Context, userID int, ps applicant.PriorSchool) error {
	if _, err := repo.db.NamedExecContext(ctx, upsertPriorSchool, priorSchoolRow{UserID: userID, PriorSchool: ps}); err != nil {
		return errors.Wrap(err, "upserting prior school")
	}
	return nil
}
