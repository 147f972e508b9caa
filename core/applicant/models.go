package applicant

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ppdb/core"
	"github.com/trezcool/ppdb/core/region"
)

// Registration statuses
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

var (
	Statuses = []string{StatusPending, StatusVerified, StatusAccepted, StatusRejected}

	// TransportModes are the ways an applicant can travel to school.
	TransportModes = []string{"Mobil Pribadi", "Motor", "Angkutan Umum", "Jemputan", "Jalan Kaki", "Sepeda"}

	// OrderingFields are the fields registrant listings can be ordered by.
	OrderingFields = []string{"name", "registration_code", "created_at"}
)

// Registrant is an applicant's registration as listed to admins.
type Registrant struct {
	UserID           int         `json:"user_id" db:"user_id" boil:"user_id"`
	RegistrationCode string      `json:"registration_code" db:"registration_code" boil:"registration_code"`
	Status           string      `json:"status" db:"status" boil:"status"`
	NISN             string      `json:"nisn" db:"nisn" boil:"nisn"`
	Name             string      `json:"name" db:"name" boil:"name"`
	LevelID          null.Int    `json:"level_id" db:"level_id" boil:"level_id"`
	Level            null.String `json:"level" db:"level" boil:"level"`
	School           null.String `json:"school" db:"school" boil:"school"`
	AcademicYearID   null.Int    `json:"academic_year_id" db:"academic_year_id" boil:"academic_year_id"`
	AcademicYear     null.String `json:"academic_year" db:"academic_year" boil:"academic_year"`
	UserName         string      `json:"user_name" db:"user_name" boil:"user_name"`
	UserPhone        string      `json:"user_phone" db:"user_phone" boil:"user_phone"`
	UserEmail        string      `json:"user_email" db:"user_email" boil:"user_email"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at" boil:"created_at"` // UTC
}

// RegistrantDetail is a Registrant with the address and prior school the applicant filled, if any.
type RegistrantDetail struct {
	Registrant
	Address     *region.AddressRecord `json:"address"`
	PriorSchool *PriorSchool          `json:"prior_school"`
}

// PriorSchool is the school an applicant comes from. Its regions are stored by name.
type PriorSchool struct {
	NPSN     string `json:"npsn" db:"npsn" validate:"omitempty,numeric,max=20"`
	Name     string `json:"name" db:"name" validate:"required,notblank"`
	Province string `json:"province" db:"province"`
	City     string `json:"city" db:"city"`
	District string `json:"district" db:"district"`
	Village  string `json:"village" db:"village"`
}

func (ps *PriorSchool) Validate(validate *validator.Validate) error {
	ps.NPSN = core.CleanString(ps.NPSN)
	ps.Name = core.CleanString(ps.Name)
	ps.Province = core.CleanString(ps.Province)
	ps.City = core.CleanString(ps.City)
	ps.District = core.CleanString(ps.District)
	ps.Village = core.CleanString(ps.Village)
	return validate.Struct(ps)
}

// AddressFields are the typed-in parts of an address.
type AddressFields struct {
	StreetAddress string       `json:"street_address"`
	PostalCode    string       `json:"postal_code" validate:"omitempty,numeric,max=10"`
	DistanceKm    null.Float64 `json:"distance_km" validate:"omitempty,gte=0"`
	TransportMode string       `json:"transport_mode" validate:"omitempty,transport"`
}

func (af *AddressFields) clean() {
	af.StreetAddress = core.CleanString(af.StreetAddress)
	af.PostalCode = core.CleanString(af.PostalCode)
	af.TransportMode = core.CleanString(af.TransportMode)
}

func (af *AddressFields) Validate(validate *validator.Validate) error {
	af.clean()
	return validate.Struct(af)
}

func (af AddressFields) Freeform() region.Freeform {
	return region.Freeform{
		StreetAddress: af.StreetAddress,
		PostalCode:    af.PostalCode,
		DistanceKm:    af.DistanceKm,
		TransportMode: af.TransportMode,
	}
}

// UpdateAddress is a whole name-based address sent by a client that resolved regions itself.
type UpdateAddress struct {
	Province string `json:"province"`
	City     string `json:"city"`
	District string `json:"district"`
	Village  string `json:"village"`
	AddressFields
}

func (ua *UpdateAddress) Validate(validate *validator.Validate) error {
	ua.Province = core.CleanString(ua.Province)
	ua.City = core.CleanString(ua.City)
	ua.District = core.CleanString(ua.District)
	ua.Village = core.CleanString(ua.Village)
	ua.clean()
	return validate.Struct(ua)
}

func (ua UpdateAddress) Record() region.AddressRecord {
	rec := region.AddressRecord{
		Province:      ua.Province,
		City:          ua.City,
		District:      ua.District,
		Village:       ua.Village,
		StreetAddress: ua.StreetAddress,
		PostalCode:    ua.PostalCode,
		DistanceKm:    ua.DistanceKm,
		TransportMode: ua.TransportMode,
	}
	return rec
}

type UpdateStatus struct {
	Status string `json:"status" validate:"required,regstatus"`
}

func (us *UpdateStatus) Validate(validate *validator.Validate) error {
	us.Status = core.CleanString(us.Status, true /* lower */)
	return validate.Struct(us)
}

type QueryFilter struct {
	Search  string `query:"search"`
	Status  string `query:"status"`
	LevelID int    `query:"level"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

func (qf QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Status == "" && qf.LevelID == 0
}
