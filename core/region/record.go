package region

import (
	"github.com/volatiletech/null/v8"
)

// FieldCount is the number of AddressRecord fields an applicant fills.
const FieldCount = 8

// AddressRecord is the persisted address of an applicant.
// Regions are stored by name; ids never reach storage.
type AddressRecord struct {
	Province      string       `json:"province" db:"province"`
	City          string       `json:"city" db:"city"`
	District      string       `json:"district" db:"district"`
	Village       string       `json:"village" db:"village"`
	StreetAddress string       `json:"street_address" db:"street_address"`
	PostalCode    string       `json:"postal_code" db:"postal_code"`
	DistanceKm    null.Float64 `json:"distance_km" db:"distance_km"`
	TransportMode string       `json:"transport_mode" db:"transport_mode"`
}

// Freeform holds the address fields that are typed in rather than picked from the hierarchy.
type Freeform struct {
	StreetAddress string       `json:"street_address"`
	PostalCode    string       `json:"postal_code"`
	DistanceKm    null.Float64 `json:"distance_km"`
	TransportMode string       `json:"transport_mode"`
}

// Name returns the region name stored for level l.
func (r AddressRecord) Name(l Level) string {
	switch l {
	case Province:
		return r.Province
	case City:
		return r.City
	case District:
		return r.District
	case Village:
		return r.Village
	}
	return ""
}

func (r *AddressRecord) setName(l Level, name string) {
	switch l {
	case Province:
		r.Province = name
	case City:
		r.City = name
	case District:
		r.District = name
	case Village:
		r.Village = name
	}
}

// HasHierarchy reports whether all four region names are present.
func (r AddressRecord) HasHierarchy() bool {
	for _, l := range Levels {
		if r.Name(l) == "" {
			return false
		}
	}
	return true
}

func (r AddressRecord) Freeform() Freeform {
	return Freeform{
		StreetAddress: r.StreetAddress,
		PostalCode:    r.PostalCode,
		DistanceKm:    r.DistanceKm,
		TransportMode: r.TransportMode,
	}
}

// Filled counts the non-empty fields, out of FieldCount.
func (r AddressRecord) Filled() int {
	n := 0
	for _, l := range Levels {
		if r.Name(l) != "" {
			n++
		}
	}
	for _, s := range []string{r.StreetAddress, r.PostalCode, r.TransportMode} {
		if s != "" {
			n++
		}
	}
	if r.DistanceKm.Valid {
		n++
	}
	return n
}

func (ff Freeform) merge(r *AddressRecord) {
	r.StreetAddress = ff.StreetAddress
	r.PostalCode = ff.PostalCode
	r.DistanceKm = ff.DistanceKm
	r.TransportMode = ff.TransportMode
}
