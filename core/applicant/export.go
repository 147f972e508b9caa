package applicant

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// ExportHeader is the first CSV line written by WriteCSV.
var ExportHeader = []string{
	"registration_code", "status", "nisn", "name", "level", "school", "academic_year",
	"user_name", "user_phone", "user_email", "created_at",
	"province", "city", "district", "village", "street_address", "postal_code", "distance_km", "transport_mode",
	"prior_school_npsn", "prior_school_name", "prior_school_province", "prior_school_city",
	"prior_school_district", "prior_school_village",
}

func (d RegistrantDetail) csvRecord() []string {
	rec := []string{
		d.RegistrationCode, d.Status, d.NISN, d.Name, d.Level.String, d.School.String, d.AcademicYear.String,
		d.UserName, d.UserPhone, d.UserEmail, d.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
	if a := d.Address; a != nil {
		var distance string
		if a.DistanceKm.Valid {
			distance = strconv.FormatFloat(a.DistanceKm.Float64, 'f', -1, 64)
		}
		rec = append(rec, a.Province, a.City, a.District, a.Village, a.StreetAddress, a.PostalCode, distance, a.TransportMode)
	} else {
		rec = append(rec, make([]string, 8)...)
	}
	if ps := d.PriorSchool; ps != nil {
		rec = append(rec, ps.NPSN, ps.Name, ps.Province, ps.City, ps.District, ps.Village)
	} else {
		rec = append(rec, make([]string, 6)...)
	}
	return rec
}

// WriteCSV writes the header then one line per registrant.
func WriteCSV(w io.Writer, details []RegistrantDetail) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	for _, d := range details {
		if err := cw.Write(d.csvRecord()); err != nil {
			return errors.Wrapf(err, "writing registrant %s", d.RegistrationCode)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}
