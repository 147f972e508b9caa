package applicant_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ppdb/core"
	"github.com/trezcool/ppdb/core/applicant"
	"github.com/trezcool/ppdb/core/region"
	appfs "github.com/trezcool/ppdb/fs"
	emailsvc "github.com/trezcool/ppdb/services/email"
	dummydb "github.com/trezcool/ppdb/storage/database/dummy"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newService(t *testing.T) (*applicant.Service, *dummydb.DB, *emailsvc.ConsoleServiceMock) {
	t.Helper()
	require.NoError(t, core.ParseEmailTemplates(appfs.FS))
	db, err := dummydb.Open()
	require.NoError(t, err)
	mailSvc := emailsvc.NewConsoleServiceMock(nopLogger{}, &core.Config{AppName: "PPDB", FrontendBaseURL: "https://ppdb.test"})
	return applicant.NewService(dummydb.NewApplicantRepository(db), mailSvc, nopLogger{}), db, mailSvc
}

func newValidator(t *testing.T) (*validator.Validate, ut.Translator) {
	t.Helper()
	validate := validator.New()
	translator, _ := ut.New(en.New()).GetTranslator("en")
	require.NoError(t, core.InitValidators(validate, translator))
	require.NoError(t, applicant.RegisterValidators(validate, translator))
	return validate, translator
}

func seed(db *dummydb.DB) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	db.AddRegistrant(applicant.Registrant{
		UserID: 1, RegistrationCode: "PPDB-0001", Status: applicant.StatusPending, Name: "Siti Aminah",
		NISN: "0051234567", LevelID: null.IntFrom(2), Level: null.StringFrom("SMA"),
		AcademicYear: null.StringFrom("2024/2025"), UserName: "Siti Aminah", UserEmail: "siti@mail.test",
		CreatedAt: now,
	})
	db.AddRegistrant(applicant.Registrant{
		UserID: 2, RegistrationCode: "PPDB-0002", Status: applicant.StatusVerified, Name: "Budi Santoso",
		LevelID: null.IntFrom(1), Level: null.StringFrom("SMP"),
		AcademicYear: null.StringFrom("2024/2025"), UserName: "Budi Santoso",
		CreatedAt: now.Add(time.Hour),
	})
}

func TestService_Address(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	rec, err := svc.FindAddress(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, rec)
	_, err = svc.GetAddress(ctx, 1)
	assert.Equal(t, applicant.ErrNotFound, errors.Cause(err))

	want := region.AddressRecord{Province: "JAWA BARAT", City: "KOTA BANDUNG", TransportMode: "Motor"}
	require.NoError(t, svc.SaveAddress(ctx, 1, want))
	rec, err = svc.FindAddress(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, &want, rec)
}

func TestService_QueryRegistrants(t *testing.T) {
	svc, db, _ := newService(t)
	seed(db)
	ctx := context.Background()

	regs, pages, err := svc.QueryRegistrants(ctx, applicant.QueryFilter{}, core.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
	require.Len(t, regs, 2)
	assert.Equal(t, "PPDB-0002", regs[0].RegistrationCode)

	regs, pages, err = svc.QueryRegistrants(ctx, applicant.QueryFilter{Search: " siti "}, core.Page{Number: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
	require.Len(t, regs, 1)
	assert.Equal(t, 1, regs[0].UserID)

	regs, pages, err = svc.QueryRegistrants(ctx, applicant.QueryFilter{}, core.Page{Number: 2, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, pages)
	require.Len(t, regs, 1)
	assert.Equal(t, "PPDB-0001", regs[0].RegistrationCode)

	regs, _, err = svc.QueryRegistrants(ctx, applicant.QueryFilter{LevelID: 1, Status: "VERIFIED"}, core.Page{})
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "Budi Santoso", regs[0].Name)
}

func TestService_GetRegistrant(t *testing.T) {
	svc, db, _ := newService(t)
	seed(db)
	ctx := context.Background()

	require.NoError(t, svc.SavePriorSchool(ctx, 1, applicant.PriorSchool{Name: "SMP Negeri 2 Bandung"}))
	detail, err := svc.GetRegistrant(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, detail.Address)
	require.NotNil(t, detail.PriorSchool)
	assert.Equal(t, "SMP Negeri 2 Bandung", detail.PriorSchool.Name)

	_, err = svc.GetRegistrant(ctx, 42)
	assert.Equal(t, applicant.ErrNotFound, errors.Cause(err))
}

func TestService_SetStatus(t *testing.T) {
	svc, db, mailSvc := newService(t)
	seed(db)
	ctx := context.Background()

	reg, err := svc.SetStatus(ctx, 1, applicant.StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, applicant.StatusAccepted, reg.Status)

	sent := mailSvc.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "siti@mail.test", sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, "PPDB-0001 is now: accepted")

	// unchanged status: no mail
	_, err = svc.SetStatus(ctx, 1, applicant.StatusAccepted)
	require.NoError(t, err)
	assert.Len(t, mailSvc.Sent(), 1)

	// no email address: nothing sent
	_, err = svc.SetStatus(ctx, 2, applicant.StatusRejected)
	require.NoError(t, err)
	assert.Len(t, mailSvc.Sent(), 1)

	_, err = svc.SetStatus(ctx, 42, applicant.StatusRejected)
	assert.Equal(t, applicant.ErrNotFound, errors.Cause(err))
}

func TestService_Export(t *testing.T) {
	svc, db, _ := newService(t)
	seed(db)
	ctx := context.Background()
	require.NoError(t, svc.SaveAddress(ctx, 2, region.AddressRecord{
		Province: "JAWA BARAT", City: "KOTA BOGOR", DistanceKm: null.Float64From(3.25), TransportMode: "Jalan Kaki",
	}))

	_, err := svc.Export(ctx, " ")
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "academic_year", vErr.Fields[0].Field)

	details, err := svc.Export(ctx, "2024/2025")
	require.NoError(t, err)
	require.Len(t, details, 2)

	var buf bytes.Buffer
	require.NoError(t, applicant.WriteCSV(&buf, details))
	lines, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, applicant.ExportHeader, lines[0])
	assert.Equal(t, "PPDB-0001", lines[1][0])
	assert.Equal(t, "", lines[1][11]) // no address
	assert.Equal(t, "KOTA BOGOR", lines[2][12])
	assert.Equal(t, "3.25", lines[2][17])
	assert.Equal(t, "Jalan Kaki", lines[2][18])
	for _, l := range lines {
		assert.Len(t, l, len(applicant.ExportHeader))
	}
}

func TestValidation(t *testing.T) {
	validate, translator := newValidator(t)

	t.Run("address", func(t *testing.T) {
		ua := applicant.UpdateAddress{
			Province: " JAWA BARAT ",
			AddressFields: applicant.AddressFields{
				PostalCode:    "40l35",
				DistanceKm:    null.Float64From(-1),
				TransportMode: "Helicopter",
			},
		}
		err := ua.Validate(validate)
		var vErrs validator.ValidationErrors
		require.True(t, errors.As(err, &vErrs))

		msgs := make(map[string]string)
		for _, fe := range vErrs {
			msgs[fe.Field()] = fe.Translate(translator)
		}
		assert.Contains(t, msgs["transport_mode"], "Mobil Pribadi")
		assert.Contains(t, msgs, "postal_code")
		assert.Contains(t, msgs, "distance_km")
		assert.Equal(t, "JAWA BARAT", ua.Province)

		ok := applicant.UpdateAddress{AddressFields: applicant.AddressFields{TransportMode: "Angkutan Umum"}}
		assert.NoError(t, ok.Validate(validate))
		assert.Equal(t, region.AddressRecord{TransportMode: "Angkutan Umum"}, ok.Record())
	})

	t.Run("status", func(t *testing.T) {
		us := applicant.UpdateStatus{Status: " Accepted "}
		assert.NoError(t, us.Validate(validate))
		assert.Equal(t, applicant.StatusAccepted, us.Status)

		us = applicant.UpdateStatus{Status: "approved"}
		err := us.Validate(validate)
		var vErrs validator.ValidationErrors
		require.True(t, errors.As(err, &vErrs))
		assert.Equal(t, "must be one of: pending, verified, accepted, rejected", vErrs[0].Translate(translator))
	})

	t.Run("prior school", func(t *testing.T) {
		ps := applicant.PriorSchool{Name: "   "}
		assert.Error(t, ps.Validate(validate))
		ps = applicant.PriorSchool{Name: " SMP Negeri 2 ", NPSN: "20219000"}
		assert.NoError(t, ps.Validate(validate))
		assert.Equal(t, "SMP Negeri 2", ps.Name)
	})
}
