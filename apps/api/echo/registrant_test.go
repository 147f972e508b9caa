package echoapi

import (
	"encoding/csv"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ppdb/core/applicant"
)

func TestRegistrantAPI_Query(t *testing.T) {
	app := newTestApp(t)
	app.seed()
	adminToken := getToken(t, 9, RoleAdmin)

	tests := []struct {
		name      string
		path      string
		token     string
		wantCode  int
		wantCodes []string
		wantPages int
	}{
		{name: "no token", path: "/v1/registrants", wantCode: http.StatusUnauthorized},
		{name: "not admin", path: "/v1/registrants", token: getToken(t, 1, RoleUser), wantCode: http.StatusForbidden},
		{name: "all", path: "/v1/registrants", token: adminToken, wantCode: http.StatusOK, wantCodes: []string{"PPDB-0002", "PPDB-0001"}, wantPages: 1},
		{name: "ordered by name", path: "/v1/registrants?ordering=name", token: adminToken, wantCode: http.StatusOK, wantCodes: []string{"PPDB-0002", "PPDB-0001"}, wantPages: 1},
		{name: "ordered by code desc", path: "/v1/registrants?ordering=-registration_code", token: adminToken, wantCode: http.StatusOK, wantCodes: []string{"PPDB-0002", "PPDB-0001"}, wantPages: 1},
		{name: "search", path: "/v1/registrants?search=siti", token: adminToken, wantCode: http.StatusOK, wantCodes: []string{"PPDB-0001"}, wantPages: 1},
		{name: "status", path: "/v1/registrants?status=VERIFIED", token: adminToken, wantCode: http.StatusOK, wantCodes: []string{"PPDB-0002"}, wantPages: 1},
		{name: "level", path: "/v1/registrants?level=2", token: adminToken, wantCode: http.StatusOK, wantCodes: []string{"PPDB-0001"}, wantPages: 1},
		{name: "no match", path: "/v1/registrants?search=lol", token: adminToken, wantCode: http.StatusOK, wantCodes: []string{}, wantPages: 0},
		{name: "page 2", path: "/v1/registrants?page=2&limit=1", token: adminToken, wantCode: http.StatusOK, wantCodes: []string{"PPDB-0001"}, wantPages: 2},
		{name: "invalid level", path: "/v1/registrants?level=lol", token: adminToken, wantCode: http.StatusBadRequest},
		{name: "unknown ordering", path: "/v1/registrants?ordering=name,-nisn", token: adminToken, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodGet, tt.path, tt.token, nil)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCodes == nil {
				return
			}
			var list RegistrantList
			decode(t, rec, &list)
			codes := make([]string, 0, len(list.Registrants))
			for _, reg := range list.Registrants {
				codes = append(codes, reg.RegistrationCode)
			}
			assert.Equal(t, tt.wantCodes, codes)
			assert.Equal(t, tt.wantPages, list.TotalPages)
		})
	}
}

func TestRegistrantAPI_Retrieve(t *testing.T) {
	app := newTestApp(t)
	app.seed()
	selfToken := getToken(t, 1, RoleUser)
	require.Equal(t, http.StatusOK, app.do(t, http.MethodPost, "/v1/form/address", selfToken, dago).Code)

	tests := []struct {
		name     string
		path     string
		token    string
		wantCode int
	}{
		{name: "self", path: "/v1/registrants/1", token: selfToken, wantCode: http.StatusOK},
		{name: "admin", path: "/v1/registrants/1", token: getToken(t, 9, RoleAdmin), wantCode: http.StatusOK},
		{name: "another applicant", path: "/v1/registrants/1", token: getToken(t, 2, RoleUser), wantCode: http.StatusNotFound},
		{name: "unknown", path: "/v1/registrants/42", token: getToken(t, 9, RoleAdmin), wantCode: http.StatusNotFound},
		{name: "not an id", path: "/v1/registrants/lol", token: getToken(t, 9, RoleAdmin), wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodGet, tt.path, tt.token, nil)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}
			var detail applicant.RegistrantDetail
			decode(t, rec, &detail)
			assert.Equal(t, "PPDB-0001", detail.RegistrationCode)
			require.NotNil(t, detail.Address)
			assert.Equal(t, dago, *detail.Address)
			assert.Nil(t, detail.PriorSchool)
		})
	}
}

func TestRegistrantAPI_SetStatus(t *testing.T) {
	app := newTestApp(t)
	app.seed()
	adminToken := getToken(t, 9, RoleAdmin)

	rec := app.do(t, http.MethodPut, "/v1/registrants/1/status", getToken(t, 1, RoleUser), map[string]string{"status": "accepted"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(t, http.MethodPut, "/v1/registrants/1/status", adminToken, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var fldErrs map[string]string
	decode(t, rec, &fldErrs)
	assert.Equal(t, map[string]string{"status": "must be one of: pending, verified, accepted, rejected"}, fldErrs)

	rec = app.do(t, http.MethodPut, "/v1/registrants/42/status", adminToken, map[string]string{"status": "accepted"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodPut, "/v1/registrants/1/status", adminToken, map[string]string{"status": "Accepted"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var reg applicant.Registrant
	decode(t, rec, &reg)
	assert.Equal(t, applicant.StatusAccepted, reg.Status)

	sent := app.mailSvc.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "siti@mail.test", sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, "PPDB-0001 is now: accepted")
	assert.Contains(t, sent[0].HTMLContent, "https://ppdb.test/formulir")
}

func TestRegistrantAPI_Export(t *testing.T) {
	app := newTestApp(t)
	app.seed()
	adminToken := getToken(t, 9, RoleAdmin)
	require.Equal(t, http.StatusOK, app.do(t, http.MethodPost, "/v1/form/address", getToken(t, 2, RoleUser), dago).Code)
	require.Equal(t, http.StatusOK, app.do(t, http.MethodPost, "/v1/form/prior-school", getToken(t, 2, RoleUser),
		applicant.PriorSchool{NPSN: "20219000", Name: "SMP Negeri 2 Bandung", Province: "JAWA BARAT"}).Code)

	rec := app.do(t, http.MethodGet, "/v1/registrants/export", adminToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var fldErrs map[string]string
	decode(t, rec, &fldErrs)
	assert.Equal(t, map[string]string{"academic_year": "this field is required"}, fldErrs)

	rec = app.do(t, http.MethodGet, "/v1/registrants/export", getToken(t, 1, RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(t, http.MethodGet, "/v1/registrants/export?academic_year=2024/2025", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	assert.Equal(t, `attachment; filename="registrants-2024-2025.csv"`, rec.Header().Get("Content-Disposition"))

	lines, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, applicant.ExportHeader, lines[0])
	assert.Equal(t, []string{"PPDB-0001", "PPDB-0002"}, []string{lines[1][0], lines[2][0]})
	assert.Equal(t, "DAGO", lines[2][14])
	assert.Equal(t, "SMP Negeri 2 Bandung", lines[2][20])
	assert.Equal(t, "", lines[1][14])
}

func TestPriorSchoolAPI(t *testing.T) {
	app := newTestApp(t)
	token := getToken(t, 1, RoleUser)

	rec := app.do(t, http.MethodGet, "/v1/form/prior-school", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodPost, "/v1/form/prior-school", token, map[string]string{"name": "  ", "npsn": "abc"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var fldErrs map[string]string
	decode(t, rec, &fldErrs)
	assert.Equal(t, "this field is required", fldErrs["name"])
	assert.Contains(t, fldErrs, "npsn")

	rec = app.do(t, http.MethodPost, "/v1/form/prior-school", token, map[string]string{"name": " SMP Negeri 2 Bandung ", "city": "KOTA BANDUNG"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/v1/form/prior-school", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ps applicant.PriorSchool
	decode(t, rec, &ps)
	assert.Equal(t, applicant.PriorSchool{Name: "SMP Negeri 2 Bandung", City: "KOTA BANDUNG"}, ps)
}
