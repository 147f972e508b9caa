package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ppdb/core/region"
)

func TestRegionAPI(t *testing.T) {
	app := newTestApp(t)
	userToken := getToken(t, 1, RoleUser)
	adminToken := getToken(t, 9, RoleAdmin)

	tests := []struct {
		name     string
		path     string
		token    string
		wantCode int
		wantIDs  []region.NodeID
	}{
		{name: "no token", path: "/v1/regions/provinces", wantCode: http.StatusUnauthorized},
		{name: "provinces", path: "/v1/regions/provinces", token: userToken, wantCode: http.StatusOK, wantIDs: []region.NodeID{"32", "33", "34"}},
		{name: "provinces (admin)", path: "/v1/regions/provinces/", token: adminToken, wantCode: http.StatusOK, wantIDs: []region.NodeID{"32", "33", "34"}},
		{name: "cities", path: "/v1/regions/provinces/32/cities", token: userToken, wantCode: http.StatusOK, wantIDs: []region.NodeID{"3273", "3201"}},
		{name: "districts", path: "/v1/regions/cities/3273/districts", token: userToken, wantCode: http.StatusOK, wantIDs: []region.NodeID{"3273230", "3273010"}},
		{name: "villages", path: "/v1/regions/districts/3374050/villages", token: userToken, wantCode: http.StatusOK, wantIDs: []region.NodeID{"3374050001"}},
		{name: "unknown parent", path: "/v1/regions/provinces/99/cities", token: userToken, wantCode: http.StatusOK, wantIDs: []region.NodeID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodGet, tt.path, tt.token, nil)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantIDs == nil {
				return
			}
			var nodes region.Nodes
			decode(t, rec, &nodes)
			ids := make([]region.NodeID, 0, len(nodes))
			for _, n := range nodes {
				ids = append(ids, n.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

type downSource struct{}

func (downSource) ListProvinces(context.Context) (region.Nodes, error) {
	return nil, region.ErrSourceUnavailable
}
func (downSource) ListCities(context.Context, region.NodeID) (region.Nodes, error) {
	return nil, region.ErrSourceUnavailable
}
func (downSource) ListDistricts(context.Context, region.NodeID) (region.Nodes, error) {
	return nil, region.ErrSourceUnavailable
}
func (downSource) ListVillages(context.Context, region.NodeID) (region.Nodes, error) {
	return nil, region.ErrSourceUnavailable
}

func TestRegionAPI_Unavailable(t *testing.T) {
	app := newTestApp(t, downSource{})

	rec := app.do(t, http.MethodGet, "/v1/regions/provinces", getToken(t, 1, RoleUser), nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body httpErr
	decode(t, rec, &body)
	assert.Equal(t, "region data is unavailable, try again later", body.Error)
}
