package regionsrc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ppdb/core/region"
)

func TestMemorySource(t *testing.T) {
	src := NewMemorySource(Sample)
	ctx := context.Background()

	provinces, err := src.ListProvinces(ctx)
	require.NoError(t, err)
	assert.Len(t, provinces, 3)
	assert.Equal(t, region.Node{ID: "32", Name: "JAWA BARAT"}, provinces[0])

	villages, err := src.ListVillages(ctx, "3273230")
	require.NoError(t, err)
	assert.Equal(t, "DAGO", villages[0].Name)

	// results are copies
	villages[0].Name = "changed"
	again, _ := src.ListVillages(ctx, "3273230")
	assert.Equal(t, "DAGO", again[0].Name)

	none, err := src.ListDistricts(ctx, region.Unset)
	require.NoError(t, err)
	assert.Empty(t, none)

	unknown, err := src.ListCities(ctx, "99")
	require.NoError(t, err)
	assert.Empty(t, unknown)
}

func TestMemorySource_SkipsEmptyIDs(t *testing.T) {
	src := NewMemorySource([]Entry{
		{ID: "", Name: "ghost", Children: []Entry{{ID: "x", Name: "orphan"}}},
		{ID: "1", Name: "real"},
	})
	provinces, err := src.ListProvinces(context.Background())
	require.NoError(t, err)
	assert.Equal(t, region.Nodes{{ID: "1", Name: "real"}}, provinces)

	orphans, _ := src.ListCities(context.Background(), "x")
	assert.Empty(t, orphans)
}

func TestMemorySource_FullResolution(t *testing.T) {
	src := NewMemorySource(Sample)
	rec := &region.AddressRecord{
		Province: "JAWA BARAT", City: "KOTA BANDUNG", District: "COBLONG", Village: "DAGO",
		TransportMode: "Jalan Kaki",
	}

	res := region.Resolve(context.Background(), src, rec)
	require.NoError(t, res.Err)
	assert.Equal(t, 4, res.Depth())

	got, err := region.ToRecord(res.Selection, res.Nodes, rec.Freeform())
	require.NoError(t, err)
	assert.Equal(t, *rec, got)
}
