package regionsrc

import (
	"context"

	"github.com/trezcool/ppdb/core/region"
)

// Entry is one region of a MemorySource hierarchy.
type Entry struct {
	ID       region.NodeID
	Name     string
	Children []Entry
}

// MemorySource serves a fixed hierarchy. It backs development setups without a region API, and tests.
type MemorySource struct {
	children map[region.NodeID]region.Nodes
}

var _ region.Source = (*MemorySource)(nil)

// NewMemorySource indexes provinces by parent id. Entries with an empty id are skipped with their subtree.
func NewMemorySource(provinces []Entry) *MemorySource {
	src := &MemorySource{children: make(map[region.NodeID]region.Nodes)}
	src.add(region.Unset, provinces, 0)
	return src
}

func (src *MemorySource) add(parent region.NodeID, entries []Entry, depth int) {
	if depth >= len(region.Levels) {
		return
	}
	nodes := make(region.Nodes, 0, len(entries))
	for _, e := range entries {
		if !e.ID.IsSet() {
			continue
		}
		nodes = append(nodes, region.Node{ID: e.ID, Name: e.Name})
		src.add(e.ID, e.Children, depth+1)
	}
	src.children[parent] = nodes
}

func (src *MemorySource) list(ctx context.Context, parent region.NodeID) (region.Nodes, error) {
	if err := ctx.Err(); err != nil {
		return nil, region.ErrSourceUnavailable
	}
	nodes := src.children[parent]
	return append(make(region.Nodes, 0, len(nodes)), nodes...), nil
}

func (src *MemorySource) ListProvinces(ctx context.Context) (region.Nodes, error) {
	return src.list(ctx, region.Unset)
}

func (src *MemorySource) ListCities(ctx context.Context, provinceID region.NodeID) (region.Nodes, error) {
	if !provinceID.IsSet() {
		return region.Nodes{}, nil
	}
	return src.list(ctx, provinceID)
}

func (src *MemorySource) ListDistricts(ctx context.Context, cityID region.NodeID) (region.Nodes, error) {
	if !cityID.IsSet() {
		return region.Nodes{}, nil
	}
	return src.list(ctx, cityID)
}

func (src *MemorySource) ListVillages(ctx context.Context, districtID region.NodeID) (region.Nodes, error) {
	if !districtID.IsSet() {
		return region.Nodes{}, nil
	}
	return src.list(ctx, districtID)
}

// Sample is a small slice of the real hierarchy, enough to fill an address in development.
var Sample = []Entry{
	{ID: "32", Name: "JAWA BARAT", Children: []Entry{
		{ID: "3273", Name: "KOTA BANDUNG", Children: []Entry{
			{ID: "3273230", Name: "COBLONG", Children: []Entry{
				{ID: "3273230001", Name: "DAGO"},
				{ID: "3273230002", Name: "LEBAK GEDE"},
				{ID: "3273230003", Name: "SADANG SERANG"},
			}},
			{ID: "3273010", Name: "SUKASARI", Children: []Entry{
				{ID: "3273010001", Name: "GEGERKALONG"},
				{ID: "3273010002", Name: "ISOLA"},
			}},
		}},
		{ID: "3201", Name: "KABUPATEN BOGOR", Children: []Entry{
			{ID: "3201010", Name: "CIBINONG", Children: []Entry{
				{ID: "3201010001", Name: "PAKANSARI"},
				{ID: "3201010002", Name: "TENGAH"},
			}},
		}},
	}},
	{ID: "33", Name: "JAWA TENGAH", Children: []Entry{
		{ID: "3374", Name: "KOTA SEMARANG", Children: []Entry{
			{ID: "3374050", Name: "CANDISARI", Children: []Entry{
				{ID: "3374050001", Name: "JATINGALEH"},
			}},
		}},
	}},
	{ID: "34", Name: "DI YOGYAKARTA", Children: []Entry{
		{ID: "3471", Name: "KOTA YOGYAKARTA", Children: []Entry{
			{ID: "3471100", Name: "GONDOKUSUMAN", Children: []Entry{
				{ID: "3471100001", Name: "TERBAN"},
				{ID: "3471100002", Name: "KOTABARU"},
			}},
		}},
	}},
}
