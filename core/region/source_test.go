package region

import (
	"context"
	"sync"
)

// fakeSource serves a small fixed hierarchy. Queries for a parent listed in gates block
// until the gate is closed; levels in failing return ErrSourceUnavailable.
type fakeSource struct {
	mu       sync.Mutex
	tree     map[NodeID]Nodes // parent id ("" for provinces): children
	failing  map[Level]bool
	gates    map[NodeID]chan struct{}
	entered  chan NodeID
	queried  []Level
	parentOf []NodeID
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		tree: map[NodeID]Nodes{
			Unset: {{ID: "32", Name: "Jawa Barat"}, {ID: "33", Name: "Jawa Tengah"}},
			"32":  {{ID: "3201", Name: "Bogor"}, {ID: "3273", Name: "Bandung"}},
			"33":  {{ID: "3374", Name: "Semarang"}},
			"3273": {
				{ID: "327301", Name: "Sukasari"},
				{ID: "327312", Name: "Coblong"},
			},
			"3201":   {{ID: "320101", Name: "Cibinong"}},
			"327312": {{ID: "3273121001", Name: "Dago"}, {ID: "3273121002", Name: "Lebakgede"}},
			"320101": {{ID: "3201011001", Name: "Pakansari"}},
			"3374":   {{ID: "337401", Name: "Candisari"}},
		},
		failing: map[Level]bool{},
		gates:   map[NodeID]chan struct{}{},
		entered: make(chan NodeID, 16),
	}
}

func (f *fakeSource) gate(parent NodeID) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[parent] = ch
	return ch
}

func (f *fakeSource) fail(l Level) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[l] = true
}

func (f *fakeSource) heal(l Level) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failing, l)
}

func (f *fakeSource) calls() []Level {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Level(nil), f.queried...)
}

func (f *fakeSource) list(ctx context.Context, l Level, parent NodeID) (Nodes, error) {
	f.mu.Lock()
	f.queried = append(f.queried, l)
	f.parentOf = append(f.parentOf, parent)
	gate := f.gates[parent]
	failing := f.failing[l]
	nodes := f.tree[parent]
	f.mu.Unlock()

	if gate != nil {
		f.entered <- parent
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ErrSourceUnavailable
		}
	}
	if failing {
		return nil, ErrSourceUnavailable
	}
	return append(Nodes{}, nodes...), nil
}

func (f *fakeSource) ListProvinces(ctx context.Context) (Nodes, error) {
	return f.list(ctx, Province, Unset)
}

func (f *fakeSource) ListCities(ctx context.Context, id NodeID) (Nodes, error) {
	return f.list(ctx, City, id)
}

func (f *fakeSource) ListDistricts(ctx context.Context, id NodeID) (Nodes, error) {
	return f.list(ctx, District, id)
}

func (f *fakeSource) ListVillages(ctx context.Context, id NodeID) (Nodes, error) {
	return f.list(ctx, Village, id)
}

func dagoRecord() *AddressRecord {
	return &AddressRecord{
		Province:      "Jawa Barat",
		City:          "Bandung",
		District:      "Coblong",
		Village:       "Dago",
		StreetAddress: "Jl. Ir. H. Juanda 12",
		PostalCode:    "40135",
		TransportMode: "Motor",
	}
}
