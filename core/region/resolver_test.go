package region

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		rec       *AddressRecord
		failing   []Level
		wantIDs   [levelCount]NodeID
		wantCalls []Level
		wantErr   bool
	}{
		{
			name:      "full match",
			rec:       dagoRecord(),
			wantIDs:   [levelCount]NodeID{"32", "3273", "327312", "3273121001"},
			wantCalls: []Level{Province, City, District, Village},
		},
		{
			name: "unknown district",
			rec: func() *AddressRecord {
				rec := dagoRecord()
				rec.District = "Dayeuhkolot"
				return rec
			}(),
			wantIDs:   [levelCount]NodeID{"32", "3273"},
			wantCalls: []Level{Province, City, District},
		},
		{
			name: "unknown province",
			rec: func() *AddressRecord {
				rec := dagoRecord()
				rec.Province = "Jawa Timur"
				return rec
			}(),
			wantCalls: []Level{Province},
		},
		{
			name:      "cities unavailable",
			rec:       dagoRecord(),
			failing:   []Level{City},
			wantIDs:   [levelCount]NodeID{"32"},
			wantCalls: []Level{Province, City},
			wantErr:   true,
		},
		{
			name: "nil record",
		},
		{
			name: "missing village",
			rec: func() *AddressRecord {
				rec := dagoRecord()
				rec.Village = ""
				return rec
			}(),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := newFakeSource()
			for _, l := range tc.failing {
				src.fail(l)
			}

			res := Resolve(context.Background(), src, tc.rec)
			assert.True(t, res.Selection.Resolved())
			assert.Equal(t, tc.wantIDs, res.Selection.IDs())
			assert.Equal(t, tc.wantCalls, src.calls())
			if tc.wantErr {
				assert.ErrorIs(t, res.Err, ErrSourceUnavailable)
			} else {
				assert.NoError(t, res.Err)
			}
		})
	}
}

func TestResolve_QueriesFollowMatchedParents(t *testing.T) {
	src := newFakeSource()
	res := Resolve(context.Background(), src, dagoRecord())

	assert.Equal(t, []NodeID{Unset, "32", "3273", "327312"}, src.parentOf)
	assert.Equal(t, 4, res.Depth())
	for _, l := range Levels {
		assert.NotEmpty(t, res.Nodes[l], "%s nodes", l)
	}
}

func TestResolve_KeepsMissedLevelNodes(t *testing.T) {
	rec := dagoRecord()
	rec.District = "Dayeuhkolot"

	res := Resolve(context.Background(), newFakeSource(), rec)
	assert.Equal(t, 2, res.Depth())
	assert.Len(t, res.Nodes[District], 2)
	assert.Nil(t, res.Nodes[Village])
}

func TestResolve_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := newFakeSource()
	res := Resolve(ctx, src, dagoRecord())
	assert.True(t, res.Selection.Resolved())
	assert.Equal(t, 0, res.Depth())
	assert.ErrorIs(t, res.Err, ErrSourceUnavailable)
	assert.Empty(t, src.calls())
}
