package region

import "github.com/pkg/errors"

// ErrMappingInvariant means a selected level sits under an unselected one.
var ErrMappingInvariant = errors.New("region selection is inconsistent")

// ToRecord names the selected ids using the loaded node sets and merges in the freeform fields.
// Unset ids and ids missing from their level's set map to an empty name.
func ToRecord(sel Selection, loaded NodeSets, ff Freeform) (AddressRecord, error) {
	for l := City; l <= Village; l++ {
		if sel.ids[l].IsSet() && !sel.ids[l-1].IsSet() {
			return AddressRecord{}, errors.Wrapf(ErrMappingInvariant, "%s is selected but %s is not", l, l-1)
		}
	}

	var rec AddressRecord
	for _, l := range Levels {
		if node, ok := loaded[l].ByID(sel.ids[l]); ok {
			rec.setName(l, node.Name)
		}
	}
	ff.merge(&rec)
	return rec, nil
}
