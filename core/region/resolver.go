package region

import "context"

// Resolution is the outcome of Resolve: the selection matching a persisted record
// and every node set fetched on the way.
type Resolution struct {
	Selection Selection
	Nodes     NodeSets
	// Err is the source failure that cut resolution short, if any.
	Err error
}

// Depth is the number of levels that were matched.
func (res Resolution) Depth() int {
	n := 0
	for _, l := range Levels {
		if !res.Selection.ids[l].IsSet() {
			break
		}
		n++
	}
	return n
}

// Resolve turns the region names of rec into ids, one level at a time: each query needs
// the id matched at the level above. A name that matches nothing, or a failing source,
// stops resolution at that level; the levels above stay selected.
// The returned selection is always resolved.
func Resolve(ctx context.Context, src Source, rec *AddressRecord) Resolution {
	res := Resolution{Selection: Selection{resolved: true}}
	if rec == nil || !rec.HasHierarchy() {
		return res
	}

	parent := Unset
	for _, l := range Levels {
		nodes, err := Children(ctx, src, l, parent)
		if err != nil {
			res.Err = err
			return res
		}
		res.Nodes[l] = nodes
		node, ok := nodes.ByName(rec.Name(l))
		if !ok {
			return res
		}
		res.Selection.ids[l] = node.ID
		parent = node.ID
	}
	return res
}
