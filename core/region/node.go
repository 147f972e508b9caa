package region

// NodeID is the opaque identifier a data source gives a region.
// Ids are only a lookup key: they never reach storage.
type NodeID string

// Unset is the "no selection" sentinel. Sources never yield nodes with an empty id.
const Unset NodeID = ""

func (id NodeID) IsSet() bool { return id != Unset }

// Node is one region of a level, as returned by a Source.
type Node struct {
	ID   NodeID `json:"id"`
	Name string `json:"name"`
}

// Nodes is the ordered set of regions of one level under one parent.
type Nodes []Node

// ByName returns the first node named `name` (exact match).
func (ns Nodes) ByName(name string) (Node, bool) {
	for _, n := range ns {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}

func (ns Nodes) ByID(id NodeID) (Node, bool) {
	if !id.IsSet() {
		return Node{}, false
	}
	for _, n := range ns {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NodeSets holds the currently loaded Nodes of every level; a nil entry means nothing is loaded.
type NodeSets [levelCount]Nodes

// clearBelow drops the loaded nodes of every level strictly below l.
func (sets *NodeSets) clearBelow(l Level) {
	for lvl := l + 1; lvl <= Village; lvl++ {
		sets[lvl] = nil
	}
}
