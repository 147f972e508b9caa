package region

import "github.com/pkg/errors"

var ErrParentUnset = errors.New("parent region is not selected")

// Selection is the id chosen at each level. An Unset level is always followed by Unset levels.
type Selection struct {
	ids      [levelCount]NodeID
	resolved bool
}

// NewSelection builds an unresolved selection from top-down ids.
// Ids following an Unset one are dropped.
func NewSelection(ids ...NodeID) Selection {
	var sel Selection
	for i, id := range ids {
		if i >= levelCount || !id.IsSet() {
			break
		}
		sel.ids[i] = id
	}
	return sel
}

func (s Selection) ID(l Level) NodeID {
	if !l.Valid() {
		return Unset
	}
	return s.ids[l]
}

func (s Selection) IDs() [levelCount]NodeID { return s.ids }

// Resolved reports whether the persisted record was resolved or superseded by a user edit.
func (s Selection) Resolved() bool { return s.resolved }

func (s *Selection) truncate() {
	for l := City; l <= Village; l++ {
		if !s.ids[l-1].IsSet() {
			s.ids[l] = Unset
		}
	}
}

// Machine owns a Selection. ApplyResolved and SelectAt are its only transitions.
type Machine struct {
	sel Selection
}

func (m *Machine) Selection() Selection { return m.sel }

// ApplyResolved installs the outcome of a resolution. It only applies once, and never
// after SelectAt: it reports false and leaves the selection untouched in that case.
func (m *Machine) ApplyResolved(sel Selection) bool {
	if m.sel.resolved {
		return false
	}
	sel.truncate()
	sel.resolved = true
	m.sel = sel
	return true
}

// SelectAt selects id (or Unset) at level l and unsets every level below it.
// A user selection supersedes a pending resolution.
func (m *Machine) SelectAt(l Level, id NodeID) error {
	if !l.Valid() {
		return errors.Wrapf(ErrInvalidLevel, "%d", int(l))
	}
	if id.IsSet() && l > Province && !m.sel.ids[l-1].IsSet() {
		return errors.Wrapf(ErrParentUnset, "selecting %s", l)
	}
	m.sel.ids[l] = id
	for lvl := l + 1; lvl <= Village; lvl++ {
		m.sel.ids[lvl] = Unset
	}
	m.sel.resolved = true
	return nil
}
