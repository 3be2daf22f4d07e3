package labels

import "errors"

var (
	ErrDuplicateLabel  = errors.New("duplicate label")
	ErrIndexOutOfRange = errors.New("label index out of range")
)

// Table is the ordered registry of spatial annotation label names.
// Point records reference labels by index, so indices must stay stable
// for the lifetime of a session: removing a label tombstones its slot
// instead of shifting the entries that follow it. A point that keeps
// referencing a removed or out-of-range index is orphaned and treated
// as unlabeled.
type Table struct {
	slots []slot
}

type slot struct {
	name    string
	removed bool
}

// NewTable builds a table from saved label names, all live.
func NewTable(names []string) *Table {
	t := &Table{slots: make([]slot, 0, len(names))}
	for _, name := range names {
		t.slots = append(t.slots, slot{name: name})
	}
	return t
}

// Append adds a new label and returns its index. Names collide
// case-sensitively; removed labels do not collide.
func (t *Table) Append(name string) (int, error) {
	if t.indexOf(name) >= 0 {
		return 0, ErrDuplicateLabel
	}
	t.slots = append(t.slots, slot{name: name})
	return len(t.slots) - 1, nil
}

// Rename changes the name of a live label.
func (t *Table) Rename(index int, newName string) error {
	if !t.IsLive(index) {
		return ErrIndexOutOfRange
	}
	if k := t.indexOf(newName); k >= 0 && k != index {
		return ErrDuplicateLabel
	}
	t.slots[index].name = newName
	return nil
}

// Remove tombstones a label. Indices of other labels are unchanged and
// the removed index is never reused within the session.
func (t *Table) Remove(index int) error {
	if !t.IsLive(index) {
		return ErrIndexOutOfRange
	}
	t.slots[index].removed = true
	t.slots[index].name = ""
	return nil
}

// Get returns the name of a live label.
func (t *Table) Get(index int) (string, error) {
	if !t.IsLive(index) {
		return "", ErrIndexOutOfRange
	}
	return t.slots[index].name, nil
}

// IsLive reports whether index refers to a label that is present and
// not removed.
func (t *Table) IsLive(index int) bool {
	return index >= 0 && index < len(t.slots) && !t.slots[index].removed
}

// Len returns the size of the index space, including tombstoned slots.
func (t *Table) Len() int {
	return len(t.slots)
}

// Names returns the live label names in index order. This is the form
// written to the "labels" array of the project file.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.slots))
	for _, s := range t.slots {
		if !s.removed {
			names = append(names, s.name)
		}
	}
	return names
}

func (t *Table) indexOf(name string) int {
	for i, s := range t.slots {
		if !s.removed && s.name == name {
			return i
		}
	}
	return -1
}
