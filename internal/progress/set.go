package progress

import (
	"sort"
	"strings"
)

// IDSet is an immutable set of identifiers kept as a sorted, de-duplicated
// slice so that snapshots compare by value regardless of insertion order.
type IDSet []string

// NewIDSet builds a set from ids, dropping duplicates and blanks.
func NewIDSet(ids ...string) IDSet {
	var s IDSet
	for _, id := range ids {
		s = s.With(id)
	}
	return s
}

// Contains reports whether id is in the set.
func (s IDSet) Contains(id string) bool {
	i := sort.SearchStrings(s, id)
	return i < len(s) && s[i] == id
}

// With returns a new set including id. Blank ids leave the set unchanged.
// The receiver is never modified.
func (s IDSet) With(id string) IDSet {
	if blankID(id) {
		return s
	}
	i := sort.SearchStrings(s, id)
	if i < len(s) && s[i] == id {
		return s
	}
	out := make(IDSet, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, id)
	out = append(out, s[i:]...)
	return out
}

// Union returns the set of ids in either s or o.
func (s IDSet) Union(o IDSet) IDSet {
	out := s
	for _, id := range o {
		out = out.With(id)
	}
	return out
}

// Len returns the number of ids.
func (s IDSet) Len() int {
	return len(s)
}

// Slice returns a copy of the ids in sorted order.
func (s IDSet) Slice() []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// blankID reports whether id is empty or only whitespace.
func blankID(id string) bool {
	return strings.TrimSpace(id) == ""
}
