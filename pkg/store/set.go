// pkg/store/set.go
package store

// Set is an insertion-ordered collection of package references without duplicates.
type Set struct {
	refs  []Ref
	index map[Ref]int
}

// NewSet returns a set holding refs in order.
func NewSet(refs ...Ref) *Set {
	s := &Set{index: make(map[Ref]int)}
	for _, ref := range refs {
		s.Add(ref)
	}
	return s
}

// Add appends ref and reports whether it was absent.
func (s *Set) Add(ref Ref) bool {
	if s.index == nil {
		s.index = make(map[Ref]int)
	}
	if _, ok := s.index[ref]; ok {
		return false
	}
	s.index[ref] = len(s.refs)
	s.refs = append(s.refs, ref)
	return true
}

// Has reports whether ref is in the set.
func (s *Set) Has(ref Ref) bool {
	_, ok := s.index[ref]
	return ok
}

// Delete removes ref, keeping the order of the rest.
func (s *Set) Delete(ref Ref) bool {
	i, ok := s.index[ref]
	if !ok {
		return false
	}
	s.refs = append(s.refs[:i], s.refs[i+1:]...)
	delete(s.index, ref)
	for j := i; j < len(s.refs); j++ {
		s.index[s.refs[j]] = j
	}
	return true
}

// Len returns the number of refs.
func (s *Set) Len() int { return len(s.refs) }

// At returns the ref at position i.
func (s *Set) At(i int) Ref { return s.refs[i] }

// Refs returns a copy of the refs in insertion order.
func (s *Set) Refs() []Ref {
	out := make([]Ref, len(s.refs))
	copy(out, s.refs)
	return out
}
