package store

// orderedSet is a set of strings that remembers insertion order.
type orderedSet struct {
	members map[string]struct{}
	order   []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{members: make(map[string]struct{})}
}

// add inserts v and reports whether it was not present before.
func (s *orderedSet) add(v string) bool {
	if _, ok := s.members[v]; ok {
		return false
	}
	s.members[v] = struct{}{}
	s.order = append(s.order, v)
	return true
}

func (s *orderedSet) contains(v string) bool {
	_, ok := s.members[v]
	return ok
}

func (s *orderedSet) len() int {
	return len(s.order)
}

// values returns a copy of the members in insertion order.
func (s *orderedSet) values() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// setIndex maps keys to ordered sets.
type setIndex map[string]*orderedSet

func (ix setIndex) add(key, value string) bool {
	set, ok := ix[key]
	if !ok {
		set = newOrderedSet()
		ix[key] = set
	}
	return set.add(value)
}

func (ix setIndex) snapshot() map[string][]string {
	out := make(map[string][]string, len(ix))
	for k, set := range ix {
		out[k] = set.values()
	}
	return out
}
