package utils

// Set is an unordered collection of distinct values.
type Set[T comparable] map[T]struct{}

// NewSet builds a Set from items; duplicates collapse.
func NewSet[T comparable](items ...T) Set[T] {
	s := make(Set[T], len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Has reports whether item is in the set.
func (s Set[T]) Has(item T) bool {
	_, ok := s[item]
	return ok
}
