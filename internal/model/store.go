package model

// NoSubcategory is the bucket key for facts without a subcategory label.
const NoSubcategory = ""

// CategoryStore holds the full content of one category: ordered subcategory
// buckets of rendered fact lines. Bucket creation order is preserved so a
// parsed file can be walked in document order; serialization applies its own
// ordering (no-subcategory bucket first, then named buckets lexically).
type CategoryStore struct {
	buckets map[string][]string
	order   []string
}

// NewCategoryStore returns an empty store.
func NewCategoryStore() *CategoryStore {
	return &CategoryStore{buckets: make(map[string][]string)}
}

// Append adds a fact line to the given subcategory bucket, creating the
// bucket if needed. Insertion order within a bucket is preserved.
func (s *CategoryStore) Append(subcategory, fact string) {
	if _, ok := s.buckets[subcategory]; !ok {
		s.order = append(s.order, subcategory)
	}
	s.buckets[subcategory] = append(s.buckets[subcategory], fact)
}

// Ensure creates an empty bucket for the subcategory if it does not exist.
func (s *CategoryStore) Ensure(subcategory string) {
	if _, ok := s.buckets[subcategory]; !ok {
		s.order = append(s.order, subcategory)
		s.buckets[subcategory] = nil
	}
}

// Bucket returns the facts in one subcategory bucket.
func (s *CategoryStore) Bucket(subcategory string) []string {
	return s.buckets[subcategory]
}

// Subcategories returns the bucket keys in first-seen order.
func (s *CategoryStore) Subcategories() []string {
	return s.order
}

// AllFacts returns every fact across all buckets, in first-seen bucket order.
func (s *CategoryStore) AllFacts() []string {
	var facts []string
	for _, sub := range s.order {
		facts = append(facts, s.buckets[sub]...)
	}
	return facts
}

// Len returns the total number of facts.
func (s *CategoryStore) Len() int {
	n := 0
	for _, facts := range s.buckets {
		n += len(facts)
	}
	return n
}
