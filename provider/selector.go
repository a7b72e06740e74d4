package provider

// Candidate is an available provider offered to a Selector.
type Candidate struct {
	Kind     Kind
	Priority int
}

// Selector picks the provider Automatic resolves to. Candidates are passed in
// registration order; Select returns Automatic when none fits.
type Selector interface {
	Select(candidates []Candidate) Kind
}

// PrioritySelector picks the candidate with the highest priority. Ties go to
// the provider registered first.
type PrioritySelector struct{}

// Select returns the highest priority candidate.
func (PrioritySelector) Select(candidates []Candidate) Kind {
	best := Automatic
	bestPriority := 0
	for _, c := range candidates {
		if best == Automatic || c.Priority > bestPriority {
			best, bestPriority = c.Kind, c.Priority
		}
	}
	return best
}

// OrderSelector tries kinds in the given order and returns the first one
// that is available.
type OrderSelector struct {
	// Order is the ordered list of kinds to try.
	Order []Kind
}

// Select returns the first available kind in Order.
func (s OrderSelector) Select(candidates []Candidate) Kind {
	for _, kind := range s.Order {
		for _, c := range candidates {
			if c.Kind == kind {
				return kind
			}
		}
	}
	return Automatic
}
