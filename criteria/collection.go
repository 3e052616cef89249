package criteria

import "strings"

// Collection is an ordered, immutable set of criteria. Order only matters for
// display; With and WithFeatures always return a rebuilt collection.
type Collection struct {
	items []Criteria
}

// NewCollection builds a collection from the given criteria.
func NewCollection(items ...Criteria) Collection {
	cp := make([]Criteria, len(items))
	copy(cp, items)
	return Collection{items: cp}
}

// With returns a new collection holding the receiver's criteria followed by
// items. The receiver is left untouched.
func (c Collection) With(items ...Criteria) Collection {
	out := make([]Criteria, 0, len(c.items)+len(items))
	out = append(out, c.items...)
	for _, it := range items {
		if containsCriteria(out, it) {
			continue
		}
		out = append(out, it)
	}
	return Collection{items: out}
}

// WithFeatures is With restricted to feature criteria; other kinds are ignored.
func (c Collection) WithFeatures(features ...Criteria) Collection {
	filtered := make([]Criteria, 0, len(features))
	for _, f := range features {
		if f.kind == KindFeature {
			filtered = append(filtered, f)
		}
	}
	return c.With(filtered...)
}

// All returns a copy of the criteria in declaration order.
func (c Collection) All() []Criteria {
	out := make([]Criteria, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of criteria.
func (c Collection) Len() int { return len(c.items) }

// Contains reports whether a criteria with the same identity is present.
func (c Collection) Contains(cr Criteria) bool { return containsCriteria(c.items, cr) }

// String renders the collection as a comma separated declaration list.
func (c Collection) String() string {
	parts := make([]string, len(c.items))
	for i, it := range c.items {
		parts[i] = it.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Matches reports whether the candidates satisfy every requirement held by c.
//
// Each requirement is compared to each candidate. A single NoMatch vetoes the
// set. Otherwise every requirement whose kind is offered by the candidates must
// have collected at least one Match. Requirement kinds the candidates do not
// mention never block.
func (c Collection) Matches(candidates []Criteria) bool {
	if len(c.items) == 0 {
		return true
	}
	if len(candidates) == 0 {
		return false
	}

	offered := make(map[Kind]bool, len(candidates))
	for _, cand := range candidates {
		offered[cand.kind] = true
	}

	declared := make(map[Kind]int)
	matched := make(map[Kind]int)

	for _, req := range c.items {
		declared[req.kind]++
		hit := false
		for _, cand := range candidates {
			switch compare(req, cand) {
			case NoMatch:
				return false
			case Match:
				hit = true
			}
		}
		if hit {
			matched[req.kind]++
		}
	}

	for kind, n := range declared {
		if !offered[kind] {
			continue
		}
		if matched[kind] != n {
			return false
		}
	}
	return true
}

func containsCriteria(items []Criteria, cr Criteria) bool {
	for _, it := range items {
		if it.Equal(cr) {
			return true
		}
	}
	return false
}
