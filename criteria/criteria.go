package criteria

import "fmt"

// Decision is the tri-state outcome of comparing a requirement to a candidate.
type Decision int

const (
	// Abstain means the pair does not vote (unrelated kinds, or a non-matching set member).
	Abstain Decision = iota
	// Match means the candidate satisfies the requirement.
	Match
	// NoMatch is an explicit conflict; a single NoMatch vetoes a collection match.
	NoMatch
)

// String returns the string representation of the decision.
func (d Decision) String() string {
	switch d {
	case Match:
		return "MATCH"
	case NoMatch:
		return "NO_MATCH"
	default:
		return "ABSTAIN"
	}
}

// Strategy selects how two criteria of the same kind are compared.
type Strategy int

const (
	// StrategyFlag compares opaque tags by equality; inequality is a conflict.
	StrategyFlag Strategy = iota
	// StrategyLevel compares ordered integers with threshold semantics.
	StrategyLevel
	// StrategySet compares tags by equality; inequality abstains.
	StrategySet
)

// Kind identifies a family of criteria.
type Kind string

const (
	KindPrivacy    Kind = "privacy"
	KindCapability Kind = "capability"
	KindProvider   Kind = "provider"
	KindFeature    Kind = "feature"
)

var strategies = map[Kind]Strategy{
	KindPrivacy:    StrategyLevel,
	KindCapability: StrategyLevel,
	KindProvider:   StrategyFlag,
	KindFeature:    StrategySet,
}

// Strategy returns the comparison strategy of the kind. Unknown kinds compare as flags.
func (k Kind) Strategy() Strategy {
	if s, ok := strategies[k]; ok {
		return s
	}
	return StrategyFlag
}

// Criteria is an immutable, comparable capability or requirement.
// Identity is (Kind, Value); Name is for display and configuration only.
type Criteria struct {
	kind  Kind
	name  string
	value int
}

// New constructs a criteria value. Most callers use the predefined values.
func New(kind Kind, name string, value int) Criteria {
	return Criteria{kind: kind, name: name, value: value}
}

// Kind returns the criteria family.
func (c Criteria) Kind() Kind { return c.kind }

// Name returns the display name.
func (c Criteria) Name() string { return c.name }

// Value returns the level or tag value.
func (c Criteria) Value() int { return c.value }

// Equal reports whether both criteria share the same identity.
func (c Criteria) Equal(o Criteria) bool {
	return c.kind == o.kind && c.value == o.value
}

// String renders the criteria in its declaration form ("kind:name").
func (c Criteria) String() string {
	return fmt.Sprintf("%s:%s", c.kind, c.name)
}

// Matches compares c, acting as the requirement, against a candidate.
func (c Criteria) Matches(candidate Criteria) Decision {
	return compare(c, candidate)
}

// compare is the single comparison function shared by every kind.
func compare(required, candidate Criteria) Decision {
	if required.kind != candidate.kind {
		return Abstain
	}

	switch required.kind.Strategy() {
	case StrategyLevel:
		if candidate.value >= required.value {
			return Match
		}
		return NoMatch
	case StrategySet:
		if candidate.value == required.value {
			return Match
		}
		return Abstain
	default:
		if candidate.value == required.value {
			return Match
		}
		return NoMatch
	}
}
