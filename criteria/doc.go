// Package criteria models the declarative requirements used to route a request
// to a backend adapter.
//
// A Criteria is an immutable (kind, value) pair. Every kind carries one
// comparison Strategy:
//
//   - StrategyLevel: ordered integer, a candidate satisfies a requirement when it
//     offers at least the required level (privacy, capability).
//   - StrategyFlag: exclusive tag, a differing value is an explicit conflict that
//     vetoes the whole match (provider).
//   - StrategySet: member of a multi-valued family, a differing value simply does
//     not vote (feature).
//
// Collections of criteria are immutable values. Collection.Matches reconciles a
// set of requirements against the criteria offered by a candidate.
package criteria
