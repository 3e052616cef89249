// Package decision selects the adapter that serves a request.
//
// A Tree holds an ordered list of rules. Each Rule binds an adapter to the
// criteria it offers; the first rule whose criteria satisfy the request and
// whose adapter accepts the request's shape wins:
//
//	tree := decision.NewTree(
//		decision.NewRule(local, criteria.PrivacyHigh, criteria.CapabilityBasic),
//		decision.NewRule(cloud, criteria.PrivacyLow, criteria.CapabilitySmart, criteria.FeatureTools),
//	)
//	adapter, err := tree.DetermineAdapter(req)
//
// Rules may also be declared in YAML and bound to named adapters with
// LoadConfig and Config.Build.
package decision
