package decision

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hupe1980/modelmesh/criteria"
	"github.com/hupe1980/modelmesh/logging"
	"github.com/hupe1980/modelmesh/model"
)

// ErrNoAdapterFound is the sentinel matched by NoAdapterFoundError.
var ErrNoAdapterFound = errors.New("decision: no adapter found")

// NoAdapterFoundError is returned when no rule matches a request.
type NoAdapterFoundError struct {
	Criteria criteria.Collection
	Kind     model.Kind
}

func (e *NoAdapterFoundError) Error() string {
	return fmt.Sprintf("decision: no adapter found for %s request with criteria %s", e.Kind, e.Criteria)
}

// Unwrap returns ErrNoAdapterFound.
func (e *NoAdapterFoundError) Unwrap() error { return ErrNoAdapterFound }

// Rule binds an adapter to the criteria it offers. An adapter may back
// several rules.
type Rule struct {
	Adapter  model.Adapter
	Criteria []criteria.Criteria
}

// NewRule creates a rule.
func NewRule(adapter model.Adapter, offered ...criteria.Criteria) Rule {
	return Rule{Adapter: adapter, Criteria: slices.Clone(offered)}
}

// Matches reports whether the rule can serve req: the request's requirements
// must be satisfied by the rule's criteria and the adapter must accept the
// request.
func (r Rule) Matches(req *model.Request) bool {
	if r.Adapter == nil {
		return false
	}
	return req.Criteria().Matches(r.Criteria) && r.Adapter.Supports(req)
}

// Options configures a Tree.
type Options struct {
	// Logger receives routing.* records (defaults to NoOpLogger).
	Logger logging.Logger
}

// Tree is an ordered rule list. It is read-only after construction and safe
// for concurrent use.
type Tree struct {
	rules []Rule
	opts  Options
}

// NewTree creates a tree evaluating rules in the given order.
func NewTree(rules ...Rule) *Tree {
	return NewTreeWithOptions(rules)
}

// NewTreeWithOptions creates a tree with functional options.
func NewTreeWithOptions(rules []Rule, optFns ...func(o *Options)) *Tree {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Tree{rules: slices.Clone(rules), opts: opts}
}

// Rules returns a copy of the rules.
func (t *Tree) Rules() []Rule { return slices.Clone(t.rules) }

// DetermineAdapter returns the adapter of the first matching rule.
func (t *Tree) DetermineAdapter(req *model.Request) (model.Adapter, error) {
	_, adapter, err := t.determine(req)
	return adapter, err
}

// DetermineRule returns the index of the first matching rule and its adapter.
func (t *Tree) DetermineRule(req *model.Request) (int, model.Adapter, error) {
	return t.determine(req)
}

// routingLogger is implemented by loggers with a dedicated routing helper
// (logging.StructuredLogger).
type routingLogger interface {
	LogRouting(requestID, requirements, adapter string, rule int, err error)
}

func (t *Tree) determine(req *model.Request) (int, model.Adapter, error) {
	for i, rule := range t.rules {
		if rule.Matches(req) {
			t.logRouting(req, model.AdapterName(rule.Adapter), i, nil)
			return i, rule.Adapter, nil
		}
	}
	err := &NoAdapterFoundError{Criteria: req.Criteria(), Kind: req.Kind()}
	t.logRouting(req, "", -1, err)
	return -1, nil, err
}

func (t *Tree) logRouting(req *model.Request, adapter string, rule int, err error) {
	if l, ok := t.opts.Logger.(routingLogger); ok {
		l.LogRouting(req.ID(), req.Criteria().String(), adapter, rule, err)
		return
	}
	if err != nil {
		t.opts.Logger.Warn("routing.no_match", "request_id", req.ID(), "criteria", req.Criteria().String())
		return
	}
	t.opts.Logger.Debug("routing.match",
		"request_id", req.ID(),
		"rule", rule,
		"adapter", adapter,
		"criteria", req.Criteria().String(),
	)
}
