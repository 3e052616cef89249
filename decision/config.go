package decision

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/modelmesh/criteria"
	"github.com/hupe1980/modelmesh/model"
)

// Config is the declarative form of a Tree:
//
//	rules:
//	  - adapter: local
//	    criteria: [privacy:high, capability:basic]
//	  - adapter: openai
//	    criteria: [privacy:low, capability:smart, feature:tools, feature:stream]
type Config struct {
	Rules []RuleConfig `yaml:"rules"`
}

// RuleConfig declares one rule.
type RuleConfig struct {
	Adapter  string   `yaml:"adapter"`
	Criteria []string `yaml:"criteria"`
}

// LoadConfig decodes a YAML rule configuration.
func LoadConfig(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decision: decode config: %w", err)
	}
	return &cfg, nil
}

// LoadFile decodes a YAML rule configuration file.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decision: open config: %w", err)
	}
	defer f.Close()
	return LoadConfig(f)
}

// Build binds the configured rules to adapters by name. Unknown adapter
// names and malformed criteria are rejected.
func (c *Config) Build(adapters map[string]model.Adapter, optFns ...func(o *Options)) (*Tree, error) {
	rules := make([]Rule, 0, len(c.Rules))
	for i, rc := range c.Rules {
		adapter, ok := adapters[rc.Adapter]
		if !ok || adapter == nil {
			return nil, fmt.Errorf("decision: rule %d: unknown adapter %q", i, rc.Adapter)
		}
		offered, err := criteria.ParseAll(rc.Criteria)
		if err != nil {
			return nil, fmt.Errorf("decision: rule %d: %w", i, err)
		}
		rules = append(rules, NewRule(adapter, offered...))
	}
	return NewTreeWithOptions(rules, optFns...), nil
}
