// Package selector holds the per-domain selector rules used to locate
// article bodies.
package selector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/user/knowlife/internal/entity"
)

// ConfigLoadError reports a selector configuration that cannot be used.
type ConfigLoadError struct {
	Path string // empty for programmatic configs
	Err  error
}

func (e *ConfigLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("selector config: %v", e.Err)
	}
	return fmt.Sprintf("selector config %s: %v", e.Path, e.Err)
}

func (e *ConfigLoadError) Unwrap() error { return e.Err }

var errNoRules = errors.New("no selector rules configured")

// Config is an immutable, ordered set of selector rules. It is safe for
// concurrent use.
type Config struct {
	rules []entity.SelectorRule
}

// New builds a Config from rules, keeping their order. Every rule must be
// usable.
func New(rules ...entity.SelectorRule) (*Config, error) {
	if len(rules) == 0 {
		return nil, &ConfigLoadError{Err: errNoRules}
	}
	if err := validate(rules); err != nil {
		return nil, &ConfigLoadError{Err: err}
	}
	return newConfig(rules), nil
}

func newConfig(rules []entity.SelectorRule) *Config {
	cp := make([]entity.SelectorRule, len(rules))
	copy(cp, rules)
	return &Config{rules: cp}
}

func validate(rules []entity.SelectorRule) error {
	for i, r := range rules {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("rule %d (%q): %w", i, r.Domain, err)
		}
	}
	return nil
}

// Rules returns a copy of all rules in configuration order.
func (c *Config) Rules() []entity.SelectorRule {
	out := make([]entity.SelectorRule, len(c.rules))
	copy(out, c.rules)
	return out
}

// FindRulesForDomain returns every rule whose domain key is contained in
// domain, in configuration order. The result is empty, never nil, when
// nothing matches.
func (c *Config) FindRulesForDomain(domain string) []entity.SelectorRule {
	matched := []entity.SelectorRule{}
	for _, r := range c.rules {
		if strings.Contains(domain, r.Domain) {
			matched = append(matched, r)
		}
	}
	return matched
}
