package permission

import (
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Rule maps a glob pattern over tool names to a decision.
type Rule struct {
	Pattern  string
	Decision Decision
}

// PolicyGate decides from a fixed rule list: first matching rule wins,
// otherwise the default decision applies. It never blocks, which makes it
// suitable for non-interactive sessions that still want deny rules.
type PolicyGate struct {
	rules []Rule
	def   Decision
}

func NewPolicyGate(rules []Rule, defaultDecision Decision) (*PolicyGate, error) {
	if defaultDecision == "" {
		defaultDecision = Approve
	}
	if !ValidDecision(defaultDecision) {
		return nil, fmt.Errorf("invalid default decision %q", defaultDecision)
	}
	for _, r := range rules {
		if !doublestar.ValidatePattern(r.Pattern) {
			return nil, fmt.Errorf("invalid pattern %q", r.Pattern)
		}
		if !ValidDecision(r.Decision) {
			return nil, fmt.Errorf("pattern %q: invalid decision %q", r.Pattern, r.Decision)
		}
	}
	out := make([]Rule, len(rules))
	copy(out, rules)
	return &PolicyGate{rules: out, def: defaultDecision}, nil
}

func (g *PolicyGate) Request(_ context.Context, req Request) (Decision, error) {
	for _, r := range g.rules {
		ok, err := doublestar.Match(r.Pattern, req.Tool)
		if err != nil {
			return Deny, err
		}
		if ok {
			return r.Decision, nil
		}
	}
	return g.def, nil
}
