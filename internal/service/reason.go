package service

import (
	"context"

	"catgraph/internal/domain"
	"catgraph/internal/reasoner"
)

// Reason expands the store with the named rule sets, in the given order.
// Without names RDFS runs before OWL-RL.
func (s *Service) Reason(ctx context.Context, names ...string) ([]reasoner.Result, error) {
	if len(names) == 0 {
		return s.reasoner.ExpandAll(ctx, s.store)
	}
	rulesets := make([]reasoner.Ruleset, 0, len(names))
	for _, n := range names {
		rs, ok := reasoner.RulesetByName(n)
		if !ok {
			return nil, domain.ErrValidation("unknown rule set %q (supported: rdfs, owl-rl)", n)
		}
		rulesets = append(rulesets, rs)
	}
	var results []reasoner.Result
	for _, rs := range rulesets {
		res, err := s.reasoner.Expand(ctx, s.store, rs)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
