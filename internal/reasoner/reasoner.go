// Package reasoner expands the stored graph with the triples entailed by the
// RDFS and OWL RL rule sets.
package reasoner

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"catgraph/internal/graph"
	"catgraph/internal/triplestore"
)

// DefaultMaxPasses bounds the fixpoint iteration of one rule set.
const DefaultMaxPasses = 64

// TxRunner runs a function inside a write transaction of the triple store.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Result reports one rule set expansion.
type Result struct {
	Ruleset  string        `json:"ruleset"`
	Added    int           `json:"added"`
	Passes   int           `json:"passes"`
	Duration time.Duration `json:"duration"`
}

// Reasoner applies rule sets to a triple store.
type Reasoner struct {
	logger    *slog.Logger
	maxPasses int
}

// New creates a Reasoner. maxPasses <= 0 selects DefaultMaxPasses.
func New(logger *slog.Logger, maxPasses int) *Reasoner {
	if logger == nil {
		logger = slog.Default()
	}
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}
	return &Reasoner{logger: logger, maxPasses: maxPasses}
}

// Expand applies rs until no rule derives a new triple. All passes run in one
// transaction: on error nothing is kept. Expanding twice is safe; the second
// run adds nothing.
func (r *Reasoner) Expand(ctx context.Context, store TxRunner, rs Ruleset) (Result, error) {
	res := Result{Ruleset: rs.Name}
	start := time.Now()

	err := store.WithTx(ctx, func(tx *sql.Tx) error {
		for res.Passes < r.maxPasses {
			if err := ctx.Err(); err != nil {
				return err
			}
			res.Passes++
			added := 0
			for _, rule := range rs.Rules {
				out, err := tx.ExecContext(ctx, rule.SQL, rule.Args...)
				if err != nil {
					return fmt.Errorf("rule %s/%s: %w", rs.Name, rule.Name, err)
				}
				n, err := out.RowsAffected()
				if err != nil {
					return fmt.Errorf("rule %s/%s: %w", rs.Name, rule.Name, err)
				}
				added += int(n)
			}
			res.Added += added
			if added == 0 {
				return nil
			}
		}
		return fmt.Errorf("ruleset %s: no fixpoint after %d passes", rs.Name, r.maxPasses)
	})
	res.Duration = time.Since(start)
	if err != nil {
		return Result{Ruleset: rs.Name}, fmt.Errorf("expand %s: %w", rs.Name, err)
	}

	r.logger.Info("closure expanded", "ruleset", rs.Name, "added", res.Added, "passes", res.Passes, "duration", res.Duration)
	return res, nil
}

// ExpandAll runs the RDFS rule set followed by the OWL RL rule set.
func (r *Reasoner) ExpandAll(ctx context.Context, store TxRunner) ([]Result, error) {
	var results []Result
	for _, rs := range Rulesets() {
		res, err := r.Expand(ctx, store, rs)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// ExpandGraph expands g in place with the given rule sets (all of them when
// none are given) and returns the number of triples added.
func (r *Reasoner) ExpandGraph(ctx context.Context, g *graph.Graph, rulesets ...Ruleset) (int, error) {
	if len(rulesets) == 0 {
		rulesets = Rulesets()
	}
	store, err := triplestore.OpenMemory(r.logger)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	if _, err := store.Insert(ctx, g); err != nil {
		return 0, err
	}
	for _, rs := range rulesets {
		if _, err := r.Expand(ctx, store, rs); err != nil {
			return 0, err
		}
	}
	expanded, err := store.Graph(ctx)
	if err != nil {
		return 0, err
	}
	return g.Union(expanded), nil
}
