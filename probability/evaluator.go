package probability

import (
	"context"
	"math/big"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/bagodds/bagodds/cache"
	"github.com/bagodds/bagodds/classifier"
	"github.com/bagodds/bagodds/combinatorics"
	"github.com/bagodds/bagodds/drawgen"
	"github.com/bagodds/bagodds/tilemapping"
)

// how many draws a branch enumerates between context checks
const ctxCheckInterval = 1024

// Evaluator computes class distributions against one classification table.
// It never modifies the populations it is given.
type Evaluator struct {
	table   *classifier.Table
	chooser *combinatorics.ChooseTable
	threads int
	cache   *cache.Cache[uint64, Distribution]
}

// NewEvaluator makes a sequential evaluator. maxN and drawSize size the
// precomputed binomial table; they should be the starting population's
// total and the session's draw size. Other sizes still work, computed on
// demand.
func NewEvaluator(table *classifier.Table, maxN, drawSize int) *Evaluator {
	return &Evaluator{
		table:   table,
		chooser: combinatorics.NewChooseTable(maxN, drawSize),
		threads: 1,
	}
}

// SetThreads sets how many branches are evaluated at once.
func (e *Evaluator) SetThreads(t int) {
	e.threads = max(t, 1)
}

// Threads returns the parallelism.
func (e *Evaluator) Threads() int {
	return e.threads
}

// SetCache makes the evaluator reuse distributions computed for population
// states it has seen. A nil cache turns caching off.
func (e *Evaluator) SetCache(c *cache.Cache[uint64, Distribution]) {
	e.cache = c
}

// Table returns the classification table.
func (e *Evaluator) Table() *classifier.Table {
	return e.table
}

// ExactProbability is the package-level ExactProbability using the
// evaluator's precomputed binomials.
func (e *Evaluator) ExactProbability(pop *tilemapping.Population, d tilemapping.Draw, drawSize int) float64 {
	f, _ := exactRatio(e.chooser, pop, d, drawSize).Float64()
	return f
}

// StateDistribution returns the probability of each outcome class for the
// next draw of drawSize tiles from pop.
func (e *Evaluator) StateDistribution(pop *tilemapping.Population, drawSize int) Distribution {
	// Without a deadline the only error is a cancelled context.
	d, _ := e.StateDistributionContext(context.Background(), pop, drawSize)
	return d
}

// StateDistributionContext is StateDistribution with cancellation. With more
// than one thread the enumeration is split by the first category's count
// and the branches run concurrently. Probabilities are summed exactly, so
// the result does not depend on the thread count.
func (e *Evaluator) StateDistributionContext(ctx context.Context, pop *tilemapping.Population,
	drawSize int) (Distribution, error) {

	if e.cache == nil {
		return e.compute(ctx, pop, drawSize)
	}
	key := cache.Key(pop.Counts(), drawSize, e.table.Fingerprint())
	d, err := e.cache.Load(key, func() (Distribution, error) {
		return e.compute(ctx, pop, drawSize)
	})
	if err != nil {
		return nil, err
	}
	return d.Copy(), nil
}

// tally holds exact per-class numerators over the shared denominator.
type tally map[classifier.OutcomeClass]*big.Int

func (t tally) add(c classifier.OutcomeClass, v *big.Int) {
	if n, ok := t[c]; ok {
		n.Add(n, v)
		return
	}
	t[c] = new(big.Int).Set(v)
}

func (t tally) merge(o tally) {
	for c, v := range o {
		t.add(c, v)
	}
}

func (e *Evaluator) compute(ctx context.Context, pop *tilemapping.Population, drawSize int) (Distribution, error) {
	dist := emptyDistribution()
	total := pop.Total()
	if drawSize < 0 || total < drawSize {
		return dist, nil
	}
	den := e.chooser.Choose(drawSize, total)
	if den.Sign() == 0 {
		return dist, nil
	}

	branches := drawgen.Branches(pop, drawSize)
	partials := make([]tally, len(branches))

	if e.threads <= 1 || len(branches) <= 1 {
		for i, b := range branches {
			t, err := e.evalBranch(ctx, pop, drawSize, b)
			if err != nil {
				return nil, err
			}
			partials[i] = t
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.threads)
		for i, b := range branches {
			g.Go(func() error {
				t, err := e.evalBranch(gctx, pop, drawSize, b)
				if err != nil {
					return err
				}
				partials[i] = t
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			log.Debug().Err(err).Msg("state-distribution-cancelled")
			return nil, err
		}
	}

	sum := tally{}
	for _, t := range partials {
		sum.merge(t)
	}
	for c, num := range sum {
		if c == classifier.Unknown && num.Sign() == 0 {
			continue
		}
		dist[c], _ = new(big.Rat).SetFrac(num, den).Float64()
	}
	return dist, nil
}

func (e *Evaluator) evalBranch(ctx context.Context, pop *tilemapping.Population, drawSize, first int) (tally, error) {
	t := tally{}
	cl := e.table.NewClassifier(pop.NumCategories())
	num := new(big.Int)
	n := 0
	var err error
	drawgen.EachInBranch(pop, drawSize, first, func(d tilemapping.Draw) bool {
		n++
		if n%ctxCheckInterval == 0 {
			if err = ctx.Err(); err != nil {
				return false
			}
		}
		numerator(e.chooser, pop, d, num)
		t.add(cl.Classify(d), num)
		return true
	})
	if err != nil {
		return nil, err
	}
	return t, ctx.Err()
}
