package portopt

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"slices"
)

// sampler searches the share lattice of a model for its best assignment.
//
// Samplers return the best assignment found when ctx reaches its deadline, and
// an error when ctx is cancelled.
type sampler interface {
	sample(ctx context.Context, m *model) ([]int, error)
}

func newSampler(cfg Config) sampler {
	if cfg.Sampler == Classical {
		return exhaustive{}
	}
	return annealer{seed: cfg.Seed, restarts: 16, sweeps: 2000}
}

// interrupted returns the error to report when ctx is done, nil if the deadline was reached.
func interrupted(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil
	}
	return ctx.Err()
}

// exhaustive is a depth first branch and bound over the share lattice.
// Branches are pruned as soon as their cost exceeds the budget.
type exhaustive struct{}

func (exhaustive) sample(ctx context.Context, m *model) ([]int, error) {
	n := len(m.stocks)
	x := make([]int, n)
	best := make([]int, n)
	bestEval := m.evaluate(best)
	leaves := 0
	stop := false

	var walk func(i int, cost float64)
	walk = func(i int, cost float64) {
		if i == n {
			if e := m.evaluate(x); better(e, bestEval) {
				copy(best, x)
				bestEval = e
			}
			leaves++
			if leaves%4096 == 0 && ctx.Err() != nil {
				stop = true
			}
			return
		}
		// biggest positions first: they reach the lower budget bound sooner.
		for k := m.upper[i]; k >= 0 && !stop; k-- {
			c := cost + m.price[i]*float64(k)
			if c > m.budget+feasibilityTolerance {
				continue
			}
			x[i] = k
			walk(i+1, c)
		}
		x[i] = 0
	}
	walk(0, 0)
	if stop {
		if err := interrupted(ctx); err != nil {
			return nil, err
		}
	}
	return best, nil
}

// annealer is a simulated annealing over the share lattice with random restarts.
type annealer struct {
	seed     uint64
	restarts int
	sweeps   int // proposals per stock and per restart
}

func (a annealer) sample(ctx context.Context, m *model) ([]int, error) {
	n := len(m.stocks)
	rng := rand.New(rand.NewPCG(a.seed, a.seed^0x9e3779b97f4a7c15))
	lambda := m.penalty()

	best := make([]int, n)
	bestEval := m.evaluate(best)
	x := make([]int, n)

	for r := 0; r < a.restarts; r++ {
		m.randomFill(rng, x)
		e := m.evaluate(x)
		energy := e.objective + lambda*e.infeasibility()

		t0 := m.temperature(rng, x, lambda)
		steps := a.sweeps * n
		cooling := math.Pow(1e-4, 1/float64(steps))
		t := t0
		for step := 0; step < steps; step++ {
			if step%256 == 0 && ctx.Err() != nil {
				if err := interrupted(ctx); err != nil {
					return nil, err
				}
				return m.polish(best), nil
			}
			t *= cooling
			i := rng.IntN(n)
			old := x[i]
			x[i] = m.propose(rng, i, old)
			if x[i] == old {
				continue
			}
			e2 := m.evaluate(x)
			energy2 := e2.objective + lambda*e2.infeasibility()
			if d := energy2 - energy; d <= 0 || rng.Float64() < math.Exp(-d/t) {
				e, energy = e2, energy2
				if better(e, bestEval) {
					copy(best, x)
					bestEval = e
				}
				continue
			}
			x[i] = old
		}
		if bestEval.infeasibility() > 0 {
			// penalty too weak to reach feasibility
			lambda *= 2
		}
	}
	return m.polish(best), nil
}

// penalty returns the weight of a unit of constraint violation in the annealing energy.
func (m *model) penalty() float64 {
	var maxMean, maxCov float64
	for i := range m.stocks {
		maxMean = math.Max(maxMean, math.Abs(m.mean[i]))
		for j := range m.stocks {
			maxCov = math.Max(maxCov, math.Abs(m.cov[i][j]))
		}
	}
	return 10 * (1 + maxMean + 2*math.Max(m.alpha, 1)*maxCov*m.budget)
}

// randomFill draws a random assignment that does not exceed the budget.
func (m *model) randomFill(rng *rand.Rand, x []int) {
	order := rng.Perm(len(x))
	remaining := m.budget
	for _, i := range order {
		k := rng.IntN(m.upper[i] + 1)
		k = min(k, int(remaining/m.price[i]))
		x[i] = k
		remaining -= float64(k) * m.price[i]
	}
}

// propose returns a new number of shares for stock i.
func (m *model) propose(rng *rand.Rand, i, current int) int {
	span := max(1, m.upper[i]/4)
	d := rng.IntN(span) + 1
	if rng.IntN(2) == 0 {
		d = -d
	}
	return min(max(current+d, 0), m.upper[i])
}

// temperature estimates a starting temperature from the mean energy change of random moves.
func (m *model) temperature(rng *rand.Rand, x []int, lambda float64) float64 {
	y := slices.Clone(x)
	e := m.evaluate(y)
	base := e.objective + lambda*e.infeasibility()
	var sum float64
	const samples = 32
	for s := 0; s < samples; s++ {
		i := rng.IntN(len(y))
		old := y[i]
		y[i] = m.propose(rng, i, old)
		e := m.evaluate(y)
		sum += math.Abs(e.objective + lambda*e.infeasibility() - base)
		y[i] = old
	}
	if t := sum / samples; t > 0 {
		return t
	}
	return 1
}

// polish hill climbs from x with single share moves until no move improves it.
func (m *model) polish(x []int) []int {
	x = slices.Clone(x)
	e := m.evaluate(x)
	for improved := true; improved; {
		improved = false
		for i := range x {
			for _, d := range []int{-1, 1} {
				k := x[i] + d
				if k < 0 || k > m.upper[i] {
					continue
				}
				old := x[i]
				x[i] = k
				if e2 := m.evaluate(x); better(e2, e) {
					e, improved = e2, true
					continue
				}
				x[i] = old
			}
		}
	}
	return x
}
