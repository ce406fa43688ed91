package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Outcome pairs an input with its result or error.
type Outcome struct {
	Input  string
	Result *Result
	Err    error
}

// ResolveAll resolves inputs with at most workers resolutions in flight.
// Outcomes are returned in input order; a failed input does not stop the
// others. done, if not nil, is called as each input finishes, possibly
// from several goroutines at once.
func (p *Pipeline) ResolveAll(ctx context.Context, inputs []string, workers int, done func(Outcome)) []Outcome {
	if workers < 1 {
		workers = 1
	}

	outcomes := make([]Outcome, len(inputs))

	var g errgroup.Group
	g.SetLimit(workers)

	for i, input := range inputs {
		g.Go(func() error {
			res, err := p.Resolve(ctx, input)
			outcomes[i] = Outcome{Input: input, Result: res, Err: err}
			if done != nil {
				done(outcomes[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}
