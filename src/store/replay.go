package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/iafilius/EpiViewer/src/results"
	"github.com/iafilius/EpiViewer/src/scenario"
)

// Replay serves previously stored sims as if they had just been run. Runs are matched
// by label and seed; with AnySeed the latest run of the label is used when the seed
// was never stored.
type Replay struct {
	Store   *SQLStore
	AnySeed bool
}

var _ scenario.Engine = (*Replay)(nil)

// Run implements scenario.Engine.
func (r *Replay) Run(ctx context.Context, pars scenario.SimPars) (*results.Sim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sim, err := r.Store.Find(pars.Label, pars.Seed)
	if errors.Is(err, ErrNotFound) && r.AnySeed {
		runs, lerr := r.Store.List(Filter{Kind: KindSim, Label: pars.Label, Limit: 1})
		if lerr != nil {
			return nil, lerr
		}
		if len(runs) == 0 {
			return nil, err
		}
		env, lerr := r.Store.Load(runs[0].ID)
		if lerr != nil {
			return nil, lerr
		}
		results.Debugf("[replay] %q seed %d not stored, using seed %d", pars.Label, pars.Seed, runs[0].Seed)
		return env.Sim, nil
	}
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	return sim, nil
}
