package scenario

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iafilius/EpiViewer/src/results"
)

// Engine runs one simulation to completion.
type Engine interface {
	Run(ctx context.Context, pars SimPars) (*results.Sim, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, pars SimPars) (*results.Sim, error)

// Run implements Engine.
func (f EngineFunc) Run(ctx context.Context, pars SimPars) (*results.Sim, error) { return f(ctx, pars) }

// DefaultEngineTimeout bounds a single external run.
const DefaultEngineTimeout = 10 * time.Minute

// ExecEngine runs an external simulator. The parameters are written to its stdin as JSON
// and it must print either a result envelope or a bare sim to stdout.
type ExecEngine struct {
	Command string
	Args    []string
	Env     []string
	Timeout time.Duration
}

// NewExecEngine splits a command line on whitespace.
func NewExecEngine(cmdline string, timeout time.Duration) (*ExecEngine, error) {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return nil, errors.New("engine command is empty")
	}
	return &ExecEngine{Command: fields[0], Args: fields[1:], Timeout: timeout}, nil
}

// Run implements Engine.
func (e *ExecEngine) Run(ctx context.Context, pars SimPars) (*results.Sim, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultEngineTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	in, err := json.Marshal(pars)
	if err != nil {
		return nil, fmt.Errorf("encode pars: %w", err)
	}
	cmd := exec.CommandContext(ctx, e.Command, e.Args...)
	if len(e.Env) > 0 {
		cmd.Env = append(cmd.Environ(), e.Env...)
	}
	cmd.Stdin = bytes.NewReader(in)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	start := time.Now()
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("engine %s: %w", e.Command, ctx.Err())
		}
		return nil, fmt.Errorf("engine %s: %w: %s", e.Command, err, tail(stderr.String(), 512))
	}
	results.Debugf("[engine] %s finished %q in %s", e.Command, pars.Label, time.Since(start))
	sim, err := decodeSim(out)
	if err != nil {
		return nil, fmt.Errorf("engine %s: %w", e.Command, err)
	}
	fillFromPars(sim, pars)
	return sim, nil
}

func decodeSim(b []byte) (*results.Sim, error) {
	var env results.Envelope
	if err := json.Unmarshal(b, &env); err == nil && env.Sim != nil {
		return env.Sim, nil
	}
	var sim results.Sim
	if err := json.Unmarshal(b, &sim); err != nil {
		return nil, fmt.Errorf("decode sim: %w", err)
	}
	if len(sim.Results) == 0 {
		return nil, errors.New("decode sim: no results in output")
	}
	return &sim, nil
}

// fillFromPars records the seed and supplies the label and intervention markers when
// the engine left them out.
func fillFromPars(sim *results.Sim, pars SimPars) {
	sim.Seed = pars.Seed
	if sim.Label == "" {
		sim.Label = pars.Label
	}
	if len(sim.Interventions) == 0 {
		sim.Interventions = pars.PlottingInterventions()
	}
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

// RunMulti runs nRuns copies of pars with seeds pars.Seed+i, at most maxParallel at a
// time (<= 0 means unbounded). Results keep run order; the first error cancels the rest.
func RunMulti(ctx context.Context, eng Engine, pars SimPars, nRuns, maxParallel int) ([]*results.Sim, error) {
	if nRuns <= 0 {
		nRuns = 1
	}
	defer results.TimeTrack(time.Now(), fmt.Sprintf("RunMulti %q x%d", pars.Label, nRuns))
	out := make([]*results.Sim, nRuns)
	g, gctx := errgroup.WithContext(ctx)
	if maxParallel > 0 {
		g.SetLimit(maxParallel)
	}
	for i := range nRuns {
		p := pars
		p.Seed = pars.Seed + int64(i)
		g.Go(func() error {
			sim, err := eng.Run(gctx, p)
			if err != nil {
				return fmt.Errorf("run %d (seed %d): %w", i, p.Seed, err)
			}
			if sim == nil {
				return fmt.Errorf("run %d (seed %d): engine returned no sim", i, p.Seed)
			}
			fillFromPars(sim, p)
			out[i] = sim
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
