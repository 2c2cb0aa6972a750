package main

import (
	"fmt"

	"github.com/iafilius/EpiViewer/src/config"
	"github.com/iafilius/EpiViewer/src/scenario"
	"github.com/iafilius/EpiViewer/src/store"
)

// openEngine builds the configured simulator. The returned close func releases the
// store when replaying and is never nil.
func openEngine(c *config.Config, st *store.SQLStore) (scenario.Engine, func() error, error) {
	noop := func() error { return nil }
	switch c.Engine.Kind {
	case config.EngineReplay:
		if st != nil {
			return &store.Replay{Store: st, AnySeed: c.Engine.AnySeed}, noop, nil
		}
		s, err := store.Open(c.StorePath)
		if err != nil {
			return nil, noop, fmt.Errorf("open replay store: %w", err)
		}
		return &store.Replay{Store: s, AnySeed: c.Engine.AnySeed}, s.Close, nil
	default:
		if err := c.RequireEngineCommand(); err != nil {
			return nil, noop, err
		}
		eng, err := scenario.NewExecEngine(c.Engine.Command, c.EngineTimeout())
		if err != nil {
			return nil, noop, err
		}
		return eng, noop, nil
	}
}
