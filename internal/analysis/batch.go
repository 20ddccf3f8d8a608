// SPDX-License-Identifier: MIT
package analysis

import (
	"context"
	"runtime"

	"arpsd/internal/audio"
	applog "arpsd/internal/log"

	"golang.org/x/sync/errgroup"
)

// RunBatch analyzes independent signals in parallel, at most workers at a time
// (GOMAXPROCS when workers <= 0). Results come back in input order. The first
// failure cancels the signals not yet started and is returned.
func RunBatch(ctx context.Context, p Processor, signals []*audio.Signal, workers int) ([]*Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, max(len(signals), 1))
	applog.Debugf("analysis: batch of %d signal(s) on %d worker(s)", len(signals), workers)

	results := make([]*Result, len(signals))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, sig := range signals {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := p.Analyze(sig)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
