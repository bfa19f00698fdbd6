package platform

import (
	"context"
	"fmt"
	"sync"

	"genesim/internal/sim"
)

// EnsembleConfig fans independent simulation instances across worker
// goroutines. Each instance is built by the factory with its own derived
// seed, so instances share no mutable state and every trajectory is
// individually reproducible.
type EnsembleConfig struct {
	// Build constructs the network for one ensemble member. The seed is
	// BaseSeed + member index.
	Build func(seed int64) (*sim.GeneNetwork, error)

	Instances   int
	Generations int
	BaseSeed    int64

	// Workers caps concurrent instances; <= 0 means one worker per instance.
	Workers int
}

// RunEnsemble runs every member to completion and returns results in member
// order. The first error cancels the remaining members.
func RunEnsemble(ctx context.Context, cfg EnsembleConfig) ([]RunResult, error) {
	if cfg.Build == nil {
		return nil, fmt.Errorf("ensemble build factory is required")
	}
	if cfg.Instances <= 0 {
		return nil, fmt.Errorf("ensemble instances must be > 0")
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("generations must be > 0")
	}

	workers := cfg.Workers
	if workers <= 0 || workers > cfg.Instances {
		workers = cfg.Instances
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	results := make([]RunResult, cfg.Instances)
	errs := make([]error, cfg.Instances)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for member := range jobs {
				results[member], errs[member] = runMember(ctx, cfg, member)
				if errs[member] != nil {
					cancel()
				}
			}
		}()
	}

	for member := 0; member < cfg.Instances; member++ {
		select {
		case jobs <- member:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	for member, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("ensemble member %d: %w", member, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func runMember(ctx context.Context, cfg EnsembleConfig, member int) (RunResult, error) {
	network, err := cfg.Build(cfg.BaseSeed + int64(member))
	if err != nil {
		return RunResult{}, err
	}
	runner, err := NewRunner(RunnerConfig{
		RunID:       fmt.Sprintf("member-%d", member),
		Network:     network,
		Generations: cfg.Generations,
	})
	if err != nil {
		return RunResult{}, err
	}
	return runner.Run(ctx)
}
