package engine

import (
	"context"
	"sync"
)

// runAll fans the recognized profile keys out to concurrent executors and
// joins on completion of all of them — an all-settle barrier. A slow or
// failing profile never blocks or aborts the others, and no result ordering
// is assumed downstream. Unrecognized keys are skipped with a warning.
//
// Each goroutine writes only its own pre-allocated slot, so the fan-out needs
// no locking.
func (e *Engine) runAll(ctx context.Context, keys []string, target string) (map[string]RawProfileResult, []string) {
	type task struct {
		key     string
		profile Profile
	}

	var tasks []task
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		p, ok := e.registry.Get(k)
		if !ok {
			e.logger.Warn("engine: unknown profile key, skipping", "key", k)
			continue
		}
		tasks = append(tasks, task{key: k, profile: p})
	}

	results := make([]RawProfileResult, len(tasks))
	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, p Profile) {
			defer wg.Done()
			results[i] = e.exec.run(ctx, p, target)
		}(i, t.profile)
	}
	wg.Wait()

	out := make(map[string]RawProfileResult, len(tasks))
	order := make([]string, len(tasks))
	for i, t := range tasks {
		out[t.key] = results[i]
		order[i] = t.key
	}
	return out, order
}
