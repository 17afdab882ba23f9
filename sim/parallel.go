package sim

import (
	"context"
	"math/rand"
	"runtime"
	"sync"

	"github.com/pkg/errors"

	"github.com/dstab/stabsim/circuit"
)

// SampleParallel fans shots out across workers goroutines, each running an
// independent slice of shots with its own rng derived from seed. Grounded
// on the teacher's NewCircuit worker split: workers<=0 means "use all
// available parallelism" (callers typically pass runtime.GOMAXPROCS(-1)).
func SampleParallel(ctx context.Context, c *circuit.Circuit, shots, workers int, seed int64) ([][]bool, error) {
	if shots < 1 {
		return nil, errors.Errorf("sim: SampleParallel requires shots >= 1, got %d", shots)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > shots {
		workers = shots
	}

	rows := make([][]bool, shots)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	size := shots / workers
	if size*workers < shots {
		size++
	}
	start := 0
	for w := 0; w < workers && start < shots; w++ {
		end := start + size
		if end > shots {
			end = shots
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed + int64(w)))
			for s := start; s < end; s++ {
				if err := ctx.Err(); err != nil {
					errs[w] = err
					return
				}
				tab := newTableauFor(c)
				d := NewDriver(tab, rng)
				res, err := d.Run(ctx, c)
				if err != nil {
					errs[w] = errors.Wrapf(err, "shot %d", s)
					return
				}
				rows[s] = res.Record
			}
		}(w, start, end)
		start = end
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return rows, nil
}
