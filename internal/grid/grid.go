// Package grid emulates the launch model the kernels were written for: a
// grid of fixed-width subgroups whose lanes advance in lock-step, scheduled
// across a bounded set of worker goroutines.
//
// One subgroup is executed by one worker task. Inside a kernel body the lanes
// are walked sequentially, so the stage-then-read split around a shared
// scratch tile is ordered by construction; scratch is private to a subgroup
// and nothing outside the output buffer is shared between subgroups.
package grid

import (
	"runtime"
	"sync"
)

// numWorkers bounds the goroutines used per launch, mirroring the CPU
// parallelism used elsewhere in the longbow repos.
var numWorkers = runtime.NumCPU()

// SetWorkers overrides the worker bound. Intended for tests and benchmarks;
// n < 1 resets to NumCPU.
func SetWorkers(n int) {
	if n < 1 {
		n = runtime.NumCPU()
	}
	numWorkers = n
}

// Config is the launch geometry chosen by the caller. The kernels stay
// parametric over both values; nothing in this module hard-codes a width.
type Config struct {
	// Subgroups is the number of subgroups along the row dimension. Kernels
	// grid-stride over their row space when it exceeds this count.
	Subgroups int
	// Width is the number of lanes per subgroup, and therefore the scratch
	// tile size.
	Width int
}

// Subgroup identifies one subgroup of a launch inside a kernel body.
type Subgroup struct {
	// Index is the subgroup's position along the grid's row dimension.
	Index int
	// Count is the total number of subgroups along the row dimension,
	// i.e. the grid stride.
	Count int
	// Tile is the subgroup's position along the output-column dimension.
	Tile int
	// Width is the lane count, copied from the launch config.
	Width int
}

// Launch runs body once per (subgroup, column tile) pair, spreading the pairs
// over at most numWorkers goroutines and blocking until every subgroup has
// returned. There is no ordering guarantee between subgroups.
func Launch(cfg Config, tilesY int, body func(sg Subgroup)) {
	if cfg.Subgroups <= 0 || cfg.Width <= 0 || tilesY <= 0 {
		return
	}

	total := cfg.Subgroups * tilesY
	workers := numWorkers
	if total < workers {
		workers = total
	}
	perWorker := (total + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * perWorker
		end := start + perWorker
		if start >= total {
			break
		}
		if end > total {
			end = total
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for task := start; task < end; task++ {
				body(Subgroup{
					Index: task % cfg.Subgroups,
					Count: cfg.Subgroups,
					Tile:  task / cfg.Subgroups,
					Width: cfg.Width,
				})
			}
		}(start, end)
	}
	wg.Wait()
}

// Launch2D runs body once per point of an nx-by-ny index space, chunked by
// rows of the space across the worker bound. Used by the element-wise scale
// kernel, which has no cross-element dependency.
func Launch2D(nx, ny int, body func(x, y int)) {
	if nx <= 0 || ny <= 0 {
		return
	}

	workers := numWorkers
	if nx < workers {
		workers = nx
	}
	perWorker := (nx + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * perWorker
		end := start + perWorker
		if start >= nx {
			break
		}
		if end > nx {
			end = nx
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for x := start; x < end; x++ {
				for y := 0; y < ny; y++ {
					body(x, y)
				}
			}
		}(start, end)
	}
	wg.Wait()
}

// Tiles returns how many width-sized tiles cover n columns.
func Tiles(n, width int) int {
	if n <= 0 {
		return 0
	}
	return (n + width - 1) / width
}
