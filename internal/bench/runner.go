// Package bench runs many independent simulations in parallel and
// aggregates their scorecards.
package bench

import (
	"fmt"
	"io"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/elektrokombinacija/hivefleet/internal/config"
	"github.com/elektrokombinacija/hivefleet/internal/sim"
)

// TotalIterations is the default benchmark size.
const TotalIterations = 100000

// Result aggregates the fleet economics across all iterations.
type Result struct {
	RunID         string
	Workers       int
	Iterations    int
	Faults        int64
	Elapsed       time.Duration
	MeanProfit    float64
	MeanSurvivors float64
	MeanDelivered float64
}

type tallies struct {
	profit    int64
	survivors int64
	delivered int64
}

// Run executes iterations independent simulations across the available
// hardware threads, with logging disabled. Each worker owns one RNG, so
// sibling simulations on a worker see a continuous stream. A faulting
// iteration is skipped; the progress counter still advances.
func Run(setup *config.Config, iterations int, out io.Writer) Result {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 4
	}
	if workers > iterations {
		workers = iterations
	}

	fmt.Fprintf(out, "--- MULTI-THREADED BENCHMARK ---\n")
	fmt.Fprintf(out, "System: %d CPU cores\n", runtime.NumCPU())
	fmt.Fprintf(out, "Task: %d simulations\n", iterations)

	var (
		progress atomic.Int64
		faults   atomic.Int64
		mu       sync.Mutex
		global   tallies
		wg       sync.WaitGroup
	)

	start := time.Now()

	perWorker := iterations / workers
	remainder := iterations % workers

	for w := 0; w < workers; w++ {
		count := perWorker
		if w == workers-1 {
			count += remainder
		}

		wg.Add(1)
		go func(seed int64, count int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			var local tallies

			for i := 0; i < count; i++ {
				runOne(setup, rng, &local, &faults)
				progress.Add(1)
			}

			mu.Lock()
			global.profit += local.profit
			global.survivors += local.survivors
			global.delivered += local.delivered
			mu.Unlock()
		}(rand.Int63(), count)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
poll:
	for {
		select {
		case <-done:
			break poll
		case <-ticker.C:
			current := progress.Load()
			fmt.Fprintf(out, "\rProgress: [%d%%] %d/%d", current*100/int64(iterations), current, iterations)
		}
	}
	fmt.Fprintf(out, "\rProgress: [100%%] %d/%d Done!\n", iterations, iterations)

	res := Result{
		RunID:      uuid.NewString(),
		Workers:    workers,
		Iterations: iterations,
		Faults:     faults.Load(),
		Elapsed:    time.Since(start),
	}
	n := float64(iterations)
	res.MeanProfit = float64(global.profit) / n
	res.MeanSurvivors = float64(global.survivors) / n
	res.MeanDelivered = float64(global.delivered) / n

	writeSummary(out, res)
	return res
}

// runOne is the worker fault boundary: a panicking iteration is counted
// and skipped without taking the worker down.
func runOne(setup *config.Config, rng *rand.Rand, local *tallies, faults *atomic.Int64) {
	defer func() {
		if r := recover(); r != nil {
			faults.Add(1)
		}
	}()

	s := sim.New(setup, rng, log.New(io.Discard))
	if err := s.Initialize(); err != nil {
		faults.Add(1)
		return
	}
	s.Run()

	local.profit += s.Profit()
	local.survivors += int64(s.AgentsAlive())
	local.delivered += int64(s.Delivered())
}

func writeSummary(out io.Writer, res Result) {
	sep := "========================================"
	fmt.Fprintf(out, "\n%s\n", sep)
	fmt.Fprintf(out, "FINAL RESULTS (%d workers)\n", res.Workers)
	fmt.Fprintf(out, "%s\n", sep)
	fmt.Fprintf(out, "Run ID:              %s\n", res.RunID)
	fmt.Fprintf(out, "Elapsed:             %.2f seconds\n", res.Elapsed.Seconds())
	fmt.Fprintf(out, "Throughput:          %d simulations/sec\n", int(float64(res.Iterations)/res.Elapsed.Seconds()))
	fmt.Fprintf(out, "----------------------------------------\n")
	fmt.Fprintf(out, "MEAN PROFIT:         %.2f\n", res.MeanProfit)
	fmt.Fprintf(out, "MEAN SURVIVORS:      %.2f\n", res.MeanSurvivors)
	fmt.Fprintf(out, "MEAN DELIVERED:      %.2f\n", res.MeanDelivered)
	if res.Faults > 0 {
		fmt.Fprintf(out, "SKIPPED (faults):    %d\n", res.Faults)
	}
	fmt.Fprintf(out, "%s\n", sep)
}
