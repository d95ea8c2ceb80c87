// Command hivefleet runs the delivery fleet simulator.
//
// Default mode runs a single logged simulation and writes a report file.
// --benchmark runs TotalIterations silent simulations in parallel and
// prints the aggregate to stdout.
package main

import (
	"flag"
	"math/rand"
	"os"

	"github.com/charmbracelet/log"

	"github.com/elektrokombinacija/hivefleet/internal/bench"
	"github.com/elektrokombinacija/hivefleet/internal/config"
	"github.com/elektrokombinacija/hivefleet/internal/sim"
)

const (
	defaultSetupFile = "simulation_setup.txt"
	logFile          = "simulation_log.txt"
	reportFile       = "simulation_report.txt"
)

func main() {
	benchmark := flag.Bool("benchmark", false, "run the parallel benchmark instead of a single simulation")
	setupPath := flag.String("setup", defaultSetupFile, "path to the simulation setup file")
	seed := flag.Int64("seed", 0, "RNG seed for a single run (0 = random)")
	flag.Parse()

	stderr := log.New(os.Stderr)

	setup, err := config.Load(*setupPath)
	if err != nil {
		stderr.Fatal("cannot load setup", "err", err)
	}

	if *benchmark {
		bench.Run(setup, bench.TotalIterations, os.Stdout)
		return
	}

	if err := runSingle(setup, *seed, stderr); err != nil {
		stderr.Fatal("simulation failed", "err", err)
	}
}

func runSingle(setup *config.Config, seed int64, stderr *log.Logger) error {
	if seed == 0 {
		seed = rand.Int63()
	}

	f, err := os.Create(logFile)
	if err != nil {
		return err
	}
	defer f.Close()

	logger := log.New(f)
	logger.Info("run configured", "seed", seed, "setup", *setup)

	s := sim.New(setup, rand.New(rand.NewSource(seed)), logger)
	if err := s.Initialize(); err != nil {
		return err
	}
	s.Run()

	if err := s.WriteReport(reportFile); err != nil {
		return err
	}
	stderr.Info("simulation finished",
		"ticks", s.Tick(),
		"delivered", s.Delivered(),
		"profit", s.Profit(),
	)
	return nil
}
