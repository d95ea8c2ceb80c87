// Command gen_scenarios emits a sweep of simulation setup files for
// benchmarking, in the KEY: value format the simulator loads.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

// scenario is one point in the sweep.
type scenario struct {
	name           string
	mapHeight      int
	mapWidth       int
	maxTicks       int
	stations       int
	clients        int
	drones         int
	robots         int
	scooters       int
	totalPackages  int
	spawnFrequency int
}

func (s scenario) render() string {
	return fmt.Sprintf(`// generated scenario: %s
MAP_SIZE: %d %d
MAX_TICKS: %d
MAX_STATIONS: %d
CLIENTS_COUNT: %d
DRONES: %d
ROBOTS: %d
SCOOTERS: %d
TOTAL_PACKAGES: %d
SPAWN_FREQUENCY: %d
`, s.name, s.mapHeight, s.mapWidth, s.maxTicks, s.stations, s.clients,
		s.drones, s.robots, s.scooters, s.totalPackages, s.spawnFrequency)
}

func main() {
	outputDir := flag.String("output", "scenarios", "directory for generated setup files")
	maxTicks := flag.Int("ticks", 500, "MAX_TICKS for every scenario")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	mapSizes := []int{20, 40, 60}
	fleets := []struct {
		name                     string
		drones, robots, scooters int
	}{
		{"drones", 6, 0, 0},
		{"ground", 0, 4, 4},
		{"mixed", 2, 3, 3},
	}

	count := 0
	for _, size := range mapSizes {
		for _, fleet := range fleets {
			s := scenario{
				name:           fmt.Sprintf("%s_%dx%d", fleet.name, size, size),
				mapHeight:      size,
				mapWidth:       size,
				maxTicks:       *maxTicks,
				stations:       size / 10,
				clients:        size / 4,
				drones:         fleet.drones,
				robots:         fleet.robots,
				scooters:       fleet.scooters,
				totalPackages:  size,
				spawnFrequency: 3,
			}

			path := filepath.Join(*outputDir, s.name+".txt")
			if err := os.WriteFile(path, []byte(s.render()), 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
				os.Exit(1)
			}
			count++
		}
	}

	fmt.Printf("Generated %d scenarios in %s\n", count, *outputDir)
}
