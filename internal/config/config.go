// Package config loads the line-oriented simulation setup file.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the process-wide simulation parameters. It is loaded once
// before any simulation starts and read-only thereafter; callers pass it by
// reference rather than reading a global.
type Config struct {
	MapHeight      int
	MapWidth       int
	MaxTicks       int
	MaxStations    int
	ClientsCount   int
	DronesCount    int
	RobotsCount    int
	ScootersCount  int
	TotalPackages  int
	SpawnFrequency int
}

// Load parses a setup file. Lines are `KEY: value` or `KEY value`; `//`
// starts a comment line; blank lines are ignored. A missing file or an
// unparseable value is a fatal input error surfaced to the caller.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open setup file: %w", err)
	}
	defer f.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		fields := strings.Fields(line)
		key := strings.TrimSuffix(fields[0], ":")
		values := fields[1:]

		if err := cfg.apply(key, values); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read setup file: %w", err)
	}

	return cfg, nil
}

func (c *Config) apply(key string, values []string) error {
	atoi := func(i int) (int, error) {
		if i >= len(values) {
			return 0, fmt.Errorf("%s: missing value", key)
		}
		n, err := strconv.Atoi(values[i])
		if err != nil {
			return 0, fmt.Errorf("%s: bad value %q", key, values[i])
		}
		return n, nil
	}

	var err error
	switch key {
	case "MAP_SIZE":
		if c.MapHeight, err = atoi(0); err != nil {
			return err
		}
		c.MapWidth, err = atoi(1)
	case "MAX_TICKS":
		c.MaxTicks, err = atoi(0)
	case "MAX_STATIONS":
		c.MaxStations, err = atoi(0)
	case "CLIENTS_COUNT":
		c.ClientsCount, err = atoi(0)
	case "DRONES":
		c.DronesCount, err = atoi(0)
	case "ROBOTS":
		c.RobotsCount, err = atoi(0)
	case "SCOOTERS":
		c.ScootersCount, err = atoi(0)
	case "TOTAL_PACKAGES":
		c.TotalPackages, err = atoi(0)
	case "SPAWN_FREQUENCY":
		c.SpawnFrequency, err = atoi(0)
	default:
		// Unknown keys are ignored so setup files can carry extra notes.
	}
	return err
}
