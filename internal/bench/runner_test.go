package bench

import (
	"io"
	"testing"

	"github.com/elektrokombinacija/hivefleet/internal/config"
)

func TestRunSmallBatch(t *testing.T) {
	setup := &config.Config{
		MapHeight: 10, MapWidth: 10,
		MaxTicks:    30,
		MaxStations: 1, ClientsCount: 3,
		DronesCount: 1, RobotsCount: 1, ScootersCount: 1,
		TotalPackages: 5, SpawnFrequency: 2,
	}

	res := Run(setup, 8, io.Discard)

	if res.Iterations != 8 {
		t.Errorf("iterations = %d, want 8", res.Iterations)
	}
	if res.Faults != 0 {
		t.Errorf("faults = %d, want 0", res.Faults)
	}
	if res.RunID == "" {
		t.Error("missing run id")
	}
	if res.Workers < 1 {
		t.Errorf("workers = %d", res.Workers)
	}
}
