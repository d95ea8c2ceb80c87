package sim

import (
	"fmt"
	"os"
	"strings"

	"github.com/elektrokombinacija/hivefleet/internal/core"
)

// Report renders the final plain-text scorecard. Formatting is fixed so two
// runs with the same seed produce byte-identical files.
func (s *Simulation) Report() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "=== HIVEMIND SIMULATION FINAL REPORT ===\n\n")

	fmt.Fprintf(&sb, "SETTINGS:\n")
	fmt.Fprintf(&sb, "Max ticks: %d\n", s.setup.MaxTicks)
	fmt.Fprintf(&sb, "Ticks run: %d\n", s.tick)
	fmt.Fprintf(&sb, "Map size: %dx%d\n", s.grid.Width(), s.grid.Height())
	fmt.Fprintf(&sb, "Initial agents: %d\n", len(s.agents))
	fmt.Fprintf(&sb, "Parcels spawned: %d\n\n", len(s.parcels))

	fmt.Fprintf(&sb, "OPERATIONAL STATS:\n")
	fmt.Fprintf(&sb, "Agents surviving: %d\n", s.alive)
	fmt.Fprintf(&sb, "Agents lost: %d\n", s.lost)
	fmt.Fprintf(&sb, "Parcels delivered: %d\n", s.delivered)
	fmt.Fprintf(&sb, "Parcels undelivered: %d\n", s.failed)
	fmt.Fprintf(&sb, "Success rate: %.2f%%\n\n", s.SuccessRate())

	latePenalties := s.penalties - int64(s.lost)*core.DeathPenalty - int64(s.failed)*core.FailurePenalty

	fmt.Fprintf(&sb, "FINANCIALS:\n")
	fmt.Fprintf(&sb, "Maximum profit: %d credits\n", s.revenue-s.costs)
	fmt.Fprintf(&sb, "Total revenue: %d credits\n", s.revenue)
	fmt.Fprintf(&sb, "Total costs: %d credits\n", s.costs)
	fmt.Fprintf(&sb, "Total penalties: %d credits\n", s.penalties)
	fmt.Fprintf(&sb, "  - dead agents: %d credits (%d per agent)\n", int64(s.lost)*core.DeathPenalty, core.DeathPenalty)
	fmt.Fprintf(&sb, "  - late deliveries: %d credits (%d per parcel)\n", latePenalties, core.LatePenalty)
	fmt.Fprintf(&sb, "  - undelivered parcels: %d credits (%d per parcel)\n", int64(s.failed)*core.FailurePenalty, core.FailurePenalty)
	fmt.Fprintf(&sb, "NET PROFIT: %d credits\n\n", s.Profit())

	fmt.Fprintf(&sb, "AGENT DETAILS:\n")
	type tally struct{ total, alive int }
	var byKind [3]tally
	for _, a := range s.agents {
		byKind[a.Kind].total++
		if a.Alive() {
			byKind[a.Kind].alive++
		}
	}
	fmt.Fprintf(&sb, "Drones: %d/%d surviving\n", byKind[core.Drone].alive, byKind[core.Drone].total)
	fmt.Fprintf(&sb, "Robots: %d/%d surviving\n", byKind[core.Robot].alive, byKind[core.Robot].total)
	fmt.Fprintf(&sb, "Scooters: %d/%d surviving\n", byKind[core.Scooter].alive, byKind[core.Scooter].total)

	return sb.String()
}

// WriteReport writes the scorecard to path.
func (s *Simulation) WriteReport(path string) error {
	if err := os.WriteFile(path, []byte(s.Report()), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	s.logf("report saved to %s", path)
	return nil
}
