// Package sim drives the per-tick delivery simulation and its accounting.
package sim

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/elektrokombinacija/hivefleet/internal/algo"
	"github.com/elektrokombinacija/hivefleet/internal/config"
	"github.com/elektrokombinacija/hivefleet/internal/core"
	"github.com/elektrokombinacija/hivefleet/internal/hive"
	"github.com/elektrokombinacija/hivefleet/internal/worldgen"
)

// heartbeatEvery is the tick interval between progress log lines.
const heartbeatEvery = 100

// Simulation owns the map, the agent roster and the parcel list, and runs
// the tick loop. One instance is single-threaded and shares nothing mutable
// with sibling instances.
type Simulation struct {
	setup  *config.Config
	grid   *core.Grid
	agents []*core.Agent
	// parcels is append-only; parcel handles held by agents stay valid.
	parcels []*core.Parcel

	mind    *hive.HiveMind
	scratch *algo.Scratch
	rng     *rand.Rand
	logger  *log.Logger

	tick int

	revenue   int64
	costs     int64
	penalties int64

	delivered int
	failed    int
	lost      int
	alive     int
}

// New creates a simulation that generates its own map and roster from the
// setup. rng drives map generation and parcel spawning; pass a fixed seed
// for reproducible runs.
func New(setup *config.Config, rng *rand.Rand, logger *log.Logger) *Simulation {
	return &Simulation{
		setup:   setup,
		mind:    hive.New(),
		scratch: algo.NewScratch(),
		rng:     rng,
		logger:  logger,
	}
}

// NewWithWorld creates a simulation over a prebuilt grid and roster,
// bypassing the procedural generator. Scenario tests use this.
func NewWithWorld(setup *config.Config, grid *core.Grid, agents []*core.Agent, rng *rand.Rand, logger *log.Logger) *Simulation {
	s := New(setup, rng, logger)
	s.grid = grid
	s.agents = agents
	s.alive = len(agents)
	return s
}

// AddParcel injects a scripted parcel, bypassing the random spawner.
// Scenario tests use this together with NewWithWorld.
func (s *Simulation) AddParcel(p *core.Parcel) {
	s.parcels = append(s.parcels, p)
}

// Initialize generates the map and spawns the initial fleet at the Base.
func (s *Simulation) Initialize() error {
	s.logf("=== SIMULATION INIT ===")

	if s.grid == nil {
		g, err := worldgen.Generate(s.setup, s.rng)
		if err != nil {
			return fmt.Errorf("generate map: %w", err)
		}
		s.grid = g
	}

	if s.agents == nil {
		id := 0
		spawn := func(kind core.AgentKind, n int) {
			for i := 0; i < n; i++ {
				s.agents = append(s.agents, core.NewAgent(id, kind, s.grid.Base))
				id++
			}
		}
		spawn(core.Drone, s.setup.DronesCount)
		spawn(core.Robot, s.setup.RobotsCount)
		spawn(core.Scooter, s.setup.ScootersCount)
	}
	s.alive = len(s.agents)

	s.logf("spawned %d agents at base (%d,%d)", s.alive, s.grid.Base.X, s.grid.Base.Y)
	return nil
}

// Run drives the tick loop until maxTicks or fleet wipeout, then settles
// the failure penalties for undelivered parcels.
func (s *Simulation) Run() {
	s.logf("simulation started, max ticks: %d", s.setup.MaxTicks)
	start := time.Now()

	for s.tick < s.setup.MaxTicks {
		s.tick++

		if s.tick%heartbeatEvery == 0 {
			s.logf("--- heartbeat: %d delivered, %d agents alive ---", s.delivered, s.alive)
		}

		s.spawnParcels()
		s.mind.Update(s.agents, s.parcels, s.grid, s.tick)
		s.updateAgents()
		s.processDeliveries()

		s.alive = 0
		for _, a := range s.agents {
			if a.Alive() {
				s.alive++
			}
		}
		if s.alive == 0 {
			s.logf("all agents dead, stopping early")
			break
		}
	}

	for _, p := range s.parcels {
		if !p.Delivered {
			s.penalties += int64(p.FailurePenaltyDue())
			s.failed++
		}
	}

	s.logf("=== SIMULATION DONE in %v ===", time.Since(start))
}

// spawnParcels creates at most one parcel per spawn tick, up to the
// configured total: uniform client, reward in [200,800], deadline 10-20
// ticks out.
func (s *Simulation) spawnParcels() {
	if s.setup.SpawnFrequency <= 0 || s.tick%s.setup.SpawnFrequency != 0 {
		return
	}
	if len(s.parcels) >= s.setup.TotalPackages || len(s.grid.Clients) == 0 {
		return
	}

	clientIdx := s.rng.Intn(len(s.grid.Clients))
	p := &core.Parcel{
		ID:        len(s.parcels),
		Dest:      s.grid.Clients[clientIdx],
		Reward:    200 + s.rng.Intn(601),
		Deadline:  s.tick + 10 + s.rng.Intn(11),
		SpawnTick: s.tick,
		ClientID:  clientIdx,
	}
	s.parcels = append(s.parcels, p)

	s.logf("spawned parcel %d: reward %d, deadline tick %d, client %d",
		p.ID, p.Reward, p.Deadline, p.ClientID)
}

// updateAgents charges or moves every living agent and settles operating
// costs. Cost is charged while stepping or loitering off a charger, never
// while resting on one.
func (s *Simulation) updateAgents() {
	for _, a := range s.agents {
		if !a.Alive() {
			continue
		}

		onCharger := s.grid.IsChargingCell(a.Pos)
		if !onCharger || a.State == core.Moving {
			s.costs += int64(a.CostPerTick)
		}

		if onCharger && a.State != core.Moving {
			if a.BatteryPercent() < 100 {
				a.State = core.Charging
				a.Charge()
			} else {
				a.State = core.Idle
			}
			continue
		}

		a.Move(s.grid, s.scratch.NextStep)
		if !a.Alive() {
			s.lost++
			s.penalties += core.DeathPenalty
			s.logf("agent %d [%s] died at (%d,%d), battery depleted",
				a.ID, a.Kind, a.Pos.X, a.Pos.Y)
			a.ReleaseParcel()
		}
	}
}

// processDeliveries completes parcels whose carrier stands on the
// destination cell. Pickup at the Base is mandatory: an agent that never
// flipped HasParcel cannot deliver.
func (s *Simulation) processDeliveries() {
	for _, a := range s.agents {
		if !a.Alive() || !a.Busy() || !a.HasParcel {
			continue
		}

		p := a.Parcel
		if a.Pos != p.Dest {
			continue
		}

		p.Delivered = true
		s.delivered++
		s.revenue += int64(p.Reward)

		if p.Late(s.tick) {
			s.penalties += int64(p.DelayPenalty(s.tick))
			s.logf("parcel %d delivered by agent %d [%s], %d ticks late, penalty %d",
				p.ID, a.ID, a.Kind, p.Delay(s.tick), core.LatePenalty)
		} else {
			s.logf("parcel %d delivered by agent %d [%s] on time", p.ID, a.ID, a.Kind)
		}

		a.DropParcel()
	}
}

func (s *Simulation) logf(format string, args ...any) {
	s.logger.Infof("[TICK %d] "+format, append([]any{s.tick}, args...)...)
}

// Profit returns revenue - costs - penalties.
func (s *Simulation) Profit() int64 { return s.revenue - s.costs - s.penalties }

func (s *Simulation) Tick() int               { return s.tick }
func (s *Simulation) Revenue() int64          { return s.revenue }
func (s *Simulation) Costs() int64            { return s.costs }
func (s *Simulation) Penalties() int64        { return s.penalties }
func (s *Simulation) Delivered() int          { return s.delivered }
func (s *Simulation) Failed() int             { return s.failed }
func (s *Simulation) AgentsLost() int         { return s.lost }
func (s *Simulation) AgentsAlive() int        { return s.alive }
func (s *Simulation) Grid() *core.Grid        { return s.grid }
func (s *Simulation) Parcels() []*core.Parcel { return s.parcels }
func (s *Simulation) Agents() []*core.Agent   { return s.agents }

// SuccessRate returns delivered parcels as a percentage of spawned ones.
func (s *Simulation) SuccessRate() float64 {
	if len(s.parcels) == 0 {
		return 0
	}
	return float64(s.delivered) * 100 / float64(len(s.parcels))
}
