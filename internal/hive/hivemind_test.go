package hive

import (
	"testing"

	"github.com/elektrokombinacija/hivefleet/internal/core"
)

// testGrid builds an n x n wall-free grid, Base at (0,0), plus stations.
func testGrid(n int, stations ...core.Point) *core.Grid {
	g := core.NewGrid(n, n)
	g.SetCell(0, 0, core.CellBase)
	for _, s := range stations {
		g.SetCell(s.X, s.Y, core.CellStation)
	}
	return g
}

func parcelAt(id int, dest core.Point, reward, deadline int) *core.Parcel {
	return &core.Parcel{ID: id, Dest: dest, Reward: reward, Deadline: deadline}
}

func TestNearestCharger(t *testing.T) {
	g := testGrid(20, core.Point{X: 10, Y: 10})
	h := New()

	if c := h.nearestCharger(core.Point{X: 1, Y: 1}, g); c != g.Base {
		t.Errorf("nearest to (1,1) = %v, want Base", c)
	}
	if c := h.nearestCharger(core.Point{X: 12, Y: 12}, g); c != (core.Point{X: 10, Y: 10}) {
		t.Errorf("nearest to (12,12) = %v, want station", c)
	}
}

func TestEvictionOverridesAssignment(t *testing.T) {
	g := testGrid(20)
	h := New()

	a := core.NewAgent(0, core.Scooter, core.Point{X: 3, Y: 0})
	a.Battery = a.MaxBattery * 0.18 // below the critical threshold

	p := parcelAt(0, core.Point{X: 2, Y: 0}, 800, 30)

	h.Update([]*core.Agent{a}, []*core.Parcel{p}, g, 1)

	if a.Target != g.Base || a.State != core.Moving {
		t.Errorf("agent not evicted to charger: target=%v state=%v", a.Target, a.State)
	}
	if p.Assigned || a.Parcel != nil {
		t.Error("critical-battery agent was still given a parcel")
	}
}

func TestScoreRejectsCriticalBattery(t *testing.T) {
	g := testGrid(20)
	h := New()

	a := core.NewAgent(0, core.Drone, core.Point{X: 1, Y: 1})
	a.Battery = 15
	p := parcelAt(0, core.Point{X: 2, Y: 2}, 800, 50)

	if s := h.score(a, p, g, 1); s != rejectedScore {
		t.Errorf("score = %v, want %v", s, rejectedScore)
	}
}

func TestScoreRejectsUnreachable(t *testing.T) {
	g := testGrid(40)
	h := New()

	// 100/10*3 = 30 cells of range; the safety-factored round trip to the
	// far corner is well beyond it.
	a := core.NewAgent(0, core.Drone, core.Point{X: 0, Y: 0})
	p := parcelAt(0, core.Point{X: 39, Y: 39}, 800, 100)

	if s := h.score(a, p, g, 1); s != rejectedScore {
		t.Errorf("score = %v, want %v", s, rejectedScore)
	}
}

func TestAssignmentRoutesThroughBase(t *testing.T) {
	g := testGrid(20)
	h := New()

	a := core.NewAgent(0, core.Robot, core.Point{X: 2, Y: 2})
	p := parcelAt(0, core.Point{X: 5, Y: 0}, 500, 40)

	h.Update([]*core.Agent{a}, []*core.Parcel{p}, g, 1)

	if a.Parcel != p || !p.Assigned {
		t.Fatal("pair was not committed")
	}
	if a.Target != g.Base {
		t.Errorf("target = %v, want the Base for pickup", a.Target)
	}
	if a.HasParcel {
		t.Error("agent holds the parcel before reaching the Base")
	}
}

func TestUniqueAssignment(t *testing.T) {
	g := testGrid(20)
	h := New()

	agents := []*core.Agent{
		core.NewAgent(0, core.Robot, core.Point{X: 1, Y: 0}),
		core.NewAgent(1, core.Scooter, core.Point{X: 0, Y: 1}),
	}
	parcels := []*core.Parcel{
		parcelAt(0, core.Point{X: 4, Y: 0}, 300, 40),
		parcelAt(1, core.Point{X: 0, Y: 4}, 500, 40),
		parcelAt(2, core.Point{X: 4, Y: 4}, 700, 40),
	}

	h.Update(agents, parcels, g, 1)

	held := map[int]int{}
	for _, a := range agents {
		if a.Parcel != nil {
			held[a.Parcel.ID]++
		}
	}
	for id, n := range held {
		if n > 1 {
			t.Errorf("parcel %d held by %d agents", id, n)
		}
	}

	assigned := 0
	for _, p := range parcels {
		if p.Assigned {
			assigned++
		}
	}
	if assigned != len(held) {
		t.Errorf("assigned flags (%d) disagree with held handles (%d)", assigned, len(held))
	}
	if assigned != 2 {
		t.Errorf("assigned = %d, want one parcel per free agent", assigned)
	}
}

func TestCommitDivertsWhenRoundTripTooTight(t *testing.T) {
	g := testGrid(20)
	h := New()

	// Robot range check passes (battery 90 >= 80 needed for the 40-cell
	// safety-factored budget) but the 30% margin pushes the requirement to
	// 104, so the commit must divert to a charger instead.
	a := core.NewAgent(0, core.Robot, core.Point{X: 0, Y: 0})
	a.Battery = 90
	p := parcelAt(0, core.Point{X: 10, Y: 0}, 500, 60)

	h.Update([]*core.Agent{a}, []*core.Parcel{p}, g, 1)

	if a.Parcel != nil || p.Assigned {
		t.Error("tight round trip was assigned instead of diverted")
	}
	if a.Target != g.Base || a.State != core.Moving {
		t.Errorf("agent not sent to charger: target=%v state=%v", a.Target, a.State)
	}
}

func TestIdleTopUp(t *testing.T) {
	g := testGrid(20)
	h := New()

	away := core.NewAgent(0, core.Scooter, core.Point{X: 5, Y: 5})
	away.Battery = away.MaxBattery * 0.5

	resting := core.NewAgent(1, core.Scooter, core.Point{X: 0, Y: 0})
	resting.Battery = resting.MaxBattery * 0.5

	h.Update([]*core.Agent{away, resting}, nil, g, 1)

	if away.State != core.Moving || away.Target != g.Base {
		t.Errorf("off-charger agent not topped up: state=%v target=%v", away.State, away.Target)
	}
	if resting.State != core.Idle {
		t.Errorf("agent already on its charger was disturbed: state=%v", resting.State)
	}
}

func TestUpdateIdempotentWithinTick(t *testing.T) {
	g := testGrid(20, core.Point{X: 15, Y: 15})
	h := New()

	agents := []*core.Agent{
		core.NewAgent(0, core.Drone, core.Point{X: 1, Y: 1}),
		core.NewAgent(1, core.Robot, core.Point{X: 2, Y: 0}),
		core.NewAgent(2, core.Scooter, core.Point{X: 14, Y: 14}),
	}
	agents[2].Battery = agents[2].MaxBattery * 0.15

	parcels := []*core.Parcel{
		parcelAt(0, core.Point{X: 3, Y: 3}, 650, 20),
		parcelAt(1, core.Point{X: 6, Y: 1}, 250, 35),
	}

	h.Update(agents, parcels, g, 5)

	type snapshot struct {
		target core.Point
		state  core.AgentState
		parcel *core.Parcel
	}
	first := make([]snapshot, len(agents))
	for i, a := range agents {
		first[i] = snapshot{a.Target, a.State, a.Parcel}
	}

	h.Update(agents, parcels, g, 5)

	for i, a := range agents {
		if (snapshot{a.Target, a.State, a.Parcel}) != first[i] {
			t.Errorf("agent %d changed on repeated update: %+v -> target=%v state=%v",
				i, first[i], a.Target, a.State)
		}
	}
}

func TestRobotAffinityForCheapParcels(t *testing.T) {
	g := testGrid(20)
	h := New()

	robot := core.NewAgent(0, core.Robot, core.Point{X: 0, Y: 0})
	drone := core.NewAgent(1, core.Drone, core.Point{X: 0, Y: 0})
	cheap := parcelAt(0, core.Point{X: 2, Y: 0}, 300, 31)

	if rs, ds := h.score(robot, cheap, g, 1), h.score(drone, cheap, g, 1); rs <= ds {
		t.Errorf("robot score %v should beat drone score %v for a cheap parcel", rs, ds)
	}
}
