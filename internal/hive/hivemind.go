// Package hive implements the HiveMind central dispatcher.
//
// The dispatcher is stateless between ticks: every update re-derives its
// decisions from the agent roster, the parcel pool and the map. It never
// moves an agent itself; it only sets targets and states through the agent
// command API.
package hive

import (
	"math"
	"sort"

	"github.com/elektrokombinacija/hivefleet/internal/core"
)

// Params tune the per-tick assignment policy.
type Params struct {
	ProfitWeight   float64
	SafetyWeight   float64
	UrgencyWeight  float64
	DistanceWeight float64

	CriticalBattery int // battery %, below which an agent is evicted to a charger
	LowBattery      int // battery %, retained for tuning; see idle top-up
	SafeMargin      int // % margin on the round-trip energy estimate
}

// DefaultParams returns the tuned production weights.
func DefaultParams() Params {
	return Params{
		ProfitWeight:   0.50,
		SafetyWeight:   0.30,
		UrgencyWeight:  0.20,
		DistanceWeight: 0.10,

		CriticalBattery: 20,
		LowBattery:      40,
		SafeMargin:      30,
	}
}

// idleTopUpPercent is the battery level below which an idle agent is sent
// to charge opportunistically.
const idleTopUpPercent = 90.0

// HiveMind observes the whole fleet once per tick and decides assignments,
// charger evictions and idle top-ups.
type HiveMind struct {
	params Params
}

// New creates a dispatcher with the default tuning.
func New() *HiveMind {
	return &HiveMind{params: DefaultParams()}
}

// NewWithParams creates a dispatcher with custom tuning.
func NewWithParams(p Params) *HiveMind {
	return &HiveMind{params: p}
}

// Params returns the active tuning.
func (h *HiveMind) Params() Params { return h.params }

// Update runs the three per-tick phases in order: low-battery eviction,
// greedy scored assignment, idle top-up.
func (h *HiveMind) Update(agents []*core.Agent, parcels []*core.Parcel, g *core.Grid, tick int) {
	h.evictLowBattery(agents, g)
	h.assignParcels(agents, parcels, g, tick)
	h.topUpIdle(agents, g)
}

// nearestCharger returns the Manhattan-closest charging cell (the Base or
// any Station) to pos.
func (h *HiveMind) nearestCharger(pos core.Point, g *core.Grid) core.Point {
	nearest := g.Base
	minDist := core.Manhattan(pos, nearest)
	for _, station := range g.Stations {
		if d := core.Manhattan(pos, station); d < minDist {
			minDist = d
			nearest = station
		}
	}
	return nearest
}

// estimatedDistance measures with the type-appropriate metric: Euclidean
// for drones, Manhattan for ground agents.
func estimatedDistance(kind core.AgentKind, a, b core.Point) float64 {
	if kind == core.Drone {
		return core.Euclidean(a, b)
	}
	return float64(core.Manhattan(a, b))
}

// safetyFactor inflates distance estimates when checking round-trip
// reachability. Ground agents get 2.0 to cover BFS detours around
// procedurally placed walls; drones fly straight and get 1.1.
func safetyFactor(kind core.AgentKind) float64 {
	if kind == core.Drone {
		return 1.1
	}
	return 2.0
}

// roundTripBudget is the safety-factored distance of the full mission:
// agent -> Base (pickup), Base -> dest (dropoff), dest -> nearest charger.
func (h *HiveMind) roundTripBudget(a *core.Agent, dest core.Point, g *core.Grid) float64 {
	factor := safetyFactor(a.Kind)
	charger := h.nearestCharger(dest, g)
	d := estimatedDistance(a.Kind, a.Pos, g.Base) +
		estimatedDistance(a.Kind, g.Base, dest) +
		estimatedDistance(a.Kind, dest, charger)
	return d * factor
}

// needsCharging reports whether the agent cannot complete the mission to
// dest with the configured safety margin left over.
func (h *HiveMind) needsCharging(a *core.Agent, dest core.Point, g *core.Grid) bool {
	budget := h.roundTripBudget(a, dest, g)
	required := budget * a.Consumption / float64(a.Speed())
	return a.Battery < required*(1+float64(h.params.SafeMargin)/100)
}

// estimateDeliveryTime approximates ticks to reach dest from the agent's
// position. The path factor compensates for not running BFS here.
func estimateDeliveryTime(a *core.Agent, dest core.Point) int {
	dist := estimatedDistance(a.Kind, a.Pos, dest)
	pathFactor := 1.3
	if a.Kind == core.Drone {
		pathFactor = 1.0
	}
	return int(math.Ceil(dist * pathFactor / float64(a.Speed())))
}

// rejectedScore marks pairs that must never be committed.
const rejectedScore = -1000.0

// score rates an (agent, parcel) pairing. Positive scores are candidates
// for assignment; the weighted sum balances profit, battery safety,
// deadline urgency and proximity to the Base.
func (h *HiveMind) score(a *core.Agent, p *core.Parcel, g *core.Grid, tick int) float64 {
	if a.BatteryPercent() < float64(h.params.CriticalBattery) {
		return rejectedScore
	}
	budget := h.roundTripBudget(a, p.Dest, g)
	if budget > a.Battery/a.Consumption*float64(a.Speed()) {
		return rejectedScore // cannot reach under the safety-factored estimate
	}

	deliveryTime := estimateDeliveryTime(a, p.Dest)
	deliveryCost := float64(a.CostPerTick * deliveryTime)
	grossProfit := float64(p.Reward) - deliveryCost

	timeUntilDeadline := p.Deadline - tick
	delayPenalty := 0.0
	if deliveryTime > timeUntilDeadline {
		delayPenalty = float64(core.LatePenalty)
	}
	netProfit := grossProfit - delayPenalty

	// Battery risk steps with the fraction of current charge the trip eats.
	batteryRisk := 0.0
	neededPercent := float64(deliveryTime) * a.Consumption / a.Battery * 100
	switch {
	case neededPercent > 80:
		batteryRisk = 1.0
	case neededPercent > 60:
		batteryRisk = 0.7
	case neededPercent > 40:
		batteryRisk = 0.4
	case neededPercent > 20:
		batteryRisk = 0.2
	}

	urgencyFactor := 1.0
	slack := timeUntilDeadline - deliveryTime
	if slack < 3 {
		urgencyFactor = 2.0
	} else if slack < 8 {
		urgencyFactor = 1.5
	}

	distanceFactor := 1.0
	if core.Manhattan(a.Pos, g.Base) > 10 {
		distanceFactor = 0.8
	}

	score := h.params.ProfitWeight * (netProfit / 800.0)
	score += h.params.SafetyWeight * (1.0 - batteryRisk)
	score += h.params.UrgencyWeight * (urgencyFactor / float64(deliveryTime+1))
	score += h.params.DistanceWeight * distanceFactor

	// Type affinity.
	if a.Kind == core.Robot && p.Reward < 400 {
		score += 0.2
	} else if a.Kind == core.Drone && p.Reward > 600 && timeUntilDeadline < 15 {
		score += 0.3
	} else if a.Kind == core.Scooter && deliveryTime >= 5 && deliveryTime <= 15 {
		score += 0.1
	}

	return score
}

// evictLowBattery (phase 1) sends every living, non-charging agent below
// the critical threshold to its nearest charger. The motion API releases
// any held parcel.
func (h *HiveMind) evictLowBattery(agents []*core.Agent, g *core.Grid) {
	for _, a := range agents {
		if !a.Alive() || a.State == core.Charging {
			continue
		}
		if a.BatteryPercent() < float64(h.params.CriticalBattery) {
			a.SendToCharge(h.nearestCharger(a.Pos, g))
		}
	}
}

type pairScore struct {
	agentIdx  int
	parcelIdx int
	score     float64
}

// assignParcels (phase 2) scores every free agent against every open
// parcel, then commits non-conflicting pairs greedily from the top. A
// committed agent that cannot make the round trip is diverted to a charger
// instead, and its parcel stays in the pool.
func (h *HiveMind) assignParcels(agents []*core.Agent, parcels []*core.Parcel, g *core.Grid, tick int) {
	var scores []pairScore
	for ai, a := range agents {
		if !a.Alive() || a.Busy() {
			continue
		}
		for pi, p := range parcels {
			if p.Assigned || p.Delivered {
				continue
			}
			if s := h.score(a, p, g, tick); s > 0 {
				scores = append(scores, pairScore{agentIdx: ai, parcelIdx: pi, score: s})
			}
		}
	}

	// Stable sort keeps the deterministic roster/pool iteration order as
	// the tie-break.
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	agentTaken := make([]bool, len(agents))
	parcelTaken := make([]bool, len(parcels))
	for _, ps := range scores {
		if agentTaken[ps.agentIdx] || parcelTaken[ps.parcelIdx] {
			continue
		}
		a, p := agents[ps.agentIdx], parcels[ps.parcelIdx]
		if h.needsCharging(a, p.Dest, g) {
			a.SendToCharge(h.nearestCharger(a.Pos, g))
		} else {
			a.AssignTask(p, g.Base)
			p.Assigned = true
		}
		agentTaken[ps.agentIdx] = true
		parcelTaken[ps.parcelIdx] = true
	}
}

// topUpIdle (phase 3) routes idle agents below the top-up threshold to a
// charger, unless they already stand on it.
func (h *HiveMind) topUpIdle(agents []*core.Agent, g *core.Grid) {
	for _, a := range agents {
		if !a.Alive() || a.Busy() {
			continue
		}
		if a.State == core.Idle && a.BatteryPercent() < idleTopUpPercent {
			charger := h.nearestCharger(a.Pos, g)
			if a.Pos != charger {
				a.SendToCharge(charger)
			}
		}
	}
}
