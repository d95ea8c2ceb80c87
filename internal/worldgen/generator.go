// Package worldgen builds procedural delivery maps.
package worldgen

import (
	"errors"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/elektrokombinacija/hivefleet/internal/config"
	"github.com/elektrokombinacija/hivefleet/internal/core"
)

const (
	maxAttempts = 2000

	// wallFraction of the area is budgeted for walls; noiseScale sets the
	// blob size of the simplex field that gates their placement.
	wallFraction = 0.2
	noiseScale   = 0.35
)

// ErrExhausted is returned when no connected map could be generated within
// the attempt budget.
var ErrExhausted = errors.New("worldgen: no valid map after max attempts")

// Generate rejection-samples a map: random Base, then Clients, then
// Stations into empty cells, then walls sprinkled where a simplex noise
// field is positive so obstacles clump into contiguous blobs. A candidate
// is accepted once BFS from the Base reaches every Client and Station.
// Generation is deterministic for a fixed rng stream.
func Generate(cfg *config.Config, rng *rand.Rand) (*core.Grid, error) {
	if cfg.ClientsCount+cfg.MaxStations+1 > cfg.MapHeight*cfg.MapWidth {
		return nil, errors.New("worldgen: map too small for requested cells")
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		g := buildCandidate(cfg, rng)
		if connected(g) {
			return g, nil
		}
	}
	return nil, ErrExhausted
}

func buildCandidate(cfg *config.Config, rng *rand.Rand) *core.Grid {
	g := core.NewGrid(cfg.MapHeight, cfg.MapWidth)

	g.SetCell(rng.Intn(cfg.MapWidth), rng.Intn(cfg.MapHeight), core.CellBase)

	placeRandom(g, rng, core.CellClient, cfg.ClientsCount)
	placeRandom(g, rng, core.CellStation, cfg.MaxStations)

	noise := opensimplex.New(rng.Int63())
	budget := int(float64(g.Area()) * wallFraction)
	placed := 0
	for tries := 0; tries < budget*3 && placed < budget; tries++ {
		x, y := rng.Intn(cfg.MapWidth), rng.Intn(cfg.MapHeight)
		if g.Cell(x, y) != core.CellEmpty {
			continue
		}
		if noise.Eval2(float64(x)*noiseScale, float64(y)*noiseScale) > 0 {
			g.SetCell(x, y, core.CellWall)
			placed++
		}
	}

	return g
}

// placeRandom puts n cells of kind c into still-empty cells.
func placeRandom(g *core.Grid, rng *rand.Rand, c core.Cell, n int) {
	for i := 0; i < n; i++ {
		for {
			x, y := rng.Intn(g.Width()), rng.Intn(g.Height())
			if g.Cell(x, y) == core.CellEmpty {
				g.SetCell(x, y, c)
				break
			}
		}
	}
}

// connected verifies that BFS from the Base over non-wall cells reaches
// every Client and Station.
func connected(g *core.Grid) bool {
	w, h := g.Width(), g.Height()
	visited := make([]bool, w*h)
	queue := make([]core.Point, 0, w*h)

	queue = append(queue, g.Base)
	visited[g.Base.Y*w+g.Base.X] = true

	targets := 0
	total := len(g.Clients) + len(g.Stations)

	dx := [4]int{0, 0, -1, 1}
	dy := [4]int{-1, 1, 0, 0}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		switch g.Cell(cur.X, cur.Y) {
		case core.CellClient, core.CellStation:
			targets++
		}

		for i := 0; i < 4; i++ {
			nx, ny := cur.X+dx[i], cur.Y+dy[i]
			if !g.InBounds(nx, ny) || g.Cell(nx, ny) == core.CellWall {
				continue
			}
			if idx := ny*w + nx; !visited[idx] {
				visited[idx] = true
				queue = append(queue, core.Point{X: nx, Y: ny})
			}
		}
	}

	return targets == total
}
