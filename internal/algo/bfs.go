// Package algo implements grid pathfinding for the fleet.
package algo

import (
	"sync"

	"github.com/elektrokombinacija/hivefleet/internal/core"
)

// Neighbour order is fixed (up, down, left, right) so tie-breaks between
// equal-length paths are deterministic.
var (
	stepDX = [4]int{0, 0, -1, 1}
	stepDY = [4]int{-1, 1, 0, 0}
)

// Scratch is a reusable BFS arena sized to the map area. Visits are keyed by
// a monotonically incrementing run token, so nothing is cleared between
// calls. A Scratch must not be shared across goroutines; each simulation
// (and therefore each benchmark worker) owns its own.
type Scratch struct {
	area    int
	visited []uint32
	parent  []int32
	queue   []int32
	token   uint32
}

// NewScratch creates an empty arena. Buffers are sized on first use.
func NewScratch() *Scratch {
	return &Scratch{}
}

func (s *Scratch) ensure(area int) {
	if s.area == area {
		return
	}
	s.area = area
	s.visited = make([]uint32, area)
	s.parent = make([]int32, area)
	s.queue = make([]int32, area)
	s.token = 0
}

// NextStep returns the neighbour of start on some shortest 4-connected
// non-wall path to target. It returns start itself when start == target or
// when target is unreachable.
func (s *Scratch) NextStep(start, target core.Point, g *core.Grid) core.Point {
	if start == target {
		return start
	}

	w, h := g.Width(), g.Height()
	s.ensure(w * h)

	s.token++
	if s.token == 0 {
		// Token wrapped; stale marks could read as visited.
		for i := range s.visited {
			s.visited[i] = 0
		}
		s.token = 1
	}

	startIdx := int32(start.Y*w + start.X)
	targetIdx := int32(target.Y*w + target.X)

	head, tail := 0, 0
	s.queue[tail] = startIdx
	tail++
	s.visited[startIdx] = s.token
	s.parent[startIdx] = -1

	found := false
	for head < tail {
		cur := s.queue[head]
		head++
		if cur == targetIdx {
			found = true
			break
		}

		cx, cy := int(cur)%w, int(cur)/w
		for i := 0; i < 4; i++ {
			nx, ny := cx+stepDX[i], cy+stepDY[i]
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			if g.Cell(nx, ny) == core.CellWall {
				continue
			}
			nIdx := int32(ny*w + nx)
			if s.visited[nIdx] != s.token {
				s.visited[nIdx] = s.token
				s.parent[nIdx] = cur
				s.queue[tail] = nIdx
				tail++
			}
		}
	}

	if !found {
		return start
	}

	// Walk parents back to the first step after start.
	cur := targetIdx
	prev := cur
	for cur != startIdx {
		prev = cur
		cur = s.parent[cur]
	}
	return core.Point{X: int(prev) % w, Y: int(prev) / w}
}

var scratchPool = sync.Pool{New: func() any { return NewScratch() }}

// NextStep is the pooled convenience form for callers without a dedicated
// Scratch. Concurrent callers never share an arena.
func NextStep(start, target core.Point, g *core.Grid) core.Point {
	s := scratchPool.Get().(*Scratch)
	step := s.NextStep(start, target, g)
	scratchPool.Put(s)
	return step
}
