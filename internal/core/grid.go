package core

import "strings"

// Cell classifies a grid cell. The glyphs double as the map's text rendering.
type Cell byte

const (
	CellEmpty   Cell = '.'
	CellWall    Cell = '#'
	CellBase    Cell = 'B'
	CellStation Cell = 'S'
	CellClient  Cell = 'D'
)

// Grid is a rectangular 4-connected map. Immutable after generation: a single
// Base cell (the pickup point), charging Stations, Client delivery cells and
// impassable Walls.
type Grid struct {
	height, width int
	rows          [][]Cell

	Base     Point
	Clients  []Point
	Stations []Point
}

// NewGrid creates an all-empty height x width grid.
func NewGrid(height, width int) *Grid {
	rows := make([][]Cell, height)
	for y := range rows {
		row := make([]Cell, width)
		for x := range row {
			row[x] = CellEmpty
		}
		rows[y] = row
	}
	return &Grid{height: height, width: width, rows: rows}
}

func (g *Grid) Height() int { return g.height }
func (g *Grid) Width() int  { return g.width }
func (g *Grid) Area() int   { return g.height * g.width }

// InBounds reports whether (x, y) is a valid coordinate.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// Cell returns the cell kind at (x, y). Out-of-bounds reads as Wall so
// callers never step off the map.
func (g *Grid) Cell(x, y int) Cell {
	if !g.InBounds(x, y) {
		return CellWall
	}
	return g.rows[y][x]
}

// SetCell writes a cell and indexes Base/Client/Station positions.
// Only the generator calls this; the grid is immutable afterwards.
func (g *Grid) SetCell(x, y int, c Cell) {
	if !g.InBounds(x, y) {
		return
	}
	g.rows[y][x] = c
	switch c {
	case CellBase:
		g.Base = Point{X: x, Y: y}
	case CellClient:
		g.Clients = append(g.Clients, Point{X: x, Y: y})
	case CellStation:
		g.Stations = append(g.Stations, Point{X: x, Y: y})
	}
}

// IsChargingCell reports whether p is the Base or a Station.
func (g *Grid) IsChargingCell(p Point) bool {
	c := g.Cell(p.X, p.Y)
	return c == CellBase || c == CellStation
}

// String renders the grid one row per line.
func (g *Grid) String() string {
	var sb strings.Builder
	sb.Grow((g.width + 1) * g.height)
	for _, row := range g.rows {
		for _, c := range row {
			sb.WriteByte(byte(c))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
