package main

// SpatialGrid buckets alive players into uniform cells so bullet-vs-player
// scans query 9 cells instead of every player. Rebuilt once per tick;
// cell slices keep their capacity across rebuilds.
type SpatialGrid struct {
	cellSize float64
	half     float64 // arena half-extent; world coords are origin-centered
	cols     int
	rows     int
	cells    [][]*Player
}

// NewSpatialGrid sizes the grid for an origin-centered square arena. The
// cell size must cover the largest interaction radius so a 3x3 query has
// no false negatives within one cell-width.
func NewSpatialGrid(halfExtent, cellSize float64) *SpatialGrid {
	cols := int(2*halfExtent/cellSize) + 1
	g := &SpatialGrid{
		cellSize: cellSize,
		half:     halfExtent,
		cols:     cols,
		rows:     cols,
		cells:    make([][]*Player, cols*cols),
	}
	return g
}

func (g *SpatialGrid) cellCoords(x, y float64) (int, int) {
	cx := int((x + g.half) / g.cellSize)
	cy := int((y + g.half) / g.cellSize)
	if cx < 0 {
		cx = 0
	} else if cx >= g.cols {
		cx = g.cols - 1
	}
	if cy < 0 {
		cy = 0
	} else if cy >= g.rows {
		cy = g.rows - 1
	}
	return cx, cy
}

// Rebuild clears the grid and re-buckets every alive player.
func (g *SpatialGrid) Rebuild(players map[string]*Player) {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	for _, p := range players {
		if !p.Alive {
			continue
		}
		cx, cy := g.cellCoords(p.X, p.Y)
		idx := cy*g.cols + cx
		g.cells[idx] = append(g.cells[idx], p)
	}
}

// Nearby appends every player in the 3x3 cell neighborhood around (x, y)
// to buf and returns the extended slice. Callers do the exact distance
// check; the grid only bounds the candidate set.
func (g *SpatialGrid) Nearby(x, y float64, buf []*Player) []*Player {
	cx, cy := g.cellCoords(x, y)
	for dy := -1; dy <= 1; dy++ {
		ny := cy + dy
		if ny < 0 || ny >= g.rows {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			nx := cx + dx
			if nx < 0 || nx >= g.cols {
				continue
			}
			buf = append(buf, g.cells[ny*g.cols+nx]...)
		}
	}
	return buf
}
