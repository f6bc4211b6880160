package paint

// spatialGrid buckets slot indices by canvas position so gesture updates
// only touch oscillators near the brush instead of scanning the whole pool.
// The grid is owned by the gesture thread; cell membership is maintained
// incrementally as slots are assigned and stolen.
type spatialGrid struct {
	cols, rows int
	bounds     CanvasRegionBounds
	cells      [][]int
}

func newSpatialGrid(cols, rows int, bounds CanvasRegionBounds) *spatialGrid {
	g := &spatialGrid{}
	g.configure(cols, rows, bounds)
	return g
}

func (g *spatialGrid) configure(cols, rows int, bounds CanvasRegionBounds) {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	g.cols = cols
	g.rows = rows
	g.bounds = bounds
	g.cells = make([][]int, cols*rows)
}

func (g *spatialGrid) cellIndex(x, y float64) int {
	cx := int(clamp01((x-g.bounds.Left)/g.bounds.Width()) * float64(g.cols))
	cy := int(clamp01((y-g.bounds.Bottom)/g.bounds.Height()) * float64(g.rows))
	if cx >= g.cols {
		cx = g.cols - 1
	}
	if cy >= g.rows {
		cy = g.rows - 1
	}
	return cy*g.cols + cx
}

// assign places a slot index in the cell covering (x, y) and returns the
// cell so the caller can remove the slot later without a position lookup.
func (g *spatialGrid) assign(slot int, x, y float64) int32 {
	cell := g.cellIndex(x, y)
	g.cells[cell] = append(g.cells[cell], slot)
	return int32(cell)
}

// remove takes a slot index out of its recorded cell. No-op when the slot
// is not present.
func (g *spatialGrid) remove(slot int, cell int32) {
	if cell < 0 || int(cell) >= len(g.cells) {
		return
	}
	bucket := g.cells[cell]
	for i, s := range bucket {
		if s == slot {
			bucket[i] = bucket[len(bucket)-1]
			g.cells[cell] = bucket[:len(bucket)-1]
			return
		}
	}
}

// nearbyInto appends the slot indices of the cell covering (x, y) and its
// eight neighbors to out, reusing out's backing array.
func (g *spatialGrid) nearbyInto(x, y float64, out []int) []int {
	center := g.cellIndex(x, y)
	ccol := center % g.cols
	crow := center / g.cols
	for dr := -1; dr <= 1; dr++ {
		row := crow + dr
		if row < 0 || row >= g.rows {
			continue
		}
		for dc := -1; dc <= 1; dc++ {
			col := ccol + dc
			if col < 0 || col >= g.cols {
				continue
			}
			out = append(out, g.cells[row*g.cols+col]...)
		}
	}
	return out
}

func (g *spatialGrid) clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}
