package paint

// Color carries the HSB components of a gesture point. Hue drives stereo
// pan, saturation and brightness are reserved for timbre control.
type Color struct {
	Hue        float64
	Saturation float64
	Brightness float64
}

// Position is a point in canvas coordinates.
type Position struct {
	X, Y float64
}

// StrokePoint is one sampled point of a paint gesture.
type StrokePoint struct {
	Pos      Position
	Pressure float64
	Color    Color
}

// Stroke is an ordered series of gesture points with a running bounding box.
type Stroke struct {
	ID        uint64
	Points    []StrokePoint
	Bounds    CanvasRegionBounds
	Finalized bool
}

func newStroke(id uint64) *Stroke {
	return &Stroke{ID: id, Points: make([]StrokePoint, 0, 64)}
}

func (s *Stroke) addPoint(p StrokePoint) {
	if len(s.Points) == 0 {
		s.Bounds = CanvasRegionBounds{Left: p.Pos.X, Right: p.Pos.X, Bottom: p.Pos.Y, Top: p.Pos.Y}
	} else {
		if p.Pos.X < s.Bounds.Left {
			s.Bounds.Left = p.Pos.X
		}
		if p.Pos.X > s.Bounds.Right {
			s.Bounds.Right = p.Pos.X
		}
		if p.Pos.Y < s.Bounds.Bottom {
			s.Bounds.Bottom = p.Pos.Y
		}
		if p.Pos.Y > s.Bounds.Top {
			s.Bounds.Top = p.Pos.Y
		}
	}
	s.Points = append(s.Points, p)
}

// regionSize is the edge length of one canvas region cell, in canvas units.
const regionSize = 25.0

// regionKey packs a region's integer cell coordinates into one map key.
func regionKey(rx, ry int32) int64 {
	return int64(rx)<<32 | int64(uint32(ry))
}

func regionCoords(pos Position) (int32, int32) {
	rx := int32(fastFloor(pos.X / regionSize))
	ry := int32(fastFloor(pos.Y / regionSize))
	return rx, ry
}

func fastFloor(v float64) int64 {
	i := int64(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return i
}

// canvasRegion groups finished strokes that start in the same cell so later
// features can replay or update them without scanning the whole canvas.
type canvasRegion struct {
	rx, ry  int32
	strokes []*Stroke
}

// strokeStore owns the persistent canvas content. All access is from the
// gesture thread.
type strokeStore struct {
	regions map[int64]*canvasRegion
	nextID  uint64
}

func newStrokeStore() *strokeStore {
	return &strokeStore{regions: make(map[int64]*canvasRegion)}
}

func (st *strokeStore) begin() *Stroke {
	st.nextID++
	return newStroke(st.nextID)
}

// finish files a completed stroke under the region of its first point.
// Empty strokes are dropped.
func (st *strokeStore) finish(s *Stroke) {
	if s == nil || len(s.Points) == 0 {
		return
	}
	s.Finalized = true
	rx, ry := regionCoords(s.Points[0].Pos)
	key := regionKey(rx, ry)
	r := st.regions[key]
	if r == nil {
		r = &canvasRegion{rx: rx, ry: ry}
		st.regions[key] = r
	}
	r.strokes = append(r.strokes, s)
}

// eraseIn removes finished strokes whose bounds intersect r and culls the
// regions that end up empty. Returns the number of strokes removed.
func (st *strokeStore) eraseIn(r CanvasRegionBounds) int {
	removed := 0
	for _, reg := range st.regions {
		kept := reg.strokes[:0]
		for _, s := range reg.strokes {
			if boundsIntersect(s.Bounds, r) {
				removed++
				continue
			}
			kept = append(kept, s)
		}
		reg.strokes = kept
	}
	if removed > 0 {
		st.cull()
	}
	return removed
}

func boundsIntersect(a, b CanvasRegionBounds) bool {
	return a.Left <= b.Right && b.Left <= a.Right &&
		a.Bottom <= b.Top && b.Bottom <= a.Top
}

// cull removes regions that no longer hold any strokes.
func (st *strokeStore) cull() {
	for key, r := range st.regions {
		if len(r.strokes) == 0 {
			delete(st.regions, key)
		}
	}
}

func (st *strokeStore) clear() {
	st.regions = make(map[int64]*canvasRegion)
}

func (st *strokeStore) regionCount() int { return len(st.regions) }

func (st *strokeStore) strokeCount() int {
	n := 0
	for _, r := range st.regions {
		n += len(r.strokes)
	}
	return n
}
