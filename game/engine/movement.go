package engine

import "math"

// RoadIndex groups a map's roads by the integer row (horizontal roads, keyed
// by y) and column (vertical roads, keyed by x) they lie on. It is built
// once per session and read-only afterwards.
type RoadIndex struct {
	horizontal map[int][]Road
	vertical   map[int][]Road
}

// NewRoadIndex precomputes the row and column tables for a road list.
func NewRoadIndex(roads []Road) *RoadIndex {
	idx := &RoadIndex{
		horizontal: make(map[int][]Road),
		vertical:   make(map[int][]Road),
	}
	for _, r := range roads {
		if r.IsHorizontal() {
			y := int(r.Start.Y)
			idx.horizontal[y] = append(idx.horizontal[y], r)
		} else {
			x := int(r.Start.X)
			idx.vertical[x] = append(idx.vertical[x], r)
		}
	}
	return idx
}

// cell maps a coordinate to the integer row or column that owns it; road
// centers sit on integers, so ownership flips halfway between them.
func cell(coord float64) int {
	return int(math.Floor(coord + 0.5))
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Advance moves a dog along its speed vector for deltaMs, constrained to the
// road strips. Movement is resolved in steps: each step clamps the target
// into the farthest reachable road extent for the current row or column,
// then re-resolves from the new point so travel can continue across meeting
// roads. When the final point falls short of the target the dog has hit a
// road boundary and its speed is cleared.
func (idx *RoadIndex) Advance(dog *Dog, deltaMs int64) {
	if dog.Speed.Dx == 0.0 && dog.Speed.Dy == 0.0 {
		return
	}
	const msToSec = 0.001
	start := dog.Pos
	target := Point{
		X: start.X + dog.Speed.Dx*float64(deltaMs)*msToSec,
		Y: start.Y + dog.Speed.Dy*float64(deltaMs)*msToSec,
	}
	cur := start
	prev := start
	for {
		var next Point
		if dog.Dir == East || dog.Dir == West {
			if roads, ok := idx.horizontal[cell(cur.Y)]; ok {
				next = furthestInRow(roads, start, cur, target)
			} else {
				// Standing on a vertical road and stepping across it: the
				// strip allows RoadWidth/2 either side of the column center.
				next = acrossColumn(dog.Dir, start, cur, target)
				prev = next
			}
		} else {
			if roads, ok := idx.vertical[cell(cur.X)]; ok {
				next = furthestInColumn(roads, start, cur, target)
			} else {
				next = acrossRow(dog.Dir, start, cur, target)
				prev = next
			}
		}
		if math.Abs(next.X-target.X) < Epsilon && math.Abs(next.Y-target.Y) < Epsilon {
			cur = next
			break
		}
		if math.Abs(next.X-prev.X) < Epsilon && math.Abs(next.Y-prev.Y) < Epsilon {
			cur = next
			break
		}
		prev = next
		cur = next
	}
	dog.Pos = cur
	if cur != target {
		dog.Speed = Speed{}
	}
}

// furthestInRow clamps the target x into every road of the row that contains
// the current point and keeps the candidate farthest from the start. Ties go
// to the later road, which keeps the choice deterministic for a fixed road
// order.
func furthestInRow(roads []Road, start, cur, target Point) Point {
	best := cur
	bestDist := -1.0
	for _, road := range roads {
		if !road.Contains(cur.X, cur.Y) {
			continue
		}
		candidate := Point{
			X: clampFloat(target.X, road.LeftTop().X, road.RightBottom().X),
			Y: cur.Y,
		}
		if d := distance(start, candidate); d >= bestDist {
			bestDist = d
			best = candidate
		}
	}
	return best
}

func furthestInColumn(roads []Road, start, cur, target Point) Point {
	best := cur
	bestDist := -1.0
	for _, road := range roads {
		if !road.Contains(cur.X, cur.Y) {
			continue
		}
		candidate := Point{
			X: cur.X,
			Y: clampFloat(target.Y, road.LeftTop().Y, road.RightBottom().Y),
		}
		if d := distance(start, candidate); d >= bestDist {
			bestDist = d
			best = candidate
		}
	}
	return best
}

func acrossColumn(dir Direction, start, cur, target Point) Point {
	center := float64(cell(cur.X))
	p := Point{Y: start.Y}
	if math.Abs(target.X-center) > RoadWidth/2 {
		if dir == West {
			p.X = center - RoadWidth/2
		} else {
			p.X = center + RoadWidth/2
		}
	} else {
		p.X = target.X
	}
	return p
}

func acrossRow(dir Direction, start, cur, target Point) Point {
	center := float64(cell(cur.Y))
	p := Point{X: start.X}
	if math.Abs(target.Y-center) > RoadWidth/2 {
		if dir == North {
			p.Y = center - RoadWidth/2
		} else {
			p.Y = center + RoadWidth/2
		}
	} else {
		p.Y = target.Y
	}
	return p
}
