package engine

import "sort"

// Item is a static collision disk: loot lying on the ground or an office.
type Item struct {
	ID    uint64
	Pos   Point
	Width float64
}

// Gatherer is the swept disk a dog traces during one tick, from its
// pre-motion to its post-motion position.
type Gatherer struct {
	ID    uint64
	Start Point
	End   Point
	Width float64
}

// GatherEvent records one gatherer/item contact within a tick. Time is the
// projection parameter along the gatherer's segment, in [0,1].
type GatherEvent struct {
	ItemID     uint64
	GathererID uint64
	SqDistance float64
	Time       float64
}

// collectPoint projects c onto the segment a->b and returns the squared
// perpendicular distance together with the projection ratio. The segment
// must not be degenerate.
func collectPoint(a, b, c Point) (sqDistance, ratio float64) {
	ux := c.X - a.X
	uy := c.Y - a.Y
	vx := b.X - a.X
	vy := b.Y - a.Y
	uDotV := ux*vx + uy*vy
	uLen2 := ux*ux + uy*uy
	vLen2 := vx*vx + vy*vy
	return uLen2 - (uDotV*uDotV)/vLen2, uDotV / vLen2
}

// FindGatherEvents returns every contact between a moving gatherer and a
// static item during the tick, sorted ascending by contact time with ties
// kept in input order. A contact requires the projection ratio in [0,1] and
// the squared distance within the squared sum of both widths. Gatherers that
// did not move produce no events.
//
// With autoIndex set, event ids are the positions of the item and gatherer
// in their input slices; otherwise the ids carried by the structs are used,
// which lets the session mix loot slot ids and office indices in one list.
func FindGatherEvents(items []Item, gatherers []Gatherer, autoIndex bool) []GatherEvent {
	var events []GatherEvent
	for i, g := range gatherers {
		if g.Start == g.End {
			continue
		}
		for j, it := range items {
			sqDistance, ratio := collectPoint(g.Start, g.End, it.Pos)
			radius := g.Width + it.Width
			if ratio < 0 || ratio > 1 || sqDistance > radius*radius {
				continue
			}
			ev := GatherEvent{SqDistance: sqDistance, Time: ratio}
			if autoIndex {
				ev.ItemID = uint64(j)
				ev.GathererID = uint64(i)
			} else {
				ev.ItemID = it.ID
				ev.GathererID = g.ID
			}
			events = append(events, ev)
		}
	}
	sort.SliceStable(events, func(a, b int) bool {
		return events[a].Time < events[b].Time
	})
	return events
}
