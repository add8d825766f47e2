package engine

import (
	"math"
	"testing"
)

func TestFindGatherEvents_NoItems(t *testing.T) {
	gatherers := []Gatherer{{ID: 0, Start: Point{X: 0, Y: 0}, End: Point{X: 5, Y: 5}, Width: 0.6}}

	events := FindGatherEvents(nil, gatherers, true)

	if len(events) != 0 {
		t.Errorf("Expected no events, got %d", len(events))
	}
}

func TestFindGatherEvents_SingleMidpointHit(t *testing.T) {
	items := []Item{{ID: 0, Pos: Point{X: 2.5, Y: 2.5}, Width: 0.6}}
	gatherers := []Gatherer{{ID: 0, Start: Point{X: 0, Y: 0}, End: Point{X: 5, Y: 5}, Width: 0.6}}

	events := FindGatherEvents(items, gatherers, true)

	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.GathererID != 0 || ev.ItemID != 0 {
		t.Errorf("Expected ids (0,0), got gatherer=%d item=%d", ev.GathererID, ev.ItemID)
	}
	if math.Abs(ev.Time-0.5) > Epsilon {
		t.Errorf("Expected time 0.5, got %v", ev.Time)
	}
	if ev.SqDistance > Epsilon {
		t.Errorf("Expected squared distance ~0, got %v", ev.SqDistance)
	}
}

func TestFindGatherEvents_MultipleEventsOrderedByTime(t *testing.T) {
	items := []Item{
		{ID: 0, Pos: Point{X: 0, Y: 0}, Width: 0.6},
		{ID: 1, Pos: Point{X: 2.5, Y: 2.5}, Width: 0.6},
		{ID: 2, Pos: Point{X: 5, Y: 5}, Width: 0.6},
	}
	gatherers := []Gatherer{{ID: 0, Start: Point{X: 0, Y: 0}, End: Point{X: 5, Y: 5}, Width: 0.6}}

	events := FindGatherEvents(items, gatherers, true)

	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	wantTimes := []float64{0, 0.5, 1.0}
	for i, ev := range events {
		if ev.GathererID != 0 {
			t.Errorf("Event %d: expected gatherer 0, got %d", i, ev.GathererID)
		}
		if math.Abs(ev.Time-wantTimes[i]) > Epsilon {
			t.Errorf("Event %d: expected time %v, got %v", i, wantTimes[i], ev.Time)
		}
	}
	for i := 1; i < len(events); i++ {
		if events[i].Time < events[i-1].Time {
			t.Errorf("Events not sorted ascending by time: %v", events)
		}
	}
}

func TestFindGatherEvents_NearMissAtExactRadius(t *testing.T) {
	// The gatherer passes the item at exactly the sum of both widths; the
	// check is strict, so no event is emitted.
	const w = 0.6
	items := []Item{{ID: 0, Pos: Point{X: 2.5, Y: 2.5}, Width: w}}
	gatherers := []Gatherer{{ID: 0, Start: Point{X: 2.5 + 2*w, Y: 0}, End: Point{X: 2.5 + 2*w, Y: 2.5}, Width: w}}

	events := FindGatherEvents(items, gatherers, true)

	if len(events) != 0 {
		t.Errorf("Expected no events at exact radius, got %+v", events)
	}
}

func TestFindGatherEvents_StationaryGathererEmitsNothing(t *testing.T) {
	items := []Item{{ID: 0, Pos: Point{X: 1, Y: 1}, Width: 5}}
	gatherers := []Gatherer{{ID: 0, Start: Point{X: 1, Y: 1}, End: Point{X: 1, Y: 1}, Width: 5}}

	events := FindGatherEvents(items, gatherers, true)

	if len(events) != 0 {
		t.Errorf("Expected no events for stationary gatherer, got %d", len(events))
	}
}

func TestFindGatherEvents_ProjectionOutsideSegment(t *testing.T) {
	// Item behind the start and beyond the end: projection ratio outside
	// [0,1] means no contact even when the line passes close by.
	items := []Item{
		{ID: 0, Pos: Point{X: -2, Y: 0}, Width: 0.6},
		{ID: 1, Pos: Point{X: 7, Y: 0}, Width: 0.6},
	}
	gatherers := []Gatherer{{ID: 0, Start: Point{X: 0, Y: 0}, End: Point{X: 5, Y: 0}, Width: 0.6}}

	events := FindGatherEvents(items, gatherers, true)

	if len(events) != 0 {
		t.Errorf("Expected no events outside segment, got %+v", events)
	}
}

func TestFindGatherEvents_ExplicitIDs(t *testing.T) {
	items := []Item{{ID: 42, Pos: Point{X: 2, Y: 0}, Width: 0.5}}
	gatherers := []Gatherer{{ID: 7, Start: Point{X: 0, Y: 0}, End: Point{X: 4, Y: 0}, Width: 0.6}}

	events := FindGatherEvents(items, gatherers, false)

	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].ItemID != 42 || events[0].GathererID != 7 {
		t.Errorf("Expected carried ids (42,7), got (%d,%d)", events[0].ItemID, events[0].GathererID)
	}
}
