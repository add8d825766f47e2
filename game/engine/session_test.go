package engine

import (
	"math"
	"testing"
)

// newTestSession builds a session with a deterministic loot generator that
// never spawns, so scenarios control their loot explicitly.
func newTestSession(m *Map) *Session {
	return NewSession(m, NewLootGeneratorWithRandom(5000, 1.0, func() float64 { return 0 }), false)
}

func TestSessionTick_PickupThenDropOff(t *testing.T) {
	m := &Map{
		ID:          "town",
		Name:        "Town",
		Roads:       []Road{{Start: Point{X: 0, Y: 0}, End: Point{X: 10, Y: 0}}},
		Offices:     []Office{{ID: "o0", Pos: Point{X: 10, Y: 0}}},
		LootTypes:   []LootType{{Value: 7}},
		DogSpeed:    10,
		BagCapacity: 3,
	}
	s := newTestSession(m)
	lootID := s.Loot().Add(Loot{Type: 0, Pos: Point{X: 5, Y: 0}, Width: LootWidth})
	dog := s.AddDog("Pluto")
	dog.ApplyMove("R", 10)

	s.Tick(1000, DefaultRetirementMs)

	if dog.Pos != (Point{X: 10, Y: 0}) {
		t.Errorf("Expected dog at office (10,0), got %+v", dog.Pos)
	}
	if len(dog.Bag) != 0 {
		t.Errorf("Expected empty bag after drop-off, got %v", dog.Bag)
	}
	if dog.Score != 7 {
		t.Errorf("Expected score 7, got %d", dog.Score)
	}
	if s.Loot().IsLive(lootID) {
		t.Error("Expected loot slot freed after drop-off")
	}
	if s.Loot().VisibleCount() != 0 {
		t.Errorf("Expected no visible loot, got %d", s.Loot().VisibleCount())
	}
}

func TestSessionTick_PickupStopsAtBagCapacity(t *testing.T) {
	m := &Map{
		ID:          "town",
		Name:        "Town",
		Roads:       []Road{{Start: Point{X: 0, Y: 0}, End: Point{X: 10, Y: 0}}},
		LootTypes:   []LootType{{Value: 1}},
		DogSpeed:    10,
		BagCapacity: 2,
	}
	s := newTestSession(m)
	for _, x := range []float64{2, 4, 6} {
		s.Loot().Add(Loot{Type: 0, Pos: Point{X: x, Y: 0}})
	}
	dog := s.AddDog("Pluto")
	dog.ApplyMove("R", 10)

	s.Tick(1000, DefaultRetirementMs)

	if len(dog.Bag) != 2 {
		t.Errorf("Expected bag capped at 2, got %v", dog.Bag)
	}
	if s.Loot().VisibleCount() != 1 {
		t.Errorf("Expected 1 item left on the ground, got %d", s.Loot().VisibleCount())
	}
}

func TestSessionTick_CarriedLootNotPickedUpTwice(t *testing.T) {
	m := &Map{
		ID:          "town",
		Name:        "Town",
		Roads:       []Road{{Start: Point{X: 0, Y: 0}, End: Point{X: 10, Y: 0}}},
		LootTypes:   []LootType{{Value: 1}},
		DogSpeed:    10,
		BagCapacity: 3,
	}
	s := newTestSession(m)
	lootID := s.Loot().Add(Loot{Type: 0, Pos: Point{X: 5, Y: 0}})

	first := s.AddDog("Pluto")
	first.ApplyMove("R", 10)
	second := s.AddDog("Rex")
	second.ApplyMove("R", 10)

	s.Tick(1000, DefaultRetirementMs)

	carriers := 0
	for _, d := range s.Dogs() {
		for _, id := range d.Bag {
			if id == lootID {
				carriers++
			}
		}
	}
	if carriers != 1 {
		t.Errorf("Expected exactly one carrier, got %d", carriers)
	}
}

func TestSessionTick_RetirementAfterStandingStill(t *testing.T) {
	m := createTestMap()
	s := newTestSession(m)
	standing := s.AddDog("Sleepy")
	walking := s.AddDog("Pluto")
	walking.ApplyMove("R", 1)

	s.Tick(60000, 60000)

	if !standing.Retired {
		t.Error("Expected standing dog retired")
	}
	if walking.Retired {
		t.Error("Expected moving dog not retired")
	}
	if standing.GameTimeMs != 60000 {
		t.Errorf("Expected game time 60000, got %d", standing.GameTimeMs)
	}
	if walking.StandingTimeMs != 0 {
		t.Errorf("Expected standing time reset for moving dog, got %d", walking.StandingTimeMs)
	}
}

func TestSessionTick_StandingTimeAccumulatesAcrossTicks(t *testing.T) {
	s := newTestSession(createTestMap())
	dog := s.AddDog("Sleepy")

	s.Tick(30000, 60000)
	if dog.Retired {
		t.Fatal("Retired too early")
	}
	s.Tick(30000, 60000)
	if !dog.Retired {
		t.Error("Expected retirement after 60000ms of standing")
	}
}

func TestSessionTick_GeneratedLootLandsOnARoad(t *testing.T) {
	m := createTestMap()
	s := NewSession(m, NewLootGenerator(1000, 1.0), false)
	s.AddDog("Pluto")
	s.AddDog("Rex")

	s.Tick(5000, DefaultRetirementMs)

	if s.Loot().VisibleCount() == 0 {
		t.Fatal("Expected loot generated")
	}
	for _, ref := range s.Loot().Visible() {
		onRoad := false
		for _, road := range m.Roads {
			if road.Contains(ref.Loot.Pos.X, ref.Loot.Pos.Y) {
				onRoad = true
				break
			}
		}
		if !onRoad {
			t.Errorf("Loot %d at %+v is off every road", ref.ID, ref.Loot.Pos)
		}
		if ref.Loot.Pos.X != math.Trunc(ref.Loot.Pos.X) || ref.Loot.Pos.Y != math.Trunc(ref.Loot.Pos.Y) {
			t.Errorf("Loot %d at %+v is not at an integer coordinate", ref.ID, ref.Loot.Pos)
		}
		if ref.Loot.Type < 0 || ref.Loot.Type >= len(m.LootTypes) {
			t.Errorf("Loot %d has type %d outside the catalog", ref.ID, ref.Loot.Type)
		}
	}
}

func TestSessionTick_DogPositionsStayOnRoads(t *testing.T) {
	m := createTestMap()
	s := newTestSession(m)
	dog := s.AddDog("Pluto")

	moves := []string{"R", "D", "U", "L", "R", "D"}
	for _, mv := range moves {
		dog.ApplyMove(mv, m.DogSpeed)
		s.Tick(700, DefaultRetirementMs)

		onRoad := false
		for _, road := range m.Roads {
			if road.Contains(dog.Pos.X, dog.Pos.Y) {
				onRoad = true
				break
			}
		}
		if !onRoad {
			t.Fatalf("After move %q dog left the road network: %+v", mv, dog.Pos)
		}
	}
}

func TestSession_AddDogSpawnsAtFirstRoadStart(t *testing.T) {
	m := createTestMap()
	s := newTestSession(m)

	dog := s.AddDog("Pluto")

	if dog.Pos != m.Roads[0].Start {
		t.Errorf("Expected spawn at first road start %+v, got %+v", m.Roads[0].Start, dog.Pos)
	}
	if dog.BagCapacity != m.BagCapacity {
		t.Errorf("Expected bag capacity %d, got %d", m.BagCapacity, dog.BagCapacity)
	}
}

func TestSession_RandomSpawnLandsOnARoad(t *testing.T) {
	m := createTestMap()
	s := NewSession(m, NewLootGenerator(5000, 0.5), true)

	for i := 0; i < 20; i++ {
		dog := s.AddDog("Pluto")
		onRoad := false
		for _, road := range m.Roads {
			if road.Contains(dog.Pos.X, dog.Pos.Y) {
				onRoad = true
				break
			}
		}
		if !onRoad {
			t.Fatalf("Random spawn %+v is off every road", dog.Pos)
		}
	}
}

func TestSession_DogsSortedByID(t *testing.T) {
	s := newTestSession(createTestMap())
	s.AddDog("C")
	s.AddDog("A")
	s.AddDog("B")

	dogs := s.Dogs()
	for i := 1; i < len(dogs); i++ {
		if dogs[i].ID <= dogs[i-1].ID {
			t.Errorf("Dogs not in ascending id order: %d before %d", dogs[i-1].ID, dogs[i].ID)
		}
	}
}
