package engine

import (
	"math"
	"math/rand"
	"sort"
	"time"
)

// Session is the live simulation for one map: its dogs, its loot and the
// motion solver over its road network. Sessions are created lazily on the
// first join and never destroyed.
type Session struct {
	gameMap     *Map
	dogs        map[uint64]*Dog
	loot        *LootStore
	roads       *RoadIndex
	lootGen     *LootGenerator
	rnd         *rand.Rand
	randomSpawn bool
}

// NewSession builds a session for a map with its own loot generator. With
// randomSpawn set, new dogs start at a random integer point of a random
// road; otherwise they start at the first road's start.
func NewSession(m *Map, lootGen *LootGenerator, randomSpawn bool) *Session {
	return &Session{
		gameMap:     m,
		dogs:        make(map[uint64]*Dog),
		loot:        NewLootStore(),
		roads:       NewRoadIndex(m.Roads),
		lootGen:     lootGen,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
		randomSpawn: randomSpawn,
	}
}

// Map returns the session's immutable map.
func (s *Session) Map() *Map {
	return s.gameMap
}

// Loot returns the session's loot store.
func (s *Session) Loot() *LootStore {
	return s.loot
}

// Dog looks up one dog by id.
func (s *Session) Dog(id uint64) (*Dog, bool) {
	d, ok := s.dogs[id]
	return d, ok
}

// Dogs returns the session's dogs in ascending id order.
func (s *Session) Dogs() []*Dog {
	out := make([]*Dog, 0, len(s.dogs))
	for _, d := range s.dogs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddDog creates a dog with the map's bag capacity, places it at a spawn
// point and registers it with the session.
func (s *Session) AddDog(name string) *Dog {
	d := NewDog(name, s.gameMap.BagCapacity)
	d.Pos = s.spawnPoint()
	s.dogs[d.ID] = d
	return d
}

// InsertDog registers a fully formed dog, replacing any dog with the same
// id. Snapshot restore uses it to put dogs back verbatim.
func (s *Session) InsertDog(d *Dog) {
	s.dogs[d.ID] = d
}

// RemoveDog drops a dog from the session.
func (s *Session) RemoveDog(id uint64) {
	delete(s.dogs, id)
}

func (s *Session) spawnPoint() Point {
	if s.randomSpawn {
		return s.randomRoadPoint()
	}
	return s.gameMap.Roads[0].Start
}

// randomRoadPoint picks a uniformly random road, then a uniformly random
// integer coordinate along it.
func (s *Session) randomRoadPoint() Point {
	road := s.gameMap.Roads[s.rnd.Intn(len(s.gameMap.Roads))]
	if road.IsHorizontal() {
		a := int(math.Min(road.Start.X, road.End.X))
		b := int(math.Max(road.Start.X, road.End.X))
		return Point{X: float64(a + s.rnd.Intn(b-a+1)), Y: road.End.Y}
	}
	a := int(math.Min(road.Start.Y, road.End.Y))
	b := int(math.Max(road.Start.Y, road.End.Y))
	return Point{X: road.End.X, Y: float64(a + s.rnd.Intn(b-a+1))}
}

// Tick advances the simulation by deltaMs:
//
//  1. spawn loot (at most one item per dog short of loot),
//  2. per dog: advance play time, track standing time and retirement, then
//     move it, recording the swept segment,
//  3. gather contacts against visible loot and offices in one indexed list,
//  4. resolve contacts in time order: pickups fill bags and mark loot busy,
//     offices convert the whole bag into score and free the slots.
//
// Dogs retired on this tick still move and gather; the application drains
// them afterwards.
func (s *Session) Tick(deltaMs, retirementMs int64) {
	count := s.lootGen.Generate(deltaMs, s.loot.VisibleCount(), len(s.dogs))
	for i := 0; i < count; i++ {
		s.loot.Add(Loot{
			Type:  s.rnd.Intn(len(s.gameMap.LootTypes)),
			Pos:   s.randomRoadPoint(),
			Width: LootWidth,
		})
	}

	dogs := s.Dogs()
	gatherers := make([]Gatherer, 0, len(dogs))
	for _, dog := range dogs {
		dog.GameTimeMs += deltaMs
		if dog.Speed.IsZero() {
			dog.StandingTimeMs += deltaMs
			if dog.StandingTimeMs >= retirementMs {
				dog.Retired = true
			}
		} else {
			dog.StandingTimeMs = 0
		}
		g := Gatherer{ID: dog.ID, Start: dog.Pos, Width: DogWidth}
		s.roads.Advance(dog, deltaMs)
		g.End = dog.Pos
		gatherers = append(gatherers, g)
	}

	officeBase := uint64(s.loot.SlotCount())
	visible := s.loot.Visible()
	items := make([]Item, 0, len(visible)+len(s.gameMap.Offices))
	for _, ref := range visible {
		items = append(items, Item{ID: ref.ID, Pos: ref.Loot.Pos, Width: ref.Loot.Width})
	}
	for i, office := range s.gameMap.Offices {
		items = append(items, Item{ID: officeBase + uint64(i), Pos: office.Pos, Width: OfficeWidth})
	}

	for _, ev := range FindGatherEvents(items, gatherers, false) {
		dog, ok := s.dogs[ev.GathererID]
		if !ok {
			continue
		}
		if ev.ItemID < officeBase {
			if dog.HasBagSpace() && !s.loot.IsBusy(ev.ItemID) && s.loot.IsLive(ev.ItemID) {
				dog.AddToBag(ev.ItemID)
				s.loot.MarkBusy(ev.ItemID)
			}
			continue
		}
		if len(dog.Bag) == 0 {
			continue
		}
		for _, id := range dog.Bag {
			if l, ok := s.loot.Get(id); ok {
				dog.Score += s.gameMap.LootValue(l.Type)
			}
			s.loot.Pop(id)
		}
		dog.EmptyBag()
	}
}
