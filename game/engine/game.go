package engine

import (
	"fmt"
	"sort"
)

// LootGenConfig holds the spawner tuning shared by every session.
type LootGenConfig struct {
	PeriodMs    int64
	Probability float64
}

// Game owns the map catalog and the per-map sessions. A session appears the
// first time someone joins its map and lives for the rest of the process.
type Game struct {
	maps        map[string]*Map
	order       []string
	sessions    map[string]*Session
	lootGen     LootGenConfig
	randomSpawn bool
}

// NewGame builds a game over a map catalog. Map ids must be unique.
func NewGame(maps []*Map, lootGen LootGenConfig, randomSpawn bool) (*Game, error) {
	g := &Game{
		maps:        make(map[string]*Map, len(maps)),
		sessions:    make(map[string]*Session),
		lootGen:     lootGen,
		randomSpawn: randomSpawn,
	}
	for _, m := range maps {
		if _, exists := g.maps[m.ID]; exists {
			return nil, fmt.Errorf("map with id %q already exists", m.ID)
		}
		g.maps[m.ID] = m
		g.order = append(g.order, m.ID)
	}
	return g, nil
}

// Maps returns the catalog in config order.
func (g *Game) Maps() []*Map {
	out := make([]*Map, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.maps[id])
	}
	return out
}

// Map looks up a map by id.
func (g *Game) Map(id string) (*Map, bool) {
	m, ok := g.maps[id]
	return m, ok
}

// Session returns the live session for a map, if one has been created.
func (g *Game) Session(mapID string) (*Session, bool) {
	s, ok := g.sessions[mapID]
	return s, ok
}

// SessionFor returns the session for a map, creating it on first use.
func (g *Game) SessionFor(mapID string) (*Session, error) {
	if s, ok := g.sessions[mapID]; ok {
		return s, nil
	}
	m, ok := g.maps[mapID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMapNotFound, mapID)
	}
	s := NewSession(m, NewLootGenerator(g.lootGen.PeriodMs, g.lootGen.Probability), g.randomSpawn)
	g.sessions[mapID] = s
	return s, nil
}

// ActiveSessions returns the live sessions ordered by map id.
func (g *Game) ActiveSessions() []*Session {
	ids := make([]string, 0, len(g.sessions))
	for id := range g.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*Session, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.sessions[id])
	}
	return out
}

// Tick advances every live session by deltaMs.
func (g *Game) Tick(deltaMs, retirementMs int64) {
	for _, s := range g.ActiveSessions() {
		s.Tick(deltaMs, retirementMs)
	}
}
