// Package engine provides the core simulation for the Dogtown game server.
//
// The engine implements the game mechanics including:
//   - Road-network geometry and the per-map catalog of offices and loot types
//   - Constrained dog motion along axis-aligned road strips
//   - Swept-disk collision detection between moving dogs and static items
//   - Probabilistic, scarcity-aware loot spawning
//   - Per-map sessions advanced by a discrete tick
//
// Core Types:
//
// Map is the immutable world loaded from config. Session owns the live state
// for one map: its dogs, its LootStore and the RoadIndex used by the motion
// solver. Game owns the catalog and creates sessions lazily on first join.
//
// Usage:
//
//	game, err := engine.NewGame(maps, engine.LootGenConfig{PeriodMs: 5000, Probability: 0.5}, false)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	session, _ := game.SessionFor("town")
//	dog := session.AddDog("Pluto")
//	dog.ApplyMove("R", session.Map().DogSpeed)
//	session.Tick(1000, engine.DefaultRetirementMs)
//
// Game Rules:
//
// Dogs walk the road network collecting loot that spawns on roads. Picked-up
// loot is carried in a bounded bag until the dog touches an office, which
// converts every carried item into score. A dog that stands still for the
// retirement threshold retires and is drained out of the live state by the
// application layer.
//
// Nothing in this package locks: all mutation must happen on the
// application's serialization domain.
package engine
