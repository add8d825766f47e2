// Package config loads the game configuration file for the Dogtown server.
//
// The configuration is a single JSON document describing global tunables
// (default dog speed, default bag capacity, retirement time, loot generator
// settings) and the map catalog. Each map carries its roads, buildings,
// offices and a loot-type catalog whose raw JSON is preserved so the
// transport can serve it back unmodified.
//
// Usage:
//
//	cfg, err := config.Load("configs/town.json")
//	if err != nil {
//		log.Fatalf("Failed to load config: %v", err)
//	}
//	game, err := engine.NewGame(cfg.Maps, cfg.LootGen, false)
package config
