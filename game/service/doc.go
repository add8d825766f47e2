// Package service provides the application layer of the Dogtown game server.
//
// The service package implements:
//   - The GameService interface the HTTP, websocket and MCP transports
//     consume
//   - The Application, which serializes all access to the engine's Game and
//     the PlayerRegistry
//   - The PlayerRegistry mapping bearer tokens to dogs in sessions
//   - The Ticker scheduling ticks off the monotonic clock
//   - The AutosaveListener saving state on a simulated-time period
//
// Concurrency:
//
// A single RW mutex inside Application serializes every mutation of game
// state, from HTTP handlers and from the ticker alike. State reads take the read lock. The tick signal
// is emitted after the lock is released, so subscribers (autosave, the
// websocket push) may call back into the application freely.
//
// Usage:
//
//	app := service.NewApplication(game, statsStore, cfg.RetirementMs, "state.json")
//	if err := app.RecoverFromFile(); err != nil {
//		log.Fatalf("Failed to recover state: %v", err)
//	}
//	app.EnableAutoTicker(50)
//	defer app.StopAutoTicker()
package service
