// Package websocket pushes per-map game state to spectator connections
// after every simulation tick.
package websocket
