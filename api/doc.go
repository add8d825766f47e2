// Package api exposes the game over REST, hands spectators to the
// websocket hub and serves the static client.
package api
