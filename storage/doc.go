// Package storage persists the scores of retired players to Postgres and
// serves the all-time leaderboard.
package storage
