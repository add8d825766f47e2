// Package state implements the crash-safe snapshot codec for the Dogtown
// server.
//
// A snapshot is a single JSON file holding every live session's dogs
// (position, speed, bag, score, timers, token) and loot stores (slots, freed
// queue, busy set). Writes go to a temp file in the same directory followed
// by an atomic rename, so a crash mid-save never corrupts the previous
// snapshot. Missing, empty or corrupt files read back as "no state".
//
// The application layer owns the conversion between live sessions and the
// Snapshot records; this package only moves them to and from disk.
package state
