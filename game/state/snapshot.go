package state

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/wricardo/dogtown/game/engine"
)

// PlayerRecord is one dog together with its credentials, enough to rebuild
// the player in its session on restore.
type PlayerRecord struct {
	ID             uint64       `json:"id"`
	Name           string       `json:"name"`
	Pos            engine.Point `json:"pos"`
	Speed          engine.Speed `json:"speed"`
	Direction      string       `json:"direction"`
	Bag            []uint64     `json:"bag"`
	BagCapacity    int          `json:"bagCapacity"`
	Score          int          `json:"score"`
	GameTimeMs     int64        `json:"gameTime"`
	StandingTimeMs int64        `json:"standingTime"`
	Retired        bool         `json:"retired"`
	Token          string       `json:"token"`
	MapID          string       `json:"mapId"`
}

// LootRecord captures one session's loot store wholesale: every slot ever
// allocated plus the freed queue and the busy set that interpret it.
type LootRecord struct {
	Slots []engine.Loot `json:"slots"`
	Freed []uint64      `json:"freed"`
	Busy  []uint64      `json:"busy"`
}

// Snapshot is the on-disk schema of the whole live state.
type Snapshot struct {
	Players []PlayerRecord        `json:"players"`
	Loot    map[string]LootRecord `json:"loot"`
}

// Write serializes the snapshot to a temp file next to path and renames it
// over the destination, so readers only ever see a complete file.
func Write(path string, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}
	return nil
}

// Read loads a snapshot. A missing, empty or unparseable file means "no
// state" and yields a nil snapshot without an error.
func Read(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil
	}
	return &snap, nil
}

// EnsureFile creates an empty placeholder at path when nothing exists there
// yet, so the next save has a destination directory proven writable.
func EnsureFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat snapshot file: %w", err)
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		return fmt.Errorf("failed to create snapshot placeholder: %w", err)
	}
	return nil
}
