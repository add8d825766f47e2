package state

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/wricardo/dogtown/game/engine"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		Players: []PlayerRecord{
			{
				ID:          3,
				Name:        "Pluto",
				Pos:         engine.Point{X: 4.5, Y: 0},
				Speed:       engine.Speed{Dx: 2, Dy: 0},
				Direction:   "R",
				Bag:         []uint64{0, 2},
				BagCapacity: 3,
				Score:       40,
				GameTimeMs:  12000,
				Token:       "0123456789abcdef0123456789abcdef",
				MapID:       "town",
			},
		},
		Loot: map[string]LootRecord{
			"town": {
				Slots: []engine.Loot{
					{Type: 0, Pos: engine.Point{X: 1, Y: 0}},
					{Type: 1, Pos: engine.Point{X: 2, Y: 0}},
					{Type: 0, Pos: engine.Point{X: 3, Y: 0}},
				},
				Freed: []uint64{1},
				Busy:  []uint64{0, 2},
			},
		},
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	want := testSnapshot()

	if err := Write(path, want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestWrite_LeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	if err := Write(path, testSnapshot()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Expected temp file removed after rename")
	}
}

func TestWrite_ReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	first := testSnapshot()
	if err := Write(path, first); err != nil {
		t.Fatalf("First write failed: %v", err)
	}

	second := testSnapshot()
	second.Players[0].Score = 99
	if err := Write(path, second); err != nil {
		t.Fatalf("Second write failed: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.Players[0].Score != 99 {
		t.Errorf("Expected replaced snapshot, got score %d", got.Players[0].Score)
	}
}

func TestRead_NoState(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.json")},
		{"empty file", filepath.Join(dir, "empty.json")},
		{"corrupt file", filepath.Join(dir, "corrupt.json")},
	}
	os.WriteFile(tests[1].path, nil, 0644)
	os.WriteFile(tests[2].path, []byte("{not json"), 0644)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := Read(tt.path)
			if err != nil {
				t.Fatalf("Read returned error: %v", err)
			}
			if snap != nil {
				t.Errorf("Expected nil snapshot, got %+v", snap)
			}
		})
	}
}

func TestEnsureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	if err := EnsureFile(path); err != nil {
		t.Fatalf("EnsureFile failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Placeholder not created: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("Expected empty placeholder, got %d bytes", info.Size())
	}

	// A second call must not truncate an existing snapshot.
	if err := Write(path, testSnapshot()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := EnsureFile(path); err != nil {
		t.Fatalf("EnsureFile on existing file failed: %v", err)
	}
	snap, err := Read(path)
	if err != nil || snap == nil {
		t.Fatalf("Snapshot lost after EnsureFile: snap=%v err=%v", snap, err)
	}
}
