package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wricardo/dogtown/game/engine"
)

const testConfigJSON = `{
  "defaultDogSpeed": 3.0,
  "defaultBagCapacity": 5,
  "dogRetirementTime": 15.5,
  "lootGeneratorConfig": {"period": 5.0, "probability": 0.5},
  "maps": [
    {
      "id": "town",
      "name": "Town",
      "dogSpeed": 4.0,
      "roads": [
        {"x0": 0, "y0": 0, "x1": 40},
        {"x0": 40, "y0": 0, "y1": 30}
      ],
      "buildings": [{"x": 5, "y": 5, "w": 30, "h": 20}],
      "offices": [{"id": "o0", "x": 40, "y": 30, "offsetX": 5, "offsetY": 0}],
      "lootTypes": [
        {"name": "key", "file": "key.obj", "value": 10},
        {"name": "wallet", "file": "wallet.obj", "value": 30}
      ]
    },
    {
      "id": "village",
      "name": "Village",
      "roads": [{"x0": 0, "y0": 0, "x1": 10}],
      "offices": [],
      "lootTypes": [{"name": "sock", "value": 1}]
    }
  ]
}`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	cfg, err := Load(writeTestConfig(t, testConfigJSON))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.RetirementMs != 15500 {
		t.Errorf("Expected retirement 15500ms, got %d", cfg.RetirementMs)
	}
	if cfg.LootGen.PeriodMs != 5000 {
		t.Errorf("Expected loot period 5000ms, got %d", cfg.LootGen.PeriodMs)
	}
	if cfg.LootGen.Probability != 0.5 {
		t.Errorf("Expected probability 0.5, got %v", cfg.LootGen.Probability)
	}
	if len(cfg.Maps) != 2 {
		t.Fatalf("Expected 2 maps, got %d", len(cfg.Maps))
	}

	town := cfg.Maps[0]
	if town.ID != "town" || town.Name != "Town" {
		t.Errorf("Unexpected map identity: %q %q", town.ID, town.Name)
	}
	if town.DogSpeed != 4.0 {
		t.Errorf("Expected per-map dog speed override 4.0, got %v", town.DogSpeed)
	}
	if town.BagCapacity != 5 {
		t.Errorf("Expected default bag capacity 5, got %d", town.BagCapacity)
	}
	if len(town.Roads) != 2 {
		t.Fatalf("Expected 2 roads, got %d", len(town.Roads))
	}
	if !town.Roads[0].IsHorizontal() {
		t.Error("Expected first road horizontal")
	}
	if town.Roads[1].IsHorizontal() {
		t.Error("Expected second road vertical")
	}
	if town.Roads[1].End != (engine.Point{X: 40, Y: 30}) {
		t.Errorf("Unexpected vertical road end: %+v", town.Roads[1].End)
	}
	if len(town.LootTypes) != 2 || town.LootTypes[1].Value != 30 {
		t.Errorf("Loot type values not parsed: %+v", town.LootTypes)
	}
	if len(town.LootTypesJSON) == 0 {
		t.Error("Expected raw lootTypes JSON retained")
	}

	village := cfg.Maps[1]
	if village.DogSpeed != 3.0 {
		t.Errorf("Expected default dog speed 3.0, got %v", village.DogSpeed)
	}
}

func TestLoad_DefaultsWhenTunablesOmitted(t *testing.T) {
	cfg, err := Load(writeTestConfig(t, `{
	  "lootGeneratorConfig": {"period": 1.0, "probability": 1.0},
	  "maps": [{"id": "m", "name": "M",
	    "roads": [{"x0": 0, "y0": 0, "x1": 5}],
	    "lootTypes": [{"value": 1}]}]
	}`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.RetirementMs != engine.DefaultRetirementMs {
		t.Errorf("Expected default retirement, got %d", cfg.RetirementMs)
	}
	if cfg.Maps[0].DogSpeed != engine.DefaultDogSpeed {
		t.Errorf("Expected default dog speed, got %v", cfg.Maps[0].DogSpeed)
	}
	if cfg.Maps[0].BagCapacity != engine.DefaultBagCapacity {
		t.Errorf("Expected default bag capacity, got %d", cfg.Maps[0].BagCapacity)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed JSON", `{"maps": [`},
		{"no maps", `{"maps": []}`},
		{"map without id", `{"maps": [{"name": "M", "roads": [{"x0":0,"y0":0,"x1":5}], "lootTypes": [{"value":1}]}]}`},
		{"duplicate map id", `{"maps": [
		  {"id": "m", "name": "M", "roads": [{"x0":0,"y0":0,"x1":5}], "lootTypes": [{"value":1}]},
		  {"id": "m", "name": "M2", "roads": [{"x0":0,"y0":0,"x1":5}], "lootTypes": [{"value":1}]}]}`},
		{"no roads", `{"maps": [{"id": "m", "name": "M", "roads": [], "lootTypes": [{"value":1}]}]}`},
		{"road without extent", `{"maps": [{"id": "m", "name": "M", "roads": [{"x0":0,"y0":0}], "lootTypes": [{"value":1}]}]}`},
		{"empty lootTypes", `{"maps": [{"id": "m", "name": "M", "roads": [{"x0":0,"y0":0,"x1":5}], "lootTypes": []}]}`},
		{"duplicate office id", `{"maps": [{"id": "m", "name": "M",
		  "roads": [{"x0":0,"y0":0,"x1":5}],
		  "offices": [{"id":"o","x":0,"y":0},{"id":"o","x":5,"y":0}],
		  "lootTypes": [{"value":1}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeTestConfig(t, tt.content)); err == nil {
				t.Errorf("Expected error for %s", tt.name)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if errors.Is(err, ErrInvalidConfig) {
		t.Error("Missing file should not be reported as invalid config")
	}
}
