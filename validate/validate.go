// Command validate checks game configuration JSON files before deployment.
// For every map it verifies:
//   - JSON structure and required fields
//   - Roads are axis-aligned and non-degenerate
//   - Every office lies on some road strip
//   - A non-empty loot catalog with non-negative values
//   - Road-graph connectivity: every road is reachable from the first one
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/dogtown/game/engine"
)

// The raw* types mirror the config file schema.

type rawConfig struct {
	DefaultDogSpeed    *float64 `json:"defaultDogSpeed"`
	DefaultBagCapacity *int     `json:"defaultBagCapacity"`
	DogRetirementTime  *float64 `json:"dogRetirementTime"`
	LootGenerator      rawLoot  `json:"lootGeneratorConfig"`
	Maps               []rawMap `json:"maps"`
}

type rawLoot struct {
	Period      float64 `json:"period"`
	Probability float64 `json:"probability"`
}

type rawMap struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Roads     []rawRoad       `json:"roads"`
	Offices   []rawOffice     `json:"offices"`
	LootTypes json.RawMessage `json:"lootTypes"`
}

type rawRoad struct {
	X0 float64  `json:"x0"`
	Y0 float64  `json:"y0"`
	X1 *float64 `json:"x1"`
	Y1 *float64 `json:"y1"`
}

type rawOffice struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type rawLootType struct {
	Value int `json:"value"`
}

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateConfig loads and validates a single configuration JSON file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	var config rawConfig
	if err := json.Unmarshal(data, &config); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %v", err))
		return result
	}

	if len(config.Maps) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "No maps defined")
		return result
	}

	if config.LootGenerator.Period <= 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("lootGeneratorConfig.period must be positive, got %g", config.LootGenerator.Period))
	}
	if p := config.LootGenerator.Probability; p < 0 || p > 1 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("lootGeneratorConfig.probability must be in [0,1], got %g", p))
	}

	seenMaps := map[string]bool{}
	for _, m := range config.Maps {
		if m.ID == "" {
			result.Valid = false
			result.Errors = append(result.Errors, "Map without id")
			continue
		}
		if seenMaps[m.ID] {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Duplicate map id %q", m.ID))
			continue
		}
		seenMaps[m.ID] = true

		mapResult := validateMap(m)
		result.Errors = append(result.Errors, mapResult.Errors...)
		if !mapResult.Valid {
			result.Valid = false
		}
	}

	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Maps: %d", len(config.Maps)))
	}
	return result
}

// validateMap checks one map entry: road geometry, office placement, loot
// catalog and connectivity.
func validateMap(m rawMap) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}}

	if len(m.Roads) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Map %q has no roads", m.ID))
		return result
	}

	roads := make([]engine.Road, 0, len(m.Roads))
	for i, rr := range m.Roads {
		switch {
		case rr.X1 == nil && rr.Y1 == nil:
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Map %q road %d needs x1 or y1", m.ID, i))
			continue
		case rr.X1 != nil && rr.Y1 != nil:
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Map %q road %d has both x1 and y1; roads are axis-aligned", m.ID, i))
			continue
		case rr.X1 != nil && *rr.X1 == rr.X0:
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Map %q road %d is degenerate (zero length)", m.ID, i))
			continue
		case rr.Y1 != nil && *rr.Y1 == rr.Y0:
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Map %q road %d is degenerate (zero length)", m.ID, i))
			continue
		}

		road := engine.Road{Start: engine.Point{X: rr.X0, Y: rr.Y0}}
		if rr.X1 != nil {
			road.End = engine.Point{X: *rr.X1, Y: rr.Y0}
		} else {
			road.End = engine.Point{X: rr.X0, Y: *rr.Y1}
		}
		roads = append(roads, road)
	}

	seenOffices := map[string]bool{}
	for _, o := range m.Offices {
		if seenOffices[o.ID] {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Map %q has duplicate office id %q", m.ID, o.ID))
			continue
		}
		seenOffices[o.ID] = true

		onRoad := false
		for _, road := range roads {
			if road.Contains(o.X, o.Y) {
				onRoad = true
				break
			}
		}
		if !onRoad {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Map %q office %q at (%g,%g) is not on any road", m.ID, o.ID, o.X, o.Y))
		}
	}

	var types []rawLootType
	if len(m.LootTypes) > 0 {
		if err := json.Unmarshal(m.LootTypes, &types); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Map %q lootTypes: %v", m.ID, err))
		}
	}
	if len(types) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Map %q has no loot types", m.ID))
	}
	for i, lt := range types {
		if lt.Value < 0 {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Map %q loot type %d has negative value %d", m.ID, i, lt.Value))
		}
	}

	if len(roads) == len(m.Roads) {
		conn := validateConnectivity(m.ID, roads)
		result.Errors = append(result.Errors, conn.Errors...)
		if !conn.Valid {
			result.Valid = false
		}
	}

	return result
}

// validateConnectivity checks that every road strip is reachable from the
// first one through overlapping strips, so a dog can walk the whole map.
func validateConnectivity(mapID string, roads []engine.Road) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}}
	if len(roads) == 0 {
		return result
	}

	visited := make([]bool, len(roads))
	queue := []int{0}
	visited[0] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for i := range roads {
			if !visited[i] && stripsOverlap(roads[cur], roads[i]) {
				visited[i] = true
				queue = append(queue, i)
			}
		}
	}

	unreachable := 0
	for i, v := range visited {
		if !v {
			unreachable++
			result.Errors = append(result.Errors, fmt.Sprintf("Map %q road %d (%g,%g)-(%g,%g) is disconnected",
				mapID, i, roads[i].Start.X, roads[i].Start.Y, roads[i].End.X, roads[i].End.Y))
		}
	}
	if unreachable > 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Map %q: %d/%d roads unreachable from the first road", mapID, unreachable, len(roads)))
	} else {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Map %q: all %d roads connected", mapID, len(roads)))
	}
	return result
}

// stripsOverlap reports whether two road strips share any area.
func stripsOverlap(a, b engine.Road) bool {
	alt, arb := a.LeftTop(), a.RightBottom()
	blt, brb := b.LeftTop(), b.RightBottom()
	return alt.X <= brb.X && blt.X <= arb.X && alt.Y <= brb.Y && blt.Y <= arb.Y
}

// main validates every file given on the command line, printing a concise
// report and exiting with non-zero status if any are invalid.
func main() {
	files := os.Args[1:]
	if len(files) == 0 {
		fmt.Println("usage: validate <config.json> [config.json ...]")
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
