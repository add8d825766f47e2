package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/wricardo/dogtown/game/engine"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

// AppConfig is the parsed game configuration: global tunables plus the map
// catalog, ready for engine.NewGame.
type AppConfig struct {
	RetirementMs int64
	LootGen      engine.LootGenConfig
	Maps         []*engine.Map
}

// The raw* types mirror the JSON schema of the config file.

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
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	DogSpeed    *float64        `json:"dogSpeed"`
	BagCapacity *int            `json:"bagCapacity"`
	Roads       []rawRoad       `json:"roads"`
	Buildings   []rawBuilding   `json:"buildings"`
	Offices     []rawOffice     `json:"offices"`
	LootTypes   json.RawMessage `json:"lootTypes"`
}

// rawRoad carries either x1 (horizontal) or y1 (vertical).
type rawRoad struct {
	X0 float64  `json:"x0"`
	Y0 float64  `json:"y0"`
	X1 *float64 `json:"x1"`
	Y1 *float64 `json:"y1"`
}

type rawBuilding struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type rawOffice struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// rawLootType pulls the score value out of a catalog entry; the rest of the
// entry is opaque to the server and served back verbatim.
type rawLootType struct {
	Value int `json:"value"`
}

// Load reads and validates a game configuration file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return build(&raw)
}

func build(raw *rawConfig) (*AppConfig, error) {
	cfg := &AppConfig{
		RetirementMs: engine.DefaultRetirementMs,
		LootGen: engine.LootGenConfig{
			PeriodMs:    int64(raw.LootGenerator.Period * 1000),
			Probability: raw.LootGenerator.Probability,
		},
	}
	if raw.DogRetirementTime != nil && *raw.DogRetirementTime > 0 {
		cfg.RetirementMs = int64(*raw.DogRetirementTime * 1000)
	}

	defaultSpeed := engine.DefaultDogSpeed
	if raw.DefaultDogSpeed != nil {
		defaultSpeed = *raw.DefaultDogSpeed
	}
	defaultBag := engine.DefaultBagCapacity
	if raw.DefaultBagCapacity != nil {
		defaultBag = *raw.DefaultBagCapacity
	}

	seenMaps := make(map[string]struct{}, len(raw.Maps))
	for _, rm := range raw.Maps {
		if rm.ID == "" {
			return nil, fmt.Errorf("%w: map without id", ErrInvalidConfig)
		}
		if _, dup := seenMaps[rm.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate map id %q", ErrInvalidConfig, rm.ID)
		}
		seenMaps[rm.ID] = struct{}{}

		m, err := buildMap(rm, defaultSpeed, defaultBag)
		if err != nil {
			return nil, err
		}
		cfg.Maps = append(cfg.Maps, m)
	}
	if len(cfg.Maps) == 0 {
		return nil, fmt.Errorf("%w: no maps defined", ErrInvalidConfig)
	}
	return cfg, nil
}

func buildMap(rm rawMap, defaultSpeed float64, defaultBag int) (*engine.Map, error) {
	m := &engine.Map{
		ID:            rm.ID,
		Name:          rm.Name,
		LootTypesJSON: rm.LootTypes,
		DogSpeed:      defaultSpeed,
		BagCapacity:   defaultBag,
	}
	if rm.DogSpeed != nil {
		m.DogSpeed = *rm.DogSpeed
	}
	if rm.BagCapacity != nil {
		m.BagCapacity = *rm.BagCapacity
	}

	if len(rm.Roads) == 0 {
		return nil, fmt.Errorf("%w: map %q has no roads", ErrInvalidConfig, rm.ID)
	}
	for i, rr := range rm.Roads {
		road, err := buildRoad(rr)
		if err != nil {
			return nil, fmt.Errorf("%w: map %q road %d: %v", ErrInvalidConfig, rm.ID, i, err)
		}
		m.Roads = append(m.Roads, road)
	}

	for _, rb := range rm.Buildings {
		m.Buildings = append(m.Buildings, engine.Building{
			Pos:  engine.Point{X: rb.X, Y: rb.Y},
			Size: engine.Size{W: rb.W, H: rb.H},
		})
	}

	seenOffices := make(map[string]struct{}, len(rm.Offices))
	for _, ro := range rm.Offices {
		if _, dup := seenOffices[ro.ID]; dup {
			return nil, fmt.Errorf("%w: map %q has duplicate office id %q", ErrInvalidConfig, rm.ID, ro.ID)
		}
		seenOffices[ro.ID] = struct{}{}
		m.Offices = append(m.Offices, engine.Office{
			ID:     ro.ID,
			Pos:    engine.Point{X: ro.X, Y: ro.Y},
			Offset: engine.Point{X: ro.OffsetX, Y: ro.OffsetY},
		})
	}

	var types []rawLootType
	if len(rm.LootTypes) > 0 {
		if err := json.Unmarshal(rm.LootTypes, &types); err != nil {
			return nil, fmt.Errorf("%w: map %q lootTypes: %v", ErrInvalidConfig, rm.ID, err)
		}
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("%w: map %q has no loot types", ErrInvalidConfig, rm.ID)
	}
	for _, lt := range types {
		m.LootTypes = append(m.LootTypes, engine.LootType{Value: lt.Value})
	}

	return m, nil
}

func buildRoad(rr rawRoad) (engine.Road, error) {
	switch {
	case rr.X1 != nil:
		return engine.Road{
			Start: engine.Point{X: rr.X0, Y: rr.Y0},
			End:   engine.Point{X: *rr.X1, Y: rr.Y0},
		}, nil
	case rr.Y1 != nil:
		return engine.Road{
			Start: engine.Point{X: rr.X0, Y: rr.Y0},
			End:   engine.Point{X: rr.X0, Y: *rr.Y1},
		}, nil
	default:
		return engine.Road{}, errors.New("road needs x1 or y1")
	}
}
