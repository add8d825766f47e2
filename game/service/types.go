package service

import "encoding/json"

// MapSummary is one row of the map catalog listing.
type MapSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MapDetail is the full map document served to clients. LootTypes is the raw
// catalog JSON from the config file, passed through unmodified.
type MapDetail struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Roads     []RoadView      `json:"roads"`
	Buildings []BuildingView  `json:"buildings"`
	Offices   []OfficeView    `json:"offices"`
	LootTypes json.RawMessage `json:"lootTypes"`
}

// RoadView renders a road back into the config wire shape: x1 for horizontal
// roads, y1 for vertical ones.
type RoadView struct {
	X0 float64  `json:"x0"`
	Y0 float64  `json:"y0"`
	X1 *float64 `json:"x1,omitempty"`
	Y1 *float64 `json:"y1,omitempty"`
}

// BuildingView is a building in the map document.
type BuildingView struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// OfficeView is a drop-off point in the map document.
type OfficeView struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// JoinResult is the outcome of joining a game.
type JoinResult struct {
	Token    Token  `json:"authToken"`
	PlayerID uint64 `json:"playerId"`
}

// PlayerSummary is one entry of the players listing.
type PlayerSummary struct {
	Name string `json:"name"`
}

// BagItem is one carried loot item in the state view.
type BagItem struct {
	ID   uint64 `json:"id"`
	Type int    `json:"type"`
}

// PlayerState is one dog in the state view.
type PlayerState struct {
	Pos   [2]float64 `json:"pos"`
	Speed [2]float64 `json:"speed"`
	Dir   string     `json:"dir"`
	Bag   []BagItem  `json:"bag"`
	Score int        `json:"score"`
}

// LootState is one visible loot item in the state view.
type LootState struct {
	Type int        `json:"type"`
	Pos  [2]float64 `json:"pos"`
}

// GameState is the per-map state view pushed to clients. Keys are decimal
// dog ids and loot slot ids; only loot nobody carries appears in
// LostObjects.
type GameState struct {
	Players     map[string]PlayerState `json:"players"`
	LostObjects map[string]LootState   `json:"lostObjects"`
}

// Record is one leaderboard row as served to clients; PlayTime is seconds.
type Record struct {
	Name     string  `json:"name"`
	Score    int     `json:"score"`
	PlayTime float64 `json:"playTime"`
}
