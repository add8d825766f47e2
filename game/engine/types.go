package engine

import (
	"encoding/json"
	"errors"
	"math"
	"sync/atomic"
)

// Geometry constants shared by the whole simulation. Widths are full
// collision widths: the pickup radius for a pair is the sum of both widths.
const (
	RoadWidth   = 0.8
	OfficeWidth = 0.5
	DogWidth    = 0.6
	LootWidth   = 0.0

	// Epsilon bounds float comparisons in motion and tick bookkeeping.
	Epsilon = 1e-6

	DefaultDogSpeed     = 1.0
	DefaultBagCapacity  = 3
	DefaultRetirementMs = 60000
)

// ErrMapNotFound is returned when a map id does not exist in the game.
var ErrMapNotFound = errors.New("map not found")

// Point is a position on the map plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Speed is a velocity vector in map units per second.
type Speed struct {
	Dx float64 `json:"dx"`
	Dy float64 `json:"dy"`
}

// IsZero reports whether both components are within Epsilon of zero.
func (s Speed) IsZero() bool {
	return math.Abs(s.Dx) < Epsilon && math.Abs(s.Dy) < Epsilon
}

// Direction is the facing of a dog, stored as the move letter the transport
// uses: "U" north, "D" south, "L" west, "R" east.
type Direction string

const (
	North Direction = "U"
	South Direction = "D"
	West  Direction = "L"
	East  Direction = "R"
)

// Road is an axis-aligned segment of the road network. Its walkable strip is
// the segment inflated by RoadWidth/2 on every side.
type Road struct {
	Start Point
	End   Point
}

// IsHorizontal reports whether the road runs along the x axis.
func (r Road) IsHorizontal() bool {
	return r.Start.Y == r.End.Y
}

// LeftTop returns the minimum corner of the road strip.
func (r Road) LeftTop() Point {
	return Point{
		X: math.Min(r.Start.X, r.End.X) - RoadWidth/2,
		Y: math.Min(r.Start.Y, r.End.Y) - RoadWidth/2,
	}
}

// RightBottom returns the maximum corner of the road strip.
func (r Road) RightBottom() Point {
	return Point{
		X: math.Max(r.Start.X, r.End.X) + RoadWidth/2,
		Y: math.Max(r.Start.Y, r.End.Y) + RoadWidth/2,
	}
}

// Contains reports whether (x,y) lies inside the road strip, inclusive of
// its boundary.
func (r Road) Contains(x, y float64) bool {
	lt := r.LeftTop()
	rb := r.RightBottom()
	return lt.X <= x && x <= rb.X && lt.Y <= y && y <= rb.Y
}

// Size is a width/height pair for buildings.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Building is static scenery; it takes no part in motion or collision.
type Building struct {
	Pos  Point
	Size Size
}

// Office is a drop-off point where a dog converts its bag into score.
type Office struct {
	ID     string
	Pos    Point
	Offset Point
}

// LootType carries the score value of one catalog entry. The catalog JSON is
// kept verbatim on the Map so the transport can serve it back unmodified.
type LootType struct {
	Value int
}

// Map is the immutable world for one session: geometry, loot catalog and
// per-map tunables.
type Map struct {
	ID            string
	Name          string
	Roads         []Road
	Buildings     []Building
	Offices       []Office
	LootTypes     []LootType
	LootTypesJSON json.RawMessage
	DogSpeed      float64
	BagCapacity   int
}

// LootValue returns the score value of a loot type index, or 0 when the
// index is outside the catalog.
func (m *Map) LootValue(typeIndex int) int {
	if typeIndex < 0 || typeIndex >= len(m.LootTypes) {
		return 0
	}
	return m.LootTypes[typeIndex].Value
}

// dogIDCounter hands out process-wide monotonic dog ids. Snapshot restore
// rewinds it to max(seen)+1 via SetNextDogID.
var dogIDCounter atomic.Uint64

func nextDogID() uint64 {
	return dogIDCounter.Add(1) - 1
}

// SetNextDogID sets the id the next created dog will receive.
func SetNextDogID(next uint64) {
	dogIDCounter.Store(next)
}

// Dog is a player's avatar. Fields are mutated only inside the application's
// serialization domain.
type Dog struct {
	ID             uint64
	Name           string
	Pos            Point
	Speed          Speed
	Dir            Direction
	Bag            []uint64
	BagCapacity    int
	Score          int
	GameTimeMs     int64
	StandingTimeMs int64
	Retired        bool
}

// NewDog creates a dog with a fresh id, facing north and standing still.
func NewDog(name string, bagCapacity int) *Dog {
	return &Dog{
		ID:          nextDogID(),
		Name:        name,
		Dir:         North,
		Bag:         make([]uint64, 0, bagCapacity),
		BagCapacity: bagCapacity,
	}
}

// RestoreDog builds a dog with an explicit id, bypassing the id counter.
// Snapshot restore uses it and fixes the counter afterwards.
func RestoreDog(id uint64, name string, bagCapacity int) *Dog {
	return &Dog{
		ID:          id,
		Name:        name,
		Dir:         North,
		Bag:         make([]uint64, 0, bagCapacity),
		BagCapacity: bagCapacity,
	}
}

// HasBagSpace reports whether the bag can take one more loot id.
func (d *Dog) HasBagSpace() bool {
	return len(d.Bag) < d.BagCapacity
}

// AddToBag appends a carried loot id; it refuses when the bag is full.
func (d *Dog) AddToBag(lootID uint64) bool {
	if !d.HasBagSpace() {
		return false
	}
	d.Bag = append(d.Bag, lootID)
	return true
}

// EmptyBag drops every carried id, keeping the backing storage.
func (d *Dog) EmptyBag() {
	d.Bag = d.Bag[:0]
}

// ApplyMove sets speed and direction from a transport move letter. The empty
// move stops the dog without changing its facing. Unknown letters are
// rejected.
func (d *Dog) ApplyMove(move string, dogSpeed float64) bool {
	switch move {
	case "U":
		d.Speed = Speed{Dx: 0, Dy: -dogSpeed}
		d.Dir = North
	case "D":
		d.Speed = Speed{Dx: 0, Dy: dogSpeed}
		d.Dir = South
	case "L":
		d.Speed = Speed{Dx: -dogSpeed, Dy: 0}
		d.Dir = West
	case "R":
		d.Speed = Speed{Dx: dogSpeed, Dy: 0}
		d.Dir = East
	case "":
		d.Speed = Speed{}
	default:
		return false
	}
	return true
}
