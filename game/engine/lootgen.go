package engine

import "math"

// LootGenerator decides how many new items appear on a tick. It models one
// spawn opportunity per base period with success probability p; the longer
// the session goes without spawning, the closer the chance gets to 1. The
// count never exceeds the current loot shortage, so
// currentLoot + generated <= looterCount always holds.
type LootGenerator struct {
	periodMs    int64
	probability float64
	noLootMs    int64
	random      func() float64
}

// NewLootGenerator builds a deterministic generator (random factor fixed
// at 1), matching the behavior the session tests rely on.
func NewLootGenerator(periodMs int64, probability float64) *LootGenerator {
	return NewLootGeneratorWithRandom(periodMs, probability, func() float64 { return 1.0 })
}

// NewLootGeneratorWithRandom builds a generator with a custom random source
// producing values in [0,1].
func NewLootGeneratorWithRandom(periodMs int64, probability float64, random func() float64) *LootGenerator {
	return &LootGenerator{
		periodMs:    periodMs,
		probability: probability,
		random:      random,
	}
}

// Generate returns the number of items to spawn for this tick given the
// visible loot count and the number of dogs hunting it. The internal
// starvation clock resets only when something was spawned.
func (g *LootGenerator) Generate(deltaMs int64, lootCount, looterCount int) int {
	g.noLootMs += deltaMs
	shortage := 0
	if looterCount > lootCount {
		shortage = looterCount - lootCount
	}
	ratio := float64(g.noLootMs) / float64(g.periodMs)
	p := (1.0 - math.Pow(1.0-g.probability, ratio)) * g.random()
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	generated := int(math.Round(float64(shortage) * p))
	if generated > 0 {
		g.noLootMs = 0
	}
	return generated
}
