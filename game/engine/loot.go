package engine

import "sort"

// Loot is one lost thing lying on a road, identified by its slot id in the
// session's LootStore.
type Loot struct {
	Type  int     `json:"type"`
	Pos   Point   `json:"pos"`
	Width float64 `json:"width"`
}

// LootRef pairs a live loot value with its stable slot id.
type LootRef struct {
	ID   uint64
	Loot Loot
}

// LootStore keeps a session's loot in index-stable slots. A slot id stays
// valid while the loot is live, including while a dog carries it (busy);
// Pop frees the slot and queues the id for recycling in FIFO order.
type LootStore struct {
	slots []Loot
	live  []bool
	freed []uint64
	busy  map[uint64]struct{}
}

// NewLootStore returns an empty store.
func NewLootStore() *LootStore {
	return &LootStore{busy: make(map[uint64]struct{})}
}

// Add inserts loot, recycling the oldest freed slot before growing, and
// returns the slot id.
func (s *LootStore) Add(l Loot) uint64 {
	if len(s.freed) > 0 {
		id := s.freed[0]
		s.freed = s.freed[1:]
		s.slots[id] = l
		s.live[id] = true
		return id
	}
	id := uint64(len(s.slots))
	s.slots = append(s.slots, l)
	s.live = append(s.live, true)
	return id
}

// Get returns the loot in a live slot. Busy loot is still live; only freed
// slots miss.
func (s *LootStore) Get(id uint64) (Loot, bool) {
	if id >= uint64(len(s.slots)) || !s.live[id] {
		return Loot{}, false
	}
	return s.slots[id], true
}

// Pop frees a live slot and clears its busy mark. It reports whether the id
// was live.
func (s *LootStore) Pop(id uint64) bool {
	if id >= uint64(len(s.slots)) || !s.live[id] {
		return false
	}
	s.live[id] = false
	s.freed = append(s.freed, id)
	delete(s.busy, id)
	return true
}

// MarkBusy flags live loot as carried so it stops being visible and cannot
// be picked up twice.
func (s *LootStore) MarkBusy(id uint64) {
	if id < uint64(len(s.slots)) && s.live[id] {
		s.busy[id] = struct{}{}
	}
}

// IsBusy reports whether the id is currently carried.
func (s *LootStore) IsBusy(id uint64) bool {
	_, ok := s.busy[id]
	return ok
}

// IsLive reports whether the slot holds loot (visible or carried).
func (s *LootStore) IsLive(id uint64) bool {
	return id < uint64(len(s.slots)) && s.live[id]
}

// VisibleCount returns the number of live, not-carried items.
func (s *LootStore) VisibleCount() int {
	n := 0
	for id, alive := range s.live {
		if alive && !s.IsBusy(uint64(id)) {
			n++
		}
	}
	return n
}

// SlotCount returns the total number of slots ever allocated, live or freed.
// Item ids above this value belong to offices in the tick's combined index.
func (s *LootStore) SlotCount() int {
	return len(s.slots)
}

// Visible returns live, not-carried loot in ascending slot order.
func (s *LootStore) Visible() []LootRef {
	out := make([]LootRef, 0, len(s.slots))
	for id, alive := range s.live {
		if alive && !s.IsBusy(uint64(id)) {
			out = append(out, LootRef{ID: uint64(id), Loot: s.slots[id]})
		}
	}
	return out
}

// Slots returns a copy of every slot, including freed ones, for snapshots.
func (s *LootStore) Slots() []Loot {
	out := make([]Loot, len(s.slots))
	copy(out, s.slots)
	return out
}

// Freed returns a copy of the freed-id queue in recycle order.
func (s *LootStore) Freed() []uint64 {
	out := make([]uint64, len(s.freed))
	copy(out, s.freed)
	return out
}

// Busy returns the carried ids in ascending order.
func (s *LootStore) Busy() []uint64 {
	out := make([]uint64, 0, len(s.busy))
	for id := range s.busy {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Restore replaces the store contents wholesale from snapshot data. Freed
// and busy ids outside the slot range are dropped rather than trusted.
func (s *LootStore) Restore(slots []Loot, freed []uint64, busy []uint64) {
	s.slots = make([]Loot, len(slots))
	copy(s.slots, slots)
	s.live = make([]bool, len(slots))
	for i := range s.live {
		s.live[i] = true
	}
	s.freed = s.freed[:0]
	for _, id := range freed {
		if id < uint64(len(s.slots)) {
			s.freed = append(s.freed, id)
			s.live[id] = false
		}
	}
	s.busy = make(map[uint64]struct{}, len(busy))
	for _, id := range busy {
		if id < uint64(len(s.slots)) && s.live[id] {
			s.busy[id] = struct{}{}
		}
	}
}
