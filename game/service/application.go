package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/wricardo/dogtown/game/engine"
	"github.com/wricardo/dogtown/game/state"
)

// Application orchestrates the whole game: it owns the serialization domain
// over the engine's Game and the PlayerRegistry, drives ticks, drains
// retired players into the stats store, and snapshots live state to disk.
type Application struct {
	// mu is the serialization domain: every mutation of game, registry and
	// their dogs/loot happens under it.
	mu       sync.RWMutex
	game     *engine.Game
	registry *PlayerRegistry

	stats        PlayerStatsStore
	retirementMs int64
	statePath    string

	autoTicking atomic.Bool
	tickerMu    sync.Mutex
	ticker      *Ticker

	subMu   sync.Mutex
	subs    map[int]func(deltaMs int64)
	nextSub int
}

var _ GameService = (*Application)(nil)

// NewApplication wires the application. statePath may be empty, which turns
// SaveState and RecoverFromFile into no-ops.
func NewApplication(game *engine.Game, stats PlayerStatsStore, retirementMs int64, statePath string) *Application {
	return &Application{
		game:         game,
		registry:     NewPlayerRegistry(),
		stats:        stats,
		retirementMs: retirementMs,
		statePath:    statePath,
		subs:         make(map[int]func(int64)),
	}
}

// ListMaps returns the catalog in config order.
func (a *Application) ListMaps(ctx context.Context) []MapSummary {
	maps := a.game.Maps()
	out := make([]MapSummary, 0, len(maps))
	for _, m := range maps {
		out = append(out, MapSummary{ID: m.ID, Name: m.Name})
	}
	return out
}

// GetMap returns the full map document, or engine.ErrMapNotFound.
func (a *Application) GetMap(ctx context.Context, mapID string) (*MapDetail, error) {
	m, ok := a.game.Map(mapID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrMapNotFound, mapID)
	}

	detail := &MapDetail{
		ID:        m.ID,
		Name:      m.Name,
		Roads:     make([]RoadView, 0, len(m.Roads)),
		Buildings: make([]BuildingView, 0, len(m.Buildings)),
		Offices:   make([]OfficeView, 0, len(m.Offices)),
		LootTypes: m.LootTypesJSON,
	}
	for _, r := range m.Roads {
		rv := RoadView{X0: r.Start.X, Y0: r.Start.Y}
		if r.IsHorizontal() {
			x1 := r.End.X
			rv.X1 = &x1
		} else {
			y1 := r.End.Y
			rv.Y1 = &y1
		}
		detail.Roads = append(detail.Roads, rv)
	}
	for _, b := range m.Buildings {
		detail.Buildings = append(detail.Buildings, BuildingView{X: b.Pos.X, Y: b.Pos.Y, W: b.Size.W, H: b.Size.H})
	}
	for _, o := range m.Offices {
		detail.Offices = append(detail.Offices, OfficeView{ID: o.ID, X: o.Pos.X, Y: o.Pos.Y, OffsetX: o.Offset.X, OffsetY: o.Offset.Y})
	}
	return detail, nil
}

// Join finds or creates the map's session and registers the player in it.
// Joining twice with the same (map, name) pair returns the original token.
func (a *Application) Join(ctx context.Context, mapID, userName string) (*JoinResult, error) {
	if strings.TrimSpace(userName) == "" {
		return nil, ErrInvalidUserName
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	sess, err := a.game.SessionFor(mapID)
	if err != nil {
		return nil, err
	}
	p, _ := a.registry.Join(sess, mapID, userName)
	return &JoinResult{Token: p.Token, PlayerID: p.DogID}, nil
}

// Players lists every player in the caller's session, keyed by decimal dog
// id.
func (a *Application) Players(ctx context.Context, token Token) (map[string]PlayerSummary, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	p, ok := a.registry.FindByToken(token)
	if !ok {
		return nil, ErrUnknownToken
	}
	out := make(map[string]PlayerSummary)
	for _, other := range a.registry.PlayersInSession(p.MapID) {
		out[strconv.FormatUint(other.DogID, 10)] = PlayerSummary{Name: other.Name}
	}
	return out, nil
}

// State returns the caller's session state view.
func (a *Application) State(ctx context.Context, token Token) (*GameState, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	p, ok := a.registry.FindByToken(token)
	if !ok {
		return nil, ErrUnknownToken
	}
	sess, ok := a.game.Session(p.MapID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrMapNotFound, p.MapID)
	}
	return buildGameState(sess), nil
}

// MapState returns a map's state view without a player token; the websocket
// hub uses it to push state to spectators. A known map without a live
// session yields an empty view.
func (a *Application) MapState(mapID string) (*GameState, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if _, ok := a.game.Map(mapID); !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrMapNotFound, mapID)
	}
	sess, ok := a.game.Session(mapID)
	if !ok {
		return &GameState{
			Players:     map[string]PlayerState{},
			LostObjects: map[string]LootState{},
		}, nil
	}
	return buildGameState(sess), nil
}

// Move sets the caller's speed and direction from a move letter; the empty
// move stops the dog.
func (a *Application) Move(ctx context.Context, token Token, move string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, ok := a.registry.FindByToken(token)
	if !ok {
		return ErrUnknownToken
	}
	sess, ok := a.game.Session(p.MapID)
	if !ok {
		return fmt.Errorf("%w: %s", engine.ErrMapNotFound, p.MapID)
	}
	dog, ok := sess.Dog(p.DogID)
	if !ok {
		return ErrUnknownToken
	}
	if !dog.ApplyMove(move, sess.Map().DogSpeed) {
		return fmt.Errorf("%w: %q", ErrInvalidMove, move)
	}
	return nil
}

// Tick advances the simulation manually. It is refused while the auto
// ticker runs so two clocks never interleave.
func (a *Application) Tick(ctx context.Context, deltaMs int64) error {
	if deltaMs < 0 {
		return fmt.Errorf("time delta must not be negative: %d", deltaMs)
	}
	if a.IsAutoTicking() {
		return ErrManualTickDisabled
	}
	return a.advance(ctx, deltaMs)
}

// advance runs one tick on the serialization domain: simulate every
// session, drain retired players into the stats store, then emit the tick
// signal. A zero delta changes nothing and emits nothing.
func (a *Application) advance(ctx context.Context, deltaMs int64) error {
	if deltaMs == 0 {
		return nil
	}

	a.mu.Lock()
	a.game.Tick(deltaMs, a.retirementMs)
	err := a.drainRetiredLocked(ctx)
	a.mu.Unlock()

	a.emitTick(deltaMs)
	return err
}

func (a *Application) drainRetiredLocked(ctx context.Context) error {
	var firstErr error
	for _, sess := range a.game.ActiveSessions() {
		retired := a.registry.RemoveRetired(sess.Map().ID, sess)
		if len(retired) == 0 {
			continue
		}
		if err := a.stats.SaveRetired(ctx, retired); err != nil {
			log.Printf("Failed to persist %d retired players for map %s: %v",
				len(retired), sess.Map().ID, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to persist retired players: %w", err)
			}
		}
	}
	return firstErr
}

// Records serves a leaderboard page. maxItems 0 means the cap of
// MaxRecordLimit; anything above the cap is refused.
func (a *Application) Records(ctx context.Context, start, maxItems int) ([]Record, error) {
	if maxItems > MaxRecordLimit {
		return nil, ErrRecordLimitTooLarge
	}
	if maxItems <= 0 {
		maxItems = MaxRecordLimit
	}
	if start < 0 {
		start = 0
	}

	rows, err := a.stats.Records(ctx, start, maxItems)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, Record{
			Name:     row.Name,
			Score:    row.Score,
			PlayTime: float64(row.PlayTimeMs) * 0.001,
		})
	}
	return out, nil
}

// EnableAutoTicker starts the recurring tick scheduler. Manual ticks are
// refused while it runs.
func (a *Application) EnableAutoTicker(periodMs int64) {
	a.tickerMu.Lock()
	defer a.tickerMu.Unlock()
	if a.ticker != nil {
		return
	}

	a.autoTicking.Store(true)
	a.ticker = NewTicker(periodMs, func(deltaMs int64) {
		if err := a.advance(context.Background(), deltaMs); err != nil {
			log.Printf("Tick failed: %v", err)
		}
	})
	a.ticker.Start()
}

// StopAutoTicker stops the scheduler and re-enables manual ticks.
func (a *Application) StopAutoTicker() {
	a.tickerMu.Lock()
	defer a.tickerMu.Unlock()
	if a.ticker == nil {
		return
	}
	a.ticker.Stop()
	a.ticker = nil
	a.autoTicking.Store(false)
}

// IsAutoTicking reports whether the auto ticker is running.
func (a *Application) IsAutoTicking() bool {
	return a.autoTicking.Load()
}

// OnTick subscribes to the tick signal emitted after every non-empty tick.
// The returned function cancels the subscription.
func (a *Application) OnTick(fn func(deltaMs int64)) func() {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn
	return func() {
		a.subMu.Lock()
		delete(a.subs, id)
		a.subMu.Unlock()
	}
}

func (a *Application) emitTick(deltaMs int64) {
	a.subMu.Lock()
	fns := make([]func(int64), 0, len(a.subs))
	for _, fn := range a.subs {
		fns = append(fns, fn)
	}
	a.subMu.Unlock()

	for _, fn := range fns {
		fn(deltaMs)
	}
}

// SaveState writes an atomic snapshot of every session's dogs and loot. With
// no state path configured it silently does nothing.
func (a *Application) SaveState() error {
	if a.statePath == "" {
		return nil
	}

	a.mu.RLock()
	snap := a.buildSnapshotLocked()
	a.mu.RUnlock()

	if err := state.Write(a.statePath, snap); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

func (a *Application) buildSnapshotLocked() *state.Snapshot {
	snap := &state.Snapshot{Loot: make(map[string]state.LootRecord)}

	for _, p := range a.registry.All() {
		sess, ok := a.game.Session(p.MapID)
		if !ok {
			continue
		}
		dog, ok := sess.Dog(p.DogID)
		if !ok {
			continue
		}
		bag := make([]uint64, len(dog.Bag))
		copy(bag, dog.Bag)
		snap.Players = append(snap.Players, state.PlayerRecord{
			ID:             dog.ID,
			Name:           dog.Name,
			Pos:            dog.Pos,
			Speed:          dog.Speed,
			Direction:      string(dog.Dir),
			Bag:            bag,
			BagCapacity:    dog.BagCapacity,
			Score:          dog.Score,
			GameTimeMs:     dog.GameTimeMs,
			StandingTimeMs: dog.StandingTimeMs,
			Retired:        dog.Retired,
			Token:          string(p.Token),
			MapID:          p.MapID,
		})
	}

	for _, sess := range a.game.ActiveSessions() {
		loot := sess.Loot()
		snap.Loot[sess.Map().ID] = state.LootRecord{
			Slots: loot.Slots(),
			Freed: loot.Freed(),
			Busy:  loot.Busy(),
		}
	}
	return snap
}

// RecoverFromFile restores live state from the configured snapshot file.
// A missing or empty file leaves the game fresh and creates a placeholder.
// Loot stores are restored before players so bag ids resolve; afterwards
// the dog id counter moves past every restored id.
func (a *Application) RecoverFromFile() error {
	if a.statePath == "" {
		return nil
	}
	snap, err := state.Read(a.statePath)
	if err != nil {
		return fmt.Errorf("failed to recover state: %w", err)
	}
	if snap == nil {
		return state.EnsureFile(a.statePath)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for mapID, rec := range snap.Loot {
		sess, err := a.game.SessionFor(mapID)
		if err != nil {
			log.Printf("Skipping snapshot loot for unknown map %s", mapID)
			continue
		}
		sess.Loot().Restore(rec.Slots, rec.Freed, rec.Busy)
	}

	var nextID uint64
	for _, rec := range snap.Players {
		sess, err := a.game.SessionFor(rec.MapID)
		if err != nil {
			log.Printf("Skipping snapshot player %q on unknown map %s", rec.Name, rec.MapID)
			continue
		}
		dog := engine.RestoreDog(rec.ID, rec.Name, rec.BagCapacity)
		dog.Pos = rec.Pos
		dog.Speed = rec.Speed
		if rec.Direction != "" {
			dog.Dir = engine.Direction(rec.Direction)
		}
		dog.Bag = append(dog.Bag, rec.Bag...)
		dog.Score = rec.Score
		dog.GameTimeMs = rec.GameTimeMs
		dog.StandingTimeMs = rec.StandingTimeMs
		dog.Retired = rec.Retired
		sess.InsertDog(dog)
		a.registry.InsertRestored(Token(rec.Token), rec.MapID, dog.ID, rec.Name)
		if rec.ID >= nextID {
			nextID = rec.ID + 1
		}
	}
	if nextID > 0 {
		engine.SetNextDogID(nextID)
	}
	return nil
}

func buildGameState(sess *engine.Session) *GameState {
	loot := sess.Loot()
	gs := &GameState{
		Players:     make(map[string]PlayerState),
		LostObjects: make(map[string]LootState),
	}
	for _, dog := range sess.Dogs() {
		bag := make([]BagItem, 0, len(dog.Bag))
		for _, id := range dog.Bag {
			item := BagItem{ID: id}
			if l, ok := loot.Get(id); ok {
				item.Type = l.Type
			}
			bag = append(bag, item)
		}
		gs.Players[strconv.FormatUint(dog.ID, 10)] = PlayerState{
			Pos:   [2]float64{dog.Pos.X, dog.Pos.Y},
			Speed: [2]float64{dog.Speed.Dx, dog.Speed.Dy},
			Dir:   string(dog.Dir),
			Bag:   bag,
			Score: dog.Score,
		}
	}
	for _, ref := range loot.Visible() {
		gs.LostObjects[strconv.FormatUint(ref.ID, 10)] = LootState{
			Type: ref.Loot.Type,
			Pos:  [2]float64{ref.Loot.Pos.X, ref.Loot.Pos.Y},
		}
	}
	return gs
}
