package service

import (
	"context"
	"errors"
)

// Sentinel errors surfaced to the transport, which maps them to HTTP
// statuses and machine codes.
var (
	ErrUnknownToken        = errors.New("player token has not been found")
	ErrInvalidUserName     = errors.New("user name must not be empty")
	ErrInvalidMove         = errors.New("invalid move")
	ErrManualTickDisabled  = errors.New("manual tick is disabled while the auto ticker runs")
	ErrRecordLimitTooLarge = errors.New("record limit can't be more than 100")
)

// MaxRecordLimit caps a single leaderboard page.
const MaxRecordLimit = 100

// GameService defines every game operation the transports consume.
type GameService interface {
	// Map catalog
	ListMaps(ctx context.Context) []MapSummary
	GetMap(ctx context.Context, mapID string) (*MapDetail, error)

	// Player lifecycle
	Join(ctx context.Context, mapID, userName string) (*JoinResult, error)
	Players(ctx context.Context, token Token) (map[string]PlayerSummary, error)

	// Game state and actions
	State(ctx context.Context, token Token) (*GameState, error)
	Move(ctx context.Context, token Token, move string) error
	Tick(ctx context.Context, deltaMs int64) error

	// Leaderboard
	Records(ctx context.Context, start, maxItems int) ([]Record, error)
}

// RetiredPlayer is the final stats record drained into the stats store when
// a dog retires.
type RetiredPlayer struct {
	Name       string
	Score      int
	PlayTimeMs int64
}

// RecordRow is one leaderboard row as the stats store returns it.
type RecordRow struct {
	Name       string
	Score      int
	PlayTimeMs int64
}

// PlayerStatsStore persists retired players and serves the leaderboard.
// Implementations run each call as a single transaction.
type PlayerStatsStore interface {
	SaveRetired(ctx context.Context, players []RetiredPlayer) error
	Records(ctx context.Context, start, maxItems int) ([]RecordRow, error)
}
