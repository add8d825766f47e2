package service

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/wricardo/dogtown/game/engine"
)

// Token is a bearer credential identifying one live player: 32 lowercase hex
// characters built from 128 bits of OS entropy. The distinct type keeps it
// from being confused with other strings at call sites.
type Token string

// NewToken draws a fresh token from the OS entropy source.
func NewToken() Token {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms; if it does the
		// process has no usable entropy and cannot hand out credentials.
		panic(fmt.Sprintf("token generation failed: %v", err))
	}
	hi := binary.BigEndian.Uint64(buf[:8])
	lo := binary.BigEndian.Uint64(buf[8:])
	return Token(fmt.Sprintf("%016x%016x", hi, lo))
}

// IsWellFormed reports whether the token has the expected 32-hex shape.
func (t Token) IsWellFormed() bool {
	if len(t) != 32 {
		return false
	}
	for _, c := range t {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Player binds a token to a dog in a session. The registry stores ids, not
// pointers; the dog itself lives in its session's map.
type Player struct {
	Token Token
	MapID string
	DogID uint64
	Name  string
}

type nameKey struct {
	mapID string
	name  string
}

// PlayerRegistry maps tokens to players and keeps the per-(map,name) index
// that makes joining idempotent. It must only be used on the application's
// serialization domain.
type PlayerRegistry struct {
	byToken map[Token]*Player
	byName  map[nameKey]*Player
}

// NewPlayerRegistry returns an empty registry.
func NewPlayerRegistry() *PlayerRegistry {
	return &PlayerRegistry{
		byToken: make(map[Token]*Player),
		byName:  make(map[nameKey]*Player),
	}
}

// Join returns the player for (mapID, userName), creating a dog in the
// session and issuing a token on first join. Re-joining with the same pair
// returns the existing player untouched.
func (r *PlayerRegistry) Join(session *engine.Session, mapID, userName string) (*Player, bool) {
	key := nameKey{mapID: mapID, name: userName}
	if p, ok := r.byName[key]; ok {
		return p, false
	}

	dog := session.AddDog(userName)
	token := NewToken()
	for {
		if _, taken := r.byToken[token]; !taken {
			break
		}
		token = NewToken()
	}

	p := &Player{Token: token, MapID: mapID, DogID: dog.ID, Name: userName}
	r.byToken[token] = p
	r.byName[key] = p
	return p, true
}

// InsertRestored re-registers a player with its stored token verbatim.
// Snapshot restore uses it; a colliding (mapID, name) pair silently replaces
// the earlier entry.
func (r *PlayerRegistry) InsertRestored(token Token, mapID string, dogID uint64, userName string) *Player {
	key := nameKey{mapID: mapID, name: userName}
	if old, ok := r.byName[key]; ok {
		delete(r.byToken, old.Token)
	}
	p := &Player{Token: token, MapID: mapID, DogID: dogID, Name: userName}
	r.byToken[token] = p
	r.byName[key] = p
	return p
}

// FindByToken looks up a live player.
func (r *PlayerRegistry) FindByToken(token Token) (*Player, bool) {
	p, ok := r.byToken[token]
	return p, ok
}

// PlayersInSession returns every live player of a map, ascending by dog id.
func (r *PlayerRegistry) PlayersInSession(mapID string) []*Player {
	var out []*Player
	for _, p := range r.byToken {
		if p.MapID == mapID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DogID < out[j].DogID })
	return out
}

// All returns every live player, ascending by dog id. Snapshots iterate it.
func (r *PlayerRegistry) All() []*Player {
	out := make([]*Player, 0, len(r.byToken))
	for _, p := range r.byToken {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DogID < out[j].DogID })
	return out
}

// RemoveRetired drains every retired dog of the session: the player leaves
// both registry indices, the dog leaves the session, and the final stats are
// returned for persistence. Stats reflect the tick that set the flag.
func (r *PlayerRegistry) RemoveRetired(mapID string, session *engine.Session) []RetiredPlayer {
	var retired []RetiredPlayer
	for _, p := range r.PlayersInSession(mapID) {
		dog, ok := session.Dog(p.DogID)
		if !ok || !dog.Retired {
			continue
		}
		retired = append(retired, RetiredPlayer{
			Name:       dog.Name,
			Score:      dog.Score,
			PlayTimeMs: dog.GameTimeMs,
		})
		delete(r.byToken, p.Token)
		delete(r.byName, nameKey{mapID: p.MapID, name: p.Name})
		session.RemoveDog(p.DogID)
	}
	return retired
}
