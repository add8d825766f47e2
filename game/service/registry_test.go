package service

import (
	"testing"

	"github.com/wricardo/dogtown/game/engine"
)

func newRegistryTestSession() *engine.Session {
	m := &engine.Map{
		ID:          "town",
		Name:        "Town",
		Roads:       []engine.Road{{Start: engine.Point{X: 0, Y: 0}, End: engine.Point{X: 10, Y: 0}}},
		LootTypes:   []engine.LootType{{Value: 1}},
		DogSpeed:    2,
		BagCapacity: 3,
	}
	return engine.NewSession(m, engine.NewLootGenerator(5000, 0.5), false)
}

func TestNewToken_Shape(t *testing.T) {
	seen := make(map[Token]struct{})
	for i := 0; i < 100; i++ {
		token := NewToken()
		if !token.IsWellFormed() {
			t.Fatalf("Token %q is not 32 lowercase hex chars", token)
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("Token %q generated twice", token)
		}
		seen[token] = struct{}{}
	}
}

func TestToken_IsWellFormed(t *testing.T) {
	tests := []struct {
		token Token
		want  bool
	}{
		{"0123456789abcdef0123456789abcdef", true},
		{"0123456789ABCDEF0123456789ABCDEF", false},
		{"0123456789abcdef0123456789abcde", false},
		{"0123456789abcdef0123456789abcdeff", false},
		{"0123456789abcdex0123456789abcdef", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.token.IsWellFormed(); got != tt.want {
			t.Errorf("IsWellFormed(%q): expected %v, got %v", tt.token, tt.want, got)
		}
	}
}

func TestRegistry_JoinCreatesAndFinds(t *testing.T) {
	r := NewPlayerRegistry()
	sess := newRegistryTestSession()

	p, created := r.Join(sess, "town", "Pluto")
	if !created {
		t.Fatal("Expected first join to create a player")
	}
	if !p.Token.IsWellFormed() {
		t.Errorf("Join issued malformed token %q", p.Token)
	}
	if _, ok := sess.Dog(p.DogID); !ok {
		t.Error("Expected dog created in the session")
	}

	found, ok := r.FindByToken(p.Token)
	if !ok || found != p {
		t.Error("FindByToken did not return the joined player")
	}
}

func TestRegistry_RejoinReturnsExistingPlayer(t *testing.T) {
	r := NewPlayerRegistry()
	sess := newRegistryTestSession()

	first, _ := r.Join(sess, "town", "Pluto")
	second, created := r.Join(sess, "town", "Pluto")

	if created {
		t.Error("Expected rejoin to reuse the existing player")
	}
	if second.Token != first.Token || second.DogID != first.DogID {
		t.Errorf("Rejoin returned a different player: %+v vs %+v", second, first)
	}
	if len(sess.Dogs()) != 1 {
		t.Errorf("Expected a single dog after rejoin, got %d", len(sess.Dogs()))
	}
}

func TestRegistry_SameNameDifferentMapsAreDistinct(t *testing.T) {
	r := NewPlayerRegistry()
	town := newRegistryTestSession()
	village := newRegistryTestSession()

	a, _ := r.Join(town, "town", "Pluto")
	b, _ := r.Join(village, "village", "Pluto")

	if a.Token == b.Token {
		t.Error("Expected distinct tokens for the same name on different maps")
	}
}

func TestRegistry_PlayersInSessionSortedByDogID(t *testing.T) {
	r := NewPlayerRegistry()
	sess := newRegistryTestSession()
	r.Join(sess, "town", "C")
	r.Join(sess, "town", "A")
	r.Join(sess, "town", "B")

	players := r.PlayersInSession("town")
	if len(players) != 3 {
		t.Fatalf("Expected 3 players, got %d", len(players))
	}
	for i := 1; i < len(players); i++ {
		if players[i].DogID <= players[i-1].DogID {
			t.Errorf("Players not sorted by dog id: %+v", players)
		}
	}
}

func TestRegistry_RemoveRetired(t *testing.T) {
	r := NewPlayerRegistry()
	sess := newRegistryTestSession()
	stay, _ := r.Join(sess, "town", "Pluto")
	leave, _ := r.Join(sess, "town", "Sleepy")

	dog, _ := sess.Dog(leave.DogID)
	dog.Retired = true
	dog.Score = 42
	dog.GameTimeMs = 60000

	retired := r.RemoveRetired("town", sess)

	if len(retired) != 1 {
		t.Fatalf("Expected 1 retired player, got %d", len(retired))
	}
	got := retired[0]
	if got.Name != "Sleepy" || got.Score != 42 || got.PlayTimeMs != 60000 {
		t.Errorf("Unexpected retired stats: %+v", got)
	}
	if _, ok := r.FindByToken(leave.Token); ok {
		t.Error("Expected retired token revoked")
	}
	if _, ok := sess.Dog(leave.DogID); ok {
		t.Error("Expected retired dog removed from session")
	}
	if _, ok := r.FindByToken(stay.Token); !ok {
		t.Error("Expected remaining player untouched")
	}
	// The freed (map, name) pair can join again as a brand-new player.
	again, created := r.Join(sess, "town", "Sleepy")
	if !created {
		t.Error("Expected a fresh join after retirement")
	}
	if again.Token == leave.Token {
		t.Error("Expected a new token after retirement")
	}
}

func TestRegistry_InsertRestoredOverwritesCollision(t *testing.T) {
	r := NewPlayerRegistry()

	first := r.InsertRestored("0123456789abcdef0123456789abcdef", "town", 1, "Pluto")
	second := r.InsertRestored("fedcba9876543210fedcba9876543210", "town", 2, "Pluto")

	if _, ok := r.FindByToken(first.Token); ok {
		t.Error("Expected first token dropped on (map,name) collision")
	}
	found, ok := r.FindByToken(second.Token)
	if !ok || found.DogID != 2 {
		t.Error("Expected second restore to win")
	}
}
