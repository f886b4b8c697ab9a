/*
Package game
File: session_test.go
Description: Tests for the session command boundary: build/upgrade/sell
validation, gold atomicity under concurrent commands, chat relay rules, the
life counter and game-over idempotence.
*/

package game

import (
	"strings"
	"sync"
	"testing"
)

func sessionPlayer(t *testing.T, s *Session, id string) *Player {
	t.Helper()
	p, ok := s.players.Get(id)
	if !ok {
		t.Fatalf("player %s not in session", id)
	}
	return p
}

func TestBuildTowerDebitsGoldAndBroadcasts(t *testing.T) {
	s, host := newTestSession(t)

	s.BuildTower("p1", "bolt_tower", Position{X: 50, Y: 50})

	if got := s.towers.Len(); got != 1 {
		t.Fatalf("towers = %d, want 1", got)
	}
	if gold := sessionPlayer(t, s, "p1").Gold; gold != 100 {
		t.Fatalf("gold = %d after building a 100 gold tower, want 100", gold)
	}
	if host.countType(t, TypeTowerPlaced) != 1 {
		t.Fatal("tower_placed was not broadcast")
	}
	if host.countType(t, TypePlayerStateUpdate) != 1 {
		t.Fatal("builder did not receive a player state update")
	}
}

func TestBuildTowerRejectsUnaffordable(t *testing.T) {
	s, host := newTestSession(t)
	sessionPlayer(t, s, "p1").Gold = 50

	s.BuildTower("p1", "bolt_tower", Position{X: 50, Y: 50})

	if s.towers.Len() != 0 {
		t.Fatal("unaffordable tower was placed")
	}
	if gold := sessionPlayer(t, s, "p1").Gold; gold != 50 {
		t.Fatalf("gold = %d, want 50 untouched", gold)
	}
	if host.countType(t, TypeErrorMessage) == 0 {
		t.Fatal("no error notice for the unaffordable build")
	}
}

func TestBuildTowerRejectsUnknownType(t *testing.T) {
	s, host := newTestSession(t)

	s.BuildTower("p1", "laser_tower", Position{X: 50, Y: 50})

	if s.towers.Len() != 0 {
		t.Fatal("tower of an unknown type was placed")
	}
	if host.countType(t, TypeErrorMessage) == 0 {
		t.Fatal("no error notice for the unknown tower type")
	}
}

func TestBuildTowerRejectsPositions(t *testing.T) {
	s, _ := newTestSession(t)
	s.BuildTower("p1", "bolt_tower", Position{X: 50, Y: 50})

	tests := []struct {
		name string
		pos  Position
	}{
		{"outside every buildable area", Position{X: 1000, Y: 1000}},
		{"inside another tower's footprint", Position{X: 60, Y: 60}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := sessionPlayer(t, s, "p1").Gold
			s.BuildTower("p1", "bolt_tower", tt.pos)
			if s.towers.Len() != 1 {
				t.Fatalf("towers = %d, want 1", s.towers.Len())
			}
			if after := sessionPlayer(t, s, "p1").Gold; after != before {
				t.Fatalf("rejected build changed gold: %d -> %d", before, after)
			}
		})
	}
}

// Two concurrent builds against a balance that covers only one must place
// exactly one tower: the check and the debit commit atomically.
func TestConcurrentBuildsDebitOnce(t *testing.T) {
	s, _ := newTestSession(t)
	sessionPlayer(t, s, "p1").Gold = 100

	var wg sync.WaitGroup
	positions := []Position{{X: 50, Y: 50}, {X: 250, Y: 250}}
	for _, pos := range positions {
		wg.Add(1)
		go func(p Position) {
			defer wg.Done()
			s.BuildTower("p1", "bolt_tower", p)
		}(pos)
	}
	wg.Wait()

	if got := s.towers.Len(); got != 1 {
		t.Fatalf("towers = %d, want exactly 1", got)
	}
	if gold := sessionPlayer(t, s, "p1").Gold; gold != 0 {
		t.Fatalf("gold = %d, want 0 after one debit", gold)
	}
}

func TestUpgradeAndSellRoundTrip(t *testing.T) {
	s, _ := newTestSession(t)

	s.BuildTower("p1", "bolt_tower", Position{X: 50, Y: 50})
	towerID := s.towers.IDs()[0]

	s.UpgradeTower("p1", towerID)
	tower, _ := s.towers.Get(towerID)
	if tower.Level != 2 {
		t.Fatalf("level = %d after upgrade, want 2", tower.Level)
	}
	if gold := sessionPlayer(t, s, "p1").Gold; gold != 50 {
		t.Fatalf("gold = %d after build and upgrade, want 50", gold)
	}

	s.SellTower("p1", towerID)
	if s.towers.Len() != 0 {
		t.Fatal("tower survived the sale")
	}
	// Invested 150, refund floor(150 * 0.75) = 112.
	if gold := sessionPlayer(t, s, "p1").Gold; gold != 162 {
		t.Fatalf("gold = %d after selling, want 162", gold)
	}
}

func TestUpgradeRequiresOwnership(t *testing.T) {
	s, _ := newTestSession(t)
	other := newRecordingConn("p2", "bob")
	s.AddPlayer(other)

	s.BuildTower("p1", "bolt_tower", Position{X: 50, Y: 50})
	towerID := s.towers.IDs()[0]

	s.UpgradeTower("p2", towerID)
	tower, _ := s.towers.Get(towerID)
	if tower.Level != 1 {
		t.Fatal("non-owner upgraded the tower")
	}
	if other.countType(t, TypeErrorMessage) == 0 {
		t.Fatal("no error notice for the non-owner upgrade")
	}

	s.SellTower("p2", towerID)
	if s.towers.Len() != 1 {
		t.Fatal("non-owner sold the tower")
	}
}

func TestStartGameHostOnly(t *testing.T) {
	s, _ := newTestSession(t)
	other := newRecordingConn("p2", "bob")
	s.AddPlayer(other)

	s.StartGame("p2")
	if s.Snapshot().Status != StatusLobby {
		t.Fatal("non-host started the game")
	}
	if other.countType(t, TypeErrorMessage) == 0 {
		t.Fatal("no error notice for the non-host start")
	}

	s.StartGame("p1")
	if s.Snapshot().Status != StatusInProgress {
		t.Fatal("host could not start the game")
	}
	if !s.engine.Running() {
		t.Fatal("engine not running after start")
	}

	// A second start is a no-op.
	s.StartGame("p1")
	if got := other.countType(t, TypeGameStarted); got != 1 {
		t.Fatalf("game_started broadcast %d times, want 1", got)
	}
}

func TestCanJoinRules(t *testing.T) {
	s, _ := newTestSession(t)

	if !s.CanJoin() {
		t.Fatal("lobby with a free slot refused a join")
	}

	// The test map allows 2 players.
	s.AddPlayer(newRecordingConn("p2", "bob"))
	if s.CanJoin() {
		t.Fatal("full session accepted a join")
	}

	s.RemovePlayer("p2")
	if !s.CanJoin() {
		t.Fatal("freed slot not joinable again")
	}

	s.StartGame("p1")
	if s.CanJoin() {
		t.Fatal("running game accepted a join")
	}
}

func TestChatRelayRules(t *testing.T) {
	s, host := newTestSession(t)

	tests := []struct {
		name      string
		message   string
		delivered bool
	}{
		{"normal message", "push the north lane", true},
		{"surrounding whitespace trimmed", "  hello  ", true},
		{"empty dropped", "", false},
		{"whitespace only dropped", "   \t  ", false},
		{"oversized dropped", strings.Repeat("a", 300), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := host.countType(t, TypeChatMessageReceived)
			s.HandleChatMessage("p1", tt.message)
			after := host.countType(t, TypeChatMessageReceived)
			if delivered := after > before; delivered != tt.delivered {
				t.Fatalf("delivered = %v, want %v", delivered, tt.delivered)
			}
		})
	}

	// Unknown sender never relays.
	before := host.countType(t, TypeChatMessageReceived)
	s.HandleChatMessage("ghost", "boo")
	if host.countType(t, TypeChatMessageReceived) != before {
		t.Fatal("message from an unknown sender was relayed")
	}
}

func TestMonsterReachedEndCostsLivesAndEndsGame(t *testing.T) {
	s, host := newTestSession(t)
	s.StartGame("p1")

	// The test map starts with 3 lives.
	for i := 0; i < 3; i++ {
		m := addMonster(t, s, "grunt")
		s.MonsterReachedEnd(m.InstanceID)
	}

	snap := s.Snapshot()
	if snap.Lives != 0 {
		t.Fatalf("lives = %d, want 0", snap.Lives)
	}
	if snap.Status != StatusFinished {
		t.Fatal("session not finished at zero lives")
	}
	if s.engine.Running() {
		t.Fatal("engine still running after defeat")
	}
	if got := host.countType(t, TypeGameOver); got != 1 {
		t.Fatalf("game_over broadcast %d times, want 1", got)
	}

	// A straggler arriving after the end changes nothing.
	m := addMonster(t, s, "grunt")
	s.MonsterReachedEnd(m.InstanceID)
	if snap := s.Snapshot(); snap.Lives != 0 {
		t.Fatalf("lives went to %d after the game ended", snap.Lives)
	}
	if got := host.countType(t, TypeGameOver); got != 1 {
		t.Fatalf("game_over broadcast %d times after straggler, want 1", got)
	}
}

func TestEndGameIdempotent(t *testing.T) {
	s, host := newTestSession(t)
	s.StartGame("p1")

	s.EndGame(ResultDefeat)
	s.EndGame(ResultVictory)

	if got := host.countType(t, TypeGameOver); got != 1 {
		t.Fatalf("game_over broadcast %d times, want 1", got)
	}
}

func TestRemovePlayerKeepsGameRunning(t *testing.T) {
	s, _ := newTestSession(t)
	other := newRecordingConn("p2", "bob")
	s.AddPlayer(other)
	s.StartGame("p1")

	s.RemovePlayer("p2")
	if s.PlayerCount() != 1 {
		t.Fatalf("player count = %d, want 1", s.PlayerCount())
	}
	if !s.engine.Running() {
		t.Fatal("engine stopped when a player left")
	}

	s.RemovePlayer("p1")
	if s.PlayerCount() != 0 {
		t.Fatalf("player count = %d, want 0", s.PlayerCount())
	}
	// Even an empty session keeps running; teardown is the directory's call.
	if !s.engine.Running() {
		t.Fatal("engine stopped when the session emptied")
	}
}

func TestSnapshotReflectsEntities(t *testing.T) {
	s, _ := newTestSession(t)
	s.BuildTower("p1", "bolt_tower", Position{X: 50, Y: 50})
	addMonster(t, s, "grunt")

	snap := s.Snapshot()
	if len(snap.Players) != 1 || len(snap.Towers) != 1 || len(snap.Monsters) != 1 {
		t.Fatalf("snapshot counts: players=%d towers=%d monsters=%d",
			len(snap.Players), len(snap.Towers), len(snap.Monsters))
	}
	if snap.MapData == nil || snap.MapData.ID != testMapID {
		t.Fatal("snapshot is missing the map data")
	}
	if len(snap.TowerPrototypes) != 3 {
		t.Fatalf("snapshot lists %d tower prototypes, want 3", len(snap.TowerPrototypes))
	}
}
