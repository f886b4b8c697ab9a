/*
Package game
File: session.go
Description:
    One game session: an isolated match with its own players, world state and
    tick loop. The session is the synchronous command boundary between network
    I/O and the simulation: every client command is applied (or rejected)
    atomically under one mutex, the same mutex the engine tick runs under, so
    the next tick always observes fully consistent results of every command
    processed so far.
*/

package game

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/canyonworks/towerdef-server/internal/catalog"
)

const (
	// towerSellPercentage is the fraction of invested gold refunded on sale.
	towerSellPercentage = 0.75

	// towerFootprintRadius keeps towers from overlapping: two towers must be
	// at least twice this far apart, center to center, in pixels.
	towerFootprintRadius = 25.0

	// maxChatLength caps chat messages after trimming.
	maxChatLength = 200
)

// PlayerConn is the transport-side view of one connected player. Send must
// never block: an unreachable or slow connection is silently skipped.
type PlayerConn interface {
	ID() string
	Nick() string
	Send(data []byte)
}

// Session owns one match. All mutable state below mu is touched only while
// holding it; the catalog and map data are immutable and shared.
type Session struct {
	ID     string
	HostID string

	catalog *catalog.Catalog
	mapData *catalog.MapDef

	mu          sync.Mutex
	status      Status
	lives       int
	wave        int
	conns       map[string]PlayerConn
	players     *registry[*Player]
	towers      *registry[*Tower]
	monsters    *registry[*Monster]
	projectiles *registry[*Projectile]

	engine *Engine
}

// NewSession creates a session in the lobby state with the given host already
// joined. The map must exist in the catalog.
func NewSession(host PlayerConn, mapID string, cat *catalog.Catalog) (*Session, error) {
	mapData := cat.Map(mapID)
	if mapData == nil {
		return nil, fmt.Errorf("unknown map %q", mapID)
	}

	s := &Session{
		ID:          newInstanceID("game"),
		HostID:      host.ID(),
		catalog:     cat,
		mapData:     mapData,
		status:      StatusLobby,
		lives:       mapData.InitialLives,
		conns:       make(map[string]PlayerConn),
		players:     newRegistry[*Player](),
		towers:      newRegistry[*Tower](),
		monsters:    newRegistry[*Monster](),
		projectiles: newRegistry[*Projectile](),
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	s.engine = newEngine(s, newSpawner(s, rng))

	log.Printf("[%s] session created on map %q (host %s)", s.ID, mapID, s.HostID)

	s.mu.Lock()
	s.addPlayerLocked(host)
	s.mu.Unlock()
	return s, nil
}

// AddPlayer joins a connection to the session. Idempotent by connection id.
func (s *Session) AddPlayer(conn PlayerConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addPlayerLocked(conn)
}

func (s *Session) addPlayerLocked(conn PlayerConn) {
	if _, exists := s.conns[conn.ID()]; exists {
		return
	}
	s.conns[conn.ID()] = conn
	s.players.Set(conn.ID(), NewPlayer(conn.ID(), conn.Nick(), s.mapData.InitialGold))

	log.Printf("[%s] player %s (%s) joined", s.ID, conn.Nick(), conn.ID())
	s.broadcastSystemLocked(fmt.Sprintf("%s joined the room.", conn.Nick()))
}

// RemovePlayer drops a connection and its player entity. The game keeps
// running even with zero players left; removing an empty session is the
// directory's call.
func (s *Session) RemovePlayer(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.conns[playerID]
	if !ok {
		return
	}
	delete(s.conns, playerID)
	s.players.Delete(playerID)

	log.Printf("[%s] player %s (%s) left", s.ID, conn.Nick(), playerID)
	s.broadcastSystemLocked(fmt.Sprintf("%s left the room.", conn.Nick()))
}

// StartGame begins the match. Only the host may start, and only from the
// lobby; a second call is a no-op.
func (s *Session) StartGame(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if playerID != s.HostID {
		s.sendErrorLocked(playerID, "Only the host can start the game.")
		return
	}
	if s.status != StatusLobby {
		return
	}

	log.Printf("[%s] game started by host", s.ID)
	s.status = StatusInProgress
	s.wave = 1
	s.broadcastLocked(Envelope{Type: TypeGameStarted, Payload: struct{}{}})
	s.engine.Start()
}

// BuildTower validates and applies a build command: the position must sit in
// a buildable area and keep its distance from every existing tower, and the
// player must afford the level-1 cost. Rejections are per-player notices,
// never errors.
func (s *Session) BuildTower(playerID, towerTypeID string, position Position) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, _ := s.players.Get(playerID)
	tpl := s.catalog.Tower(towerTypeID)
	if player == nil || tpl == nil {
		log.Printf("[%s] build rejected: unknown player or tower type (%s, %s)", s.ID, playerID, towerTypeID)
		s.sendErrorLocked(playerID, "Unknown tower type.")
		return
	}

	cost := tpl.LevelData(1).Cost
	if !player.CanAfford(cost) {
		s.sendErrorLocked(playerID, "Not enough gold.")
		s.sendPlayerStateLocked(player)
		return
	}
	if !s.isBuildablePositionLocked(position) {
		s.sendErrorLocked(playerID, "Cannot build at this location.")
		return
	}

	player.SpendGold(cost)
	tower := NewTower(tpl, playerID, position)
	s.towers.Set(tower.InstanceID, tower)

	s.broadcastLocked(Envelope{Type: TypeTowerPlaced, Payload: map[string]any{"tower": tower.view()}})
	s.sendPlayerStateLocked(player)
}

// isBuildablePositionLocked accepts positions inside at least one buildable
// rectangle and no closer than the footprint distance to any existing tower.
func (s *Session) isBuildablePositionLocked(position Position) bool {
	inArea := false
	for _, area := range s.mapData.BuildableArea {
		if area.Contains(position) {
			inArea = true
			break
		}
	}
	if !inArea {
		return false
	}

	for _, t := range s.towers.Values() {
		if distance(t.Position, position) < towerFootprintRadius*2 {
			return false
		}
	}
	return true
}

// UpgradeTower bumps an owned tower one level when the next level exists and
// the owner can pay for it.
func (s *Session) UpgradeTower(playerID, towerInstanceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, _ := s.players.Get(playerID)
	tower, _ := s.towers.Get(towerInstanceID)
	if player == nil || tower == nil {
		s.sendErrorLocked(playerID, "Tower not found.")
		return
	}
	if tower.OwnerID != playerID {
		s.sendErrorLocked(playerID, "You cannot upgrade a tower you do not own.")
		return
	}

	cost := tower.NextUpgradeCost()
	if cost < 0 {
		s.sendErrorLocked(playerID, "Tower is already at its maximum level.")
		return
	}
	if !player.CanAfford(cost) {
		s.sendErrorLocked(playerID, "Not enough gold to upgrade.")
		s.sendPlayerStateLocked(player)
		return
	}

	player.SpendGold(cost)
	tower.Upgrade()
	log.Printf("[%s] tower %s upgraded to level %d", s.ID, tower.InstanceID, tower.Level)

	s.broadcastLocked(Envelope{Type: TypeTowerUpgraded, Payload: map[string]any{"tower": tower.view()}})
	s.sendPlayerStateLocked(player)
}

// SellTower removes an owned tower and refunds a fixed fraction of all gold
// invested in it.
func (s *Session) SellTower(playerID, towerInstanceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, _ := s.players.Get(playerID)
	tower, _ := s.towers.Get(towerInstanceID)
	if player == nil || tower == nil {
		s.sendErrorLocked(playerID, "Tower not found.")
		return
	}
	if tower.OwnerID != playerID {
		s.sendErrorLocked(playerID, "You cannot sell a tower you do not own.")
		return
	}

	player.AddGold(tower.SellValue(towerSellPercentage))
	s.towers.Delete(towerInstanceID)

	s.broadcastLocked(Envelope{Type: TypeTowerSold, Payload: map[string]any{"towerInstanceId": towerInstanceID}})
	s.sendPlayerStateLocked(player)
}

// HandleChatMessage relays a trimmed chat line to every member. Empty and
// oversized messages are dropped silently.
func (s *Session) HandleChatMessage(playerID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sender, _ := s.players.Get(playerID)
	if sender == nil {
		return
	}

	trimmed := strings.TrimSpace(message)
	if len(trimmed) == 0 || len(trimmed) > maxChatLength {
		return
	}

	s.broadcastLocked(Envelope{Type: TypeChatMessageReceived, Payload: map[string]any{
		"fromPlayer": sender.Nick,
		"message":    trimmed,
		"timestamp":  time.Now().UnixMilli(),
	}})
}

// MonsterReachedEnd removes a monster that walked the full path and costs the
// team one life; at zero lives the session ends in defeat.
func (s *Session) MonsterReachedEnd(monsterID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monsterReachedEndLocked(monsterID)
}

func (s *Session) monsterReachedEndLocked(monsterID string) {
	if _, ok := s.monsters.Get(monsterID); !ok {
		return
	}
	s.monsters.Delete(monsterID)

	if s.status == StatusFinished {
		return
	}
	if s.lives > 0 {
		s.lives--
	}
	log.Printf("[%s] a monster reached the gate, %d lives remaining", s.ID, s.lives)

	if s.lives <= 0 {
		s.endGameLocked(ResultDefeat)
	} else {
		s.checkVictoryLocked()
	}
}

// EndGame finishes the session with the given result. Idempotent: only the
// first call has any effect.
func (s *Session) EndGame(result Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endGameLocked(result)
}

func (s *Session) endGameLocked(result Result) {
	if s.status == StatusFinished {
		return
	}
	log.Printf("[%s] game over: %s", s.ID, result)
	s.status = StatusFinished
	s.engine.Stop()

	s.broadcastLocked(Envelope{Type: TypeGameOver, Payload: map[string]any{"reason": result}})
}

// Destroy stops the engine ahead of the session being dropped from the
// directory. Safe against an in-flight tick.
func (s *Session) Destroy() {
	log.Printf("[%s] destroying session", s.ID)
	s.engine.Stop()
}

// CanJoin reports whether a new player may enter: lobby phase with a free
// slot.
func (s *Session) CanJoin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == StatusLobby && len(s.conns) < s.mapData.MaxPlayers
}

// PlayerCount returns the number of live connections.
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Snapshot builds the full client-facing state, used for the join handshake.
func (s *Session) Snapshot() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() GameState {
	state := GameState{
		GameID:          s.ID,
		Status:          s.status,
		Lives:           s.lives,
		Wave:            s.wave,
		Players:         make([]PlayerView, 0, s.players.Len()),
		Towers:          make([]TowerView, 0, s.towers.Len()),
		Monsters:        make([]MonsterView, 0, s.monsters.Len()),
		Projectiles:     make([]ProjectileView, 0, s.projectiles.Len()),
		MapData:         s.mapData,
		TowerPrototypes: s.catalog.TowerPrototypes(),
	}
	for _, p := range s.players.Values() {
		state.Players = append(state.Players, p.view())
	}
	for _, t := range s.towers.Values() {
		state.Towers = append(state.Towers, t.view())
	}
	for _, m := range s.monsters.Values() {
		state.Monsters = append(state.Monsters, m.view())
	}
	for _, p := range s.projectiles.Values() {
		state.Projectiles = append(state.Projectiles, p.view())
	}
	return state
}

// setWaveLocked mirrors the spawner's wave counter into the broadcast state.
func (s *Session) setWaveLocked(wave int) {
	s.wave = wave
}

// fireProjectileLocked creates a shot from the tower toward the monster,
// capturing the tower's damage at fire time.
func (s *Session) fireProjectileLocked(tower *Tower, target *Monster) {
	p := NewProjectile(tower.Position, target.InstanceID, tower.Damage, tower.InstanceID)
	s.projectiles.Set(p.ID, p)
}

// resolveImpactLocked applies a projectile hit: damage to the primary target,
// then the firing tower's splash rules around the impact point. The primary
// target's death is resolved last, after all secondary effects.
func (s *Session) resolveImpactLocked(projectileID string) {
	p, ok := s.projectiles.Get(projectileID)
	if !ok {
		return
	}
	s.projectiles.Delete(projectileID)

	target, ok := s.monsters.Get(p.TargetID)
	if !ok {
		// Already dead, likely from another projectile this tick.
		return
	}
	impact := target.Position

	tower, _ := s.towers.Get(p.TowerInstanceID)
	died := target.TakeDamage(p.Damage)

	if tower != nil {
		lvl := tower.CurrentLevelData()

		// The primary target always receives the tower's effect, even when
		// this hit killed it.
		if lvl.Effect == catalog.EffectSlow {
			target.ApplyEffect(catalog.EffectSlow, lvl.EffectPotency, lvl.EffectDuration)
		}

		splashRadius := lvl.SplashRadius * distanceScale
		if splashRadius > 0 {
			// A splash radius without a secondary effect means area damage
			// (the cannon family).
			areaDamage := lvl.Effect == ""

			for _, otherID := range s.monsters.IDs() {
				if otherID == target.InstanceID {
					continue
				}
				other, ok := s.monsters.Get(otherID)
				if !ok || distance(impact, other.Position) > splashRadius {
					continue
				}
				if areaDamage {
					if other.TakeDamage(p.Damage) {
						s.handleMonsterDeathLocked(other, tower)
					}
				}
				if lvl.Effect == catalog.EffectSlow {
					other.ApplyEffect(catalog.EffectSlow, lvl.EffectPotency, lvl.EffectDuration)
				}
			}
		}
	}

	if died {
		s.handleMonsterDeathLocked(target, tower)
	}
}

// handleMonsterDeathLocked removes a dead monster, pays its bounty to the
// firing tower's owner and re-checks the victory condition. A nil tower
// (sold mid-flight) still kills the monster, just without a payout.
func (s *Session) handleMonsterDeathLocked(monster *Monster, tower *Tower) {
	s.monsters.Delete(monster.InstanceID)

	if tower != nil {
		if owner, ok := s.players.Get(tower.OwnerID); ok {
			owner.AddGold(monster.GoldValue)
			s.sendPlayerStateLocked(owner)
		}
	}

	s.checkVictoryLocked()
}

func (s *Session) checkVictoryLocked() {
	if s.status != StatusInProgress {
		return
	}
	if s.engine.spawner.AllWavesCompleted() && s.monsters.Len() == 0 {
		s.endGameLocked(ResultVictory)
	}
}

// broadcastLocked serializes an envelope and fans it out to every connection.
// Delivery is fire and forget; unreachable members are skipped.
func (s *Session) broadcastLocked(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[%s] broadcast marshal failed: %v", s.ID, err)
		return
	}
	for _, conn := range s.conns {
		conn.Send(data)
	}
}

// broadcastStateLocked ships the full snapshot, called by the engine at the
// end of every tick.
func (s *Session) broadcastStateLocked() {
	s.broadcastLocked(Envelope{Type: TypeGameStateUpdate, Payload: s.snapshotLocked()})
}

func (s *Session) broadcastSystemLocked(message string) {
	s.broadcastLocked(Envelope{Type: TypeSystemMessage, Payload: map[string]any{"message": message}})
}

// sendToLocked delivers one envelope to a single member.
func (s *Session) sendToLocked(playerID string, env Envelope) {
	conn, ok := s.conns[playerID]
	if !ok {
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[%s] send marshal failed: %v", s.ID, err)
		return
	}
	conn.Send(data)
}

func (s *Session) sendErrorLocked(playerID, message string) {
	s.sendToLocked(playerID, Envelope{Type: TypeErrorMessage, Payload: map[string]any{"message": message}})
}

// sendPlayerStateLocked notifies one player of their own gold balance.
func (s *Session) sendPlayerStateLocked(player *Player) {
	s.sendToLocked(player.ID, Envelope{Type: TypePlayerStateUpdate, Payload: map[string]any{
		"playerId": player.ID,
		"gold":     player.Gold,
	}})
}
