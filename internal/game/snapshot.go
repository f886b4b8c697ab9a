/*
Package game
File: snapshot.go
Description:
    The server->client message vocabulary and the serializable world-state
    snapshot. Entities expose their public fields only: cooldowns, target
    references and invested gold never leave the server.
*/

package game

import "github.com/canyonworks/towerdef-server/internal/catalog"

// Envelope is the JSON frame for all real-time communication, in both
// directions: a closed message type plus its payload.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Server->client message types.
const (
	TypeGameJoined          = "game_joined"
	TypeGameStateUpdate     = "game_state_update"
	TypeGameStarted         = "game_started"
	TypeGameOver            = "game_over"
	TypeSystemMessage       = "system_message"
	TypeTowerPlaced         = "tower_placed"
	TypeTowerUpgraded       = "tower_upgraded"
	TypeTowerSold           = "tower_sold"
	TypePlayerStateUpdate   = "player_state_update"
	TypeChatMessageReceived = "chat_message_received"
	TypeErrorMessage        = "error_message"
)

// Session status values. The status only ever moves forward:
// lobby -> in_progress -> finished.
type Status string

const (
	StatusLobby      Status = "lobby"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// Result is the reason a session ended.
type Result string

const (
	ResultVictory Result = "victory"
	ResultDefeat  Result = "defeat"
)

// PlayerView is the client-visible slice of a player.
type PlayerView struct {
	ID   string `json:"id"`
	Nick string `json:"nick"`
	Gold int    `json:"gold"`
}

// TowerView is the client-visible slice of a tower.
type TowerView struct {
	InstanceID string   `json:"instanceId"`
	TypeID     string   `json:"typeId"`
	OwnerID    string   `json:"ownerId"`
	Position   Position `json:"position"`
	Level      int      `json:"level"`
}

// MonsterView is the client-visible slice of a monster.
type MonsterView struct {
	InstanceID string   `json:"instanceId"`
	TypeID     string   `json:"typeId"`
	Position   Position `json:"position"`
	HP         float64  `json:"hp"`
	MaxHP      float64  `json:"maxHp"`
}

// ProjectileView is the client-visible slice of a projectile.
type ProjectileView struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
	TargetID string   `json:"targetId"`
}

// GameState is the full snapshot broadcast on every tick and on join.
type GameState struct {
	GameID          string                   `json:"gameId"`
	Status          Status                   `json:"status"`
	Lives           int                      `json:"lives"`
	Wave            int                      `json:"wave"`
	Players         []PlayerView             `json:"players"`
	Towers          []TowerView              `json:"towers"`
	Monsters        []MonsterView            `json:"monsters"`
	Projectiles     []ProjectileView         `json:"projectiles"`
	MapData         *catalog.MapDef          `json:"mapData"`
	TowerPrototypes []*catalog.TowerTemplate `json:"towerPrototypes"`
}

// GameJoined is the payload confirming session membership.
type GameJoined struct {
	GameState GameState `json:"gameState"`
	PlayerID  string    `json:"playerId"`
	IsHost    bool      `json:"isHost"`
}

func (p *Player) view() PlayerView {
	return PlayerView{ID: p.ID, Nick: p.Nick, Gold: p.Gold}
}

func (t *Tower) view() TowerView {
	return TowerView{
		InstanceID: t.InstanceID,
		TypeID:     t.TypeID,
		OwnerID:    t.OwnerID,
		Position:   t.Position,
		Level:      t.Level,
	}
}

func (m *Monster) view() MonsterView {
	return MonsterView{
		InstanceID: m.InstanceID,
		TypeID:     m.TypeID,
		Position:   m.Position,
		HP:         m.HP,
		MaxHP:      m.MaxHP,
	}
}

func (p *Projectile) view() ProjectileView {
	return ProjectileView{ID: p.ID, Position: p.Position, TargetID: p.TargetID}
}
