/*
Package catalog
File: catalog.go
Description:
    Defines the static game data (monster templates, tower templates, map
    definitions) loaded from YAML at startup. This file serves as the "schema"
    for the game content, mapping directly to the YAML data file and to the
    JSON payloads sent to clients.

    The catalog is immutable after Load and may be read concurrently by every
    game session without synchronization.
*/

package catalog

// Position is a coordinate on the game map, in pixels.
type Position struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Monster movement classes. Towers declare which class they can target.
const (
	MonsterTypeGround = "ground"
	MonsterTypeAir    = "air"
)

// TargetAny marks a tower that can attack both ground and air monsters.
const TargetAny = "any"

// EffectSlow is the only secondary effect currently defined.
const EffectSlow = "slow"

// MonsterTemplate describes one monster type. Instances spawned during a wave
// copy these baseline stats, optionally scaled for endless waves.
type MonsterTemplate struct {
	ID        string  `yaml:"id" json:"id"`
	Name      string  `yaml:"name" json:"name"`
	HP        float64 `yaml:"hp" json:"hp"`
	Speed     float64 `yaml:"speed" json:"speed"`          // Abstract units; the engine scales to pixels
	GoldValue int     `yaml:"gold_value" json:"goldValue"` // Reward paid to the killing tower's owner
	Type      string  `yaml:"type" json:"type"`            // "ground" or "air"
}

// TowerLevel holds the stats a tower gains at one upgrade level.
type TowerLevel struct {
	Level       int     `yaml:"level" json:"level"`
	Cost        int     `yaml:"cost" json:"cost"`
	Damage      float64 `yaml:"damage" json:"damage"`
	Range       float64 `yaml:"range" json:"range"`              // Abstract units; the engine scales to pixels
	AttackSpeed float64 `yaml:"attack_speed" json:"attackSpeed"` // Attacks per second

	// Splash configuration. A splash radius with no effect deals area damage
	// (the cannon family); a splash radius with a "slow" effect applies the
	// slow to every monster in the radius instead.
	SplashRadius   float64 `yaml:"splash_radius,omitempty" json:"splashRadius,omitempty"`
	Effect         string  `yaml:"effect,omitempty" json:"effect,omitempty"`
	EffectDuration float64 `yaml:"effect_duration,omitempty" json:"effectDuration,omitempty"` // Seconds
	EffectPotency  float64 `yaml:"effect_potency,omitempty" json:"effectPotency,omitempty"`   // 0..1 speed reduction
}

// TowerTemplate describes one tower type and its upgrade track.
type TowerTemplate struct {
	ID         string        `yaml:"id" json:"id"`
	Name       string        `yaml:"name" json:"name"`
	TargetType string        `yaml:"target_type" json:"targetType"` // "ground", "air" or "any"
	Levels     []*TowerLevel `yaml:"levels" json:"levels"`
}

// LevelData returns the stats for the given level, or nil when the tower has
// no such level.
func (t *TowerTemplate) LevelData(level int) *TowerLevel {
	for _, l := range t.Levels {
		if l.Level == level {
			return l
		}
	}
	return nil
}

// BuildArea is an axis-aligned rectangle where towers may be placed.
type BuildArea struct {
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Contains reports whether the position lies inside the rectangle.
func (a BuildArea) Contains(p Position) bool {
	return p.X >= a.X && p.X <= a.X+a.Width && p.Y >= a.Y && p.Y <= a.Y+a.Height
}

// MapPath is one monster route: a spawn portal followed by waypoints walked in
// order. The last waypoint is the defenders' gate.
type MapPath struct {
	ID        string     `yaml:"id" json:"id"`
	Portal    Position   `yaml:"portal" json:"portal"`
	Waypoints []Position `yaml:"waypoints" json:"waypoints"`
}

// WaveMonsters is one spawn group inside a scheduled wave: a monster type, how
// many to release and the delay between releases.
type WaveMonsters struct {
	TypeID string  `yaml:"type_id" json:"typeId"`
	Count  int     `yaml:"count" json:"count"`
	Delay  float64 `yaml:"delay" json:"delay"` // Seconds between spawns
}

// WaveDef is one scheduled wave. Waves beyond the schedule are generated
// procedurally by the spawner.
type WaveDef struct {
	Wave     int             `yaml:"wave" json:"wave"`
	Monsters []*WaveMonsters `yaml:"monsters" json:"monsters"`
}

// MapDef is a complete playable map.
type MapDef struct {
	ID            string      `yaml:"id" json:"id"`
	Name          string      `yaml:"name" json:"name"`
	MaxPlayers    int         `yaml:"max_players" json:"maxPlayers"`
	InitialLives  int         `yaml:"initial_lives" json:"initialLives"`
	InitialGold   int         `yaml:"initial_gold" json:"initialGold"`
	Waves         []*WaveDef  `yaml:"waves" json:"waves"`
	BuildableArea []BuildArea `yaml:"buildable_area" json:"buildableArea"`
	Paths         []*MapPath  `yaml:"paths" json:"paths"`
}

// WaveData returns the scheduled wave with the given number, or nil when the
// number is beyond the schedule.
func (m *MapDef) WaveData(wave int) *WaveDef {
	for _, w := range m.Waves {
		if w.Wave == wave {
			return w
		}
	}
	return nil
}

// PathByID returns the named path, or nil.
func (m *MapDef) PathByID(id string) *MapPath {
	for _, p := range m.Paths {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Catalog is the full static game data set, keyed for lookup. Slices preserve
// the file order so listings are stable.
type Catalog struct {
	monsters map[string]*MonsterTemplate
	towers   map[string]*TowerTemplate
	maps     map[string]*MapDef

	monsterIDs []string
	towerIDs   []string
	mapIDs     []string
}

// Monster returns the monster template with the given id, or nil.
func (c *Catalog) Monster(id string) *MonsterTemplate { return c.monsters[id] }

// Tower returns the tower template with the given id, or nil.
func (c *Catalog) Tower(id string) *TowerTemplate { return c.towers[id] }

// Map returns the map definition with the given id, or nil.
func (c *Catalog) Map(id string) *MapDef { return c.maps[id] }

// MonsterIDs returns all monster type ids in file order.
func (c *Catalog) MonsterIDs() []string {
	ids := make([]string, len(c.monsterIDs))
	copy(ids, c.monsterIDs)
	return ids
}

// TowerPrototypes returns all tower templates in file order, for the client
// shop and the state snapshot.
func (c *Catalog) TowerPrototypes() []*TowerTemplate {
	out := make([]*TowerTemplate, 0, len(c.towerIDs))
	for _, id := range c.towerIDs {
		out = append(out, c.towers[id])
	}
	return out
}

// Maps returns all map definitions in file order.
func (c *Catalog) Maps() []*MapDef {
	out := make([]*MapDef, 0, len(c.mapIDs))
	for _, id := range c.mapIDs {
		out = append(out, c.maps[id])
	}
	return out
}
