/*
Package catalog
File: load.go
Description:
    Loads the static game data from a single YAML document and validates it.
    A broken data file is fatal at startup: a session can never be created
    against a map or template that does not exist.
*/

package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// gameData mirrors the top-level layout of the YAML data file.
type gameData struct {
	Monsters []*MonsterTemplate `yaml:"monsters"`
	Towers   []*TowerTemplate   `yaml:"towers"`
	Maps     []*MapDef          `yaml:"maps"`
}

// Load reads the game data file, indexes it and validates every cross
// reference. It is called once at startup; the returned catalog is immutable.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read game data: %w", err)
	}

	var data gameData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse game data: %w", err)
	}

	cat := &Catalog{
		monsters: make(map[string]*MonsterTemplate),
		towers:   make(map[string]*TowerTemplate),
		maps:     make(map[string]*MapDef),
	}

	for _, m := range data.Monsters {
		if m.ID == "" {
			return nil, fmt.Errorf("monster template without id")
		}
		if _, dup := cat.monsters[m.ID]; dup {
			return nil, fmt.Errorf("duplicate monster id %q", m.ID)
		}
		cat.monsters[m.ID] = m
		cat.monsterIDs = append(cat.monsterIDs, m.ID)
	}

	for _, t := range data.Towers {
		if t.ID == "" {
			return nil, fmt.Errorf("tower template without id")
		}
		if _, dup := cat.towers[t.ID]; dup {
			return nil, fmt.Errorf("duplicate tower id %q", t.ID)
		}
		cat.towers[t.ID] = t
		cat.towerIDs = append(cat.towerIDs, t.ID)
	}

	for _, m := range data.Maps {
		if m.ID == "" {
			return nil, fmt.Errorf("map definition without id")
		}
		if _, dup := cat.maps[m.ID]; dup {
			return nil, fmt.Errorf("duplicate map id %q", m.ID)
		}
		cat.maps[m.ID] = m
		cat.mapIDs = append(cat.mapIDs, m.ID)
	}

	if err := cat.validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// validate checks every template and map for internal consistency. Everything
// rejected here would otherwise surface mid-game as a broken session.
func (c *Catalog) validate() error {
	if len(c.monsters) == 0 {
		return fmt.Errorf("no monster templates defined")
	}
	if len(c.towers) == 0 {
		return fmt.Errorf("no tower templates defined")
	}
	if len(c.maps) == 0 {
		return fmt.Errorf("no maps defined")
	}

	for _, id := range c.monsterIDs {
		m := c.monsters[id]
		if m.HP <= 0 || m.Speed <= 0 {
			return fmt.Errorf("monster %q: hp and speed must be positive", id)
		}
		if m.Type != MonsterTypeGround && m.Type != MonsterTypeAir {
			return fmt.Errorf("monster %q: unknown type %q", id, m.Type)
		}
	}

	for _, id := range c.towerIDs {
		t := c.towers[id]
		if t.TargetType != MonsterTypeGround && t.TargetType != MonsterTypeAir && t.TargetType != TargetAny {
			return fmt.Errorf("tower %q: unknown target type %q", id, t.TargetType)
		}
		if len(t.Levels) == 0 {
			return fmt.Errorf("tower %q: no levels defined", id)
		}
		for i, lvl := range t.Levels {
			if lvl.Level != i+1 {
				return fmt.Errorf("tower %q: levels must be numbered 1..n, got %d at position %d", id, lvl.Level, i)
			}
			if lvl.Cost <= 0 {
				return fmt.Errorf("tower %q level %d: cost must be positive", id, lvl.Level)
			}
			if lvl.Damage < 0 || lvl.Range <= 0 || lvl.AttackSpeed <= 0 {
				return fmt.Errorf("tower %q level %d: invalid combat stats", id, lvl.Level)
			}
			if lvl.Effect != "" && lvl.Effect != EffectSlow {
				return fmt.Errorf("tower %q level %d: unknown effect %q", id, lvl.Level, lvl.Effect)
			}
			if lvl.Effect == EffectSlow && (lvl.EffectPotency <= 0 || lvl.EffectPotency > 1 || lvl.EffectDuration <= 0) {
				return fmt.Errorf("tower %q level %d: slow effect needs potency in (0,1] and a positive duration", id, lvl.Level)
			}
		}
	}

	for _, id := range c.mapIDs {
		m := c.maps[id]
		if m.MaxPlayers <= 0 || m.InitialLives <= 0 || m.InitialGold <= 0 {
			return fmt.Errorf("map %q: max_players, initial_lives and initial_gold must be positive", id)
		}
		if len(m.Paths) == 0 {
			return fmt.Errorf("map %q: no paths defined", id)
		}
		for _, p := range m.Paths {
			if p.ID == "" {
				return fmt.Errorf("map %q: path without id", id)
			}
			if len(p.Waypoints) == 0 {
				return fmt.Errorf("map %q path %q: no waypoints", id, p.ID)
			}
		}
		if len(m.BuildableArea) == 0 {
			return fmt.Errorf("map %q: no buildable areas", id)
		}
		if len(m.Waves) == 0 {
			return fmt.Errorf("map %q: no waves scheduled", id)
		}
		for _, w := range m.Waves {
			if len(w.Monsters) == 0 {
				return fmt.Errorf("map %q wave %d: no spawn groups", id, w.Wave)
			}
			for _, g := range w.Monsters {
				if c.monsters[g.TypeID] == nil {
					return fmt.Errorf("map %q wave %d: unknown monster type %q", id, w.Wave, g.TypeID)
				}
				if g.Count <= 0 {
					return fmt.Errorf("map %q wave %d: spawn count for %q must be positive", id, w.Wave, g.TypeID)
				}
			}
		}
	}

	return nil
}
