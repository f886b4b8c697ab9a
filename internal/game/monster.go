/*
Package game
File: monster.go
Description:
    A live monster walking a map path, with timed status effects. Effects are
    keyed by type, so reapplying one refreshes its duration instead of
    stacking. Speed is always derived from the immutable base speed and the
    currently active effects.
*/

package game

import (
	"math"

	"github.com/canyonworks/towerdef-server/internal/catalog"
)

// Position is a map coordinate in pixels.
type Position = catalog.Position

// StatScaling raises monster stats for procedurally generated endless waves.
type StatScaling struct {
	HPMultiplier   float64
	GoldMultiplier float64
}

// activeEffect is one timed status effect on a monster.
type activeEffect struct {
	Potency   float64
	Remaining float64 // Seconds until it expires
}

// Monster is one live monster instance in a session.
type Monster struct {
	InstanceID string
	TypeID     string
	Position   Position
	HP         float64
	MaxHP      float64
	Speed      float64 // Effective speed, recomputed from baseSpeed and effects
	GoldValue  int
	Type       string // "ground" or "air"

	PathID        string
	WaypointIndex int // Monotonic pointer into the path's waypoints

	baseSpeed float64
	effects   map[string]*activeEffect
}

// NewMonster instantiates a monster template at a path portal. A nil scaling
// keeps the template stats unchanged.
func NewMonster(tpl *catalog.MonsterTemplate, pathID string, start Position, scaling *StatScaling) *Monster {
	hpMult, goldMult := 1.0, 1.0
	if scaling != nil {
		hpMult = scaling.HPMultiplier
		goldMult = scaling.GoldMultiplier
	}

	hp := math.Floor(tpl.HP * hpMult)
	return &Monster{
		InstanceID: newInstanceID("monster"),
		TypeID:     tpl.ID,
		Position:   start,
		HP:         hp,
		MaxHP:      hp,
		Speed:      tpl.Speed,
		GoldValue:  int(math.Floor(float64(tpl.GoldValue) * goldMult)),
		Type:       tpl.Type,
		PathID:     pathID,
		baseSpeed:  tpl.Speed,
		effects:    make(map[string]*activeEffect),
	}
}

// ApplyEffect attaches a timed effect. An already-active effect of the same
// type gets its duration refreshed and its potency replaced.
func (m *Monster) ApplyEffect(effectType string, potency, duration float64) {
	m.effects[effectType] = &activeEffect{Potency: potency, Remaining: duration}
	m.recalculateSpeed()
}

// UpdateEffects advances effect timers by delta seconds and expires the ones
// that ran out, recomputing speed when anything changed.
func (m *Monster) UpdateEffects(delta float64) {
	expired := false
	for effectType, eff := range m.effects {
		eff.Remaining -= delta
		if eff.Remaining <= 0 {
			delete(m.effects, effectType)
			expired = true
		}
	}
	if expired {
		m.recalculateSpeed()
	}
}

// HasEffect reports whether an effect of the given type is active.
func (m *Monster) HasEffect(effectType string) bool {
	_, ok := m.effects[effectType]
	return ok
}

func (m *Monster) recalculateSpeed() {
	potency := 0.0
	if slow, ok := m.effects[catalog.EffectSlow]; ok {
		potency = slow.Potency
	}
	m.Speed = m.baseSpeed * (1 - potency)
}

// TakeDamage subtracts hp, clamping at zero, and reports whether the monster
// died from this hit.
func (m *Monster) TakeDamage(amount float64) bool {
	m.HP -= amount
	if m.HP <= 0 {
		m.HP = 0
		return true
	}
	return false
}
