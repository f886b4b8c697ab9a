/*
Package game
File: tower.go
Description:
    A placed tower. Its position is fixed at creation; its combat stats are
    derived from the catalog template for the current level and recomputed on
    every upgrade. The target is a weak reference (a monster instance id) that
    the engine re-validates every tick. Towers never die; they leave the game
    only when sold.
*/

package game

import (
	"math"

	"github.com/canyonworks/towerdef-server/internal/catalog"
)

// Tower is one placed tower instance in a session.
type Tower struct {
	InstanceID string
	TypeID     string
	OwnerID    string
	Position   Position
	Level      int

	// Current stats, derived from the template for Level.
	Damage      float64
	Range       float64
	AttackSpeed float64

	template       *catalog.TowerTemplate
	attackCooldown float64 // Seconds until the next shot is allowed
	targetID       string  // Weak reference, "" when no target
	investedGold   int     // Sum of every level cost paid, feeds the sell value
}

// NewTower places a level-1 tower for the given owner. The level-1 cost is
// counted as invested gold; the caller debits the player.
func NewTower(tpl *catalog.TowerTemplate, ownerID string, position Position) *Tower {
	lvl := tpl.LevelData(1)

	t := &Tower{
		InstanceID:   newInstanceID("tower"),
		TypeID:       tpl.ID,
		OwnerID:      ownerID,
		Position:     position,
		Level:        1,
		template:     tpl,
		investedGold: lvl.Cost,
	}
	t.applyLevel(lvl)
	return t
}

func (t *Tower) applyLevel(lvl *catalog.TowerLevel) {
	t.Damage = lvl.Damage
	t.Range = lvl.Range
	t.AttackSpeed = lvl.AttackSpeed
}

// Update advances the attack cooldown, called once per tick.
func (t *Tower) Update(delta float64) {
	if t.attackCooldown > 0 {
		t.attackCooldown -= delta
	}
}

// CanAttack reports whether the cooldown has elapsed.
func (t *Tower) CanAttack() bool {
	return t.attackCooldown <= 0
}

// Attack resets the cooldown after firing.
func (t *Tower) Attack() {
	t.attackCooldown = 1 / t.AttackSpeed
}

// TargetID returns the current weak target reference, "" when none.
func (t *Tower) TargetID() string { return t.targetID }

// SetTarget stores a new weak target reference.
func (t *Tower) SetTarget(monsterID string) { t.targetID = monsterID }

// ClearTarget drops the current target.
func (t *Tower) ClearTarget() { t.targetID = "" }

// NextUpgradeCost returns the cost of the next level, or -1 when the tower is
// already at its final level.
func (t *Tower) NextUpgradeCost() int {
	next := t.template.LevelData(t.Level + 1)
	if next == nil {
		return -1
	}
	return next.Cost
}

// Upgrade bumps the tower one level, recomputing stats and accumulating the
// invested gold. It reports whether a next level existed.
func (t *Tower) Upgrade() bool {
	next := t.template.LevelData(t.Level + 1)
	if next == nil {
		return false
	}
	t.Level = next.Level
	t.applyLevel(next)
	t.investedGold += next.Cost
	return true
}

// CurrentLevelData returns the catalog stats for the tower's current level.
func (t *Tower) CurrentLevelData() *catalog.TowerLevel {
	return t.template.LevelData(t.Level)
}

// SellValue returns the gold refunded when selling: the given fraction of all
// gold ever invested, floored.
func (t *Tower) SellValue(percentage float64) int {
	return int(math.Floor(float64(t.investedGold) * percentage))
}
