/*
Package game
File: tower_test.go
Description: Unit tests for tower upgrades, cooldowns and the sell refund.
*/

package game

import (
	"testing"

	"github.com/canyonworks/towerdef-server/internal/catalog"
)

func testTowerTemplate() *catalog.TowerTemplate {
	return &catalog.TowerTemplate{
		ID:         "bolt_tower",
		Name:       "Bolt Tower",
		TargetType: catalog.TargetAny,
		Levels: []*catalog.TowerLevel{
			{Level: 1, Cost: 100, Damage: 10, Range: 2.0, AttackSpeed: 1.0},
			{Level: 2, Cost: 50, Damage: 20, Range: 2.5, AttackSpeed: 1.5},
		},
	}
}

func TestUpgradeAppliesNextLevelStats(t *testing.T) {
	tower := NewTower(testTowerTemplate(), "p1", Position{X: 10, Y: 10})

	if tower.Level != 1 || tower.Damage != 10 || tower.Range != 2.0 {
		t.Fatalf("unexpected level-1 stats: level=%d damage=%v range=%v", tower.Level, tower.Damage, tower.Range)
	}
	if cost := tower.NextUpgradeCost(); cost != 50 {
		t.Fatalf("next upgrade cost = %d, want 50", cost)
	}

	if !tower.Upgrade() {
		t.Fatal("upgrade to level 2 failed")
	}
	if tower.Level != 2 || tower.Damage != 20 || tower.AttackSpeed != 1.5 {
		t.Fatalf("unexpected level-2 stats: level=%d damage=%v attackSpeed=%v", tower.Level, tower.Damage, tower.AttackSpeed)
	}

	// Final level: no further upgrades.
	if cost := tower.NextUpgradeCost(); cost != -1 {
		t.Fatalf("next upgrade cost at max level = %d, want -1", cost)
	}
	if tower.Upgrade() {
		t.Fatal("upgrade past the final level succeeded")
	}
}

func TestSellValueIsFlooredFractionOfInvestedGold(t *testing.T) {
	tower := NewTower(testTowerTemplate(), "p1", Position{})

	// Level 1 only: floor(100 * 0.75) = 75.
	if v := tower.SellValue(0.75); v != 75 {
		t.Fatalf("sell value = %d, want 75", v)
	}

	tower.Upgrade()
	// Invested 150: floor(150 * 0.75) = 112.
	if v := tower.SellValue(0.75); v != 112 {
		t.Fatalf("sell value after upgrade = %d, want 112", v)
	}
}

func TestAttackCooldown(t *testing.T) {
	tower := NewTower(testTowerTemplate(), "p1", Position{})

	if !tower.CanAttack() {
		t.Fatal("fresh tower cannot attack")
	}
	tower.Attack()
	if tower.CanAttack() {
		t.Fatal("tower can attack immediately after firing")
	}

	// Attack speed 1.0 means a one second cooldown.
	tower.Update(0.5)
	if tower.CanAttack() {
		t.Fatal("cooldown elapsed too early")
	}
	tower.Update(0.5)
	if !tower.CanAttack() {
		t.Fatal("cooldown did not elapse after a full second")
	}
}

func TestTargetReference(t *testing.T) {
	tower := NewTower(testTowerTemplate(), "p1", Position{})

	if tower.TargetID() != "" {
		t.Fatal("fresh tower has a target")
	}
	tower.SetTarget("monster_1")
	if tower.TargetID() != "monster_1" {
		t.Fatalf("target = %q, want monster_1", tower.TargetID())
	}
	tower.ClearTarget()
	if tower.TargetID() != "" {
		t.Fatal("target survives ClearTarget")
	}
}
