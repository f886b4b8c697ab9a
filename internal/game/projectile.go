/*
Package game
File: projectile.go
Description:
    A projectile in flight from a tower to a monster. Damage is captured at
    fire time, so upgrading the tower after firing does not change in-flight
    shots. The target is a weak reference: when the monster vanishes before
    impact the engine discards the projectile without effect.
*/

package game

import "math"

// projectileSpeed is the flight speed in pixels per second.
const projectileSpeed = 750.0

// Projectile is one shot in flight.
type Projectile struct {
	ID              string
	Position        Position
	TargetID        string
	Damage          float64 // Captured from the firing tower at creation
	TowerInstanceID string  // Looked up at impact for splash and effect rules
}

// NewProjectile spawns a shot at the firing tower's position.
func NewProjectile(start Position, targetID string, damage float64, towerInstanceID string) *Projectile {
	return &Projectile{
		ID:              newInstanceID("proj"),
		Position:        start,
		TargetID:        targetID,
		Damage:          damage,
		TowerInstanceID: towerInstanceID,
	}
}

// Move advances toward the target's live position and reports whether the
// projectile reached it this tick.
func (p *Projectile) Move(target Position, delta float64) bool {
	dx := target.X - p.Position.X
	dy := target.Y - p.Position.Y
	dist := math.Hypot(dx, dy)

	travel := projectileSpeed * delta
	if dist <= travel {
		p.Position = target
		return true
	}
	p.Position.X += dx / dist * travel
	p.Position.Y += dy / dist * travel
	return false
}
