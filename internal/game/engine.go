/*
Package game
File: engine.go
Description:
    The fixed-rate simulation engine for one session. Every tick advances the
    world in a fixed sub-system order: wave spawning, monster effects, monster
    movement, tower targeting and firing, projectile movement and impacts,
    the victory check, and finally the state broadcast. Later stages depend
    on the outputs of earlier stages within the same tick, so the order is
    load-bearing.

    Each tick runs entirely under the session's mutation gate, so a tick is
    never interleaved with a client command handler.
*/

package game

import (
	"log"
	"math"
	"sync"
	"time"
)

const (
	// tickRate is the simulation frequency in ticks per second.
	tickRate = 30

	// distanceScale converts abstract catalog units (tower range, monster
	// speed, splash radius) to pixels.
	distanceScale = 50.0
)

// Engine drives the tick loop for exactly one session.
type Engine struct {
	session *Session
	spawner *Spawner

	mu       sync.Mutex // Guards running and stop; never held across a tick
	running  bool
	stop     chan struct{}
	lastTick time.Time
}

func newEngine(session *Session, spawner *Spawner) *Engine {
	return &Engine{session: session, spawner: spawner}
}

// Start launches the tick loop and kicks off the first wave. Idempotent.
// Called from StartGame under the session's mutation gate, which also
// serializes the wave start against concurrent commands.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stop = make(chan struct{})
	e.lastTick = time.Now()
	stop := e.stop
	e.mu.Unlock()

	log.Printf("[%s] engine starting", e.session.ID)
	e.spawner.StartNextWave()
	go e.run(stop)
}

// Stop halts the tick loop. Idempotent, and safe to call both from a
// concurrent teardown path and from inside a tick (the defeat path): an
// in-flight tick always runs to completion before the loop exits.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	log.Printf("[%s] engine stopping", e.session.ID)
	e.running = false
	close(e.stop)
}

// Running reports whether the tick loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) run(stop chan struct{}) {
	ticker := time.NewTicker(time.Second / tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.session.mu.Lock()
			now := time.Now()
			delta := now.Sub(e.lastTick).Seconds()
			e.lastTick = now
			e.advance(delta)
			e.session.mu.Unlock()
		}
	}
}

// advance runs one full tick. Requires the session's mutation gate.
func (e *Engine) advance(delta float64) {
	e.spawner.Update(delta)
	e.updateMonsterEffects(delta)
	e.moveMonsters(delta)
	e.towersAttack(delta)
	e.moveProjectiles(delta)
	e.checkVictory()
	e.session.broadcastStateLocked()
}

func (e *Engine) updateMonsterEffects(delta float64) {
	for _, m := range e.session.monsters.Values() {
		m.UpdateEffects(delta)
	}
}

// moveMonsters steps every monster toward its current waypoint. A monster
// whose waypoint pointer ran past the path has reached the defenders' gate
// and is handed to the session, which costs a life.
func (e *Engine) moveMonsters(delta float64) {
	s := e.session
	for _, id := range s.monsters.IDs() {
		m, ok := s.monsters.Get(id)
		if !ok {
			continue
		}

		path := s.mapData.PathByID(m.PathID)
		if path == nil || m.WaypointIndex >= len(path.Waypoints) {
			s.monsterReachedEndLocked(id)
			continue
		}

		waypoint := path.Waypoints[m.WaypointIndex]
		dx := waypoint.X - m.Position.X
		dy := waypoint.Y - m.Position.Y
		dist := math.Hypot(dx, dy)

		travel := m.Speed * distanceScale * delta
		if dist <= travel {
			// Snap to the waypoint and aim for the next one.
			m.Position = waypoint
			m.WaypointIndex++
		} else {
			m.Position.X += dx / dist * travel
			m.Position.Y += dy / dist * travel
		}
	}
}

// towersAttack re-validates each tower's weak target reference, retargets
// when needed, and fires when the cooldown allows. Firing creates a
// projectile; damage is deferred to impact.
func (e *Engine) towersAttack(delta float64) {
	s := e.session

	if s.monsters.Len() == 0 {
		for _, t := range s.towers.Values() {
			t.Update(delta)
			t.ClearTarget()
		}
		return
	}

	for _, id := range s.towers.IDs() {
		t, ok := s.towers.Get(id)
		if !ok {
			continue
		}
		t.Update(delta)

		var target *Monster
		if targetID := t.TargetID(); targetID != "" {
			if m, alive := s.monsters.Get(targetID); alive {
				if distance(t.Position, m.Position) <= t.Range*distanceScale {
					target = m
				}
			}
			if target == nil {
				t.ClearTarget()
			}
		}

		if target == nil {
			target = e.findTargetFor(t)
			if target != nil {
				t.SetTarget(target.InstanceID)
			}
		}

		if target != nil && t.CanAttack() {
			t.Attack()
			s.fireProjectileLocked(t, target)
		}
	}
}

// findTargetFor picks the nearest in-range monster the tower is allowed to
// hit. Ties resolve to the first monster encountered, and the registry
// iterates in insertion order, so the choice is deterministic.
func (e *Engine) findTargetFor(t *Tower) *Monster {
	s := e.session
	tpl := s.catalog.Tower(t.TypeID)
	if tpl == nil {
		return nil
	}

	var best *Monster
	minDist := math.Inf(1)
	maxRange := t.Range * distanceScale

	for _, m := range s.monsters.Values() {
		if tpl.TargetType != "any" && tpl.TargetType != m.Type {
			continue
		}
		d := distance(t.Position, m.Position)
		if d <= maxRange && d < minDist {
			minDist = d
			best = m
		}
	}
	return best
}

// moveProjectiles advances every shot toward its target's live position.
// Orphaned projectiles (target already gone) are discarded without effect;
// impacts are resolved by the session.
func (e *Engine) moveProjectiles(delta float64) {
	s := e.session
	for _, id := range s.projectiles.IDs() {
		p, ok := s.projectiles.Get(id)
		if !ok {
			continue
		}

		target, alive := s.monsters.Get(p.TargetID)
		if !alive {
			s.projectiles.Delete(id)
			continue
		}

		if p.Move(target.Position, delta) {
			s.resolveImpactLocked(id)
		}
	}
}

// checkVictory ends the session in victory once the spawner reports all
// waves completed and no monsters remain alive.
func (e *Engine) checkVictory() {
	s := e.session
	if e.spawner.AllWavesCompleted() && s.monsters.Len() == 0 {
		s.endGameLocked(ResultVictory)
	}
}

func distance(a, b Position) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
