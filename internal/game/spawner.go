/*
Package game
File: spawner.go
Description:
    The per-session wave state machine. It alternates between Idle (counting
    up the pause between waves) and Spawning (releasing monsters from one or
    more concurrent spawn groups). Waves with a schedule entry in the map use
    it; wave numbers beyond the schedule synthesize a procedural "endless"
    wave that keeps scaling up.
*/

package game

import (
	"log"
	"math"
	"math/rand"

	"github.com/canyonworks/towerdef-server/internal/catalog"
)

// interWavePause is the idle time between two waves, in seconds.
const interWavePause = 7.0

// spawnGroup releases monsters of one type at a fixed interval. Each group
// accumulates tick time independently and carries any surplus over to the
// next spawn so the release rate never drifts.
type spawnGroup struct {
	monsterTypeID string
	remaining     int
	interval      float64 // Seconds between releases
	accumulated   float64
	scaling       *StatScaling // nil for scheduled waves
}

// Spawner drives monster creation for one session.
type Spawner struct {
	session *Session
	rng     *rand.Rand

	groups      []*spawnGroup
	waveActive  bool
	currentWave int
	pauseTime   float64
}

func newSpawner(session *Session, rng *rand.Rand) *Spawner {
	return &Spawner{session: session, rng: rng}
}

// Update advances the state machine by delta seconds. Called once per engine
// tick under the session's mutation gate.
func (sp *Spawner) Update(delta float64) {
	if sp.waveActive {
		sp.updateSpawning(delta)
		return
	}
	sp.pauseTime += delta
	if sp.pauseTime >= interWavePause {
		sp.pauseTime = 0
		sp.StartNextWave()
	}
}

// StartNextWave advances the wave counter and begins the corresponding wave,
// scheduled or procedural.
func (sp *Spawner) StartNextWave() {
	sp.currentWave++
	sp.session.setWaveLocked(sp.currentWave)

	if wave := sp.session.mapData.WaveData(sp.currentWave); wave != nil {
		sp.setupScheduledWave(wave)
		return
	}
	sp.setupEndlessWave(sp.currentWave)
}

// CurrentWave returns the number of the wave currently spawning or last
// completed.
func (sp *Spawner) CurrentWave() int { return sp.currentWave }

// AllWavesCompleted reports whether every wave so far is fully spawned and
// the scheduled waves are exhausted. It is only meaningful transiently: the
// pause timer will generate another endless wave unless the session ends
// first, so the engine re-evaluates it every tick.
func (sp *Spawner) AllWavesCompleted() bool {
	return !sp.waveActive && sp.currentWave >= len(sp.session.mapData.Waves)
}

func (sp *Spawner) setupScheduledWave(wave *catalog.WaveDef) {
	log.Printf("[%s] starting scheduled wave %d", sp.session.ID, sp.currentWave)
	sp.waveActive = true
	sp.groups = sp.groups[:0]
	for _, info := range wave.Monsters {
		sp.groups = append(sp.groups, &spawnGroup{
			monsterTypeID: info.TypeID,
			remaining:     info.Count,
			interval:      info.Delay,
			accumulated:   info.Delay, // First release happens on the next tick
		})
	}
}

// setupEndlessWave synthesizes a wave past the end of the schedule. Hp and
// gold multipliers grow with the excess wave number, the monster count grows,
// the spawn interval shrinks, and the type mix widens every third wave.
func (sp *Spawner) setupEndlessWave(waveNumber int) {
	log.Printf("[%s] generating endless wave %d", sp.session.ID, waveNumber)
	sp.waveActive = true

	endless := waveNumber - len(sp.session.mapData.Waves)
	scaling := &StatScaling{
		HPMultiplier:   1 + float64(endless)*0.2,
		GoldMultiplier: 1 + float64(endless)*0.1,
	}
	monsterCount := 15 + 2*endless
	interval := math.Max(0.2, 1-float64(endless)*0.05)

	allTypes := sp.session.catalog.MonsterIDs()
	numTypes := int(math.Ceil(float64(endless) / 3))
	if numTypes < 1 {
		numTypes = 1
	}
	if numTypes > len(allTypes) {
		numTypes = len(allTypes)
	}

	types := make([]string, 0, numTypes)
	picked := make(map[string]bool)
	for len(types) < numTypes {
		candidate := allTypes[sp.rng.Intn(len(allTypes))]
		if !picked[candidate] {
			picked[candidate] = true
			types = append(types, candidate)
		}
	}

	perGroup := int(math.Ceil(float64(monsterCount) / float64(len(types))))
	sp.groups = sp.groups[:0]
	for _, typeID := range types {
		sp.groups = append(sp.groups, &spawnGroup{
			monsterTypeID: typeID,
			remaining:     perGroup,
			interval:      interval,
			accumulated:   1,
			scaling:       scaling,
		})
	}
}

func (sp *Spawner) updateSpawning(delta float64) {
	done := true
	for _, group := range sp.groups {
		if group.remaining <= 0 {
			continue
		}
		group.accumulated += delta
		if group.accumulated >= group.interval {
			group.accumulated -= group.interval
			sp.spawnMonster(group.monsterTypeID, group.scaling)
			group.remaining--
		}
		if group.remaining > 0 {
			done = false
		}
	}

	if done {
		sp.waveActive = false
		log.Printf("[%s] wave %d fully spawned", sp.session.ID, sp.currentWave)
	}
}

// spawnMonster releases one monster on a randomly chosen path, starting at
// that path's portal. A missing template is skipped, never fatal.
func (sp *Spawner) spawnMonster(typeID string, scaling *StatScaling) {
	tpl := sp.session.catalog.Monster(typeID)
	if tpl == nil {
		log.Printf("[%s] spawner: unknown monster type %q, skipping", sp.session.ID, typeID)
		return
	}

	paths := sp.session.mapData.Paths
	path := paths[sp.rng.Intn(len(paths))]
	monster := NewMonster(tpl, path.ID, path.Portal, scaling)
	sp.session.monsters.Set(monster.InstanceID, monster)
}
