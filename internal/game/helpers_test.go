/*
Package game
File: helpers_test.go
Description: Shared fixtures for the game package tests: the testdata catalog,
a session factory and an in-memory PlayerConn that records every frame it
receives.
*/

package game

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/canyonworks/towerdef-server/internal/catalog"
)

const testMapID = "proving_grounds"

func loadTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load("testdata/gamedata.yaml")
	if err != nil {
		t.Fatalf("loading test catalog: %v", err)
	}
	return cat
}

// recordingConn implements PlayerConn and keeps every frame for inspection.
type recordingConn struct {
	id   string
	nick string

	mu     sync.Mutex
	frames [][]byte
}

func newRecordingConn(id, nick string) *recordingConn {
	return &recordingConn{id: id, nick: nick}
}

func (c *recordingConn) ID() string   { return c.id }
func (c *recordingConn) Nick() string { return c.nick }

func (c *recordingConn) Send(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	frame := make([]byte, len(data))
	copy(frame, data)
	c.frames = append(c.frames, frame)
}

// receivedTypes decodes every recorded frame and returns the message types in
// arrival order.
func (c *recordingConn) receivedTypes(t *testing.T) []string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	types := make([]string, 0, len(c.frames))
	for _, frame := range c.frames {
		var env struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("decoding recorded frame: %v", err)
		}
		types = append(types, env.Type)
	}
	return types
}

func (c *recordingConn) countType(t *testing.T, msgType string) int {
	t.Helper()
	n := 0
	for _, received := range c.receivedTypes(t) {
		if received == msgType {
			n++
		}
	}
	return n
}

func newTestSession(t *testing.T) (*Session, *recordingConn) {
	t.Helper()
	host := newRecordingConn("p1", "alice")
	s, err := NewSession(host, testMapID, loadTestCatalog(t))
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}
	t.Cleanup(func() { s.Destroy() })
	return s, host
}

// addMonster drops a monster of the given type at the lane portal, bypassing
// the spawner. Takes the session's mutation gate so it is safe while the
// engine is ticking.
func addMonster(t *testing.T, s *Session, typeID string) *Monster {
	t.Helper()
	tpl := s.catalog.Monster(typeID)
	if tpl == nil {
		t.Fatalf("unknown test monster type %q", typeID)
	}
	path := s.mapData.PathByID("lane")
	m := NewMonster(tpl, path.ID, path.Portal, nil)

	s.mu.Lock()
	s.monsters.Set(m.InstanceID, m)
	s.mu.Unlock()
	return m
}
