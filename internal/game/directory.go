/*
Package game
File: directory.go
Description:
    The registry of active sessions. Constructed once at startup and injected
    wherever sessions are created or looked up; sessions are removed here when
    their last player disconnects.
*/

package game

import (
	"log"
	"sync"

	"github.com/canyonworks/towerdef-server/internal/catalog"
)

// Directory tracks every active session by id.
type Directory struct {
	catalog *catalog.Catalog

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewDirectory creates an empty session directory backed by the loaded
// catalog.
func NewDirectory(cat *catalog.Catalog) *Directory {
	return &Directory{
		catalog:  cat,
		sessions: make(map[string]*Session),
	}
}

// CreateSession opens a new session hosted by the given connection. An
// unknown map is an error: the catalog was validated at startup, so this only
// trips on a bad client request.
func (d *Directory) CreateSession(host PlayerConn, mapID string) (*Session, error) {
	session, err := NewSession(host, mapID, d.catalog)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.sessions[session.ID] = session
	count := len(d.sessions)
	d.mu.Unlock()

	log.Printf("[directory] session %s created, %d active", session.ID, count)
	return session, nil
}

// FindSession returns the session with the given id, or nil.
func (d *Directory) FindSession(id string) *Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sessions[id]
}

// JoinSession adds a player to an existing joinable session. Returns nil when
// the session does not exist or cannot be joined.
func (d *Directory) JoinSession(id string, conn PlayerConn) *Session {
	session := d.FindSession(id)
	if session == nil || !session.CanJoin() {
		log.Printf("[directory] join to %q refused: not found or not joinable", id)
		return nil
	}
	session.AddPlayer(conn)
	return session
}

// RemoveSession tears a session down and forgets it. Safe to call for ids
// that are already gone.
func (d *Directory) RemoveSession(id string) {
	d.mu.Lock()
	session, ok := d.sessions[id]
	if ok {
		delete(d.sessions, id)
	}
	count := len(d.sessions)
	d.mu.Unlock()

	if !ok {
		return
	}
	session.Destroy()
	log.Printf("[directory] session %s removed, %d active", id, count)
}
