/*
Package main
File: main.go
Description: Server entry point. Loads the static game data from YAML,
initializes the session directory, and serves the WebSocket endpoint plus the
read-only information API.
*/

package main

import (
	"log"
	"net/http"
	"os"

	"github.com/canyonworks/towerdef-server/internal/catalog"
	"github.com/canyonworks/towerdef-server/internal/game"
)

// Declared at the package level so they are accessible to handlers.go.
var (
	gameCatalog *catalog.Catalog
	sessions    *game.Directory
)

func main() {
	// 1. Load the static game data from YAML
	dataPath := os.Getenv("GAMEDATA_PATH")
	if dataPath == "" {
		dataPath = "data/gamedata.yaml"
	}

	cat, err := catalog.Load(dataPath)
	if err != nil {
		log.Fatalf("Config Fail: %v", err)
	}
	gameCatalog = cat
	log.Printf("Catalog loaded: %d monsters, %d towers, %d maps",
		len(cat.MonsterIDs()), len(cat.TowerPrototypes()), len(cat.Maps()))

	// 2. Initialize the session directory
	sessions = game.NewDirectory(gameCatalog)

	// 3. Start the server
	port := os.Getenv("PORT")
	if port == "" {
		port = ":3001"
	}
	log.Printf("TOWERDEF Server live on %s", port)

	if err := http.ListenAndServe(port, corsMiddleware(newRouter())); err != nil {
		log.Fatal(err)
	}
}

// newRouter wires the HTTP surface. Split out of main so tests can mount it
// on an httptest server.
func newRouter() *http.ServeMux {
	mux := http.NewServeMux()

	// Information Endpoints
	mux.HandleFunc("/", handleRoot)
	mux.HandleFunc("/api/maps", handleGetMaps)
	mux.HandleFunc("/api/towers", handleGetTowers)

	// Real-Time WebSocket Endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(sessions, w, r)
	})

	return mux
}

// corsMiddleware lets the browser client talk to the server across domains.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
