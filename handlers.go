/*
Package main
File: handlers.go
Description: HTTP handlers for the read-only information API. Everything
served here comes from the validated catalog, so the handlers never touch a
session's mutation gate.
*/

package main

import (
	"encoding/json"
	"net/http"
)

func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"name":   "towerdef-server",
		"status": "ok",
	})
}

func handleGetMaps(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(gameCatalog.Maps())
}

func handleGetTowers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(gameCatalog.TowerPrototypes())
}
