package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/khushisaxena01/boomkart/internal/network"
)

// DebugHandler предоставляет доступ к состоянию реестра
type DebugHandler struct {
	Registry *network.Registry
}

func NewDebugHandler(reg *network.Registry) *DebugHandler {
	return &DebugHandler{Registry: reg}
}

// RegisterRoutes регистрирует debug-эндпоинты
func (h *DebugHandler) RegisterRoutes(r chi.Router) {
	r.Get("/debug/peers", h.handlePeers)
	r.Get("/debug/peers/{id}", h.handlePeer)
	r.Get("/debug/stats", h.handleStats)
}

// /debug/peers - все зарегистрированные пиры
func (h *DebugHandler) handlePeers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Registry.Snapshot())
}

// /debug/peers/{id} - один пир
func (h *DebugHandler) handlePeer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, p := range h.Registry.Snapshot() {
		if p.ID == id {
			writeJSON(w, p)
			return
		}
	}
	http.Error(w, "Peer not found", http.StatusNotFound)
}

func (h *DebugHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]int{
		"peers": h.Registry.PeerCount(),
		"links": h.Registry.LinkCount(),
	})
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	// Пустой список - [], а не null
	if data == nil {
		w.Write([]byte("[]"))
		return
	}

	json.NewEncoder(w).Encode(data)
}
