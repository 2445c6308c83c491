package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// healthResponse is the read-only view served at /health.
type healthResponse struct {
	Status      string `json:"status"`
	ActiveRooms int    `json:"activeRooms"`
	Timestamp   string `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(healthResponse{
		Status:      "ok",
		ActiveRooms: s.registry.Size(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}
