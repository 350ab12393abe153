package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	depths := make(map[string]int, len(s.accounts))
	total := 0
	for _, id := range s.accounts {
		n := s.jobs.QueueDepth(id)
		depths[id] = n
		total += n
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"pending": depths,
		"total":   total,
	})
}

func (s *Server) handleBoardStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "board stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"api_version": s.cfg.MondayAPIVersion,
		"operations":  s.stats.Snapshot(),
	})
}
