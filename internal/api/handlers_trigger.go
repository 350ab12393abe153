package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dgallion1/tabusync/internal/pipeline"
)

// sendPDFRequest is the action payload the board posts when a user runs the
// integration on a unit item.
type sendPDFRequest struct {
	Payload struct {
		InputFields struct {
			ItemID      json.Number `json:"itemId"`
			PDFColumnID string      `json:"PDFColumnId"`
		} `json:"inputFields"`
	} `json:"payload"`
}

func (s *Server) handleSendPDF(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		jsonError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req sendPDFRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	in := req.Payload.InputFields
	if in.ItemID == "" || in.PDFColumnID == "" {
		jsonError(w, "itemId and PDFColumnId are required", http.StatusBadRequest)
		return
	}
	if sess.ShortLivedToken == "" {
		jsonError(w, "session has no board token", http.StatusUnauthorized)
		return
	}

	job := pipeline.NewJob(sess.AccountID.String(), sess.UserID.String(), in.ItemID.String(), in.PDFColumnID, sess.ShortLivedToken)
	if err := s.jobs.Submit(job); err != nil {
		code := http.StatusServiceUnavailable
		if errors.Is(err, pipeline.ErrQueueFull) {
			code = http.StatusTooManyRequests
		}
		s.log.Warn("job rejected", "account_id", job.AccountID, "item_id", job.ItemID, "error", err)
		jsonError(w, err.Error(), code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
