package web

import (
	"encoding/json"
	"net/http"
)

type sightingRequest struct {
	TagID      string `json:"tag_id"`
	ReceiverID string `json:"receiver_id"`
	RSSI       *int   `json:"rssi"`
}

type sightingResponse struct {
	Processed      bool   `json:"processed"`
	Reason         string `json:"reason,omitempty"`
	StateChanged   bool   `json:"state_changed"`
	State          string `json:"state,omitempty"`
	ShouldCheckIn  bool   `json:"check_in"`
	ShouldCheckOut bool   `json:"check_out"`
}

type tagView struct {
	TagID        string  `json:"tag_id"`
	Identity     string  `json:"identity"`
	State        string  `json:"state"`
	LastStrength int     `json:"last_strength"`
	LastReceiver string  `json:"last_receiver,omitempty"`
	LastSeen     string  `json:"last_seen,omitempty"`
	Stale        bool    `json:"stale"`
	Certainty    float64 `json:"certainty"`
}

type tagListResponse struct {
	Tags []tagView `json:"tags"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
