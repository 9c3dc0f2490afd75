// Package web provides the HTTP surface of the presenced daemon: the
// sighting ingestion endpoint, tag views, and the status dashboard.
package web

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/sweeney/presence-engine/internal/logic"
	"github.com/sweeney/presence-engine/internal/pipeline"
	"github.com/sweeney/presence-engine/internal/status"
)

// Server serves the ingestion API and status pages over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	pipeline   *pipeline.Pipeline
	certainty  logic.CertaintyConstants
	now        func() time.Time
}

// New creates a Server backed by the given pipeline and tracker.
func New(addr string, tracker *status.Tracker, pl *pipeline.Pipeline, cc logic.CertaintyConstants) *Server {
	s := &Server{
		tracker:   tracker,
		pipeline:  pl,
		certainty: cc,
		now:       time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sightings", s.handleSighting)
	mux.HandleFunc("GET /api/tags", s.handleTags)
	mux.HandleFunc("GET /api/tags/{id}", s.handleTag)
	mux.HandleFunc("GET /index.json", s.handleJSON)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /index.html", s.handleIndex)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleSighting(w http.ResponseWriter, r *http.Request) {
	var req sightingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.TagID == "" || req.ReceiverID == "" || req.RSSI == nil {
		writeError(w, http.StatusBadRequest, "tag_id, receiver_id and rssi are required")
		return
	}

	res, err := s.pipeline.Ingest(req.TagID, req.ReceiverID, *req.RSSI)
	if err != nil {
		log.Printf("web: ingest %s: %v", req.TagID, err)
		writeError(w, http.StatusInternalServerError, "sighting could not be processed")
		return
	}

	code := http.StatusOK
	if !res.Processed {
		code = http.StatusNotFound
	}
	writeJSON(w, code, sightingResponse{
		Processed:      res.Processed,
		Reason:         res.Reason,
		StateChanged:   res.StateChanged,
		State:          string(res.NewState),
		ShouldCheckIn:  res.ShouldCheckIn,
		ShouldCheckOut: res.ShouldCheckOut,
	})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	snaps := s.pipeline.Registry().Snapshot(now)
	views := make([]tagView, 0, len(snaps))
	for _, snap := range snaps {
		views = append(views, s.viewOf(snap, now))
	}
	writeJSON(w, http.StatusOK, tagListResponse{Tags: views})
}

func (s *Server) handleTag(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	snap, ok := s.pipeline.Registry().Get(r.PathValue("id"), now)
	if !ok {
		writeError(w, http.StatusNotFound, "tag not tracked")
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(snap, now))
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	snaps := s.pipeline.Registry().Snapshot(now)
	views := make([]tagView, 0, len(snaps))
	for _, snap := range snaps {
		views = append(views, s.viewOf(snap, now))
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, s.tracker.Snapshot(), views)
}

func (s *Server) viewOf(snap pipeline.TagSnapshot, now time.Time) tagView {
	v := tagView{
		TagID:        snap.ID,
		Identity:     snap.Identity,
		State:        string(snap.State),
		LastStrength: snap.LastStrength,
		LastReceiver: snap.LastReceiver,
		Stale:        snap.Stale,
	}
	if !snap.LastSeen.IsZero() {
		v.LastSeen = snap.LastSeen.UTC().Format(time.RFC3339)
		v.Certainty = logic.Certainty(snap.LastStrength, snap.LastSeen, now, s.certainty)
	}
	return v
}
