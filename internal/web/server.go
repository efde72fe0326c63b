// Package web provides a read-only HTTP status server for the sprinkler daemon.
package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sweeney/sprinkler/internal/status"
)

// Server serves controller status over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
}

// New creates a Server that reads state from the given tracker.
func New(addr string, tracker *status.Tracker) *Server {
	s := &Server{tracker: tracker}
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/index.html", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/index.json", s.handleJSON).Methods(http.MethodGet)
	r.HandleFunc("/stations", s.handleStations).Methods(http.MethodGet)
	r.HandleFunc("/stations/{sid:[0-9]+}", s.handleStation).Methods(http.MethodGet)
	return r
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

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"stations": status.StationsJSON(s.tracker.Snapshot()),
	})
}

func (s *Server) handleStation(w http.ResponseWriter, r *http.Request) {
	sid, err := strconv.Atoi(mux.Vars(r)["sid"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid station id"})
		return
	}
	for _, st := range status.StationsJSON(s.tracker.Snapshot()) {
		if st.SID == sid {
			writeJSON(w, http.StatusOK, map[string]any{"station": st})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown station"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
