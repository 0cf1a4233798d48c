// Package server exposes the orchestrator over HTTP: session lifecycle
// as plain JSON endpoints and event streams over WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/bots"
	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/game"
	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/models"
)

// Server routes HTTP traffic to the session manager.
type Server struct {
	manager *game.Manager
	mux     *http.ServeMux
}

// New builds the routing table around the manager.
func New(manager *game.Manager) *Server {
	s := &Server{manager: manager, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /sessions", s.handleListSessions)
	s.mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)
	s.mux.HandleFunc("POST /sessions/{id}/actions", s.handleSubmitAction)
	s.mux.HandleFunc("GET /sessions/{id}/events", s.handleStreamEvents)
	s.mux.HandleFunc("GET /sessions/{id}/replay", s.handleReplay)
	s.mux.HandleFunc("GET /players", s.handleListPlayers)
	s.mux.HandleFunc("GET /bots", s.handleListBots)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("response write failed")
	}
}

// writeError maps the game package's error taxonomy onto status codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		verr *game.ValidationError
		merr *game.ActionMismatchError
		ierr *game.InitializationError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, game.ErrSessionNotFound), errors.Is(err, game.ErrPlayerNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &merr):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &ierr):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed session id"})
		return uuid.Nil, false
	}
	return id, true
}

type createSessionRequest struct {
	Player1   models.PlayerConfig `json:"player1"`
	Player2   models.PlayerConfig `json:"player2"`
	Visualize bool                `json:"visualize"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	id, err := s.manager.CreateSession(r.Context(), req.Player1, req.Player2, req.Visualize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: id.String()})
}

type sessionSummary struct {
	SessionID string   `json:"session_id"`
	Players   []string `json:"players"`
	Turn      int      `json:"turn"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids := s.manager.ListActive()
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	out := make([]sessionSummary, 0, len(ids))
	for _, id := range ids {
		sess, err := s.manager.GetSession(id)
		if err != nil {
			continue // finished between list and fetch
		}
		out = append(out, sessionSummary{
			SessionID: id.String(),
			Players:   []string{sess.Proxies[0].PlayerID(), sess.Proxies[1].PlayerID()},
			Turn:      sess.Turn(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	s.manager.CleanupSession(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmitAction(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var sub models.ActionSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	if err := s.manager.SubmitAction(id, sub.PlayerID, sub.Turn, sub.Action); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	sess, err := s.manager.GetSession(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.EventLog())
}

// handleStreamEvents upgrades to WebSocket and forwards the session's
// event stream: full replay first, then live updates until the session
// ends or the client leaves.
func (s *Server) handleStreamEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	sess, err := s.manager.GetSession(id)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream aborted")

	sub := sess.Subscribe()
	defer sub.Close()

	// The client sends nothing; CloseRead surfaces a disconnect as
	// context cancellation.
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-sub.Events():
			if !open {
				conn.Close(websocket.StatusNormalClosure, "session ended")
				return
			}
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				log.WithError(err).WithField("session", id).Debug("event stream write failed")
				return
			}
		}
	}
}

type playersResponse struct {
	Players []models.Player `json:"players"`
}

func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.manager.ListPlayers(r.Context())
	if err != nil {
		log.WithError(err).Error("player listing failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "player listing failed"})
		return
	}
	writeJSON(w, http.StatusOK, playersResponse{Players: players})
}

type botsResponse struct {
	Bots []string `json:"bots"`
}

func (s *Server) handleListBots(w http.ResponseWriter, r *http.Request) {
	ids := bots.IDs()
	sort.Strings(ids)
	writeJSON(w, http.StatusOK, botsResponse{Bots: ids})
}

// ListenAndServe runs the HTTP server until the context is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.WithField("addr", addr).Info("http server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
