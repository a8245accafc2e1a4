package sim

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/moltyroyale/agent/pkg/logger"
)

// Server exposes the simulated world over the game HTTP API.
type Server struct {
	world  *World
	logger logger.Logger
}

// NewServer creates a game API server over the given world.
func NewServer(world *World) *Server {
	return &Server{
		world:  world,
		logger: logger.Get().Named("simgame"),
	}
}

// Register attaches the game API routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/api/rooms", s.handleRooms)
	mux.HandleFunc("/api/rooms/", s.handleRoomAction)
	mux.HandleFunc("/api/matches/", s.handleMatch)
	mux.HandleFunc("/api/account/balance", s.handleBalance)
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"rooms": s.world.Rooms()})
}

// handleRoomAction serves /api/rooms/{id}/join and /api/rooms/{id}/leave.
func (s *Server) handleRoomAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
	roomID, verb, ok := strings.Cut(rest, "/")
	if !ok || roomID == "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	switch verb {
	case "join":
		matchID, err := s.world.Join(roomID)
		if err != nil {
			s.respond(w, http.StatusConflict, map[string]any{"error": err.Error()})
			return
		}
		s.logger.Info(r.Context(), "agent joined",
			logger.String("room", roomID),
			logger.String("match", matchID),
		)
		s.respond(w, http.StatusOK, map[string]any{"match_id": matchID})
	case "leave":
		s.world.Leave(roomID)
		s.respond(w, http.StatusOK, map[string]any{"status": "ok"})
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// handleMatch serves /api/matches/{id}/state and /api/matches/{id}/action.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/matches/")
	matchID, verb, ok := strings.Cut(rest, "/")
	if !ok || matchID == "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	switch verb {
	case "state":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		snap, err := s.world.State(matchID)
		if err != nil {
			s.respond(w, http.StatusNotFound, map[string]any{"error": err.Error()})
			return
		}
		s.respond(w, http.StatusOK, snap)
	case "action":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var action map[string]any
		if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
			s.respond(w, http.StatusBadRequest, map[string]any{"error": "bad action payload"})
			return
		}
		ack, err := s.world.Act(matchID, action)
		if err != nil {
			s.respond(w, http.StatusNotFound, map[string]any{"error": err.Error()})
			return
		}
		s.respond(w, http.StatusOK, ack)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"balance": s.world.Balance()})
}

func (s *Server) respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
