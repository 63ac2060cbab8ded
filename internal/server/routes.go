package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"parques-server/internal/database"
	"parques-server/internal/parques"
)

const (
	commandTimeout   = 5 * time.Second
	adminTokenHeader = "X-Admin-Token"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.HelloWorldHandler).Methods(http.MethodGet)
	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/rooms", s.roomsHandler).Methods(http.MethodGet)
	r.HandleFunc("/results", s.resultsHandler).Methods(http.MethodGet)
	r.HandleFunc("/admin/restart", s.restartHandler).Methods(http.MethodPost)
	r.HandleFunc("/websocket", s.websocketHandler)

	// Wrap the router so preflight requests never reach method matching
	return s.corsMiddleware(r)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, "+adminTokenHeader)
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	resp, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(resp); err != nil {
		log.Info().Err(err).Msg("Failed to write response")
	}
}

func (s *Server) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello World"})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := s.hub.Stats()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		Rooms:       stats.Rooms,
		Sessions:    stats.Sessions,
		Connections: s.connectionManager.Count(),
		Lobby:       stats.Lobby,
		Database:    s.db.Health(r.Context()),
	})
}

func (s *Server) roomsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RoomsListResponse{Rooms: s.hub.LobbyRooms(r.Context())})
}

func (s *Server) resultsHandler(w http.ResponseWriter, r *http.Request) {
	limit := database.DefaultResultsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			writeJSON(w, http.StatusBadRequest, ErrorMessage{Code: "INVALID_LIMIT", Message: "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	results, err := s.db.RecentResults(r.Context(), limit)
	if errors.Is(err, database.ErrUnavailable) {
		writeJSON(w, http.StatusServiceUnavailable, ErrorMessage{Code: parques.Reason(err), Message: err.Error()})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to list results")
		writeJSON(w, http.StatusInternalServerError, ErrorMessage{Code: "INTERNAL", Message: "failed to list results"})
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) restartHandler(w http.ResponseWriter, r *http.Request) {
	if s.cfg.AdminToken == "" {
		http.NotFound(w, r)
		return
	}
	token := r.Header.Get(adminTokenHeader)
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AdminToken)) != 1 {
		writeJSON(w, http.StatusUnauthorized, ErrorMessage{Code: "UNAUTHORIZED", Message: "invalid admin token"})
		return
	}
	writeJSON(w, http.StatusAccepted, RestartResponse{Notified: s.hub.Restart()})
}

func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	socket, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.AllowedOrigins,
	})
	if err != nil {
		log.Info().Err(err).Msg("Failed to open websocket")
		return
	}
	defer socket.Close(websocket.StatusGoingAway, "Server closing")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	connectionID := uuid.New().String()
	client := NewClient(connectionID, socket)
	s.connectionManager.AddClient(client)
	go client.writePump(ctx)
	log.Info().Str("conn", connectionID).Msg("New connection")

	defer func() {
		client.Close()
		s.rateLimiter.RemoveConnection(connectionID)
		playerID := s.connectionManager.RemoveClient(connectionID)
		log.Info().Str("conn", connectionID).Int("player", playerID).Msg("Connection closed")

		if playerID != 0 {
			dctx, dcancel := context.WithTimeout(context.Background(), commandTimeout)
			s.hub.Disconnect(dctx, playerID)
			dcancel()
		}
	}()

	for {
		msgType, data, err := socket.Read(ctx)
		if err != nil {
			log.Info().Str("conn", connectionID).Err(err).Msg("Read ended")
			return
		}

		if msgType != websocket.MessageText {
			log.Debug().Str("conn", connectionID).Msg("Non-text input")
			continue
		}

		if !s.rateLimiter.Allow(connectionID) {
			s.sendError(client, ErrRateLimited)
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug().Str("conn", connectionID).Err(err).Msg("Invalid JSON")
			s.sendError(client, ErrInvalidMessage)
			continue
		}

		if err := s.dispatch(ctx, client, msg); err != nil {
			log.Debug().Str("conn", connectionID).Str("event", msg.Type).Err(err).Msg("Command rejected")
			s.sendError(client, err)
		}
	}
}

// dispatch routes one message. A returned error is sent back to the caller
// as an error event; handlers that reply with their own failure shape return
// nil.
func (s *Server) dispatch(ctx context.Context, client *Client, msg ClientMessage) error {
	if err := ValidateMessageType(msg.Type); err != nil {
		return err
	}

	playerID := s.connectionManager.PlayerOf(client.ID)
	if playerID == 0 && RequiresLogin(msg.Type) {
		return ErrNotLoggedIn
	}
	if playerID != 0 {
		s.sessionManager.Touch(playerID, time.Now())
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	switch msg.Type {
	case EventPing:
		client.Send(ServerMessage{Type: EventPong, Payload: struct{}{}})
		return nil

	case EventCheckUsername:
		return s.handleCheckUsername(client, msg.Payload)

	case EventLogIn:
		return s.handleLogin(ctx, client, playerID, msg.Payload)

	case EventLogOut:
		if err := s.hub.Logout(ctx, playerID); err != nil {
			return err
		}
		s.connectionManager.Unbind(client.ID)
		return nil

	case EventCreateRoom:
		return s.hub.CreateRoom(ctx, playerID)

	case EventNewRoomsList:
		return s.hub.ListRooms(ctx, playerID)

	case EventSubscribeRoomChanges:
		return s.hub.SubscribeLobby(playerID)

	case EventJoinRoom:
		var req RoomRequest
		if err := decode(msg.Payload, &req); err != nil {
			return err
		}
		if err := s.hub.JoinRoom(ctx, playerID, req.RoomID); err != nil {
			log.Debug().Int("player", playerID).Int("room", req.RoomID).Err(err).Msg("Join refused")
		}
		return nil

	case EventUpdateRoomName:
		var req UpdateRoomNameRequest
		if err := decode(msg.Payload, &req); err != nil {
			return err
		}
		return s.hub.RenameRoom(ctx, playerID, req.ID, req.Name)

	case EventResizeBoard:
		var req ResizeBoardRequest
		if err := decode(msg.Payload, &req); err != nil {
			return err
		}
		return s.hub.ResizeBoard(ctx, playerID, req.RoomID, req.Width, req.Height)

	case EventMovePiece:
		var req MovePieceRequest
		if err := decode(msg.Payload, &req); err != nil {
			return err
		}
		return s.hub.MovePiece(ctx, playerID, req.RoomID, req.Token, req.Amount)
	}

	// The remaining events only name a room
	var req RoomRequest
	if err := decode(msg.Payload, &req); err != nil {
		return err
	}
	switch msg.Type {
	case EventLeaveRoom:
		return s.hub.LeaveRoom(ctx, playerID, req.RoomID)
	case EventStartGame:
		return s.hub.StartGame(ctx, playerID, req.RoomID)
	case EventLaunchDice:
		return s.hub.LaunchDice(ctx, playerID, req.RoomID)
	case EventDiceAnimationComplete:
		return s.hub.DiceAnimationComplete(ctx, playerID, req.RoomID)
	case EventMoveAnimationComplete:
		return s.hub.MoveAnimationComplete(ctx, playerID, req.RoomID)
	case EventRequestSnapshot:
		return s.hub.Snapshot(ctx, playerID, req.RoomID)
	}
	return fmt.Errorf("%w '%s'", ErrInvalidMessageType, msg.Type)
}

func decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return ErrInvalidMessage
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return ErrInvalidMessage
	}
	return nil
}

func (s *Server) handleCheckUsername(client *Client, payload json.RawMessage) error {
	var req CheckUsernameRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	client.Send(ServerMessage{
		Type:    EventCheckUsername,
		Payload: CheckUsernameResponse{Used: s.hub.CheckUsername(req.Name)},
	})
	return nil
}

func (s *Server) handleLogin(ctx context.Context, client *Client, current int, payload json.RawMessage) error {
	var req LoginRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	if current != 0 && req.ID != current {
		return ErrAlreadyLoggedIn
	}

	resp, err := s.hub.Login(ctx, req.ID, req.Name)
	if err != nil {
		return err
	}

	if previous := s.connectionManager.Bind(client.ID, resp.Player.ID); previous != nil {
		previous.Send(ServerMessage{Type: EventLogOut, Payload: LogoutResponse{ID: resp.Player.ID}})
		log.Info().Int("player", resp.Player.ID).Str("conn", previous.ID).Msg("Session moved to a new connection")
	}
	client.Send(ServerMessage{Type: EventLogIn, Payload: resp})
	return nil
}

func (s *Server) sendError(client *Client, err error) {
	client.Send(ServerMessage{
		Type: EventError,
		Payload: ErrorMessage{
			Code:    parques.Reason(err),
			Message: err.Error(),
		},
	})
}
