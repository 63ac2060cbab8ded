package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"parques-server/internal/database"
	"parques-server/internal/game"
	"parques-server/internal/parques"
)

const archiveTimeout = 5 * time.Second

// Hub is the room registry and broadcast hub. Its lock guards only the room
// map and the lobby set; it is never held while a room worker runs a job.
type Hub struct {
	rooms map[int]*roomWorker
	lobby map[int]bool // subscribed player ids
	mu    sync.RWMutex

	sessions *SessionManager
	notifier Notifier
	archive  database.Service

	board       parques.Board
	newRoller   func() game.Roller
	idleTimeout time.Duration
	now         func() time.Time

	archiving sync.WaitGroup
}

type HubOption func(*Hub)

func WithBoardSize(width, height float64) HubOption {
	return func(h *Hub) { h.board = parques.NewBoard(width, height).WithRotation(h.board.Rotation) }
}

// WithBoardRotation sets the baseline angle, in radians, every new room's
// board starts from.
func WithBoardRotation(angle float64) HubOption {
	return func(h *Hub) { h.board = h.board.WithRotation(angle) }
}

// WithRollerFactory sets how each new room gets its dice.
func WithRollerFactory(fn func() game.Roller) HubOption {
	return func(h *Hub) { h.newRoller = fn }
}

func WithIdleTimeout(d time.Duration) HubOption {
	return func(h *Hub) { h.idleTimeout = d }
}

func WithHubClock(now func() time.Time) HubOption {
	return func(h *Hub) { h.now = now }
}

func NewHub(sessions *SessionManager, notifier Notifier, archive database.Service, opts ...HubOption) *Hub {
	h := &Hub{
		rooms:       make(map[int]*roomWorker),
		lobby:       make(map[int]bool),
		sessions:    sessions,
		notifier:    notifier,
		archive:     archive,
		board:       parques.NewBoard(parques.DefaultBoardWidth, parques.DefaultBoardHeight),
		newRoller:   func() game.Roller { return game.NewRandomRoller() },
		idleTimeout: 30 * time.Minute,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.archive == nil {
		h.archive = database.Disabled{}
	}
	return h
}

/*
 * Registry
 */

func (h *Hub) worker(roomID int) (*roomWorker, error) {
	if err := ValidateRoomID(roomID); err != nil {
		return nil, err
	}
	h.mu.RLock()
	w, exists := h.rooms[roomID]
	h.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("room %d: %w", roomID, parques.ErrRoomNotFound)
	}
	return w, nil
}

func (h *Hub) workers() []*roomWorker {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ws := make([]*roomWorker, 0, len(h.rooms))
	for _, w := range h.rooms {
		ws = append(ws, w)
	}
	sort.Slice(ws, func(i, j int) bool { return ws[i].id < ws[j].id })
	return ws
}

// removeRoom unregisters a room and stops its worker. It is called from
// inside that worker's own job.
func (h *Hub) removeRoom(w *roomWorker) {
	h.mu.Lock()
	if h.rooms[w.id] == w {
		delete(h.rooms, w.id)
	}
	h.mu.Unlock()
	w.stop()
	log.Info().Int("room", w.id).Msg("Room removed")
}

func (h *Hub) session(playerID int) (SessionInfo, error) {
	session, ok := h.sessions.GetSession(playerID)
	if !ok {
		return SessionInfo{}, ErrNotLoggedIn
	}
	return session, nil
}

// seatedRoom returns the worker of the room the player sits in and checks it
// is the one the command names.
func (h *Hub) seatedRoom(playerID, roomID int) (*roomWorker, error) {
	session, err := h.session(playerID)
	if err != nil {
		return nil, err
	}
	w, err := h.worker(roomID)
	if err != nil {
		return nil, err
	}
	if session.RoomID != roomID {
		return nil, fmt.Errorf("room %d: %w", roomID, parques.ErrNotInRoom)
	}
	return w, nil
}

/*
 * Fan-out
 */

func (h *Hub) lobbySubscribers() []int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]int, 0, len(h.lobby))
	for id := range h.lobby {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// broadcast sends msg once to every seated player of the room, plus the lobby
// subscribers when toLobby is set. Ids in skip receive nothing.
func (h *Hub) broadcast(r *parques.Room, msg ServerMessage, toLobby bool, skip ...int) {
	sent := make(map[int]bool, len(r.Players))
	for _, id := range skip {
		sent[id] = true
	}

	for _, p := range r.Players {
		if p.Left || sent[p.ID] {
			continue
		}
		sent[p.ID] = true
		h.notifier.Notify(p.ID, msg)
	}
	if !toLobby {
		return
	}
	for _, id := range h.lobbySubscribers() {
		if sent[id] {
			continue
		}
		sent[id] = true
		h.notifier.Notify(id, msg)
	}
}

func (h *Hub) toLobby(msg ServerMessage) {
	for _, id := range h.lobbySubscribers() {
		h.notifier.Notify(id, msg)
	}
}

func (h *Hub) updateRoom(r *parques.Room, kind string, skip ...int) {
	h.broadcast(r, ServerMessage{
		Type:    EventUpdateRoom,
		Payload: UpdateRoomNotification{Room: r.View(), Type: kind},
	}, r.LobbyVisible(), skip...)
}

func (h *Hub) publishTurn(r *parques.Room, update parques.TurnUpdate) {
	if r.Status != parques.StatusOngoing {
		return
	}
	h.broadcast(r, ServerMessage{
		Type: EventCurrentPlayer,
		Payload: CurrentPlayerNotification{
			RoomID:      r.ID,
			Player:      update.Player,
			EnabledDice: update.EnabledDice,
		},
	}, false)
	h.broadcast(r, ServerMessage{
		Type:    EventEnablePieces,
		Payload: EnablePiecesNotification{RoomID: r.ID, Pieces: update.Pieces},
	}, false)
}

func (h *Hub) checkGeometry(r *parques.Room) {
	err := r.CheckGeometry()
	var geomErr *parques.GeometryError
	if errors.As(err, &geomErr) {
		log.Warn().
			Int("room", r.ID).
			Int("paths", len(geomErr.Paths)).
			Int("tokens", len(geomErr.Tokens)).
			Int("total", r.GeometryErrors).
			Msg("Geometry inconsistency")
	}
}

/*
 * Sessions
 */

func (h *Hub) CheckUsername(name string) bool {
	return h.sessions.NameUsed(name)
}

// Login resumes the session with the given id or opens a new one under name.
// A resumed player seated in a room gets that room's current state back.
func (h *Hub) Login(ctx context.Context, id int, name string) (LoginResponse, error) {
	session, resumed := h.sessions.GetSession(id)
	if id == 0 || !resumed {
		var err error
		session, err = h.sessions.Create(name, h.now())
		if err != nil {
			return LoginResponse{}, err
		}
		log.Info().Int("player", session.PlayerID).Str("name", session.Name).Msg("Player logged in")
	} else {
		h.sessions.SetConnected(session.PlayerID, true, h.now())
		log.Info().Int("player", session.PlayerID).Msg("Player resumed session")
	}

	resp := LoginResponse{Player: PlayerInfo{ID: session.PlayerID, Name: session.Name}}
	if session.RoomID == 0 {
		return resp, nil
	}

	w, err := h.worker(session.RoomID)
	if err == nil {
		var view parques.RoomView
		view, err = query(ctx, w, func(r *parques.Room) (parques.RoomView, error) {
			if err := r.SetConnected(session.PlayerID, true); err != nil {
				return parques.RoomView{}, err
			}
			h.updateRoom(r, UpdatePlayers, session.PlayerID)
			return r.View(), nil
		})
		if err == nil {
			resp.Room = &view
			resp.Player.RoomID = view.ID
			return resp, nil
		}
	}
	if errors.Is(err, parques.ErrRoomNotFound) || errors.Is(err, parques.ErrNotInRoom) {
		h.sessions.SetRoom(session.PlayerID, 0)
		return resp, nil
	}
	return resp, err
}

// Logout destroys the session, giving up its seat.
func (h *Hub) Logout(ctx context.Context, playerID int) error {
	session, err := h.session(playerID)
	if err != nil {
		return err
	}
	if session.RoomID != 0 {
		err := h.leave(ctx, playerID, session.RoomID, false)
		if err != nil && !errors.Is(err, parques.ErrRoomNotFound) && !errors.Is(err, parques.ErrNotInRoom) {
			return err
		}
	}

	h.mu.Lock()
	delete(h.lobby, playerID)
	h.mu.Unlock()

	h.sessions.RemoveSession(playerID)
	h.notifier.Notify(playerID, ServerMessage{Type: EventLogOut, Payload: LogoutResponse{ID: playerID}})
	log.Info().Int("player", playerID).Msg("Player logged out")
	return nil
}

// Disconnect keeps the session and seat but marks the player away.
func (h *Hub) Disconnect(ctx context.Context, playerID int) {
	session, ok := h.sessions.GetSession(playerID)
	if !ok {
		return
	}
	h.sessions.SetConnected(playerID, false, h.now())

	h.mu.Lock()
	delete(h.lobby, playerID)
	h.mu.Unlock()

	if session.RoomID == 0 {
		return
	}
	w, err := h.worker(session.RoomID)
	if err != nil {
		return
	}
	err = w.do(ctx, func(r *parques.Room) error {
		if err := r.SetConnected(playerID, false); err != nil {
			return err
		}
		h.updateRoom(r, UpdatePlayers, playerID)
		return nil
	})
	if err != nil {
		log.Debug().Int("player", playerID).Err(err).Msg("Disconnect not applied to room")
	}
}

// SweepIdle logs out sessions that have been disconnected longer than the
// idle timeout and returns how many were removed.
func (h *Hub) SweepIdle(ctx context.Context) int {
	removed := 0
	for _, session := range h.sessions.Idle(h.idleTimeout, h.now()) {
		if err := h.Logout(ctx, session.PlayerID); err != nil {
			log.Warn().Int("player", session.PlayerID).Err(err).Msg("Failed to sweep idle session")
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Info().Int("sessions", removed).Msg("Idle sessions swept")
	}
	return removed
}

/*
 * Lobby
 */

func (h *Hub) CreateRoom(ctx context.Context, playerID int) error {
	session, err := h.session(playerID)
	if err != nil {
		return err
	}
	if session.RoomID != 0 {
		return fmt.Errorf("already seated in room %d: %w", session.RoomID, parques.ErrInvalidRoomState)
	}

	h.mu.Lock()
	used := make(map[int]bool, len(h.rooms))
	for id := range h.rooms {
		used[id] = true
	}
	id, err := GenerateRoomID(used)
	if err != nil {
		h.mu.Unlock()
		return err
	}
	room := parques.NewRoom(id, session.Name, playerID, session.Name,
		parques.WithBoard(h.board),
		parques.WithRoller(h.newRoller()),
		parques.WithClock(h.now),
	)
	w := newRoomWorker(room)
	h.rooms[id] = w
	h.mu.Unlock()

	h.sessions.SetRoom(playerID, id)
	log.Info().Int("room", id).Int("player", playerID).Msg("Room created")

	return w.do(ctx, func(r *parques.Room) error {
		p, _ := r.Player(playerID)
		h.notifier.Notify(playerID, ServerMessage{
			Type:    EventRoomCreation,
			Payload: RoomCreationResponse{Room: r.View(), Color: p.Color},
		})
		h.toLobby(ServerMessage{Type: EventNewRoom, Payload: r.Summary()})
		h.checkGeometry(r)
		return nil
	})
}

// LobbyRooms lists the rooms still open for joining, by id.
func (h *Hub) LobbyRooms(ctx context.Context) []parques.LobbyRoom {
	rooms := make([]parques.LobbyRoom, 0)
	for _, w := range h.workers() {
		summary, err := query(ctx, w, func(r *parques.Room) (*parques.LobbyRoom, error) {
			if !r.LobbyVisible() {
				return nil, nil
			}
			s := r.Summary()
			return &s, nil
		})
		if err != nil || summary == nil {
			continue
		}
		rooms = append(rooms, *summary)
	}
	return rooms
}

// ListRooms replies with the open rooms and subscribes the player to lobby
// changes.
func (h *Hub) ListRooms(ctx context.Context, playerID int) error {
	if err := h.SubscribeLobby(playerID); err != nil {
		return err
	}
	h.notifier.Notify(playerID, ServerMessage{
		Type:    EventNewRoomsList,
		Payload: RoomsListResponse{Rooms: h.LobbyRooms(ctx)},
	})
	return nil
}

// SubscribeLobby adds the player to the lobby subscribers without sending the
// room list. Subscribing twice is a no-op.
func (h *Hub) SubscribeLobby(playerID int) error {
	if _, err := h.session(playerID); err != nil {
		return err
	}
	h.mu.Lock()
	h.lobby[playerID] = true
	h.mu.Unlock()
	return nil
}

// JoinRoom always answers with room-joining, carrying the failure reason when
// the join is refused.
func (h *Hub) JoinRoom(ctx context.Context, playerID, roomID int) error {
	session, err := h.session(playerID)
	if err != nil {
		return err
	}

	refuse := func(err error) error {
		h.notifier.Notify(playerID, ServerMessage{
			Type:    EventRoomJoining,
			Payload: RoomJoiningResponse{Error: parques.Reason(err)},
		})
		return err
	}

	if session.RoomID != 0 && session.RoomID != roomID {
		return refuse(fmt.Errorf("already seated in room %d: %w", session.RoomID, parques.ErrInvalidRoomState))
	}
	w, err := h.worker(roomID)
	if err != nil {
		return refuse(err)
	}

	err = w.do(ctx, func(r *parques.Room) error {
		color, err := r.Join(playerID, session.Name)
		if err != nil {
			return err
		}
		h.sessions.SetRoom(playerID, roomID)

		view := r.View()
		h.notifier.Notify(playerID, ServerMessage{
			Type:    EventRoomJoining,
			Payload: RoomJoiningResponse{Room: &view, Color: &color},
		})
		h.updateRoom(r, UpdatePlayers, playerID)
		return nil
	})
	if err != nil {
		return refuse(err)
	}
	log.Info().Int("room", roomID).Int("player", playerID).Msg("Player joined room")
	return nil
}

func (h *Hub) LeaveRoom(ctx context.Context, playerID, roomID int) error {
	if _, err := h.seatedRoom(playerID, roomID); err != nil {
		return err
	}
	return h.leave(ctx, playerID, roomID, true)
}

func (h *Hub) leave(ctx context.Context, playerID, roomID int, reply bool) error {
	w, err := h.worker(roomID)
	if err != nil {
		h.sessions.SetRoom(playerID, 0)
		return err
	}

	return w.do(ctx, func(r *parques.Room) error {
		wasVisible := r.LobbyVisible()
		res, err := r.Leave(playerID)
		if err != nil {
			return err
		}
		h.sessions.SetRoom(playerID, 0)
		if reply {
			h.notifier.Notify(playerID, ServerMessage{Type: EventLeaveRoom, Payload: LeaveRoomResponse{RoomID: r.ID}})
		}
		log.Info().Int("room", r.ID).Int("player", playerID).Msg("Player left room")

		if res.Vacated {
			if wasVisible {
				h.toLobby(ServerMessage{Type: EventDeleteRoom, Payload: r.Summary()})
			}
			h.removeRoom(w)
			return nil
		}

		h.updateRoom(r, UpdatePlayers, playerID)
		if res.TurnPassed {
			h.publishTurn(r, r.TurnUpdate())
		}
		return nil
	})
}

/*
 * Room settings
 */

func (h *Hub) RenameRoom(ctx context.Context, playerID, roomID int, name string) error {
	w, err := h.seatedRoom(playerID, roomID)
	if err != nil {
		return err
	}
	return w.do(ctx, func(r *parques.Room) error {
		if err := r.Rename(playerID, name); err != nil {
			return err
		}
		h.updateRoom(r, UpdateName)
		return nil
	})
}

func (h *Hub) ResizeBoard(ctx context.Context, playerID, roomID int, width, height float64) error {
	w, err := h.seatedRoom(playerID, roomID)
	if err != nil {
		return err
	}
	return w.do(ctx, func(r *parques.Room) error {
		if err := r.Resize(playerID, width, height); err != nil {
			return err
		}
		h.checkGeometry(r)
		h.updateRoom(r, UpdateBoard)
		return nil
	})
}

/*
 * Turn flow
 */

func (h *Hub) StartGame(ctx context.Context, playerID, roomID int) error {
	w, err := h.seatedRoom(playerID, roomID)
	if err != nil {
		return err
	}
	return w.do(ctx, func(r *parques.Room) error {
		if err := r.Start(playerID); err != nil {
			return err
		}
		h.checkGeometry(r)
		h.broadcast(r, ServerMessage{Type: EventStartGame, Payload: r.View()}, false)
		h.toLobby(ServerMessage{Type: EventDeleteRoom, Payload: r.Summary()})
		h.publishTurn(r, r.TurnUpdate())
		log.Info().Int("room", r.ID).Int("players", len(r.Players)).Msg("Game started")
		return nil
	})
}

func (h *Hub) LaunchDice(ctx context.Context, playerID, roomID int) error {
	w, err := h.seatedRoom(playerID, roomID)
	if err != nil {
		return err
	}
	return w.do(ctx, func(r *parques.Room) error {
		res, err := r.Roll(playerID)
		if err != nil {
			return err
		}
		h.broadcast(r, ServerMessage{
			Type:    EventDoLaunchDice,
			Payload: LaunchDiceNotification{RoomID: r.ID, Rolls: res.Dice, Bonus: res.Bonus},
		}, false)
		if len(res.Penalty) > 0 {
			h.broadcast(r, ServerMessage{
				Type:    EventPenalty,
				Payload: PenaltyNotification{RoomID: r.ID, Movements: res.Penalty},
			}, false)
		}
		log.Debug().Int("room", r.ID).Int("player", playerID).Str("dice", game.Describe(res.Dice)).Msg("Dice launched")
		return nil
	})
}

func (h *Hub) DiceAnimationComplete(ctx context.Context, playerID, roomID int) error {
	w, err := h.seatedRoom(playerID, roomID)
	if err != nil {
		return err
	}
	return w.do(ctx, func(r *parques.Room) error {
		update, opened, err := r.AckDice(playerID)
		if err != nil || !opened {
			return err
		}
		h.publishTurn(r, update)
		return nil
	})
}

func (h *Hub) MovePiece(ctx context.Context, playerID, roomID, tokenID, amount int) error {
	w, err := h.seatedRoom(playerID, roomID)
	if err != nil {
		return err
	}
	return w.do(ctx, func(r *parques.Room) error {
		mv, err := r.Move(playerID, tokenID, amount)
		if err != nil {
			return err
		}
		h.checkGeometry(r)
		h.broadcast(r, ServerMessage{
			Type:    EventMovePiece,
			Payload: MovePieceNotification{RoomID: r.ID, Movement: mv},
		}, false)

		if winner := r.Winner(); winner != nil {
			view, _ := r.PlayerView(winner.ID)
			h.broadcast(r, ServerMessage{
				Type:    EventWinner,
				Payload: WinnerNotification{RoomID: r.ID, Player: view},
			}, false)
			log.Info().Int("room", r.ID).Int("player", winner.ID).Msg("Game finished")
			h.record(resultOf(r))
		}
		return nil
	})
}

func (h *Hub) MoveAnimationComplete(ctx context.Context, playerID, roomID int) error {
	w, err := h.seatedRoom(playerID, roomID)
	if err != nil {
		return err
	}
	return w.do(ctx, func(r *parques.Room) error {
		update, opened, err := r.AckMove(playerID)
		if err != nil || !opened {
			return err
		}
		h.publishTurn(r, update)
		return nil
	})
}

// Snapshot resends the full room state to a seated player.
func (h *Hub) Snapshot(ctx context.Context, playerID, roomID int) error {
	w, err := h.seatedRoom(playerID, roomID)
	if err != nil {
		return err
	}
	return w.do(ctx, func(r *parques.Room) error {
		if !r.Seated(playerID) {
			return fmt.Errorf("room %d: %w", r.ID, parques.ErrNotInRoom)
		}
		h.notifier.Notify(playerID, ServerMessage{Type: EventSnapshot, Payload: r.View()})
		return nil
	})
}

/*
 * Results archive
 */

func resultOf(r *parques.Room) database.GameResult {
	winner := r.Winner()
	result := database.GameResult{
		RoomID:      r.ID,
		RoomName:    r.Name,
		WinnerID:    winner.ID,
		WinnerName:  winner.Name,
		WinnerColor: winner.Color.Code(),
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
	for _, p := range r.Players {
		finished := 0
		for _, tok := range p.Tokens {
			if tok.Position.AtEnd() {
				finished++
			}
		}
		result.Players = append(result.Players, database.ResultPlayer{
			ID:       p.ID,
			Name:     p.Name,
			Color:    p.Color.Code(),
			Finished: finished,
			Left:     p.Left,
		})
	}
	return result
}

// record stores a result without holding up the room.
func (h *Hub) record(result database.GameResult) {
	h.archiving.Add(1)
	go func() {
		defer h.archiving.Done()
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		id, err := h.archive.RecordResult(ctx, result)
		if err != nil {
			if !errors.Is(err, database.ErrUnavailable) {
				log.Error().Int("room", result.RoomID).Err(err).Msg("Failed to archive result")
			}
			return
		}
		log.Info().Int("room", result.RoomID).Int64("result", id).Msg("Result archived")
	}()
}

/*
 * Maintenance
 */

// Restart tells every open connection to reload.
func (h *Hub) Restart() int {
	n := h.notifier.Broadcast(ServerMessage{Type: EventRestart, Payload: struct{}{}})
	log.Info().Int("connections", n).Msg("Restart broadcast")
	return n
}

type HubStats struct {
	Rooms    int
	Sessions int
	Lobby    int
}

func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HubStats{
		Rooms:    len(h.rooms),
		Sessions: h.sessions.Count(),
		Lobby:    len(h.lobby),
	}
}

// Shutdown stops every room worker and waits for pending archive writes.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	for id, w := range h.rooms {
		w.stop()
		delete(h.rooms, id)
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.archiving.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
