package server

import (
	"parques-server/internal/parques"
)

// ============================================================================
// ERROR RESPONSES
// ============================================================================
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ============================================================================
// SESSION (check-username, log-in, log-out)
// ============================================================================
type CheckUsernameRequest struct {
	Name string `json:"name"`
}

type CheckUsernameResponse struct {
	Used bool `json:"used"`
}

type LoginRequest struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

type PlayerInfo struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	RoomID int    `json:"roomId,omitempty"`
}

type LoginResponse struct {
	Player PlayerInfo        `json:"player"`
	Room   *parques.RoomView `json:"room"`
}

type LogoutResponse struct {
	ID int `json:"id"`
}

// ============================================================================
// LOBBY (create-room, new-rooms-list, join-room, leave-room)
// ============================================================================
type RoomRequest struct {
	RoomID int `json:"roomId"`
}

type RoomCreationResponse struct {
	Room  parques.RoomView `json:"room"`
	Color parques.Color    `json:"color"`
}

type RoomsListResponse struct {
	Rooms []parques.LobbyRoom `json:"rooms"`
}

type RoomJoiningResponse struct {
	Room  *parques.RoomView `json:"room"`
	Error string            `json:"error,omitempty"`
	Color *parques.Color    `json:"color,omitempty"`
}

type LeaveRoomResponse struct {
	RoomID int `json:"roomId"`
}

// ============================================================================
// ROOM SETTINGS (update-room-name, resize-board)
// ============================================================================

// UpdateRoomNameRequest is the room as the client sees it, carrying the new
// name. Only id and name are read.
type UpdateRoomNameRequest struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type ResizeBoardRequest struct {
	RoomID int     `json:"roomId"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type UpdateRoomNotification struct {
	Room parques.RoomView `json:"room"`
	Type string           `json:"type"`
}

// ============================================================================
// TURN FLOW (launch-dice, move-piece and their acks)
// ============================================================================
type MovePieceRequest struct {
	RoomID int `json:"roomId"`
	Token  int `json:"token"`
	Amount int `json:"amount"`
}

type LaunchDiceNotification struct {
	RoomID int   `json:"roomId"`
	Rolls  []int `json:"rolls"`
	Bonus  bool  `json:"bonus"`
}

type PenaltyNotification struct {
	RoomID    int                     `json:"roomId"`
	Movements []parques.PieceMovement `json:"movements"`
}

type CurrentPlayerNotification struct {
	RoomID      int                `json:"roomId"`
	Player      parques.PlayerView `json:"player"`
	EnabledDice int                `json:"enabledDice"`
}

type EnablePiecesNotification struct {
	RoomID int                `json:"roomId"`
	Pieces parques.LegalMoves `json:"pieces"`
}

type MovePieceNotification struct {
	RoomID   int                   `json:"roomId"`
	Movement parques.PieceMovement `json:"movement"`
}

type WinnerNotification struct {
	RoomID int                `json:"roomId"`
	Player parques.PlayerView `json:"player"`
}

// ============================================================================
// HTTP
// ============================================================================
type HealthResponse struct {
	Status      string            `json:"status"`
	Rooms       int               `json:"rooms"`
	Sessions    int               `json:"sessions"`
	Connections int               `json:"connections"`
	Lobby       int               `json:"lobbySubscribers"`
	Database    map[string]string `json:"database"`
}

type RestartResponse struct {
	Notified int `json:"notified"`
}
