package server

import "encoding/json"

type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client to server events.
const (
	EventPing                  = "ping"
	EventCheckUsername         = "check-username"
	EventLogIn                 = "log-in"
	EventLogOut                = "log-out"
	EventCreateRoom            = "create-room"
	EventNewRoomsList          = "new-rooms-list"
	EventSubscribeRoomChanges  = "subscribe-for-room-changes"
	EventJoinRoom              = "join-room"
	EventLeaveRoom             = "leave-room"
	EventUpdateRoomName        = "update-room-name"
	EventResizeBoard           = "resize-board"
	EventStartGame             = "start-game"
	EventLaunchDice            = "launch-dice"
	EventMovePiece             = "move-piece"
	EventDiceAnimationComplete = "dice-animation-complete"
	EventMoveAnimationComplete = "move-animation-complete"
	EventRequestSnapshot       = "request-snapshot"
)

// Server to client events. Replies reuse the request name where the
// protocol does (check-username, log-in, new-rooms-list, leave-room,
// start-game, move-piece).
const (
	EventPong          = "pong"
	EventError         = "error"
	EventRoomCreation  = "room-creation"
	EventRoomJoining   = "room-joining"
	EventNewRoom       = "new-room"
	EventDeleteRoom    = "delete-room"
	EventUpdateRoom    = "update-room"
	EventDoLaunchDice  = "do-launch-dice"
	EventPenalty       = "penalty"
	EventCurrentPlayer = "current-player"
	EventEnablePieces  = "enable-pieces"
	EventWinner        = "winner"
	EventSnapshot      = "snapshot"
	EventRestart       = "restart"
)

// update-room delta types.
const (
	UpdateName    = "name"
	UpdatePlayers = "players"
	UpdateBoard   = "board"
)
