package parques

import (
	"errors"
	"strings"
)

var (
	ErrNameTaken             = errors.New("NAME_TAKEN: name is already in use")
	ErrInvalidNameLength     = errors.New("INVALID_NAME_LENGTH: name must be between 4 and 16 characters")
	ErrRoomNotFound          = errors.New("ROOM_NOT_FOUND: room does not exist")
	ErrRoomFull              = errors.New("ROOM_FULL: room already has the maximum number of players")
	ErrInvalidRoomState      = errors.New("INVALID_ROOM_STATE: operation not allowed in the current room state")
	ErrNotYourTurn           = errors.New("NOT_YOUR_TURN: another player has the floor")
	ErrIllegalMove           = errors.New("ILLEGAL_MOVE: amount is not a legal move for that token")
	ErrGeometryInconsistency = errors.New("GEOMETRY_INCONSISTENCY: path or token geometry failed validation")
	ErrNotCreator            = errors.New("NOT_CREATOR: only the room creator can do that")
	ErrNotInRoom             = errors.New("NOT_IN_ROOM: player is not seated in this room")
	ErrInvalidBoard          = errors.New("INVALID_BOARD: board width and height must be positive")
)

var reasons = []error{
	ErrNameTaken,
	ErrInvalidNameLength,
	ErrRoomNotFound,
	ErrRoomFull,
	ErrInvalidRoomState,
	ErrNotYourTurn,
	ErrIllegalMove,
	ErrGeometryInconsistency,
	ErrNotCreator,
	ErrNotInRoom,
	ErrInvalidBoard,
}

// Reason returns the stable code of err, e.g. "ROOM_FULL". Errors outside the
// taxonomy fall back to whatever precedes the first colon, or "INTERNAL".
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for _, known := range reasons {
		if errors.Is(err, known) {
			return code(known.Error())
		}
	}
	if c := code(err.Error()); c != "" && c == strings.ToUpper(c) && !strings.Contains(c, " ") {
		return c
	}
	return "INTERNAL"
}

func code(msg string) string {
	c, _, found := strings.Cut(msg, ":")
	if !found {
		return ""
	}
	return c
}
