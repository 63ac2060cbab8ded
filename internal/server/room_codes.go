package server

import (
	"errors"
	"fmt"
	"math/rand"

	"parques-server/internal/parques"
)

const (
	MinRoomID = 1000
	MaxRoomID = 9999

	roomIDAttempts = 100
)

var ErrNoRoomID = errors.New("NO_ROOM_ID: no free room id available")

// GenerateRoomID picks a random four digit id not present in used. A crowded
// id space fails the single request instead of spinning.
func GenerateRoomID(used map[int]bool) (int, error) {
	if len(used) >= MaxRoomID-MinRoomID+1 {
		return 0, ErrNoRoomID
	}
	for range roomIDAttempts {
		id := MinRoomID + rand.Intn(MaxRoomID-MinRoomID+1)
		if !used[id] {
			return id, nil
		}
	}
	for id := MinRoomID; id <= MaxRoomID; id++ {
		if !used[id] {
			return id, nil
		}
	}
	return 0, ErrNoRoomID
}

func ValidateRoomID(id int) error {
	if id < MinRoomID || id > MaxRoomID {
		return fmt.Errorf("room id %d: %w", id, parques.ErrRoomNotFound)
	}
	return nil
}
