package server_test

import (
	"parques-server/internal/parques"
	"parques-server/internal/server"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRoomIDRange(t *testing.T) {
	assert := assert.New(t)
	used := make(map[int]bool)

	for range 100 {
		id, err := server.GenerateRoomID(used)

		assert.NoError(err)
		assert.GreaterOrEqual(id, server.MinRoomID)
		assert.LessOrEqual(id, server.MaxRoomID)
		assert.NoError(server.ValidateRoomID(id))
	}
}

func TestGenerateRoomIDUniqueness(t *testing.T) {
	used := make(map[int]bool)

	for range 1000 {
		id, err := server.GenerateRoomID(used)

		assert.NoError(t, err)
		assert.False(t, used[id], "Id %d was generated twice", id)

		used[id] = true
	}

	assert.Equal(t, 1000, len(used))
}

func TestGenerateRoomIDNearlyFull(t *testing.T) {
	used := make(map[int]bool)
	for id := server.MinRoomID; id <= server.MaxRoomID; id++ {
		used[id] = true
	}
	delete(used, 5555)

	id, err := server.GenerateRoomID(used)
	assert.NoError(t, err)
	assert.Equal(t, 5555, id)
}

func TestGenerateRoomIDExhausted(t *testing.T) {
	used := make(map[int]bool)
	for id := server.MinRoomID; id <= server.MaxRoomID; id++ {
		used[id] = true
	}

	_, err := server.GenerateRoomID(used)
	assert.ErrorIs(t, err, server.ErrNoRoomID)
	assert.Equal(t, "NO_ROOM_ID", parques.Reason(err))
}

func TestValidateRoomID(t *testing.T) {
	tests := []struct {
		id    int
		valid bool
	}{
		{1000, true},
		{9999, true},
		{4321, true},
		{999, false},
		{10000, false},
		{0, false},
		{-5, false},
	}

	for _, tt := range tests {
		err := server.ValidateRoomID(tt.id)
		if tt.valid {
			assert.NoError(t, err, "id %d", tt.id)
		} else {
			assert.ErrorIs(t, err, parques.ErrRoomNotFound, "id %d", tt.id)
		}
	}
}
