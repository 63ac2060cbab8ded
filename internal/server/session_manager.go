package server

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"parques-server/internal/parques"
)

// SessionInfo is a logged-in player. The id outlives connections so a
// client can log back in after a drop.
type SessionInfo struct {
	PlayerID  int
	Name      string
	RoomID    int
	Connected bool
	LastSeen  time.Time
}

type SessionManager struct {
	sessions map[int]SessionInfo // PlayerID -> SessionInfo
	names    map[string]int      // lowercased name -> PlayerID
	nextID   int
	mu       sync.RWMutex
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[int]SessionInfo),
		names:    make(map[string]int),
		nextID:   1,
	}
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (sm *SessionManager) NameUsed(name string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	_, used := sm.names[nameKey(name)]
	return used
}

// Create validates the name and opens a session under a fresh player id.
// Names are unique regardless of case.
func (sm *SessionManager) Create(name string, now time.Time) (SessionInfo, error) {
	name, err := parques.ValidateName(name)
	if err != nil {
		return SessionInfo{}, err
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	key := nameKey(name)
	if _, used := sm.names[key]; used {
		return SessionInfo{}, fmt.Errorf("%q: %w", name, parques.ErrNameTaken)
	}

	session := SessionInfo{
		PlayerID:  sm.nextID,
		Name:      name,
		Connected: true,
		LastSeen:  now,
	}
	sm.nextID++
	sm.sessions[session.PlayerID] = session
	sm.names[key] = session.PlayerID
	return session, nil
}

func (sm *SessionManager) GetSession(playerID int) (SessionInfo, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	session, exists := sm.sessions[playerID]
	return session, exists
}

func (sm *SessionManager) update(playerID int, fn func(*SessionInfo)) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	session, exists := sm.sessions[playerID]
	if !exists {
		return false
	}
	fn(&session)
	sm.sessions[playerID] = session
	return true
}

func (sm *SessionManager) SetRoom(playerID, roomID int) bool {
	return sm.update(playerID, func(s *SessionInfo) { s.RoomID = roomID })
}

func (sm *SessionManager) SetConnected(playerID int, connected bool, now time.Time) bool {
	return sm.update(playerID, func(s *SessionInfo) {
		s.Connected = connected
		s.LastSeen = now
	})
}

func (sm *SessionManager) Touch(playerID int, now time.Time) bool {
	return sm.update(playerID, func(s *SessionInfo) { s.LastSeen = now })
}

// Used for players who log out or idle out
func (sm *SessionManager) RemoveSession(playerID int) (SessionInfo, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	session, exists := sm.sessions[playerID]
	if !exists {
		return SessionInfo{}, false
	}
	delete(sm.sessions, playerID)
	delete(sm.names, nameKey(session.Name))
	return session, true
}

// Idle returns disconnected sessions last seen more than timeout before now,
// ordered by player id.
func (sm *SessionManager) Idle(timeout time.Duration, now time.Time) []SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	var idle []SessionInfo
	for _, session := range sm.sessions {
		if !session.Connected && now.Sub(session.LastSeen) > timeout {
			idle = append(idle, session)
		}
	}
	sort.Slice(idle, func(i, j int) bool { return idle[i].PlayerID < idle[j].PlayerID })
	return idle
}

func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}
