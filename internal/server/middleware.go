package server

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

var (
	ErrRateLimited        = errors.New("RATE_LIMITED: too many messages, slow down")
	ErrInvalidMessageType = errors.New("INVALID_MESSAGE_TYPE: unknown message type")
	ErrInvalidMessage     = errors.New("INVALID_MESSAGE: payload could not be decoded")
	ErrNotLoggedIn        = errors.New("NOT_LOGGED_IN: log in first")
	ErrAlreadyLoggedIn    = errors.New("ALREADY_LOGGED_IN: connection belongs to another player")
)

// RateLimiter keeps a token bucket per connection. One abusive client
// never slows down the others.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter // connectionID -> bucket
	mu       sync.Mutex
}

// NewRateLimiter allows perSecond messages per connection on average with
// bursts of up to burst messages.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (r *RateLimiter) limiter(connectionID string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, exists := r.limiters[connectionID]
	if !exists {
		l = rate.NewLimiter(r.limit, r.burst)
		r.limiters[connectionID] = l
	}
	return l
}

// Allow reports whether a connection may send another message now.
func (r *RateLimiter) Allow(connectionID string) bool {
	return r.limiter(connectionID).Allow()
}

// RemoveConnection drops the bucket of a closed connection.
func (r *RateLimiter) RemoveConnection(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.limiters, connectionID)
}

func (r *RateLimiter) Tracked() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}

var validTypes = map[string]bool{
	EventPing:                  true,
	EventCheckUsername:         true,
	EventLogIn:                 true,
	EventLogOut:                true,
	EventCreateRoom:            true,
	EventNewRoomsList:          true,
	EventSubscribeRoomChanges:  true,
	EventJoinRoom:              true,
	EventLeaveRoom:             true,
	EventUpdateRoomName:        true,
	EventResizeBoard:           true,
	EventStartGame:             true,
	EventLaunchDice:            true,
	EventMovePiece:             true,
	EventDiceAnimationComplete: true,
	EventMoveAnimationComplete: true,
	EventRequestSnapshot:       true,
}

// ValidateMessageType checks if a message type is recognized
func ValidateMessageType(msgType string) error {
	if !validTypes[msgType] {
		return fmt.Errorf("%w '%s'", ErrInvalidMessageType, msgType)
	}
	return nil
}

// preLogin lists the events a connection may send before logging in.
var preLogin = map[string]bool{
	EventPing:          true,
	EventCheckUsername: true,
	EventLogIn:         true,
}

func RequiresLogin(msgType string) bool {
	return !preLogin[msgType]
}
