package source

import (
	"sync"

	"warelay/internal/model"
)

// State is the messaging client's pairing lifecycle.
type State int

const (
	StateInitializing State = iota
	StateAwaitingPairing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateAwaitingPairing:
		return "awaiting_pairing"
	case StateReady:
		return "ready"
	default:
		return "initializing"
	}
}

// Session tracks pairing state as an explicit machine:
// Initializing -> AwaitingPairing(qr) -> Ready, with a drop back to
// Initializing on disconnect. Readers get a snapshot; nothing outside
// this type mutates the state.
type Session struct {
	mu    sync.RWMutex
	state State
	qr    string
}

func NewSession() *Session { return &Session{} }

// SetPairing records a fresh QR payload and moves to AwaitingPairing.
func (s *Session) SetPairing(qr string) {
	s.mu.Lock()
	s.state = StateAwaitingPairing
	s.qr = qr
	s.mu.Unlock()
}

// SetReady marks the client paired; any stale QR payload is cleared.
func (s *Session) SetReady() {
	s.mu.Lock()
	s.state = StateReady
	s.qr = ""
	s.mu.Unlock()
}

// SetDisconnected resets to Initializing.
func (s *Session) SetDisconnected() {
	s.mu.Lock()
	s.state = StateInitializing
	s.qr = ""
	s.mu.Unlock()
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Status returns the wire-format snapshot served by /api/status.
func (s *Session) Status() model.ReadyStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.ReadyStatus{QR: s.qr, Ready: s.state == StateReady}
}
