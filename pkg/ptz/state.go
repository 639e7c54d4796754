package ptz

import (
	"sync"
	"time"
)

const (
	StatusIdle   = "IDLE"
	StatusMoving = "MOVING"
)

// MoveState compensates for cameras that report a move as finished while the
// head is physically still turning: after a forwarded move the camera counts
// as MOVING for a settle window, then IDLE. This is the only mutable state
// shared between sessions. Each camera owns one MoveState with its own lock,
// so polling two cameras never contends.
//
// IDLE --(move forwarded)--> MOVING --(window elapses)--> IDLE.
// A second move while MOVING restarts the window, it never stacks timers.
type MoveState struct {
	mu    sync.Mutex
	until time.Time

	// last reported position, for the early-idle heuristic
	lastX, lastY string
}

func (s *MoveState) SetMoving(window time.Duration) {
	s.mu.Lock()
	s.until = time.Now().Add(window)
	s.mu.Unlock()
}

func (s *MoveState) SetIdle() {
	s.mu.Lock()
	s.until = time.Time{}
	s.mu.Unlock()
}

func (s *MoveState) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Now().Before(s.until) {
		return StatusMoving
	}
	return StatusIdle
}

// ObservePosition records the position the camera just reported. Two equal
// reports in a row mean the head has stopped regardless of the settle
// window, so the state snaps to IDLE and ObservePosition returns true.
func (s *MoveState) ObservePosition(x, y string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	stopped := x != "" && x == s.lastX && y == s.lastY
	s.lastX, s.lastY = x, y

	if stopped {
		s.until = time.Time{}
	}
	return stopped
}
