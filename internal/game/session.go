package game

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/models"
)

// VisualizerHandle is one session's channel to its external display
// process. Send and Terminate are best-effort: implementations log
// failures and never propagate them.
type VisualizerHandle interface {
	Send(ev GameEvent)
	Terminate()
}

// VisualizerBridge spawns visualizer processes. A spawn failure disables
// visualization for that session only.
type VisualizerBridge interface {
	Spawn(sessionID string) (VisualizerHandle, error)
}

// Session is the root aggregate of one match. Its mutable fields are
// written by its own turn-loop task; the pending-action slots inside the
// remote proxies are the one shared-mutable point and use their own
// hand-off channel. Everything else is guarded by mu.
type Session struct {
	ID        uuid.UUID
	Proxies   [2]BotProxy
	CreatedAt time.Time

	adapter  EngineAdapter
	fanout   *Broadcaster
	deadline time.Duration
	maxTurns int

	// collecting is the turn number currently awaiting remote
	// submissions, or 0 when none is. Read by SubmitAction without
	// taking mu so a submission can never block behind the turn loop.
	collecting atomic.Int64

	cancel context.CancelFunc

	mu         sync.Mutex
	turn       int         // last completed turn
	log        []GameEvent // append-only replay log
	terminal   bool
	result     *models.GameResult
	visEnabled bool
	vis        VisualizerHandle
}

// Turn returns the last completed turn index.
func (s *Session) Turn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

// Terminal reports whether the match has ended.
func (s *Session) Terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminal
}

// Result returns the session's GameResult, or nil while it is running.
func (s *Session) Result() *models.GameResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// VisualizerEnabled reports whether this session mirrors events to an
// external visualizer.
func (s *Session) VisualizerEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visEnabled
}

// EventLog returns a copy of the recorded event log.
func (s *Session) EventLog() []GameEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]GameEvent, len(s.log))
	copy(out, s.log)
	return out
}

// Subscribe attaches an observer, replaying the recorded log before live
// events. The log copy and the subscription are taken under the same
// lock the publisher appends under, so no event is missed or duplicated
// across the replay/live boundary.
func (s *Session) Subscribe() *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fanout.Subscribe(s.log)
}

// proxyFor returns the proxy whose player id matches, or nil.
func (s *Session) proxyFor(playerID string) BotProxy {
	for _, p := range s.Proxies {
		if p != nil && p.PlayerID() == playerID {
			return p
		}
	}
	return nil
}
