// runner.go — the per-session turn loop: action collection under a
// deadline, engine advancement, event publication, and end-of-game
// policy.
package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/models"
)

const (
	// MaxTurns is the hard cap: a match still undecided after this many
	// turns ends as a draw.
	MaxTurns = 100

	// DefaultTurnDeadline bounds remote action collection per turn.
	DefaultTurnDeadline = 5 * time.Second
)

// runSession drives one session to completion. It is the session's only
// writer apart from the pending-action slots. The loop exits when the
// match ends or the context is cancelled by cleanup.
func (m *Manager) runSession(ctx context.Context, s *Session) {
	logger := log.WithField("session", s.ID)
	logger.Info("session loop started")

	for {
		if ctx.Err() != nil {
			logger.Info("session loop cancelled")
			return
		}
		actions, ok := m.collectActions(ctx, s)
		if !ok {
			logger.Info("session loop cancelled during action collection")
			return
		}
		if m.advance(s, actions) {
			logger.Info("session loop finished")
			return
		}
	}
}

// collectActions gathers one action per side for the next turn. Builtin
// sides answer synchronously and cannot miss the deadline. Remote sides
// are awaited independently under one shared deadline; if both submit
// early the turn proceeds immediately, and a side that stays silent gets
// the default action. Returns ok=false when the session context was
// cancelled mid-collection.
func (m *Manager) collectActions(ctx context.Context, s *Session) ([2]models.Action, bool) {
	s.mu.Lock()
	turn := s.turn + 1
	view := snapshotSafe(s.adapter)
	s.mu.Unlock()

	var actions [2]models.Action
	var wg sync.WaitGroup

	// Open the submission window before waiting so a fast client cannot
	// race the loop.
	s.collecting.Store(int64(turn))
	defer s.collecting.Store(0)

	wait, cancelWait := context.WithTimeout(ctx, s.deadline)
	defer cancelWait()

	for i, proxy := range s.Proxies {
		switch p := proxy.(type) {
		case *BuiltinBot:
			actions[i] = p.Decide(view, p.ID, s.Proxies[1-i].PlayerID())
		case *RemotePlayer:
			wg.Add(1)
			go func(side int, rp *RemotePlayer) {
				defer wg.Done()
				actions[side] = awaitSubmission(wait, rp, turn)
			}(i, p)
		}
	}
	wg.Wait()

	if ctx.Err() != nil {
		return actions, false
	}
	return actions, true
}

// awaitSubmission blocks on the remote side's pending slot until a
// submission for this turn arrives or the window closes. Stale
// submissions left over from earlier turns are drained and ignored —
// they are matched by explicit turn number and therefore inert.
func awaitSubmission(wait context.Context, rp *RemotePlayer, turn int) models.Action {
	for {
		select {
		case sub := <-rp.slot:
			if sub.Turn != turn {
				continue
			}
			return sub.Action
		case <-wait.Done():
			log.WithFields(log.Fields{"player": rp.ID, "turn": turn}).
				Debug("remote action window closed, applying default action")
			return models.DefaultAction()
		}
	}
}

// advance runs one turn against the engine and reports whether the
// session ended. Engine faults — error returns and panics alike — are
// recovered into a best-effort draw so one misbehaving match never
// affects the process or other sessions.
func (m *Manager) advance(s *Session, actions [2]models.Action) (ended bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminal {
		return true
	}
	turn := s.turn + 1
	logger := log.WithFields(log.Fields{"session": s.ID, "turn": turn})

	if err := advanceSafe(s.adapter, actions); err != nil {
		logger.WithError(err).Error("engine fault during turn, ending session as degraded draw")
		m.finishLocked(s, models.ResultDraw, models.EndError, -1)
		return true
	}

	view := snapshotSafe(s.adapter)
	ev := GameEvent{
		Event:     EventTurnUpdate,
		SessionID: s.ID.String(),
		Turn:      turn,
		GameState: &view,
		Actions: []ActionView{
			{PlayerID: s.Proxies[0].PlayerID(), Move: actions[0].Move, Spell: actions[0].Spell},
			{PlayerID: s.Proxies[1].PlayerID(), Move: actions[1].Move, Spell: actions[1].Spell},
		},
		Events:  s.adapter.TurnLog(turn),
		Summary: summarize(&view),
	}
	s.turn = turn
	m.appendAndPublishLocked(s, ev)

	switch verdict := s.adapter.Winner(); {
	case verdict == VerdictNone:
		if turn >= s.maxTurns {
			m.finishLocked(s, models.ResultDraw, models.EndMaxTurns, -1)
			return true
		}
		return false
	case verdict == VerdictDraw:
		m.finishLocked(s, models.ResultDraw, models.EndDraw, -1)
		return true
	case verdict == 0 || verdict == 1:
		m.finishLocked(s, models.ResultWin, models.EndHPZero, verdict)
		return true
	default:
		logger.WithField("verdict", verdict).Warn("engine reported unknown winner value, ending as draw")
		m.finishLocked(s, models.ResultDraw, models.EndUnknown, -1)
		return true
	}
}

// advanceSafe shields the turn loop from a panicking engine.
func advanceSafe(adapter EngineAdapter, actions [2]models.Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	return adapter.AdvanceTurn(actions)
}

// snapshotSafe shields the turn loop from a panicking snapshot call.
func snapshotSafe(adapter EngineAdapter) (view StateView) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("engine snapshot panicked, serving empty state view")
			view = StateView{}
		}
	}()
	return adapter.Snapshot()
}

// finishLocked constructs the session's single GameResult, publishes the
// terminal game-over event, and marks the session terminal. The
// visualizer process is left running; only explicit cleanup terminates
// it. Requires s.mu.
func (m *Manager) finishLocked(s *Session, kind models.ResultKind, endCondition string, winnerSide int) {
	if s.terminal {
		return
	}

	result := &models.GameResult{
		Kind:         kind,
		TotalTurns:   s.turn,
		FirstMoverID: s.Proxies[0].PlayerID(),
		Stats:        map[string]models.PlayerStats{},
		EndCondition: endCondition,
		CreatedAt:    time.Now().UTC(),
	}
	for i, p := range s.Proxies {
		result.Stats[p.PlayerID()] = statsSafe(s.adapter, i)
	}
	var winner *string
	if kind == models.ResultWin && (winnerSide == 0 || winnerSide == 1) {
		w := s.Proxies[winnerSide].PlayerID()
		l := s.Proxies[1-winnerSide].PlayerID()
		result.WinnerID = &w
		result.LoserID = &l
		winner = &w
	}
	s.result = result

	view := snapshotSafe(s.adapter)
	ev := GameEvent{
		Event:     EventGameOver,
		SessionID: s.ID.String(),
		Turn:      s.turn,
		GameState: &view,
		Winner:    winner,
		Result:    result,
	}
	m.appendAndPublishLocked(s, ev)
	s.terminal = true
	s.fanout.CloseAll()

	log.WithFields(log.Fields{
		"session": s.ID,
		"result":  kind,
		"end":     endCondition,
		"turns":   s.turn,
	}).Info("session finished")

	m.persistResult(s.ID, result)
}

// statsSafe derives one side's statistics, zero-valued if the adapter
// cannot provide them.
func statsSafe(adapter EngineAdapter, side int) (stats models.PlayerStats) {
	defer func() {
		if r := recover(); r != nil {
			stats = models.PlayerStats{}
		}
	}()
	return adapter.Stats(side)
}

// appendAndPublishLocked appends the event to the replay log and fans it
// out to subscribers, the visualizer, and the event recorder. All
// delivery paths are non-blocking or asynchronous; none can stall the
// turn loop. Requires s.mu.
func (m *Manager) appendAndPublishLocked(s *Session, ev GameEvent) {
	s.log = append(s.log, ev)
	s.fanout.Publish(ev)
	if s.visEnabled && s.vis != nil {
		s.vis.Send(ev)
	}
	m.recordEvent(s.ID, ev)
}
