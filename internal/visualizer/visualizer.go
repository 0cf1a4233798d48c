// Package visualizer spawns one external display process per session and
// feeds it the session's event stream as JSON lines on stdin. The
// process is fully isolated from match progress: writes are buffered and
// best-effort, a dead or wedged visualizer costs at most dropped frames,
// and the match never waits for it.
package visualizer

import (
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/game"
)

// frameBufferSize bounds the per-process frame queue. A visualizer that
// stops reading loses frames, not the match.
const frameBufferSize = 256

// Bridge launches visualizer processes from a configured command line.
// The session id is appended as the final argument.
type Bridge struct {
	Command string
	Args    []string
}

// New returns a bridge for the given command line, or nil when no
// command is configured so callers can pass the result straight into
// game.Options.
func New(command string, args ...string) *Bridge {
	if command == "" {
		return nil
	}
	return &Bridge{Command: command, Args: args}
}

// Spawn starts one visualizer process for the session. The returned
// handle owns the process and its stdin pipe; events flow through an
// internal queue drained by a dedicated writer goroutine.
func (b *Bridge) Spawn(sessionID string) (game.VisualizerHandle, error) {
	args := append(append([]string{}, b.Args...), sessionID)
	cmd := exec.Command(b.Command, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("visualizer stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("visualizer start: %w", err)
	}

	h := &processHandle{
		sessionID: sessionID,
		cmd:       cmd,
		stdin:     stdin,
		frames:    make(chan game.GameEvent, frameBufferSize),
		quit:      make(chan struct{}),
	}
	go h.writeLoop()
	log.WithFields(log.Fields{"session": sessionID, "pid": cmd.Process.Pid}).
		Info("visualizer process started")
	return h, nil
}

type processHandle struct {
	sessionID string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	frames    chan game.GameEvent
	quit      chan struct{}
	terminate sync.Once
}

// Send queues one event for the process. It never blocks: a full queue
// or an already-terminated handle drops the frame.
func (h *processHandle) Send(ev game.GameEvent) {
	select {
	case <-h.quit:
	case h.frames <- ev:
	default:
		log.WithField("session", h.sessionID).Debug("visualizer frame queue full, dropping event")
	}
}

// Terminate closes the process's stdin and kills it if it has not exited
// on its own. Idempotent; called only by session cleanup.
func (h *processHandle) Terminate() {
	h.terminate.Do(func() {
		close(h.quit)
		_ = h.stdin.Close()
		if h.cmd.Process != nil {
			if err := h.cmd.Process.Kill(); err != nil {
				log.WithError(err).WithField("session", h.sessionID).
					Debug("visualizer kill failed, process likely already gone")
			}
		}
		// Reap the process so it never lingers as a zombie.
		go func() { _ = h.cmd.Wait() }()
		log.WithField("session", h.sessionID).Info("visualizer terminated")
	})
}

// writeLoop serializes queued events to the process, one JSON object per
// line. A write failure ends the loop; the process keeps running until
// Terminate in case it recovers by other means, but no further frames
// are attempted.
func (h *processHandle) writeLoop() {
	enc := json.NewEncoder(h.stdin)
	for {
		select {
		case <-h.quit:
			return
		case ev := <-h.frames:
			if err := enc.Encode(ev); err != nil {
				log.WithError(err).WithField("session", h.sessionID).
					Warn("visualizer write failed, abandoning event stream")
				return
			}
		}
	}
}
