package game

import (
	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/models"
)

// DecideFunc is a builtin bot's decision function. It is pure and
// synchronous: given the current snapshot and its own side, it returns
// the action for this turn immediately.
type DecideFunc func(view StateView, self, opponent string) models.Action

// BotProxy is one side's action source at runtime: either a builtin bot
// or a remote player. A proxy is owned exclusively by its session.
type BotProxy interface {
	PlayerID() string
	DisplayName() string
	Kind() models.PlayerKind
}

// BuiltinBot answers every turn in-process without suspending.
type BuiltinBot struct {
	ID     string
	Name   string
	Decide DecideFunc
}

func (b *BuiltinBot) PlayerID() string        { return b.ID }
func (b *BuiltinBot) DisplayName() string     { return b.Name }
func (b *BuiltinBot) Kind() models.PlayerKind { return models.KindBuiltin }

// RemotePlayer's action arrives through an external submission or times
// out. The pending slot is a single-value hand-off: a buffered channel of
// capacity one, so a submission racing the deadline timer is either fully
// delivered or fully rejected, never lost half-way.
type RemotePlayer struct {
	ID   string
	Name string
	slot chan models.ActionSubmission
}

// NewRemotePlayer creates a remote side with an empty pending slot.
func NewRemotePlayer(id, name string) *RemotePlayer {
	return &RemotePlayer{ID: id, Name: name, slot: make(chan models.ActionSubmission, 1)}
}

func (r *RemotePlayer) PlayerID() string        { return r.ID }
func (r *RemotePlayer) DisplayName() string     { return r.Name }
func (r *RemotePlayer) Kind() models.PlayerKind { return models.KindRemote }

// offer places a submission into the pending slot without blocking.
// A slot already holding an unconsumed action rejects the new one.
func (r *RemotePlayer) offer(sub models.ActionSubmission) error {
	select {
	case r.slot <- sub:
		return nil
	default:
		return mismatchf("an action for this turn is already pending")
	}
}
