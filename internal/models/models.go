// Package models holds the wire and domain types shared by the game
// orchestrator, the transport layer, and the persistence collaborators.
package models

import "time"

// PlayerKind distinguishes an in-process bot side from a remote side.
type PlayerKind string

const (
	KindBuiltin PlayerKind = "builtin"
	KindRemote  PlayerKind = "remote"
)

// PlayerConfig describes one side of a match. Immutable once the session
// starts. BuiltinBotID is required iff Kind is KindBuiltin.
type PlayerConfig struct {
	PlayerID     string     `json:"player_id"`
	Kind         PlayerKind `json:"kind"`
	BuiltinBotID string     `json:"builtin_bot_id,omitempty"`
}

// Spell is the optional spell part of an action: a kind plus an optional
// target cell.
type Spell struct {
	Kind   string  `json:"kind"`
	Target *[2]int `json:"target,omitempty"`
}

// Action is one side's input for a single turn.
type Action struct {
	Move  *[2]int `json:"move"`
	Spell *Spell  `json:"spell"`
}

// DefaultAction is the no-op substituted when a remote player misses the
// collection deadline: zero movement, no spell. Identical for both sides.
func DefaultAction() Action {
	return Action{Move: &[2]int{0, 0}, Spell: nil}
}

// ActionSubmission is a remote player's action for a specific turn.
// Submissions for any other turn are rejected, never queued.
type ActionSubmission struct {
	PlayerID string `json:"player_id"`
	Turn     int    `json:"turn"`
	Action
}

// Player is a registered (remote-capable) player from the persistence
// collaborator.
type Player struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// ResultKind classifies a finished match.
type ResultKind string

const (
	ResultWin  ResultKind = "WIN"
	ResultDraw ResultKind = "DRAW"
)

// End condition tags recorded on a GameResult.
const (
	EndHPZero   = "hp_zero"
	EndMaxTurns = "max_turns"
	EndDraw     = "draw"
	EndUnknown  = "unknown"
	EndError    = "error"
)

// PlayerStats is one side's final statistics.
type PlayerStats struct {
	HP                 int    `json:"hp"`
	Mana               int    `json:"mana"`
	Position           [2]int `json:"position"`
	DamageDealt        int    `json:"damage_dealt"`
	DamageReceived     int    `json:"damage_received"`
	SpellsCast         int    `json:"spells_cast"`
	ArtifactsCollected int    `json:"artifacts_collected"`
}

// GameResult is created exactly once per session when the turn processor
// detects termination.
type GameResult struct {
	WinnerID     *string                `json:"winner_id"`
	LoserID      *string                `json:"loser_id"`
	Kind         ResultKind             `json:"result"`
	TotalTurns   int                    `json:"total_turns"`
	FirstMoverID string                 `json:"first_mover_id"`
	Stats        map[string]PlayerStats `json:"stats"`
	EndCondition string                 `json:"end_condition"`
	CreatedAt    time.Time              `json:"created_at"`
}
