package game

import (
	"fmt"
	"strings"

	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/models"
)

// EventType is the wire-level kind of a session event.
type EventType string

const (
	EventSessionStart EventType = "session_start"
	EventTurnUpdate   EventType = "turn_update"
	EventGameOver     EventType = "game_over"
)

// PlayerView is one side's visible state inside a snapshot.
type PlayerView struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	HP       int    `json:"hp"`
	Mana     int    `json:"mana"`
	Position [2]int `json:"position"`
	Alive    bool   `json:"alive"`
}

// MinionView is a summoned unit inside a snapshot.
type MinionView struct {
	OwnerID  string `json:"owner_id"`
	HP       int    `json:"hp"`
	Position [2]int `json:"position"`
}

// ArtifactView is a pickup currently on the board.
type ArtifactView struct {
	Position [2]int `json:"position"`
}

// StateView is the full game-state snapshot carried by every event.
type StateView struct {
	Turn      int            `json:"turn"`
	Players   []PlayerView   `json:"players"`
	Minions   []MinionView   `json:"minions"`
	Artifacts []ArtifactView `json:"artifacts"`
}

// ActionView is one side's resolved action as published to observers.
type ActionView struct {
	PlayerID string        `json:"player_id"`
	Move     *[2]int       `json:"move"`
	Spell    *models.Spell `json:"spell"`
}

// GameEvent is the single event shape streamed to subscribers, mirrored
// to the visualizer, and recorded in the session's replay log. TurnEvents
// use EventTurnUpdate; the terminal event uses EventGameOver and
// additionally carries Winner and Result.
type GameEvent struct {
	Event     EventType          `json:"event"`
	SessionID string             `json:"session_id"`
	Turn      int                `json:"turn"`
	GameState *StateView         `json:"game_state,omitempty"`
	Actions   []ActionView       `json:"actions,omitempty"`
	Events    []string           `json:"events,omitempty"`
	Summary   string             `json:"summary,omitempty"`
	Winner    *string            `json:"winner,omitempty"`
	Result    *models.GameResult `json:"result,omitempty"`
}

// summarize renders the one-line digest attached to a turn event.
func summarize(view *StateView) string {
	parts := make([]string, 0, len(view.Players))
	for _, p := range view.Players {
		if p.Alive {
			parts = append(parts, fmt.Sprintf("%s hp=%d mana=%d", p.PlayerID, p.HP, p.Mana))
		} else {
			parts = append(parts, fmt.Sprintf("%s down", p.PlayerID))
		}
	}
	return fmt.Sprintf("turn %d: %s", view.Turn, strings.Join(parts, ", "))
}
