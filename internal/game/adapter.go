// adapter.go — bridge between the opaque simulation engine and the
// session's state model.
package game

import (
	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/engine"
	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/models"
)

// Winner verdicts handed to the turn processor. The adapter only
// translates the engine's answer; the processor decides game-over policy,
// including treating values outside this set as a recoverable anomaly.
const (
	VerdictNone = -1
	VerdictDraw = -2
)

// EngineAdapter wraps the simulation stepping function with a uniform
// contract. AdvanceTurn is side-effecting on the underlying engine;
// Snapshot and TurnLog are read-only.
type EngineAdapter interface {
	// AdvanceTurn feeds one action per side into the engine's turn step.
	AdvanceTurn(actions [2]models.Action) error
	// Snapshot returns the current state view without mutating the engine.
	Snapshot() StateView
	// Winner returns VerdictNone, VerdictDraw, or the winning side index.
	Winner() int
	// TurnLog returns the engine's log lines for the given turn.
	TurnLog(turn int) []string
	// Stats derives one side's final statistics from the engine's
	// internal event log, zero-valued where unavailable.
	Stats(side int) models.PlayerStats
}

// EngineFactory constructs an adapter for a fresh pair of sides.
// Production wiring picks the real duel engine; tests inject stubs
// implementing the same contract.
type EngineFactory func(playerIDs [2]string, seed uint64) (EngineAdapter, error)

// NewDuelFactory returns the production factory backed by the duel
// engine.
func NewDuelFactory() EngineFactory {
	return func(playerIDs [2]string, seed uint64) (EngineAdapter, error) {
		return &duelAdapter{state: engine.New(seed), playerIDs: playerIDs}, nil
	}
}

// duelAdapter translates between the orchestrator's generic action/state
// model and the duel engine's native representation.
type duelAdapter struct {
	state     *engine.State
	playerIDs [2]string
}

func (a *duelAdapter) AdvanceTurn(actions [2]models.Action) error {
	var native [engine.MaxPlayers]engine.Action
	for i := range actions {
		native[i] = a.toEngineAction(i, actions[i])
	}
	return a.state.Step(native)
}

// toEngineAction maps a wire action onto the engine's packed form. An
// unknown spell kind degrades to no spell; a spell without a target
// defaults to the caster's own cell.
func (a *duelAdapter) toEngineAction(side int, act models.Action) engine.Action {
	var na engine.Action
	if act.Move != nil {
		na.DX = int8(act.Move[0])
		na.DY = int8(act.Move[1])
	}
	if act.Spell == nil {
		return na
	}
	switch act.Spell.Kind {
	case "fireball":
		na.Spell = engine.SpellFireball
	case "heal":
		na.Spell = engine.SpellHeal
	case "summon":
		na.Spell = engine.SpellSummon
	default:
		return na
	}
	w := a.state.Wizards[side]
	na.TargetX, na.TargetY = w.X, w.Y
	if act.Spell.Target != nil {
		na.TargetX = int8(act.Spell.Target[0])
		na.TargetY = int8(act.Spell.Target[1])
	}
	return na
}

func (a *duelAdapter) Snapshot() StateView {
	view := StateView{Turn: int(a.state.Turn)}
	for i := range a.state.Wizards {
		w := a.state.Wizards[i]
		view.Players = append(view.Players, PlayerView{
			PlayerID: a.playerIDs[i],
			HP:       int(w.HP),
			Mana:     int(w.Mana),
			Position: [2]int{int(w.X), int(w.Y)},
			Alive:    w.Alive,
		})
	}
	for _, m := range a.state.Minions {
		if !m.Alive {
			continue
		}
		view.Minions = append(view.Minions, MinionView{
			OwnerID:  a.playerIDs[m.Owner],
			HP:       int(m.HP),
			Position: [2]int{int(m.X), int(m.Y)},
		})
	}
	for _, art := range a.state.Artifacts {
		if !art.Present {
			continue
		}
		view.Artifacts = append(view.Artifacts, ArtifactView{Position: [2]int{int(art.X), int(art.Y)}})
	}
	return view
}

func (a *duelAdapter) Winner() int {
	switch w := a.state.Winner(); w {
	case engine.WinnerNone:
		return VerdictNone
	case engine.WinnerDraw:
		return VerdictDraw
	default:
		return int(w)
	}
}

func (a *duelAdapter) TurnLog(turn int) []string {
	var lines []string
	for _, e := range a.state.Trace {
		if int(e.Turn) == turn {
			lines = append(lines, e.String())
		}
	}
	return lines
}

func (a *duelAdapter) Stats(side int) models.PlayerStats {
	if side < 0 || side >= engine.MaxPlayers {
		return models.PlayerStats{}
	}
	w := a.state.Wizards[side]
	stats := models.PlayerStats{
		HP:       int(w.HP),
		Mana:     int(w.Mana),
		Position: [2]int{int(w.X), int(w.Y)},
	}
	for _, e := range a.state.Trace {
		switch e.Kind {
		case engine.TraceDamage:
			if int(e.Actor) == side {
				stats.DamageDealt += int(e.Amount)
			}
			if int(e.Target) == side && !e.Minion {
				stats.DamageReceived += int(e.Amount)
			}
		case engine.TraceSpell:
			if int(e.Actor) == side {
				stats.SpellsCast++
			}
		case engine.TracePickup:
			if int(e.Actor) == side {
				stats.ArtifactsCollected++
			}
		}
	}
	return stats
}
