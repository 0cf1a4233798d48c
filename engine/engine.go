// Package engine implements the Spellcaster duel rules.
//
// The engine is self-contained and deterministic: a State seeded once
// advances only through Step, both sides' actions are applied in a fixed
// order, and every effect is recorded in an internal trace that callers
// can inspect after the fact. The service layer consumes it through an
// adapter and never reaches into rule logic.
package engine

import (
	"errors"
	"fmt"
)

// ErrGameOver is returned by Step once a terminal state has been reached.
var ErrGameOver = errors.New("engine: game is over")

// State is the complete state of one duel. Entity storage uses fixed
// arrays in the style of a flat value type; only the trace grows.
type State struct {
	Wizards   [MaxPlayers]WizardState
	Minions   [MaxMinions]Minion
	Artifacts [MaxArtifacts]Artifact
	Turn      uint16
	RNG       uint64

	// Trace is the append-only record of everything Step has done.
	// Per-side statistics are derived from it at game end.
	Trace []TraceEntry
}

// New initializes a duel with both wizards at full strength on opposite
// edges of the arena. A zero seed is replaced so the xorshift stream
// never degenerates.
func New(seed uint64) *State {
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	s := &State{RNG: seed}
	s.Wizards[0] = WizardState{HP: StartHP, Mana: StartMana, X: 0, Y: ArenaHeight / 2, Alive: true}
	s.Wizards[1] = WizardState{HP: StartHP, Mana: StartMana, X: ArenaWidth - 1, Y: ArenaHeight / 2, Alive: true}
	return s
}

// xorshift64 — inline, no interface.
func (s *State) nextRand() uint64 {
	x := s.RNG
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	s.RNG = x
	return x
}

func (s *State) randN(n uint64) uint64 {
	return s.nextRand() % n
}

// Winner reports WinnerNone while both wizards live, WinnerDraw when both
// are down, and otherwise the surviving side's index.
func (s *State) Winner() int8 {
	a, b := s.Wizards[0].Alive, s.Wizards[1].Alive
	switch {
	case a && b:
		return WinnerNone
	case !a && !b:
		return WinnerDraw
	case a:
		return 0
	default:
		return 1
	}
}

// IsTerminal reports whether the duel has ended.
func (s *State) IsTerminal() bool {
	return s.Winner() != WinnerNone
}

func clampCoord(v, max int8) int8 {
	if v < 0 {
		return 0
	}
	if v >= max {
		return max - 1
	}
	return v
}

func clampUnit(v int8) int8 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func chebyshev(x1, y1, x2, y2 int8) int8 {
	dx := x1 - x2
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y2
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

func sign(v int8) int8 {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

// Step advances the duel by one turn consuming exactly one action per
// side. Order within the turn: moves (simultaneous), spells (side 0 then
// side 1), minion advance and attacks, artifact pickup and spawn, mana
// regeneration. Returns ErrGameOver if called on a terminal state.
func (s *State) Step(actions [MaxPlayers]Action) error {
	if s.IsTerminal() {
		return ErrGameOver
	}
	s.Turn++

	// Simultaneous movement.
	for i := range s.Wizards {
		w := &s.Wizards[i]
		if !w.Alive {
			continue
		}
		dx, dy := clampUnit(actions[i].DX), clampUnit(actions[i].DY)
		if dx == 0 && dy == 0 {
			continue
		}
		w.X = clampCoord(w.X+dx, ArenaWidth)
		w.Y = clampCoord(w.Y+dy, ArenaHeight)
		s.trace(TraceEntry{Kind: TraceMove, Actor: int8(i), Target: int8(i), X: w.X, Y: w.Y})
	}

	// Spells, side 0 first.
	for i := range s.Wizards {
		s.castSpell(uint8(i), actions[i])
	}

	// Minions advance toward the enemy wizard, attacking when adjacent.
	s.stepMinions()

	// Pickups, then a possible spawn on this turn.
	s.collectArtifacts()
	s.spawnArtifact()

	// Regeneration.
	for i := range s.Wizards {
		if w := &s.Wizards[i]; w.Alive {
			w.Mana += ManaRegen
			if w.Mana > MaxMana {
				w.Mana = MaxMana
			}
		}
	}
	return nil
}

func (s *State) trace(e TraceEntry) {
	e.Turn = s.Turn
	s.Trace = append(s.Trace, e)
}

func (s *State) castSpell(side uint8, a Action) {
	w := &s.Wizards[side]
	if !w.Alive || a.Spell == SpellNone {
		return
	}
	switch a.Spell {
	case SpellFireball:
		if w.Mana < FireballCost {
			s.trace(TraceEntry{Kind: TraceFizzle, Actor: int8(side), Target: int8(side), Spell: a.Spell})
			return
		}
		tx := clampCoord(a.TargetX, ArenaWidth)
		ty := clampCoord(a.TargetY, ArenaHeight)
		if chebyshev(w.X, w.Y, tx, ty) > FireballRange {
			s.trace(TraceEntry{Kind: TraceFizzle, Actor: int8(side), Target: int8(side), Spell: a.Spell, X: tx, Y: ty})
			return
		}
		w.Mana -= FireballCost
		s.trace(TraceEntry{Kind: TraceSpell, Actor: int8(side), Target: int8(side), Spell: a.Spell, X: tx, Y: ty})
		s.applyBlast(side, tx, ty)

	case SpellHeal:
		if w.Mana < HealCost {
			s.trace(TraceEntry{Kind: TraceFizzle, Actor: int8(side), Target: int8(side), Spell: a.Spell})
			return
		}
		w.Mana -= HealCost
		healed := int16(HealAmount)
		if w.HP+healed > MaxHP {
			healed = MaxHP - w.HP
		}
		w.HP += healed
		s.trace(TraceEntry{Kind: TraceSpell, Actor: int8(side), Target: int8(side), Spell: a.Spell})
		s.trace(TraceEntry{Kind: TraceHeal, Actor: int8(side), Target: int8(side), Amount: healed})

	case SpellSummon:
		if w.Mana < SummonCost {
			s.trace(TraceEntry{Kind: TraceFizzle, Actor: int8(side), Target: int8(side), Spell: a.Spell})
			return
		}
		slot := s.freeMinionSlot(side)
		if slot < 0 {
			s.trace(TraceEntry{Kind: TraceFizzle, Actor: int8(side), Target: int8(side), Spell: a.Spell})
			return
		}
		w.Mana -= SummonCost
		x, y := s.adjacentFreeCell(w.X, w.Y)
		s.Minions[slot] = Minion{Owner: side, HP: MinionHP, X: x, Y: y, Alive: true}
		s.trace(TraceEntry{Kind: TraceSpell, Actor: int8(side), Target: int8(side), Spell: a.Spell, X: x, Y: y})
		s.trace(TraceEntry{Kind: TraceSummon, Actor: int8(side), Target: int8(side), X: x, Y: y, Minion: true})
	}
}

// freeMinionSlot returns an index for a new minion of the given side, or
// -1 when the side is already at MaxMinionsPerSide.
func (s *State) freeMinionSlot(side uint8) int {
	live := 0
	for i := range s.Minions {
		if s.Minions[i].Alive && s.Minions[i].Owner == side {
			live++
		}
	}
	if live >= MaxMinionsPerSide {
		return -1
	}
	for i := range s.Minions {
		if !s.Minions[i].Alive {
			return i
		}
	}
	return -1
}

// adjacentFreeCell picks the first in-bounds neighbor of (x, y) not
// occupied by a wizard, scanning a fixed offset order so summoning stays
// deterministic. Falls back to the caster's own cell.
func (s *State) adjacentFreeCell(x, y int8) (int8, int8) {
	offsets := [8][2]int8{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {-1, -1}, {1, -1}, {-1, 1}}
	for _, o := range offsets {
		nx, ny := x+o[0], y+o[1]
		if nx < 0 || nx >= ArenaWidth || ny < 0 || ny >= ArenaHeight {
			continue
		}
		occupied := false
		for i := range s.Wizards {
			if s.Wizards[i].Alive && s.Wizards[i].X == nx && s.Wizards[i].Y == ny {
				occupied = true
				break
			}
		}
		if !occupied {
			return nx, ny
		}
	}
	return x, y
}

// applyBlast damages every enemy unit within FireballRadius of the target
// cell.
func (s *State) applyBlast(caster uint8, tx, ty int8) {
	enemy := 1 - caster
	w := &s.Wizards[enemy]
	if w.Alive && chebyshev(w.X, w.Y, tx, ty) <= FireballRadius {
		s.damageWizard(caster, enemy, FireballDamage)
	}
	for i := range s.Minions {
		m := &s.Minions[i]
		if !m.Alive || m.Owner == caster {
			continue
		}
		if chebyshev(m.X, m.Y, tx, ty) <= FireballRadius {
			m.HP -= FireballDamage
			s.trace(TraceEntry{Kind: TraceDamage, Actor: int8(caster), Target: int8(m.Owner), Amount: FireballDamage, X: m.X, Y: m.Y, Minion: true})
			if m.HP <= 0 {
				m.Alive = false
				s.trace(TraceEntry{Kind: TraceDeath, Actor: int8(caster), Target: int8(m.Owner), X: m.X, Y: m.Y, Minion: true})
			}
		}
	}
}

func (s *State) damageWizard(attacker, target uint8, amount int16) {
	w := &s.Wizards[target]
	w.HP -= amount
	s.trace(TraceEntry{Kind: TraceDamage, Actor: int8(attacker), Target: int8(target), Amount: amount, X: w.X, Y: w.Y})
	if w.HP <= 0 {
		w.HP = 0
		w.Alive = false
		s.trace(TraceEntry{Kind: TraceDeath, Actor: int8(attacker), Target: int8(target), X: w.X, Y: w.Y})
	}
}

func (s *State) stepMinions() {
	for i := range s.Minions {
		m := &s.Minions[i]
		if !m.Alive {
			continue
		}
		enemy := 1 - m.Owner
		target := &s.Wizards[enemy]
		if !target.Alive {
			continue
		}
		if chebyshev(m.X, m.Y, target.X, target.Y) <= 1 {
			s.damageWizard(m.Owner, enemy, MinionDamage)
			continue
		}
		m.X = clampCoord(m.X+sign(target.X-m.X), ArenaWidth)
		m.Y = clampCoord(m.Y+sign(target.Y-m.Y), ArenaHeight)
	}
}

func (s *State) collectArtifacts() {
	for i := range s.Artifacts {
		a := &s.Artifacts[i]
		if !a.Present {
			continue
		}
		for side := range s.Wizards {
			w := &s.Wizards[side]
			if !w.Alive || w.X != a.X || w.Y != a.Y {
				continue
			}
			a.Present = false
			w.Mana += ArtifactManaBonus
			if w.Mana > MaxMana {
				w.Mana = MaxMana
			}
			w.HP += ArtifactHPBonus
			if w.HP > MaxHP {
				w.HP = MaxHP
			}
			s.trace(TraceEntry{Kind: TracePickup, Actor: int8(side), Target: int8(side), Amount: ArtifactManaBonus, X: a.X, Y: a.Y})
			break
		}
	}
}

func (s *State) spawnArtifact() {
	if s.Turn%ArtifactSpawnInterval != 0 {
		return
	}
	slot := -1
	for i := range s.Artifacts {
		if !s.Artifacts[i].Present {
			slot = i
			break
		}
	}
	if slot < 0 {
		return
	}
	// Bounded rejection sampling; an occupied draw after the attempt
	// budget just skips this spawn.
	for attempt := 0; attempt < 16; attempt++ {
		x := int8(s.randN(ArenaWidth))
		y := int8(s.randN(ArenaHeight))
		if s.cellOccupied(x, y) {
			continue
		}
		s.Artifacts[slot] = Artifact{X: x, Y: y, Present: true}
		return
	}
}

func (s *State) cellOccupied(x, y int8) bool {
	for i := range s.Wizards {
		if s.Wizards[i].Alive && s.Wizards[i].X == x && s.Wizards[i].Y == y {
			return true
		}
	}
	for i := range s.Artifacts {
		if s.Artifacts[i].Present && s.Artifacts[i].X == x && s.Artifacts[i].Y == y {
			return true
		}
	}
	return false
}

// TraceSince returns the trace entries appended by turns after the given
// turn number.
func (s *State) TraceSince(turn uint16) []TraceEntry {
	for i := range s.Trace {
		if s.Trace[i].Turn > turn {
			return s.Trace[i:]
		}
	}
	return nil
}

// String renders one trace entry as a human-readable log line.
func (e TraceEntry) String() string {
	unit := "wizard"
	if e.Minion {
		unit = "minion"
	}
	switch e.Kind {
	case TraceMove:
		return fmt.Sprintf("wizard %d moved to (%d,%d)", e.Actor, e.X, e.Y)
	case TraceSpell:
		return fmt.Sprintf("wizard %d cast %s", e.Actor, e.Spell)
	case TraceFizzle:
		return fmt.Sprintf("wizard %d failed to cast %s", e.Actor, e.Spell)
	case TraceDamage:
		return fmt.Sprintf("wizard %d dealt %d damage to %s of side %d", e.Actor, e.Amount, unit, e.Target)
	case TraceHeal:
		return fmt.Sprintf("wizard %d healed %d hp", e.Actor, e.Amount)
	case TraceSummon:
		return fmt.Sprintf("wizard %d summoned a minion at (%d,%d)", e.Actor, e.X, e.Y)
	case TracePickup:
		return fmt.Sprintf("wizard %d collected an artifact at (%d,%d)", e.Actor, e.X, e.Y)
	case TraceDeath:
		return fmt.Sprintf("%s of side %d was destroyed", unit, e.Target)
	default:
		return fmt.Sprintf("trace kind %d", e.Kind)
	}
}
