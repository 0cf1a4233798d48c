package engine

import "testing"

// TestNewStartingState verifies starting positions and resources.
func TestNewStartingState(t *testing.T) {
	s := New(42)
	for i := range s.Wizards {
		w := s.Wizards[i]
		if w.HP != StartHP {
			t.Errorf("wizard %d HP = %d, want %d", i, w.HP, StartHP)
		}
		if w.Mana != StartMana {
			t.Errorf("wizard %d Mana = %d, want %d", i, w.Mana, StartMana)
		}
		if !w.Alive {
			t.Errorf("wizard %d not alive at start", i)
		}
	}
	if s.Wizards[0].X != 0 || s.Wizards[1].X != ArenaWidth-1 {
		t.Errorf("wizards not on opposite edges: x0=%d x1=%d", s.Wizards[0].X, s.Wizards[1].X)
	}
	if s.Winner() != WinnerNone {
		t.Errorf("Winner() = %d at start, want %d", s.Winner(), WinnerNone)
	}
}

// TestStepMovementClamping verifies oversized moves are clamped to one
// step and positions stay inside the arena.
func TestStepMovementClamping(t *testing.T) {
	s := New(1)
	if err := s.Step([MaxPlayers]Action{{DX: 5, DY: -7}, {DX: -3, DY: 0}}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if s.Wizards[0].X != 1 {
		t.Errorf("wizard 0 X = %d, want 1 (clamped unit move)", s.Wizards[0].X)
	}
	if s.Wizards[0].Y != ArenaHeight/2-1 {
		t.Errorf("wizard 0 Y = %d, want %d", s.Wizards[0].Y, ArenaHeight/2-1)
	}
	if s.Wizards[1].X != ArenaWidth-2 {
		t.Errorf("wizard 1 X = %d, want %d", s.Wizards[1].X, ArenaWidth-2)
	}

	// Walking into the wall keeps the wizard in bounds.
	s2 := New(1)
	for i := 0; i < 20; i++ {
		if err := s2.Step([MaxPlayers]Action{{DX: -1}, {DX: 1}}); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	if s2.Wizards[0].X != 0 || s2.Wizards[1].X != ArenaWidth-1 {
		t.Errorf("wizards left arena: x0=%d x1=%d", s2.Wizards[0].X, s2.Wizards[1].X)
	}
}

// TestFireballHitAndMana verifies a fireball in range spends mana and
// damages the enemy wizard under the blast.
func TestFireballHitAndMana(t *testing.T) {
	s := New(7)
	// Put the wizards in range of each other.
	s.Wizards[0].X, s.Wizards[0].Y = 4, 5
	s.Wizards[1].X, s.Wizards[1].Y = 6, 5

	act := [MaxPlayers]Action{{Spell: SpellFireball, TargetX: 6, TargetY: 5}, {}}
	if err := s.Step(act); err != nil {
		t.Fatalf("Step: %v", err)
	}

	wantHP := int16(StartHP - FireballDamage)
	if s.Wizards[1].HP != wantHP {
		t.Errorf("wizard 1 HP = %d, want %d", s.Wizards[1].HP, wantHP)
	}
	wantMana := int16(StartMana - FireballCost + ManaRegen)
	if s.Wizards[0].Mana != wantMana {
		t.Errorf("wizard 0 Mana = %d, want %d", s.Wizards[0].Mana, wantMana)
	}
}

// TestFireballOutOfRangeFizzles verifies an unreachable target costs
// nothing and deals nothing.
func TestFireballOutOfRangeFizzles(t *testing.T) {
	s := New(7)
	act := [MaxPlayers]Action{{Spell: SpellFireball, TargetX: ArenaWidth - 1, TargetY: 5}, {}}
	if err := s.Step(act); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if s.Wizards[1].HP != StartHP {
		t.Errorf("wizard 1 HP = %d, want untouched %d", s.Wizards[1].HP, StartHP)
	}
	if s.Wizards[0].Mana != StartMana+ManaRegen {
		t.Errorf("wizard 0 Mana = %d, want no spend", s.Wizards[0].Mana)
	}
	found := false
	for _, e := range s.Trace {
		if e.Kind == TraceFizzle && e.Actor == 0 && e.Spell == SpellFireball {
			found = true
		}
	}
	if !found {
		t.Error("expected a fizzle trace entry for the out-of-range fireball")
	}
}

// TestHealCapped verifies healing never exceeds MaxHP.
func TestHealCapped(t *testing.T) {
	s := New(3)
	s.Wizards[0].HP = MaxHP - 5
	if err := s.Step([MaxPlayers]Action{{Spell: SpellHeal}, {}}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if s.Wizards[0].HP != MaxHP {
		t.Errorf("wizard 0 HP = %d, want capped at %d", s.Wizards[0].HP, MaxHP)
	}
}

// TestSummonLimit verifies a side cannot field more than
// MaxMinionsPerSide minions.
func TestSummonLimit(t *testing.T) {
	s := New(9)
	s.Wizards[0].Mana = MaxMana
	summon := [MaxPlayers]Action{{Spell: SpellSummon}, {}}
	for i := 0; i < MaxMinionsPerSide+2; i++ {
		s.Wizards[0].Mana = MaxMana
		if err := s.Step(summon); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	live := 0
	for _, m := range s.Minions {
		if m.Alive && m.Owner == 0 {
			live++
		}
	}
	if live != MaxMinionsPerSide {
		t.Errorf("live minions = %d, want %d", live, MaxMinionsPerSide)
	}
}

// TestWinnerAndTerminal verifies kill detection, the draw sentinel, and
// that Step refuses to advance a finished duel.
func TestWinnerAndTerminal(t *testing.T) {
	s := New(11)
	s.Wizards[1].HP = 1
	s.Wizards[0].X, s.Wizards[0].Y = 5, 5
	s.Wizards[1].X, s.Wizards[1].Y = 6, 5
	if err := s.Step([MaxPlayers]Action{{Spell: SpellFireball, TargetX: 6, TargetY: 5}, {}}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if s.Winner() != 0 {
		t.Fatalf("Winner() = %d, want 0", s.Winner())
	}
	if !s.IsTerminal() {
		t.Fatal("IsTerminal() = false after kill")
	}
	if err := s.Step([MaxPlayers]Action{}); err != ErrGameOver {
		t.Errorf("Step on terminal state = %v, want ErrGameOver", err)
	}

	// Mutual destruction is the draw sentinel.
	s2 := New(11)
	s2.Wizards[0].Alive = false
	s2.Wizards[1].Alive = false
	if s2.Winner() != WinnerDraw {
		t.Errorf("Winner() = %d, want %d", s2.Winner(), WinnerDraw)
	}
}

// TestArtifactSpawnAndPickup verifies the spawn cadence and that a wizard
// standing on an artifact collects its bonuses.
func TestArtifactSpawnAndPickup(t *testing.T) {
	s := New(21)
	noop := [MaxPlayers]Action{}
	for i := 0; i < ArtifactSpawnInterval; i++ {
		if err := s.Step(noop); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	present := 0
	for _, a := range s.Artifacts {
		if a.Present {
			present++
		}
	}
	if present != 1 {
		t.Fatalf("artifacts present = %d after turn %d, want 1", present, s.Turn)
	}

	// Teleport wizard 0 next to the artifact and walk onto it.
	var art Artifact
	for _, a := range s.Artifacts {
		if a.Present {
			art = a
		}
	}
	s.Wizards[0].X, s.Wizards[0].Y = art.X, art.Y
	s.Wizards[0].Mana = 10
	s.Wizards[0].HP = 50
	if err := s.Step(noop); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if s.Wizards[0].Mana != 10+ArtifactManaBonus+ManaRegen {
		t.Errorf("Mana = %d after pickup, want %d", s.Wizards[0].Mana, 10+ArtifactManaBonus+ManaRegen)
	}
	if s.Wizards[0].HP != 50+ArtifactHPBonus {
		t.Errorf("HP = %d after pickup, want %d", s.Wizards[0].HP, 50+ArtifactHPBonus)
	}
}

// TestDeterminism verifies identical seeds and action sequences produce
// identical states and traces.
func TestDeterminism(t *testing.T) {
	run := func() *State {
		s := New(1234)
		for i := 0; i < 30 && !s.IsTerminal(); i++ {
			acts := [MaxPlayers]Action{
				{DX: 1, Spell: SpellFireball, TargetX: int8(i % ArenaWidth), TargetY: 5},
				{DX: -1, Spell: SpellSummon},
			}
			if err := s.Step(acts); err != nil {
				t.Fatalf("Step %d: %v", i, err)
			}
		}
		return s
	}
	a, b := run(), run()
	if a.Wizards != b.Wizards || a.Minions != b.Minions || a.Artifacts != b.Artifacts || a.Turn != b.Turn {
		t.Error("states diverged for identical seed and actions")
	}
	if len(a.Trace) != len(b.Trace) {
		t.Fatalf("trace lengths diverged: %d vs %d", len(a.Trace), len(b.Trace))
	}
	for i := range a.Trace {
		if a.Trace[i] != b.Trace[i] {
			t.Fatalf("trace entry %d diverged: %+v vs %+v", i, a.Trace[i], b.Trace[i])
		}
	}
}

// TestTraceSince verifies trailing-trace retrieval by turn number.
func TestTraceSince(t *testing.T) {
	s := New(5)
	move := [MaxPlayers]Action{{DX: 1}, {DX: -1}}
	for i := 0; i < 3; i++ {
		if err := s.Step(move); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	tail := s.TraceSince(2)
	if len(tail) == 0 {
		t.Fatal("TraceSince(2) returned nothing")
	}
	for _, e := range tail {
		if e.Turn <= 2 {
			t.Errorf("TraceSince(2) included entry from turn %d", e.Turn)
		}
	}
}
