// Package bots holds the builtin opponents. Each bot is a pure decision
// function over the public state snapshot: no goroutines, no clocks, no
// state between turns.
package bots

import (
	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/engine"
	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/game"
	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/models"
)

type entry struct {
	name   string
	decide game.DecideFunc
}

var registry = map[string]entry{
	"aggressor": {name: "Aggressor", decide: Aggressor},
	"trickster": {name: "Trickster", decide: Trickster},
	"pacifist":  {name: "Pacifist", decide: Pacifist},
}

// Resolve satisfies game.BotResolver.
func Resolve(botID string) (game.DecideFunc, string, bool) {
	e, ok := registry[botID]
	if !ok {
		return nil, "", false
	}
	return e.decide, e.name, true
}

// IDs lists the available builtin bot ids.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	return ids
}

func findPlayer(view game.StateView, id string) (game.PlayerView, bool) {
	for _, p := range view.Players {
		if p.PlayerID == id {
			return p, true
		}
	}
	return game.PlayerView{}, false
}

func chebyshev(a, b [2]int) int {
	dx := a[0] - b[0]
	if dx < 0 {
		dx = -dx
	}
	dy := a[1] - b[1]
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

func unit(v int) int {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

func stepToward(from, to [2]int) *[2]int {
	return &[2]int{unit(to[0] - from[0]), unit(to[1] - from[1])}
}

func stepAway(from, to [2]int) *[2]int {
	return &[2]int{unit(from[0] - to[0]), unit(from[1] - to[1])}
}

func nearestArtifact(view game.StateView, from [2]int) (*[2]int, bool) {
	best := -1
	var pos [2]int
	for _, a := range view.Artifacts {
		d := chebyshev(from, a.Position)
		if best < 0 || d < best {
			best = d
			pos = a.Position
		}
	}
	if best < 0 {
		return nil, false
	}
	return &pos, true
}

// Aggressor closes distance and fireballs as soon as the opponent is in
// range, spending spare mana on minions.
func Aggressor(view game.StateView, self, opponent string) models.Action {
	me, ok := findPlayer(view, self)
	if !ok {
		return models.DefaultAction()
	}
	foe, ok := findPlayer(view, opponent)
	if !ok || !foe.Alive {
		return models.DefaultAction()
	}

	act := models.Action{Move: stepToward(me.Position, foe.Position)}
	switch {
	case me.Mana >= engine.FireballCost && chebyshev(me.Position, foe.Position) <= engine.FireballRange:
		target := foe.Position
		act.Spell = &models.Spell{Kind: "fireball", Target: &target}
	case me.Mana >= engine.SummonCost+engine.FireballCost:
		act.Spell = &models.Spell{Kind: "summon"}
	}
	return act
}

// Trickster orbits the opponent at fireball range, detours for
// artifacts, and keeps a minion screen up.
func Trickster(view game.StateView, self, opponent string) models.Action {
	me, ok := findPlayer(view, self)
	if !ok {
		return models.DefaultAction()
	}
	foe, ok := findPlayer(view, opponent)
	if !ok {
		return models.DefaultAction()
	}

	var act models.Action
	if target, ok := nearestArtifact(view, me.Position); ok {
		act.Move = stepToward(me.Position, *target)
	} else if chebyshev(me.Position, foe.Position) > engine.FireballRange {
		act.Move = stepToward(me.Position, foe.Position)
	} else {
		// Sidestep on alternating turns to stay hard to corner.
		dir := 1
		if view.Turn%2 == 0 {
			dir = -1
		}
		act.Move = &[2]int{0, dir}
	}

	minions := 0
	for _, m := range view.Minions {
		if m.OwnerID == self {
			minions++
		}
	}
	switch {
	case minions < engine.MaxMinionsPerSide && me.Mana >= engine.SummonCost:
		act.Spell = &models.Spell{Kind: "summon"}
	case me.Mana >= engine.FireballCost && chebyshev(me.Position, foe.Position) <= engine.FireballRange:
		target := foe.Position
		act.Spell = &models.Spell{Kind: "fireball", Target: &target}
	}
	return act
}

// Pacifist keeps its distance, heals when hurt, and lives off artifacts.
func Pacifist(view game.StateView, self, opponent string) models.Action {
	me, ok := findPlayer(view, self)
	if !ok {
		return models.DefaultAction()
	}

	var act models.Action
	if target, ok := nearestArtifact(view, me.Position); ok {
		act.Move = stepToward(me.Position, *target)
	} else if foe, ok := findPlayer(view, opponent); ok && foe.Alive {
		act.Move = stepAway(me.Position, foe.Position)
	} else {
		act.Move = &[2]int{0, 0}
	}

	if me.HP < engine.MaxHP && me.Mana >= engine.HealCost {
		act.Spell = &models.Spell{Kind: "heal"}
	}
	return act
}
