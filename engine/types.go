package engine

const (
	MaxPlayers  = 2
	ArenaWidth  = 11
	ArenaHeight = 11

	StartHP   = 100
	MaxHP     = 100
	StartMana = 50
	MaxMana   = 100
	ManaRegen = 10

	MaxMinionsPerSide = 3
	MaxMinions        = MaxPlayers * MaxMinionsPerSide
	MaxArtifacts      = 4

	// An artifact spawns on every ArtifactSpawnInterval-th turn while there
	// is room on the board.
	ArtifactSpawnInterval = 7
	ArtifactManaBonus     = 20
	ArtifactHPBonus       = 5
)

// SpellKind identifies the spell cast alongside a move, if any.
type SpellKind uint8

const (
	SpellNone SpellKind = iota
	SpellFireball
	SpellHeal
	SpellSummon
)

// Spell parameters. Range and blast radius are Chebyshev distances.
const (
	FireballCost   = 30
	FireballRange  = 5
	FireballRadius = 1
	FireballDamage = 22

	HealCost   = 25
	HealAmount = 15

	SummonCost   = 40
	MinionHP     = 10
	MinionDamage = 4
)

// String returns the wire name of the spell kind.
func (k SpellKind) String() string {
	switch k {
	case SpellFireball:
		return "fireball"
	case SpellHeal:
		return "heal"
	case SpellSummon:
		return "summon"
	default:
		return "none"
	}
}

// Action is one side's input for a single turn: a unit move plus an
// optional spell with its target cell. Move components outside [-1, 1]
// are clamped, not rejected.
type Action struct {
	DX, DY  int8
	Spell   SpellKind
	TargetX int8
	TargetY int8
}

// WizardState is one side's unit.
type WizardState struct {
	HP    int16
	Mana  int16
	X, Y  int8
	Alive bool
}

// Minion is a summoned unit that advances toward the enemy wizard.
type Minion struct {
	Owner uint8
	HP    int16
	X, Y  int8
	Alive bool
}

// Artifact is a pickup granting mana and hp to the wizard stepping onto it.
type Artifact struct {
	X, Y    int8
	Present bool
}

// Winner sentinels. Non-negative values are the surviving side's index.
const (
	WinnerNone int8 = -1
	WinnerDraw int8 = -2
)

// TraceKind tags one entry of the engine's internal event trace.
type TraceKind uint8

const (
	TraceMove TraceKind = iota
	TraceSpell
	TraceFizzle
	TraceDamage
	TraceHeal
	TraceSummon
	TracePickup
	TraceDeath
)

// TraceEntry records one effect applied during Step. Actor is the side
// that caused the effect; Target is the side it landed on (or the actor
// itself for self-directed effects). Amount carries damage, healing, or
// mana gained depending on Kind.
type TraceEntry struct {
	Turn   uint16
	Kind   TraceKind
	Actor  int8
	Target int8
	Spell  SpellKind
	Amount int16
	X, Y   int8
	Minion bool // effect involved a minion rather than a wizard
}
