package runtime

import (
	"sanity/engine-go/pkg/ast"
)

// EntityID is a stable arena index. Ids are never reused, even after death.
type EntityID int

// Mood is the per-entity behavioral state.
type Mood string

const (
	MoodNeutral     Mood = "Neutral"
	MoodHappy       Mood = "Happy"
	MoodSad         Mood = "Sad"
	MoodAngry       Mood = "Angry"
	MoodAfraid      Mood = "Afraid"
	MoodExcited     Mood = "Excited"
	MoodJealous     Mood = "Jealous"
	MoodOverwhelmed Mood = "Overwhelmed"
	// MoodParanoid appears only on file handles whose format warrants it.
	MoodParanoid Mood = "Paranoid"
)

// Trait tags are derived from thresholds on entity state plus history flags.
type Trait string

const (
	TraitElder     Trait = "Elder"
	TraitResilient Trait = "Resilient"
	TraitTired     Trait = "Tired"
	TraitLucky     Trait = "Lucky"
	TraitUnlucky   Trait = "Unlucky"
	TraitParanoid  Trait = "Paranoid"
	TraitPopular   Trait = "Popular"
	TraitLonely    Trait = "Lonely"
	TraitCursed    Trait = "Cursed"
	TraitBlessed   Trait = "Blessed"
	TraitVolatile  Trait = "Volatile"
	TraitTainted   Trait = "Tainted"
	TraitCreative  Trait = "Creative"
)

// EntityKind is the structural variant of an entity.
type EntityKind int

const (
	EntityVariable EntityKind = iota
	EntityFunction
	EntityInstance
	EntityFileHandle
	EntityCanvas
	EntitySprite
)

// Entity is the unifying stateful record for every value-like thing: a
// variable, function, personality instance, file handle, canvas or sprite.
type Entity struct {
	ID   EntityID
	Name string
	Kind EntityKind
	Decl ast.DeclKind

	Value Value

	Mood      Mood
	MoodSetAt int
	Trust     int // clamped to [0,100]
	Age       int // monotonic, tick-driven
	Doubt     int // latches uncertainty at the configured threshold
	Scars     int // monotonic
	Traits    map[Trait]bool

	Observed    bool
	LastAccess  int
	AccessCount int
	ErrorCount  int

	// DunnoLock freezes dunno truthiness once observed.
	DunnoLock *bool

	// History holds every committed value, newest last.
	History  []Value
	Previous Value

	Uncertain bool
	GriefLeft int
	DeclLine  int

	// PinkySource links a pinky entity to the variable it promised to.
	PinkySource EntityID

	whateverCounter int

	// CurseVariance is nonzero while a curse link feeds noise into reads.
	CurseVariance float64

	// CallCount exists only for function entities.
	CallCount int

	// OwnSP is present only for kinds that carry an independent budget.
	OwnSP *float64

	// lastWriter records the vibe that last wrote, for race detection.
	lastWriter  string
	lastWriteAt int

	Alive bool
}

// HasTrait reports whether the entity carries the trait.
func (e *Entity) HasTrait(t Trait) bool { return e.Traits[t] }

// AddScar bumps the scar count; at the resilience threshold the entity stops
// accumulating coercion scars.
func (e *Entity) AddScar(cfg *Config) {
	e.Scars++
	if e.Scars >= cfg.ResilientScars && !e.HasTrait(TraitResilient) {
		e.Traits[TraitResilient] = true
	}
}

// LoseTrust clamps at 0 and applies the anger and paranoia thresholds.
func (e *Entity) LoseTrust(amount int, tick int, cfg *Config) {
	e.Trust -= amount
	if e.Trust < 0 {
		e.Trust = 0
	}
	if e.Trust < cfg.AngryTrust && e.Mood != MoodAngry {
		e.Mood = MoodAngry
		e.MoodSetAt = tick
	}
	if e.Trust < cfg.ParanoidTrust {
		e.Traits[TraitParanoid] = true
	}
}

// GainTrust clamps at 100.
func (e *Entity) GainTrust(amount int) {
	e.Trust += amount
	if e.Trust > 100 {
		e.Trust = 100
	}
}

// RecordAccess updates access bookkeeping and the access-derived mood and
// traits. Ghost age stays pinned at 0.
func (e *Entity) RecordAccess(tick int, cfg *Config) {
	e.AccessCount++
	e.LastAccess = tick
	if e.Decl != ast.DeclGhost {
		e.Age = tick
	}
	if e.AccessCount == cfg.HappyAccessCount {
		e.Mood = MoodHappy
		e.MoodSetAt = tick
	}
	if e.AccessCount >= cfg.TiredAccessCount {
		e.Traits[TraitTired] = true
	}
	if e.Age > cfg.ElderAge {
		e.Traits[TraitElder] = true
	}
}

// DecayMood returns the mood to Neutral once the configured window elapses;
// anger holds until trust recovers.
func (e *Entity) DecayMood(tick int, cfg *Config) {
	if e.Mood == MoodNeutral {
		return
	}
	if e.Mood == MoodAngry && e.Trust < cfg.AngryTrust {
		return
	}
	if tick-e.MoodSetAt >= cfg.MoodDecayTicks {
		e.Mood = MoodNeutral
	}
}

// CheckNeglect turns a neutral, unvisited entity Sad.
func (e *Entity) CheckNeglect(tick int, cfg *Config) {
	if tick-e.LastAccess >= cfg.NeglectTicks && e.Mood == MoodNeutral {
		e.Mood = MoodSad
		e.MoodSetAt = tick
	}
}

// ApplyMoodToNumber folds the entity's mood into a numeric result. Elders
// are immune.
func (e *Entity) ApplyMoodToNumber(result float64) float64 {
	if e.HasTrait(TraitElder) {
		return result
	}
	switch {
	case e.Mood == MoodHappy:
		return result + 1
	case e.Mood == MoodSad:
		return result - 1
	case e.HasTrait(TraitTired):
		return result - 1
	}
	return result
}

// ApplyMoodToWord folds the entity's mood into a word result.
func (e *Entity) ApplyMoodToWord(result string) string {
	if e.HasTrait(TraitElder) {
		return result
	}
	switch {
	case e.Mood == MoodHappy:
		return result + "!"
	case e.Mood == MoodSad && len(result) > 0:
		return result[:len(result)-1]
	case e.HasTrait(TraitTired) && len(result) > 0:
		return result[:len(result)-1]
	}
	return result
}

// GainTrait applies trait interactions: Blessed dispels Cursed, a Blessed
// entity cannot be cursed, Elder cancels Tired.
func (e *Entity) GainTrait(t Trait) {
	if t == TraitCursed && e.HasTrait(TraitBlessed) {
		return
	}
	if t == TraitBlessed {
		delete(e.Traits, TraitCursed)
	}
	e.Traits[t] = true
	if e.HasTrait(TraitElder) {
		delete(e.Traits, TraitTired)
	}
}

// CheckWhateverDrift mutates whatever-declared values every drift window.
// Elders are immune.
func (e *Entity) CheckWhateverDrift(rng Rand, cfg *Config) {
	if e.Decl != ast.DeclWhatever || e.HasTrait(TraitElder) {
		return
	}
	e.whateverCounter++
	if e.whateverCounter < cfg.WhateverDriftTicks {
		return
	}
	e.whateverCounter = 0
	switch val := e.Value.(type) {
	case NumberValue:
		shift := val.Val * 0.1
		if rng.Intn(2) == 0 {
			shift = -shift
		}
		e.Value = NumberValue{Val: val.Val + shift}
	case WordValue:
		if len(val.Val) == 0 {
			return
		}
		runes := []rune(val.Val)
		i := rng.Intn(len(runes))
		runes[i] = rune('a' + rng.Intn(26))
		e.Value = WordValue{Val: string(runes)}
	}
}

// RecordWrite notes which task wrote and when. Returns true when a
// different task wrote at the same tick, which is the detectable form of an
// unprotected concurrent write.
func (e *Entity) RecordWrite(writer string, tick int) bool {
	raced := e.lastWriter != "" && e.lastWriter != writer && e.lastWriteAt == tick
	e.lastWriter = writer
	e.lastWriteAt = tick
	return raced
}

//-----------------------------------------------------------------------------
// Declaration-kind rule table
//-----------------------------------------------------------------------------

// DeclRule is the closed behavior matrix keyed by declaration kind. The
// matrix is fixed (ten kinds, few rules), so a flat table beats dispatch.
type DeclRule struct {
	// Reassignable allows plain assignment after declaration.
	Reassignable bool
	// OverrideOnly requires a fresh same-kind declaration to replace.
	OverrideOnly bool
	// CrashOnWrite makes any reassignment attempt a fatal crash.
	CrashOnWrite bool
	// SeanceOnly bars direct reads; séance is the only access path.
	SeanceOnly bool
	// ScopeLocal yields Void outside the declaring scope.
	ScopeLocal bool
	// EventWrites funnels mutations through the serial event queue.
	EventWrites bool
	// TracksDoubt bumps Doubt on every reassignment.
	TracksDoubt bool
	// Persistent marks the entity for cross-run dream storage.
	Persistent bool
	// Contagious applies the value as variance to same-typed neighbors.
	Contagious bool
	// Linked ties the entity's fate to its pinky source.
	Linked bool
}

var declRules = map[ast.DeclKind]DeclRule{
	ast.DeclSure:     {OverrideOnly: true},
	ast.DeclMaybe:    {Reassignable: true, TracksDoubt: true},
	ast.DeclWhatever: {Reassignable: true},
	ast.DeclSwear:    {CrashOnWrite: true},
	ast.DeclPinky:    {Reassignable: true, Linked: true},
	ast.DeclGhost:    {SeanceOnly: true},
	ast.DeclDream:    {Reassignable: true, Persistent: true},
	ast.DeclWhisper:  {Reassignable: true, ScopeLocal: true},
	ast.DeclCurse:    {Contagious: true},
	ast.DeclScream:   {Reassignable: true, EventWrites: true},
}

// RuleFor looks up the declaration rule; unknown kinds behave like sure.
func RuleFor(kind ast.DeclKind) DeclRule {
	if r, ok := declRules[kind]; ok {
		return r
	}
	return declRules[ast.DeclSure]
}
