package runtime

import (
	"sync"

	"sanity/engine-go/pkg/ast"
)

// MutationKind labels what a committed mutation changed, for propagation
// facet selection.
type facetChange struct {
	moodChanged  bool
	newTraits    []Trait
	trustDropped bool
	curseVar     float64
	valueChanged bool
	errored      bool
}

// Context owns the shared services for one program run. Everything the
// evaluator and its tasks touch hangs off one of these; there is no ambient
// global state, so tests build a fresh Context and throw it away.
type Context struct {
	Store     *EntityStore
	Graph     *Graph
	Ledger    *Ledger
	Afterlife *Afterlife
	Memo      *MemoStore
	Rand      Rand
	Config    *Config

	tickMu sync.Mutex
	tick   int
}

// NewContext wires the services from a config and a randomness source.
func NewContext(cfg *Config, rng Rand) *Context {
	return &Context{
		Store:     NewEntityStore(),
		Graph:     NewGraph(),
		Ledger:    NewLedger(cfg),
		Afterlife: NewAfterlife(cfg.SeanceCap),
		Memo:      NewMemoStore(cfg.MemoCapacity),
		Rand:      rng,
		Config:    cfg,
	}
}

// Tick returns the current global tick.
func (c *Context) Tick() int {
	c.tickMu.Lock()
	defer c.tickMu.Unlock()
	return c.tick
}

// advance bumps the tick exactly once and returns the new value. Every
// committed mutation calls this; nothing else does.
func (c *Context) advance() int {
	c.tickMu.Lock()
	c.tick++
	t := c.tick
	c.tickMu.Unlock()
	c.deliver(t)
	return t
}

// Mutate applies a transition to a live entity, bumps the tick, and
// schedules one propagation step for whichever facets the transition
// changed.
func (c *Context) Mutate(id EntityID, fn func(*Entity)) (*Entity, error) {
	e, err := c.Store.Get(id)
	if err != nil {
		return nil, err
	}
	beforeMood := e.Mood
	beforeTrust := e.Trust
	beforeTraits := make(map[Trait]bool, len(e.Traits))
	for t := range e.Traits {
		beforeTraits[t] = true
	}
	beforeValue := e.Value

	fn(e)

	var ch facetChange
	ch.moodChanged = e.Mood != beforeMood
	ch.trustDropped = e.Trust < beforeTrust
	ch.valueChanged = !ValuesEqual(e.Value, beforeValue)
	for t := range e.Traits {
		if !beforeTraits[t] {
			ch.newTraits = append(ch.newTraits, t)
		}
	}
	tick := c.advance()
	c.propagate(e, ch, tick)
	return e, nil
}

// MarkErrored records an error state on an entity: every Bond-neighbor
// loses trust, queued with the usual one-hop delay.
func (c *Context) MarkErrored(id EntityID) {
	e, err := c.Store.Get(id)
	if err != nil {
		return
	}
	e.ErrorCount++
	tick := c.advance()
	for _, n := range c.Graph.Neighbors(id, EdgeBond) {
		c.Graph.Enqueue(Wave{
			Target:      n,
			Source:      id,
			Facet:       FacetTrust,
			TrustDelta:  -5,
			ArrivalTick: tick + 1,
		})
	}
}

// propagate enqueues one wave per changed facet per eligible edge.
func (c *Context) propagate(e *Entity, ch facetChange, tick int) {
	if ch.moodChanged {
		for _, n := range c.Graph.Neighbors(e.ID, EdgeBond, EdgeLoves) {
			c.Graph.Enqueue(Wave{
				Target: n, Source: e.ID,
				Facet: FacetMood, Mood: e.Mood,
				ArrivalTick: tick + 1,
			})
		}
	}
	if len(ch.newTraits) > 0 {
		for _, n := range c.Graph.Neighbors(e.ID, EdgeBond, EdgeLoves, EdgeTraitShare) {
			for _, t := range ch.newTraits {
				c.Graph.Enqueue(Wave{
					Target: n, Source: e.ID,
					Facet: FacetTrait, Trait: t,
					ArrivalTick: tick + 1,
				})
			}
		}
	}
	if ch.valueChanged {
		for _, edge := range c.Graph.Edges(e.ID) {
			if edge.Kind == EdgeMirrors && edge.To == e.ID {
				// A mirrors B: B's writes reach A one tick later.
				c.Graph.Enqueue(Wave{
					Target: edge.From, Source: e.ID,
					Facet: FacetValue, Value: CopyValue(e.Value),
					ArrivalTick: tick + 1,
				})
			}
		}
	}
	if RuleFor(e.Decl).Contagious {
		if num, ok := e.Value.(NumberValue); ok {
			for _, edge := range c.Graph.Edges(e.ID) {
				if edge.Kind == EdgeCurseLink && edge.From == e.ID {
					c.Graph.Enqueue(Wave{
						Target: edge.To, Source: e.ID,
						Facet: FacetCurse, Variance: num.Val,
						ArrivalTick: tick + 1,
					})
				}
			}
		}
	}
}

// deliver applies every wave due at the tick. A committed facet change is
// itself a mutation and re-enters propagation; a wave landing on an already
// matching value is dropped, which is what keeps reflow bounded.
func (c *Context) deliver(tick int) {
	for _, w := range c.Graph.DueAt(tick) {
		e, err := c.Store.Get(w.Target)
		if err != nil {
			continue
		}
		switch w.Facet {
		case FacetMood, FacetHaunt:
			if e.Mood == w.Mood {
				continue
			}
			e.Mood = w.Mood
			e.MoodSetAt = tick
			c.propagate(e, facetChange{moodChanged: true}, c.advance())
		case FacetTrait:
			if e.HasTrait(w.Trait) {
				continue
			}
			// Paranoid entities refuse traits that arrive through bonds.
			if e.HasTrait(TraitParanoid) {
				continue
			}
			e.GainTrait(w.Trait)
			c.propagate(e, facetChange{newTraits: []Trait{w.Trait}}, c.advance())
		case FacetValue:
			if ValuesEqual(e.Value, w.Value) {
				continue
			}
			e.Value = w.Value
			c.propagate(e, facetChange{valueChanged: true}, c.advance())
		case FacetTrust:
			e.LoseTrust(-w.TrustDelta, tick, c.Config)
		case FacetCurse:
			e.CurseVariance = w.Variance
		}
	}
}

// Destroy kills an entity: archive the snapshot, settle bond breaks, turn
// outbound hauntings into expiring waves, and free the slot. Ghosts skip
// the graph entirely.
func (c *Context) Destroy(id EntityID, reason string) {
	e := c.Store.Peek(id)
	if e == nil || !e.Alive {
		return
	}
	tick := c.Tick()
	wasGhost := e.Decl == ast.DeclGhost
	c.Afterlife.Archive(e, tick, wasGhost)
	if !wasGhost {
		for _, edge := range c.Graph.Detach(id) {
			switch edge.Kind {
			case EdgeBond:
				c.Ledger.Charge(CostBondBreak)
				other := edge.From
				if other == id {
					other = edge.To
				}
				if survivor, err := c.Store.Get(other); err == nil {
					survivor.Mood = MoodSad
					survivor.MoodSetAt = tick
					survivor.GriefLeft = c.Config.GriefTicks
				}
			case EdgeHaunts:
				if edge.From == id {
					c.Graph.Enqueue(Wave{
						Target: edge.To, Source: id,
						Facet: FacetHaunt, Mood: MoodAfraid,
						ArrivalTick: tick + 1,
						ExpiresTick: tick + c.Config.HauntTicks,
					})
				}
			}
		}
	}
	if e.Kind == EntityInstance {
		c.Ledger.Charge(CostInstanceDeath)
	}
	c.Memo.Forget(e.Name)
	c.Store.Kill(id)
	c.advance()
}

// Touch records an access on an entity and runs the access-driven state
// rules, committing through Mutate so mood shifts propagate.
func (c *Context) Touch(id EntityID) (*Entity, error) {
	return c.Mutate(id, func(e *Entity) {
		e.RecordAccess(c.Tick(), c.Config)
		e.DecayMood(c.Tick(), c.Config)
	})
}

// Sweep runs the periodic per-entity upkeep: neglect, mood decay, drift,
// observation reset, grief countdown. Called between statements.
func (c *Context) Sweep() {
	tick := c.Tick()
	for _, e := range c.Store.Live() {
		e.CheckNeglect(tick, c.Config)
		e.DecayMood(tick, c.Config)
		e.CheckWhateverDrift(c.Rand, c.Config)
		if e.Observed && tick-e.LastAccess >= c.Config.ObserveResetTicks {
			e.Observed = false
			e.DunnoLock = nil
		}
		if e.GriefLeft > 0 {
			e.GriefLeft--
		}
		deg := c.Graph.Degree(e.ID)
		if deg >= c.Config.PopularDegree {
			e.Traits[TraitPopular] = true
		}
		if deg == 0 && tick-e.LastAccess >= c.Config.LonelyIdleTicks {
			e.Traits[TraitLonely] = true
		} else {
			delete(e.Traits, TraitLonely)
		}
		// Popularity pays a small trust dividend; loneliness taxes it and
		// sours a neutral mood.
		if e.HasTrait(TraitPopular) {
			e.GainTrust(1)
		}
		if e.HasTrait(TraitLonely) {
			e.LoseTrust(1, tick, c.Config)
			if e.Mood == MoodNeutral {
				e.Mood = MoodSad
				e.MoodSetAt = tick
			}
		}
	}
}
