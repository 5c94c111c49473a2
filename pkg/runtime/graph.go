package runtime

import (
	"sort"
	"sync"
)

// EdgeKind types a relationship edge.
type EdgeKind int

const (
	EdgeBond EdgeKind = iota
	EdgeLoves
	EdgeHates
	EdgeFears
	EdgeEnvies
	EdgeIgnores
	EdgeMirrors
	EdgeHaunts
	EdgeCall
	EdgeTraitShare
	EdgeCurseLink
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeBond:
		return "Bond"
	case EdgeLoves:
		return "Loves"
	case EdgeHates:
		return "Hates"
	case EdgeFears:
		return "Fears"
	case EdgeEnvies:
		return "Envies"
	case EdgeIgnores:
		return "Ignores"
	case EdgeMirrors:
		return "Mirrors"
	case EdgeHaunts:
		return "Haunts"
	case EdgeCall:
		return "Call"
	case EdgeTraitShare:
		return "TraitShare"
	case EdgeCurseLink:
		return "CurseLink"
	default:
		return "Unknown"
	}
}

// undirected reports whether the kind is stored once and queried from both
// ends.
func (k EdgeKind) undirected() bool {
	return k == EdgeBond || k == EdgeTraitShare
}

// Edge is a plain id-pair with a kind tag. Cycles cost nothing: there are no
// owning pointers between entities, only arena ids.
type Edge struct {
	From, To  EntityID
	Kind      EdgeKind
	CreatedAt int
}

// Facet names a propagable aspect of an entity's state. Lower values apply
// first when two waves land on the same target at the same tick; traits
// deliberately precede mood.
type Facet int

const (
	FacetTrait Facet = iota
	FacetMood
	FacetValue
	FacetTrust
	FacetCurse
	FacetHaunt
)

// Wave is one queued propagation step: a facet value traveling one hop, due
// at ArrivalTick.
type Wave struct {
	Target      EntityID
	Source      EntityID
	Facet       Facet
	Mood        Mood
	Trait       Trait
	Value       Value
	TrustDelta  int
	Variance    float64
	ArrivalTick int
	// ExpiresTick bounds one-shot overrides (haunting).
	ExpiresTick int
}

// Graph maintains the typed edge set over live entity ids and the wave
// queue that drives one-hop-per-tick propagation.
type Graph struct {
	mu    sync.RWMutex
	edges []Edge
	adj   map[EntityID][]int // entity -> indexes into edges
	waves []Wave
}

func NewGraph() *Graph {
	return &Graph{adj: make(map[EntityID][]int)}
}

// AddEdge inserts an edge unless an identical one already exists.
func (g *Graph) AddEdge(from, to EntityID, kind EdgeKind, tick int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.findLocked(from, to, kind) >= 0 {
		return
	}
	idx := len(g.edges)
	g.edges = append(g.edges, Edge{From: from, To: to, Kind: kind, CreatedAt: tick})
	g.adj[from] = append(g.adj[from], idx)
	if to != from {
		g.adj[to] = append(g.adj[to], idx)
	}
}

func (g *Graph) findLocked(from, to EntityID, kind EdgeKind) int {
	for _, idx := range g.adj[from] {
		e := g.edges[idx]
		if e.Kind != kind {
			continue
		}
		if e.From == from && e.To == to {
			return idx
		}
		if kind.undirected() && e.From == to && e.To == from {
			return idx
		}
	}
	return -1
}

// HasEdge reports edge existence, honoring direction for directed kinds.
func (g *Graph) HasEdge(from, to EntityID, kind EdgeKind) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.findLocked(from, to, kind) >= 0
}

// RemoveEdge deletes a single edge.
func (g *Graph) RemoveEdge(from, to EntityID, kind EdgeKind) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := g.findLocked(from, to, kind)
	if idx < 0 {
		return
	}
	g.dropLocked(idx)
}

func (g *Graph) dropLocked(idx int) {
	e := g.edges[idx]
	g.edges[idx] = Edge{From: -1, To: -1} // tombstone; indexes stay stable
	g.adj[e.From] = removeIndex(g.adj[e.From], idx)
	g.adj[e.To] = removeIndex(g.adj[e.To], idx)
}

func removeIndex(idxs []int, idx int) []int {
	out := idxs[:0]
	for _, i := range idxs {
		if i != idx {
			out = append(out, i)
		}
	}
	return out
}

// Forget severs every relationship between two entities, both directions.
func (g *Graph) Forget(a, b EntityID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, idx := range append([]int(nil), g.adj[a]...) {
		e := g.edges[idx]
		if (e.From == a && e.To == b) || (e.From == b && e.To == a) {
			g.dropLocked(idx)
		}
	}
}

// Edges returns the live edges touching an entity.
func (g *Graph) Edges(id EntityID) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, 0, len(g.adj[id]))
	for _, idx := range g.adj[id] {
		out = append(out, g.edges[idx])
	}
	return out
}

// Neighbors returns the distinct entities reachable over the given kinds,
// respecting direction for directed kinds.
func (g *Graph) Neighbors(id EntityID, kinds ...EdgeKind) []EntityID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.neighborsLocked(id, kinds...)
}

func (g *Graph) neighborsLocked(id EntityID, kinds ...EdgeKind) []EntityID {
	seen := map[EntityID]bool{}
	var out []EntityID
	for _, idx := range g.adj[id] {
		e := g.edges[idx]
		match := len(kinds) == 0
		for _, k := range kinds {
			if e.Kind == k {
				match = true
				break
			}
		}
		if !match {
			continue
		}
		var other EntityID = -1
		if e.From == id {
			other = e.To
		} else if e.Kind.undirected() || e.Kind == EdgeLoves {
			other = e.From
		}
		if other >= 0 && !seen[other] {
			seen[other] = true
			out = append(out, other)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Degree counts live edges on an entity.
func (g *Graph) Degree(id EntityID) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.adj[id])
}

// Distance runs BFS restricted to Bond and Loves edges. Transitive bonds
// are never materialized: "A bonded to B bonded to C" answers 2 for (A,C)
// here unless a direct edge was declared. Returns -1 when unreachable.
func (g *Graph) Distance(a, b EntityID) int {
	if a == b {
		return 0
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	visited := map[EntityID]bool{a: true}
	frontier := []EntityID{a}
	dist := 0
	for len(frontier) > 0 {
		dist++
		var next []EntityID
		for _, id := range frontier {
			for _, n := range g.neighborsLocked(id, EdgeBond, EdgeLoves) {
				if n == b {
					return dist
				}
				if !visited[n] {
					visited[n] = true
					next = append(next, n)
				}
			}
		}
		frontier = next
	}
	return -1
}

// Detach removes every edge touching a dying entity and returns them so the
// caller can settle bond-break charges and grief. Haunts edges whose source
// is the deceased are returned too: the haunting outlives the endpoint and
// the caller converts them into waves.
func (g *Graph) Detach(id EntityID) []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	var removed []Edge
	for _, idx := range append([]int(nil), g.adj[id]...) {
		removed = append(removed, g.edges[idx])
		g.dropLocked(idx)
	}
	return removed
}

//-----------------------------------------------------------------------------
// Wave queue
//-----------------------------------------------------------------------------

// Enqueue schedules a wave for future delivery.
func (g *Graph) Enqueue(w Wave) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.waves = append(g.waves, w)
}

// DueAt removes and returns the waves arriving at the given tick, ordered
// by facet so traits apply before mood on the same target.
func (g *Graph) DueAt(tick int) []Wave {
	g.mu.Lock()
	defer g.mu.Unlock()
	var due []Wave
	rest := g.waves[:0]
	for _, w := range g.waves {
		if w.ArrivalTick <= tick {
			if w.ExpiresTick == 0 || tick <= w.ExpiresTick {
				due = append(due, w)
			}
		} else {
			rest = append(rest, w)
		}
	}
	g.waves = rest
	sort.SliceStable(due, func(i, j int) bool { return due[i].Facet < due[j].Facet })
	return due
}

// PendingWaves reports queue depth, for introspection and tests.
func (g *Graph) PendingWaves() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.waves)
}
