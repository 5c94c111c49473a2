package runtime

import (
	"fmt"
	"sync"
)

// ErrExhausted rejects a séance on a record that has already answered three
// times.
type ErrExhausted struct {
	Name string
}

func (e ErrExhausted) Error() string {
	return fmt.Sprintf("the spirit of %q no longer answers", e.Name)
}

// ErrNoRecord reports a séance on a name that never died.
type ErrNoRecord struct {
	Name string
}

func (e ErrNoRecord) Error() string {
	return fmt.Sprintf("no deceased entity named %q", e.Name)
}

// DeathRecord snapshots an entity at the moment of death.
type DeathRecord struct {
	Name        string
	Value       Value
	DeathMood   Mood
	Scars       int
	WasGhost    bool
	DiedAtTick  int
	SeanceCount int
}

// SeanceResult carries the summoned value plus the death-mood effects the
// evaluator must apply to the receiving entity.
type SeanceResult struct {
	Value          Value
	ReceiverMood   Mood // empty when the death leaves no mark
	ReceiverScar   bool
	GhostSurcharge bool
}

// Afterlife archives deceased entities under their declared names. Each name
// keeps a stack; the most recent death shadows older ones, and a record is
// permanently exhausted after three successful séances or replaced by a
// newer death.
type Afterlife struct {
	mu      sync.Mutex
	cap     int
	records map[string][]*DeathRecord
}

func NewAfterlife(seanceCap int) *Afterlife {
	return &Afterlife{cap: seanceCap, records: make(map[string][]*DeathRecord)}
}

// Archive snapshots a dying entity. A ghost keeps its ghost-hood so séance
// knows to apply the surcharge.
func (a *Afterlife) Archive(e *Entity, tick int, wasGhost bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec := &DeathRecord{
		Name:       e.Name,
		Value:      CopyValue(e.Value),
		DeathMood:  e.Mood,
		Scars:      e.Scars,
		WasGhost:   wasGhost,
		DiedAtTick: tick,
	}
	a.records[e.Name] = append(a.records[e.Name], rec)
}

// ArchiveEvicted records a memoization eviction as a death under the
// function+signature name.
func (a *Afterlife) ArchiveEvicted(name string, v Value, tick int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records[name] = append(a.records[name], &DeathRecord{
		Name:       name,
		Value:      CopyValue(v),
		DeathMood:  MoodNeutral,
		DiedAtTick: tick,
	})
}

// Seance summons the most recent death under a name. Angry deaths pass
// anger on, Afraid deaths answer with Void, and a heavily scarred death
// marks the receiver.
func (a *Afterlife) Seance(name string) (SeanceResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	stack := a.records[name]
	if len(stack) == 0 {
		return SeanceResult{}, ErrNoRecord{Name: name}
	}
	rec := stack[len(stack)-1]
	if rec.SeanceCount >= a.cap {
		return SeanceResult{}, ErrExhausted{Name: name}
	}
	rec.SeanceCount++
	res := SeanceResult{
		Value:          CopyValue(rec.Value),
		GhostSurcharge: rec.WasGhost,
	}
	switch {
	case rec.DeathMood == MoodAngry:
		res.ReceiverMood = MoodAngry
	case rec.DeathMood == MoodAfraid:
		res.Value = VoidValue{}
	}
	if rec.Scars > 3 {
		res.ReceiverScar = true
	}
	return res, nil
}

// Record exposes the live record for a name, newest death first, for the
// inspect surface and tests.
func (a *Afterlife) Record(name string) *DeathRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	stack := a.records[name]
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1]
}

// Names lists every archived name.
func (a *Afterlife) Names() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.records))
	for name := range a.records {
		out = append(out, name)
	}
	return out
}
