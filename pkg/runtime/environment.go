package runtime

import "fmt"

// declRecord remembers where a binding was declared, for bond auto-detection
// and the wasted-scope audit.
type declRecord struct {
	Name string
	ID   EntityID
	Line int
	Kind Kind
}

// Environment is a lexical scope: name to entity id, with a parent chain.
// The entities themselves live in the store; scopes only hold ids.
type Environment struct {
	parent   *Environment
	bindings map[string]EntityID
	used     map[string]bool
	order    []declRecord
}

func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		parent:   parent,
		bindings: make(map[string]EntityID),
		used:     make(map[string]bool),
	}
}

func (e *Environment) Parent() *Environment { return e.parent }

// Define binds a name in this scope and records declaration order.
func (e *Environment) Define(name string, id EntityID, line int, kind Kind) {
	e.bindings[name] = id
	e.order = append(e.order, declRecord{Name: name, ID: id, Line: line, Kind: kind})
}

// Lookup resolves a name through the scope chain.
func (e *Environment) Lookup(name string) (EntityID, bool) {
	for env := e; env != nil; env = env.parent {
		if id, ok := env.bindings[name]; ok {
			env.used[name] = true
			return id, true
		}
	}
	return -1, false
}

// LookupLocal resolves only in this scope, for whisper visibility checks.
func (e *Environment) LookupLocal(name string) (EntityID, bool) {
	id, ok := e.bindings[name]
	if ok {
		e.used[name] = true
	}
	return id, ok
}

// Holds reports whether this scope (not a parent) declared the name.
func (e *Environment) Holds(name string) bool {
	_, ok := e.bindings[name]
	return ok
}

// Rebind repoints an existing local name, for séance resurrection.
func (e *Environment) Rebind(name string, id EntityID) error {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.bindings[name]; ok {
			env.bindings[name] = id
			return nil
		}
	}
	return fmt.Errorf("cannot rebind %q: not declared", name)
}

// Remove drops a local binding, for delete and forgets-everyone.
func (e *Environment) Remove(name string) {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.bindings[name]; ok {
			delete(env.bindings, name)
			return
		}
	}
}

// LocalIDs returns the ids declared directly in this scope, declaration
// order preserved.
func (e *Environment) LocalIDs() []EntityID {
	out := make([]EntityID, 0, len(e.order))
	for _, rec := range e.order {
		if _, still := e.bindings[rec.Name]; still {
			out = append(out, rec.ID)
		}
	}
	return out
}

// AllIDs walks the whole chain outward, innermost first.
func (e *Environment) AllIDs() []EntityID {
	var out []EntityID
	for env := e; env != nil; env = env.parent {
		out = append(out, env.LocalIDs()...)
	}
	return out
}

// Wasted reports whether nothing declared in this scope was ever read,
// which the ledger penalizes on scope exit.
func (e *Environment) Wasted() bool {
	if len(e.order) == 0 {
		return false
	}
	for _, rec := range e.order {
		if e.used[rec.Name] {
			return false
		}
	}
	return true
}

// BondCandidates pairs the most recent declaration against earlier ones in
// the same scope: same value type, declared within the line window, means
// the two form a bond automatically.
func (e *Environment) BondCandidates(window int) [][2]EntityID {
	if len(e.order) < 2 {
		return nil
	}
	latest := e.order[len(e.order)-1]
	var pairs [][2]EntityID
	for _, prev := range e.order[:len(e.order)-1] {
		if prev.Kind != latest.Kind {
			continue
		}
		if latest.Line-prev.Line > window || latest.Line < prev.Line {
			continue
		}
		pairs = append(pairs, [2]EntityID{prev.ID, latest.ID})
	}
	return pairs
}
