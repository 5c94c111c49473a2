package interpreter

import (
	"sanity/engine-go/pkg/ast"
	"sanity/engine-go/pkg/runtime"
)

// runWithTerminators evaluates a statement through its terminator pipeline.
// The base step runs lazily: a leading cache tag with a hit skips the base
// entirely, and every tag consumes the previous tag's output in written
// order. The order matters; caching before wrapping in uncertainty stores
// the raw value, caching after stores the wrapper.
func (i *Interpreter) runWithTerminators(fr *frame, stmt ast.Statement) (runtime.Value, error) {
	terms := stmt.Terminators()

	var val runtime.Value
	baseRan := false
	ensure := func() error {
		if baseRan {
			return nil
		}
		baseRan = true
		v, err := i.execStatement(fr, stmt)
		if err != nil {
			return err
		}
		val = v
		return nil
	}

	if len(terms) == 0 {
		if err := ensure(); err != nil {
			return nil, err
		}
		return val, nil
	}

	for _, t := range terms {
		switch t {
		case ast.TermPlain:
			if err := ensure(); err != nil {
				return nil, err
			}

		case ast.TermCache:
			i.cacheMu.Lock()
			cached, hit := i.stmtCache[stmt]
			i.cacheMu.Unlock()
			if hit && !baseRan {
				val = runtime.CopyValue(cached)
				baseRan = true
				continue
			}
			if err := ensure(); err != nil {
				return nil, err
			}
			i.cacheMu.Lock()
			i.stmtCache[stmt] = runtime.CopyValue(val)
			i.cacheMu.Unlock()

		case ast.TermUncertain:
			if err := ensure(); err != nil {
				return nil, err
			}
			val = &runtime.UncertainValue{Current: val, Previous: val}
			for id := range fr.touched {
				if e, err := i.ctx.Store.Get(id); err == nil {
					e.Uncertain = true
				}
			}

		case ast.TermForceful:
			if err := ensure(); err != nil {
				return nil, err
			}
			// Forceful strips the behavioral residue off everything the
			// statement touched.
			for id := range fr.touched {
				if e, err := i.ctx.Store.Get(id); err == nil {
					for tr := range e.Traits {
						delete(e.Traits, tr)
					}
				}
			}
			if u, ok := val.(*runtime.UncertainValue); ok {
				val = u.Current
			}

		case ast.TermDebug:
			if err := ensure(); err != nil {
				return nil, err
			}
			i.printf("[?] %s\n", runtime.FormatValue(val))
			i.observeTouched(fr)
		}
	}
	return val, nil
}

// observeTouched marks everything the statement touched as Observed:
// Dunno truthiness locks to its first outcome, pending uncertainty
// collapses, and convergence effects arm.
func (i *Interpreter) observeTouched(fr *frame) {
	for id := range fr.touched {
		e, err := i.ctx.Store.Get(id)
		if err != nil {
			continue
		}
		e.Observed = true
		if u, ok := e.Value.(*runtime.UncertainValue); ok {
			e.Value = u.Current
			e.Uncertain = false
		}
		if _, ok := e.Value.(runtime.DunnoValue); ok && e.DunnoLock == nil {
			outcome := i.ctx.Rand.Float64() < 0.5
			e.DunnoLock = &outcome
		}
	}
}
