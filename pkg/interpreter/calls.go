package interpreter

import (
	"sanity/engine-go/pkg/ast"
	"sanity/engine-go/pkg/runtime"
)

func (i *Interpreter) execFuncDecl(fr *frame, node *ast.FunctionDecl) (runtime.Value, error) {
	e := i.ctx.Store.Create(node.Name, runtime.EntityFunction)
	e.DeclLine = node.Line
	fn := &runtime.FunctionValue{Decl: node, Closure: fr.env, EntityID: e.ID}
	e.Value = fn
	fr.env.Define(node.Name, e.ID, node.Line, runtime.KindFunction)
	fr.touch(e.ID)

	// must functions run the moment they are declared.
	if node.Kind == ast.FuncMust {
		return i.callFunction(fr, e, fn, nil)
	}
	return fn, nil
}

func (i *Interpreter) execReturn(fr *frame, node *ast.ReturnStatement) (runtime.Value, error) {
	var value runtime.Value = runtime.VoidValue{}
	if node.Value != nil {
		v, err := i.evalExpr(fr, node.Value)
		if err != nil {
			return nil, err
		}
		value = v
	}
	return nil, returnSignal{value: value, terms: node.Terminators()}
}

//-----------------------------------------------------------------------------
// Calls
//-----------------------------------------------------------------------------

func (i *Interpreter) evalCall(fr *frame, node *ast.CallExpression) (runtime.Value, error) {
	if member, ok := node.Callee.(*ast.MemberExpression); ok {
		return i.evalMemberCall(fr, member, node.Arguments)
	}

	ident, ok := node.Callee.(*ast.Identifier)
	if !ok {
		return nil, i.blamef(fr, "cannot call a non-function")
	}
	e, err := i.lookup(fr, ident.Name)
	if err != nil {
		return nil, err
	}
	fn, ok := e.Value.(*runtime.FunctionValue)
	if !ok {
		return nil, i.blame(fr, "cannot call "+ident.Name+", it is a "+e.Value.Kind().String(), ident.Name)
	}

	args := make([]runtime.Value, len(node.Arguments))
	for idx, a := range node.Arguments {
		v, err := i.evalExpr(fr, a)
		if err != nil {
			return nil, err
		}
		args[idx] = v
	}
	return i.callFunction(fr, e, fn, args)
}

func (i *Interpreter) evalMemberCall(fr *frame, callee *ast.MemberExpression, argExprs []ast.Expression) (runtime.Value, error) {
	// Stdlib module call: Math.floor(x), Words.reverse(w), ...
	if ident, ok := callee.Object.(*ast.Identifier); ok {
		if module, found := i.stdlib[ident.Name]; found {
			fn, found := module[callee.Member]
			if !found {
				return nil, i.blamef(fr, "%s has no function %q", ident.Name, callee.Member)
			}
			args := make([]runtime.Value, len(argExprs))
			for idx, a := range argExprs {
				v, err := i.evalExpr(fr, a)
				if err != nil {
					return nil, err
				}
				args[idx] = v
			}
			return i.callHost(fr, ident.Name, callee.Member, fn, args, argExprs)
		}
	}

	obj, err := i.evalExpr(fr, callee.Object)
	if err != nil {
		return nil, err
	}
	inst, ok := obj.(*runtime.InstanceValue)
	if !ok {
		return nil, i.blamef(fr, "cannot call method %q on a %s", callee.Member, obj.Kind())
	}
	args := make([]runtime.Value, len(argExprs))
	for idx, a := range argExprs {
		v, err := i.evalExpr(fr, a)
		if err != nil {
			return nil, err
		}
		args[idx] = v
	}
	return i.callMethod(fr, inst, callee.Member, args)
}

// callFunction runs a user function entity with the per-count call bands
// applied.
func (i *Interpreter) callFunction(fr *frame, e *runtime.Entity, fn *runtime.FunctionValue, args []runtime.Value) (runtime.Value, error) {
	decl := fn.Decl
	cfg := i.ctx.Config

	// might functions only run while their condition holds.
	if decl.Kind == ast.FuncMight && decl.Condition != nil {
		cond, err := i.evalExpr(fr, decl.Condition)
		if err != nil {
			return nil, err
		}
		if !i.truthy(fr, cond, nil) {
			return runtime.VoidValue{}, nil
		}
	}

	// will functions are promises, not implementations.
	if decl.Kind == ast.FuncWill && (decl.Body == nil || len(decl.Body.Statements) == 0) {
		return runtime.DunnoValue{}, nil
	}

	i.mu.Lock()
	if locked, ok := i.cachedReturns[decl.Name]; ok {
		i.mu.Unlock()
		return runtime.CopyValue(locked), nil
	}
	i.mu.Unlock()

	e.CallCount++
	count := e.CallCount
	if fr.fn >= 0 {
		i.ctx.Graph.AddEdge(fr.fn, e.ID, runtime.EdgeCall, i.ctx.Tick())
	}

	switch {
	case count == 1:
		i.ctx.Ledger.Charge(runtime.CostCallFirst)
		i.mu.Lock()
		i.firstCallJust[decl.Name] = true
		i.mu.Unlock()
	case count >= cfg.RepetitionCalls:
		i.ctx.Ledger.Charge(runtime.CostCallRepetition)
	}
	if count == cfg.RefactorCalls {
		i.printf("[compiler] %q has been called %d times. Maybe refactor?\n", decl.Name, count)
	}
	if count >= cfg.TiredCalls {
		e.GainTrait(runtime.TraitTired)
	}
	if count >= cfg.ResentfulCalls && i.ctx.Rand.Float64() < cfg.ResentfulChance {
		// Resentment answers with nothing.
		return runtime.VoidValue{}, nil
	}

	var sig string
	if decl.Kind == ast.FuncDid {
		sig = runtime.Signature(args)
		if cached, hit := i.ctx.Memo.Get(decl.Name, sig); hit {
			return runtime.CopyValue(cached), nil
		}
	}

	result, terms, err := i.runFunctionBody(fr, e, fn, args)
	if err != nil {
		return nil, err
	}

	for _, t := range terms {
		switch t {
		case ast.TermCache:
			// 'return x..' locks the function's answer forever.
			i.mu.Lock()
			i.cachedReturns[decl.Name] = runtime.CopyValue(result)
			i.mu.Unlock()
		case ast.TermUncertain:
			result = &runtime.UncertainValue{Current: result, Previous: result}
		case ast.TermForceful:
			if u, ok := result.(*runtime.UncertainValue); ok {
				result = u.Current
			}
		case ast.TermDebug:
			i.printf("[?] %s\n", runtime.FormatValue(result))
		}
	}

	// A worn-out function degrades its own numeric answers.
	if e.HasTrait(runtime.TraitTired) {
		if n, ok := result.(runtime.NumberValue); ok {
			result = runtime.NumberValue{Val: n.Val - 1}
		}
	}

	if decl.Kind == ast.FuncDid {
		if evictedName, evictedValue, evicted := i.ctx.Memo.Put(decl.Name, sig, runtime.CopyValue(result)); evicted {
			i.ctx.Afterlife.ArchiveEvicted(evictedName, evictedValue, i.ctx.Tick())
		}
	}
	return result, nil
}

func (i *Interpreter) runFunctionBody(fr *frame, e *runtime.Entity, fn *runtime.FunctionValue, args []runtime.Value) (runtime.Value, []ast.Terminator, error) {
	decl := fn.Decl
	env := runtime.NewEnvironment(fn.Closure)
	i.ctx.Ledger.Charge(runtime.CostScopeEnter)

	for idx, param := range decl.Params {
		var v runtime.Value = runtime.VoidValue{}
		if idx < len(args) {
			v = args[idx]
		}
		pe := i.ctx.Store.Create(param, runtime.EntityVariable)
		pe.Decl = ast.DeclSure
		pe.Value = v
		pe.History = append(pe.History, runtime.CopyValue(v))
		env.Define(param, pe.ID, decl.Line, v.Kind())
	}

	inner := fr.child(env)
	inner.fn = e.ID

	var result runtime.Value = runtime.VoidValue{}
	var terms []ast.Terminator
	var err error
	for _, stmt := range decl.Body.Statements {
		result, err = i.Execute(inner, stmt)
		if err != nil {
			if ret, ok := err.(returnSignal); ok {
				result, terms, err = ret.value, ret.terms, nil
			}
			break
		}
	}

	for _, id := range env.LocalIDs() {
		i.ctx.Destroy(id, "function return")
	}
	if err != nil {
		return nil, nil, err
	}
	return result, terms, nil
}

// callHost invokes a stdlib host function and applies any mood hint it
// returns to the first argument's entity. The hint lives outside the host
// function so the registry stays a plain value-in-value-out table.
func (i *Interpreter) callHost(fr *frame, module, name string, fn hostFunc, args []runtime.Value, argExprs []ast.Expression) (runtime.Value, error) {
	result, hint, err := fn(i, fr, args)
	if err != nil {
		return nil, i.blamef(fr, "%s.%s: %v", module, name, err)
	}
	if hint != nil && len(argExprs) > 0 {
		if e := i.entityFor(fr, argExprs[0]); e != nil {
			if hint.Mood != "" && (hint.FromMood == "" || e.Mood == hint.FromMood) {
				i.setMood(e, hint.Mood)
			}
			if hint.Trait != "" {
				e.GainTrait(hint.Trait)
			}
		}
	}
	return result, nil
}

//-----------------------------------------------------------------------------
// Personalities
//-----------------------------------------------------------------------------

func (i *Interpreter) execPersonalityDef(fr *frame, node *ast.PersonalityDef) (runtime.Value, error) {
	i.mu.Lock()
	i.personalities[node.Name] = node
	for _, r := range node.Resolves {
		i.resolvePins[node.Name+"."+r.Method] = r.Parent
	}
	i.mu.Unlock()
	return runtime.VoidValue{}, nil
}

func (i *Interpreter) evalBecome(fr *frame, node *ast.BecomeExpression) (runtime.Value, error) {
	i.mu.Lock()
	pdef, ok := i.personalities[node.Personality]
	i.mu.Unlock()
	if !ok {
		return nil, i.blamef(fr, "personality %q is not defined", node.Personality)
	}

	e := i.ctx.Store.Create(node.Personality, runtime.EntityInstance)
	sp := i.ctx.Config.RecoverSP
	e.OwnSP = &sp

	fields := map[string]runtime.Value{}
	if err := i.collectFields(fr, pdef, fields); err != nil {
		return nil, err
	}

	inst := &runtime.InstanceValue{Personality: node.Personality, Fields: fields, EntityID: e.ID}
	e.Value = inst
	fr.touch(e.ID)
	return inst, nil
}

// collectFields evaluates field declarations parent-first so a child
// personality overrides what it inherits.
func (i *Interpreter) collectFields(fr *frame, pdef *ast.PersonalityDef, into map[string]runtime.Value) error {
	for _, parent := range pdef.Parents {
		i.mu.Lock()
		pp, ok := i.personalities[parent]
		i.mu.Unlock()
		if !ok {
			return i.blamef(fr, "personality %q inherits from unknown %q", pdef.Name, parent)
		}
		if err := i.collectFields(fr, pp, into); err != nil {
			return err
		}
	}
	for _, stmt := range pdef.Body {
		if decl, ok := stmt.(*ast.VarDeclaration); ok {
			var v runtime.Value = runtime.VoidValue{}
			if decl.Value != nil {
				val, err := i.evalExpr(fr, decl.Value)
				if err != nil {
					return err
				}
				v = val
			}
			into[decl.Name] = v
		}
	}
	return nil
}

// callMethod resolves a method against the personality hierarchy and runs
// it with the instance fields in scope.
func (i *Interpreter) callMethod(fr *frame, inst *runtime.InstanceValue, method string, args []runtime.Value) (runtime.Value, error) {
	i.mu.Lock()
	pdef, ok := i.personalities[inst.Personality]
	i.mu.Unlock()
	if !ok {
		return nil, i.blamef(fr, "personality %q is not defined", inst.Personality)
	}
	decl := i.resolveMethod(pdef, method)
	if decl == nil {
		return nil, i.blamef(fr, "%s has no method %q", inst.Personality, method)
	}

	// Fields enter the method scope as plain variables; writes flow back to
	// the instance on return.
	env := runtime.NewEnvironment(fr.env)
	fieldIDs := map[string]runtime.EntityID{}
	for name, v := range inst.Fields {
		fe := i.ctx.Store.Create(name, runtime.EntityVariable)
		fe.Decl = ast.DeclMaybe
		fe.Value = runtime.CopyValue(v)
		fe.History = append(fe.History, runtime.CopyValue(v))
		env.Define(name, fe.ID, 0, v.Kind())
		fieldIDs[name] = fe.ID
	}

	fnEntity, err := i.ctx.Store.Get(inst.EntityID)
	if err != nil {
		return nil, i.blamef(fr, "instance of %q is no longer with us", inst.Personality)
	}
	fnEntity.CallCount++

	inner := fr.child(env)
	var result runtime.Value = runtime.VoidValue{}
	var runErr error
	for _, stmt := range decl.Body.Statements {
		result, runErr = i.Execute(inner, stmt)
		if runErr != nil {
			if ret, isRet := runErr.(returnSignal); isRet {
				result, runErr = ret.value, nil
			}
			break
		}
	}

	for name, id := range fieldIDs {
		if fe, err := i.ctx.Store.Get(id); err == nil {
			inst.Fields[name] = fe.Value
		}
		i.ctx.Destroy(id, "method return")
	}
	return result, runErr
}

// resolveMethod walks the hierarchy: own body wins, then an explicit resolve
// pin, then the parity of the live sanity counter picks between conflicting
// parents. The parity answer is recomputed at every call on purpose.
func (i *Interpreter) resolveMethod(pdef *ast.PersonalityDef, method string) *ast.FunctionDecl {
	for _, stmt := range pdef.Body {
		if fn, ok := stmt.(*ast.FunctionDecl); ok && fn.Name == method {
			return fn
		}
	}

	i.mu.Lock()
	pinned := i.resolvePins[pdef.Name+"."+method]
	i.mu.Unlock()

	var candidates []*ast.FunctionDecl
	for _, parent := range pdef.Parents {
		i.mu.Lock()
		pp, ok := i.personalities[parent]
		i.mu.Unlock()
		if !ok {
			continue
		}
		if fn := i.resolveMethod(pp, method); fn != nil {
			if parent == pinned {
				return fn
			}
			candidates = append(candidates, fn)
		}
	}
	switch {
	case len(candidates) == 0:
		return nil
	case len(candidates) == 1:
		return candidates[0]
	default:
		if i.ctx.Ledger.SPParity() {
			return candidates[0]
		}
		return candidates[1]
	}
}
