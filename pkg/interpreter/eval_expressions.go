package interpreter

import (
	"fmt"
	"math"
	"strconv"

	"sanity/engine-go/pkg/ast"
	"sanity/engine-go/pkg/runtime"
)

func (i *Interpreter) evalExpr(fr *frame, expr ast.Expression) (runtime.Value, error) {
	switch node := expr.(type) {
	case *ast.NumberLiteral:
		return runtime.NumberValue{Val: node.Value}, nil
	case *ast.WordLiteral:
		return runtime.WordValue{Val: node.Value}, nil
	case *ast.TruthLiteral:
		switch node.Value {
		case "yep":
			return runtime.YepValue{}, nil
		case "nope":
			return runtime.NopeValue{}, nil
		default:
			return runtime.DunnoValue{}, nil
		}
	case *ast.VoidLiteral:
		return runtime.VoidValue{}, nil
	case *ast.ListLiteral:
		elems := make([]runtime.Value, len(node.Elements))
		for idx, el := range node.Elements {
			v, err := i.evalExpr(fr, el)
			if err != nil {
				return nil, err
			}
			elems[idx] = v
		}
		return &runtime.ListValue{Elements: elems}, nil
	case *ast.BlobLiteral:
		fields := make(map[string]runtime.Value, len(node.Entries))
		for _, entry := range node.Entries {
			v, err := i.evalExpr(fr, entry.Value)
			if err != nil {
				return nil, err
			}
			fields[entry.Key] = v
		}
		return &runtime.BlobValue{Fields: fields}, nil
	case *ast.Identifier:
		return i.accessVariable(fr, node)
	case *ast.UnaryExpression:
		return i.evalUnary(fr, node)
	case *ast.BinaryExpression:
		return i.evalBinary(fr, node)
	case *ast.CompareExpression:
		return i.evalCompare(fr, node)
	case *ast.LogicalExpression:
		return i.evalLogical(fr, node)
	case *ast.RelateExpression:
		return i.evalRelate(fr, node)
	case *ast.CallExpression:
		return i.evalCall(fr, node)
	case *ast.MemberExpression:
		return i.evalMember(fr, node)
	case *ast.IndexExpression:
		return i.evalIndex(fr, node)
	case *ast.SeanceExpression:
		return i.evalSeance(fr, node)
	case *ast.RememberExpression:
		return i.evalRemember(fr, node)
	case *ast.BecomeExpression:
		return i.evalBecome(fr, node)
	case *ast.GraphQuery:
		return i.evalGraphQuery(fr, node)
	case *ast.VibeExpression:
		return i.spawnVibe(fr, node)
	case *ast.ChillExpression:
		return i.evalChill(fr, node)
	case *ast.ReadExpression:
		return i.readHandle(fr, node)
	default:
		return runtime.VoidValue{}, nil
	}
}

//-----------------------------------------------------------------------------
// Variable access
//-----------------------------------------------------------------------------

func (i *Interpreter) accessVariable(fr *frame, node *ast.Identifier) (runtime.Value, error) {
	e, err := i.lookup(fr, node.Name)
	if err != nil {
		return nil, err
	}
	rule := runtime.RuleFor(e.Decl)
	if rule.SeanceOnly {
		return nil, i.blame(fr, fmt.Sprintf("%q is a ghost and can only be contacted through a seance", node.Name), node.Name)
	}
	if rule.ScopeLocal && !fr.env.Holds(node.Name) {
		// whisper variables do not carry outside their scope.
		return runtime.VoidValue{}, nil
	}

	i.ctx.Touch(e.ID)

	// Envy convergence: each access drags a numeric value toward what it
	// envies.
	for _, edge := range i.ctx.Graph.Edges(e.ID) {
		if edge.Kind != runtime.EdgeEnvies || edge.From != e.ID {
			continue
		}
		envied, err := i.ctx.Store.Get(edge.To)
		if err != nil {
			continue
		}
		mine, okA := e.Value.(runtime.NumberValue)
		theirs, okB := envied.Value.(runtime.NumberValue)
		if okA && okB {
			e.Value = runtime.NumberValue{Val: mine.Val + (theirs.Val-mine.Val)*i.ctx.Config.EnvyConvergence}
		}
	}

	// Jealousy converges toward a shadowed variable of the same name, but
	// only once observed.
	if e.Mood == runtime.MoodJealous && e.Observed {
		if shadow := i.findShadow(fr, node.Name, e.ID); shadow != nil {
			mine, okA := e.Value.(runtime.NumberValue)
			theirs, okB := shadow.Value.(runtime.NumberValue)
			if okA && okB {
				e.Value = runtime.NumberValue{Val: mine.Val + (theirs.Val-mine.Val)*i.ctx.Config.EnvyConvergence}
			}
		}
	}

	if e.GriefLeft > 0 {
		return runtime.VoidValue{}, nil
	}
	if e.Trust <= 0 && i.ctx.Rand.Float64() < i.ctx.Config.TrustZeroVoidChance {
		i.ctx.Ledger.Charge(runtime.CostTrustZero)
		return runtime.VoidValue{}, nil
	}
	if e.HasTrait(runtime.TraitUnlucky) && i.ctx.Rand.Float64() < i.ctx.Config.UnluckyVoidChance {
		return runtime.VoidValue{}, nil
	}
	if e.Uncertain && e.Previous != nil && i.ctx.Rand.Float64() < i.ctx.Config.UncertainChance {
		return e.Previous, nil
	}

	// An active curse link jitters numeric reads.
	if e.CurseVariance != 0 {
		if n, ok := e.Value.(runtime.NumberValue); ok {
			jitter := (i.ctx.Rand.Float64()*2 - 1) * e.CurseVariance
			return runtime.NumberValue{Val: n.Val + jitter}, nil
		}
	}
	return e.Value, nil
}

// findShadow locates a same-named binding in an outer scope.
func (i *Interpreter) findShadow(fr *frame, name string, self runtime.EntityID) *runtime.Entity {
	for env := fr.env; env != nil; env = env.Parent() {
		if id, ok := env.LookupLocal(name); ok && id != self {
			if e, err := i.ctx.Store.Get(id); err == nil {
				return e
			}
		}
	}
	return nil
}

//-----------------------------------------------------------------------------
// Operators
//-----------------------------------------------------------------------------

func (i *Interpreter) evalUnary(fr *frame, node *ast.UnaryExpression) (runtime.Value, error) {
	operand, err := i.evalExpr(fr, node.Operand)
	if err != nil {
		return nil, err
	}
	switch node.Operator {
	case "-":
		n, ok := operand.(runtime.NumberValue)
		if !ok {
			return nil, i.blamef(fr, "cannot negate a %s", operand.Kind())
		}
		return runtime.NumberValue{Val: -n.Val}, nil
	case "not", "!":
		if i.truthy(fr, operand, i.entityFor(fr, node.Operand)) {
			return runtime.NopeValue{}, nil
		}
		return runtime.YepValue{}, nil
	}
	return runtime.VoidValue{}, nil
}

func (i *Interpreter) evalBinary(fr *frame, node *ast.BinaryExpression) (runtime.Value, error) {
	// Whitespace precedence: equal spacing on both sides is ambiguous and
	// the ledger notices.
	if node.LeftSpaces == node.RightSpaces && node.LeftSpaces > 0 {
		i.ctx.Ledger.Charge(runtime.CostAmbiguousSpacing)
	}

	// Two variables that ignore each other cannot share an expression.
	leftNames := map[string]bool{}
	rightNames := map[string]bool{}
	collectNames(node.Left, leftNames)
	collectNames(node.Right, rightNames)
	for ln := range leftNames {
		for rn := range rightNames {
			if i.namesIgnore(fr, ln, rn) {
				return nil, i.blamef(fr, "%q ignores %q, they cannot appear in the same expression", ln, rn)
			}
		}
	}

	left, err := i.evalExpr(fr, node.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evalExpr(fr, node.Right)
	if err != nil {
		return nil, err
	}

	// Two Angry operands swap values under everyone's feet.
	le := i.entityFor(fr, node.Left)
	re := i.entityFor(fr, node.Right)
	if le != nil && re != nil && le.Mood == runtime.MoodAngry && re.Mood == runtime.MoodAngry {
		le.Value, re.Value = runtime.CopyValue(re.Value), runtime.CopyValue(le.Value)
		left, right = le.Value, re.Value
	}

	if left.Kind() == runtime.KindVoid || right.Kind() == runtime.KindVoid {
		return runtime.VoidValue{}, nil
	}
	if left.Kind() == runtime.KindDunno || right.Kind() == runtime.KindDunno {
		return runtime.DunnoValue{}, nil
	}

	lc, rc, lCoerced, rCoerced := coerceValues(left, right, node.Operator)
	if lCoerced && le != nil && !le.HasTrait(runtime.TraitResilient) {
		le.AddScar(i.ctx.Config)
	}
	if rCoerced && re != nil && !re.HasTrait(runtime.TraitResilient) {
		re.AddScar(i.ctx.Config)
	}

	if node.Operator == "&" {
		return runtime.WordValue{Val: wordOf(lc) + wordOf(rc)}, nil
	}

	ln, lok := lc.(runtime.NumberValue)
	rn, rok := rc.(runtime.NumberValue)
	if lok && rok {
		lv, rv := ln.Val, rn.Val
		if i.ctx.Ledger.Insane() {
			// Arithmetic gets noisier the deeper the hole.
			noise := math.Abs(i.ctx.Ledger.SP()) / 1000
			lv *= 1 + (i.ctx.Rand.Float64()*2-1)*noise
			rv *= 1 + (i.ctx.Rand.Float64()*2-1)*noise
		}
		var result float64
		switch node.Operator {
		case "+":
			result = lv + rv
		case "-":
			result = lv - rv
		case "*":
			result = lv * rv
		case "/":
			if rv == 0 {
				return nil, i.blamef(fr, "division by zero")
			}
			result = lv / rv
		case "%":
			if rv == 0 {
				return nil, i.blamef(fr, "modulo by zero")
			}
			result = math.Mod(lv, rv)
		case "^":
			result = math.Pow(lv, rv)
		default:
			return nil, i.blamef(fr, "unknown operator %q", node.Operator)
		}
		if le != nil {
			result = le.ApplyMoodToNumber(result)
		}
		return runtime.NumberValue{Val: result}, nil
	}

	lw, lok := lc.(runtime.WordValue)
	rw, rok := rc.(runtime.WordValue)
	if lok && rok {
		if node.Operator == "+" {
			out := lw.Val + rw.Val
			if le != nil {
				out = le.ApplyMoodToWord(out)
			}
			return runtime.WordValue{Val: out}, nil
		}
		return nil, i.blamef(fr, "cannot apply %q to Words", node.Operator)
	}

	return nil, i.blamef(fr, "type error: %s %s %s", left.Kind(), node.Operator, right.Kind())
}

func (i *Interpreter) namesIgnore(fr *frame, a, b string) bool {
	idA, okA := fr.env.Lookup(a)
	idB, okB := fr.env.Lookup(b)
	if !okA || !okB {
		return false
	}
	return i.ctx.Graph.HasEdge(idA, idB, runtime.EdgeIgnores) ||
		i.ctx.Graph.HasEdge(idB, idA, runtime.EdgeIgnores)
}

func (i *Interpreter) evalCompare(fr *frame, node *ast.CompareExpression) (runtime.Value, error) {
	left, err := i.evalExpr(fr, node.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evalExpr(fr, node.Right)
	if err != nil {
		return nil, err
	}

	// An Afraid right-hand side refuses to be compared at all.
	if re := i.entityFor(fr, node.Right); re != nil && re.Mood == runtime.MoodAfraid {
		return runtime.VoidValue{}, nil
	}

	var result bool
	switch node.Operator {
	case "~=":
		result = vibesEqual(left, right)
	case "==":
		result = looseEqual(left, right)
	case "!=":
		result = !looseEqual(left, right)
	case "===":
		result = strictEqual(left, right)
	case "====":
		li, lok := node.Left.(*ast.Identifier)
		ri, rok := node.Right.(*ast.Identifier)
		result = lok && rok && li.Name == ri.Name
	case "<", ">", "<=", ">=":
		ln, lok := left.(runtime.NumberValue)
		rn, rok := right.(runtime.NumberValue)
		if lok && rok {
			switch node.Operator {
			case "<":
				result = ln.Val < rn.Val
			case ">":
				result = ln.Val > rn.Val
			case "<=":
				result = ln.Val <= rn.Val
			case ">=":
				result = ln.Val >= rn.Val
			}
		}
	default:
		// Five or more '=' signs extend equality deeper into the entities
		// themselves, one facet per extra sign.
		result = strictEqual(left, right)
		le := i.entityFor(fr, node.Left)
		re := i.entityFor(fr, node.Right)
		if result && le != nil && re != nil {
			n := node.EqualCount
			if n >= 5 {
				result = result && le.Mood == re.Mood
			}
			if n >= 6 {
				result = result && le.Trust == re.Trust
			}
			if n >= 7 {
				result = result && le.Age == re.Age
			}
			if n >= 8 {
				result = result && le.Scars == re.Scars
			}
			if n >= 9 {
				result = result && le.Doubt == re.Doubt
			}
			if n >= 10 {
				result = result && i.ctx.Graph.Degree(le.ID) == i.ctx.Graph.Degree(re.ID)
			}
		}
	}

	if result {
		return runtime.YepValue{}, nil
	}
	return runtime.NopeValue{}, nil
}

func (i *Interpreter) evalLogical(fr *frame, node *ast.LogicalExpression) (runtime.Value, error) {
	left, err := i.evalExpr(fr, node.Left)
	if err != nil {
		return nil, err
	}
	lt := i.truthy(fr, left, i.entityFor(fr, node.Left))

	evalRight := func() (bool, error) {
		right, err := i.evalExpr(fr, node.Right)
		if err != nil {
			return false, err
		}
		return i.truthy(fr, right, i.entityFor(fr, node.Right)), nil
	}

	var result bool
	switch node.Operator {
	case "and":
		if !lt {
			return runtime.NopeValue{}, nil
		}
		result, err = evalRight()
	case "or":
		if lt {
			return runtime.YepValue{}, nil
		}
		result, err = evalRight()
	case "nor":
		if lt {
			return runtime.NopeValue{}, nil
		}
		rt, rerr := evalRight()
		result, err = !rt, rerr
	case "xor":
		rt, rerr := evalRight()
		result, err = lt != rt, rerr
	case "but not", "unless":
		rt, rerr := evalRight()
		result, err = lt && !rt, rerr
	default:
		return runtime.NopeValue{}, nil
	}
	if err != nil {
		return nil, err
	}
	if result {
		return runtime.YepValue{}, nil
	}
	return runtime.NopeValue{}, nil
}

//-----------------------------------------------------------------------------
// Relationship operators
//-----------------------------------------------------------------------------

func (i *Interpreter) evalRelate(fr *frame, node *ast.RelateExpression) (runtime.Value, error) {
	left, err := i.lookup(fr, node.Left.Name)
	if err != nil {
		return nil, err
	}
	right, err := i.lookup(fr, node.Right.Name)
	if err != nil {
		return nil, err
	}
	tick := i.ctx.Tick()

	switch node.Operator {
	case ast.RelLoves:
		i.ctx.Graph.AddEdge(left.ID, right.ID, runtime.EdgeLoves, tick)
		if !i.ctx.Graph.HasEdge(left.ID, right.ID, runtime.EdgeBond) {
			i.ctx.Graph.AddEdge(left.ID, right.ID, runtime.EdgeBond, tick)
			i.ctx.Ledger.Charge(runtime.CostBondForm)
		}
	case ast.RelHates:
		i.ctx.Graph.AddEdge(left.ID, right.ID, runtime.EdgeHates, tick)
	case ast.RelFears:
		i.ctx.Graph.AddEdge(left.ID, right.ID, runtime.EdgeFears, tick)
	case ast.RelEnvies:
		i.ctx.Graph.AddEdge(left.ID, right.ID, runtime.EdgeEnvies, tick)
	case ast.RelIgnores:
		i.ctx.Graph.AddEdge(left.ID, right.ID, runtime.EdgeIgnores, tick)
	case ast.RelMirrors:
		i.ctx.Graph.AddEdge(left.ID, right.ID, runtime.EdgeMirrors, tick)
	case ast.RelHaunts:
		i.ctx.Graph.AddEdge(left.ID, right.ID, runtime.EdgeHaunts, tick)
	case ast.RelForgets:
		if i.ctx.Graph.HasEdge(left.ID, right.ID, runtime.EdgeBond) {
			i.ctx.Ledger.Charge(runtime.CostBondBreak)
		}
		i.ctx.Graph.Forget(left.ID, right.ID)
	}
	return runtime.YepValue{}, nil
}

//-----------------------------------------------------------------------------
// Access expressions
//-----------------------------------------------------------------------------

func (i *Interpreter) evalMember(fr *frame, node *ast.MemberExpression) (runtime.Value, error) {
	obj, err := i.evalExpr(fr, node.Object)
	if err != nil {
		return nil, err
	}
	if u, ok := obj.(*runtime.UncertainValue); ok {
		obj = u.Current
	}
	switch val := obj.(type) {
	case *runtime.BlobValue:
		if v, ok := val.Fields[node.Member]; ok {
			return v, nil
		}
		return runtime.VoidValue{}, nil
	case *runtime.InstanceValue:
		if v, ok := val.Fields[node.Member]; ok {
			return v, nil
		}
		return runtime.VoidValue{}, nil
	case *runtime.ListValue:
		if node.Member == "length" {
			return runtime.NumberValue{Val: float64(len(val.Elements))}, nil
		}
	case runtime.WordValue:
		if node.Member == "length" {
			return runtime.NumberValue{Val: float64(len(val.Val))}, nil
		}
	}
	return runtime.VoidValue{}, nil
}

func (i *Interpreter) evalIndex(fr *frame, node *ast.IndexExpression) (runtime.Value, error) {
	obj, err := i.evalExpr(fr, node.Object)
	if err != nil {
		return nil, err
	}
	idx, err := i.evalExpr(fr, node.Index)
	if err != nil {
		return nil, err
	}
	switch val := obj.(type) {
	case *runtime.ListValue:
		if n, ok := numberOf(idx); ok {
			pos := int(n)
			if pos >= 0 && pos < len(val.Elements) {
				return val.Elements[pos], nil
			}
		}
	case runtime.WordValue:
		if n, ok := numberOf(idx); ok {
			pos := int(n)
			if pos >= 0 && pos < len(val.Val) {
				return runtime.WordValue{Val: string(val.Val[pos])}, nil
			}
		}
	case *runtime.BlobValue:
		if w, ok := idx.(runtime.WordValue); ok {
			if v, found := val.Fields[w.Val]; found {
				return v, nil
			}
		}
	}
	return runtime.VoidValue{}, nil
}

//-----------------------------------------------------------------------------
// Seance and memory
//-----------------------------------------------------------------------------

func (i *Interpreter) evalSeance(fr *frame, node *ast.SeanceExpression) (runtime.Value, error) {
	i.ctx.Ledger.Charge(runtime.CostSeance)

	// A séance on a living ghost is the normal way to read one.
	if id, ok := fr.env.Lookup(node.Name); ok {
		if e, err := i.ctx.Store.Get(id); err == nil && e.Decl == ast.DeclGhost {
			i.ctx.Ledger.Charge(runtime.CostSeanceGhost)
			i.ctx.Touch(e.ID)
			fr.touch(e.ID)
			return e.Value, nil
		}
	}

	res, err := i.ctx.Afterlife.Seance(node.Name)
	if err != nil {
		if _, gone := err.(runtime.ErrNoRecord); gone {
			return runtime.VoidValue{}, nil
		}
		return nil, i.blame(fr, err.Error(), "")
	}
	if res.GhostSurcharge {
		i.ctx.Ledger.Charge(runtime.CostSeanceGhost)
	}
	if res.ReceiverMood != "" || res.ReceiverScar {
		i.mu.Lock()
		i.pendingSeance = &res
		i.mu.Unlock()
	}
	return res.Value, nil
}

// applyPendingSeance transfers death-mood effects onto whichever entity the
// summoned value landed in.
func (i *Interpreter) applyPendingSeance(e *runtime.Entity) {
	i.mu.Lock()
	res := i.pendingSeance
	i.pendingSeance = nil
	i.mu.Unlock()
	if res == nil {
		return
	}
	if res.ReceiverMood != "" {
		i.setMood(e, res.ReceiverMood)
	}
	if res.ReceiverScar {
		e.AddScar(i.ctx.Config)
	}
}

func (i *Interpreter) evalRemember(fr *frame, node *ast.RememberExpression) (runtime.Value, error) {
	e, err := i.lookup(fr, node.Name)
	if err != nil {
		return nil, err
	}
	e.Observed = true
	idxVal, err := i.evalExpr(fr, node.Index)
	if err != nil {
		return nil, err
	}
	n, ok := numberOf(idxVal)
	if !ok {
		return runtime.VoidValue{}, nil
	}
	idx := int(n)
	if idx >= 1 && idx <= len(e.History) {
		return e.History[idx-1], nil
	}
	return runtime.VoidValue{}, nil
}

//-----------------------------------------------------------------------------
// Graph introspection
//-----------------------------------------------------------------------------

func (i *Interpreter) evalGraphQuery(fr *frame, node *ast.GraphQuery) (runtime.Value, error) {
	entityArg := func(pos int) (*runtime.Entity, error) {
		if pos >= len(node.Arguments) {
			return nil, i.blamef(fr, "graph.%s needs %d arguments", node.Method, pos+1)
		}
		ident, ok := node.Arguments[pos].(*ast.Identifier)
		if !ok {
			return nil, i.blamef(fr, "graph.%s takes variable names", node.Method)
		}
		id, found := fr.env.Lookup(ident.Name)
		if !found {
			return nil, i.blamef(fr, "variable %q is not defined", ident.Name)
		}
		return i.ctx.Store.Get(id)
	}

	switch node.Method {
	case "edges":
		e, err := entityArg(0)
		if err != nil {
			return nil, err
		}
		var out []runtime.Value
		for _, edge := range i.ctx.Graph.Edges(e.ID) {
			other := edge.From
			if other == e.ID {
				other = edge.To
			}
			if o := i.ctx.Store.Peek(other); o != nil {
				out = append(out, runtime.WordValue{Val: o.Name})
			}
		}
		return &runtime.ListValue{Elements: out}, nil

	case "distance":
		a, err := entityArg(0)
		if err != nil {
			return nil, err
		}
		b, err := entityArg(1)
		if err != nil {
			return nil, err
		}
		d := i.ctx.Graph.Distance(a.ID, b.ID)
		if d < 0 {
			return runtime.DunnoValue{}, nil
		}
		return runtime.NumberValue{Val: float64(d)}, nil

	case "connected":
		a, err := entityArg(0)
		if err != nil {
			return nil, err
		}
		b, err := entityArg(1)
		if err != nil {
			return nil, err
		}
		if i.ctx.Graph.Distance(a.ID, b.ID) >= 0 {
			return runtime.YepValue{}, nil
		}
		return runtime.NopeValue{}, nil

	case "isolated":
		var out []runtime.Value
		for _, id := range fr.env.AllIDs() {
			e, err := i.ctx.Store.Get(id)
			if err != nil || e.Decl == ast.DeclGhost {
				continue
			}
			if i.ctx.Graph.Degree(id) == 0 {
				out = append(out, runtime.WordValue{Val: e.Name})
			}
		}
		return &runtime.ListValue{Elements: out}, nil
	}
	return runtime.VoidValue{}, nil
}

//-----------------------------------------------------------------------------
// Coercion and equality
//-----------------------------------------------------------------------------

// coerceValues runs the ordered coercion chain and reports which side was
// bent into shape. Void and Dunno never reach here; the binary evaluator
// short-circuits them first.
func coerceValues(left, right runtime.Value, op string) (runtime.Value, runtime.Value, bool, bool) {
	lCoerced, rCoerced := false, false

	toNumber := func(v runtime.Value) (runtime.Value, bool) {
		switch val := v.(type) {
		case runtime.YepValue:
			return runtime.NumberValue{Val: 1}, true
		case runtime.NopeValue:
			return runtime.NumberValue{Val: 0}, true
		case runtime.WordValue:
			n, err := strconv.ParseFloat(val.Val, 64)
			if err != nil {
				return runtime.NumberValue{Val: 0}, true
			}
			return runtime.NumberValue{Val: n}, true
		}
		return v, false
	}

	if left.Kind() == runtime.KindYep || left.Kind() == runtime.KindNope {
		switch right.Kind() {
		case runtime.KindNumber:
			left, lCoerced = toNumber(left)
		case runtime.KindWord:
			left, lCoerced = runtime.WordValue{Val: wordOf(left)}, true
		}
	}
	if right.Kind() == runtime.KindYep || right.Kind() == runtime.KindNope {
		switch left.Kind() {
		case runtime.KindNumber:
			right, rCoerced = toNumber(right)
		case runtime.KindWord:
			right, rCoerced = runtime.WordValue{Val: wordOf(right)}, true
		}
	}

	// Number wins arithmetic, Word wins concatenation.
	if left.Kind() == runtime.KindNumber && right.Kind() == runtime.KindWord {
		if op == "&" {
			left, lCoerced = runtime.WordValue{Val: wordOf(left)}, true
		} else {
			right, rCoerced = toNumber(right)
		}
	} else if left.Kind() == runtime.KindWord && right.Kind() == runtime.KindNumber {
		if op == "&" {
			right, rCoerced = runtime.WordValue{Val: wordOf(right)}, true
		} else {
			left, lCoerced = toNumber(left)
		}
	}

	// A list falls back to its length against a scalar.
	if lv, ok := left.(*runtime.ListValue); ok && right.Kind() == runtime.KindNumber {
		left, lCoerced = runtime.NumberValue{Val: float64(len(lv.Elements))}, true
	}
	if rv, ok := right.(*runtime.ListValue); ok && left.Kind() == runtime.KindNumber {
		right, rCoerced = runtime.NumberValue{Val: float64(len(rv.Elements))}, true
	}

	return left, right, lCoerced, rCoerced
}

func looseEqual(a, b runtime.Value) bool {
	if a.Kind() == b.Kind() {
		return runtime.ValuesEqual(a, b)
	}
	ac, bc, _, _ := coerceValues(a, b, "==")
	return runtime.ValuesEqual(ac, bc)
}

func strictEqual(a, b runtime.Value) bool {
	return a.Kind() == b.Kind() && runtime.ValuesEqual(a, b)
}

// vibesEqual is the ~= comparison: same kind and close enough. Numbers match
// within 20% of the larger magnitude; words match within a levenshtein
// distance of 3.
func vibesEqual(a, b runtime.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case runtime.NumberValue:
		bv := b.(runtime.NumberValue).Val
		if av.Val == 0 && bv == 0 {
			return true
		}
		if av.Val == 0 || bv == 0 {
			return math.Abs(av.Val-bv) <= 0.2
		}
		return math.Abs(av.Val-bv)/math.Max(math.Abs(av.Val), math.Abs(bv)) <= 0.2
	case runtime.WordValue:
		return levenshtein(av.Val, b.(runtime.WordValue).Val) <= 3
	default:
		return runtime.ValuesEqual(a, b)
	}
}

func levenshtein(a, b string) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i1 := 0; i1 < len(a); i1++ {
		curr[0] = i1 + 1
		for j := 0; j < len(b); j++ {
			cost := 0
			if a[i1] != b[j] {
				cost = 1
			}
			curr[j+1] = min3(prev[j+1]+1, curr[j]+1, prev[j]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
