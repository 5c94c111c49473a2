package interpreter

import (
	"fmt"
	"strings"

	"sanity/engine-go/pkg/ast"
	"sanity/engine-go/pkg/runtime"
)

func (i *Interpreter) execStatement(fr *frame, stmt ast.Statement) (runtime.Value, error) {
	switch node := stmt.(type) {
	case *ast.VarDeclaration:
		return i.execVarDecl(fr, node)
	case *ast.Assignment:
		return i.execAssignment(fr, node)
	case *ast.ExpressionStatement:
		return i.evalExpr(fr, node.Value)
	case *ast.PrintStatement:
		return i.execPrint(fr, node)
	case *ast.IfStatement:
		return i.execIf(fr, node)
	case *ast.PlsLoop:
		return i.execPls(fr, node)
	case *ast.UghLoop:
		return i.execUgh(fr, node)
	case *ast.HopefullyLoop:
		return i.execHopefully(fr, node)
	case *ast.AgainLoop:
		return i.execAgain(fr, node)
	case *ast.EnoughStatement:
		return nil, enoughSignal{}
	case *ast.FunctionDecl:
		return i.execFuncDecl(fr, node)
	case *ast.ReturnStatement:
		return i.execReturn(fr, node)
	case *ast.TryCopeStatement:
		return i.execTryCope(fr, node)
	case *ast.YoloBlock:
		return i.execYolo(fr, node)
	case *ast.OopsStatement:
		return i.execOops(fr, node)
	case *ast.BlameStatement:
		return i.execBlame(fr, node)
	case *ast.BetBlock:
		return i.execBet(fr, node)
	case *ast.JackpotBlock:
		return i.execJackpot(fr, node)
	case *ast.DeleteStatement:
		return i.execDelete(fr, node)
	case *ast.ForgetsEveryone:
		return i.execForgetsEveryone(fr, node)
	case *ast.RecoverStatement:
		return i.execRecover(fr, node)
	case *ast.ExorciseStatement:
		return i.execExorcise(fr, node)
	case *ast.PrayStatement:
		return i.execPray(fr, node)
	case *ast.PersonalityDef:
		return i.execPersonalityDef(fr, node)
	case *ast.MoodLockBlock:
		return i.execMoodLock(fr, node)
	case *ast.InspectStatement:
		return i.execInspect(fr, node)
	case *ast.OpenStatement:
		return i.execOpen(fr, node)
	case *ast.WriteStatement:
		return i.execWrite(fr, node)
	case *ast.CloseStatement:
		return i.execClose(fr, node)
	case *ast.CanvasDecl:
		return i.execCanvasDecl(fr, node)
	case *ast.DrawStatement:
		return i.execDraw(fr, node)
	default:
		return runtime.VoidValue{}, nil
	}
}

//-----------------------------------------------------------------------------
// Declarations and assignment
//-----------------------------------------------------------------------------

func (i *Interpreter) execVarDecl(fr *frame, node *ast.VarDeclaration) (runtime.Value, error) {
	name := node.Name

	switch {
	case len(name) == 1:
		i.ctx.Ledger.Charge(runtime.CostDeclareShortName)
	case len(name) > 20:
		i.ctx.Ledger.Charge(runtime.CostDeclareLongName)
	}
	switch node.Kind {
	case ast.DeclWhatever:
		i.ctx.Ledger.ChargeDelta("declare.whatever", -3)
	case ast.DeclCurse:
		i.ctx.Ledger.Charge(runtime.CostCurseDeclare)
	}

	var value runtime.Value = runtime.VoidValue{}
	if node.Value != nil {
		v, err := i.evalExpr(fr, node.Value)
		if err != nil {
			return nil, err
		}
		value = v
	}

	// A dream declaration wakes up holding whatever the last run left for
	// it; the initializer only matters on a cold start.
	if node.Kind == ast.DeclDream {
		if saved, ok := i.Dreams[name]; ok {
			value = runtime.CopyValue(saved)
			i.ctx.Ledger.Charge(runtime.CostDreamFulfilled)
		}
	}

	// Re-declaration against an existing binding in scope.
	if id, ok := fr.env.Lookup(name); ok {
		existing, err := i.ctx.Store.Get(id)
		if err == nil {
			return i.redeclare(fr, node, existing, value)
		}
	}

	if node.Kind == ast.DeclGhost {
		i.mu.Lock()
		i.ghostCount++
		haunted := i.ghostCount > 5
		i.mu.Unlock()
		if haunted {
			i.println("[whine] your codebase is haunted")
		}
	}

	e := i.newVariable(fr, node, value)
	return i.postDeclare(fr, node, e, value)
}

// newVariable allocates the entity for a fresh declaration and binds it.
func (i *Interpreter) newVariable(fr *frame, node *ast.VarDeclaration, value runtime.Value) *runtime.Entity {
	e := i.ctx.Store.Create(node.Name, runtime.EntityVariable)
	e.Decl = node.Kind
	e.DeclLine = node.Line
	e.Value = value
	e.History = append(e.History, runtime.CopyValue(value))
	if node.PinkySource != "" {
		if srcID, ok := fr.env.Lookup(node.PinkySource); ok {
			e.PinkySource = srcID
		}
	}
	fr.env.Define(node.Name, e.ID, node.Line, value.Kind())
	fr.touch(e.ID)
	i.applyPendingSeance(e)
	return e
}

// postDeclare runs the shared after-creation effects: bond detection, curse
// linking, first-call excitement.
func (i *Interpreter) postDeclare(fr *frame, node *ast.VarDeclaration, e *runtime.Entity, value runtime.Value) (runtime.Value, error) {
	// Bonds form between same-typed declarations a few lines apart. Ghosts
	// stay off the graph.
	if node.Kind != ast.DeclGhost {
		for _, pair := range fr.env.BondCandidates(3) {
			a, b := pair[0], pair[1]
			if other := i.ctx.Store.Peek(a); other != nil && other.Decl == ast.DeclGhost {
				continue
			}
			if !i.ctx.Graph.HasEdge(a, b, runtime.EdgeBond) {
				i.ctx.Graph.AddEdge(a, b, runtime.EdgeBond, i.ctx.Tick())
				i.ctx.Ledger.Charge(runtime.CostBondForm)
			}
		}
	}

	if node.Kind == ast.DeclCurse {
		i.mu.Lock()
		i.activeCurses[node.Name] = e.ID
		i.mu.Unlock()
		// A numeric curse feeds its value as variance into every number in
		// scope, one hop per tick.
		if _, isNum := value.(runtime.NumberValue); isNum {
			for _, id := range fr.env.AllIDs() {
				if id == e.ID {
					continue
				}
				target, err := i.ctx.Store.Get(id)
				if err != nil {
					continue
				}
				if _, ok := target.Value.(runtime.NumberValue); ok {
					i.ctx.Graph.AddEdge(e.ID, id, runtime.EdgeCurseLink, i.ctx.Tick())
				}
			}
			_, _ = i.ctx.Mutate(e.ID, func(en *runtime.Entity) {})
		}
	}

	// Somebody edited the snapshot by hand between runs. The variable
	// remembers.
	if node.Kind == ast.DeclDream && i.TamperedDreams[node.Name] {
		e.AddScar(i.ctx.Config)
		e.LoseTrust(15, i.ctx.Tick(), i.ctx.Config)
		i.ctx.Ledger.Charge(runtime.CostTamperedDream)
		i.printf("[whine] someone has been messing with %s's dreams\n", node.Name)
	}

	// A declaration holding a function's very first result comes out
	// Excited and duplicates the value.
	if dup := i.excitedDuplicate(fr, node.Value, e, value); dup != nil {
		return dup, nil
	}
	return value, nil
}

func (i *Interpreter) redeclare(fr *frame, node *ast.VarDeclaration, existing *runtime.Entity, value runtime.Value) (runtime.Value, error) {
	if existing.Decl == ast.DeclSwear {
		return nil, fatalCrash{msg: fmt.Sprintf("cannot reassign swear variable %q, program crashed", node.Name)}
	}

	switch {
	case node.Kind == ast.DeclSure && existing.Decl == ast.DeclSure:
		// Override: the old entity dies, a new one takes the name.
		i.ctx.Ledger.Charge(runtime.CostOverrideSure)
		if existing.Value != nil && value != nil && existing.Value.Kind() != value.Kind() {
			existing.AddScar(i.ctx.Config)
		}
		i.ctx.Destroy(existing.ID, "override")
		fr.env.Remove(node.Name)
		e := i.newVariable(fr, node, value)
		return i.postDeclare(fr, node, e, value)

	case node.Kind == ast.DeclSure:
		return nil, i.blamef(fr, "cannot override %q variable %q with sure", existing.Decl, node.Name)

	case node.Kind == ast.DeclMaybe && existing.Decl == ast.DeclMaybe:
		// Re-declaring maybe is reassignment with doubt.
		_, err := i.ctx.Mutate(existing.ID, func(e *runtime.Entity) {
			e.Doubt++
			if e.Doubt >= i.ctx.Config.DoubtLatch {
				e.Uncertain = true
			}
			e.Previous = e.Value
			e.Value = value
			e.History = append(e.History, runtime.CopyValue(value))
		})
		return value, err

	default:
		return nil, i.blamef(fr, "variable %q already exists and cannot be re-declared as %q", node.Name, node.Kind)
	}
}

func (i *Interpreter) execAssignment(fr *frame, node *ast.Assignment) (runtime.Value, error) {
	e, err := i.lookup(fr, node.Name)
	if err != nil {
		return nil, err
	}
	rule := runtime.RuleFor(e.Decl)

	if rule.CrashOnWrite {
		return nil, fatalCrash{msg: fmt.Sprintf("cannot reassign swear variable %q, program crashed", node.Name)}
	}
	if rule.SeanceOnly {
		return nil, i.blamef(fr, "cannot assign to ghost variable %q", node.Name)
	}
	if !rule.Reassignable {
		return nil, i.blame(fr, fmt.Sprintf("cannot reassign sure variable %q, use an override", node.Name), node.Name)
	}

	value, err := i.evalExpr(fr, node.Value)
	if err != nil {
		return nil, err
	}

	// A variable that hates another can never hold its value.
	for _, edge := range i.ctx.Graph.Edges(e.ID) {
		if edge.Kind != runtime.EdgeHates {
			continue
		}
		other := edge.From
		if other == e.ID {
			other = edge.To
		}
		if hated, err := i.ctx.Store.Get(other); err == nil && runtime.ValuesEqual(hated.Value, value) {
			return nil, i.blame(fr, fmt.Sprintf("%q hates %q and refuses to hold the same value", node.Name, hated.Name), node.Name)
		}
	}

	if e.Trust <= 0 {
		// Zero trust means read only. The write is silently dropped.
		return e.Value, nil
	}
	// An Overwhelmed variable occasionally just does not take the write in.
	if e.Mood == runtime.MoodOverwhelmed && i.ctx.Rand.Float64() < i.ctx.Config.OverwhelmDropChance {
		return e.Value, nil
	}

	if rule.TracksDoubt {
		e.Doubt++
		if e.Doubt >= i.ctx.Config.DoubtLatch {
			e.Uncertain = true
		}
	}
	if e.Decl == ast.DeclWhatever {
		i.ctx.Ledger.Charge(runtime.CostReassignWhatever)
	}

	commit := func() error {
		_, err := i.ctx.Mutate(e.ID, func(en *runtime.Entity) {
			if en.RecordWrite(fr.writer, i.ctx.Tick()) {
				i.ctx.Ledger.Charge(runtime.CostRaceDetected)
			}
			en.Previous = en.Value
			en.Value = value
			en.History = append(en.History, runtime.CopyValue(value))
		})
		return err
	}
	if rule.EventWrites {
		// scream writes are serialized through the event queue no matter
		// which vibe issued them.
		err = i.events.do(commit)
	} else {
		err = commit()
	}
	if err != nil {
		return nil, err
	}

	i.applyPendingSeance(e)

	// A pinky promise copies every write back to its source.
	if rule.Linked && e.PinkySource >= 0 {
		_, _ = i.ctx.Mutate(e.PinkySource, func(src *runtime.Entity) {
			src.Value = runtime.CopyValue(value)
		})
	}

	// Anything that fears this variable flinches on every write.
	for _, edge := range i.ctx.Graph.Edges(e.ID) {
		if edge.Kind == runtime.EdgeFears && edge.To == e.ID {
			if fearer, err := i.ctx.Store.Get(edge.From); err == nil {
				i.setMood(fearer, runtime.MoodAfraid)
			}
		}
	}

	if dup := i.excitedDuplicate(fr, node.Value, e, value); dup != nil {
		return dup, nil
	}
	return value, nil
}

// excitedDuplicate handles the first-call excitement rule: a variable
// receiving a function's first-ever result gets Excited and ends up with
// two copies of it.
func (i *Interpreter) excitedDuplicate(fr *frame, src ast.Expression, e *runtime.Entity, value runtime.Value) runtime.Value {
	call, ok := src.(*ast.CallExpression)
	if !ok {
		return nil
	}
	ident, ok := call.Callee.(*ast.Identifier)
	if !ok {
		return nil
	}
	i.mu.Lock()
	just := i.firstCallJust[ident.Name]
	delete(i.firstCallJust, ident.Name)
	i.mu.Unlock()
	if !just {
		return nil
	}
	i.setMood(e, runtime.MoodExcited)
	dup := &runtime.ListValue{Elements: []runtime.Value{runtime.CopyValue(value), runtime.CopyValue(value)}}
	e.Value = dup
	return dup
}

func (i *Interpreter) setMood(e *runtime.Entity, mood runtime.Mood) {
	if i.ctx.Config.NoMood || e.HasTrait(runtime.TraitElder) {
		return
	}
	_, _ = i.ctx.Mutate(e.ID, func(en *runtime.Entity) {
		en.Mood = mood
		en.MoodSetAt = i.ctx.Tick()
	})
}

//-----------------------------------------------------------------------------
// Output and control flow
//-----------------------------------------------------------------------------

func (i *Interpreter) execPrint(fr *frame, node *ast.PrintStatement) (runtime.Value, error) {
	value, err := i.evalExpr(fr, node.Value)
	if err != nil {
		return nil, err
	}
	i.println(runtime.FormatValue(value))
	// Printing is observation.
	if e := i.entityFor(fr, node.Value); e != nil {
		e.Observed = true
		if u, ok := e.Value.(*runtime.UncertainValue); ok {
			e.Value = u.Current
			e.Uncertain = false
		}
	}
	return value, nil
}

func (i *Interpreter) execIf(fr *frame, node *ast.IfStatement) (runtime.Value, error) {
	// Insanity flips branches with a small probability.
	invert := i.ctx.Ledger.Insane() && i.ctx.Rand.Float64() < i.ctx.Config.InsanityFlipChance

	cond, err := i.evalExpr(fr, node.Condition)
	if err != nil {
		return nil, err
	}
	if i.truthy(fr, cond, i.entityFor(fr, node.Condition)) != invert {
		return i.execBlock(fr, node.Body)
	}
	for _, but := range node.But {
		bcond, err := i.evalExpr(fr, but.Condition)
		if err != nil {
			return nil, err
		}
		if i.truthy(fr, bcond, i.entityFor(fr, but.Condition)) != invert {
			return i.execBlock(fr, but.Body)
		}
	}
	if node.Actually != nil {
		return i.execBlock(fr, node.Actually)
	}
	return runtime.VoidValue{}, nil
}

//-----------------------------------------------------------------------------
// Loops
//-----------------------------------------------------------------------------

func (i *Interpreter) execPls(fr *frame, node *ast.PlsLoop) (runtime.Value, error) {
	countVal, err := i.evalExpr(fr, node.Count)
	if err != nil {
		return nil, err
	}
	n, ok := numberOf(countVal)
	if !ok {
		return nil, i.blamef(fr, "pls loop count must be a Number, got %s", countVal.Kind())
	}
	count := int(n)

	// Low sanity counts from zero; comfortable sanity counts from one.
	start := 1
	if i.ctx.Ledger.SP() < 50 {
		start = 0
	}

	// An enclosing ugh loop's quit probability bleeds into the count.
	if i.ughQuitProb > 0 {
		count = int(float64(count) * (1 - i.ughQuitProb))
		if count < 0 {
			count = 0
		}
	}

	var result runtime.Value = runtime.VoidValue{}
	for it := start; it < count+start; it++ {
		counter := it
		if i.ctx.Ledger.Insane() {
			counter += i.ctx.Rand.Intn(3) - 1
		}
		env := runtime.NewEnvironment(fr.env)
		inner := fr.child(env)
		if node.Counter != "" {
			e := i.ctx.Store.Create(node.Counter, runtime.EntityVariable)
			e.Decl = ast.DeclSure
			e.Value = runtime.NumberValue{Val: float64(counter)}
			env.Define(node.Counter, e.ID, node.Line, runtime.KindNumber)
		}
		var bodyErr error
		for _, stmt := range node.Body.Statements {
			result, bodyErr = i.Execute(inner, stmt)
			if bodyErr != nil {
				break
			}
		}
		for _, id := range env.LocalIDs() {
			i.ctx.Destroy(id, "loop scope exit")
		}
		if bodyErr != nil {
			if _, isBreak := bodyErr.(enoughSignal); isBreak {
				break
			}
			return nil, bodyErr
		}
	}
	return result, nil
}

func (i *Interpreter) execUgh(fr *frame, node *ast.UghLoop) (runtime.Value, error) {
	var result runtime.Value = runtime.VoidValue{}
	prevProb := i.ughQuitProb
	defer func() { i.ughQuitProb = prevProb }()

	for iteration := 1; ; iteration++ {
		quit := i.ctx.Config.UghQuitStep * float64(iteration)
		if i.ctx.Ledger.Insane() {
			quit *= 2
		}
		if quit > 1 {
			quit = 1
		}
		i.ughQuitProb = quit
		// The loop gets more fed up every iteration.
		if i.ctx.Rand.Float64() < quit {
			break
		}
		cond, err := i.evalExpr(fr, node.Condition)
		if err != nil {
			return nil, err
		}
		if !i.truthy(fr, cond, i.entityFor(fr, node.Condition)) {
			break
		}
		result, err = i.execBlock(fr, node.Body)
		if err != nil {
			if _, isBreak := err.(enoughSignal); isBreak {
				break
			}
			return nil, err
		}
	}
	return result, nil
}

func (i *Interpreter) execHopefully(fr *frame, node *ast.HopefullyLoop) (runtime.Value, error) {
	var result runtime.Value = runtime.VoidValue{}
	for iteration := 1; ; iteration++ {
		cond, err := i.evalExpr(fr, node.Condition)
		if err != nil {
			return nil, err
		}
		if !i.truthy(fr, cond, i.entityFor(fr, node.Condition)) {
			break
		}
		if iteration <= i.ctx.Config.HopefullyGrace {
			i.ctx.Ledger.Charge(runtime.CostHopefullyBonus)
		} else {
			i.ctx.Ledger.Charge(runtime.CostHopefullyPenalty)
		}
		result, err = i.execBlock(fr, node.Body)
		if err != nil {
			if _, isBreak := err.(enoughSignal); isBreak {
				break
			}
			return nil, err
		}
	}
	return result, nil
}

func (i *Interpreter) execAgain(fr *frame, node *ast.AgainLoop) (runtime.Value, error) {
	var result runtime.Value = runtime.VoidValue{}
	for {
		v, err := i.execBlock(fr, node.Body)
		if err != nil {
			if _, isBreak := err.(enoughSignal); isBreak {
				return result, nil
			}
			return nil, err
		}
		result = v
	}
}

//-----------------------------------------------------------------------------
// Error handling statements
//-----------------------------------------------------------------------------

func (i *Interpreter) execTryCope(fr *frame, node *ast.TryCopeStatement) (runtime.Value, error) {
	result, err := i.execBlock(fr, node.Try)
	if err == nil {
		return result, nil
	}
	if IsFatal(err) {
		return nil, err
	}
	if _, isSignal := err.(returnSignal); isSignal {
		return nil, err
	}
	if _, isSignal := err.(enoughSignal); isSignal {
		return nil, err
	}

	blame, _ := err.(runtime.BlameValue)

	if node.Cope != nil {
		env := runtime.NewEnvironment(fr.env)
		inner := fr.child(env)
		if node.CopeParam != "" {
			e := i.ctx.Store.Create(node.CopeParam, runtime.EntityVariable)
			e.Decl = ast.DeclSure
			e.Value = &runtime.BlobValue{Fields: map[string]runtime.Value{
				"message": runtime.WordValue{Val: blame.Message},
				"source":  runtime.WordValue{Val: blame.Source},
				"blame":   runtime.WordValue{Val: blame.Target},
				"mood":    runtime.WordValue{Val: string(blame.Mood)},
			}}
			env.Define(node.CopeParam, e.ID, 0, runtime.KindBlob)
		} else {
			i.ctx.Ledger.Charge(runtime.CostCopeUnused)
		}
		var copeResult runtime.Value = runtime.VoidValue{}
		var copeErr error
		for _, stmt := range node.Cope.Statements {
			copeResult, copeErr = i.Execute(inner, stmt)
			if copeErr != nil {
				break
			}
		}
		for _, id := range env.LocalIDs() {
			i.ctx.Destroy(id, "cope scope exit")
		}
		return copeResult, copeErr
	}

	if node.Deny != nil {
		// Denial suppresses the error but the source pays for it.
		if blame.Source != "" {
			if e, lookupErr := i.lookup(fr, blame.Source); lookupErr == nil {
				e.LoseTrust(10, i.ctx.Tick(), i.ctx.Config)
			}
		}
		return runtime.VoidValue{}, nil
	}
	return nil, err
}

func (i *Interpreter) execYolo(fr *frame, node *ast.YoloBlock) (runtime.Value, error) {
	env := runtime.NewEnvironment(fr.env)
	inner := fr.child(env)
	inner.yolo = &yoloState{touched: map[runtime.EntityID]bool{}}

	for _, stmt := range node.Body.Statements {
		_, err := i.Execute(inner, stmt)
		if err != nil {
			if IsFatal(err) {
				return nil, err
			}
			inner.yolo.swallowed++
			i.ctx.Ledger.Charge(runtime.CostYoloSwallow)
		}
	}

	// Enough swallowed errors and everything the scope touched is Cursed.
	if inner.yolo.swallowed >= i.ctx.Config.YoloCurseCount {
		for id := range inner.yolo.touched {
			if e, err := i.ctx.Store.Get(id); err == nil {
				e.GainTrait(runtime.TraitCursed)
			}
		}
	}
	for _, id := range env.LocalIDs() {
		i.ctx.Destroy(id, "yolo scope exit")
	}
	return runtime.VoidValue{}, nil
}

func (i *Interpreter) execOops(fr *frame, node *ast.OopsStatement) (runtime.Value, error) {
	i.ctx.Ledger.Charge(runtime.CostOops)
	i.mu.Lock()
	i.oopsCount++
	count := i.oopsCount
	i.mu.Unlock()
	if count >= i.ctx.Config.OopsEscalation {
		return nil, i.blamef(fr, "too many oops, escalated: %s", node.Message)
	}
	i.printf("[oops] %s\n", node.Message)
	return runtime.VoidValue{}, nil
}

func (i *Interpreter) execBlame(fr *frame, node *ast.BlameStatement) (runtime.Value, error) {
	if id, ok := fr.env.Lookup(node.Target); ok {
		if e, err := i.ctx.Store.Get(id); err == nil {
			e.LoseTrust(20, i.ctx.Tick(), i.ctx.Config)
			i.setMood(e, runtime.MoodAfraid)
		}
	}
	b := i.blame(fr, node.Reason, node.Target)
	b.Target = node.Target
	return nil, b
}

//-----------------------------------------------------------------------------
// Gambling
//-----------------------------------------------------------------------------

func (i *Interpreter) execBet(fr *frame, node *ast.BetBlock) (runtime.Value, error) {
	cond, err := i.evalExpr(fr, node.Condition)
	if err != nil {
		return nil, err
	}
	rewardVal, err := i.evalExpr(fr, node.Reward)
	if err != nil {
		return nil, err
	}
	riskVal, err := i.evalExpr(fr, node.Risk)
	if err != nil {
		return nil, err
	}
	reward, _ := numberOf(rewardVal)
	risk, _ := numberOf(riskVal)

	names := map[string]bool{}
	collectNames(node.Condition, names)

	won := i.truthy(fr, cond, i.entityFor(fr, node.Condition))
	if i.ctx.Ledger.Insane() {
		// The house always wins in insanity mode.
		won = !won
	}

	if won {
		i.ctx.Ledger.ChargeDelta("bet.win", reward)
		for name := range names {
			if id, ok := fr.env.Lookup(name); ok {
				if e, err := i.ctx.Store.Get(id); err == nil {
					e.GainTrait(runtime.TraitLucky)
				}
			}
		}
		return i.execBlock(fr, node.Body)
	}

	i.ctx.Ledger.ChargeDelta("bet.lose", -risk)
	for name := range names {
		id, ok := fr.env.Lookup(name)
		if !ok {
			continue
		}
		i.mu.Lock()
		i.betLosses[id]++
		losses := i.betLosses[id]
		i.mu.Unlock()
		if losses >= i.ctx.Config.UnluckyBetLosses {
			if e, err := i.ctx.Store.Get(id); err == nil {
				e.GainTrait(runtime.TraitUnlucky)
			}
		}
	}
	return runtime.VoidValue{}, nil
}

func (i *Interpreter) execJackpot(fr *frame, node *ast.JackpotBlock) (runtime.Value, error) {
	i.mu.Lock()
	i.jackpots[node.Line]++
	count := i.jackpots[node.Line]
	i.mu.Unlock()

	cond, err := i.evalExpr(fr, node.Condition)
	if err != nil {
		return nil, err
	}
	if i.truthy(fr, cond, i.entityFor(fr, node.Condition)) && count%i.ctx.Config.JackpotEvery == 0 {
		i.ctx.Ledger.Charge(runtime.CostJackpot)
		return i.execBlock(fr, node.Body)
	}
	return runtime.VoidValue{}, nil
}

//-----------------------------------------------------------------------------
// Lifecycle statements
//-----------------------------------------------------------------------------

func (i *Interpreter) execDelete(fr *frame, node *ast.DeleteStatement) (runtime.Value, error) {
	id, ok := fr.env.Lookup(node.Name)
	if !ok {
		return runtime.VoidValue{}, nil
	}
	e, err := i.ctx.Store.Get(id)
	if err != nil {
		return runtime.VoidValue{}, nil
	}

	// Breaking a pinky promise takes both parties down.
	if e.PinkySource >= 0 {
		i.ctx.Ledger.Charge(runtime.CostPinkyBreak)
		i.ctx.Destroy(e.PinkySource, "pinky break")
	}
	if e.Decl == ast.DeclGhost {
		i.mu.Lock()
		i.ghostCount--
		i.mu.Unlock()
	}
	i.ctx.Destroy(id, "deleted")
	fr.env.Remove(node.Name)
	return runtime.VoidValue{}, nil
}

func (i *Interpreter) execForgetsEveryone(fr *frame, node *ast.ForgetsEveryone) (runtime.Value, error) {
	e, err := i.lookup(fr, node.Name)
	if err != nil {
		return nil, err
	}
	for _, edge := range i.ctx.Graph.Edges(e.ID) {
		other := edge.From
		if other == e.ID {
			other = edge.To
		}
		if edge.Kind == runtime.EdgeBond {
			i.ctx.Ledger.Charge(runtime.CostBondBreak)
		}
		i.ctx.Graph.Forget(e.ID, other)
	}
	return runtime.VoidValue{}, nil
}

func (i *Interpreter) execRecover(fr *frame, node *ast.RecoverStatement) (runtime.Value, error) {
	angry := ""
	for _, id := range fr.env.AllIDs() {
		if e, err := i.ctx.Store.Get(id); err == nil && e.Mood == runtime.MoodAngry {
			angry = e.Name
			break
		}
	}
	if err := i.ctx.Ledger.Recover(angry != ""); err != nil {
		i.printf("[whine] no you're not (%s is still Angry)\n", angry)
		return runtime.VoidValue{}, nil
	}
	return runtime.VoidValue{}, nil
}

func (i *Interpreter) execExorcise(fr *frame, node *ast.ExorciseStatement) (runtime.Value, error) {
	i.mu.Lock()
	id, owned := i.activeCurses[node.CurseName]
	if owned {
		delete(i.activeCurses, node.CurseName)
	}
	i.mu.Unlock()
	if owned {
		i.ctx.Ledger.Charge(runtime.CostCurseExorciseOwned)
		i.ctx.Destroy(id, "exorcised")
		fr.env.Remove(node.CurseName)
	} else {
		// Exorcising a curse that was never there is rewarded for the
		// initiative.
		i.ctx.Ledger.Charge(runtime.CostCurseExorciseUnowned)
	}
	return runtime.VoidValue{}, nil
}

func (i *Interpreter) execPray(fr *frame, node *ast.PrayStatement) (runtime.Value, error) {
	switch node.Prayer {
	case "mercy":
		i.ctx.Config.PrayMercy = true
	case "chaos":
		i.ctx.Ledger.ForceSP(0, "pray for chaos")
	case "nothing":
		i.ctx.Ledger.Charge(runtime.CostPrayNothing)
	}
	return runtime.VoidValue{}, nil
}

//-----------------------------------------------------------------------------
// Introspection
//-----------------------------------------------------------------------------

func (i *Interpreter) execInspect(fr *frame, node *ast.InspectStatement) (runtime.Value, error) {
	id, ok := fr.env.Lookup(node.Name)
	if !ok {
		i.printf("[wtf] variable %q not found\n", node.Name)
		return runtime.VoidValue{}, nil
	}
	e, err := i.ctx.Store.Get(id)
	if err != nil {
		i.printf("[wtf] variable %q is no longer with us\n", node.Name)
		return runtime.VoidValue{}, nil
	}
	e.Observed = true

	if !node.Deep {
		i.printf("[huh] %s: %s = %s\n", e.Name, e.Value.Kind(), runtime.FormatValue(e.Value))
		return runtime.VoidValue{}, nil
	}

	traits := make([]string, 0, len(e.Traits))
	for t := range e.Traits {
		traits = append(traits, string(t))
	}
	edges := make([]string, 0)
	for _, edge := range i.ctx.Graph.Edges(e.ID) {
		other := edge.From
		if other == e.ID {
			other = edge.To
		}
		if o := i.ctx.Store.Peek(other); o != nil {
			edges = append(edges, fmt.Sprintf("%s(%s)", o.Name, edge.Kind))
		}
	}
	i.printf("[wtf] %s:\n  type:   %s\n  value:  %s\n  mood:   %s\n  trust:  %d\n  age:    %d\n  scars:  %d\n  doubt:  %d\n  traits: %s\n  edges:  %s\n",
		e.Name, e.Value.Kind(), runtime.FormatValue(e.Value), e.Mood, e.Trust, e.Age, e.Scars, e.Doubt,
		orNone(strings.Join(traits, ", ")), orNone(strings.Join(edges, ", ")))
	return runtime.VoidValue{}, nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
