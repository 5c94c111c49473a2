package interpreter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"sanity/engine-go/pkg/ast"
	"sanity/engine-go/pkg/runtime"
)

// frame is the per-execution-strand view: the lexical scope, a writer label
// for race detection, and the entity set the current statement touched.
type frame struct {
	env     *runtime.Environment
	writer  string
	touched map[runtime.EntityID]bool
	yolo    *yoloState
	// fn is the entity of the function currently executing, -1 at top level.
	fn runtime.EntityID
}

func (f *frame) child(env *runtime.Environment) *frame {
	return &frame{env: env, writer: f.writer, touched: f.touched, yolo: f.yolo, fn: f.fn}
}

func (f *frame) touch(id runtime.EntityID) {
	f.touched[id] = true
	if f.yolo != nil {
		f.yolo.touched[id] = true
	}
}

// Interpreter executes a parsed program against one shared Context. Ordinary
// statements run single threaded; vibes run on goroutines sharing the same
// store and graph through the frame mechanism.
type Interpreter struct {
	ctx *runtime.Context
	out io.Writer

	files  runtime.FileAdapter
	canvas runtime.CanvasAdapter

	stdlib map[string]map[string]hostFunc

	personalities map[string]*ast.PersonalityDef
	// resolvePins holds permanent method-conflict overrides, keyed
	// personality.method -> parent name.
	resolvePins map[string]string

	locks  map[string]*moodLock
	lockMu sync.Mutex

	events *eventQueue

	// stmtCache backs the '..' terminator, keyed by statement identity.
	stmtCache map[ast.Statement]runtime.Value
	cacheMu   sync.Mutex

	// cachedReturns backs 'return x..': the function's value locks.
	cachedReturns map[string]runtime.Value

	firstCallJust map[string]bool

	openHandles map[string]runtime.EntityID
	canvases    map[string]runtime.EntityID

	stmtCount    int
	oopsCount    int
	ghostCount   int
	ughQuitProb  float64
	insanitySwap int

	betLosses map[runtime.EntityID]int
	jackpots  map[int]int

	activeCurses map[string]runtime.EntityID

	// foreshadowed tracks Fate events: registered by foreshadow, flipped by
	// fulfill.
	foreshadowed map[string]bool

	// pendingSeance holds death-mood effects from the most recent séance,
	// applied to whichever entity the summoned value lands in.
	pendingSeance *runtime.SeanceResult

	// Dreams holds the persisted dream-variable snapshot loaded before the
	// run; the driver saves the counterpart at normal program end.
	Dreams         map[string]runtime.Value
	TamperedDreams map[string]bool

	mu sync.Mutex
}

// Option configures an Interpreter.
type Option func(*Interpreter)

func WithOutput(w io.Writer) Option {
	return func(i *Interpreter) { i.out = w }
}

func WithFileAdapter(fa runtime.FileAdapter) Option {
	return func(i *Interpreter) { i.files = fa }
}

func WithCanvasAdapter(ca runtime.CanvasAdapter) Option {
	return func(i *Interpreter) { i.canvas = ca }
}

func New(ctx *runtime.Context, opts ...Option) *Interpreter {
	i := &Interpreter{
		ctx:            ctx,
		out:            os.Stdout,
		personalities:  map[string]*ast.PersonalityDef{},
		resolvePins:    map[string]string{},
		locks:          map[string]*moodLock{},
		stmtCache:      map[ast.Statement]runtime.Value{},
		cachedReturns:  map[string]runtime.Value{},
		firstCallJust:  map[string]bool{},
		openHandles:    map[string]runtime.EntityID{},
		canvases:       map[string]runtime.EntityID{},
		betLosses:      map[runtime.EntityID]int{},
		jackpots:       map[int]int{},
		activeCurses:   map[string]runtime.EntityID{},
		foreshadowed:   map[string]bool{},
		Dreams:         map[string]runtime.Value{},
		TamperedDreams: map[string]bool{},
	}
	i.stdlib = builtinModules()
	i.events = newEventQueue()
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Context exposes the shared services, mainly for the driver and tests.
func (i *Interpreter) Context() *runtime.Context { return i.ctx }

func (i *Interpreter) printf(format string, args ...any) {
	i.mu.Lock()
	fmt.Fprintf(i.out, format, args...)
	i.mu.Unlock()
}

func (i *Interpreter) println(s string) {
	i.mu.Lock()
	fmt.Fprintln(i.out, s)
	i.mu.Unlock()
}

// EvaluateProgram runs the whole program and performs end-of-run duties:
// uncalled should functions, unclosed handle penalties, dream collection.
func (i *Interpreter) EvaluateProgram(prog *ast.Program) (runtime.Value, error) {
	global := runtime.NewEnvironment(nil)
	fr := &frame{env: global, writer: "main", touched: map[runtime.EntityID]bool{}, fn: -1}

	var result runtime.Value = runtime.VoidValue{}
	var runErr error
	for _, stmt := range prog.Body {
		v, err := i.Execute(fr, stmt)
		if err != nil {
			runErr = err
			break
		}
		if v != nil {
			result = v
		}
	}

	i.finish(fr)
	i.events.stop()
	if runErr != nil {
		return nil, runErr
	}
	return result, nil
}

// finish settles the program-end accounting regardless of how the run ended.
func (i *Interpreter) finish(fr *frame) {
	// should functions declared but never called
	for _, id := range fr.env.AllIDs() {
		e, err := i.ctx.Store.Get(id)
		if err != nil {
			continue
		}
		if fn, ok := e.Value.(*runtime.FunctionValue); ok {
			if fn.Decl.Kind == ast.FuncShould && e.CallCount == 0 {
				i.printf("[whine] %s really should have been called\n", e.Name)
				i.ctx.Ledger.ChargeDelta("should.uncalled", -5)
			}
		}
	}

	// unclosed file handles
	if len(i.openHandles) >= 3 {
		i.println("[whine] you are leaking file handles, this is going on your permanent record")
	}
	for name, id := range i.openHandles {
		if i.files != nil {
			_ = i.files.Close(name)
		}
		i.ctx.Ledger.Charge(runtime.CostFileUnclosed)
		i.ctx.Destroy(id, "unclosed handle")
		delete(i.openHandles, name)
	}

	// collect dream entities for the driver to persist
	for _, id := range fr.env.AllIDs() {
		e, err := i.ctx.Store.Get(id)
		if err != nil {
			continue
		}
		if e.Decl == ast.DeclDream {
			i.Dreams[e.Name] = runtime.CopyValue(e.Value)
		}
	}
}

// Execute runs one statement through housekeeping, insanity effects, the
// base evaluation, and the terminator pipeline.
func (i *Interpreter) Execute(fr *frame, stmt ast.Statement) (runtime.Value, error) {
	i.mu.Lock()
	i.stmtCount++
	count := i.stmtCount
	i.mu.Unlock()

	if count%100 == 0 && i.ghostCount > 0 {
		i.ctx.Ledger.ChargeDelta("ghost.tax", float64(-i.ghostCount))
	}
	if count%50 == 0 {
		i.ctx.Sweep()
	}
	if i.ctx.Ledger.Insane() {
		i.applyInsanityEffects(fr)
	}

	fr.touched = map[runtime.EntityID]bool{}
	return i.runWithTerminators(fr, stmt)
}

// lookup resolves a name to its live entity, recording the touch.
func (i *Interpreter) lookup(fr *frame, name string) (*runtime.Entity, error) {
	id, ok := fr.env.Lookup(name)
	if !ok {
		return nil, runtime.BlameValue{Message: fmt.Sprintf("variable %q is not defined", name)}
	}
	e, err := i.ctx.Store.Get(id)
	if err != nil {
		return nil, runtime.BlameValue{Message: fmt.Sprintf("variable %q is no longer with us", name)}
	}
	fr.touch(e.ID)
	return e, nil
}

// execBlock runs a block in a fresh child scope with scope-entry credit and
// the wasted-scope audit on the way out. Locals die on exit.
func (i *Interpreter) execBlock(fr *frame, block *ast.Block) (runtime.Value, error) {
	env := runtime.NewEnvironment(fr.env)
	i.ctx.Ledger.Charge(runtime.CostScopeEnter)
	inner := fr.child(env)

	var result runtime.Value = runtime.VoidValue{}
	var err error
	for _, stmt := range block.Statements {
		result, err = i.Execute(inner, stmt)
		if err != nil {
			break
		}
	}

	if env.Wasted() {
		i.ctx.Ledger.Charge(runtime.CostScopeWastedExit)
	}
	for _, id := range env.LocalIDs() {
		i.ctx.Destroy(id, "scope exit")
	}
	return result, err
}

// truthy follows the truthiness chain. Dunno truthiness is random on first
// observation and then locked to the owning entity when there is one.
func (i *Interpreter) truthy(fr *frame, v runtime.Value, owner *runtime.Entity) bool {
	switch val := v.(type) {
	case runtime.VoidValue:
		i.ctx.Ledger.Charge(runtime.CostVoidTruthiness)
		return false
	case runtime.NopeValue:
		return false
	case runtime.YepValue:
		return true
	case runtime.NumberValue:
		return val.Val != 0
	case runtime.WordValue:
		return val.Val != ""
	case runtime.DunnoValue:
		if owner != nil && owner.DunnoLock != nil {
			return *owner.DunnoLock
		}
		outcome := i.ctx.Rand.Float64() < 0.5
		if owner != nil && owner.Observed {
			owner.DunnoLock = &outcome
		}
		return outcome
	case *runtime.ListValue:
		return len(val.Elements) > 0
	case *runtime.BlobValue:
		return len(val.Fields) > 0
	case *runtime.UncertainValue:
		return i.truthy(fr, val.Current, owner)
	default:
		return true
	}
}

// entityFor maps an expression back to its owning entity when the
// expression is a bare identifier.
func (i *Interpreter) entityFor(fr *frame, expr ast.Expression) *runtime.Entity {
	ident, ok := expr.(*ast.Identifier)
	if !ok {
		return nil
	}
	id, found := fr.env.Lookup(ident.Name)
	if !found {
		return nil
	}
	e, err := i.ctx.Store.Get(id)
	if err != nil {
		return nil
	}
	return e
}

// collectNames gathers every identifier mentioned in an expression tree.
func collectNames(node ast.Expression, into map[string]bool) {
	switch n := node.(type) {
	case *ast.Identifier:
		into[n.Name] = true
	case *ast.BinaryExpression:
		collectNames(n.Left, into)
		collectNames(n.Right, into)
	case *ast.CompareExpression:
		collectNames(n.Left, into)
		collectNames(n.Right, into)
	case *ast.LogicalExpression:
		collectNames(n.Left, into)
		collectNames(n.Right, into)
	case *ast.UnaryExpression:
		collectNames(n.Operand, into)
	case *ast.CallExpression:
		for _, a := range n.Arguments {
			collectNames(a, into)
		}
	case *ast.IndexExpression:
		collectNames(n.Object, into)
		collectNames(n.Index, into)
	case *ast.MemberExpression:
		collectNames(n.Object, into)
	}
}

func wordOf(v runtime.Value) string {
	return runtime.FormatValue(v)
}

func numberOf(v runtime.Value) (float64, bool) {
	n, ok := v.(runtime.NumberValue)
	if !ok {
		return 0, false
	}
	return n.Val, true
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for idx := range lines {
		lines[idx] = prefix + lines[idx]
	}
	return strings.Join(lines, "\n")
}
