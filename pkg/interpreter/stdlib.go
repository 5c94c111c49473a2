package interpreter

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"sanity/engine-go/pkg/runtime"
)

// hostFunc is one standard-library entry: raw values in, raw value out, plus
// an optional mood hint the engine applies afterwards.
type hostFunc func(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error)

// moodHint asks the engine to shift the first argument's entity after the
// call returns. FromMood, when set, gates the shift on the current mood.
type moodHint struct {
	FromMood runtime.Mood
	Mood     runtime.Mood
	Trait    runtime.Trait
}

var programStart = time.Now()

func builtinModules() map[string]map[string]hostFunc {
	return map[string]map[string]hostFunc{
		"Math": {
			"add":      mathBinary(func(a, b float64) float64 { return a + b }),
			"subtract": mathBinary(func(a, b float64) float64 { return a - b }),
			"multiply": mathBinary(func(a, b float64) float64 { return a * b }),
			"divide":   mathDivide,
			"sqrt":     mathSqrt,
			"PI":       mathPI,
			"random":   mathRandom,
		},
		"Words": {
			"length":  wordsLength,
			"reverse": wordsReverse,
			"upper":   wordsUpper,
			"lower":   wordsLower,
			"split":   wordsSplit,
			"join":    wordsJoin,
		},
		"Time": {
			"now":     timeNow,
			"wait":    timeWait,
			"elapsed": timeElapsed,
		},
		"Lists": {
			"sort":    listsSort,
			"filter":  listsFilter,
			"map":     listsMap,
			"reduce":  listsReduce,
			"shuffle": listsShuffle,
		},
		"Chaos": {
			"embrace":     chaosEmbrace,
			"destabilize": chaosDestabilize,
			"scramble":    chaosScramble,
		},
		"Zen": {
			"breathe":  zenBreathe,
			"meditate": zenMeditate,
			"cleanse":  zenCleanse,
		},
		"Fate": {
			"foreshadow": fateForeshadow,
			"fulfill":    fateFulfill,
			"predict":    fatePredict,
			"odds":       fateOdds,
		},
	}
}

//-----------------------------------------------------------------------------
// Math
//-----------------------------------------------------------------------------

func argNumber(args []runtime.Value, pos int) (float64, bool) {
	if pos >= len(args) {
		return 0, false
	}
	return numberOf(args[pos])
}

func mathBinary(op func(a, b float64) float64) hostFunc {
	return func(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
		a, okA := argNumber(args, 0)
		b, okB := argNumber(args, 1)
		if !okA || !okB {
			return runtime.VoidValue{}, nil, nil
		}
		return runtime.NumberValue{Val: op(a, b)}, nil, nil
	}
}

func mathDivide(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	a, okA := argNumber(args, 0)
	b, okB := argNumber(args, 1)
	if !okA || !okB {
		return runtime.VoidValue{}, nil, nil
	}
	if b == 0 {
		return nil, nil, errors.New("division by zero")
	}
	return runtime.NumberValue{Val: a / b}, nil, nil
}

func mathSqrt(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	a, ok := argNumber(args, 0)
	if !ok {
		return runtime.VoidValue{}, nil, nil
	}
	if a < 0 {
		return nil, nil, errors.New("cannot sqrt a negative number")
	}
	return runtime.NumberValue{Val: math.Sqrt(a)}, nil, nil
}

// mathPI answers a slightly different value on every access.
func mathPI(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	jitter := (i.ctx.Rand.Float64()*2 - 1) * 0.0001
	return runtime.NumberValue{Val: 3.1415 + jitter}, nil, nil
}

// mathRandom rolls 0..1; a Lucky variable in scope takes the better of two
// rolls, an Unlucky one the worse.
func mathRandom(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	val := i.ctx.Rand.Float64()
	for _, id := range fr.env.AllIDs() {
		e, err := i.ctx.Store.Get(id)
		if err != nil {
			continue
		}
		if e.HasTrait(runtime.TraitLucky) {
			val = math.Max(val, i.ctx.Rand.Float64())
			break
		}
		if e.HasTrait(runtime.TraitUnlucky) {
			val = math.Min(val, i.ctx.Rand.Float64())
			break
		}
	}
	return runtime.NumberValue{Val: val}, nil, nil
}

//-----------------------------------------------------------------------------
// Words
//-----------------------------------------------------------------------------

func wordsLength(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	if len(args) == 0 {
		return runtime.NumberValue{Val: 0}, nil, nil
	}
	switch v := args[0].(type) {
	case runtime.WordValue:
		return runtime.NumberValue{Val: float64(len(v.Val))}, nil, nil
	case *runtime.ListValue:
		return runtime.NumberValue{Val: float64(len(v.Elements))}, nil, nil
	}
	return runtime.NumberValue{Val: 0}, nil, nil
}

// wordsReverse flips the word; a Sad source gets its mood reversed too.
func wordsReverse(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	if len(args) == 0 {
		return runtime.VoidValue{}, nil, nil
	}
	w, ok := args[0].(runtime.WordValue)
	if !ok {
		return runtime.VoidValue{}, nil, nil
	}
	runes := []rune(w.Val)
	for a, b := 0, len(runes)-1; a < b; a, b = a+1, b-1 {
		runes[a], runes[b] = runes[b], runes[a]
	}
	hint := &moodHint{FromMood: runtime.MoodSad, Mood: runtime.MoodHappy}
	return runtime.WordValue{Val: string(runes)}, hint, nil
}

func wordsUpper(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	if len(args) == 0 {
		return runtime.VoidValue{}, nil, nil
	}
	w, ok := args[0].(runtime.WordValue)
	if !ok {
		return runtime.VoidValue{}, nil, nil
	}
	// Shouting is exciting.
	hint := &moodHint{Mood: runtime.MoodExcited}
	return runtime.WordValue{Val: strings.ToUpper(w.Val)}, hint, nil
}

func wordsLower(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	if len(args) == 0 {
		return runtime.VoidValue{}, nil, nil
	}
	w, ok := args[0].(runtime.WordValue)
	if !ok {
		return runtime.VoidValue{}, nil, nil
	}
	return runtime.WordValue{Val: strings.ToLower(w.Val)}, nil, nil
}

func wordsSplit(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	if len(args) == 0 {
		return &runtime.ListValue{}, nil, nil
	}
	w, ok := args[0].(runtime.WordValue)
	if !ok {
		return &runtime.ListValue{}, nil, nil
	}
	sep := " "
	if s, ok := argWord(args, 1); ok {
		sep = s
	}
	parts := strings.Split(w.Val, sep)
	elems := make([]runtime.Value, len(parts))
	for idx, p := range parts {
		elems[idx] = runtime.WordValue{Val: p}
	}
	return &runtime.ListValue{Elements: elems}, nil, nil
}

func wordsJoin(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	if len(args) == 0 {
		return runtime.WordValue{}, nil, nil
	}
	list, ok := args[0].(*runtime.ListValue)
	if !ok {
		return runtime.WordValue{Val: wordOf(args[0])}, nil, nil
	}
	sep := ""
	if s, ok := argWord(args, 1); ok {
		sep = s
	}
	parts := make([]string, len(list.Elements))
	for idx, el := range list.Elements {
		parts[idx] = wordOf(el)
	}
	return runtime.WordValue{Val: strings.Join(parts, sep)}, nil, nil
}

func argWord(args []runtime.Value, pos int) (string, bool) {
	if pos >= len(args) {
		return "", false
	}
	w, ok := args[pos].(runtime.WordValue)
	return w.Val, ok
}

//-----------------------------------------------------------------------------
// Time
//-----------------------------------------------------------------------------

// timeNow jitters up to ±100ms, more the lower the sanity counter sits.
func timeNow(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	scale := math.Max(0.1, (100-i.ctx.Ledger.SP())/100)
	jitter := (i.ctx.Rand.Float64()*0.2 - 0.1) * scale
	return runtime.NumberValue{Val: float64(time.Now().UnixNano())/1e9 + jitter}, nil, nil
}

// timeWait sleeps approximately the requested milliseconds, give or take 10%.
func timeWait(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	ms, ok := argNumber(args, 0)
	if !ok {
		return runtime.VoidValue{}, nil, nil
	}
	actual := ms * (0.9 + i.ctx.Rand.Float64()*0.2)
	time.Sleep(time.Duration(actual * float64(time.Millisecond)))
	return runtime.NumberValue{Val: actual}, nil, nil
}

func timeElapsed(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	return runtime.NumberValue{Val: float64(time.Since(programStart).Milliseconds())}, nil, nil
}

//-----------------------------------------------------------------------------
// Lists
//-----------------------------------------------------------------------------

func listsSort(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	list, ok := argList(args, 0)
	if !ok {
		return runtime.VoidValue{}, nil, nil
	}
	out := make([]runtime.Value, len(list.Elements))
	copy(out, list.Elements)
	sort.SliceStable(out, func(a, b int) bool {
		na, aNum := numberOf(out[a])
		nb, bNum := numberOf(out[b])
		if aNum && bNum {
			return na < nb
		}
		return wordOf(out[a]) < wordOf(out[b])
	})
	return &runtime.ListValue{Elements: out}, nil, nil
}

func listsFilter(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	list, fn, err := listAndFn(i, fr, args)
	if err != nil || list == nil {
		return runtime.VoidValue{}, nil, err
	}
	var out []runtime.Value
	for _, el := range list.Elements {
		keep, err := i.applyListFn(fr, fn, el)
		if err != nil {
			return nil, nil, err
		}
		if i.truthy(fr, keep, nil) {
			out = append(out, el)
		}
	}
	return &runtime.ListValue{Elements: out}, nil, nil
}

func listsMap(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	list, fn, err := listAndFn(i, fr, args)
	if err != nil || list == nil {
		return runtime.VoidValue{}, nil, err
	}
	out := make([]runtime.Value, len(list.Elements))
	for idx, el := range list.Elements {
		v, err := i.applyListFn(fr, fn, el)
		if err != nil {
			return nil, nil, err
		}
		out[idx] = v
	}
	return &runtime.ListValue{Elements: out}, nil, nil
}

func listsReduce(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	list, fn, err := listAndFn(i, fr, args)
	if err != nil || list == nil {
		return runtime.VoidValue{}, nil, err
	}
	var acc runtime.Value = runtime.VoidValue{}
	if len(args) > 2 {
		acc = args[2]
	}
	for _, el := range list.Elements {
		v, err := i.applyListFn(fr, fn, acc, el)
		if err != nil {
			return nil, nil, err
		}
		acc = v
	}
	return acc, nil, nil
}

func listsShuffle(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	list, ok := argList(args, 0)
	if !ok {
		return runtime.VoidValue{}, nil, nil
	}
	out := make([]runtime.Value, len(list.Elements))
	copy(out, list.Elements)
	for idx := len(out) - 1; idx > 0; idx-- {
		j := i.ctx.Rand.Intn(idx + 1)
		out[idx], out[j] = out[j], out[idx]
	}
	return &runtime.ListValue{Elements: out}, nil, nil
}

func argList(args []runtime.Value, pos int) (*runtime.ListValue, bool) {
	if pos >= len(args) {
		return nil, false
	}
	l, ok := args[pos].(*runtime.ListValue)
	return l, ok
}

func listAndFn(i *Interpreter, fr *frame, args []runtime.Value) (*runtime.ListValue, *runtime.FunctionValue, error) {
	list, ok := argList(args, 0)
	if !ok || len(args) < 2 {
		return nil, nil, nil
	}
	fn, ok := args[1].(*runtime.FunctionValue)
	if !ok {
		return nil, nil, errors.New("second argument must be a function")
	}
	return list, fn, nil
}

func (i *Interpreter) applyListFn(fr *frame, fn *runtime.FunctionValue, args ...runtime.Value) (runtime.Value, error) {
	e, err := i.ctx.Store.Get(fn.EntityID)
	if err != nil {
		return nil, errors.New("callback function is no longer with us")
	}
	return i.callFunction(fr, e, fn, args)
}

//-----------------------------------------------------------------------------
// Chaos
//-----------------------------------------------------------------------------

func chaosEmbrace(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	i.ctx.Ledger.ForceSP(0, "Chaos.embrace")
	return runtime.VoidValue{}, nil, nil
}

var allMoods = []runtime.Mood{
	runtime.MoodNeutral, runtime.MoodHappy, runtime.MoodSad, runtime.MoodAngry,
	runtime.MoodAfraid, runtime.MoodExcited, runtime.MoodJealous, runtime.MoodOverwhelmed,
}

func chaosDestabilize(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	name, ok := argWord(args, 0)
	if !ok {
		return runtime.VoidValue{}, nil, nil
	}
	id, found := fr.env.Lookup(name)
	if !found {
		return runtime.VoidValue{}, nil, nil
	}
	if e, err := i.ctx.Store.Get(id); err == nil {
		i.setMood(e, allMoods[i.ctx.Rand.Intn(len(allMoods))])
	}
	return runtime.VoidValue{}, nil, nil
}

// chaosScramble deals every in-scope value to a random other variable.
func chaosScramble(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	ids := fr.env.AllIDs()
	values := make([]runtime.Value, 0, len(ids))
	var live []*runtime.Entity
	for _, id := range ids {
		e, err := i.ctx.Store.Get(id)
		if err != nil {
			continue
		}
		live = append(live, e)
		values = append(values, e.Value)
	}
	for idx := len(values) - 1; idx > 0; idx-- {
		j := i.ctx.Rand.Intn(idx + 1)
		values[idx], values[j] = values[j], values[idx]
	}
	for idx, e := range live {
		e.Value = values[idx]
	}
	return runtime.VoidValue{}, nil, nil
}

//-----------------------------------------------------------------------------
// Zen
//-----------------------------------------------------------------------------

func zenBreathe(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	i.ctx.Ledger.ChargeDelta("Zen.breathe", 5)
	return runtime.VoidValue{}, nil, nil
}

func zenMeditate(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	for _, id := range fr.env.AllIDs() {
		if e, err := i.ctx.Store.Get(id); err == nil {
			e.Mood = runtime.MoodNeutral
		}
	}
	return runtime.VoidValue{}, nil, nil
}

func zenCleanse(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	for _, id := range fr.env.AllIDs() {
		if e, err := i.ctx.Store.Get(id); err == nil {
			for t := range e.Traits {
				delete(e.Traits, t)
			}
		}
	}
	i.ctx.Ledger.ChargeDelta("Zen.cleanse", -30)
	return runtime.VoidValue{}, nil, nil
}

//-----------------------------------------------------------------------------
// Fate
//-----------------------------------------------------------------------------

func fateForeshadow(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	if name, ok := argWord(args, 0); ok {
		i.mu.Lock()
		i.foreshadowed[name] = false
		i.mu.Unlock()
	}
	return runtime.VoidValue{}, nil, nil
}

func fateFulfill(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	name, ok := argWord(args, 0)
	if !ok {
		return runtime.VoidValue{}, nil, nil
	}
	i.mu.Lock()
	_, known := i.foreshadowed[name]
	if known {
		i.foreshadowed[name] = true
	}
	i.mu.Unlock()
	if known {
		i.ctx.Ledger.Charge(runtime.CostDreamFulfilled)
	}
	return runtime.VoidValue{}, nil, nil
}

// fatePredict averages a variable's numeric history, biased by luck.
func fatePredict(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	name, ok := argWord(args, 0)
	if !ok {
		return runtime.VoidValue{}, nil, nil
	}
	id, found := fr.env.Lookup(name)
	if !found {
		return runtime.VoidValue{}, nil, nil
	}
	e, err := i.ctx.Store.Get(id)
	if err != nil || len(e.History) == 0 {
		return runtime.VoidValue{}, nil, nil
	}
	var sum float64
	var count int
	for _, h := range e.History {
		if n, ok := numberOf(h); ok {
			sum += n
			count++
		}
	}
	if count == 0 {
		return e.History[len(e.History)-1], nil, nil
	}
	avg := sum / float64(count)
	if e.HasTrait(runtime.TraitLucky) {
		avg *= 1.1
	}
	if e.HasTrait(runtime.TraitUnlucky) {
		avg *= 0.9
	}
	return runtime.NumberValue{Val: avg}, nil, nil
}

func fateOdds(i *Interpreter, fr *frame, args []runtime.Value) (runtime.Value, *moodHint, error) {
	if len(args) == 0 {
		return runtime.NumberValue{Val: 0.5}, nil, nil
	}
	if i.truthy(fr, args[0], nil) {
		return runtime.NumberValue{Val: 0.7}, nil, nil
	}
	return runtime.NumberValue{Val: 0.3}, nil, nil
}
