package interpreter

import (
	"sync"
	"time"

	"sanity/engine-go/pkg/ast"
	"sanity/engine-go/pkg/runtime"
)

//-----------------------------------------------------------------------------
// Event queue
//-----------------------------------------------------------------------------

// eventQueue serializes scream writes onto one goroutine so concurrent vibes
// never interleave them.
type eventQueue struct {
	jobs chan func()
	done chan struct{}
	once sync.Once
}

func newEventQueue() *eventQueue {
	q := &eventQueue{jobs: make(chan func(), 64), done: make(chan struct{})}
	go q.loop()
	return q
}

func (q *eventQueue) loop() {
	for job := range q.jobs {
		job()
	}
	close(q.done)
}

// do runs fn on the queue goroutine and waits for its result.
func (q *eventQueue) do(fn func() error) error {
	errCh := make(chan error, 1)
	q.jobs <- func() { errCh <- fn() }
	return <-errCh
}

func (q *eventQueue) stop() {
	q.once.Do(func() { close(q.jobs) })
	<-q.done
}

//-----------------------------------------------------------------------------
// Vibes
//-----------------------------------------------------------------------------

// spawnVibe runs a block on its own goroutine against the shared Context.
// The task carries its own writer label; unsynchronized writes to the same
// entity at the same tick are what the race charge detects.
func (i *Interpreter) spawnVibe(fr *frame, node *ast.VibeExpression) (runtime.Value, error) {
	task := runtime.NewTask()
	env := runtime.NewEnvironment(fr.env)
	tf := &frame{
		env:     env,
		writer:  "vibe-" + task.ID.String()[:8],
		touched: map[runtime.EntityID]bool{},
		fn:      fr.fn,
	}

	go func() {
		var result runtime.Value = runtime.VoidValue{}
		var err error
		for _, stmt := range node.Body.Statements {
			result, err = i.Execute(tf, stmt)
			if err != nil {
				break
			}
		}
		if ret, ok := err.(returnSignal); ok {
			result, err = ret.value, nil
		}
		if _, ok := err.(enoughSignal); ok {
			err = nil
		}
		for _, id := range env.LocalIDs() {
			i.ctx.Destroy(id, "vibe exit")
		}
		if err != nil {
			task.Fail(err)
			return
		}
		task.Resolve(result)
	}()

	return task, nil
}

// evalChill joins a vibe. Chilling on a non-task just hands the value back.
func (i *Interpreter) evalChill(fr *frame, node *ast.ChillExpression) (runtime.Value, error) {
	v, err := i.evalExpr(fr, node.Task)
	if err != nil {
		return nil, err
	}
	task, ok := v.(*runtime.TaskValue)
	if !ok {
		return v, nil
	}
	result, err := task.Await()
	if err != nil {
		return nil, err
	}
	return result, nil
}

//-----------------------------------------------------------------------------
// Mood locks
//-----------------------------------------------------------------------------

// moodLock is a named mutex with feelings. Heavy contention stresses it,
// long holds make it resentful, and a resentful lock occasionally lets a
// second holder slip through.
type moodLock struct {
	mu sync.Mutex

	stateMu   sync.Mutex
	acquires  int
	resentful bool
	lastUsed  time.Time
	lastTick  int
}

func (l *moodLock) noteAcquire(tick, idleTicks int) int {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	// A long stretch without use lets the lock cool off and forget its
	// grudges.
	if l.lastTick > 0 && tick-l.lastTick >= idleTicks {
		l.acquires = 0
		l.resentful = false
	}
	l.acquires++
	l.lastUsed = time.Now()
	l.lastTick = tick
	return l.acquires
}

func (l *moodLock) noteHold(held time.Duration, cfg *runtime.Config) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	if held > time.Duration(cfg.LockResentfulHold)*time.Millisecond {
		l.resentful = true
	}
}

func (l *moodLock) isResentful() bool {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	return l.resentful
}

func (i *Interpreter) lockFor(name string) *moodLock {
	i.lockMu.Lock()
	defer i.lockMu.Unlock()
	l, ok := i.locks[name]
	if !ok {
		l = &moodLock{}
		i.locks[name] = l
	}
	return l
}

func (i *Interpreter) execMoodLock(fr *frame, node *ast.MoodLockBlock) (runtime.Value, error) {
	l := i.lockFor(node.Name)
	cfg := i.ctx.Config

	slipped := l.isResentful() && i.ctx.Rand.Float64() < cfg.LockSlipChance
	if slipped {
		i.printf("[whine] lock %q is resentful and let this one slip\n", node.Name)
	} else {
		l.mu.Lock()
		defer l.mu.Unlock()
	}

	if l.noteAcquire(i.ctx.Tick(), cfg.LockIdleTicks) >= cfg.LockStressAcquires {
		// A stressed lock takes its time handing over.
		time.Sleep(time.Duration(cfg.LockStressLatency) * time.Millisecond)
	}

	start := time.Now()
	result, err := i.execBlock(fr, node.Body)
	l.noteHold(time.Since(start), cfg)
	return result, err
}
