package runtime

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// CostKey is a symbolic entry in the fixed cost table.
type CostKey string

const (
	CostDeclareShortName     CostKey = "declare.shortName"
	CostDeclareLongName      CostKey = "declare.longName"
	CostOverrideSure         CostKey = "override.sure"
	CostReassignWhatever     CostKey = "reassign.whatever"
	CostCallFirst            CostKey = "call.first"
	CostCallRepetition       CostKey = "call.repetition"
	CostCopeUnused           CostKey = "copeUnused"
	CostBondBreak            CostKey = "bond.break"
	CostBondForm             CostKey = "bond.form"
	CostPinkyBreak           CostKey = "pinky.break"
	CostSeance               CostKey = "seance"
	CostSeanceGhost          CostKey = "seance.ghost"
	CostScopeEnter           CostKey = "scope.enter"
	CostScopeWastedExit      CostKey = "scope.wastedExit"
	CostCurseDeclare         CostKey = "curse.declare"
	CostCurseExorciseOwned   CostKey = "curse.exorciseOwned"
	CostCurseExorciseUnowned CostKey = "curse.exorciseUnowned"
	CostDreamReset           CostKey = "dream.reset"
	CostDreamFulfilled       CostKey = "dream.fulfilled"
	CostOops                 CostKey = "oops"
	CostYoloSwallow          CostKey = "yolo.swallow"
	CostTrustZero            CostKey = "trust.zero"
	CostVoidTruthiness       CostKey = "void.truthiness"
	CostAmbiguousSpacing     CostKey = "ambiguous.spacing"
	CostHopefullyBonus       CostKey = "hopefully.bonus"
	CostHopefullyPenalty     CostKey = "hopefully.penalty"
	CostJackpot              CostKey = "jackpot"
	CostGhostTax             CostKey = "ghost.tax"
	CostRaceDetected         CostKey = "race.detected"
	CostFileUnclosed         CostKey = "fileHandle.unclosed"
	CostCanvasLine           CostKey = "canvas.line"
	CostCanvasRect           CostKey = "canvas.rect"
	CostCanvasCircle         CostKey = "canvas.circle"
	CostCanvasText           CostKey = "canvas.text"
	CostCanvasClear          CostKey = "canvas.clear"
	CostCanvasInsanityOnset  CostKey = "canvas.insanityOnset"
	CostInstanceDeath        CostKey = "instance.death"
	CostTamperedDream        CostKey = "dream.tampered"
	CostPrayNothing          CostKey = "pray.nothing"
)

// costTable maps symbolic keys to global SP deltas. Canvas draw keys are
// scoped to the entity's own counter and charged through ChargeScoped.
var costTable = map[CostKey]float64{
	CostDeclareShortName:     -5,
	CostDeclareLongName:      -2,
	CostOverrideSure:         -10,
	CostReassignWhatever:     -3,
	CostCallFirst:            +1,
	CostCallRepetition:       -1,
	CostCopeUnused:           -5,
	CostBondBreak:            -7,
	CostBondForm:             +2,
	CostPinkyBreak:           -15,
	CostSeance:               -5,
	CostSeanceGhost:          -8,
	CostScopeEnter:           +1,
	CostScopeWastedExit:      -4,
	CostCurseDeclare:         -20,
	CostCurseExorciseOwned:   -25,
	CostCurseExorciseUnowned: +5,
	CostDreamReset:           +5,
	CostDreamFulfilled:       +5,
	CostOops:                 -2,
	CostYoloSwallow:          -5,
	CostTrustZero:            -8,
	CostVoidTruthiness:       -1,
	CostAmbiguousSpacing:     -2,
	CostHopefullyBonus:       +1,
	CostHopefullyPenalty:     -2,
	CostJackpot:              +50,
	CostGhostTax:             -1,
	CostRaceDetected:         -2,
	CostFileUnclosed:         -5,
	CostCanvasLine:           -1,
	CostCanvasRect:           -2,
	CostCanvasCircle:         -3,
	CostCanvasText:           -5,
	CostCanvasClear:          -1,
	CostCanvasInsanityOnset:  -10,
	CostInstanceDeath:        -10,
	CostTamperedDream:        -5,
	CostPrayNothing:          +1,
}

// Mode is the ledger's state machine: Sane until the global counter hits 0.
type Mode int

const (
	ModeSane Mode = iota
	ModeInsane
)

func (m Mode) String() string {
	if m == ModeInsane {
		return "Insane"
	}
	return "Sane"
}

// AuditEntry records one SP transition when auditing is on.
type AuditEntry struct {
	ID     uuid.UUID
	Reason string
	Delta  float64
	SP     float64
}

// ErrAngryInScope rejects a recovery attempt while any scoped entity is
// still Angry.
var ErrAngryInScope = fmt.Errorf("recovery rejected: an entity in scope is still Angry")

// Ledger is the resource-budget accounting service: one global Sanity
// counter plus the Sane/Insane mode machine. Entities with their own budget
// are charged through ChargeScoped.
type Ledger struct {
	mu   sync.Mutex
	sp   float64
	mode Mode
	cfg  *Config

	auditLog []AuditEntry
}

func NewLedger(cfg *Config) *Ledger {
	initial := cfg.InitialSP
	if cfg.Chaos {
		initial = 0
	}
	l := &Ledger{sp: initial, cfg: cfg}
	l.checkMode()
	return l
}

// SP returns the current global counter.
func (l *Ledger) SP() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sp
}

// Mode returns the current mode.
func (l *Ledger) Mode() Mode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

// Insane reports whether the budget is exhausted.
func (l *Ledger) Insane() bool { return l.Mode() == ModeInsane }

// modifier applies the environment modifiers to a penalty. Rewards pass
// through untouched.
func (l *Ledger) modifier(delta float64) float64 {
	if delta >= 0 {
		return delta
	}
	if l.cfg.Strict {
		delta *= 2
	}
	if l.cfg.PrayMercy {
		delta /= 2
	}
	return delta
}

// Charge looks up the cost table and commits the delta to the global
// counter. The mode machine is checked after every global charge.
func (l *Ledger) Charge(key CostKey) {
	delta, ok := costTable[key]
	if !ok {
		return
	}
	l.ChargeDelta(string(key), delta)
}

// ChargeDelta commits an explicit delta under a reason, for table entries
// that scale with an argument (bets, file sizes, ghost counts).
func (l *Ledger) ChargeDelta(reason string, delta float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commit(reason, l.modifier(delta))
}

// ChargeScoped commits a cost-table delta to an entity's own counter.
// Returns true when the entity's budget just ran out.
func (l *Ledger) ChargeScoped(e *Entity, key CostKey) bool {
	delta, ok := costTable[key]
	if !ok || e.OwnSP == nil {
		return false
	}
	before := *e.OwnSP
	*e.OwnSP += delta
	return before > 0 && *e.OwnSP <= 0
}

func (l *Ledger) commit(reason string, delta float64) {
	l.sp += delta
	if l.cfg.Lenient && l.sp < l.cfg.LenientFloor {
		l.sp = l.cfg.LenientFloor
	}
	if l.cfg.Audit && delta != 0 {
		l.auditLog = append(l.auditLog, AuditEntry{
			ID:     uuid.New(),
			Reason: reason,
			Delta:  delta,
			SP:     l.sp,
		})
	}
	l.checkMode()
}

func (l *Ledger) checkMode() {
	if l.sp <= 0 {
		l.mode = ModeInsane
	}
}

// Recover is the explicit Insane→Sane action. It is rejected outright when
// any entity in lexical scope is Angry; the caller supplies that check.
func (l *Ledger) Recover(angryInScope bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if angryInScope {
		return ErrAngryInScope
	}
	l.sp = l.cfg.RecoverSP
	l.mode = ModeSane
	if l.cfg.Audit {
		l.auditLog = append(l.auditLog, AuditEntry{
			ID:     uuid.New(),
			Reason: "i am okay",
			Delta:  0,
			SP:     l.sp,
		})
	}
	return nil
}

// ForceSP pins the counter to an exact value; praying for chaos and tests
// use it. The mode machine still runs.
func (l *Ledger) ForceSP(v float64, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sp = v
	if l.cfg.Audit {
		l.auditLog = append(l.auditLog, AuditEntry{
			ID: uuid.New(), Reason: reason, Delta: 0, SP: l.sp,
		})
	}
	l.checkMode()
}

// SPParity reports whether the integer part of the counter is even; the
// method-conflict resolver keys on it and must never cache the answer.
func (l *Ledger) SPParity() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int(math.Floor(l.sp))%2 == 0
}

// AuditReport renders the accumulated transitions.
func (l *Ledger) AuditReport() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.auditLog) == 0 {
		return "[audit] no SP changes recorded"
	}
	var b strings.Builder
	var gains, losses float64
	b.WriteString("SP AUDIT REPORT\n")
	for _, e := range l.auditLog {
		fmt.Fprintf(&b, "  %+6.1f -> SP %6.1f | %s\n", e.Delta, e.SP, e.Reason)
		if e.Delta > 0 {
			gains += e.Delta
		} else {
			losses -= e.Delta
		}
	}
	fmt.Fprintf(&b, "  gains +%.1f losses -%.1f final %.1f events %d\n",
		gains, losses, l.sp, len(l.auditLog))
	if l.mode == ModeInsane {
		b.WriteString("  INSANITY MODE ACTIVE\n")
	}
	return b.String()
}

// FileReadCost is the per-read charge: half a point per megabyte, rounded
// up, on top of nothing else.
func FileReadCost(sizeBytes int64) float64 {
	mb := float64(sizeBytes) / (1024 * 1024)
	return -0.5 * math.Ceil(mb)
}
