package runtime

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"sanity/engine-go/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNumber Kind = iota
	KindWord
	KindYep
	KindNope
	KindDunno
	KindVoid
	KindList
	KindBlob
	KindFunction
	KindInstance
	KindHandle
	KindUncertain
	KindTask
	KindBlame
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "Number"
	case KindWord:
		return "Word"
	case KindYep:
		return "Yep"
	case KindNope:
		return "Nope"
	case KindDunno:
		return "Dunno"
	case KindVoid:
		return "Void"
	case KindList:
		return "List"
	case KindBlob:
		return "Blob"
	case KindFunction:
		return "Function"
	case KindInstance:
		return "Instance"
	case KindHandle:
		return "Handle"
	case KindUncertain:
		return "Uncertain"
	case KindTask:
		return "Task"
	case KindBlame:
		return "Blame"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type NumberValue struct {
	Val float64
}

func (v NumberValue) Kind() Kind { return KindNumber }

type WordValue struct {
	Val string
}

func (v WordValue) Kind() Kind { return KindWord }

type YepValue struct{}

func (YepValue) Kind() Kind { return KindYep }

type NopeValue struct{}

func (NopeValue) Kind() Kind { return KindNope }

type DunnoValue struct{}

func (DunnoValue) Kind() Kind { return KindDunno }

type VoidValue struct{}

func (VoidValue) Kind() Kind { return KindVoid }

//-----------------------------------------------------------------------------
// Collections
//-----------------------------------------------------------------------------

type ListValue struct {
	Elements []Value
}

func (v *ListValue) Kind() Kind { return KindList }

type BlobValue struct {
	Fields map[string]Value
}

func (v *BlobValue) Kind() Kind { return KindBlob }

//-----------------------------------------------------------------------------
// Functions, instances, handles
//-----------------------------------------------------------------------------

type FunctionValue struct {
	Decl     *ast.FunctionDecl
	Closure  *Environment
	EntityID EntityID
}

func (v *FunctionValue) Kind() Kind { return KindFunction }

// InstanceValue is a live personality instance. Its fields are entity-backed;
// the value only carries the reference.
type InstanceValue struct {
	Personality string
	Fields      map[string]Value
	EntityID    EntityID
}

func (v *InstanceValue) Kind() Kind { return KindInstance }

// HandleValue references a file-handle or canvas entity by id.
type HandleValue struct {
	Name     string
	EntityID EntityID
}

func (v HandleValue) Kind() Kind { return KindHandle }

//-----------------------------------------------------------------------------
// Uncertainty and blame
//-----------------------------------------------------------------------------

// UncertainValue carries both the committed value and the previous one; reads
// may resolve to either until an observation collapses it.
type UncertainValue struct {
	Current  Value
	Previous Value
}

func (v *UncertainValue) Kind() Kind { return KindUncertain }

// BlameValue is the structured runtime-error payload.
type BlameValue struct {
	Message string
	Source  string
	Target  string
	Mood    Mood
}

func (v BlameValue) Kind() Kind { return KindBlame }

func (v BlameValue) Error() string { return v.Message }

//-----------------------------------------------------------------------------
// Vibe task handles
//-----------------------------------------------------------------------------

type TaskStatus int

const (
	TaskPending TaskStatus = iota
	TaskResolved
	TaskFailed
)

// TaskValue is the handle returned by a vibe spawn. Chill blocks on it.
type TaskValue struct {
	ID     uuid.UUID
	mu     sync.Mutex
	status TaskStatus
	result Value
	err    error
	done   *sync.Cond
}

func NewTask() *TaskValue {
	t := &TaskValue{ID: uuid.New()}
	t.done = sync.NewCond(&t.mu)
	return t
}

func (v *TaskValue) Kind() Kind { return KindTask }

func (v *TaskValue) Status() TaskStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// Await blocks until the task settles and returns its outcome.
func (v *TaskValue) Await() (Value, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for v.status == TaskPending {
		v.done.Wait()
	}
	return v.result, v.err
}

func (v *TaskValue) Resolve(val Value) {
	v.mu.Lock()
	if v.status == TaskPending {
		v.status = TaskResolved
		v.result = val
		v.done.Broadcast()
	}
	v.mu.Unlock()
}

func (v *TaskValue) Fail(err error) {
	v.mu.Lock()
	if v.status == TaskPending {
		v.status = TaskFailed
		v.err = err
		v.done.Broadcast()
	}
	v.mu.Unlock()
}

//-----------------------------------------------------------------------------
// Helpers
//-----------------------------------------------------------------------------

// CopyValue deep-copies lists and blobs; scalars are value types already.
func CopyValue(v Value) Value {
	switch val := v.(type) {
	case *ListValue:
		elems := make([]Value, len(val.Elements))
		for i, e := range val.Elements {
			elems[i] = CopyValue(e)
		}
		return &ListValue{Elements: elems}
	case *BlobValue:
		fields := make(map[string]Value, len(val.Fields))
		for k, f := range val.Fields {
			fields[k] = CopyValue(f)
		}
		return &BlobValue{Fields: fields}
	case *UncertainValue:
		return &UncertainValue{Current: CopyValue(val.Current), Previous: CopyValue(val.Previous)}
	default:
		return v
	}
}

// FormatValue renders a value the way print does.
func FormatValue(v Value) string {
	switch val := v.(type) {
	case NumberValue:
		return strconv.FormatFloat(val.Val, 'f', -1, 64)
	case WordValue:
		return val.Val
	case YepValue:
		return "yep"
	case NopeValue:
		return "nope"
	case DunnoValue:
		return "dunno"
	case VoidValue:
		return "Void"
	case *ListValue:
		parts := make([]string, len(val.Elements))
		for i, e := range val.Elements {
			parts[i] = FormatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *BlobValue:
		keys := make([]string, 0, len(val.Fields))
		for k := range val.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + FormatValue(val.Fields[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *UncertainValue:
		return FormatValue(val.Current)
	case *FunctionValue:
		return "<function " + val.Decl.Name + ">"
	case *InstanceValue:
		return "<" + val.Personality + " instance>"
	case HandleValue:
		return "<handle " + val.Name + ">"
	case *TaskValue:
		return "<vibe " + val.ID.String() + ">"
	case BlameValue:
		return "blame: " + val.Message
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ValuesEqual is loose equality on raw payloads, same-kind only.
func ValuesEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case NumberValue:
		return av.Val == b.(NumberValue).Val
	case WordValue:
		return av.Val == b.(WordValue).Val
	case YepValue, NopeValue, DunnoValue, VoidValue:
		return true
	case *ListValue:
		bv := b.(*ListValue)
		if len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !ValuesEqual(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
