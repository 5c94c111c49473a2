package interpreter

import (
	"fmt"

	"sanity/engine-go/pkg/ast"
	"sanity/engine-go/pkg/runtime"
)

// returnSignal unwinds a function body. Carried as an error so it rides the
// normal return path; only the call machinery consumes it.
type returnSignal struct {
	value runtime.Value
	terms []ast.Terminator
}

func (returnSignal) Error() string { return "return outside function" }

// enoughSignal unwinds the nearest loop.
type enoughSignal struct{}

func (enoughSignal) Error() string { return "enough outside loop" }

// fatalCrash terminates the program. Nothing catches it, not even yolo.
type fatalCrash struct {
	msg string
}

func (f fatalCrash) Error() string { return f.msg }

// IsFatal reports whether an error is an uncatchable crash.
func IsFatal(err error) bool {
	_, ok := err.(fatalCrash)
	return ok
}

// yoloState tracks swallowed errors in the innermost yolo scope. Ten or
// more swallows curse everything the scope touched.
type yoloState struct {
	swallowed int
	touched   map[runtime.EntityID]bool
}

// blame builds a structured runtime error and applies its graph damage
// before any handler can run: the trust scars stay even when caught.
func (i *Interpreter) blame(fr *frame, msg, source string) runtime.BlameValue {
	b := runtime.BlameValue{Message: msg, Source: source, Mood: runtime.MoodNeutral}
	if source != "" {
		if id, ok := fr.env.Lookup(source); ok {
			i.ctx.MarkErrored(id)
		}
	}
	return b
}

// blamef is blame with formatting and no source entity.
func (i *Interpreter) blamef(fr *frame, format string, args ...any) runtime.BlameValue {
	return i.blame(fr, fmt.Sprintf(format, args...), "")
}
