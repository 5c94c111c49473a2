package driver

import (
	"fmt"
	"sync"

	"sanity/engine-go/pkg/runtime"
)

// RecordingCanvas is a canvas adapter that keeps a transcript of draw calls
// instead of rendering anything. It is what the engine gets wired to when no
// display exists, and what the tests inspect.
type RecordingCanvas struct {
	mu      sync.Mutex
	ops     []string
	click   func(x, y int)
	key     func(key string)
	move    func(x, y int)
	cleared int
}

func NewRecordingCanvas() *RecordingCanvas {
	return &RecordingCanvas{}
}

var _ runtime.CanvasAdapter = (*RecordingCanvas)(nil)

func (c *RecordingCanvas) record(format string, args ...any) {
	c.mu.Lock()
	c.ops = append(c.ops, fmt.Sprintf(format, args...))
	c.mu.Unlock()
}

func (c *RecordingCanvas) Pixel(x, y int, color string) error {
	c.record("pixel %d %d %s", x, y, color)
	return nil
}

func (c *RecordingCanvas) Line(x1, y1, x2, y2 int, color string) error {
	c.record("line %d %d %d %d %s", x1, y1, x2, y2, color)
	return nil
}

func (c *RecordingCanvas) Rect(x, y, w, h int, color string) error {
	c.record("rect %d %d %d %d %s", x, y, w, h, color)
	return nil
}

func (c *RecordingCanvas) Circle(x, y, r int, color string) error {
	c.record("circle %d %d %d %s", x, y, r, color)
	return nil
}

func (c *RecordingCanvas) Text(x, y int, s, color string) error {
	c.record("text %d %d %q %s", x, y, s, color)
	return nil
}

func (c *RecordingCanvas) Clear() error {
	c.mu.Lock()
	c.ops = c.ops[:0]
	c.cleared++
	c.mu.Unlock()
	return nil
}

func (c *RecordingCanvas) Show() error {
	c.record("show")
	return nil
}

func (c *RecordingCanvas) OnClick(fn func(x, y int))     { c.click = fn }
func (c *RecordingCanvas) OnKey(fn func(key string))     { c.key = fn }
func (c *RecordingCanvas) OnMouseMove(fn func(x, y int)) { c.move = fn }

// Ops returns a copy of the recorded draw transcript.
func (c *RecordingCanvas) Ops() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.ops))
	copy(out, c.ops)
	return out
}

// Clears reports how many times the surface was wiped.
func (c *RecordingCanvas) Clears() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cleared
}

// Click simulates a pointer event for programs that registered a handler.
func (c *RecordingCanvas) Click(x, y int) {
	if c.click != nil {
		c.click(x, y)
	}
}

// Key simulates a key event.
func (c *RecordingCanvas) Key(key string) {
	if c.key != nil {
		c.key(key)
	}
}
