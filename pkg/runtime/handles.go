package runtime

import (
	"path/filepath"
	"strings"
	"time"
)

// FileAdapter performs real file I/O on the engine's behalf. The engine
// never touches the filesystem directly; it charges costs and maps adapter
// failures into moods.
type FileAdapter interface {
	Open(path string) error
	Read(path string) (string, int64, error)
	Write(path string, data string) (int64, error)
	Append(path string, data string) (int64, error)
	Close(path string) error
	Exists(path string) bool
	Delete(path string) error
	Size(path string) (int64, error)
	Modified(path string) (time.Time, error)
}

// CanvasAdapter renders drawing commands. Each call maps to a scoped cost
// against the canvas entity's own budget.
type CanvasAdapter interface {
	Pixel(x, y int, color string) error
	Line(x1, y1, x2, y2 int, color string) error
	Rect(x, y, w, h int, color string) error
	Circle(x, y, r int, color string) error
	Text(x, y int, s, color string) error
	Clear() error
	Show() error
	OnClick(fn func(x, y int))
	OnKey(fn func(key string))
	OnMouseMove(fn func(x, y int))
}

// filePersonality is the disposition a handle is born with, keyed by
// extension.
type filePersonality struct {
	Mood  Mood
	Trust int
	Trait Trait
}

var extPersonalities = map[string]filePersonality{
	".json": {Mood: MoodParanoid, Trust: 70},
	".env":  {Mood: MoodParanoid, Trust: 40},
	".log":  {Mood: MoodNeutral, Trust: 70, Trait: TraitTired},
	".csv":  {Mood: MoodSad, Trust: 70},
	".md":   {Mood: MoodHappy, Trust: 70},
	".san":  {Mood: MoodHappy, Trust: 70},
	".yaml": {Mood: MoodAfraid, Trust: 70},
	".yml":  {Mood: MoodAfraid, Trust: 70},
	".xml":  {Mood: MoodAngry, Trust: 70},
	".txt":  {Mood: MoodNeutral, Trust: 70},
}

// PersonalityForPath assigns the birth mood and trust of a file handle from
// its extension. Unknown extensions are met with fear; no extension at all
// is unremarkable. Every format starts at trust 70 except .env, which
// carries secrets.
func PersonalityForPath(path string) (Mood, int, Trait) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return MoodNeutral, 70, ""
	}
	if p, ok := extPersonalities[ext]; ok {
		return p.Mood, p.Trust, p.Trait
	}
	return MoodAfraid, 70, ""
}

// NewFileHandle creates the handle entity with its extension personality
// and an independent budget.
func NewFileHandle(store *EntityStore, path string, budget float64) *Entity {
	e := store.Create(path, EntityFileHandle)
	mood, trust, trait := PersonalityForPath(path)
	e.Mood = mood
	e.Trust = trust
	if trait != "" {
		e.GainTrait(trait)
	}
	sp := budget
	e.OwnSP = &sp
	e.Value = HandleValue{Name: path, EntityID: e.ID}
	return e
}

// NewCanvas creates a canvas entity carrying its own budget.
func NewCanvas(store *EntityStore, name string, budget float64) *Entity {
	e := store.Create(name, EntityCanvas)
	sp := budget
	e.OwnSP = &sp
	e.Value = HandleValue{Name: name, EntityID: e.ID}
	return e
}
