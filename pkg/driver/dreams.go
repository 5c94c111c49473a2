package driver

import (
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"sanity/engine-go/pkg/runtime"
)

// A dream snapshot is a YAML file living next to the program source. Each
// entry carries the value plus a checksum of it; a mismatch on load means a
// human edited the file between runs, which the engine punishes.
type dreamFile struct {
	Dreams map[string]dreamEntry `yaml:"dreams"`
}

type dreamEntry struct {
	Kind  string `yaml:"kind"`
	Value any    `yaml:"value,omitempty"`
	Sum   string `yaml:"sum"`
}

// DreamPath returns the snapshot path for a program source file.
func DreamPath(sourcePath string) string {
	return sourcePath + ".dream"
}

// LoadDreams reads a snapshot and reports, per variable, both the persisted
// value and whether the entry was tampered with since the engine wrote it.
// A missing snapshot is a cold start, not an error.
func LoadDreams(path string) (map[string]runtime.Value, map[string]bool, error) {
	values := map[string]runtime.Value{}
	tampered := map[string]bool{}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return values, tampered, nil
		}
		return nil, nil, fmt.Errorf("dreams: open %s: %w", path, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw dreamFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return values, tampered, nil
		}
		return nil, nil, fmt.Errorf("dreams: parse %s: %w", path, err)
	}

	for name, entry := range raw.Dreams {
		values[name] = decodeDream(entry)
		if entry.Sum != checksum(entry.Kind, entry.Value) {
			tampered[name] = true
		}
	}
	return values, tampered, nil
}

// SaveDreams writes the snapshot. Nothing to dream about, nothing to write.
func SaveDreams(path string, dreams map[string]runtime.Value) error {
	if len(dreams) == 0 {
		return nil
	}

	out := dreamFile{Dreams: make(map[string]dreamEntry, len(dreams))}
	for name, v := range dreams {
		kind, val := encodeDream(v)
		out.Dreams[name] = dreamEntry{Kind: kind, Value: val, Sum: checksum(kind, val)}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dreams: create %s: %w", path, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(&out); err != nil {
		return fmt.Errorf("dreams: write %s: %w", path, err)
	}
	return encoder.Close()
}

// encodeDream flattens an engine value into YAML-friendly form. Handles,
// functions and tasks do not survive sleep; they come back as void.
func encodeDream(v runtime.Value) (string, any) {
	switch val := v.(type) {
	case runtime.NumberValue:
		return "number", val.Val
	case runtime.WordValue:
		return "word", val.Val
	case runtime.YepValue:
		return "yep", nil
	case runtime.NopeValue:
		return "nope", nil
	case runtime.DunnoValue:
		return "dunno", nil
	case *runtime.ListValue:
		elems := make([]any, len(val.Elements))
		for i, e := range val.Elements {
			k, ev := encodeDream(e)
			elems[i] = map[string]any{"kind": k, "value": ev}
		}
		return "list", elems
	case *runtime.BlobValue:
		fields := make(map[string]any, len(val.Fields))
		for k, fv := range val.Fields {
			fk, fval := encodeDream(fv)
			fields[k] = map[string]any{"kind": fk, "value": fval}
		}
		return "blob", fields
	case *runtime.UncertainValue:
		return encodeDream(val.Current)
	default:
		return "void", nil
	}
}

func decodeDream(entry dreamEntry) runtime.Value {
	switch entry.Kind {
	case "number":
		return runtime.NumberValue{Val: anyToFloat(entry.Value)}
	case "word":
		s, _ := entry.Value.(string)
		return runtime.WordValue{Val: s}
	case "yep":
		return runtime.YepValue{}
	case "nope":
		return runtime.NopeValue{}
	case "dunno":
		return runtime.DunnoValue{}
	case "list":
		raw, _ := entry.Value.([]any)
		elems := make([]runtime.Value, 0, len(raw))
		for _, item := range raw {
			elems = append(elems, decodeDream(nestedEntry(item)))
		}
		return &runtime.ListValue{Elements: elems}
	case "blob":
		raw, _ := entry.Value.(map[string]any)
		fields := make(map[string]runtime.Value, len(raw))
		for k, item := range raw {
			fields[k] = decodeDream(nestedEntry(item))
		}
		return &runtime.BlobValue{Fields: fields}
	default:
		return runtime.VoidValue{}
	}
}

func nestedEntry(item any) dreamEntry {
	m, ok := item.(map[string]any)
	if !ok {
		return dreamEntry{Kind: "void"}
	}
	kind, _ := m["kind"].(string)
	return dreamEntry{Kind: kind, Value: m["value"]}
}

func anyToFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return 0
	}
}

// checksum fingerprints one entry so hand edits are detectable. It is not a
// security measure, just a tripwire.
func checksum(kind string, value any) string {
	h := fnv.New64a()
	io.WriteString(h, kind)
	h.Write([]byte{0})
	io.WriteString(h, canonical(value))
	return fmt.Sprintf("%016x", h.Sum64())
}

// canonical renders a value deterministically, with map keys sorted.
func canonical(v any) string {
	switch val := v.(type) {
	case nil:
		return "~"
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case int:
		return strconv.Itoa(val)
	case string:
		return strconv.Quote(val)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		out := "["
		for i, item := range val {
			if i > 0 {
				out += ","
			}
			out += canonical(item)
		}
		return out + "]"
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := "{"
		for i, k := range keys {
			if i > 0 {
				out += ","
			}
			out += strconv.Quote(k) + ":" + canonical(val[k])
		}
		return out + "}"
	default:
		return fmt.Sprintf("%v", val)
	}
}
