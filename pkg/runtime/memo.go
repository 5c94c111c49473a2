package runtime

import (
	"fmt"
	"strings"
	"sync"
)

// Signature renders an argument list into a stable cache key: value plus
// type, so 1 and "1" never collide.
func Signature(args []Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%s:%s", a.Kind(), FormatValue(a))
	}
	return strings.Join(parts, "|")
}

type memoEntry struct {
	key   string
	value Value
}

// MemoStore is the per-function result cache. Eviction is strictly by
// insertion order, never by recency of use; an evicted entry is returned so
// the caller can archive it as deceased.
type MemoStore struct {
	mu      sync.Mutex
	cap     int
	order   []string
	entries map[string]memoEntry
}

func NewMemoStore(capacity int) *MemoStore {
	return &MemoStore{cap: capacity, entries: make(map[string]memoEntry)}
}

func (m *MemoStore) key(fn string, sig string) string {
	return fn + "(" + sig + ")"
}

// Get returns the cached value for a function+signature, if present. Hits
// do not refresh insertion order.
func (m *MemoStore) Get(fn string, sig string) (Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[m.key(fn, sig)]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Put caches a result. When capacity overflows, the oldest surviving entry
// is evicted and returned (name and value) so it can be laid to rest.
func (m *MemoStore) Put(fn string, sig string, v Value) (evictedName string, evictedValue Value, evicted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.key(fn, sig)
	if _, exists := m.entries[k]; !exists {
		m.order = append(m.order, k)
	}
	m.entries[k] = memoEntry{key: k, value: v}
	if len(m.entries) <= m.cap {
		return "", nil, false
	}
	oldest := m.order[0]
	m.order = m.order[1:]
	old := m.entries[oldest]
	delete(m.entries, oldest)
	return oldest, old.value, true
}

// Forget drops every entry belonging to a function, for when the function
// itself dies.
func (m *MemoStore) Forget(fn string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := fn + "("
	rest := m.order[:0]
	for _, k := range m.order {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		} else {
			rest = append(rest, k)
		}
	}
	m.order = rest
}

// Len reports the live entry count.
func (m *MemoStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
