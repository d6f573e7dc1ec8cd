package sink

import (
	"context"
	"fmt"
	"sync"
)

// Entry is one artifact held by a Memory sink.
type Entry struct {
	Resource Resource
	Data     []byte
}

// Memory keeps artifacts in memory in write order.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
	index   map[string]int
}

// NewMemory returns an empty memory sink.
func NewMemory() *Memory {
	return &Memory{index: make(map[string]int)}
}

func (m *Memory) Create(ctx context.Context, res Resource, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := res.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := res.Location + ":" + res.Path()
	if _, dup := m.index[key]; dup {
		return fmt.Errorf("resource %s written twice", key)
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Entry{Resource: res, Data: append([]byte(nil), data...)})
	return nil
}

func (m *Memory) Close() error {
	return nil
}

// Entries returns the artifacts in write order.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// Get returns the artifact stored at path (package/file) in location.
func (m *Memory) Get(location, path string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.index[location+":"+path]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}
