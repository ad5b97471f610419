package queue

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore holds queue items in memory with copy-in/copy-out semantics.
type MemoryStore struct {
	mu      sync.RWMutex
	items   map[string]*Item
	order   map[string]int
	nextSeq int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]*Item),
		order: make(map[string]int),
	}
}

func (m *MemoryStore) GetItemByID(_ context.Context, id string) (*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *item
	return &out, nil
}

func (m *MemoryStore) ListItems(_ context.Context) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Item, 0, len(m.items))
	for _, item := range m.items {
		out = append(out, *item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return m.order[out[i].ID] < m.order[out[j].ID]
	})
	return out, nil
}

func (m *MemoryStore) InsertItem(_ context.Context, item *Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *item
	m.items[item.ID] = &cp
	m.order[item.ID] = m.nextSeq
	m.nextSeq++
	return nil
}

func (m *MemoryStore) UpdateItem(_ context.Context, item *Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[item.ID]; !ok {
		return ErrNotFound
	}
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *MemoryStore) ReplaceAll(_ context.Context, items []Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[string]*Item, len(items))
	m.order = make(map[string]int, len(items))
	m.nextSeq = 0
	for i := range items {
		cp := items[i]
		m.items[cp.ID] = &cp
		m.order[cp.ID] = m.nextSeq
		m.nextSeq++
	}
	return nil
}
