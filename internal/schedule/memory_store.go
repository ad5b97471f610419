package schedule

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore holds requests in memory. Values are copied on the way in and
// out so callers can never mutate the collection behind the service's back.
type MemoryStore struct {
	mu       sync.RWMutex
	requests map[string]*AppointmentRequest
	order    map[string]int // insertion order, for deterministic listings
	nextSeq  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests: make(map[string]*AppointmentRequest),
		order:    make(map[string]int),
	}
}

func (m *MemoryStore) GetRequestByID(_ context.Context, id string) (*AppointmentRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	req, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *req
	return &out, nil
}

func (m *MemoryStore) ListRequests(_ context.Context) ([]AppointmentRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]AppointmentRequest, 0, len(m.requests))
	for _, req := range m.requests {
		out = append(out, *req)
	}
	m.sortByInsertion(out)
	return out, nil
}

func (m *MemoryStore) ListByDoctorDate(_ context.Context, doctorID, date string) ([]AppointmentRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []AppointmentRequest
	for _, req := range m.requests {
		if req.DoctorID == doctorID && req.Date == date {
			out = append(out, *req)
		}
	}
	m.sortByInsertion(out)
	return out, nil
}

func (m *MemoryStore) InsertRequest(_ context.Context, req *AppointmentRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *req
	m.requests[req.ID] = &cp
	m.order[req.ID] = m.nextSeq
	m.nextSeq++
	return nil
}

func (m *MemoryStore) UpdateRequest(_ context.Context, req *AppointmentRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.requests[req.ID]; !ok {
		return ErrNotFound
	}
	cp := *req
	m.requests[req.ID] = &cp
	return nil
}

func (m *MemoryStore) sortByInsertion(reqs []AppointmentRequest) {
	sort.SliceStable(reqs, func(i, j int) bool {
		return m.order[reqs[i].ID] < m.order[reqs[j].ID]
	})
}
