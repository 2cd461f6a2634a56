package client

import (
	"sync"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/dto/response"
)

// SeatMap is the client's local view of seat status. It may run ahead of the
// server with speculative changes until the next Reconcile.
type SeatMap struct {
	mu    sync.RWMutex
	seats map[string]entity.SeatStatus
}

func NewSeatMap(resp *response.SeatMapResponse) *SeatMap {
	m := &SeatMap{seats: make(map[string]entity.SeatStatus)}
	if resp != nil {
		m.Reconcile(resp)
	}
	return m
}

func (m *SeatMap) Status(seatID string) entity.SeatStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seats[seatID]
}

// Snapshot returns a copy of the current view.
func (m *SeatMap) Snapshot() map[string]entity.SeatStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]entity.SeatStatus, len(m.seats))
	for id, status := range m.seats {
		out[id] = status
	}
	return out
}

// Apply sets status on seatIDs and returns a function restoring what was
// there before. Calling the rollback more than once is harmless.
func (m *SeatMap) Apply(seatIDs []string, status entity.SeatStatus) (rollback func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := make(map[string]entity.SeatStatus, len(seatIDs))
	for _, id := range seatIDs {
		prev[id] = m.seats[id]
		m.seats[id] = status
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for id, s := range prev {
				m.seats[id] = s
			}
		})
	}
}

// Reconcile overwrites the local view with what the server reported.
func (m *SeatMap) Reconcile(resp *response.SeatMapResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range resp.Seats {
		m.seats[s.SeatID] = s.Status
	}
}
