package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/data/memstore"
	"ticket-booking/internal/data/repository"
	"ticket-booking/pkg/clock"
	"ticket-booking/pkg/events"
	"ticket-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

var errStoreDown = errors.New("connection reset by peer")

type harness struct {
	svc       *Service
	repo      *repository.Repository
	store     *memstore.Store
	clock     *clock.Fake
	publisher *recordingPublisher

	eventID uuid.UUID
	vip     entity.SeatCategory
	regular entity.SeatCategory
	userA   utils.CurrentUser
	userB   utils.CurrentUser
	admin   utils.CurrentUser
}

type harnessOption func(repo *repository.Repository)

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	clk := clock.NewFake(time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC))
	store := memstore.New(clk)

	eventID := uuid.New()
	vip := entity.SeatCategory{ID: uuid.New(), EventID: eventID, Name: "VIP", Price: 150000, Color: "#d4af37", IsAvailable: true}
	regular := entity.SeatCategory{ID: uuid.New(), EventID: eventID, Name: "Regular", Price: 75000, Color: "#4a90d9", IsAvailable: true}
	store.AddCategory(vip)
	store.AddCategory(regular)
	store.AddLayout(eventID, vip.ID, []string{"A"}, 6)
	store.AddLayout(eventID, regular.ID, []string{"B", "C"}, 6)

	repo := store.Repository()
	for _, opt := range opts {
		opt(repo)
	}

	pub := &recordingPublisher{}
	config := &utils.Config{Booking: utils.BookingConfig{LockTTLMinutes: 15}}
	log := zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))

	return &harness{
		svc:       NewService(repo, Infra{Publisher: pub, Clock: clk}, config, log),
		repo:      repo,
		store:     store,
		clock:     clk,
		publisher: pub,
		eventID:   eventID,
		vip:       vip,
		regular:   regular,
		userA:     utils.CurrentUser{ID: uuid.New(), Email: "a@example.com"},
		userB:     utils.CurrentUser{ID: uuid.New(), Email: "b@example.com"},
		admin:     utils.CurrentUser{ID: uuid.New(), Email: "ops@example.com", Role: utils.RoleAdmin},
	}
}

func (h *harness) seatStatus(t *testing.T) map[string]entity.SeatStatus {
	t.Helper()
	resp, err := h.svc.Inventory.ListSeats(context.Background(), h.eventID.String(), "")
	if err != nil {
		t.Fatalf("list seats: %v", err)
	}
	out := make(map[string]entity.SeatStatus, len(resp.Seats))
	for _, s := range resp.Seats {
		out[s.SeatID] = s.Status
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// failingBookings wraps a booking store and fails Create.
type failingBookings struct {
	repository.BookingRepository
}

func (failingBookings) Create(context.Context, *entity.Booking) error {
	return errStoreDown
}

// flakySeats fails the first n reads and then delegates.
type flakySeats struct {
	repository.SeatRepository
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakySeats) ListWithStatus(ctx context.Context, eventID uuid.UUID, categoryID *uuid.UUID) ([]*entity.SeatView, error) {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failures
	f.mu.Unlock()
	if fail {
		return nil, errStoreDown
	}
	return f.SeatRepository.ListWithStatus(ctx, eventID, categoryID)
}

type mockCategoryRepo struct {
	mock.Mock
}

func (m *mockCategoryRepo) FindByEventID(ctx context.Context, eventID uuid.UUID) ([]*entity.SeatCategory, error) {
	args := m.Called(ctx, eventID)
	if v := args.Get(0); v != nil {
		return v.([]*entity.SeatCategory), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCategoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.SeatCategory, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*entity.SeatCategory), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCategoryCache struct {
	mock.Mock
}

func (m *mockCategoryCache) GetCategories(ctx context.Context, eventID uuid.UUID) ([]*entity.SeatCategory, error) {
	args := m.Called(ctx, eventID)
	if v := args.Get(0); v != nil {
		return v.([]*entity.SeatCategory), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCategoryCache) SetCategories(ctx context.Context, eventID uuid.UUID, categories []*entity.SeatCategory) error {
	return m.Called(ctx, eventID, categories).Error(0)
}
