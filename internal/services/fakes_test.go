package services

import (
	"context"
	"sync"
	"time"

	"tablekeep/internal/common"
	"tablekeep/internal/models"
	"tablekeep/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type partySizeKey struct{}

// decision is one admission attempt as seen inside the locked section.
type decision struct {
	partySize int
	admitted  bool
}

// memoryReservations is an in-memory ReservationRepository. Writes made in
// WithDayLock are staged and applied only when fn succeeds. It takes no
// per-day lock of its own, so serialization comes from the service's locker.
type memoryReservations struct {
	mu           sync.Mutex
	settings     map[uuid.UUID]*models.ReservationSettings
	reservations map[uuid.UUID]*models.Reservation
	decisions    []decision
	txs          int
}

func newMemoryReservations() *memoryReservations {
	return &memoryReservations{
		settings:     make(map[uuid.UUID]*models.ReservationSettings),
		reservations: make(map[uuid.UUID]*models.Reservation),
	}
}

func (m *memoryReservations) setSettings(s *models.ReservationSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[s.TenantID] = s
}

func (m *memoryReservations) Get(ctx context.Context, tenantID uuid.UUID) (*models.ReservationSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.settings[tenantID]; ok {
		copied := *s
		return &copied, nil
	}
	return models.DefaultReservationSettings(tenantID), nil
}

func (m *memoryReservations) Upsert(ctx context.Context, s *models.ReservationSettings) error {
	m.setSettings(s)
	return nil
}

func (m *memoryReservations) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.reservations[id]
	if !ok || res.TenantID != tenantID {
		return nil, common.NotFound("reservation")
	}
	copied := *res
	return &copied, nil
}

func (m *memoryReservations) ListByDate(ctx context.Context, tenantID uuid.UUID, date models.Date, status *models.ReservationStatus) ([]*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Reservation
	for _, res := range m.reservations {
		if res.TenantID == tenantID && res.Date == date && (status == nil || res.Status == *status) {
			copied := *res
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memoryReservations) ListByCreator(ctx context.Context, tenantID, createdBy uuid.UUID, limit, offset int) ([]*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Reservation
	for _, res := range m.reservations {
		if res.TenantID == tenantID && res.CreatedBy == createdBy {
			copied := *res
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memoryReservations) sum(tenantID uuid.UUID, date models.Date, slot *models.Slot) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, res := range m.reservations {
		if res.TenantID != tenantID || res.Date != date || res.Status != models.ReservationConfirmed {
			continue
		}
		if slot != nil && res.Slot != *slot {
			continue
		}
		total += res.PartySize
	}
	return total
}

func (m *memoryReservations) SumCovers(ctx context.Context, tenantID uuid.UUID, date models.Date) (int, error) {
	return m.sum(tenantID, date, nil), nil
}

func (m *memoryReservations) CompletePast(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, res := range m.reservations {
		settings, ok := m.settings[res.TenantID]
		if !ok {
			settings = models.DefaultReservationSettings(res.TenantID)
		}
		today, err := settings.Today(now)
		if err != nil {
			return n, err
		}
		if res.Status == models.ReservationConfirmed && res.Date.Before(today) {
			res.Status = models.ReservationCompleted
			n++
		}
	}
	return n, nil
}

func (m *memoryReservations) WithDayLock(ctx context.Context, tenantID uuid.UUID, date models.Date, fn func(tx repositories.ReservationTx) error) error {
	tx := &memoryTx{store: m, tenantID: tenantID, date: date, statuses: make(map[uuid.UUID]models.ReservationStatus)}
	err := fn(tx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs++
	if size, ok := ctx.Value(partySizeKey{}).(int); ok {
		m.decisions = append(m.decisions, decision{partySize: size, admitted: err == nil})
	}
	if err != nil {
		return err
	}
	for _, res := range tx.inserts {
		copied := *res
		m.reservations[res.ID] = &copied
	}
	for id, status := range tx.statuses {
		m.reservations[id].Status = status
	}
	return nil
}

func (m *memoryReservations) decisionLog() []decision {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]decision(nil), m.decisions...)
}

func (m *memoryReservations) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reservations)
}

type memoryTx struct {
	store    *memoryReservations
	tenantID uuid.UUID
	date     models.Date
	inserts  []*models.Reservation
	statuses map[uuid.UUID]models.ReservationStatus
}

func (t *memoryTx) Settings(ctx context.Context) (*models.ReservationSettings, error) {
	return t.store.Get(ctx, t.tenantID)
}

func (t *memoryTx) SumDay(ctx context.Context) (int, error) {
	return t.store.sum(t.tenantID, t.date, nil), nil
}

func (t *memoryTx) SumSlot(ctx context.Context, slot models.Slot) (int, error) {
	return t.store.sum(t.tenantID, t.date, &slot), nil
}

func (t *memoryTx) Insert(ctx context.Context, res *models.Reservation) error {
	res.TenantID = t.tenantID
	res.Date = t.date
	res.CreatedAt = time.Now()
	t.inserts = append(t.inserts, res)
	return nil
}

func (t *memoryTx) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	res, err := t.store.GetByID(ctx, t.tenantID, id)
	if err != nil {
		return nil, err
	}
	if res.Date != t.date {
		return nil, common.NotFound("reservation")
	}
	return res, nil
}

func (t *memoryTx) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ReservationStatus) error {
	t.statuses[id] = status
	return nil
}

// memoryScoped is an in-memory ScopedRepository keyed by id, recording the
// owning tenant of each row. Ids are unique across tenants, like the primary
// keys of the catalog tables.
type memoryScoped[T models.Scoped] struct {
	mu   sync.Mutex
	rows map[uuid.UUID]T
}

func newMemoryScoped[T models.Scoped]() *memoryScoped[T] {
	return &memoryScoped[T]{rows: make(map[uuid.UUID]T)}
}

func (m *memoryScoped[T]) Insert(ctx context.Context, entity T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.rows[entity.GetID()]; taken {
		return common.NewError(common.KindInvalid, "record already exists")
	}
	m.rows[entity.GetID()] = entity
	return nil
}

func (m *memoryScoped[T]) FindByID(ctx context.Context, tenantID, id uuid.UUID) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	row, ok := m.rows[id]
	if !ok || row.GetTenantID() != tenantID {
		return zero, common.NotFound("entity")
	}
	return row, nil
}

func (m *memoryScoped[T]) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []T
	for _, row := range m.rows {
		if row.GetTenantID() == tenantID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memoryScoped[T]) Update(ctx context.Context, entity T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[entity.GetID()]
	if !ok || row.GetTenantID() != entity.GetTenantID() {
		return common.NotFound("entity")
	}
	m.rows[entity.GetID()] = entity
	return nil
}

func (m *memoryScoped[T]) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.GetTenantID() != tenantID {
		return common.NotFound("entity")
	}
	delete(m.rows, id)
	return nil
}

func (m *memoryScoped[T]) ExistsInTenant(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	return ok && row.GetTenantID() == tenantID, nil
}

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Record(ctx context.Context, event *models.AuditEvent) {
	m.Called(ctx, event)
}

func (m *MockAuditService) List(ctx context.Context, limit, offset int) ([]*models.AuditEvent, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditEvent), args.Error(1)
}

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) CreateWithOwner(ctx context.Context, tenant *models.Tenant, owner *models.StaffAssignment) error {
	args := m.Called(ctx, tenant, owner)
	return args.Error(0)
}

func (m *MockTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockTenantRepository) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

type MockStaffAssignmentRepository struct {
	mock.Mock
}

func (m *MockStaffAssignmentRepository) Assign(ctx context.Context, assignment *models.StaffAssignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockStaffAssignmentRepository) Deactivate(ctx context.Context, tenantID, principalID uuid.UUID) error {
	args := m.Called(ctx, tenantID, principalID)
	return args.Error(0)
}

func (m *MockStaffAssignmentRepository) GetActive(ctx context.Context, tenantID, principalID uuid.UUID) (*models.StaffAssignment, error) {
	args := m.Called(ctx, tenantID, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StaffAssignment), args.Error(1)
}

func (m *MockStaffAssignmentRepository) ListByPrincipal(ctx context.Context, principalID uuid.UUID) ([]*models.StaffAssignment, error) {
	args := m.Called(ctx, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.StaffAssignment), args.Error(1)
}

func (m *MockStaffAssignmentRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, includeInactive bool) ([]*models.StaffAssignment, error) {
	args := m.Called(ctx, tenantID, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.StaffAssignment), args.Error(1)
}

type MockTenantCache struct {
	mock.Mock
}

func (m *MockTenantCache) GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantCache) SetTenant(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantCache) DeleteTenant(ctx context.Context, slug string) error {
	args := m.Called(ctx, slug)
	return args.Error(0)
}

func tenantCtx(tenantID, principalID uuid.UUID, role models.Role) context.Context {
	return common.WithTenantContext(context.Background(), &models.TenantContext{
		TenantID:    tenantID,
		Slug:        "trattoria",
		PrincipalID: principalID,
		Role:        role,
	})
}

func publicCtx(tenantID, principalID uuid.UUID) context.Context {
	return common.WithTenantContext(context.Background(), &models.TenantContext{
		TenantID:    tenantID,
		Slug:        "trattoria",
		PrincipalID: principalID,
		Public:      true,
	})
}

func intPtr(n int) *int {
	return &n
}
