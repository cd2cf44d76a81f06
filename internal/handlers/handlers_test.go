package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"tablekeep/internal/common"
	"tablekeep/internal/locking"
	"tablekeep/internal/models"
	"tablekeep/internal/repositories"
	"tablekeep/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAdmissionService struct {
	mock.Mock
}

func (m *MockAdmissionService) Admit(ctx context.Context, req *services.AdmissionRequest) (*models.Reservation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockAdmissionService) Cancel(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockAdmissionService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ReservationStatus) (*models.Reservation, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockAdmissionService) DayStatus(ctx context.Context, date models.Date) (*models.DayCapacity, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DayCapacity), args.Error(1)
}

type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) Get(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockReservationService) ListByDate(ctx context.Context, date models.Date, status *models.ReservationStatus) ([]*models.Reservation, error) {
	args := m.Called(ctx, date, status)
	return args.Get(0).([]*models.Reservation), args.Error(1)
}

func (m *MockReservationService) ListMine(ctx context.Context, limit, offset int) ([]*models.Reservation, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Reservation), args.Error(1)
}

// categoryRows is an in-memory category store keyed by id.
type categoryRows struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.Category
}

func (r *categoryRows) Insert(ctx context.Context, c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[c.ID] = c
	return nil
}

func (r *categoryRows) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.rows[id]; ok && c.TenantID == tenantID {
		return c, nil
	}
	return nil, common.NotFound("category")
}

func (r *categoryRows) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Category
	for _, c := range r.rows {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *categoryRows) Update(ctx context.Context, c *models.Category) error {
	return r.Insert(ctx, c)
}

func (r *categoryRows) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *categoryRows) ExistsInTenant(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	_, err := r.FindByID(ctx, tenantID, id)
	return err == nil, nil
}

var _ repositories.CategoryRepository = (*categoryRows)(nil)

func newContext(method, target, body string, tc *models.TenantContext) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if tc != nil {
		req = req.WithContext(common.WithTenantContext(req.Context(), tc))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) common.ErrorResponse {
	t.Helper()
	var body common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func staffContext() *models.TenantContext {
	return &models.TenantContext{TenantID: uuid.New(), Slug: "trattoria", PrincipalID: uuid.New(), Role: models.RoleStaff}
}

func TestCreateReservation_DayFull(t *testing.T) {
	admission := &MockAdmissionService{}
	h := NewReservationHandlers(admission, &MockReservationService{})
	full := common.NewError(common.KindDayFull, "daily capacity reached")
	full.Details = map[string]string{"remaining": "0"}
	admission.On("Admit", mock.Anything, mock.MatchedBy(func(r *services.AdmissionRequest) bool {
		return r.PartySize == 5 && r.Slot == "19:00" && r.Date.String() == "2026-03-14"
	})).Return(nil, full)

	c, rec := newContext(http.MethodPost, "/v1/reservations",
		`{"date":"2026-03-14","slot":"19:00","party_size":5,"guest_name":"Ada"}`, staffContext())
	require.NoError(t, h.CreateReservation(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, string(common.KindDayFull), body.Error.Code)
	assert.Equal(t, "0", body.Error.Details["remaining"])
	assert.False(t, body.Error.Retryable)
	admission.AssertExpectations(t)
}

func TestCreateReservation_LockTimeoutIsRetryable(t *testing.T) {
	admission := &MockAdmissionService{}
	h := NewReservationHandlers(admission, &MockReservationService{})
	admission.On("Admit", mock.Anything, mock.Anything).
		Return(nil, common.WrapError(common.KindUnavailable, "reservation day is busy, retry the request", locking.ErrLockTimeout))

	c, rec := newContext(http.MethodPost, "/v1/reservations",
		`{"date":"2026-03-14","slot":"19:00","party_size":2,"guest_name":"Ada"}`, staffContext())
	require.NoError(t, h.CreateReservation(c))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.True(t, decodeError(t, rec).Error.Retryable)
}

func TestCreateReservation_MalformedDate(t *testing.T) {
	admission := &MockAdmissionService{}
	h := NewReservationHandlers(admission, &MockReservationService{})

	c, rec := newContext(http.MethodPost, "/v1/reservations",
		`{"date":"14/03/2026","slot":"19:00","party_size":2,"guest_name":"Ada"}`, staffContext())
	require.NoError(t, h.CreateReservation(c))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	admission.AssertNotCalled(t, "Admit", mock.Anything, mock.Anything)
}

func TestListReservations(t *testing.T) {
	reservations := &MockReservationService{}
	h := NewReservationHandlers(&MockAdmissionService{}, reservations)

	c, rec := newContext(http.MethodGet, "/v1/reservations", "", staffContext())
	require.NoError(t, h.ListReservations(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	cancelled := models.ReservationCancelled
	reservations.On("ListByDate", mock.Anything, models.Date{Year: 2026, Month: 3, Day: 14}, &cancelled).
		Return([]*models.Reservation{{ID: uuid.New(), Status: cancelled}}, nil)
	c, rec = newContext(http.MethodGet, "/v1/reservations?date=2026-03-14&status=CANCELLED", "", staffContext())
	require.NoError(t, h.ListReservations(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"date":"2026-03-14"`)
	reservations.AssertExpectations(t)
}

func TestGetReservation_InvalidID(t *testing.T) {
	h := NewReservationHandlers(&MockAdmissionService{}, &MockReservationService{})
	c, rec := newContext(http.MethodGet, "/v1/reservations/nope", "", staffContext())
	c.SetParamNames("id")
	c.SetParamValues("nope")

	require.NoError(t, h.GetReservation(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUpdateStatus(t *testing.T) {
	admission := &MockAdmissionService{}
	h := NewReservationHandlers(admission, &MockReservationService{})
	id := uuid.New()
	admission.On("UpdateStatus", mock.Anything, id, models.ReservationNoShow).
		Return(&models.Reservation{ID: id, Status: models.ReservationNoShow}, nil)

	c, rec := newContext(http.MethodPost, "/v1/reservations/"+id.String()+"/status", `{"status":"NO_SHOW"}`, staffContext())
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	admission.AssertExpectations(t)
}

func TestPublicBookNeverOverrides(t *testing.T) {
	admission := &MockAdmissionService{}
	h := NewPublicHandlers(nil, admission, &MockReservationService{})
	admission.On("Admit", mock.Anything, mock.MatchedBy(func(r *services.AdmissionRequest) bool {
		return !r.Override && r.GuestName == "Ada"
	})).Return(&models.Reservation{ID: uuid.New(), Status: models.ReservationConfirmed}, nil)

	tc := &models.TenantContext{TenantID: uuid.New(), Slug: "trattoria", PrincipalID: uuid.New(), Public: true}
	c, rec := newContext(http.MethodPost, "/v1/public/trattoria/reservations",
		`{"date":"2026-03-14","slot":"19:00","party_size":2,"guest_name":"Ada","override":true}`, tc)

	require.NoError(t, h.Book(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	admission.AssertExpectations(t)
}

func TestPublicAvailabilityHidesCounts(t *testing.T) {
	admission := &MockAdmissionService{}
	h := NewPublicHandlers(nil, admission, &MockReservationService{})
	ceiling, left := 10, 2
	date := models.Date{Year: 2026, Month: 3, Day: 14}
	admission.On("DayStatus", mock.Anything, date).Return(&models.DayCapacity{
		Date: date, CoversUsed: 8, MaxCoversPerDay: &ceiling, Remaining: &left, State: models.CapacityNearCapacity,
	}, nil)

	tc := &models.TenantContext{TenantID: uuid.New(), Slug: "trattoria", Public: true}
	c, rec := newContext(http.MethodGet, "/v1/public/trattoria/availability?date=2026-03-14", "", tc)

	require.NoError(t, h.GetAvailability(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"date":"2026-03-14","state":"NEAR_CAPACITY","remaining":2}`, rec.Body.String())
}

func TestCategoryHandlers_TenantScoping(t *testing.T) {
	rows := &categoryRows{rows: make(map[uuid.UUID]*models.Category)}
	catalog := services.NewCatalog(rows, nil, nil, nil)
	h := NewCategoryHandlers(catalog)
	mine, theirs := staffContext(), staffContext()

	c, rec := newContext(http.MethodPost, "/v1/categories", `{"name":"Mains"}`, mine)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, mine.TenantID, created.TenantID)

	c, rec = newContext(http.MethodGet, "/v1/categories/"+created.ID.String(), "", theirs)
	c.SetParamNames("id")
	c.SetParamValues(created.ID.String())
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := `{"name":"Sides","parent_id":"` + created.ID.String() + `"}`
	c, rec = newContext(http.MethodPost, "/v1/categories", body, theirs)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, string(common.KindCrossTenantReference), decodeError(t, rec).Error.Code)

	c, rec = newContext(http.MethodPost, "/v1/categories", `{"name":"Mains","tenant_id":"`+theirs.TenantID.String()+`"}`, mine)
	require.NoError(t, h.Create(c))
	assert.Equal(t, string(common.KindTenantMismatch), decodeError(t, rec).Error.Code)

	c, rec = newContext(http.MethodPost, "/v1/categories", `{"name":"  "}`, mine)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestReadinessCheck(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	c, rec := newContext(http.MethodGet, "/health/ready", "", nil)
	require.NoError(t, NewHealthHandlers(up, nil).ReadinessCheck(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newContext(http.MethodGet, "/health/ready", "", nil)
	require.NoError(t, NewHealthHandlers(up, down).ReadinessCheck(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"unhealthy"`)
}
