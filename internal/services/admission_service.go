package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"tablekeep/internal/common"
	"tablekeep/internal/locking"
	"tablekeep/internal/logger"
	"tablekeep/internal/metrics"
	"tablekeep/internal/models"
	"tablekeep/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxPartySize = 500

// AdmissionRequest asks for a new reservation in the resolved tenant.
type AdmissionRequest struct {
	Date       models.Date `json:"date"`
	Slot       models.Slot `json:"slot"`
	PartySize  int         `json:"party_size"`
	GuestName  string      `json:"guest_name"`
	GuestPhone *string     `json:"guest_phone,omitempty"`
	Notes      *string     `json:"notes,omitempty"`
	// Override bypasses the capacity ceilings. Requires ADMIN or above.
	Override bool `json:"override"`
}

// AdmissionService admits, cancels and transitions reservations. Every
// change to a (tenant, date) runs under that key's lock and the database's
// advisory lock, so the capacity decision and the write are one unit.
type AdmissionService interface {
	Admit(ctx context.Context, req *AdmissionRequest) (*models.Reservation, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ReservationStatus) (*models.Reservation, error)
	DayStatus(ctx context.Context, date models.Date) (*models.DayCapacity, error)
}

type AdmissionOptions struct {
	NearCapacityRatio float64
	// Now returns the current time; the zero value uses time.Now.
	Now func() time.Time
}

type admissionService struct {
	reservationRepo repositories.ReservationRepository
	settingsRepo    repositories.ReservationSettingsRepository
	locker          locking.KeyedLocker
	authorizer      RoleAuthorizer
	audit           AuditService
	metrics         *metrics.Metrics
	nearRatio       float64
	now             func() time.Time
}

func NewAdmissionService(
	reservationRepo repositories.ReservationRepository,
	settingsRepo repositories.ReservationSettingsRepository,
	locker locking.KeyedLocker,
	authorizer RoleAuthorizer,
	audit AuditService,
	m *metrics.Metrics,
	opts AdmissionOptions,
) AdmissionService {
	if opts.NearCapacityRatio <= 0 || opts.NearCapacityRatio > 1 {
		opts.NearCapacityRatio = 0.8
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &admissionService{
		reservationRepo: reservationRepo,
		settingsRepo:    settingsRepo,
		locker:          locker,
		authorizer:      authorizer,
		audit:           audit,
		metrics:         m,
		nearRatio:       opts.NearCapacityRatio,
		now:             opts.Now,
	}
}

const (
	decisionAdmitted = "admitted"
	decisionOverride = "override"
	decisionDayFull  = "day_full"
	decisionSlotFull = "slot_full"
	decisionRejected = "rejected"
	decisionError    = "error"
)

func (s *admissionService) validate(req *AdmissionRequest) error {
	if req == nil {
		return common.NewError(common.KindInvalid, "reservation request is required")
	}
	if req.Date.IsZero() {
		return common.NewError(common.KindInvalid, "date is required")
	}
	slot, err := models.ParseSlot(string(req.Slot))
	if err != nil {
		return common.WrapError(common.KindInvalid, "invalid slot", err)
	}
	req.Slot = slot
	if err := common.ValidatePositiveInteger(req.PartySize, "party_size", maxPartySize); err != nil {
		return err
	}
	req.GuestName = strings.TrimSpace(req.GuestName)
	return common.ValidateRequiredString(req.GuestName, "guest_name")
}

func (s *admissionService) Admit(ctx context.Context, req *AdmissionRequest) (*models.Reservation, error) {
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return nil, err
	}
	if !tc.Authenticated() {
		return nil, common.NewError(common.KindUnauthenticated, "authentication required")
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if req.Override {
		if err := s.authorizer.Authorize(ctx, OpReservationOverride); err != nil {
			return nil, err
		}
	}

	log := logger.FromContext(ctx).With(
		zap.String("date", req.Date.String()),
		zap.String("slot", string(req.Slot)),
		zap.Int("party_size", req.PartySize),
	)

	res := &models.Reservation{
		ID:         uuid.New(),
		Slot:       req.Slot,
		PartySize:  req.PartySize,
		Status:     models.ReservationConfirmed,
		GuestName:  req.GuestName,
		GuestPhone: req.GuestPhone,
		Notes:      req.Notes,
		Override:   req.Override,
		CreatedBy:  tc.PrincipalID,
	}
	var coversBefore int

	err = s.withDay(ctx, tc.TenantID, req.Date, func(tx repositories.ReservationTx) error {
		settings, err := tx.Settings(ctx)
		if err != nil {
			return err
		}
		if err := checkNotPast(settings, req.Date, s.now()); err != nil {
			return err
		}
		if err := checkOperatingHours(settings, req.Date, req.Slot); err != nil {
			return err
		}
		if coversBefore, err = tx.SumDay(ctx); err != nil {
			return err
		}
		if !req.Override {
			if err := checkCapacity(ctx, tx, settings, req.Slot, req.PartySize, coversBefore); err != nil {
				return err
			}
		}
		return tx.Insert(ctx, res)
	})

	if err != nil {
		switch common.KindOf(err) {
		case common.KindDayFull:
			s.metrics.Admission(decisionDayFull)
			log.Info("reservation rejected", zap.String("reason", string(common.KindDayFull)))
		case common.KindSlotFull:
			s.metrics.Admission(decisionSlotFull)
			log.Info("reservation rejected", zap.String("reason", string(common.KindSlotFull)))
		case common.KindInvalid:
			s.metrics.Admission(decisionRejected)
		default:
			s.metrics.Admission(decisionError)
			log.Error("reservation admission failed", zap.Error(err))
		}
		return nil, err
	}

	if req.Override {
		s.metrics.Admission(decisionOverride)
		log.Warn("capacity override used", zap.String("reservation_id", res.ID.String()))
		if s.audit != nil {
			tenantID, principalID := tc.TenantID, tc.PrincipalID
			s.audit.Record(ctx, &models.AuditEvent{
				TenantID:    &tenantID,
				PrincipalID: &principalID,
				Operation:   string(OpReservationOverride),
				Decision:    models.DecisionOverride,
				Reason:      "capacity ceilings bypassed",
				Details: map[string]interface{}{
					"reservation_id": res.ID.String(),
					"date":           req.Date.String(),
					"slot":           string(req.Slot),
					"party_size":     req.PartySize,
					"covers_before":  coversBefore,
				},
			})
		}
	} else {
		s.metrics.Admission(decisionAdmitted)
		log.Info("reservation admitted", zap.String("reservation_id", res.ID.String()))
	}
	return res, nil
}

// checkNotPast rejects dates before the tenant-local today.
func checkNotPast(settings *models.ReservationSettings, date models.Date, now time.Time) error {
	today, err := settings.Today(now)
	if err != nil {
		return common.WrapError(common.KindInternal, "invalid tenant timezone", err)
	}
	if date.Before(today) {
		return common.NewError(common.KindInvalid, "date is in the past")
	}
	return nil
}

// checkOperatingHours rejects closed days and slots outside opening hours.
// A weekday with no schedule entry is open all day.
func checkOperatingHours(settings *models.ReservationSettings, date models.Date, slot models.Slot) error {
	hours, ok := settings.HoursFor(date.Weekday())
	if !ok {
		return nil
	}
	if hours.Closed {
		return common.Errorf(common.KindInvalid, "closed on %s", date.Weekday())
	}
	accepted, err := hours.Accepts(slot)
	if err != nil {
		return common.WrapError(common.KindInternal, "invalid operating hours", err)
	}
	if !accepted {
		return common.Errorf(common.KindInvalid, "slot %s is outside opening hours %s-%s", slot, hours.Open, hours.Close)
	}
	return nil
}

// checkCapacity applies the slot ceiling, then the day ceiling. A request that
// exactly fills the remaining capacity is admitted.
func checkCapacity(ctx context.Context, tx repositories.ReservationTx, settings *models.ReservationSettings, slot models.Slot, partySize, dayCovers int) error {
	if settings.MaxCoversPerSlot != nil {
		slotCovers, err := tx.SumSlot(ctx, slot)
		if err != nil {
			return err
		}
		if slotCovers+partySize > *settings.MaxCoversPerSlot {
			e := common.Errorf(common.KindSlotFull, "slot %s cannot seat %d more", slot, partySize)
			e.Details = map[string]string{"remaining": strconv.Itoa(remaining(slotCovers, *settings.MaxCoversPerSlot))}
			return e
		}
	}
	if settings.MaxCoversPerDay != nil && dayCovers+partySize > *settings.MaxCoversPerDay {
		e := common.Errorf(common.KindDayFull, "day cannot seat %d more", partySize)
		e.Details = map[string]string{"remaining": strconv.Itoa(remaining(dayCovers, *settings.MaxCoversPerDay))}
		return e
	}
	return nil
}

func (s *admissionService) Cancel(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.reservationRepo.GetByID(ctx, tc.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.AuthorizeOwnOrRole(ctx, OpReservationCancel, existing.CreatedBy); err != nil {
		return nil, err
	}
	return s.transition(ctx, tc, existing, models.ReservationCancelled)
}

func (s *admissionService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ReservationStatus) (*models.Reservation, error) {
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, common.Errorf(common.KindInvalid, "unknown status %q", status)
	}
	if err := s.authorizer.Authorize(ctx, OpReservationStatus); err != nil {
		return nil, err
	}
	existing, err := s.reservationRepo.GetByID(ctx, tc.TenantID, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, tc, existing, status)
}

func (s *admissionService) transition(ctx context.Context, tc *models.TenantContext, existing *models.Reservation, status models.ReservationStatus) (*models.Reservation, error) {
	var updated *models.Reservation
	err := s.withDay(ctx, tc.TenantID, existing.Date, func(tx repositories.ReservationTx) error {
		current, err := tx.GetForUpdate(ctx, existing.ID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(status) {
			return common.Errorf(common.KindInvalid, "reservation is %s and cannot become %s", current.Status, status)
		}
		if err := tx.UpdateStatus(ctx, current.ID, status); err != nil {
			return err
		}
		current.Status = status
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("reservation status changed",
		zap.String("reservation_id", updated.ID.String()),
		zap.String("status", string(status)))
	return updated, nil
}

// withDay holds the in-process or distributed (tenant, date) lock for the
// duration of a locked database transaction.
func (s *admissionService) withDay(ctx context.Context, tenantID uuid.UUID, date models.Date, fn func(repositories.ReservationTx) error) error {
	key := repositories.DayLockKey(tenantID, date)
	start := time.Now()
	unlock, err := s.locker.Lock(ctx, key)
	s.metrics.LockWait(time.Since(start))
	if err != nil {
		if errors.Is(err, locking.ErrLockTimeout) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return common.WrapError(common.KindUnavailable, "reservation day is busy, retry the request", err)
		}
		return common.WrapError(common.KindUnavailable, "reservation lock unavailable", err)
	}
	defer unlock()
	return s.reservationRepo.WithDayLock(ctx, tenantID, date, fn)
}

func (s *admissionService) DayStatus(ctx context.Context, date models.Date) (*models.DayCapacity, error) {
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, common.NewError(common.KindInvalid, "date is required")
	}
	settings, err := s.settingsRepo.Get(ctx, tc.TenantID)
	if err != nil {
		return nil, err
	}
	used, err := s.reservationRepo.SumCovers(ctx, tc.TenantID, date)
	if err != nil {
		return nil, err
	}
	status := &models.DayCapacity{
		TenantID:        tc.TenantID,
		Date:            date,
		CoversUsed:      used,
		MaxCoversPerDay: settings.MaxCoversPerDay,
		State:           models.DeriveCapacityState(used, settings.MaxCoversPerDay, s.nearRatio),
	}
	if settings.MaxCoversPerDay != nil {
		left := remaining(used, *settings.MaxCoversPerDay)
		status.Remaining = &left
	}
	return status, nil
}

func remaining(used, ceiling int) int {
	if used >= ceiling {
		return 0
	}
	return ceiling - used
}
