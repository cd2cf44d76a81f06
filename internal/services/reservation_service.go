package services

import (
	"context"

	"tablekeep/internal/common"
	"tablekeep/internal/models"
	"tablekeep/internal/repositories"

	"github.com/google/uuid"
)

// ReservationService answers reservation queries in the resolved tenant.
type ReservationService interface {
	// Get returns a reservation to staff or to the principal who booked it.
	Get(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	ListByDate(ctx context.Context, date models.Date, status *models.ReservationStatus) ([]*models.Reservation, error)
	// ListMine returns the caller's own bookings.
	ListMine(ctx context.Context, limit, offset int) ([]*models.Reservation, error)
}

type reservationService struct {
	reservationRepo repositories.ReservationRepository
	authorizer      RoleAuthorizer
}

func NewReservationService(reservationRepo repositories.ReservationRepository, authorizer RoleAuthorizer) ReservationService {
	return &reservationService{reservationRepo: reservationRepo, authorizer: authorizer}
}

func (s *reservationService) Get(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.reservationRepo.GetByID(ctx, tc.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.AuthorizeOwnOrRole(ctx, OpReservationView, res.CreatedBy); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *reservationService) ListByDate(ctx context.Context, date models.Date, status *models.ReservationStatus) ([]*models.Reservation, error) {
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, common.NewError(common.KindInvalid, "date is required")
	}
	if status != nil && !status.Valid() {
		return nil, common.Errorf(common.KindInvalid, "unknown status %q", *status)
	}
	return s.reservationRepo.ListByDate(ctx, tc.TenantID, date, status)
}

func (s *reservationService) ListMine(ctx context.Context, limit, offset int) ([]*models.Reservation, error) {
	tc, err := common.RequireTenantContext(ctx)
	if err != nil {
		return nil, err
	}
	if !tc.Authenticated() {
		return nil, common.NewError(common.KindUnauthenticated, "authentication required")
	}
	limit, offset, err = common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return nil, common.WrapError(common.KindInvalid, "invalid pagination", err)
	}
	return s.reservationRepo.ListByCreator(ctx, tc.TenantID, tc.PrincipalID, limit, offset)
}
