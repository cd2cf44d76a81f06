package repositories

import (
	"context"
	"time"

	"tablekeep/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ReservationRepository stores reservations. Every read is filtered by tenant.
type ReservationRepository interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Reservation, error)
	ListByDate(ctx context.Context, tenantID uuid.UUID, date models.Date, status *models.ReservationStatus) ([]*models.Reservation, error)
	ListByCreator(ctx context.Context, tenantID, createdBy uuid.UUID, limit, offset int) ([]*models.Reservation, error)
	// SumCovers totals party sizes of CONFIRMED reservations on the date.
	SumCovers(ctx context.Context, tenantID uuid.UUID, date models.Date) (int, error)
	// CompletePast marks CONFIRMED reservations dated before each tenant's
	// local date at now as COMPLETED and reports how many changed.
	CompletePast(ctx context.Context, now time.Time) (int64, error)
	// WithDayLock runs fn in a transaction holding the advisory lock for
	// (tenant, date). fn's error rolls the transaction back.
	WithDayLock(ctx context.Context, tenantID uuid.UUID, date models.Date, fn func(tx ReservationTx) error) error
}

// ReservationTx is the view of reservations available inside WithDayLock.
// All operations are bound to the locked (tenant, date).
type ReservationTx interface {
	Settings(ctx context.Context) (*models.ReservationSettings, error)
	SumDay(ctx context.Context) (int, error)
	SumSlot(ctx context.Context, slot models.Slot) (int, error)
	Insert(ctx context.Context, reservation *models.Reservation) error
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ReservationStatus) error
}

type reservationRepo struct {
	db Database
}

func NewReservationRepo(db Database) ReservationRepository {
	return &reservationRepo{db: db}
}

const reservationColumns = `id, tenant_id, reservation_date, slot, party_size, status, guest_name, guest_phone, notes, override, created_by, created_at, updated_at`

func scanReservation(row pgx.Row) (*models.Reservation, error) {
	res := &models.Reservation{}
	var date time.Time
	err := row.Scan(&res.ID, &res.TenantID, &date, &res.Slot, &res.PartySize, &res.Status, &res.GuestName,
		&res.GuestPhone, &res.Notes, &res.Override, &res.CreatedBy, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	res.Date = models.DateOf(date)
	return res, nil
}

func collectReservations(rows pgx.Rows) ([]*models.Reservation, error) {
	defer rows.Close()
	var out []*models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *reservationRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE tenant_id = $1 AND id = $2`
	res, err := scanReservation(r.db.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		return nil, mapError(err, "reservation")
	}
	return res, nil
}

func (r *reservationRepo) ListByDate(ctx context.Context, tenantID uuid.UUID, date models.Date, status *models.ReservationStatus) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE tenant_id = $1 AND reservation_date = $2 AND ($3::text IS NULL OR status = $3)
		ORDER BY slot, created_at
	`
	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}
	rows, err := r.db.Query(ctx, query, tenantID, date.Time(), statusArg)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (r *reservationRepo) ListByCreator(ctx context.Context, tenantID, createdBy uuid.UUID, limit, offset int) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE tenant_id = $1 AND created_by = $2
		ORDER BY reservation_date DESC, slot
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, createdBy, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

const sumDaySQL = `
		SELECT COALESCE(SUM(party_size), 0)
		FROM reservations
		WHERE tenant_id = $1 AND reservation_date = $2 AND status = 'CONFIRMED'
	`

const sumSlotSQL = `
		SELECT COALESCE(SUM(party_size), 0)
		FROM reservations
		WHERE tenant_id = $1 AND reservation_date = $2 AND slot = $3 AND status = 'CONFIRMED'
	`

func (r *reservationRepo) SumCovers(ctx context.Context, tenantID uuid.UUID, date models.Date) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, sumDaySQL, tenantID, date.Time()).Scan(&n)
	return n, err
}

func (r *reservationRepo) CompletePast(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE reservations r
		SET status = 'COMPLETED', updated_at = NOW()
		FROM tenants t
		LEFT JOIN reservation_settings s ON s.tenant_id = t.id
		WHERE r.tenant_id = t.id
		  AND r.status = 'CONFIRMED'
		  AND r.reservation_date < ($1::timestamptz AT TIME ZONE COALESCE(s.timezone, 'UTC'))::date
	`
	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DayLockKey is the advisory lock key for a (tenant, date).
func DayLockKey(tenantID uuid.UUID, date models.Date) string {
	return tenantID.String() + ":" + date.String()
}

func (r *reservationRepo) WithDayLock(ctx context.Context, tenantID uuid.UUID, date models.Date, fn func(tx ReservationTx) error) error {
	// Admissions and status changes take the advisory lock first, so each
	// later statement sees every earlier decision for the day.
	return withTx(ctx, r.db, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, DayLockKey(tenantID, date)); err != nil {
			return mapError(err, "")
		}
		return fn(&reservationTx{tx: tx, tenantID: tenantID, date: date})
	})
}

type reservationTx struct {
	tx       pgx.Tx
	tenantID uuid.UUID
	date     models.Date
}

func (t *reservationTx) Settings(ctx context.Context) (*models.ReservationSettings, error) {
	settings, err := getSettings(ctx, t.tx, t.tenantID)
	if err != nil {
		return nil, mapError(err, "")
	}
	return settings, nil
}

func (t *reservationTx) SumDay(ctx context.Context) (int, error) {
	var n int
	if err := t.tx.QueryRow(ctx, sumDaySQL, t.tenantID, t.date.Time()).Scan(&n); err != nil {
		return 0, mapError(err, "")
	}
	return n, nil
}

func (t *reservationTx) SumSlot(ctx context.Context, slot models.Slot) (int, error) {
	var n int
	if err := t.tx.QueryRow(ctx, sumSlotSQL, t.tenantID, t.date.Time(), string(slot)).Scan(&n); err != nil {
		return 0, mapError(err, "")
	}
	return n, nil
}

func (t *reservationTx) Insert(ctx context.Context, res *models.Reservation) error {
	res.TenantID = t.tenantID
	res.Date = t.date
	query := `
		INSERT INTO reservations (id, tenant_id, reservation_date, slot, party_size, status, guest_name, guest_phone, notes, override, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`
	_, err := t.tx.Exec(ctx, query, res.ID, res.TenantID, res.Date.Time(), string(res.Slot), res.PartySize,
		string(res.Status), res.GuestName, res.GuestPhone, res.Notes, res.Override, res.CreatedBy)
	return mapError(err, "reservation")
}

func (t *reservationTx) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE tenant_id = $1 AND reservation_date = $2 AND id = $3
		FOR UPDATE
	`
	res, err := scanReservation(t.tx.QueryRow(ctx, query, t.tenantID, t.date.Time(), id))
	if err != nil {
		return nil, mapError(err, "reservation")
	}
	return res, nil
}

func (t *reservationTx) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ReservationStatus) error {
	query := `
		UPDATE reservations
		SET status = $1, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3
	`
	tag, err := t.tx.Exec(ctx, query, string(status), t.tenantID, id)
	if err != nil {
		return mapError(err, "reservation")
	}
	return requireAffected(tag, "reservation")
}
