package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/vehicle-rental/internal/model"
)

const paymentColumns = "id, reservation_id, amount, payment_date, status, session_id, updated_at"

// PaymentRepo reads payments and applies status transitions to a payment
// and its reservation together.
type PaymentRepo struct {
	db *sqlx.DB
}

func NewPaymentRepo(db *sqlx.DB) *PaymentRepo { return &PaymentRepo{db: db} }

func (r *PaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	if err := r.db.GetContext(ctx, &p, "SELECT "+paymentColumns+" FROM payments WHERE id = ?", id); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

// TransitionFunc receives the locked payment and reservation rows and
// mutates them in place.  Returning false (or an error) leaves both rows
// untouched.
type TransitionFunc func(p *model.Payment, res *model.Reservation) (bool, error)

// Transition locks the payment and its reservation with SELECT ... FOR
// UPDATE, hands them to fn and, when fn reports a change, writes both
// statuses in the same transaction.  Concurrent callers for the same
// payment are serialized on the row lock.  The returned bool reports
// whether anything was written.
func (r *PaymentRepo) Transition(ctx context.Context, id uuid.UUID, now time.Time, fn TransitionFunc) (*model.Payment, *model.Reservation, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, false, fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var p model.Payment
	if err := tx.GetContext(ctx, &p, "SELECT "+paymentColumns+" FROM payments WHERE id = ? FOR UPDATE", id); err != nil {
		return nil, nil, false, mapErr(err)
	}
	var res model.Reservation
	if err := tx.GetContext(ctx, &res,
		"SELECT "+reservationColumns+" FROM reservations WHERE id = ? FOR UPDATE", p.ReservationID); err != nil {
		return nil, nil, false, mapErr(err)
	}

	changed, err := fn(&p, &res)
	if err != nil || !changed {
		return &p, &res, false, err
	}

	now = now.UTC()
	if _, err := tx.ExecContext(ctx,
		"UPDATE payments SET status = ?, updated_at = ? WHERE id = ?", p.Status, now, p.ID); err != nil {
		return nil, nil, false, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?", res.Status, now, res.ID); err != nil {
		return nil, nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, false, fmt.Errorf("commit: %w", err)
	}
	committed = true
	p.UpdatedAt = now
	res.UpdatedAt = now
	return &p, &res, true, nil
}
