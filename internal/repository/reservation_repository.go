package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/vehicle-rental/internal/model"
)

const reservationColumns = "id, person_id, group_id, pickup_at, return_at, total_amount, status, payment_method, created_at, updated_at"

// ReservationRepo stores reservations, their accessory links and the
// payment row created alongside an online checkout.  All timestamps are
// stored in UTC.
type ReservationRepo struct {
	db *sqlx.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sqlx.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// Create inserts the reservation, its accessory links and, when pay is not
// nil, the payment row in a single transaction.  Either every row is
// written or none is.  A reference to a missing person, group or accessory
// yields ErrNotFound.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation, pay *model.Payment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO reservations (` + reservationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q,
		res.ID, res.PersonID, res.GroupID, res.PickupAt.UTC(), res.ReturnAt.UTC(), res.TotalAmount,
		res.Status, res.PaymentMethod, res.CreatedAt.UTC(), res.UpdatedAt.UTC(),
	); err != nil {
		return mapErr(err)
	}
	if err := insertAccessoriesTx(ctx, tx, res.ID, res.AccessoryIDs); err != nil {
		return mapErr(err)
	}
	if pay != nil {
		const qp = `INSERT INTO payments (id, reservation_id, amount, payment_date, status, session_id, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, qp,
			pay.ID, pay.ReservationID, pay.Amount, pay.PaymentDate.UTC(), pay.Status, pay.SessionID, pay.UpdatedAt.UTC(),
		); err != nil {
			return mapErr(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// insertAccessoriesTx writes all links in one statement, keeping the
// caller's order in the position column.  An empty slice is a no-op.
func insertAccessoriesTx(ctx context.Context, tx *sqlx.Tx, reservationID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := `INSERT INTO reservation_accessories (reservation_id, accessory_id, position) VALUES `
	args := make([]interface{}, 0, len(ids)*3)
	for i, id := range ids {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, reservationID, id, i)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID returns the reservation with its accessory ids.
func (r *ReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	var res model.Reservation
	if err := r.db.GetContext(ctx, &res, "SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id); err != nil {
		return nil, mapErr(err)
	}
	ids := []uuid.UUID{}
	if err := r.db.SelectContext(ctx, &ids,
		"SELECT accessory_id FROM reservation_accessories WHERE reservation_id = ? ORDER BY position", id); err != nil {
		return nil, err
	}
	res.AccessoryIDs = ids
	return &res, nil
}

// List returns reservations ordered by (created_at, id), restricted to
// one person unless personID is uuid.Nil.  An offset past the last row
// yields an empty slice.
func (r *ReservationRepo) List(ctx context.Context, personID uuid.UUID, offset, limit int) ([]model.Reservation, error) {
	q := "SELECT " + reservationColumns + " FROM reservations"
	args := []any{}
	if personID != uuid.Nil {
		q += " WHERE person_id = ?"
		args = append(args, personID)
	}
	q += " ORDER BY created_at, id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	out := []model.Reservation{}
	err := r.db.SelectContext(ctx, &out, q, args...)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	resIDs := make([]uuid.UUID, len(out))
	byID := make(map[uuid.UUID]*model.Reservation, len(out))
	for i := range out {
		out[i].AccessoryIDs = []uuid.UUID{}
		resIDs[i] = out[i].ID
		byID[out[i].ID] = &out[i]
	}
	q, args, err = sqlx.In(
		"SELECT reservation_id, accessory_id FROM reservation_accessories WHERE reservation_id IN (?) ORDER BY reservation_id, position",
		resIDs)
	if err != nil {
		return nil, err
	}
	var links []struct {
		ReservationID uuid.UUID `db:"reservation_id"`
		AccessoryID   uuid.UUID `db:"accessory_id"`
	}
	if err := r.db.SelectContext(ctx, &links, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	for _, l := range links {
		if res, ok := byID[l.ReservationID]; ok {
			res.AccessoryIDs = append(res.AccessoryIDs, l.AccessoryID)
		}
	}
	return out, nil
}
