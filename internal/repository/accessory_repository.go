package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/vehicle-rental/internal/model"
)

// AccessoryRepo encapsulates queries on accessories.
type AccessoryRepo struct{ db *sqlx.DB }

func NewAccessoryRepo(db *sqlx.DB) *AccessoryRepo { return &AccessoryRepo{db: db} }

func (r *AccessoryRepo) Create(ctx context.Context, a *model.Accessory) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO accessories (id, name, daily_rate) VALUES (?, ?, ?)", a.ID, a.Name, a.DailyRate)
	return mapErr(err)
}

func (r *AccessoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Accessory, error) {
	var a model.Accessory
	if err := r.db.GetContext(ctx, &a, "SELECT id, name, daily_rate FROM accessories WHERE id = ?", id); err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

// GetByIDs returns the accessories whose id is in ids, in no particular
// order.  Missing ids are simply absent from the result; callers compare
// lengths to detect them.
func (r *AccessoryRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Accessory, error) {
	out := []model.Accessory{}
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In("SELECT id, name, daily_rate FROM accessories WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AccessoryRepo) List(ctx context.Context) ([]model.Accessory, error) {
	out := []model.Accessory{}
	if err := r.db.SelectContext(ctx, &out, "SELECT id, name, daily_rate FROM accessories ORDER BY name"); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AccessoryRepo) Update(ctx context.Context, a *model.Accessory) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE accessories SET name = ?, daily_rate = ? WHERE id = ?", a.Name, a.DailyRate, a.ID)
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}

// Delete removes an accessory that no reservation uses.
func (r *AccessoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM accessories WHERE id = ?", id)
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}
