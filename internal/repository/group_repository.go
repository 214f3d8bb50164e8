package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/vehicle-rental/internal/model"
)

// GroupRepo encapsulates queries on vehicle_groups.
type GroupRepo struct{ db *sqlx.DB }

func NewGroupRepo(db *sqlx.DB) *GroupRepo { return &GroupRepo{db: db} }

func (r *GroupRepo) Create(ctx context.Context, g *model.Group) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO vehicle_groups (id, name, daily_rate) VALUES (?, ?, ?)", g.ID, g.Name, g.DailyRate)
	return mapErr(err)
}

func (r *GroupRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Group, error) {
	var g model.Group
	if err := r.db.GetContext(ctx, &g, "SELECT id, name, daily_rate FROM vehicle_groups WHERE id = ?", id); err != nil {
		return nil, mapErr(err)
	}
	return &g, nil
}

func (r *GroupRepo) List(ctx context.Context) ([]model.Group, error) {
	out := []model.Group{}
	if err := r.db.SelectContext(ctx, &out, "SELECT id, name, daily_rate FROM vehicle_groups ORDER BY name"); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GroupRepo) Update(ctx context.Context, g *model.Group) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE vehicle_groups SET name = ?, daily_rate = ? WHERE id = ?", g.Name, g.DailyRate, g.ID)
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}

// Delete removes a group.  Groups referenced by vehicles or reservations
// yield ErrConflict.
func (r *GroupRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM vehicle_groups WHERE id = ?", id)
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}
