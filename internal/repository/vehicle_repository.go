package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/vehicle-rental/internal/model"
)

const vehicleColumns = "id, model, license_plate, brand, color, year_of_manufacture, group_id"

// VehicleRepo encapsulates queries on vehicles.
type VehicleRepo struct{ db *sqlx.DB }

func NewVehicleRepo(db *sqlx.DB) *VehicleRepo { return &VehicleRepo{db: db} }

// Create inserts v.  An unknown group yields ErrNotFound, a reused
// license plate ErrDuplicate.
func (r *VehicleRepo) Create(ctx context.Context, v *model.Vehicle) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO vehicles ("+vehicleColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		v.ID, v.Model, v.LicensePlate, v.Brand, v.Color, v.YearOfManufacture, v.GroupID)
	return mapErr(err)
}

func (r *VehicleRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	var v model.Vehicle
	if err := r.db.GetContext(ctx, &v, "SELECT "+vehicleColumns+" FROM vehicles WHERE id = ?", id); err != nil {
		return nil, mapErr(err)
	}
	return &v, nil
}

// List returns a page of vehicles ordered by license plate.
func (r *VehicleRepo) List(ctx context.Context, offset, limit int) ([]model.Vehicle, error) {
	out := []model.Vehicle{}
	err := r.db.SelectContext(ctx, &out,
		"SELECT "+vehicleColumns+" FROM vehicles ORDER BY license_plate LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *VehicleRepo) Update(ctx context.Context, v *model.Vehicle) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE vehicles SET model = ?, license_plate = ?, brand = ?, color = ?, year_of_manufacture = ?, group_id = ? WHERE id = ?",
		v.Model, v.LicensePlate, v.Brand, v.Color, v.YearOfManufacture, v.GroupID, v.ID)
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}

func (r *VehicleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM vehicles WHERE id = ?", id)
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}
