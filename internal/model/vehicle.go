package model

import "github.com/google/uuid"

// Vehicle mirrors the `vehicles` table.  LicensePlate is unique.
type Vehicle struct {
	ID                uuid.UUID `db:"id" json:"id"`
	Model             string    `db:"model" json:"model"`
	LicensePlate      string    `db:"license_plate" json:"license_plate"`
	Brand             string    `db:"brand" json:"brand"`
	Color             string    `db:"color" json:"color"`
	YearOfManufacture int       `db:"year_of_manufacture" json:"year_of_manufacture"`
	GroupID           uuid.UUID `db:"group_id" json:"group_id"`
}

func (v Vehicle) Equal(o Vehicle) bool {
	return v.ID == o.ID &&
		v.Model == o.Model &&
		v.LicensePlate == o.LicensePlate &&
		v.Brand == o.Brand &&
		v.Color == o.Color &&
		v.YearOfManufacture == o.YearOfManufacture &&
		v.GroupID == o.GroupID
}
