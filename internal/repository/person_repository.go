package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/vehicle-rental/internal/model"
)

const personColumns = "id, full_name, username, email, password_hash, role, created_at, updated_at"

// PersonRepo stores persons.  Emails are normalized to lower case on
// every read and write.
type PersonRepo struct{ db *sqlx.DB }

func NewPersonRepo(db *sqlx.DB) *PersonRepo { return &PersonRepo{db: db} }

// Create inserts p, assigning a new ID when p.ID is zero.  A taken email
// or username yields ErrDuplicate.
func (r *PersonRepo) Create(ctx context.Context, p *model.Person) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Email = normalizeEmail(p.Email)
	if p.Role == "" {
		p.Role = model.RoleUser
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO persons (id, full_name, username, email, password_hash, role) VALUES (?, ?, ?, ?, ?, ?)",
		p.ID, p.FullName, p.Username, p.Email, p.PasswordHash, p.Role)
	if err != nil {
		return mapErr(err)
	}
	return r.db.GetContext(ctx, p, "SELECT "+personColumns+" FROM persons WHERE id = ?", p.ID)
}

func (r *PersonRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Person, error) {
	var p model.Person
	if err := r.db.GetContext(ctx, &p, "SELECT "+personColumns+" FROM persons WHERE id = ?", id); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

// GetByEmail fetches a person by normalized email.
func (r *PersonRepo) GetByEmail(ctx context.Context, email string) (*model.Person, error) {
	var p model.Person
	err := r.db.GetContext(ctx, &p,
		"SELECT "+personColumns+" FROM persons WHERE email = ? LIMIT 1", normalizeEmail(email))
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

// List returns a page of persons ordered by creation time.
func (r *PersonRepo) List(ctx context.Context, offset, limit int) ([]model.Person, error) {
	out := []model.Person{}
	err := r.db.SelectContext(ctx, &out,
		"SELECT "+personColumns+" FROM persons ORDER BY created_at, id LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the profile fields (full name, username, email).
// Password and role are left untouched.
func (r *PersonRepo) Update(ctx context.Context, p *model.Person) error {
	p.Email = normalizeEmail(p.Email)
	res, err := r.db.ExecContext(ctx,
		"UPDATE persons SET full_name = ?, username = ?, email = ? WHERE id = ?",
		p.FullName, p.Username, p.Email, p.ID)
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}

// Delete removes a person.  Persons that still own reservations cannot be
// removed and yield ErrConflict.
func (r *PersonRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM persons WHERE id = ?", id)
	if err != nil {
		return mapErr(err)
	}
	return affected(res)
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
