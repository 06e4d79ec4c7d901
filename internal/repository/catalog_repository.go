package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/practitioner-marketplace/internal/model"
)

// CatalogRepo serves the reference data the editor's selection controls
// need: categories, locations and a practitioner's schedules.
type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// ListCategories returns all categories ordered by name.
func (r *CatalogRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, slug FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListLocations returns venues, optionally filtered by city (case-insensitive
// through the column collation).
func (r *CatalogRepo) ListLocations(ctx context.Context, city string) ([]model.Location, error) {
	q := `SELECT id, name, address, city FROM locations`
	var args []any
	if city != "" {
		q += ` WHERE city = ?`
		args = append(args, city)
	}
	q += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Location{}
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Address, &l.City); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListSchedules returns the availability templates of one practitioner.
func (r *CatalogRepo) ListSchedules(ctx context.Context, practitionerID uint64) ([]model.Schedule, error) {
	const q = `SELECT id, practitioner_id, name, timezone, created_at
	           FROM schedules WHERE practitioner_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, practitionerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Schedule{}
	for rows.Next() {
		var s model.Schedule
		if err := rows.Scan(&s.ID, &s.PractitionerID, &s.Name, &s.Timezone, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
