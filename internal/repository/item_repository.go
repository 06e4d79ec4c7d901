package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/practitioner-marketplace/internal/model"
)

// ErrItemNotFound is returned when an item id does not exist under the
// given service and kind.
var ErrItemNotFound = errors.New("item not found")

// ItemRepo manages the child collections of a service (benefits, agenda
// items, sessions, resources).  Mutations take effect immediately.
type ItemRepo struct {
	db *sql.DB
}

func NewItemRepo(db *sql.DB) *ItemRepo { return &ItemRepo{db: db} }

// List returns the items of one kind in display order.
func (r *ItemRepo) List(ctx context.Context, serviceID uint64, kind string) ([]model.ServiceItem, error) {
	const q = `SELECT id, service_id, kind, title, body, url, starts_at, position, created_at
	           FROM service_items WHERE service_id = ? AND kind = ?
	           ORDER BY position, id`
	rows, err := r.db.QueryContext(ctx, q, serviceID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ServiceItem{}
	for rows.Next() {
		var (
			it       model.ServiceItem
			startsAt sql.NullTime
		)
		if err := rows.Scan(&it.ID, &it.ServiceID, &it.Kind, &it.Title, &it.Body, &it.URL,
			&startsAt, &it.Position, &it.CreatedAt); err != nil {
			return nil, err
		}
		if startsAt.Valid {
			t := startsAt.Time
			it.StartsAt = &t
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ownerOf returns the owner of serviceID inside tx.
func ownerOf(ctx context.Context, tx *sql.Tx, serviceID uint64) (uint64, error) {
	var owner uint64
	err := tx.QueryRowContext(ctx, `SELECT owner_id FROM services WHERE id = ?`, serviceID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrServiceNotFound
	}
	return owner, err
}

// Create appends an item to the end of its collection.  The service must
// belong to ownerID.
func (r *ItemRepo) Create(ctx context.Context, ownerID uint64, it *model.ServiceItem) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	owner, err := ownerOf(ctx, tx, it.ServiceID)
	if err != nil {
		return err
	}
	if owner != ownerID {
		return ErrForbidden
	}
	if err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM service_items WHERE service_id = ? AND kind = ?`,
		it.ServiceID, it.Kind).Scan(&it.Position); err != nil {
		return err
	}
	var startsAt sql.NullTime
	if it.StartsAt != nil {
		startsAt = sql.NullTime{Time: *it.StartsAt, Valid: true}
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO service_items (service_id, kind, title, body, url, starts_at, position)
		 VALUES (?,?,?,?,?,?,?)`,
		it.ServiceID, it.Kind, it.Title, it.Body, it.URL, startsAt, it.Position)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	it.ID = uint64(id)
	return tx.QueryRowContext(ctx, `SELECT created_at FROM service_items WHERE id = ?`, it.ID).Scan(&it.CreatedAt)
}

// Delete removes an item.  ErrItemNotFound is returned when the item is not
// part of the given service collection.
func (r *ItemRepo) Delete(ctx context.Context, ownerID, serviceID uint64, kind string, itemID uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	owner, err := ownerOf(ctx, tx, serviceID)
	if err != nil {
		return err
	}
	if owner != ownerID {
		return ErrForbidden
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM service_items WHERE id = ? AND service_id = ? AND kind = ?`,
		itemID, serviceID, kind)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}
	return nil
}
