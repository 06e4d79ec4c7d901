package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/practitioner-marketplace/internal/model"
)

// ErrServiceNotFound is returned when a service id does not exist.
var ErrServiceNotFound = errors.New("service not found")

// serviceColumns is the column list shared by every SELECT on services.  The
// order must match scanService.
const serviceColumns = `id, owner_id, subtype, name, description, category_id,
	price_cents, currency, duration_minutes, location_type, location_id,
	schedule_id, max_participants, bundle_sessions, bundle_price_cents,
	bundle_validity_days, package_service_ids, revenue_shares,
	benefits_heading, resources_public, booking_window_days,
	cancellation_hours, requires_approval, status, visibility,
	created_at, updated_at`

// ServiceRepo reads and writes the `services` table.  Slice fields live in
// JSON columns.
type ServiceRepo struct {
	db *sql.DB
}

func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{db: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanService(row rowScanner) (*model.Service, error) {
	var (
		s        model.Service
		pkgIDs   []byte
		revShare []byte
	)
	err := row.Scan(&s.ID, &s.OwnerID, &s.Subtype, &s.Name, &s.Description, &s.CategoryID,
		&s.PriceCents, &s.Currency, &s.DurationMinutes, &s.LocationType, &s.LocationID,
		&s.ScheduleID, &s.MaxParticipants, &s.BundleSessions, &s.BundlePriceCents,
		&s.BundleValidityDays, &pkgIDs, &revShare,
		&s.BenefitsHeading, &s.ResourcesPublic, &s.BookingWindowDays,
		&s.CancellationHours, &s.RequiresApproval, &s.Status, &s.Visibility,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	if len(pkgIDs) > 0 {
		if err := json.Unmarshal(pkgIDs, &s.PackageServiceIDs); err != nil {
			return nil, fmt.Errorf("decode package_service_ids: %w", err)
		}
	}
	if len(revShare) > 0 {
		if err := json.Unmarshal(revShare, &s.RevenueShares); err != nil {
			return nil, fmt.Errorf("decode revenue_shares: %w", err)
		}
	}
	return &s, nil
}

// jsonColumn encodes a slice for a JSON column; nil becomes an empty array
// so the column is never NULL.
func jsonColumn(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return []byte("[]"), nil
	}
	return b, nil
}

// GetByID fetches a service regardless of owner.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (*model.Service, error) {
	q := "SELECT " + serviceColumns + " FROM services WHERE id = ?"
	return scanService(r.db.QueryRowContext(ctx, q, id))
}

// Create inserts a draft service for s.OwnerID and fills in ID and the
// timestamps.
func (r *ServiceRepo) Create(ctx context.Context, s *model.Service) error {
	if s.Status == "" {
		s.Status = model.StatusDraft
	}
	if s.Visibility == "" {
		s.Visibility = model.VisibilityPublic
	}
	if s.Currency == "" {
		s.Currency = "USD"
	}
	if err := s.Validate(); err != nil {
		return err
	}
	pkgIDs, err := jsonColumn(s.PackageServiceIDs)
	if err != nil {
		return err
	}
	revShare, err := jsonColumn(s.RevenueShares)
	if err != nil {
		return err
	}
	const q = `INSERT INTO services (owner_id, subtype, name, description, category_id,
		price_cents, currency, duration_minutes, location_type, location_id,
		schedule_id, max_participants, bundle_sessions, bundle_price_cents,
		bundle_validity_days, package_service_ids, revenue_shares,
		benefits_heading, resources_public, booking_window_days,
		cancellation_hours, requires_approval, status, visibility)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q, s.OwnerID, s.Subtype, s.Name, s.Description, s.CategoryID,
		s.PriceCents, s.Currency, s.DurationMinutes, s.LocationType, s.LocationID,
		s.ScheduleID, s.MaxParticipants, s.BundleSessions, s.BundlePriceCents,
		s.BundleValidityDays, pkgIDs, revShare,
		s.BenefitsHeading, s.ResourcesPublic, s.BookingWindowDays,
		s.CancellationHours, s.RequiresApproval, s.Status, s.Visibility)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)

	const qTimes = "SELECT created_at, updated_at FROM services WHERE id = ?"
	return r.db.QueryRowContext(ctx, qTimes, s.ID).Scan(&s.CreatedAt, &s.UpdatedAt)
}

// Patch applies a sparse field set to the service if it belongs to
// ownerID.  The row is locked for the duration of the read-modify-write so
// concurrent patches of the same service cannot interleave.  A missing row
// yields ErrServiceNotFound, another owner's row ErrForbidden, and a patch
// that fails validation wraps model.ErrInvalidPatch or model.ErrInvalidService.
func (r *ServiceRepo) Patch(ctx context.Context, id, ownerID uint64, patch map[string]any) (out *model.Service, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	q := "SELECT " + serviceColumns + " FROM services WHERE id = ? FOR UPDATE"
	s, err := scanService(tx.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, err
	}
	if s.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	if err = s.ApplyPatch(patch); err != nil {
		return nil, err
	}
	if err = s.Validate(); err != nil {
		return nil, err
	}
	pkgIDs, err := jsonColumn(s.PackageServiceIDs)
	if err != nil {
		return nil, err
	}
	revShare, err := jsonColumn(s.RevenueShares)
	if err != nil {
		return nil, err
	}
	const qUpdate = `UPDATE services SET subtype = ?, name = ?, description = ?,
		category_id = ?, price_cents = ?, currency = ?, duration_minutes = ?,
		location_type = ?, location_id = ?, schedule_id = ?, max_participants = ?,
		bundle_sessions = ?, bundle_price_cents = ?, bundle_validity_days = ?,
		package_service_ids = ?, revenue_shares = ?, benefits_heading = ?,
		resources_public = ?, booking_window_days = ?, cancellation_hours = ?,
		requires_approval = ?, status = ?, visibility = ?,
		updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	if _, err = tx.ExecContext(ctx, qUpdate, s.Subtype, s.Name, s.Description,
		s.CategoryID, s.PriceCents, s.Currency, s.DurationMinutes,
		s.LocationType, s.LocationID, s.ScheduleID, s.MaxParticipants,
		s.BundleSessions, s.BundlePriceCents, s.BundleValidityDays,
		pkgIDs, revShare, s.BenefitsHeading,
		s.ResourcesPublic, s.BookingWindowDays, s.CancellationHours,
		s.RequiresApproval, s.Status, s.Visibility, id); err != nil {
		return nil, err
	}

	const qTimes = "SELECT updated_at FROM services WHERE id = ?"
	if err = tx.QueryRowContext(ctx, qTimes, id).Scan(&s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

// ListSummariesByOwner returns the practitioner's services for selection
// lists, newest first.
func (r *ServiceRepo) ListSummariesByOwner(ctx context.Context, ownerID uint64) ([]model.ServiceSummary, error) {
	const q = `SELECT id, name, subtype, price_cents, status
	           FROM services WHERE owner_id = ? ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ServiceSummary{}
	for rows.Next() {
		var s model.ServiceSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Subtype, &s.PriceCents, &s.Status); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
