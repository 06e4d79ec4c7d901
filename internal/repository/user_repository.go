package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/practitioner-marketplace/internal/model"
	"github.com/iliyamo/practitioner-marketplace/internal/utils"
)

var (
	ErrEmailExists  = errors.New("email already exists")
	ErrUserNotFound = errors.New("user not found")
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

const userColumns = "id, email, password_hash, role, is_active, created_at, updated_at"

// UserRepo reads and writes the `users` table.  Emails are stored
// lower-cased and trimmed.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// Create hashes password and inserts the user.  A taken email yields
// ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role) VALUES (?,?,?)",
		normalizeEmail(email), hash, role)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	q := "SELECT " + userColumns + " FROM users WHERE email = ? LIMIT 1"
	return scanUser(r.DB.QueryRowContext(ctx, q, normalizeEmail(email)))
}

func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	q := "SELECT " + userColumns + " FROM users WHERE id = ? LIMIT 1"
	return scanUser(r.DB.QueryRowContext(ctx, q, id))
}
