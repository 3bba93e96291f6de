package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ai-textbook/backend/internal/models"
	"github.com/lib/pq"
)

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	DB *sql.DB
}

// ==========================
// Constructor
// ==========================
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

const userColumns = `id, username, email, password_hash, software_background, hardware_background, created_at`

// ==========================
// Create User
// ==========================
// Create inserts a new user and returns the stored record. A unique-constraint
// violation maps to ErrDuplicateUsername or ErrDuplicateEmail depending on
// which constraint fired, so two concurrent signups with the same username
// can never both succeed even if both passed the handler pre-check.
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash, softwareBg, hardwareBg string) (*models.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, software_background, hardware_background)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	user, err := scanUser(r.DB.QueryRowContext(ctx, query,
		username, email, passwordHash, nullable(softwareBg), nullable(hardwareBg)))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			switch pqErr.Constraint {
			case "users_email_key":
				return nil, ErrDuplicateEmail
			default:
				return nil, ErrDuplicateUsername
			}
		}
		return nil, err
	}

	return user, nil
}

// ==========================
// Get By ID
// ==========================
func (r *UserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// ==========================
// Get By Username
// ==========================
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.getOne(ctx, query, username)
}

// ==========================
// Get By Email
// ==========================
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// scanUser reads one user row. The background columns are nullable and scan
// to empty strings.
func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var softwareBg, hardwareBg sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&softwareBg,
		&hardwareBg,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.SoftwareBackground = softwareBg.String
	user.HardwareBackground = hardwareBg.String
	return user, nil
}

// nullable stores empty strings as NULL so an omitted background stays NULL in the table.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
