// Package repositories implements the data access layer (repository pattern) for the event registry.
// Each repository type encapsulates all database queries for a domain entity.
// Handlers never issue SQL directly; all database access goes through this layer,
// which makes query logic testable in isolation.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/event-registry/event-registry/internal/db/models"
)

// UniqueViolationColumn inspects a database error and, if it is a Postgres
// unique-constraint violation on one of the registration uniqueness columns,
// returns that column name ("sap_id", "email" or "transaction_id"). It returns
// "" for any other error.
func UniqueViolationColumn(err error) string {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return ""
	}

	switch pqErr.Constraint {
	case "registrations_sap_id_key":
		return "sap_id"
	case "registrations_email_key":
		return "email"
	case "registrations_transaction_id_key":
		return "transaction_id"
	}

	return ""
}

// RegistrationRepository handles registration database operations
type RegistrationRepository struct {
	db *sql.DB
}

// NewRegistrationRepository creates a new RegistrationRepository
func NewRegistrationRepository(db *sql.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationColumns = `id, name, sap_id, email, year, course, section, transaction_id,
		payment_screenshot_path, hashed_sap_id, hashed_email, hashed_transaction_id,
		created_at, updated_at`

func scanRegistration(row interface{ Scan(...any) error }) (*models.Registration, error) {
	reg := &models.Registration{}
	err := row.Scan(
		&reg.ID,
		&reg.Name,
		&reg.SapID,
		&reg.Email,
		&reg.Year,
		&reg.Course,
		&reg.Section,
		&reg.TransactionID,
		&reg.PaymentScreenshotPath,
		&reg.HashedSapID,
		&reg.HashedEmail,
		&reg.HashedTransactionID,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// CreateRegistration inserts a registration together with its zero-point
// leaderboard entry in a single transaction. A participant never exists
// without a leaderboard row, and a failed insert leaves no partial state.
func (r *RegistrationRepository) CreateRegistration(ctx context.Context, reg *models.Registration) error {
	reg.ID = uuid.New().String()
	reg.CreatedAt = time.Now()
	reg.UpdatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO registrations (id, name, sap_id, email, year, course, section, transaction_id,
			payment_screenshot_path, hashed_sap_id, hashed_email, hashed_transaction_id,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = tx.ExecContext(ctx, query,
		reg.ID,
		reg.Name,
		reg.SapID,
		reg.Email,
		reg.Year,
		reg.Course,
		reg.Section,
		reg.TransactionID,
		reg.PaymentScreenshotPath,
		reg.HashedSapID,
		reg.HashedEmail,
		reg.HashedTransactionID,
		reg.CreatedAt,
		reg.UpdatedAt,
	)
	if err != nil {
		return err
	}

	entryQuery := `
		INSERT INTO leaderboard_entries (id, registration_id, points, created_at)
		VALUES ($1, $2, 0, $3)
	`

	_, err = tx.ExecContext(ctx, entryQuery, uuid.New().String(), reg.ID, reg.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetRegistrationByID retrieves a registration by ID
func (r *RegistrationRepository) GetRegistrationByID(ctx context.Context, id string) (*models.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE id = $1
	`

	reg, err := scanRegistration(r.db.QueryRowContext(ctx, query, id))

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return reg, nil
}

// ListRegistrations returns all registrations in insertion order
func (r *RegistrationRepository) ListRegistrations(ctx context.Context) ([]*models.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var registrations []*models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		registrations = append(registrations, reg)
	}

	return registrations, rows.Err()
}

// CountRegistrations returns the total number of registrations
func (r *RegistrationRepository) CountRegistrations(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations`).Scan(&count)
	return count, err
}

// ExistsBySapID reports whether a registration with the given SAP ID exists
func (r *RegistrationRepository) ExistsBySapID(ctx context.Context, sapID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM registrations WHERE sap_id = $1)`, sapID)
}

// ExistsByEmail reports whether a registration with the given email exists
func (r *RegistrationRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM registrations WHERE email = $1)`, email)
}

// ExistsByTransactionID reports whether a registration with the given transaction ID exists
func (r *RegistrationRepository) ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM registrations WHERE transaction_id = $1)`, transactionID)
}

func (r *RegistrationRepository) exists(ctx context.Context, query, arg string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&exists)
	return exists, err
}

// DeleteRegistration removes a registration and its leaderboard entry in a
// single transaction. It returns false if no registration had the given ID.
func (r *RegistrationRepository) DeleteRegistration(ctx context.Context, id string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM leaderboard_entries WHERE registration_id = $1`, id); err != nil {
		return false, err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	return affected > 0, nil
}
