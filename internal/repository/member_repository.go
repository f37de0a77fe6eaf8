package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/memberledger/internal/domain"
)

const memberColumns = `id, first_name, last_name, cin, phone, email,
		COALESCE(to_char(birth_date, 'YYYY-MM-DD'), ''), facebook_name, profession, height`

// PostgresMemberRepository implements domain.MemberRepository using PostgreSQL
type PostgresMemberRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresMemberRepository creates a new member repository
func NewPostgresMemberRepository(db *sql.DB, logger *slog.Logger) *PostgresMemberRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresMemberRepository{
		db:     db,
		logger: logger,
	}
}

// List returns every member
func (r *PostgresMemberRepository) List(ctx context.Context) ([]*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list members", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := []*domain.Member{}
	for rows.Next() {
		m := &domain.Member{}
		if err := rows.Scan(
			&m.ID,
			&m.FirstName,
			&m.LastName,
			&m.CIN,
			&m.Phone,
			&m.Email,
			&m.BirthDate,
			&m.FacebookName,
			&m.Profession,
			&m.Height,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

// Create inserts a member in a single statement. The unique indexes on cin
// and email turn a clash into an empty result instead of a second row, which
// closes the window between checking for duplicates and inserting.
func (r *PostgresMemberRepository) Create(ctx context.Context, m *domain.Member) error {
	query := `
		INSERT INTO members (first_name, last_name, cin, phone, email, birth_date, facebook_name, profession, height)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::date, $7, $8, $9)
		ON CONFLICT DO NOTHING
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		m.FirstName,
		m.LastName,
		m.CIN,
		m.Phone,
		m.Email,
		m.BirthDate,
		m.FacebookName,
		m.Profession,
		m.Height,
	).Scan(&m.ID)

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: cin or email already registered", domain.ErrDuplicate)
	}
	if err != nil {
		err = translateError(err)
		if !errors.Is(err, domain.ErrInvalidInput) {
			r.logger.Error("failed to create member",
				slog.String("cin", m.CIN),
				slog.String("error", err.Error()),
			)
		}
		return fmt.Errorf("failed to create member: %w", err)
	}

	return nil
}

// Update overwrites every column of the member
func (r *PostgresMemberRepository) Update(ctx context.Context, m *domain.Member) error {
	query := `
		UPDATE members
		SET first_name = $1, last_name = $2, cin = $3, phone = $4, email = $5,
		    birth_date = NULLIF($6, '')::date, facebook_name = $7, profession = $8, height = $9
		WHERE id = $10
	`

	result, err := r.db.ExecContext(ctx, query,
		m.FirstName,
		m.LastName,
		m.CIN,
		m.Phone,
		m.Email,
		m.BirthDate,
		m.FacebookName,
		m.Profession,
		m.Height,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", translateError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Delete removes a member. Deleting a missing id is not an error.
func (r *PostgresMemberRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return nil
}

// Count returns the number of members
func (r *PostgresMemberRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return n, nil
}
