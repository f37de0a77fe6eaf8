package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/memberledger/internal/domain"
)

// PostgresContributionRepository implements domain.ContributionRepository using PostgreSQL
type PostgresContributionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresContributionRepository creates a new contribution repository
func NewPostgresContributionRepository(db *sql.DB, logger *slog.Logger) *PostgresContributionRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresContributionRepository{
		db:     db,
		logger: logger,
	}
}

// List returns contributions joined with their member. Rows whose member
// no longer exists are not part of the result.
func (r *PostgresContributionRepository) List(ctx context.Context) ([]*domain.ContributionWithMember, error) {
	query := `
		SELECT c.id, c.member_id, c.month, c.year, c.amount, c.paid_at, m.first_name, m.last_name
		FROM contributions c
		INNER JOIN members m ON m.id = c.member_id
		ORDER BY c.year DESC, c.month DESC, c.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list contributions", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}
	defer rows.Close()

	out := []*domain.ContributionWithMember{}
	for rows.Next() {
		c := &domain.ContributionWithMember{}
		if err := rows.Scan(
			&c.ID,
			&c.MemberID,
			&c.Month,
			&c.Year,
			&c.Amount,
			&c.PaidAt,
			&c.FirstName,
			&c.LastName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		out = append(out, c)
	}

	return out, rows.Err()
}

// ListByMember returns the contributions of one member
func (r *PostgresContributionRepository) ListByMember(ctx context.Context, memberID int64) ([]*domain.Contribution, error) {
	query := `
		SELECT id, member_id, month, year, amount, paid_at
		FROM contributions
		WHERE member_id = $1
		ORDER BY year DESC, month DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, memberID)
	if err != nil {
		r.logger.Error("failed to list member contributions",
			slog.Int64("member_id", memberID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}
	defer rows.Close()

	out := []*domain.Contribution{}
	for rows.Next() {
		c := &domain.Contribution{}
		if err := rows.Scan(&c.ID, &c.MemberID, &c.Month, &c.Year, &c.Amount, &c.PaidAt); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		out = append(out, c)
	}

	return out, rows.Err()
}

// Create inserts a contribution and sets its ID and stored amount
func (r *PostgresContributionRepository) Create(ctx context.Context, c *domain.Contribution) error {
	query := `
		INSERT INTO contributions (member_id, month, year, amount, paid_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, amount
	`

	err := r.db.QueryRowContext(ctx, query, c.MemberID, c.Month, c.Year, c.Amount, c.PaidAt).Scan(&c.ID, &c.Amount)
	if err != nil {
		return fmt.Errorf("failed to create contribution: %w", translateError(err))
	}

	return nil
}

// Update overwrites amount and paid_at
func (r *PostgresContributionRepository) Update(ctx context.Context, c *domain.Contribution) error {
	query := `
		UPDATE contributions
		SET amount = $1, paid_at = $2
		WHERE id = $3
		RETURNING member_id, month, year, amount
	`

	err := r.db.QueryRowContext(ctx, query, c.Amount, c.PaidAt, c.ID).Scan(&c.MemberID, &c.Month, &c.Year, &c.Amount)
	if err != nil {
		return fmt.Errorf("failed to update contribution: %w", translateError(err))
	}

	return nil
}

// Delete removes a contribution. Deleting a missing id is not an error.
func (r *PostgresContributionRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM contributions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete contribution: %w", err)
	}
	return nil
}

// Total sums every contribution amount, zero when the ledger is empty
func (r *PostgresContributionRepository) Total(ctx context.Context) (float64, error) {
	var total float64
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0) FROM contributions`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum contributions: %w", err)
	}
	return total, nil
}

// PeriodTotals groups contributions by (year, month), newest first
func (r *PostgresContributionRepository) PeriodTotals(ctx context.Context, limit int) ([]domain.PeriodTotal, error) {
	query := `
		SELECT year, month, COUNT(*), COALESCE(SUM(amount), 0)
		FROM contributions
		GROUP BY year, month
		ORDER BY year DESC, month DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate contributions: %w", err)
	}
	defer rows.Close()

	var out []domain.PeriodTotal
	for rows.Next() {
		var p domain.PeriodTotal
		if err := rows.Scan(&p.Year, &p.Month, &p.Count, &p.Total); err != nil {
			return nil, fmt.Errorf("failed to scan period total: %w", err)
		}
		out = append(out, p)
	}

	return out, rows.Err()
}
