package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/memberledger/internal/domain"
	"github.com/aryan0dhankhar/memberledger/internal/observability/metrics"
)

// ContributionService is the contribution ledger
type ContributionService struct {
	repo   domain.ContributionRepository
	stats  StatsInvalidator
	logger *slog.Logger
	now    func() time.Time
}

// NewContributionService creates a new contribution service
func NewContributionService(repo domain.ContributionRepository, stats StatsInvalidator, logger *slog.Logger) *ContributionService {
	if logger == nil {
		logger = slog.Default()
	}
	if stats == nil {
		stats = noopInvalidator{}
	}
	return &ContributionService{repo: repo, stats: stats, logger: logger, now: time.Now}
}

// List returns contributions with their member's name. Contributions whose
// member is gone are not listed.
func (s *ContributionService) List(ctx context.Context) ([]*domain.ContributionWithMember, error) {
	return s.repo.List(ctx)
}

// ListByMember returns one member's contributions, empty when there are none
func (s *ContributionService) ListByMember(ctx context.Context, memberID int64) ([]*domain.Contribution, error) {
	if err := requireID(memberID, "member"); err != nil {
		return nil, err
	}
	return s.repo.ListByMember(ctx, memberID)
}

// Create records a contribution; a zero PaidAt means now. The member must
// exist, which storage enforces.
func (s *ContributionService) Create(ctx context.Context, c *domain.Contribution) error {
	c.ID = 0
	if err := validateStruct(c); err != nil {
		return err
	}
	if c.PaidAt.IsZero() {
		c.PaidAt = s.now().UTC()
	}

	err := s.repo.Create(ctx, c)
	metrics.ObserveWrite("contribution", "create", err)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return fmt.Errorf("%w: member %d does not exist", domain.ErrInvalidInput, c.MemberID)
		}
		return err
	}

	s.stats.Invalidate(ctx)
	s.logger.Info("contribution recorded",
		slog.Int64("contribution_id", c.ID),
		slog.Int64("member_id", c.MemberID),
	)
	return nil
}

// amountInput carries the amount rules of domain.Contribution for updates
type amountInput struct {
	Amount float64 `json:"amount" validate:"gte=0,lte=9999999999.99,cents"`
}

// Update overwrites amount and paidAt of contribution id and returns the
// full record. A zero paidAt means now.
func (s *ContributionService) Update(ctx context.Context, id int64, amount float64, paidAt time.Time) (*domain.Contribution, error) {
	if err := requireID(id, "contribution"); err != nil {
		return nil, err
	}
	if err := validateStruct(amountInput{Amount: amount}); err != nil {
		return nil, err
	}
	if paidAt.IsZero() {
		paidAt = s.now().UTC()
	}

	c := &domain.Contribution{ID: id, Amount: amount, PaidAt: paidAt}
	err := s.repo.Update(ctx, c)
	metrics.ObserveWrite("contribution", "update", err)
	if err != nil {
		return nil, err
	}

	s.stats.Invalidate(ctx)
	return c, nil
}

// Delete removes a contribution. Unknown ids succeed.
func (s *ContributionService) Delete(ctx context.Context, id int64) error {
	if err := requireID(id, "contribution"); err != nil {
		return err
	}

	err := s.repo.Delete(ctx, id)
	metrics.ObserveWrite("contribution", "delete", err)
	if err != nil {
		return err
	}

	s.stats.Invalidate(ctx)
	return nil
}
