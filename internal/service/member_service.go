package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aryan0dhankhar/memberledger/internal/domain"
	"github.com/aryan0dhankhar/memberledger/internal/observability/metrics"
)

// StatsInvalidator is told when a write may have changed the statistics
type StatsInvalidator interface {
	Invalidate(ctx context.Context)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context) {}

// MemberService is the member registry
type MemberService struct {
	repo   domain.MemberRepository
	stats  StatsInvalidator
	logger *slog.Logger
}

// NewMemberService creates a new member service
func NewMemberService(repo domain.MemberRepository, stats StatsInvalidator, logger *slog.Logger) *MemberService {
	if logger == nil {
		logger = slog.Default()
	}
	if stats == nil {
		stats = noopInvalidator{}
	}
	return &MemberService{repo: repo, stats: stats, logger: logger}
}

// List returns every member
func (s *MemberService) List(ctx context.Context) ([]*domain.Member, error) {
	return s.repo.List(ctx)
}

// Count returns the number of members
func (s *MemberService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// Create registers a member. A CIN or email already held by another member
// fails with ErrDuplicate and nothing is written.
func (s *MemberService) Create(ctx context.Context, m *domain.Member) error {
	normalizeMember(m)
	m.ID = 0
	if err := validateStruct(m); err != nil {
		return err
	}

	err := s.repo.Create(ctx, m)
	metrics.ObserveWrite("member", "create", err)
	if err != nil {
		return err
	}

	s.stats.Invalidate(ctx)
	s.logger.Info("member created", slog.Int64("member_id", m.ID))
	return nil
}

// Update overwrites every field of member m.ID
func (s *MemberService) Update(ctx context.Context, m *domain.Member) error {
	if err := requireID(m.ID, "member"); err != nil {
		return err
	}
	normalizeMember(m)
	if err := validateStruct(m); err != nil {
		return err
	}

	err := s.repo.Update(ctx, m)
	metrics.ObserveWrite("member", "update", err)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrDuplicate) {
			s.logger.Error("failed to update member",
				slog.Int64("member_id", m.ID),
				slog.String("error", err.Error()),
			)
		}
		return err
	}
	return nil
}

// Delete removes a member and its contributions. Unknown ids succeed.
func (s *MemberService) Delete(ctx context.Context, id int64) error {
	if err := requireID(id, "member"); err != nil {
		return err
	}

	err := s.repo.Delete(ctx, id)
	metrics.ObserveWrite("member", "delete", err)
	if err != nil {
		return err
	}

	s.stats.Invalidate(ctx)
	return nil
}

func normalizeMember(m *domain.Member) {
	m.FirstName = strings.TrimSpace(m.FirstName)
	m.LastName = strings.TrimSpace(m.LastName)
	m.CIN = strings.TrimSpace(m.CIN)
	m.Phone = strings.TrimSpace(m.Phone)
	m.Email = strings.TrimSpace(m.Email)
	m.BirthDate = strings.TrimSpace(m.BirthDate)
	m.FacebookName = strings.TrimSpace(m.FacebookName)
	m.Profession = strings.TrimSpace(m.Profession)
}
