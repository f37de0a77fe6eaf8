package handler

import (
	"context"
	"sync"
	"time"

	"github.com/aryan0dhankhar/memberledger/internal/domain"
)

type memberStore struct {
	mu   sync.Mutex
	next int64
	rows map[int64]domain.Member
}

func (s *memberStore) List(ctx context.Context) ([]*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*domain.Member{}
	for id := int64(1); id <= s.next; id++ {
		if m, ok := s.rows[id]; ok {
			out = append(out, &m)
		}
	}
	return out, nil
}

func (s *memberStore) clash(m *domain.Member) bool {
	for id, o := range s.rows {
		if id != m.ID && (o.CIN == m.CIN || o.Email == m.Email) {
			return true
		}
	}
	return false
}

func (s *memberStore) Create(ctx context.Context, m *domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clash(m) {
		return domain.ErrDuplicate
	}
	s.next++
	m.ID = s.next
	s.rows[m.ID] = *m
	return nil
}

func (s *memberStore) Update(ctx context.Context, m *domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[m.ID]; !ok {
		return domain.ErrNotFound
	}
	if s.clash(m) {
		return domain.ErrDuplicate
	}
	s.rows[m.ID] = *m
	return nil
}

func (s *memberStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *memberStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.rows)), nil
}

type contributionStore struct {
	mu      sync.Mutex
	next    int64
	rows    map[int64]domain.Contribution
	members *memberStore
	failAll error
}

func (s *contributionStore) List(ctx context.Context) ([]*domain.ContributionWithMember, error) {
	if s.failAll != nil {
		return nil, s.failAll
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*domain.ContributionWithMember{}
	for id := s.next; id >= 1; id-- {
		c, ok := s.rows[id]
		if !ok {
			continue
		}
		s.members.mu.Lock()
		m, ok := s.members.rows[c.MemberID]
		s.members.mu.Unlock()
		if ok {
			out = append(out, &domain.ContributionWithMember{Contribution: c, FirstName: m.FirstName, LastName: m.LastName})
		}
	}
	return out, nil
}

func (s *contributionStore) ListByMember(ctx context.Context, memberID int64) ([]*domain.Contribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*domain.Contribution{}
	for _, c := range s.rows {
		if c.MemberID == memberID {
			c := c
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *contributionStore) Create(ctx context.Context, c *domain.Contribution) error {
	s.members.mu.Lock()
	_, ok := s.members.rows[c.MemberID]
	s.members.mu.Unlock()
	if !ok {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	c.ID = s.next
	s.rows[c.ID] = *c
	return nil
}

func (s *contributionStore) Update(ctx context.Context, c *domain.Contribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rows[c.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Amount, stored.PaidAt = c.Amount, c.PaidAt
	s.rows[c.ID] = stored
	*c = stored
	return nil
}

func (s *contributionStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *contributionStore) Total(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := 0.0
	for _, c := range s.rows {
		t += c.Amount
	}
	return t, nil
}

func (s *contributionStore) PeriodTotals(ctx context.Context, limit int) ([]domain.PeriodTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups := map[[2]int]*domain.PeriodTotal{}
	for _, c := range s.rows {
		k := [2]int{c.Year, c.Month}
		if groups[k] == nil {
			groups[k] = &domain.PeriodTotal{Year: c.Year, Month: c.Month}
		}
		groups[k].Count++
		groups[k].Total += c.Amount
	}
	out := []domain.PeriodTotal{}
	for _, g := range groups {
		out = append(out, *g)
	}
	return out, nil
}

type userStore struct {
	mu   sync.Mutex
	next int64
	rows map[int64]domain.User
}

func (s *userStore) Create(ctx context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.rows {
		if o.Username == u.Username {
			return domain.ErrDuplicate
		}
	}
	s.next++
	u.ID = s.next
	u.CreatedAt = time.Now()
	s.rows[u.ID] = *u
	return nil
}

func (s *userStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.rows {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *userStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.rows[id]; ok {
		return &u, nil
	}
	return nil, domain.ErrNotFound
}

func (s *userStore) List(ctx context.Context) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*domain.User{}
	for id := int64(1); id <= s.next; id++ {
		if u, ok := s.rows[id]; ok {
			out = append(out, &u)
		}
	}
	return out, nil
}

func (s *userStore) UpdateRole(ctx context.Context, id int64, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Role = role
	s.rows[id] = u
	return nil
}

func (s *userStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *userStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.rows)), nil
}
