package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aryan0dhankhar/memberledger/internal/domain"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type memMemberRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*domain.Member
	fail   error
	// afterCount runs once Count has read the registry size
	afterCount func()
}

func newMemMemberRepo() *memMemberRepo {
	return &memMemberRepo{byID: map[int64]*domain.Member{}}
}

func (m *memMemberRepo) clash(c *domain.Member) bool {
	for id, other := range m.byID {
		if id != c.ID && (other.CIN == c.CIN || other.Email == c.Email) {
			return true
		}
	}
	return false
}

func (m *memMemberRepo) List(ctx context.Context) ([]*domain.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	out := []*domain.Member{}
	for _, v := range m.byID {
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memMemberRepo) Create(ctx context.Context, c *domain.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clash(c) {
		return domain.ErrDuplicate
	}
	m.nextID++
	c.ID = m.nextID
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memMemberRepo) Update(ctx context.Context, c *domain.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[c.ID]; !ok {
		return domain.ErrNotFound
	}
	if m.clash(c) {
		return domain.ErrDuplicate
	}
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memMemberRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

func (m *memMemberRepo) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	if m.fail != nil {
		m.mu.Unlock()
		return 0, m.fail
	}
	n := int64(len(m.byID))
	hook := m.afterCount
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return n, nil
}

func (m *memMemberRepo) exists(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byID[id]
	return ok
}

type memContributionRepo struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]*domain.Contribution
	members *memMemberRepo
	calls   int
}

func newMemContributionRepo(members *memMemberRepo) *memContributionRepo {
	return &memContributionRepo{byID: map[int64]*domain.Contribution{}, members: members}
}

func (r *memContributionRepo) List(ctx context.Context) ([]*domain.ContributionWithMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.ContributionWithMember{}
	for _, c := range r.byID {
		r.members.mu.Lock()
		m, ok := r.members.byID[c.MemberID]
		r.members.mu.Unlock()
		if !ok {
			continue
		}
		out = append(out, &domain.ContributionWithMember{Contribution: *c, FirstName: m.FirstName, LastName: m.LastName})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memContributionRepo) ListByMember(ctx context.Context, memberID int64) ([]*domain.Contribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Contribution{}
	for _, c := range r.byID {
		if c.MemberID == memberID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memContributionRepo) Create(ctx context.Context, c *domain.Contribution) error {
	if !r.members.exists(c.MemberID) {
		return domain.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.byID[c.ID] = &cp
	return nil
}

func (r *memContributionRepo) Update(ctx context.Context, c *domain.Contribution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[c.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Amount = c.Amount
	stored.PaidAt = c.PaidAt
	c.MemberID, c.Month, c.Year = stored.MemberID, stored.Month, stored.Year
	return nil
}

func (r *memContributionRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

func (r *memContributionRepo) Total(ctx context.Context) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	total := 0.0
	for _, c := range r.byID {
		total += c.Amount
	}
	return total, nil
}

// PeriodTotals deliberately returns groups unordered and unlimited so the
// aggregator's own ordering and truncation are what the tests observe.
func (r *memContributionRepo) PeriodTotals(ctx context.Context, limit int) ([]domain.PeriodTotal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	groups := map[[2]int]*domain.PeriodTotal{}
	for _, c := range r.byID {
		k := [2]int{c.Year, c.Month}
		g, ok := groups[k]
		if !ok {
			g = &domain.PeriodTotal{Year: c.Year, Month: c.Month}
			groups[k] = g
		}
		g.Count++
		g.Total += c.Amount
	}
	out := make([]domain.PeriodTotal, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	return out, nil
}

type memUserRepo struct {
	mu       sync.Mutex
	nextID   int64
	byID     map[int64]*domain.User
	accessed int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[int64]*domain.User{}}
}

func (m *memUserRepo) Create(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessed++
	for _, other := range m.byID {
		if other.Username == u.Username {
			return domain.ErrDuplicate
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessed++
	for _, u := range m.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessed++
	if u, ok := m.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessed++
	out := []*domain.User{}
	for _, u := range m.byID {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memUserRepo) UpdateRole(ctx context.Context, id int64, role domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessed++
	u, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Role = role
	return nil
}

func (m *memUserRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessed++
	delete(m.byID, id)
	return nil
}

func (m *memUserRepo) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.byID)), nil
}

type spyInvalidator struct{ calls int }

func (s *spyInvalidator) Invalidate(context.Context) { s.calls++ }

type brokenCache struct{}

var errCacheDown = errors.New("cache down")

func (brokenCache) Get(context.Context) (*domain.Stats, bool, error) { return nil, false, errCacheDown }
func (brokenCache) Generation(context.Context) (int64, error)        { return 0, errCacheDown }
func (brokenCache) Set(context.Context, *domain.Stats, int64) error  { return errCacheDown }
func (brokenCache) Invalidate(context.Context) error                 { return errCacheDown }
