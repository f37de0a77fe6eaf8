package domain

import (
	"context"
	"time"
)

// Contribution is one periodic payment made by a member.
type Contribution struct {
	ID       int64     `json:"id"`
	MemberID int64     `json:"memberId" validate:"gt=0"`
	Month    int       `json:"month" validate:"min=1,max=12"`
	Year     int       `json:"year" validate:"min=1900,max=9999"`
	Amount   float64   `json:"amount" validate:"gte=0,lte=9999999999.99,cents"`
	PaidAt   time.Time `json:"paidAt"`
}

// ContributionWithMember is a contribution joined with its owner's name.
type ContributionWithMember struct {
	Contribution
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// PeriodTotal aggregates the contributions of one (year, month).
type PeriodTotal struct {
	Year  int
	Month int
	Count int64
	Total float64
}

// ContributionRepository defines data access for contributions
type ContributionRepository interface {
	// List returns contributions that reference an existing member.
	List(ctx context.Context) ([]*ContributionWithMember, error)
	ListByMember(ctx context.Context, memberID int64) ([]*Contribution, error)
	Create(ctx context.Context, c *Contribution) error
	// Update overwrites Amount and PaidAt of c.ID and fills the remaining fields.
	Update(ctx context.Context, c *Contribution) error
	Delete(ctx context.Context, id int64) error
	Total(ctx context.Context) (float64, error)
	// PeriodTotals returns at most limit groups, newest period first.
	PeriodTotals(ctx context.Context, limit int) ([]PeriodTotal, error)
}
