package domain

import "context"

// Member is a registered member of the association.
// CIN and Email are each unique across all members.
type Member struct {
	ID           int64   `json:"id"`
	FirstName    string  `json:"firstName" validate:"required,max=100"`
	LastName     string  `json:"lastName" validate:"required,max=100"`
	CIN          string  `json:"cin" validate:"required,max=64"`
	Phone        string  `json:"phone" validate:"max=32"`
	Email        string  `json:"email" validate:"required,email,max=255"`
	BirthDate    string  `json:"birthDate" validate:"omitempty,datetime=2006-01-02"` // empty when unknown
	FacebookName string  `json:"facebookName" validate:"max=255"`
	Profession   string  `json:"profession" validate:"max=255"`
	Height       float64 `json:"height" validate:"gte=0"`
}

// MemberRepository defines data access for members
type MemberRepository interface {
	List(ctx context.Context) ([]*Member, error)
	// Create inserts the member and sets its ID. It returns ErrDuplicate
	// when another member already holds the CIN or the email.
	Create(ctx context.Context, member *Member) error
	// Update overwrites every field of member.ID. It returns ErrDuplicate on a
	// CIN/email clash with another member and ErrNotFound when no row matched.
	Update(ctx context.Context, member *Member) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}
