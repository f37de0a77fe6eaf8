package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/aryan0dhankhar/memberledger/internal/domain"
)

// PostgreSQL SQLSTATE codes the repositories translate.
const (
	uniqueViolation        = "23505"
	foreignKeyViolation    = "23503"
	numericValueOutOfRange = "22003"
)

// uniqueFields names the field behind each unique index
var uniqueFields = map[string]string{
	"members_cin_key":    "cin",
	"members_email_key":  "email",
	"users_username_key": "username",
}

// translateError maps driver errors onto domain failures
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			if field, ok := uniqueFields[pqErr.Constraint]; ok {
				return fmt.Errorf("%w: %s already registered", domain.ErrDuplicate, field)
			}
			return domain.ErrDuplicate
		case foreignKeyViolation:
			return fmt.Errorf("%w: referenced record does not exist", domain.ErrInvalidInput)
		case numericValueOutOfRange:
			return fmt.Errorf("%w: value out of range", domain.ErrInvalidInput)
		}
	}
	return err
}
