package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"clicks-promotions/internal/domain"
)

const (
	sqlStateUniqueViolation      = "23505"
	sqlStateForeignKeyViolation  = "23503"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
)

// Constraint names from migrations/000001_init.up.sql.
const (
	constraintOneActivePerVenue = "ux_promotions_one_active_per_venue"
	constraintPromotionCode     = "promotions_code_key"
	constraintClaimCode         = "promotion_claims_code_key"
	constraintClaimPerDay       = "promotion_claims_one_per_day"
)

// classify maps Postgres failures onto domain errors, keeping the original
// error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable:
		return fmt.Errorf("%w: %s", domain.ErrTransient, pgErr.Message)
	case sqlStateForeignKeyViolation:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, pgErr.ConstraintName)
	case sqlStateUniqueViolation:
		switch pgErr.ConstraintName {
		case constraintOneActivePerVenue:
			// a concurrent writer won the venue's active slot; retrying
			// deactivates it first
			return fmt.Errorf("%w: %s", domain.ErrTransient, pgErr.ConstraintName)
		case constraintPromotionCode, constraintClaimCode:
			return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.ConstraintName)
		case constraintClaimPerDay:
			return domain.ErrRateLimited
		}
		return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.ConstraintName)
	}
	return err
}

// scanErr converts a Scan failure into ErrNotFound or a wrapped read error.
func scanErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if c := classify(err); c != err {
		return c
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrReadDatabaseRow, err)
}
