package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/claude/repcycle/internal/models"
)

// Constraint names from migrations/ that map onto domain invariants.
const (
	constraintOneFeedback = "auto_regulation_feedback_session_id_key"
	constraintOneActive   = "mesocycles_one_active"
)

// notFound turns pgx.ErrNoRows into a *models.NotFoundError.
func notFound(err error, entity string, id any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NotFound(entity, id)
	}
	return mapPgError(err)
}

// mapPgError translates constraint violations into the domain taxonomy.
// Other errors pass through unchanged.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505": // unique_violation
		switch pgErr.ConstraintName {
		case constraintOneFeedback:
			return models.Invariant("one feedback per session", "%s", pgErr.Detail)
		case constraintOneActive:
			return models.Invariant("one active mesocycle per user", "%s", pgErr.Detail)
		}
		return models.Invariant("unique "+pgErr.ConstraintName, "%s", pgErr.Detail)
	case "23503": // foreign_key_violation
		return models.NotFound("referenced row", pgErr.ConstraintName)
	case "23514": // check_violation
		return models.Invariant(pgErr.ConstraintName, "%s", pgErr.Message)
	}
	return err
}
