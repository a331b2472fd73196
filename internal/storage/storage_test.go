package storage

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/claude/repcycle/internal/models"
)

// TestMapPgError verifies constraint violations map onto the domain taxonomy.
func TestMapPgError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"duplicate feedback", &pgconn.PgError{Code: "23505", ConstraintName: constraintOneFeedback}, models.ErrInvariantViolation},
		{"second active mesocycle", &pgconn.PgError{Code: "23505", ConstraintName: constraintOneActive}, models.ErrInvariantViolation},
		{"check violation", &pgconn.PgError{Code: "23514", ConstraintName: "muscle_group_volume_landmarks_check"}, models.ErrInvariantViolation},
		{"foreign key", &pgconn.PgError{Code: "23503", ConstraintName: "workout_sessions_mesocycle_id_fkey"}, models.ErrNotFound},
		{"wrapped", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"}), models.ErrInvariantViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapPgError(tt.err); !errors.Is(got, tt.want) {
				t.Errorf("mapPgError = %v, want %v", got, tt.want)
			}
		})
	}

	other := errors.New("connection reset")
	if got := mapPgError(other); got != other {
		t.Errorf("unrelated error was rewritten: %v", got)
	}
}

// TestNotFoundMapsNoRows verifies pgx.ErrNoRows becomes a typed not-found error.
func TestNotFoundMapsNoRows(t *testing.T) {
	err := notFound(pgx.ErrNoRows, "session", 42)
	var nf *models.NotFoundError
	if !errors.As(err, &nf) || nf.Entity != "session" {
		t.Errorf("notFound = %v", err)
	}
}

// TestPlaceholders verifies multi-row parameter numbering.
func TestPlaceholders(t *testing.T) {
	if got := placeholders(2, 3); got != "($1,$2,$3),($4,$5,$6)" {
		t.Errorf("placeholders = %q", got)
	}
}

// TestQualified verifies the alias is applied to columns split across lines.
func TestQualified(t *testing.T) {
	got := qualified(exerciseColumns, "e")
	if strings.Count(got, "e.") != exerciseColumnCount {
		t.Errorf("qualified columns = %q", got)
	}
	if !strings.Contains(got, "e.weight") || !strings.Contains(got, "e.is_completed") {
		t.Errorf("qualified columns = %q", got)
	}
}

// TestJSONArg verifies empty method config is stored as NULL.
func TestJSONArg(t *testing.T) {
	if jsonArg(nil) != nil {
		t.Error("nil config should be NULL")
	}
	if got := jsonArg([]byte(`{"drops":2}`)); got != `{"drops":2}` {
		t.Errorf("jsonArg = %v", got)
	}
}
