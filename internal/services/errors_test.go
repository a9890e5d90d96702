package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/localnerve/campusgeo/internal/geometry"
	"github.com/localnerve/campusgeo/internal/spatial"
	"github.com/localnerve/campusgeo/internal/types"
	mssql "github.com/microsoft/go-mssqldb"
	"gorm.io/gorm"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), ErrTimeout},
		{"record not found", gorm.ErrRecordNotFound, ErrNotFound},
		{"geometry", fmt.Errorf("%w: open ring", geometry.ErrInvalidGeometry), ErrValidation},
		{"ambiguous ref", types.ErrAmbiguousRef, ErrValidation},
		{"missing ref", types.ErrMissingRef, ErrValidation},
		{"unsupported geometry", fmt.Errorf("inline point 0: %w", spatial.ErrUnsupportedGeometry), ErrValidation},
		{"postgres lock timeout", &pgconn.PgError{Code: "55P03"}, ErrTimeout},
		{"postgres statement timeout", fmt.Errorf("tx: %w", &pgconn.PgError{Code: "57014"}), ErrTimeout},
		{"postgres deadlock", &pgconn.PgError{Code: "40P01"}, ErrConflict},
		{"mysql lock wait", &mysql.MySQLError{Number: 1205}, ErrTimeout},
		{"mysql max execution time", &mysql.MySQLError{Number: 3024}, ErrTimeout},
		{"mysql deadlock", &mysql.MySQLError{Number: 1213}, ErrConflict},
		{"sqlserver lock timeout", mssql.Error{Number: 1222}, ErrTimeout},
		{"sqlserver deadlock", mssql.Error{Number: 1205}, ErrConflict},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := classifyError(c.err)
			if !errors.Is(got, c.want) {
				t.Errorf("Expected %v, got %v", c.want, got)
			}
			if !strings.Contains(got.Error(), c.err.Error()) {
				t.Errorf("Classified error should still carry the cause, got %v", got)
			}
		})
	}
}

func TestClassifyErrorPassThrough(t *testing.T) {
	if classifyError(nil) != nil {
		t.Error("nil should stay nil")
	}

	categorized := notFoundError("building %d", 3)
	if got := classifyError(categorized); got != categorized {
		t.Errorf("Categorized errors should pass unchanged, got %v", got)
	}

	plain := errors.New("connection reset")
	if got := classifyError(plain); got != plain {
		t.Errorf("Unknown errors should pass unchanged, got %v", got)
	}
	if got := classifyError(&pgconn.PgError{Code: "23505"}); errors.Is(got, ErrTimeout) || errors.Is(got, ErrConflict) {
		t.Errorf("Unique violation should not be classified, got %v", got)
	}
}

func TestClassifyTxError(t *testing.T) {
	expired := context.DeadlineExceeded

	if err := classifyTxError(sql.ErrTxDone, expired); !errors.Is(err, ErrTimeout) {
		t.Errorf("Expected a done transaction past its bound to be a timeout, got %v", err)
	}
	if err := classifyTxError(errors.New("interrupted (9)"), expired); !errors.Is(err, ErrTimeout) {
		t.Errorf("Expected a driver interrupt past the bound to be a timeout, got %v", err)
	}
	if err := classifyTxError(validationError("bad"), expired); !errors.Is(err, ErrValidation) || errors.Is(err, ErrTimeout) {
		t.Errorf("Expected a validation error to keep its category, got %v", err)
	}
	if err := classifyTxError(sql.ErrTxDone, nil); errors.Is(err, ErrTimeout) {
		t.Errorf("Expected no timeout while the bound holds, got %v", err)
	}
	if err := classifyTxError(sql.ErrTxDone, context.Canceled); errors.Is(err, ErrTimeout) {
		t.Errorf("Expected a caller cancellation not to be a timeout, got %v", err)
	}
}
