package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/localnerve/campusgeo/internal/geometry"
	"github.com/localnerve/campusgeo/internal/spatial"
	"github.com/localnerve/campusgeo/internal/types"
	mssql "github.com/microsoft/go-mssqldb"
	"gorm.io/gorm"
)

// Service error categories. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrTimeout    = errors.New("timeout")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// classifyError files datastore and input errors under the service categories.
// Errors already carrying a category pass through unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrNotFound, ErrValidation, ErrConflict, ErrTimeout} {
		if errors.Is(err, known) {
			return err
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, geometry.ErrInvalidGeometry),
		errors.Is(err, types.ErrAmbiguousRef),
		errors.Is(err, types.ErrMissingRef),
		errors.Is(err, types.ErrZeroRefID),
		errors.Is(err, spatial.ErrUnsupportedGeometry):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03", "57014": // lock_not_available, query_canceled
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		case "40P01", "40001": // deadlock_detected, serialization_failure
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1205, 3024: // lock wait timeout, max_execution_time exceeded
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		case 1213: // deadlock
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		switch msErr.Number {
		case 1222: // lock request time out
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		case 1205: // deadlock victim
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
	}

	return err
}

// classifyTxError classifies an error from a bounded transaction. Once the bound has
// expired the transaction is rolled back underneath the caller, and later statements
// fail with sql.ErrTxDone or a driver interrupt rather than a deadline error.
func classifyTxError(err, ctxErr error) error {
	err = classifyError(err)
	if !errors.Is(ctxErr, context.DeadlineExceeded) {
		return err
	}
	for _, known := range []error{ErrNotFound, ErrValidation, ErrConflict, ErrTimeout} {
		if errors.Is(err, known) {
			return err
		}
	}
	if errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("%w: transaction rolled back at its time bound: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: transaction exceeded its time bound: %w", ErrTimeout, err)
}
