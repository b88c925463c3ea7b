package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"apa-backoffice/internal/domain/errs"

	"github.com/jackc/pgx/v5/pgconn"
)

// mapErr traduce errores del driver a la taxonomía de errs:
// tabla/columna inexistente => configuración; conexión caída o timeout => transitorio.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errs.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P01", "42703", "42883", "3D000", "28P01", "28000":
			// undefined_table, undefined_column, undefined_function, db inexistente, auth
			return fmt.Errorf("postgres: %w: %w", errs.ErrConfiguration, err)
		case "57P01", "57P02", "57P03", "53300", "40001", "40P01":
			return fmt.Errorf("postgres: %w: %w", errs.ErrTransient, err)
		}
		if strings.HasPrefix(pgErr.Code, "08") {
			return fmt.Errorf("postgres: %w: %w", errs.ErrTransient, err)
		}
		return err
	}

	var netErr net.Error
	switch {
	case pgconn.Timeout(err),
		pgconn.SafeToRetry(err),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr):
		return fmt.Errorf("postgres: %w: %w", errs.ErrTransient, err)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("postgres: %w: %w", errs.ErrTransient, err)
	}
	return err
}
