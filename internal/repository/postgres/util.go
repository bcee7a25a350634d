package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrConflict   = errors.New("conflict")
	ErrConstraint = errors.New("constraint violation")
)

// mapPgErr folds integrity violations into the package sentinels and leaves
// everything else untouched.
func mapPgErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == "23505":
		return errors.Join(ErrConflict, err)
	case len(pgErr.Code) == 5 && pgErr.Code[:2] == "23":
		return errors.Join(ErrConstraint, err)
	default:
		return err
	}
}
