package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound         = errors.New("db: row not found")
	ErrMissingReference = errors.New("db: referenced row does not exist")
	ErrDuplicate        = errors.New("db: duplicate key")
)

const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
	invalidTextRepr     = "22P02"
)

// translate maps driver errors onto the package sentinels, keeping the original in the chain.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case foreignKeyViolation:
			return errors.Join(ErrMissingReference, err)
		case uniqueViolation:
			return errors.Join(ErrDuplicate, err)
		case invalidTextRepr:
			return errors.Join(ErrNotFound, err)
		}
	}
	return err
}
