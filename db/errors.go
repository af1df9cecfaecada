package db

import (
	"database/sql"
	"errors"

	"boxoffice/entities"

	"github.com/lib/pq"
)

const (
	postgresUniqueValueViolationErrorCode = "23505"
)

func isErrorUniqueViolation(err error) bool {
	var psqlErr *pq.Error
	return errors.As(err, &psqlErr) && psqlErr.Code == postgresUniqueValueViolationErrorCode
}

func isUniqueViolationOn(err error, constraint string) bool {
	var psqlErr *pq.Error
	return errors.As(err, &psqlErr) &&
		psqlErr.Code == postgresUniqueValueViolationErrorCode &&
		psqlErr.Constraint == constraint
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isNotFound(err error) bool {
	var notFound entities.NotFoundError
	return errors.As(err, &notFound)
}
