package errors

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes the API distinguishes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
)

// ErrorInfo is a store error translated for clients.
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

// ParseError classifies a store or transport error. resource names the
// entity involved ("order", "product") and is used in messages. Driver
// details never leak into Message.
func ParseError(err error, resource string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: "Something went wrong"}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Status: http.StatusNotFound, Code: ResourceNotFound, Message: notFoundMessage(resource)}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return parsePgError(pgErr, resource)
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrorInfo{Status: http.StatusConflict, Code: ResourceAlreadyExists, Message: alreadyExistsMessage(resource)}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    InternalDatabaseError,
			Message: "The data store did not respond in time. Please try again",
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    InternalExternalAPI,
			Message: "A backing service is unavailable. Please try again later",
		}
	}

	return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: defaultMessage(resource)}
}

func parsePgError(pgErr *pgconn.PgError, resource string) ErrorInfo {
	switch pgErr.Code {
	case pgUniqueViolation:
		if strings.Contains(pgErr.ConstraintName, "email") {
			return ErrorInfo{Status: http.StatusConflict, Code: AuthEmailAlreadyExists, Message: "Email is already registered"}
		}
		return ErrorInfo{Status: http.StatusConflict, Code: ResourceAlreadyExists, Message: alreadyExistsMessage(resource)}
	case pgForeignKeyViolation:
		return ErrorInfo{Status: http.StatusNotFound, Code: ResourceNotFound, Message: "A referenced record does not exist"}
	case pgNotNullViolation:
		field := pgErr.ColumnName
		if field == "" {
			field = "a required field"
		}
		return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationRequired, Message: field + " is required"}
	case pgCheckViolation:
		return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationInvalidInput, Message: "A value is out of the allowed range"}
	}
	return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalDatabaseError, Message: defaultMessage(resource)}
}

func notFoundMessage(resource string) string {
	if resource == "" {
		return "Not found"
	}
	return capitalize(resource) + " not found"
}

func alreadyExistsMessage(resource string) string {
	if resource == "" {
		return "Already exists"
	}
	return capitalize(resource) + " already exists"
}

func defaultMessage(resource string) string {
	if resource == "" {
		return "Something went wrong. Please try again later"
	}
	return "Failed to process " + resource + ". Please try again later"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
