package service

import (
	"errors"
	"fmt"

	"troskovnik-service/internal/workbook/model"
)

var (
	ErrResultNotFound  = errors.New("result not found")
	ErrLineNotFound    = errors.New("worksheet line not found")
	ErrArticleNotFound = errors.New("article not found")
	ErrCodeNotFound    = errors.New("code not found in weight table")
	ErrDuplicateResult = errors.New("article already assigned to this line")
	ErrPendingLine     = errors.New("result is not assigned to a line")
)

// InvalidInputError rejects a user-entered value and names the field.
type InvalidInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// ConflictError is returned when a line already has a first choice and replacement
// was not confirmed.
type ConflictError struct {
	Line     int
	Existing model.ResultKey
	Name     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("line %d already has a first choice (%s); confirm replacement", e.Line, e.Name)
}
