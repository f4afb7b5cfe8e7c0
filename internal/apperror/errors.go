// Package apperror defines the error taxonomy shared by repositories,
// services and handlers.
package apperror

import (
	"fmt"
	"sort"
	"strings"
)

// NotFoundError indicates the target resource does not exist.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s não encontrado", e.Entity)
}

// NotFound builds a NotFoundError for the given entity label ("Usuário", "Grupo", ...).
func NotFound(entity string) *NotFoundError {
	return &NotFoundError{Entity: entity}
}

// Entity labels used in not-found messages
const (
	EntityUser   = "Usuário"
	EntityGroup  = "Grupo"
	EntityMember = "Membro"
	EntityRole   = "Tipo de usuário"
)

// ValidationError carries field-scoped messages; messages for a field keep
// the order in which the rules failed.
type ValidationError struct {
	Errors map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Errors: make(map[string][]string)}
}

// Add appends a message for field.
func (e *ValidationError) Add(field, message string) {
	e.Errors[field] = append(e.Errors[field], message)
}

// Has reports whether field already failed a rule.
func (e *ValidationError) Has(field string) bool {
	return len(e.Errors[field]) > 0
}

// Empty reports whether no rule failed.
func (e *ValidationError) Empty() bool {
	return len(e.Errors) == 0
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.Errors[f], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConflictError indicates a uniqueness violation caught at the storage layer.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// Conflict builds a ConflictError with a formatted message.
func Conflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// UnauthenticatedError means the caller could not be identified: bad
// credentials, or a missing, invalid, expired or revoked token.
type UnauthenticatedError struct {
	Message string
}

func (e *UnauthenticatedError) Error() string { return e.Message }

// Unauthenticated builds an UnauthenticatedError.
func Unauthenticated(message string) *UnauthenticatedError {
	return &UnauthenticatedError{Message: message}
}
