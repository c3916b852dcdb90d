// Package domain defines core types, interfaces, and errors for the catalog graph pipeline.
package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyCatalog is returned when a catalog listing yields no importable datasets.
// Callers report it as "nothing found", not as a failure.
var ErrEmptyCatalog = errors.New("no datasets found")

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ParseError indicates a statement the triple store cannot classify as a read or a write.
type ParseError struct {
	Statement string
	Message   string
}

func (e *ParseError) Error() string { return e.Message }

// IntegrityError indicates graph content that would silently corrupt a derived
// document if processing continued (unmapped datatype, malformed reference).
type IntegrityError struct {
	Subject string
	Message string
}

func (e *IntegrityError) Error() string {
	if e.Subject == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Subject, e.Message)
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrParse creates a ParseError for the given statement.
func ErrParse(statement string, format string, args ...interface{}) *ParseError {
	return &ParseError{Statement: statement, Message: fmt.Sprintf(format, args...)}
}

// ErrIntegrity creates an IntegrityError about the given graph subject.
func ErrIntegrity(subject string, format string, args ...interface{}) *IntegrityError {
	return &IntegrityError{Subject: subject, Message: fmt.Sprintf(format, args...)}
}
