package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by services, repositories and controllers.
var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// ValidationError reports malformed or missing input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AuthError reports a missing identity (Unauthenticated) or an insufficient
// permission for an authenticated requester.
type AuthError struct {
	Message         string
	Unauthenticated bool
}

func (e *AuthError) Error() string {
	return "auth: " + e.Message
}

func (e *AuthError) Unwrap() error {
	if e.Unauthenticated {
		return ErrUnauthorized
	}
	return ErrForbidden
}

func NewUnauthenticatedError(message string) *AuthError {
	return &AuthError{Message: message, Unauthenticated: true}
}

func NewForbiddenError(message string) *AuthError {
	return &AuthError{Message: message}
}

// NotFoundError reports an unknown identifier.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}
