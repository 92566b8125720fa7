// Package errors provides application-level error types and utilities.
// It covers the bot's full error taxonomy: permission, state-transition,
// rate-limit, game-session, input and collaborator failures.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeForbidden            ErrorType = "forbidden"
	ErrorTypeInvalidTransition    ErrorType = "invalid_transition"
	ErrorTypeRateLimited          ErrorType = "rate_limited"
	ErrorTypeSessionAlreadyActive ErrorType = "session_already_active"
	ErrorTypeSessionNotFound      ErrorType = "session_not_found"
	ErrorTypeInvalidInput         ErrorType = "invalid_input"
	ErrorTypeNotFound             ErrorType = "not_found"
	ErrorTypeCollaboratorFailure  ErrorType = "collaborator_failure"
	ErrorTypeInternal             ErrorType = "internal_error"
)

// AppError represents an application error with additional context
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func newError(errType ErrorType, message string, details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:    errType,
		Message: message,
		Details: detail,
	}
}

// NewForbiddenError creates an error for an actor lacking a required capability.
func NewForbiddenError(message string, details ...string) *AppError {
	return newError(ErrorTypeForbidden, message, details...)
}

// NewInvalidTransitionError creates an error for an operation attempted against
// an entity not in a compatible state.
func NewInvalidTransitionError(message string, details ...string) *AppError {
	return newError(ErrorTypeInvalidTransition, message, details...)
}

// NewRateLimitedError creates an error for an actor exceeding an action-class quota.
func NewRateLimitedError(message string, details ...string) *AppError {
	return newError(ErrorTypeRateLimited, message, details...)
}

// NewSessionAlreadyActiveError creates an error for a game start while a session exists.
func NewSessionAlreadyActiveError(message string, details ...string) *AppError {
	return newError(ErrorTypeSessionAlreadyActive, message, details...)
}

// NewSessionNotFoundError creates an error for game input without a live session.
func NewSessionNotFoundError(message string, details ...string) *AppError {
	return newError(ErrorTypeSessionNotFound, message, details...)
}

// NewInvalidInputError creates an error for malformed user input.
func NewInvalidInputError(message string, details ...string) *AppError {
	return newError(ErrorTypeInvalidInput, message, details...)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, details ...string) *AppError {
	return newError(ErrorTypeNotFound, message, details...)
}

// NewCollaboratorFailureError creates an error for a transient gateway or store failure.
func NewCollaboratorFailureError(message string, details ...string) *AppError {
	return newError(ErrorTypeCollaboratorFailure, message, details...)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, details ...string) *AppError {
	return newError(ErrorTypeInternal, message, details...)
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func isType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

// IsForbiddenError checks if the error is a forbidden error
func IsForbiddenError(err error) bool {
	return isType(err, ErrorTypeForbidden)
}

// IsInvalidTransitionError checks if the error is an invalid transition error
func IsInvalidTransitionError(err error) bool {
	return isType(err, ErrorTypeInvalidTransition)
}

// IsRateLimitedError checks if the error is a rate limited error
func IsRateLimitedError(err error) bool {
	return isType(err, ErrorTypeRateLimited)
}

// IsSessionAlreadyActiveError checks if the error is a session already active error
func IsSessionAlreadyActiveError(err error) bool {
	return isType(err, ErrorTypeSessionAlreadyActive)
}

// IsSessionNotFoundError checks if the error is a session not found error
func IsSessionNotFoundError(err error) bool {
	return isType(err, ErrorTypeSessionNotFound)
}

// IsInvalidInputError checks if the error is an invalid input error
func IsInvalidInputError(err error) bool {
	return isType(err, ErrorTypeInvalidInput)
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsCollaboratorFailureError checks if the error is a collaborator failure error
func IsCollaboratorFailureError(err error) bool {
	return isType(err, ErrorTypeCollaboratorFailure)
}

// UserMessage returns the actor-facing message for an error. Classified errors
// surface their message; anything else collapses to a generic retry hint so
// internal detail never leaks to the actor.
func UserMessage(err error) string {
	if appErr := GetAppError(err); appErr != nil && appErr.Type != ErrorTypeInternal {
		return appErr.Message
	}
	return "Something went wrong, please try again later."
}
