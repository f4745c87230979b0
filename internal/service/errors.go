// Package service implements the storefront workflows: authentication,
// order placement and the admin back-office.  Workflows take the acting
// user from the trusted session and return the sentinel errors below;
// handlers translate them into HTTP responses.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means no session user was supplied.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrUnauthorized means the actor lacks the admin role.
	ErrUnauthorized = errors.New("unauthorized: admin access required")
	// ErrInvalidCredentials is the single answer to any login mismatch.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInsufficientStock means the product cannot cover the quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrNotFound means the addressed order, product or user is missing.
	ErrNotFound = errors.New("not found")
	// ErrValidation prefixes every input validation failure.
	ErrValidation = errors.New("invalid input")
	// ErrConflict means the change clashes with stored state.
	ErrConflict = errors.New("conflict")
	// ErrPersistence hides the underlying store failure from callers.
	ErrPersistence = errors.New("storage error")
	// ErrOrderPersistence means the order row could not be stored.
	ErrOrderPersistence = fmt.Errorf("order could not be saved: %w", ErrPersistence)
	// ErrForbiddenSelfDemotion stops an admin removing their own admin role.
	ErrForbiddenSelfDemotion = errors.New("you cannot remove your own admin status")
	// ErrForbiddenSelfDeletion stops an admin deleting their own account.
	ErrForbiddenSelfDeletion = errors.New("you cannot delete your own account")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
