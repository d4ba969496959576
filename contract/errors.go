package contract

import "errors"

// Failure kinds shared by all registries. Operations wrap these with
// contextual detail via fmt.Errorf and %w; callers discriminate with
// errors.Is.
var (
	// ErrUnauthorized is returned when the caller is not the registry admin
	// for an admin-gated operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when a referenced id or composite key is
	// absent from its owning registry.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned on duplicate-id creation.
	ErrAlreadyExists = errors.New("already exists")

	// ErrAlreadyAssigned is returned when a requirement is assigned twice to
	// the same institution.
	ErrAlreadyAssigned = errors.New("already assigned")

	// ErrAlreadyVerified is returned when verifying an institution that is
	// already verified.
	ErrAlreadyVerified = errors.New("already verified")

	// ErrNotVerified is returned when an operation requires a verified
	// institution and the institution is not verified.
	ErrNotVerified = errors.New("institution not verified")

	// ErrInvalidTransition is returned when a status change is not valid
	// from the record's current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidArgument is returned for malformed input: wrong hash length,
	// non-positive deadline, empty submission list, mismatched foreign keys.
	ErrInvalidArgument = errors.New("invalid argument")
)
