package contracts

import "errors"

var (
	// ErrNotFound indicates no contract exists for the document.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition indicates the workflow guard rejected a status change.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrStatusConflict indicates the status changed between read and write.
	ErrStatusConflict = errors.New("status changed concurrently")

	// ErrAlreadyExists indicates the document already has a contract.
	ErrAlreadyExists = errors.New("contract already exists")
)
