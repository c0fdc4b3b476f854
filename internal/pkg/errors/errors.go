package errors

import "errors"

var (
	// ErrInvalid covers malformed caller input: bad URL shape, empty
	// questions, store validation failures.
	ErrInvalid = errors.New("invalid")
	// ErrEmptyContent is returned when a transcript is empty or chunking
	// leaves nothing worth indexing.
	ErrEmptyContent = errors.New("empty content")
	// ErrNotFound is returned for a missing collection or library entry.
	ErrNotFound = errors.New("not found")
	// ErrEmptyResult is returned when retrieval produced zero hits. It is
	// not fatal; callers substitute a canned answer.
	ErrEmptyResult = errors.New("empty result")
	// ErrUnavailable is returned when an upstream collaborator (embedding
	// provider, generator, transcriber) is not configured or unreachable.
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrInternal is the fallback for everything else.
	ErrInternal = errors.New("internal")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsEmptyResult(err error) bool {
	return errors.Is(err, ErrEmptyResult)
}

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
