package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrNotFound
	ErrInvalid
	ErrEmptyContent
	ErrEmptyResult
	ErrTooMany
	ErrInternal
	ErrMediaFailed
	ErrTranscribeFailed
	ErrAIUnavailable
)
