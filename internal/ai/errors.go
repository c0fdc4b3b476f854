package ai

import appErr "github.com/vidrag/vidrag/internal/pkg/errors"

// ErrUnavailable is returned when a provider is not configured or cannot
// be reached. It aliases the app-wide sentinel so callers branch once.
var ErrUnavailable = appErr.ErrUnavailable
