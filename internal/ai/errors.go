package ai

import "errors"

// ErrUnavailable marks a provider that is not configured or cannot be
// reached at all, as opposed to a failed individual call.
var ErrUnavailable = errors.New("ai service unavailable")
