package canopy

import "errors"

// ErrNoMessages is returned by Chat when the conversation has no user
// message to answer.
var ErrNoMessages = errors.New("conversation contains no user message")
