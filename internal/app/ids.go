package app

import "github.com/google/uuid"

// newSessionID returns a random UUIDv4 used as the public game id.
func newSessionID() string { return uuid.NewString() }
