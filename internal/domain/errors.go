package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is the root of every missing session/domain/persona condition.
var ErrNotFound = errors.New("not found")

var (
	ErrSessionNotFound       = fmt.Errorf("session %w", ErrNotFound)
	ErrDomainNotFound        = fmt.Errorf("domain %w", ErrNotFound)
	ErrDomainPersonaNotFound = fmt.Errorf("domain or persona %w", ErrNotFound)

	// ErrUpstreamUnavailable means the inference endpoint could not be reached
	// or answered with a non-2xx status.
	ErrUpstreamUnavailable = errors.New("inference endpoint unavailable")
	// ErrBadUpstream means the inference endpoint answered without usable text.
	ErrBadUpstream = errors.New("no response from inference endpoint")
)
