package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound maps an upstream 404 (unknown player, clan or war tag).
	ErrNotFound = errors.New("not found")

	// ErrPrivate maps an upstream 403: the clan's war log or current war is
	// hidden by its settings.
	ErrPrivate = errors.New("access denied")

	// ErrNotInClan is a local precondition failure: the requested player
	// exists but carries no clan.
	ErrNotInClan = errors.New("player is not in a clan")
)

// UpstreamError carries any other non-2xx answer from the Clash of Clans API.
// It must always surface to the caller, never be swallowed.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream api error: %s (%d)", e.Message, e.StatusCode)
}
