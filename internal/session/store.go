// Package session persists booking wizard state per browser session.
package session

import (
	"context"
	"errors"

	"github.com/wolfman30/eyeclinic-web/internal/booking"
)

var (
	// ErrNotFound is returned when a session has no stored value.
	ErrNotFound = errors.New("session: not found")

	// ErrConflict is returned by SaveState when another request saved a newer
	// revision first.
	ErrConflict = errors.New("session: state was modified concurrently")
)

// Store keeps one wizard state and the last booking confirmation per session.
//
// SaveState is optimistic: it succeeds only if the stored revision equals
// state.Revision (zero meaning "nothing stored yet"), and on success
// increments state.Revision in place.
type Store interface {
	LoadState(ctx context.Context, id string) (*booking.State, error)
	SaveState(ctx context.Context, id string, state *booking.State) error
	PutConfirmation(ctx context.Context, id string, conf *booking.Confirmation) error
	GetConfirmation(ctx context.Context, id string) (*booking.Confirmation, error)
}
