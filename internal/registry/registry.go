// Package registry provides the in-memory user registry: a concurrency-safe
// mapping from server-assigned identifiers to user records.
package registry

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/patric-chuzhbe/greeter/internal/models"
)

// ErrIDSpaceExhausted is returned by Insert when the largest stored identifier
// is already the maximum representable one.
var ErrIDSpaceExhausted = errors.New("no identifiers left to allocate")

// Registry stores user records keyed by identifier.
//
// Every operation holds the same mutex for its whole duration; there is no
// reader/writer distinction, so concurrent Get calls serialize too.
type Registry struct {
	mu      sync.Mutex
	entries map[models.UserID]models.User
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		entries: map[models.UserID]models.User{},
	}
}

// Get returns a copy of the record stored under id.
// A missing id is reported through found, not through the error.
func (theRegistry *Registry) Get(
	ctx context.Context,
	id models.UserID,
) (usr models.User, found bool, err error) {
	theRegistry.mu.Lock()
	defer theRegistry.mu.Unlock()

	usr, found = theRegistry.entries[id]

	return usr, found, nil
}

// Insert stores usr under a newly allocated identifier and returns it.
//
// The identifier is the largest key currently stored plus one, or 1 for an
// empty registry. It is recomputed from the map on every call; there is no
// separate counter.
func (theRegistry *Registry) Insert(ctx context.Context, usr models.User) (models.UserID, error) {
	theRegistry.mu.Lock()
	defer theRegistry.mu.Unlock()

	maxID := theRegistry.maxID()
	if maxID == math.MaxUint32 {
		return 0, ErrIDSpaceExhausted
	}

	newID := maxID + 1
	theRegistry.entries[newID] = usr

	return newID, nil
}

// Len returns the number of stored records.
func (theRegistry *Registry) Len(ctx context.Context) (int, error) {
	theRegistry.mu.Lock()
	defer theRegistry.mu.Unlock()

	return len(theRegistry.entries), nil
}

// maxID must be called with mu held.
func (theRegistry *Registry) maxID() models.UserID {
	var result models.UserID
	for id := range theRegistry.entries {
		if id > result {
			result = id
		}
	}

	return result
}
