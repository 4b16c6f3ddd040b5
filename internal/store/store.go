// Package store defines the persistence contract shared by the realtime
// and the request/response backends.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/idilsaglam/todo/internal/model"
)

var (
	// ErrEmptyTitle is returned by Add before any remote call is made.
	ErrEmptyTitle = errors.New("empty title")
	// ErrNoChange is returned by Update when the patch would not change
	// anything worth sending (no fields, or a blank title). Callers treat
	// it as a cancel.
	ErrNoChange = errors.New("nothing to update")
	// ErrNotFound is returned when the target item does not exist.
	ErrNotFound = errors.New("item not found")
)

// Mutator changes items in the remote store.
type Mutator interface {
	Add(ctx context.Context, title string) (model.Item, error)
	Update(ctx context.Context, id string, p model.Patch) (model.Item, error)
	Remove(ctx context.Context, id string) error
}

// Fetcher loads the full list on request (pull variant).
type Fetcher interface {
	FetchAll(ctx context.Context) ([]model.Item, error)
}

// Snapshot is one pushed state of the whole list. A snapshot with a
// non-nil Err carries no items and ends the subscription.
type Snapshot struct {
	Items []model.Item
	Err   error
}

// Unsubscribe stops a subscription. Calling it more than once is fine.
type Unsubscribe func()

// Subscriber pushes a full snapshot every time the underlying data
// changes (push variant). fn is called from a goroutine owned by the
// subscriber.
type Subscriber interface {
	Subscribe(ctx context.Context, fn func(Snapshot)) (Unsubscribe, error)
}

// Store is what the one-shot commands need: mutations plus a list.
type Store interface {
	Mutator
	Fetcher
}

// PrepareTitle validates a new title and returns it trimmed.
func PrepareTitle(title string) (string, error) {
	t, ok := model.NormalizeTitle(title)
	if !ok {
		return "", ErrEmptyTitle
	}
	return t, nil
}

// PreparePatch trims the title of p, dropping a blank one, and rejects
// patches that are left with nothing to send.
func PreparePatch(p model.Patch) (model.Patch, error) {
	if p.Title != nil {
		if t, ok := model.NormalizeTitle(*p.Title); ok {
			p.Title = &t
		} else {
			p.Title = nil
		}
	}
	if p.Empty() {
		return model.Patch{}, ErrNoChange
	}
	return p, nil
}

// OnceUnsubscribe wraps stop so that only the first call runs it.
func OnceUnsubscribe(stop func()) Unsubscribe {
	var once sync.Once
	return func() { once.Do(stop) }
}
