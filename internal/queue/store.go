package queue

import (
	"context"
)

// Store is the queue collection abstraction. Listings come back in
// insertion order, which is the final tie-break when positions are
// recomputed.
type Store interface {
	GetItemByID(ctx context.Context, id string) (*Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	InsertItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error

	// ReplaceAll swaps the whole collection, used by Refresh to reconcile
	// against the backing source.
	ReplaceAll(ctx context.Context, items []Item) error
}

// Source supplies the queue collection from an external collaborator. The
// core prescribes only the resulting shape, not the transport.
type Source interface {
	FetchQueue(ctx context.Context) ([]Item, error)
}
