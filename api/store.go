package api

//go:generate mockgen -package mock_pathtransport -destination ../mock/mock_api.go github.com/johnny-morrice/pathtransport/api Store,Ref,Subscription,Transport

import (
	"context"

	"github.com/johnny-morrice/pathtransport/internal/path"
)

// Store is a connection to a hierarchical key-value store with subscribable
// child-change notifications.
type Store interface {
	Child(path string) Ref
	Close() error
}

// Ref points at one node of the store.
type Ref interface {
	Path() string
	Key() string
	// On delivers child events for the node until the Subscription is closed.
	// CHILD_ADDED first replays the existing children in key order.
	On(event EventType, listener Listener) (Subscription, error)
	// Get reads the node once.
	Get(ctx context.Context) (Snapshot, error)
	// Set replaces the node. A nil or empty value removes it.
	Set(ctx context.Context, value interface{}) error
	Remove(ctx context.Context) error
}

type Subscription interface {
	Close() error
}

type SubscriptionFunc func() error

func (f SubscriptionFunc) Close() error {
	return f()
}

type Listener func(Snapshot)

type EventType uint8

const (
	CHILD_ADDED = EventType(iota + 1)
	CHILD_CHANGED
	CHILD_REMOVED
)

func (event EventType) String() string {
	switch event {
	case CHILD_ADDED:
		return "child_added"
	case CHILD_CHANGED:
		return "child_changed"
	case CHILD_REMOVED:
		return "child_removed"
	default:
		return "unknown_event"
	}
}

// Snapshot is the value of a node at Path when the event fired. For
// CHILD_REMOVED it holds the last value.
type Snapshot struct {
	Path  string
	Value interface{}
}

func (snapshot Snapshot) Key() string {
	return path.Key(snapshot.Path)
}

func (snapshot Snapshot) Exists() bool {
	return snapshot.Value != nil
}
