// Package store implements api.Store over any transactional leaf storage and
// change bus. Backends live in the sub packages and register a Dialer for
// their URL scheme.
package store

import (
	"context"
	"sync"

	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/internal/tree"
)

// Backend stores tree leaves. Update runs fn in a transaction that is
// committed only when fn returns nil. Update may run fn more than once.
type Backend interface {
	View(ctx context.Context, fn func(Tx) error) error
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}

// Tx reads and writes leaves inside a Backend transaction.
type Tx interface {
	Get(key string) ([]byte, bool, error)
	// Scan returns the leaves at or below prefix. The empty prefix is the root.
	Scan(prefix string) (tree.Leaves, error)
	// Any reports whether any leaf is at or below prefix.
	Any(prefix string) (bool, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

// Change describes one committed write. Old and New are the values at Path
// before and after. Existed counts the leading segments of Path that existed
// before the write.
type Change struct {
	Path    string      `json:"path"`
	Old     interface{} `json:"old"`
	New     interface{} `json:"new"`
	Existed int         `json:"existed"`
}

// Bus carries changes to every connection on the same storage.
type Bus interface {
	Publish(change Change) error
	Subscribe(handler func(Change)) (api.Subscription, error)
	Close() error
}

// SharedBackend is implemented by backends shared by several connections in
// one process. The returned lock serialises commits across them.
type SharedBackend interface {
	Backend
	Writes() sync.Locker
}

// ReadOnlyTx rejects writes.
type ReadOnlyTx struct {
	Tx
}

func (tx ReadOnlyTx) Put(key string, value []byte) error {
	return ErrReadOnly
}

func (tx ReadOnlyTx) Delete(key string) error {
	return ErrReadOnly
}
