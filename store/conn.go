package store

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/internal/path"
	"github.com/johnny-morrice/pathtransport/internal/tree"
	"github.com/johnny-morrice/pathtransport/log"
)

// Conn is an api.Store over a Backend and a Bus. Each committed write is
// published on the bus and every Conn subscribed to the bus turns it into
// child events for its listeners.
type Conn struct {
	backend Backend
	bus     Bus
	hub     *hub
	busSub  api.Subscription
	writes  sync.Locker

	closeLock sync.RWMutex
	closed    bool
}

func Connect(backend Backend, bus Bus) (*Conn, error) {
	const failMsg = "store.Connect failed"

	conn := &Conn{
		backend: backend,
		bus:     bus,
		writes:  &sync.Mutex{},
	}

	if shared, ok := backend.(SharedBackend); ok {
		conn.writes = shared.Writes()
	}

	conn.hub = makeHub(conn.read)

	sub, err := bus.Subscribe(conn.hub.dispatch)

	if err != nil {
		return nil, errors.Wrap(err, failMsg)
	}

	conn.busSub = sub

	return conn, nil
}

func (conn *Conn) Child(childPath string) api.Ref {
	return &ref{conn: conn, path: path.Clean(childPath)}
}

func (conn *Conn) Close() error {
	const failMsg = "Conn.Close failed"

	conn.closeLock.Lock()
	defer conn.closeLock.Unlock()

	if conn.closed {
		return nil
	}

	conn.closed = true

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	keep(conn.busSub.Close())
	conn.hub.closeAll()
	keep(conn.bus.Close())
	keep(conn.backend.Close())

	if firstErr != nil {
		return errors.Wrap(firstErr, failMsg)
	}

	log.Info("Closed store connection")
	return nil
}

func (conn *Conn) isClosed() bool {
	conn.closeLock.RLock()
	defer conn.closeLock.RUnlock()
	return conn.closed
}

func (conn *Conn) read(ctx context.Context, node string) (interface{}, error) {
	const failMsg = "Conn.read failed"

	var value interface{}
	err := conn.backend.View(ctx, func(tx Tx) error {
		leaves, err := tx.Scan(node)

		if err != nil {
			return err
		}

		value, err = tree.Unflatten(node, leaves)
		return err
	})

	if err != nil {
		return nil, errors.Wrap(err, failMsg)
	}

	return value, nil
}

func (conn *Conn) write(ctx context.Context, node string, value interface{}) error {
	const failMsg = "Conn.write failed"

	if conn.isClosed() {
		return errors.Wrap(ErrClosed, failMsg)
	}

	leaves, err := tree.Flatten(node, value)

	if err != nil {
		return errors.Wrap(err, failMsg)
	}

	next, err := tree.Unflatten(node, leaves)

	if err != nil {
		return errors.Wrap(err, failMsg)
	}

	conn.writes.Lock()
	defer conn.writes.Unlock()

	var change Change
	err = conn.backend.Update(ctx, func(tx Tx) error {
		var err error
		change, err = applyWrite(tx, node, leaves)
		return err
	})

	if err != nil {
		return errors.Wrap(err, failMsg)
	}

	change.New = next

	log.Debug("Wrote %d leaves at '%s'", len(leaves), node)

	err = conn.bus.Publish(change)

	if err != nil {
		return errors.Wrap(err, failMsg)
	}

	return nil
}

// applyWrite replaces everything at or below node with leaves. A scalar
// stored at an ancestor of node is removed when the write adds data beneath
// it. All reads happen before the first write.
func applyWrite(tx Tx, node string, leaves tree.Leaves) (Change, error) {
	segments := path.Split(node)

	old, err := tx.Scan(node)

	if err != nil {
		return Change{}, err
	}

	oldValue, err := tree.Unflatten(node, old)

	if err != nil {
		return Change{}, err
	}

	existed := 0
	if len(old) > 0 {
		existed = len(segments)
	} else {
		for depth := len(segments) - 1; depth > 0; depth-- {
			present, err := tx.Any(path.Join(segments[:depth]))

			if err != nil {
				return Change{}, err
			}

			if present {
				existed = depth
				break
			}
		}
	}

	doomed := old.Keys()

	if len(leaves) > 0 {
		for depth := 1; depth < len(segments); depth++ {
			ancestor := path.Join(segments[:depth])
			_, isLeaf, err := tx.Get(ancestor)

			if err != nil {
				return Change{}, err
			}

			if isLeaf {
				doomed = append(doomed, ancestor)
			}
		}
	}

	for _, key := range doomed {
		err = tx.Delete(key)

		if err != nil {
			return Change{}, err
		}
	}

	for _, key := range leaves.Keys() {
		err = tx.Put(key, leaves[key])

		if err != nil {
			return Change{}, err
		}
	}

	change := Change{
		Path:    node,
		Old:     oldValue,
		Existed: existed,
	}

	return change, nil
}

type ref struct {
	conn *Conn
	path string
}

func (r *ref) Path() string {
	return r.path
}

func (r *ref) Key() string {
	return path.Key(r.path)
}

func (r *ref) On(event api.EventType, listener api.Listener) (api.Subscription, error) {
	const failMsg = "ref.On failed"

	if listener == nil {
		return nil, errors.Wrap(api.ErrInvalidArgument, "nil listener")
	}

	switch event {
	case api.CHILD_ADDED, api.CHILD_CHANGED, api.CHILD_REMOVED:
	default:
		return nil, errors.Wrapf(api.ErrInvalidArgument, "event %v", event)
	}

	if r.conn.isClosed() {
		return nil, errors.Wrap(ErrClosed, failMsg)
	}

	sub, err := r.conn.hub.register(context.Background(), r.path, event, listener)

	if err != nil {
		return nil, errors.Wrap(err, failMsg)
	}

	return sub, nil
}

func (r *ref) Get(ctx context.Context) (api.Snapshot, error) {
	const failMsg = "ref.Get failed"

	if r.conn.isClosed() {
		return api.Snapshot{}, errors.Wrap(ErrClosed, failMsg)
	}

	value, err := r.conn.read(ctx, r.path)

	if err != nil {
		return api.Snapshot{}, errors.Wrap(err, failMsg)
	}

	return api.Snapshot{Path: r.path, Value: value}, nil
}

func (r *ref) Set(ctx context.Context, value interface{}) error {
	return r.conn.write(ctx, r.path, value)
}

func (r *ref) Remove(ctx context.Context) error {
	return r.conn.write(ctx, r.path, nil)
}
