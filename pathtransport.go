// Pathtransport moves (id, band, value) records over a hierarchical realtime
// store.
//
// Every record lives at prefix/id/band in the store. Ids, bands and the top
// level keys of values are percent-encoded so they are valid path segments.
//
// This package is a facade over the store connection.
package pathtransport

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/internal/path"
	"github.com/johnny-morrice/pathtransport/internal/queue"
	"github.com/johnny-morrice/pathtransport/internal/tree"
	"github.com/johnny-morrice/pathtransport/log"
	"github.com/johnny-morrice/pathtransport/store"
)

// PathTransport is an api.Transport over an api.Store.  Store operations run
// one at a time in call order, so a Get issued after an Update reads it.
type PathTransport struct {
	Options
	prefixParts []string
	store       api.Store
	ownsStore   bool
	ops         *queue.Queue
	errch       chan error

	subsLock sync.Mutex
	subs     map[*subscription]struct{}
	closed   bool
}

var _ api.Transport = (*PathTransport)(nil)

// New connects a transport.  Empty options are read from the global viper
// configuration.
func New(options Options) (*PathTransport, error) {
	const failMsg = "pathtransport.New failed"

	options = options.merge(LoadDefaults(viper.GetViper()))

	transport := &PathTransport{
		Options:     options,
		prefixParts: path.Split(options.Prefix),
		subs:        map[*subscription]struct{}{},
		errch:       make(chan error, __ERROR_BUFFER_SIZE),
	}

	err := transport.connect()

	if err != nil {
		return nil, errors.Wrap(err, failMsg)
	}

	transport.ops = queue.Launch()

	log.Info("Transport ready at prefix '%s'", path.Join(transport.prefixParts))

	return transport, nil
}

func (transport *PathTransport) connect() error {
	if transport.Options.Store != nil {
		transport.store = transport.Options.Store
		return nil
	}

	if transport.Host == "" {
		return errors.Wrap(api.ErrConfiguration, "Missing required parameter 'Host'")
	}

	conn, err := store.Dial(transport.Host)

	if store.IsUnknownScheme(err) {
		return errors.Wrapf(api.ErrConfiguration, "%v", err)
	}

	if err != nil {
		return err
	}

	transport.store = conn
	transport.ownsStore = true
	return nil
}

// List reports the id of every thing under the prefix, existing ones first in
// key order, until the subscription is closed.
func (transport *PathTransport) List(handler func(api.ListItem)) (api.Subscription, error) {
	const failMsg = "PathTransport.List failed"

	if handler == nil {
		return nil, errors.Wrap(api.ErrInvalidArgument, "nil handler")
	}

	listener := func(snapshot api.Snapshot) {
		handler(api.ListItem{ID: path.MustDecode(snapshot.Key())})
	}

	sub, err := transport.subscribe(transport.channel("", ""), api.CHILD_ADDED, listener)

	if err != nil {
		return nil, errors.Wrap(err, failMsg)
	}

	return sub, nil
}

// Get reads one band.  The record arrives on the channel, which is then
// closed.  Missing data, or a store failure, gives an empty Value.
func (transport *PathTransport) Get(id, band string) (<-chan api.Record, error) {
	const failMsg = "PathTransport.Get failed"

	if id == "" || band == "" {
		return nil, errors.Wrapf(api.ErrInvalidArgument, "%s: id '%s' band '%s'", failMsg, id, band)
	}

	channel := transport.channel(id, band)
	result := make(chan api.Record, 1)

	err := transport.enqueue(func() {
		record := api.Record{ID: id, Band: band, Value: api.Value{}}
		snapshot, err := transport.store.Child(channel).Get(context.Background())

		if err == nil {
			record.Value = api.Value(path.PackIn(snapshot.Value))
		} else {
			transport.fail(errors.Wrap(err, failMsg))
		}

		result <- record
		close(result)
	})

	if err != nil {
		return nil, errors.Wrap(err, failMsg)
	}

	return result, nil
}

// Update replaces a band with the compacted value.
func (transport *PathTransport) Update(id, band string, value api.Value) error {
	const failMsg = "PathTransport.Update failed"

	if id == "" || band == "" {
		return errors.Wrapf(api.ErrInvalidArgument, "%s: id '%s' band '%s'", failMsg, id, band)
	}

	normal, err := tree.Normalize(path.PackOut(value))

	if err != nil {
		return errors.Wrap(err, failMsg)
	}

	channel := transport.channel(id, band)

	err = transport.enqueue(func() {
		err := transport.store.Child(channel).Set(context.Background(), normal)

		if err != nil {
			transport.fail(errors.Wrap(err, failMsg))
		}
	})

	if err != nil {
		return errors.Wrap(err, failMsg)
	}

	return nil
}

// Updated reports changes to existing data in scope.  An empty scope watches
// every thing, an id scope one thing and an id and band scope one band.
func (transport *PathTransport) Updated(scope api.Scope, handler func(api.Record)) (api.Subscription, error) {
	const failMsg = "PathTransport.Updated failed"

	if handler == nil {
		return nil, errors.Wrap(api.ErrInvalidArgument, "nil handler")
	}

	if scope.ID == "" && scope.Band != "" {
		return nil, errors.Wrapf(api.ErrInvalidArgument, "%s: band '%s' without id", failMsg, scope.Band)
	}

	listener := func(snapshot api.Snapshot) {
		transport.classify(snapshot, handler)
	}

	sub, err := transport.subscribe(transport.channel(scope.ID, scope.Band), api.CHILD_CHANGED, listener)

	if err != nil {
		return nil, errors.Wrap(err, failMsg)
	}

	return sub, nil
}

// Remove deletes a band, or the whole thing when band is empty.
func (transport *PathTransport) Remove(id, band string) error {
	const failMsg = "PathTransport.Remove failed"

	if id == "" {
		return errors.Wrapf(api.ErrInvalidArgument, "%s: empty id", failMsg)
	}

	channel := transport.channel(id, band)

	err := transport.enqueue(func() {
		err := transport.store.Child(channel).Remove(context.Background())

		if err != nil {
			transport.fail(errors.Wrap(err, failMsg))
		}
	})

	if err != nil {
		return errors.Wrap(err, failMsg)
	}

	return nil
}

// Errors provides a stream of store failures from operations that have already
// returned.  The channel is closed by Close.
func (transport *PathTransport) Errors() <-chan error {
	return transport.errch
}

// Close runs the pending operations, closes every subscription and the store
// connection, unless the store was supplied in Options.
func (transport *PathTransport) Close() error {
	const failMsg = "PathTransport.Close failed"

	transport.subsLock.Lock()

	if transport.closed {
		transport.subsLock.Unlock()
		return nil
	}

	transport.closed = true
	subs := make([]*subscription, 0, len(transport.subs))
	for sub := range transport.subs {
		subs = append(subs, sub)
	}

	transport.subsLock.Unlock()

	transport.ops.Close()

	for _, sub := range subs {
		err := sub.Close()

		if err != nil {
			log.Warn("Failed to close subscription: %v", err)
		}
	}

	close(transport.errch)

	if !transport.ownsStore {
		return nil
	}

	err := transport.store.Close()

	if err != nil {
		return errors.Wrap(err, failMsg)
	}

	log.Info("Transport closed")
	return nil
}

func (transport *PathTransport) enqueue(job queue.Job) error {
	err := transport.ops.Enqueue(job)

	if err == queue.ErrClosed {
		return api.ErrClosed
	}

	if err != nil {
		return err
	}

	log.Debug("%d store operations queued", transport.ops.Len())
	return nil
}

func (transport *PathTransport) subscribe(channel string, event api.EventType, listener api.Listener) (api.Subscription, error) {
	sub := &subscription{transport: transport}

	transport.subsLock.Lock()

	if transport.closed {
		transport.subsLock.Unlock()
		return nil, api.ErrClosed
	}

	transport.subs[sub] = struct{}{}
	transport.subsLock.Unlock()

	err := transport.enqueue(func() {
		inner, err := transport.store.Child(channel).On(event, listener)

		if err != nil {
			transport.fail(errors.Wrapf(err, "%v subscription at '%s' failed", event, channel))
			return
		}

		sub.attach(inner)
	})

	if err != nil {
		transport.untrack(sub)
		return nil, err
	}

	return sub, nil
}

func (transport *PathTransport) untrack(sub *subscription) {
	transport.subsLock.Lock()
	defer transport.subsLock.Unlock()
	delete(transport.subs, sub)
}

func (transport *PathTransport) fail(err error) {
	log.Error("%v", err)

	select {
	case transport.errch <- err:
	default:
		log.Warn("Error buffer full, dropped: %v", err)
	}
}

// subscription is returned before the store registration runs.
type subscription struct {
	sync.Mutex
	transport *PathTransport
	inner     api.Subscription
	closed    bool
}

func (sub *subscription) attach(inner api.Subscription) {
	sub.Lock()

	if sub.closed {
		sub.Unlock()
		inner.Close()
		return
	}

	sub.inner = inner
	sub.Unlock()
}

func (sub *subscription) Close() error {
	sub.Lock()

	if sub.closed {
		sub.Unlock()
		return nil
	}

	sub.closed = true
	inner := sub.inner
	sub.Unlock()

	sub.transport.untrack(sub)

	if inner == nil {
		return nil
	}

	return inner.Close()
}

const __ERROR_BUFFER_SIZE = 64
