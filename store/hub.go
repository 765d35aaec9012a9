package store

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/internal/path"
	"github.com/johnny-morrice/pathtransport/internal/queue"
	"github.com/johnny-morrice/pathtransport/internal/tree"
	"github.com/johnny-morrice/pathtransport/log"
)

type reader func(ctx context.Context, node string) (interface{}, error)

// hub turns changes into child events for the listeners of one connection.
type hub struct {
	sync.Mutex
	read      reader
	listeners map[string]*listener
	closed    bool
}

func makeHub(read reader) *hub {
	return &hub{
		read:      read,
		listeners: map[string]*listener{},
	}
}

func (h *hub) register(ctx context.Context, node string, event api.EventType, fn api.Listener) (api.Subscription, error) {
	const failMsg = "hub.register failed"

	l := &listener{
		id:         uuid.New().String(),
		segments:   path.Split(node),
		event:      event,
		fn:         fn,
		deliveries: queue.Launch(),
	}

	h.Lock()
	defer h.Unlock()

	if h.closed {
		l.deliveries.Abandon()
		return nil, errors.Wrap(ErrClosed, failMsg)
	}

	if event == api.CHILD_ADDED {
		value, err := h.read(ctx, node)

		if err != nil {
			l.deliveries.Abandon()
			return nil, errors.Wrap(err, failMsg)
		}

		l.known = map[string]bool{}
		mapping, _ := value.(map[string]interface{})

		for _, key := range tree.Children(value) {
			l.notify(api.CHILD_ADDED, key, mapping[key])
		}
	}

	h.listeners[l.id] = l

	log.Debug("Registered %v listener %s at '%s'", event, l.id, node)

	return api.SubscriptionFunc(func() error {
		h.unregister(l.id)
		return nil
	}), nil
}

func (h *hub) unregister(id string) {
	h.Lock()
	defer h.Unlock()

	l, present := h.listeners[id]

	if !present {
		return
	}

	delete(h.listeners, id)
	l.stop()

	log.Debug("Unregistered listener %s", id)
}

func (h *hub) closeAll() {
	h.Lock()
	defer h.Unlock()

	for id, l := range h.listeners {
		l.stop()
		delete(h.listeners, id)
	}

	h.closed = true
}

func (h *hub) dispatch(change Change) {
	h.Lock()
	defer h.Unlock()

	written := path.Split(change.Path)
	children := map[string]interface{}{}

	for _, l := range h.listeners {
		switch {
		case path.HasPrefix(l.segments, written):
			rel := l.segments[len(written):]
			before := tree.Descend(change.Old, rel)
			after := tree.Descend(change.New, rel)

			for _, diff := range tree.Diff(before, after) {
				switch {
				case diff.Added:
					l.notify(api.CHILD_ADDED, diff.Key, diff.New)
				case diff.Changed:
					l.notify(api.CHILD_CHANGED, diff.Key, diff.New)
				case diff.Removed:
					l.notify(api.CHILD_REMOVED, diff.Key, diff.Old)
				}
			}
		case path.HasPrefix(written, l.segments):
			if reflect.DeepEqual(change.Old, change.New) {
				continue
			}

			childSegments := written[:len(l.segments)+1]
			child := path.Join(childSegments)
			key := childSegments[len(childSegments)-1]

			value, cached := children[child]

			if !cached {
				var err error
				value, err = h.read(context.Background(), child)

				if err != nil {
					log.Error("Failed to read '%s' for listener %s: %v", child, l.id, err)
					continue
				}

				children[child] = value
			}

			existedBefore := change.Existed >= len(childSegments)
			existsNow := value != nil

			switch {
			case existedBefore && existsNow:
				l.notify(api.CHILD_CHANGED, key, value)
			case existsNow:
				l.notify(api.CHILD_ADDED, key, value)
			case existedBefore:
				// Everything under the child was at the written path.
				last := nest(change.Old, written[len(childSegments):])
				l.notify(api.CHILD_REMOVED, key, last)
			}
		}
	}
}

// nest wraps value in maps keyed by rel.
func nest(value interface{}, rel []string) interface{} {
	for i := len(rel) - 1; i >= 0; i-- {
		value = map[string]interface{}{rel[i]: value}
	}

	return value
}

type listener struct {
	id         string
	segments   []string
	event      api.EventType
	fn         api.Listener
	deliveries *queue.Queue
	stopped    int32
	// Children already reported to a CHILD_ADDED listener. Changes may reach
	// the hub after the replay has read them.
	known map[string]bool
}

func (l *listener) notify(event api.EventType, key string, value interface{}) {
	if l.known != nil {
		switch event {
		case api.CHILD_ADDED:
			if l.known[key] {
				return
			}
			l.known[key] = true
		case api.CHILD_REMOVED:
			delete(l.known, key)
		}
	}

	if event != l.event {
		return
	}

	snapshot := api.Snapshot{
		Path:  path.Join(path.Append(l.segments, key)),
		Value: value,
	}

	err := l.deliveries.Enqueue(func() {
		if atomic.LoadInt32(&l.stopped) == 0 {
			l.fn(snapshot)
		}
	})

	if err != nil {
		log.Debug("Dropped %v for stopped listener %s", event, l.id)
	}
}

func (l *listener) stop() {
	atomic.StoreInt32(&l.stopped, 1)
	l.deliveries.Abandon()
}
