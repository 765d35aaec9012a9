package resident

import (
	"sync"

	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/log"
	"github.com/johnny-morrice/pathtransport/store"
)

// Bus delivers each change to every subscriber before Publish returns.
type Bus struct {
	sync.RWMutex
	handlers map[int]func(store.Change)
	next     int
}

func MakeBus() *Bus {
	return &Bus{handlers: map[int]func(store.Change){}}
}

func (bus *Bus) Publish(change store.Change) error {
	log.Debug("Publishing change at '%s' on resident bus", change.Path)

	bus.RLock()
	handlers := make([]func(store.Change), 0, len(bus.handlers))
	for _, handler := range bus.handlers {
		handlers = append(handlers, handler)
	}
	bus.RUnlock()

	for _, handler := range handlers {
		handler(change)
	}

	return nil
}

func (bus *Bus) Subscribe(handler func(store.Change)) (api.Subscription, error) {
	bus.Lock()
	defer bus.Unlock()

	id := bus.next
	bus.next++
	bus.handlers[id] = handler

	return api.SubscriptionFunc(func() error {
		bus.Lock()
		defer bus.Unlock()
		delete(bus.handlers, id)
		return nil
	}), nil
}

func (bus *Bus) Close() error {
	return nil
}
