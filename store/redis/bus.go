package redis

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/log"
	"github.com/johnny-morrice/pathtransport/store"
)

// Bus publishes changes as JSON on a Redis channel.
type Bus struct {
	client  *redis.Client
	channel string
}

func (bus *Bus) Publish(change store.Change) error {
	const failMsg = "redis.Bus.Publish failed"

	message, err := json.Marshal(change)

	if err != nil {
		return errors.Wrap(err, failMsg)
	}

	err = bus.client.Publish(context.Background(), bus.channel, message).Err()

	if err != nil {
		return errors.Wrap(err, failMsg)
	}

	return nil
}

// Subscribe returns once Redis has confirmed the subscription.
func (bus *Bus) Subscribe(handler func(store.Change)) (api.Subscription, error) {
	const failMsg = "redis.Bus.Subscribe failed"

	ctx := context.Background()
	pubsub := bus.client.Subscribe(ctx, bus.channel)

	_, err := pubsub.Receive(ctx)

	if err != nil {
		pubsub.Close()
		return nil, errors.Wrap(err, failMsg)
	}

	messages := pubsub.Channel()
	stopch := make(chan struct{})
	wg := &sync.WaitGroup{}
	wg.Add(1)

	go func() {
		defer wg.Done()
		for {
			select {
			case <-stopch:
				return
			case message, ok := <-messages:
				if !ok {
					return
				}

				change := store.Change{}
				err := json.Unmarshal([]byte(message.Payload), &change)

				if err != nil {
					log.Error("Bad change on '%s': %v", bus.channel, err)
					continue
				}

				handler(change)
			}
		}
	}()

	closer := api.MakeCloser(stopch, wg)

	return api.SubscriptionFunc(func() error {
		closer.Close()
		return pubsub.Close()
	}), nil
}

func (bus *Bus) Close() error {
	return nil
}
