// Package redis keeps the store in a Redis hash of leaves with a sorted set
// index for prefix scans. Changes are published on a Redis channel so every
// connection sharing the namespace sees them.
package redis

import (
	"context"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/log"
	"github.com/johnny-morrice/pathtransport/store"
)

const Scheme = "redis"
const TLSScheme = "rediss"

const DefaultNamespace = "pathtransport"

const pingTimeout = 5 * time.Second
const maxAttempts = 16

func init() {
	store.RegisterDialer(Scheme, Dial)
	store.RegisterDialer(TLSScheme, Dial)
}

type RedisOptions struct {
	Client    *redis.Options
	Namespace string
}

func (options RedisOptions) leavesKey() string {
	return options.Namespace + ":leaves"
}

func (options RedisOptions) indexKey() string {
	return options.Namespace + ":index"
}

func (options RedisOptions) channel() string {
	return options.Namespace + ":changes"
}

// Dial connects to "redis://[user:password@]host:port/db?namespace=things".
func Dial(host *url.URL) (api.Store, error) {
	const failMsg = "redis.Dial failed"

	stripped := *host
	query := stripped.Query()
	namespace := query.Get("namespace")
	query.Del("namespace")
	stripped.RawQuery = query.Encode()

	clientOptions, err := redis.ParseURL(stripped.String())

	if err != nil {
		return nil, errors.Wrap(err, failMsg)
	}

	options := RedisOptions{
		Client:    clientOptions,
		Namespace: namespace,
	}

	return Open(options)
}

func Open(options RedisOptions) (*store.Conn, error) {
	const failMsg = "redis.Open failed"

	if options.Client == nil {
		return nil, errors.Wrap(api.ErrConfiguration, "missing redis client options")
	}

	if options.Namespace == "" {
		options.Namespace = DefaultNamespace
	}

	client := redis.NewClient(options.Client)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	err := client.Ping(ctx).Err()

	if err != nil {
		client.Close()
		return nil, errors.Wrap(err, failMsg)
	}

	log.Info("Connected to redis at '%s' with namespace '%s'", options.Client.Addr, options.Namespace)

	backend := &Backend{client: client, options: options}
	bus := &Bus{client: client, channel: options.channel()}

	conn, err := store.Connect(backend, bus)

	if err != nil {
		client.Close()
		return nil, errors.Wrap(err, failMsg)
	}

	return conn, nil
}

type Backend struct {
	client  *redis.Client
	options RedisOptions
}

func (backend *Backend) View(ctx context.Context, fn func(store.Tx) error) error {
	return fn(store.ReadOnlyTx{Tx: backend.txn(ctx, backend.client)})
}

// Update watches the namespace, runs fn over buffered writes and commits them
// in one MULTI. It retries when another client wrote in between.
func (backend *Backend) Update(ctx context.Context, fn func(store.Tx) error) error {
	const failMsg = "redis.Backend.Update failed"

	leavesKey := backend.options.leavesKey()
	indexKey := backend.options.indexKey()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := backend.client.Watch(ctx, func(rtx *redis.Tx) error {
			overlay := store.MakeOverlay(backend.txn(ctx, rtx))

			err := fn(overlay)

			if err != nil {
				return err
			}

			if len(overlay.Pending) == 0 && len(overlay.Deleted) == 0 {
				return nil
			}

			_, err = rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if len(overlay.Deleted) > 0 {
					fields := make([]string, 0, len(overlay.Deleted))
					members := make([]interface{}, 0, len(overlay.Deleted))

					for key := range overlay.Deleted {
						fields = append(fields, key)
						members = append(members, key)
					}

					pipe.HDel(ctx, leavesKey, fields...)
					pipe.ZRem(ctx, indexKey, members...)
				}

				for key, value := range overlay.Pending {
					pipe.HSet(ctx, leavesKey, key, value)
					pipe.ZAdd(ctx, indexKey, redis.Z{Member: key})
				}

				return nil
			})

			return err
		}, leavesKey, indexKey)

		if err == redis.TxFailedErr {
			log.Debug("Redis transaction conflict, attempt %d", attempt+1)
			continue
		}

		if err != nil {
			return errors.Wrap(err, failMsg)
		}

		return nil
	}

	return errors.Wrap(store.ErrConflict, failMsg)
}

func (backend *Backend) Close() error {
	return backend.client.Close()
}

func (backend *Backend) txn(ctx context.Context, cmd reader) txn {
	return txn{
		ctx:       ctx,
		cmd:       cmd,
		leavesKey: backend.options.leavesKey(),
		indexKey:  backend.options.indexKey(),
	}
}
