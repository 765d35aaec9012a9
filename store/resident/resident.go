// Package resident keeps the store in process memory. Connections dialed with
// the same name share one database.
package resident

import (
	"context"
	"net/url"
	"sync"

	"github.com/pkg/errors"

	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/internal/tree"
	"github.com/johnny-morrice/pathtransport/log"
	"github.com/johnny-morrice/pathtransport/store"
)

const Scheme = "mem"

func init() {
	store.RegisterDialer(Scheme, Dial)
}

var databases = struct {
	sync.Mutex
	byName map[string]*Database
}{
	byName: map[string]*Database{},
}

// Database is a resident backend with its bus.
type Database struct {
	Backend *Backend
	Bus     *Bus
}

func MakeDatabase() *Database {
	return &Database{
		Backend: MakeBackend(),
		Bus:     MakeBus(),
	}
}

func (db *Database) Connect() (*store.Conn, error) {
	return store.Connect(db.Backend, db.Bus)
}

// Dial connects to the database named by the host, as in "mem://things".
// An empty name gives a private database.
func Dial(host *url.URL) (api.Store, error) {
	const failMsg = "resident.Dial failed"

	name := host.Host + host.Path

	if name == "" {
		return Open()
	}

	databases.Lock()
	db, present := databases.byName[name]
	if !present {
		log.Info("Creating resident database '%s'", name)
		db = MakeDatabase()
		databases.byName[name] = db
	}
	databases.Unlock()

	conn, err := db.Connect()

	if err != nil {
		return nil, errors.Wrap(err, failMsg)
	}

	return conn, nil
}

// Open connects to a new private database.
func Open() (*store.Conn, error) {
	return MakeDatabase().Connect()
}

type Backend struct {
	sync.RWMutex
	leaves tree.Leaves
	writes sync.Mutex
}

func MakeBackend() *Backend {
	return &Backend{leaves: tree.Leaves{}}
}

func (backend *Backend) Writes() sync.Locker {
	return &backend.writes
}

func (backend *Backend) View(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	backend.RLock()
	defer backend.RUnlock()

	return fn(txn{leaves: backend.leaves})
}

// Update commits the writes of fn only when it succeeds.
func (backend *Backend) Update(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	backend.Lock()
	defer backend.Unlock()

	overlay := store.MakeOverlay(txn{leaves: backend.leaves})

	err := fn(overlay)

	if err != nil {
		return err
	}

	for key := range overlay.Deleted {
		delete(backend.leaves, key)
	}

	for key, value := range overlay.Pending {
		backend.leaves[key] = value
	}

	return nil
}

// Close is a no-op: resident data lives as long as the process.
func (backend *Backend) Close() error {
	return nil
}

// txn reads the committed leaves. Writes go through an overlay.
type txn struct {
	leaves tree.Leaves
}

func (tx txn) Get(key string) ([]byte, bool, error) {
	value, present := tx.leaves[key]
	return value, present, nil
}

func (tx txn) Scan(prefix string) (tree.Leaves, error) {
	found := tree.Leaves{}

	for key, value := range tx.leaves {
		if tree.IsUnder(key, prefix) {
			found[key] = value
		}
	}

	return found, nil
}

func (tx txn) Any(prefix string) (bool, error) {
	for key := range tx.leaves {
		if tree.IsUnder(key, prefix) {
			return true, nil
		}
	}

	return false, nil
}

func (tx txn) Put(key string, value []byte) error {
	return store.ErrReadOnly
}

func (tx txn) Delete(key string) error {
	return store.ErrReadOnly
}
