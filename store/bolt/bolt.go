// Package bolt keeps the store in a single bolt database file. Connections to
// the same file within one process share the file handle and change bus.
package bolt

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"

	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/internal/path"
	"github.com/johnny-morrice/pathtransport/internal/tree"
	"github.com/johnny-morrice/pathtransport/log"
	"github.com/johnny-morrice/pathtransport/store"
	"github.com/johnny-morrice/pathtransport/store/resident"
)

const Scheme = "bolt"

const DefaultMode = os.FileMode(0600)
const DefaultTimeout = time.Second

var leafBucket = []byte("leaves")

func init() {
	store.RegisterDialer(Scheme, Dial)
}

type BoltOptions struct {
	DBOptions *bolt.Options
	FilePath  string
	Mode      os.FileMode
}

// Dial opens the file named by the URL, as in "bolt:///var/lib/things.db" or
// "bolt://things.db".
func Dial(host *url.URL) (api.Store, error) {
	options := BoltOptions{
		FilePath: host.Host + host.Path,
	}

	return Open(options)
}

func Open(options BoltOptions) (*store.Conn, error) {
	const failMsg = "bolt.Open failed"

	backend, err := acquire(options)

	if err != nil {
		return nil, errors.Wrap(err, failMsg)
	}

	conn, err := store.Connect(backend, backend.file.bus)

	if err != nil {
		backend.Close()
		return nil, errors.Wrap(err, failMsg)
	}

	return conn, nil
}

var files = struct {
	sync.Mutex
	byPath map[string]*file
}{
	byPath: map[string]*file{},
}

type file struct {
	db     *bolt.DB
	bus    *resident.Bus
	writes sync.Mutex
	refs   int
	key    string
}

func acquire(options BoltOptions) (*Backend, error) {
	const failMsg = "acquire failed"

	if options.FilePath == "" {
		return nil, errors.Wrap(api.ErrConfiguration, "empty bolt file path")
	}

	key, err := filepath.Abs(options.FilePath)

	if err != nil {
		return nil, errors.Wrap(err, failMsg)
	}

	files.Lock()
	defer files.Unlock()

	shared, present := files.byPath[key]

	if !present {
		db, err := connectBolt(options)

		if err != nil {
			return nil, errors.Wrap(err, failMsg)
		}

		err = db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(leafBucket)
			return err
		})

		if err != nil {
			db.Close()
			return nil, errors.Wrap(err, failMsg)
		}

		log.Info("Opened bolt database at '%s'", key)

		shared = &file{
			db:  db,
			bus: resident.MakeBus(),
			key: key,
		}
		files.byPath[key] = shared
	}

	shared.refs++

	return &Backend{file: shared}, nil
}

func connectBolt(options BoltOptions) (*bolt.DB, error) {
	if options.Mode == 0 {
		options.Mode = DefaultMode
	}

	if options.DBOptions == nil {
		options.DBOptions = &bolt.Options{Timeout: DefaultTimeout}
	}

	return bolt.Open(options.FilePath, options.Mode, options.DBOptions)
}

// Backend is one connection's handle on a shared bolt file.
type Backend struct {
	file   *file
	closed sync.Once
}

func (backend *Backend) Writes() sync.Locker {
	return &backend.file.writes
}

func (backend *Backend) View(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return backend.file.db.View(func(btx *bolt.Tx) error {
		tx := txn{bucket: btx.Bucket(leafBucket)}
		return fn(store.ReadOnlyTx{Tx: tx})
	})
}

func (backend *Backend) Update(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return backend.file.db.Update(func(btx *bolt.Tx) error {
		return fn(txn{bucket: btx.Bucket(leafBucket)})
	})
}

// Close releases the file when its last connection closes.
func (backend *Backend) Close() error {
	const failMsg = "bolt.Backend.Close failed"

	var err error
	backend.closed.Do(func() {
		files.Lock()
		defer files.Unlock()

		shared := backend.file
		shared.refs--

		if shared.refs > 0 {
			return
		}

		delete(files.byPath, shared.key)
		err = shared.db.Close()
		log.Info("Closed bolt database at '%s'", shared.key)
	})

	if err != nil {
		return errors.Wrap(err, failMsg)
	}

	return nil
}

type txn struct {
	bucket *bolt.Bucket
}

func (tx txn) Get(key string) ([]byte, bool, error) {
	value := tx.bucket.Get([]byte(key))

	if value == nil {
		return nil, false, nil
	}

	return copyBytes(value), true, nil
}

func (tx txn) Scan(prefix string) (tree.Leaves, error) {
	found := tree.Leaves{}

	err := tx.each(prefix, func(key, value []byte) bool {
		found[string(key)] = copyBytes(value)
		return true
	})

	return found, err
}

func (tx txn) Any(prefix string) (bool, error) {
	present := false

	err := tx.each(prefix, func(key, value []byte) bool {
		present = true
		return false
	})

	return present, err
}

func (tx txn) Put(key string, value []byte) error {
	return tx.bucket.Put([]byte(key), value)
}

func (tx txn) Delete(key string) error {
	return tx.bucket.Delete([]byte(key))
}

// each visits the leaf at prefix and then those below it, until visit
// returns false.
func (tx txn) each(prefix string, visit func(key, value []byte) bool) error {
	cursor := tx.bucket.Cursor()

	if prefix == "" {
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			if !visit(k, v) {
				return nil
			}
		}

		return nil
	}

	if value := tx.bucket.Get([]byte(prefix)); value != nil {
		if !visit([]byte(prefix), value) {
			return nil
		}
	}

	below := []byte(prefix + path.Separator)

	for k, v := cursor.Seek(below); k != nil && bytes.HasPrefix(k, below); k, v = cursor.Next() {
		if !visit(k, v) {
			return nil
		}
	}

	return nil
}

func copyBytes(bs []byte) []byte {
	cp := make([]byte, len(bs))
	copy(cp, bs)
	return cp
}
