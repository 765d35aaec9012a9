package bolt

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/internal/storetest"
	"github.com/johnny-morrice/pathtransport/internal/testutil"
	"github.com/johnny-morrice/pathtransport/store"
)

func TestBoltStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Dial {
		options := BoltOptions{FilePath: tempFile(t)}
		return func() (api.Store, error) {
			return Open(options)
		}
	})
}

func TestBoltPersists(t *testing.T) {
	filePath := tempFile(t)
	ctx := context.Background()

	conn, err := store.Dial(fmt.Sprintf("bolt://%s", filePath))
	testutil.AssertNil(t, err)

	err = conn.Child("things/lamp/state").Set(ctx, map[string]interface{}{"on": true})
	testutil.AssertNil(t, err)
	testutil.AssertNil(t, conn.Close())

	files.Lock()
	testutil.AssertLenEquals(t, 0, files.byPath)
	files.Unlock()

	conn, err = store.Dial(fmt.Sprintf("bolt://%s", filePath))
	testutil.AssertNil(t, err)
	defer conn.Close()

	snapshot, err := conn.Child("things/lamp/state/on").Get(ctx)
	testutil.AssertNil(t, err)
	testutil.AssertEquals(t, "Value not persisted", true, snapshot.Value)
}

func TestBoltEmptyPath(t *testing.T) {
	_, err := Open(BoltOptions{})
	testutil.AssertNonNil(t, err)
	testutil.Assert(t, "Expected configuration error", api.IsConfiguration(err))
}

func tempFile(t *testing.T) string {
	t.Helper()

	dir, err := ioutil.TempDir("", "pathtransport-bolt")

	if err != nil {
		t.Fatalf("TempDir failed: %v", err)
	}

	t.Cleanup(func() {
		os.RemoveAll(dir)
	})

	return filepath.Join(dir, "things.db")
}
