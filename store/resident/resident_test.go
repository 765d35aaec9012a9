package resident

import (
	"context"
	"testing"

	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/internal/storetest"
	"github.com/johnny-morrice/pathtransport/internal/testutil"
	"github.com/johnny-morrice/pathtransport/store"
)

func TestResidentStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Dial {
		db := MakeDatabase()
		return func() (api.Store, error) {
			return db.Connect()
		}
	})
}

func TestDialSharesNamedDatabase(t *testing.T) {
	first, err := store.Dial("mem://TestDialSharesNamedDatabase")
	testutil.AssertNil(t, err)
	defer first.Close()

	second, err := store.Dial("mem://TestDialSharesNamedDatabase")
	testutil.AssertNil(t, err)
	defer second.Close()

	private, err := store.Dial("mem://")
	testutil.AssertNil(t, err)
	defer private.Close()

	ctx := context.Background()
	err = first.Child("things/lamp").Set(ctx, map[string]interface{}{"on": true})
	testutil.AssertNil(t, err)

	snapshot, err := second.Child("things/lamp/on").Get(ctx)
	testutil.AssertNil(t, err)
	testutil.AssertEquals(t, "Named database not shared", true, snapshot.Value)

	snapshot, err = private.Child("things/lamp/on").Get(ctx)
	testutil.AssertNil(t, err)
	testutil.Assert(t, "Private database shared", !snapshot.Exists())
}

func TestUpdateRollsBack(t *testing.T) {
	backend := MakeBackend()
	ctx := context.Background()

	err := backend.Update(ctx, func(tx store.Tx) error {
		tx.Put("a", []byte("1"))
		return store.ErrConflict
	})
	testutil.AssertEquals(t, "Expected conflict", store.ErrConflict, err)

	err = backend.View(ctx, func(tx store.Tx) error {
		_, present, err := tx.Get("a")
		testutil.Assert(t, "Failed update committed", !present)

		err = tx.Put("b", []byte("2"))
		testutil.AssertEquals(t, "Expected read only", store.ErrReadOnly, err)
		return nil
	})
	testutil.AssertNil(t, err)
}

func TestTxReadsOwnWrites(t *testing.T) {
	backend := MakeBackend()

	err := backend.Update(context.Background(), func(tx store.Tx) error {
		tx.Put("things/lamp/on", []byte("true"))
		tx.Put("things/fan/on", []byte("false"))
		tx.Delete("things/fan/on")

		leaves, err := tx.Scan("things")
		testutil.AssertNil(t, err)
		testutil.AssertEquals(t, "Unexpected scan", []string{"things/lamp/on"}, leaves.Keys())

		present, err := tx.Any("things/fan")
		testutil.AssertNil(t, err)
		testutil.Assert(t, "Deleted leaf found", !present)

		// Prefix must match whole segments.
		present, err = tx.Any("things/la")
		testutil.AssertNil(t, err)
		testutil.Assert(t, "Partial segment matched", !present)
		return nil
	})
	testutil.AssertNil(t, err)
}
