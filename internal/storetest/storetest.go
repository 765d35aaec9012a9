// Package storetest checks that an api.Store behaves like the realtime store
// the transport expects. Backend packages run it from their tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/internal/testutil"
)

const eventTimeout = 2 * time.Second

// Dial opens a connection to one storage. Every call must reach the same data.
type Dial func() (api.Store, error)

// Run runs the suite. fresh returns a Dial for empty storage.
func Run(t *testing.T, fresh func(t *testing.T) Dial) {
	cases := []struct {
		name string
		test func(t *testing.T, dial Dial)
	}{
		{"SetGet", testSetGet},
		{"SetReplaces", testSetReplaces},
		{"Remove", testRemove},
		{"EmptyMapRemoves", testEmptyMapRemoves},
		{"ScalarAncestor", testScalarAncestor},
		{"ChildAddedReplayOrder", testChildAddedReplayOrder},
		{"ChildEvents", testChildEvents},
		{"DeepChange", testDeepChange},
		{"SharedStorage", testSharedStorage},
		{"SubscriptionClose", testSubscriptionClose},
	}

	for _, c := range cases {
		testCase := c
		t.Run(testCase.name, func(t *testing.T) {
			testCase.test(t, fresh(t))
		})
	}
}

func testSetGet(t *testing.T, dial Dial) {
	store := connect(t, dial)

	set(t, store, "things/lamp/state", map[string]interface{}{
		"on":    true,
		"level": 3,
		"tags":  []interface{}{"warm"},
	})

	expected := map[string]interface{}{
		"on":    true,
		"level": float64(3),
		"tags":  []interface{}{"warm"},
	}
	testutil.AssertEquals(t, "Unexpected band", expected, get(t, store, "things/lamp/state"))

	thing := map[string]interface{}{"state": expected}
	testutil.AssertEquals(t, "Unexpected thing", thing, get(t, store, "/things/lamp/"))

	snapshot, err := store.Child("things/missing").Get(context.Background())
	testutil.AssertNil(t, err)
	testutil.Assert(t, "Missing node exists", !snapshot.Exists())
	testutil.AssertEquals(t, "Unexpected key", "missing", snapshot.Key())
}

func testSetReplaces(t *testing.T, dial Dial) {
	store := connect(t, dial)

	set(t, store, "things/lamp/state", map[string]interface{}{"x": 1, "y": 2})
	set(t, store, "things/lamp/state", map[string]interface{}{"y": 3})

	expected := map[string]interface{}{"y": float64(3)}
	testutil.AssertEquals(t, "Set did not replace", expected, get(t, store, "things/lamp/state"))
}

func testRemove(t *testing.T, dial Dial) {
	store := connect(t, dial)

	set(t, store, "things/lamp/state", map[string]interface{}{"on": true})
	set(t, store, "things/lamp/meta", map[string]interface{}{"name": "lamp"})
	set(t, store, "things/fan/state", map[string]interface{}{"on": false})

	err := store.Child("things/lamp/state").Remove(context.Background())
	testutil.AssertNil(t, err)

	expected := map[string]interface{}{"meta": map[string]interface{}{"name": "lamp"}}
	testutil.AssertEquals(t, "Unexpected thing", expected, get(t, store, "things/lamp"))

	err = store.Child("things/lamp").Remove(context.Background())
	testutil.AssertNil(t, err)

	testutil.AssertNil(t, get(t, store, "things/lamp"))
	testutil.AssertNonNil(t, get(t, store, "things/fan"))
}

func testEmptyMapRemoves(t *testing.T, dial Dial) {
	store := connect(t, dial)

	set(t, store, "things/lamp/state", map[string]interface{}{"on": true})
	set(t, store, "things/lamp/state", map[string]interface{}{})

	testutil.AssertNil(t, get(t, store, "things/lamp"))
}

func testScalarAncestor(t *testing.T, dial Dial) {
	store := connect(t, dial)

	set(t, store, "things/lamp", "plain")
	set(t, store, "things/lamp/state", map[string]interface{}{"on": true})

	expected := map[string]interface{}{
		"state": map[string]interface{}{"on": true},
	}
	testutil.AssertEquals(t, "Scalar ancestor survived", expected, get(t, store, "things/lamp"))
}

func testChildAddedReplayOrder(t *testing.T, dial Dial) {
	store := connect(t, dial)

	for _, key := range []string{"b", "10", "a", "2"} {
		set(t, store, "things/"+key+"/state", map[string]interface{}{"key": key})
	}

	rec := record(t, store, "things", api.CHILD_ADDED)

	for _, key := range []string{"2", "10", "a", "b"} {
		snapshot := rec.next(t)
		testutil.AssertEquals(t, "Unexpected replay order", key, snapshot.Key())
		testutil.AssertEquals(t, "Unexpected path", "things/"+key, snapshot.Path)
	}

	set(t, store, "things/c/state", map[string]interface{}{"key": "c"})
	testutil.AssertEquals(t, "Unexpected new child", "c", rec.next(t).Key())

	// Changing an existing child is not an addition.
	set(t, store, "things/a/state", map[string]interface{}{"key": "A"})
	rec.none(t)
}

func testChildEvents(t *testing.T, dial Dial) {
	store := connect(t, dial)

	added := record(t, store, "things", api.CHILD_ADDED)
	changed := record(t, store, "things", api.CHILD_CHANGED)
	removed := record(t, store, "things", api.CHILD_REMOVED)

	set(t, store, "things/lamp/state", map[string]interface{}{"on": true})

	snapshot := added.next(t)
	testutil.AssertEquals(t, "Unexpected added key", "lamp", snapshot.Key())
	testutil.AssertEquals(t, "Unexpected added value", map[string]interface{}{
		"state": map[string]interface{}{"on": true},
	}, snapshot.Value)

	set(t, store, "things/lamp/state", map[string]interface{}{"on": false})

	snapshot = changed.next(t)
	testutil.AssertEquals(t, "Unexpected changed path", "things/lamp", snapshot.Path)
	testutil.AssertEquals(t, "Unexpected changed value", map[string]interface{}{
		"state": map[string]interface{}{"on": false},
	}, snapshot.Value)

	err := store.Child("things/lamp").Remove(context.Background())
	testutil.AssertNil(t, err)

	snapshot = removed.next(t)
	testutil.AssertEquals(t, "Unexpected removed key", "lamp", snapshot.Key())
	testutil.AssertEquals(t, "Unexpected removed value", map[string]interface{}{
		"state": map[string]interface{}{"on": false},
	}, snapshot.Value)

	// Writing the same value again changes nothing.
	set(t, store, "things/fan/state", map[string]interface{}{"on": true})
	added.next(t)
	set(t, store, "things/fan/state", map[string]interface{}{"on": true})
	changed.none(t)
}

func testDeepChange(t *testing.T, dial Dial) {
	store := connect(t, dial)

	set(t, store, "things/lamp/state", map[string]interface{}{"on": true})

	root := record(t, store, "things", api.CHILD_CHANGED)
	thing := record(t, store, "things/lamp", api.CHILD_CHANGED)
	band := record(t, store, "things/lamp/state", api.CHILD_CHANGED)

	set(t, store, "things/lamp/state/on", false)

	testutil.AssertEquals(t, "Unexpected root path", "things/lamp", root.next(t).Path)
	testutil.AssertEquals(t, "Unexpected thing path", "things/lamp/state", thing.next(t).Path)

	snapshot := band.next(t)
	testutil.AssertEquals(t, "Unexpected band path", "things/lamp/state/on", snapshot.Path)
	testutil.AssertEquals(t, "Unexpected band value", false, snapshot.Value)

	// A write from above reaches listeners below it.
	set(t, store, "things", map[string]interface{}{
		"lamp": map[string]interface{}{
			"state": map[string]interface{}{"on": true},
		},
	})

	snapshot = band.next(t)
	testutil.AssertEquals(t, "Unexpected band path", "things/lamp/state/on", snapshot.Path)
	testutil.AssertEquals(t, "Unexpected band value", true, snapshot.Value)
}

func testSharedStorage(t *testing.T, dial Dial) {
	writer := connect(t, dial)
	watcher := connect(t, dial)

	rec := record(t, watcher, "things", api.CHILD_ADDED)

	set(t, writer, "things/lamp/state", map[string]interface{}{"on": true})

	testutil.AssertEquals(t, "Unexpected shared key", "lamp", rec.next(t).Key())
	testutil.AssertEquals(t, "Unexpected shared value", map[string]interface{}{"on": true}, get(t, watcher, "things/lamp/state"))
}

func testSubscriptionClose(t *testing.T, dial Dial) {
	store := connect(t, dial)

	rec := &recorder{snapshots: make(chan api.Snapshot, 100)}
	sub, err := store.Child("things").On(api.CHILD_ADDED, rec.listen)
	testutil.AssertNil(t, err)

	testutil.AssertNil(t, sub.Close())
	testutil.AssertNil(t, sub.Close())

	set(t, store, "things/lamp/state", map[string]interface{}{"on": true})
	rec.none(t)
}

func connect(t *testing.T, dial Dial) api.Store {
	t.Helper()

	store, err := dial()

	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func set(t *testing.T, store api.Store, node string, value interface{}) {
	t.Helper()

	err := store.Child(node).Set(context.Background(), value)

	if err != nil {
		t.Fatalf("Set '%s' failed: %v", node, err)
	}
}

func get(t *testing.T, store api.Store, node string) interface{} {
	t.Helper()

	snapshot, err := store.Child(node).Get(context.Background())

	if err != nil {
		t.Fatalf("Get '%s' failed: %v", node, err)
	}

	return snapshot.Value
}

type recorder struct {
	snapshots chan api.Snapshot
}

func record(t *testing.T, store api.Store, node string, event api.EventType) *recorder {
	t.Helper()

	rec := &recorder{snapshots: make(chan api.Snapshot, 100)}
	sub, err := store.Child(node).On(event, rec.listen)

	if err != nil {
		t.Fatalf("On '%s' failed: %v", node, err)
	}

	t.Cleanup(func() {
		sub.Close()
	})

	return rec
}

func (rec *recorder) listen(snapshot api.Snapshot) {
	rec.snapshots <- snapshot
}

func (rec *recorder) next(t *testing.T) api.Snapshot {
	t.Helper()

	select {
	case snapshot := <-rec.snapshots:
		return snapshot
	case <-time.After(eventTimeout):
		t.Fatal("Timed out waiting for event")
		return api.Snapshot{}
	}
}

func (rec *recorder) none(t *testing.T) {
	t.Helper()

	select {
	case snapshot := <-rec.snapshots:
		t.Fatalf("Unexpected event at '%s': %v", snapshot.Path, snapshot.Value)
	case <-time.After(100 * time.Millisecond):
	}
}
