package pathtransport

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/internal/testutil"
	"github.com/johnny-morrice/pathtransport/store/resident"
)

const __TEST_TIMEOUT = 2 * time.Second

func TestGetEmpty(t *testing.T) {
	transport := testTransport(t)

	record := receive(t, transport, "lamp", "state")
	testutil.AssertNonNil(t, record.Value)
	testutil.AssertLenEquals(t, 0, record.Value)
	testutil.AssertEquals(t, "Unexpected id", "lamp", record.ID)
	testutil.AssertEquals(t, "Unexpected band", "state", record.Band)
}

func TestUpdateThenGet(t *testing.T) {
	transport := testTransport(t)

	value := api.Value{
		"on.off":  true,
		"level":   3,
		"comment": "",
		"nothing": nil,
		"nested":  map[string]interface{}{"a": "b"},
	}
	err := transport.Update("lamp/1", "st#ate", value)
	testutil.AssertNil(t, err)

	record := receive(t, transport, "lamp/1", "st#ate")
	expected := api.Value{
		"on.off": true,
		"level":  float64(3),
		"nested": map[string]interface{}{"a": "b"},
	}
	testutil.AssertEquals(t, "Unexpected value", expected, record.Value)
}

func TestUpdateReplaces(t *testing.T) {
	transport := testTransport(t)

	testutil.AssertNil(t, transport.Update("lamp", "state", api.Value{"x": 1, "y": 2}))
	testutil.AssertNil(t, transport.Update("lamp", "state", api.Value{"y": 3}))

	record := receive(t, transport, "lamp", "state")
	testutil.AssertEquals(t, "Update did not replace", api.Value{"y": float64(3)}, record.Value)
}

func TestUpdateEmptyRemoves(t *testing.T) {
	transport := testTransport(t)

	testutil.AssertNil(t, transport.Update("lamp", "state", api.Value{"x": 1}))
	testutil.AssertNil(t, transport.Update("lamp", "state", api.Value{"x": ""}))

	record := receive(t, transport, "lamp", "state")
	testutil.AssertLenEquals(t, 0, record.Value)
}

func TestRemove(t *testing.T) {
	transport := testTransport(t)

	testutil.AssertNil(t, transport.Update("lamp", "state", api.Value{"on": true}))
	testutil.AssertNil(t, transport.Update("lamp", "meta", api.Value{"name": "lamp"}))

	testutil.AssertNil(t, transport.Remove("lamp", "state"))
	testutil.AssertLenEquals(t, 0, receive(t, transport, "lamp", "state").Value)
	testutil.AssertLenEquals(t, 1, receive(t, transport, "lamp", "meta").Value)

	testutil.AssertNil(t, transport.Remove("lamp", ""))
	testutil.AssertLenEquals(t, 0, receive(t, transport, "lamp", "meta").Value)
}

func TestList(t *testing.T) {
	transport := testTransport(t)

	testutil.AssertNil(t, transport.Update("b.lamp", "state", api.Value{"on": true}))
	testutil.AssertNil(t, transport.Update("a/fan", "state", api.Value{"on": true}))

	items := make(chan api.ListItem, 10)
	sub, err := transport.List(func(item api.ListItem) {
		items <- item
	})
	testutil.AssertNil(t, err)
	defer sub.Close()

	testutil.AssertEquals(t, "Unexpected first item", "a/fan", nextItem(t, items).ID)
	testutil.AssertEquals(t, "Unexpected second item", "b.lamp", nextItem(t, items).ID)

	testutil.AssertNil(t, transport.Update("c", "state", api.Value{"on": true}))
	testutil.AssertEquals(t, "Unexpected new item", "c", nextItem(t, items).ID)
}

func TestUpdatedScope(t *testing.T) {
	transport := testTransport(t)

	testutil.AssertNil(t, transport.Update("lamp", "state", api.Value{"on": true}))
	testutil.AssertNil(t, transport.Update("fan", "state", api.Value{"on": true}))

	all := watch(t, transport, api.Scope{})
	thing := watch(t, transport, api.Scope{ID: "lamp"})
	band := watch(t, transport, api.Scope{ID: "lamp", Band: "state"})

	testutil.AssertNil(t, transport.Update("lamp", "state", api.Value{"on": false}))

	expected := api.Record{ID: "lamp", Band: "state", Value: api.Value{"on": false}}
	testutil.AssertEquals(t, "Unexpected wildcard record", expected, nextRecord(t, all))
	testutil.AssertEquals(t, "Unexpected thing record", expected, nextRecord(t, thing))

	deep := api.Record{ID: "lamp", Band: "state", Deep: true}
	testutil.AssertEquals(t, "Unexpected band record", deep, nextRecord(t, band))

	testutil.AssertNil(t, transport.Update("fan", "state", api.Value{"on": false}))

	fan := api.Record{ID: "fan", Band: "state", Value: api.Value{"on": false}}
	testutil.AssertEquals(t, "Unexpected wildcard record", fan, nextRecord(t, all))
	noRecord(t, thing)
	noRecord(t, band)
}

func TestUpdatedSubscriptionClose(t *testing.T) {
	transport := testTransport(t)

	testutil.AssertNil(t, transport.Update("lamp", "state", api.Value{"on": true}))

	records := make(chan api.Record, 10)
	sub, err := transport.Updated(api.Scope{}, func(record api.Record) {
		records <- record
	})
	testutil.AssertNil(t, err)
	testutil.AssertNil(t, sub.Close())

	testutil.AssertNil(t, transport.Update("lamp", "state", api.Value{"on": false}))
	receive(t, transport, "lamp", "state")
	noRecord(t, records)
}

func TestInvalidArguments(t *testing.T) {
	transport := testTransport(t)

	_, err := transport.Get("", "state")
	testutil.Assert(t, "Expected invalid argument", api.IsInvalidArgument(err))

	_, err = transport.Get("lamp", "")
	testutil.Assert(t, "Expected invalid argument", api.IsInvalidArgument(err))

	err = transport.Update("", "state", api.Value{})
	testutil.Assert(t, "Expected invalid argument", api.IsInvalidArgument(err))

	err = transport.Update("lamp", "", api.Value{})
	testutil.Assert(t, "Expected invalid argument", api.IsInvalidArgument(err))

	err = transport.Remove("", "state")
	testutil.Assert(t, "Expected invalid argument", api.IsInvalidArgument(err))

	_, err = transport.Updated(api.Scope{Band: "state"}, func(api.Record) {})
	testutil.Assert(t, "Expected invalid argument", api.IsInvalidArgument(err))
}

func TestNewConfiguration(t *testing.T) {
	_, err := New(Options{})
	testutil.Assert(t, "Expected configuration error", api.IsConfiguration(err))

	_, err = New(Options{Host: "carrier-pigeon://loft"})
	testutil.Assert(t, "Expected configuration error", api.IsConfiguration(err))
}

func TestNewReadsViper(t *testing.T) {
	viper.Set(HostKey, "mem://TestNewReadsViper")
	viper.Set(PrefixKey, "/configured/")
	defer viper.Reset()

	transport, err := New(Options{})
	testutil.AssertNil(t, err)
	defer transport.Close()

	testutil.AssertEquals(t, "Unexpected host", "mem://TestNewReadsViper", transport.Host)
	testutil.AssertEquals(t, "Unexpected prefix", []string{"configured"}, transport.prefixParts)
}

func TestSharedStore(t *testing.T) {
	conn, err := resident.Open()
	testutil.AssertNil(t, err)
	defer conn.Close()

	writer, err := New(Options{Store: conn, Prefix: "things"})
	testutil.AssertNil(t, err)
	reader, err := New(Options{Store: conn, Prefix: "things"})
	testutil.AssertNil(t, err)
	defer reader.Close()

	testutil.AssertNil(t, writer.Update("lamp", "state", api.Value{"on": true}))
	testutil.AssertNil(t, writer.Close())

	// Closing a transport leaves an injected store open.
	snapshot, err := conn.Child("things/lamp/state").Get(context.Background())
	testutil.AssertNil(t, err)
	testutil.AssertEquals(t, "Unexpected stored value", map[string]interface{}{"on": true}, snapshot.Value)

	record := receive(t, reader, "lamp", "state")
	testutil.AssertEquals(t, "Unexpected shared value", api.Value{"on": true}, record.Value)
}

func TestClose(t *testing.T) {
	transport, err := New(Options{Host: "mem://"})
	testutil.AssertNil(t, err)

	testutil.AssertNil(t, transport.Update("lamp", "state", api.Value{"on": true}))
	testutil.AssertNil(t, transport.Close())
	testutil.AssertNil(t, transport.Close())

	err = transport.Update("lamp", "state", api.Value{"on": false})
	testutil.AssertEquals(t, "Expected closed", api.ErrClosed, errors.Cause(err))

	_, err = transport.List(func(api.ListItem) {})
	testutil.AssertEquals(t, "Expected closed", api.ErrClosed, errors.Cause(err))

	_, open := <-transport.Errors()
	testutil.Assert(t, "Errors channel open after Close", !open)
}

func testTransport(t *testing.T) *PathTransport {
	t.Helper()

	transport, err := New(Options{Host: "mem://", Prefix: "/root/"})

	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	t.Cleanup(func() {
		transport.Close()
	})

	return transport
}

func receive(t *testing.T, transport *PathTransport, id, band string) api.Record {
	t.Helper()

	result, err := transport.Get(id, band)
	testutil.AssertNil(t, err)

	select {
	case record, ok := <-result:
		testutil.Assert(t, "Result closed without record", ok)
		_, open := <-result
		testutil.Assert(t, "Result not closed", !open)
		return record
	case <-time.After(__TEST_TIMEOUT):
		t.Fatal("Timed out waiting for Get")
		return api.Record{}
	}
}

func watch(t *testing.T, transport *PathTransport, scope api.Scope) chan api.Record {
	t.Helper()

	records := make(chan api.Record, 10)
	sub, err := transport.Updated(scope, func(record api.Record) {
		records <- record
	})
	testutil.AssertNil(t, err)

	t.Cleanup(func() {
		sub.Close()
	})

	return records
}

func nextRecord(t *testing.T, records chan api.Record) api.Record {
	t.Helper()

	select {
	case record := <-records:
		return record
	case <-time.After(__TEST_TIMEOUT):
		t.Fatal("Timed out waiting for record")
		return api.Record{}
	}
}

func noRecord(t *testing.T, records chan api.Record) {
	t.Helper()

	select {
	case record := <-records:
		t.Fatalf("Unexpected record: %v", record)
	case <-time.After(50 * time.Millisecond):
	}
}

func nextItem(t *testing.T, items chan api.ListItem) api.ListItem {
	t.Helper()

	select {
	case item := <-items:
		return item
	case <-time.After(__TEST_TIMEOUT):
		t.Fatal("Timed out waiting for list item")
		return api.ListItem{}
	}
}
