package http

import (
	"bufio"
	"encoding/json"
	gohttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"

	lib "github.com/johnny-morrice/pathtransport"
	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/internal/testutil"
	mock_pathtransport "github.com/johnny-morrice/pathtransport/mock"
)

func TestWebServiceRoundTrip(t *testing.T) {
	_, client := testService(t)

	err := client.Update("lamp/1", "state", api.Value{"on": true, "level": 2})
	testutil.AssertNil(t, err)

	value, err := client.Get("lamp/1", "state")
	testutil.AssertNil(t, err)
	testutil.AssertEquals(t, "Unexpected value", api.Value{"on": true, "level": float64(2)}, value)

	err = client.Remove("lamp/1", "")
	testutil.AssertNil(t, err)

	value, err = client.Get("lamp/1", "state")
	testutil.AssertNil(t, err)
	testutil.AssertLenEquals(t, 0, value)
}

func TestWebServiceBadBody(t *testing.T) {
	server, _ := testService(t)

	req, err := gohttp.NewRequest(gohttp.MethodPut, server.URL+"/things/lamp/state", strings.NewReader("{not json"))
	testutil.AssertNil(t, err)

	resp, err := gohttp.DefaultClient.Do(req)
	testutil.AssertNil(t, err)
	defer resp.Body.Close()

	testutil.AssertEquals(t, "Unexpected status", gohttp.StatusBadRequest, resp.StatusCode)
	testutil.Assert(t, "Expected JSON error", HasContentType(resp.Header, MIME_JSON))
}

func TestWebServiceUpdatesStream(t *testing.T) {
	server, client := testService(t)

	testutil.AssertNil(t, client.Update("lamp", "state", api.Value{"on": true}))

	resp, err := gohttp.Get(server.URL + "/updates/lamp")
	testutil.AssertNil(t, err)
	defer resp.Body.Close()

	testutil.Assert(t, "Expected NDJSON", HasContentType(resp.Header, MIME_NDJSON))

	testutil.AssertNil(t, client.Update("lamp", "state", api.Value{"on": false}))

	lines := bufio.NewScanner(resp.Body)
	testutil.Assert(t, "Stream ended", lines.Scan())

	record := api.Record{}
	testutil.AssertNil(t, json.Unmarshal(lines.Bytes(), &record))

	expected := api.Record{ID: "lamp", Band: "state", Value: api.Value{"on": false}}
	testutil.AssertEquals(t, "Unexpected record", expected, record)
}

func TestWebServiceListStream(t *testing.T) {
	server, client := testService(t)

	testutil.AssertNil(t, client.Update("fan", "state", api.Value{"on": true}))
	testutil.AssertNil(t, client.Update("lamp", "state", api.Value{"on": true}))

	resp, err := gohttp.Get(server.URL + THINGS_ROOT)
	testutil.AssertNil(t, err)
	defer resp.Body.Close()

	lines := bufio.NewScanner(resp.Body)

	for _, id := range []string{"fan", "lamp"} {
		testutil.Assert(t, "Stream ended", lines.Scan())

		item := api.ListItem{}
		testutil.AssertNil(t, json.Unmarshal(lines.Bytes(), &item))
		testutil.AssertEquals(t, "Unexpected item", id, item.ID)
	}
}

func TestWebServiceErrorStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transport := mock_pathtransport.NewMockTransport(ctrl)
	transport.EXPECT().Update("lamp", "state", api.Value{"on": true}).Return(errors.Wrap(api.ErrInvalidArgument, "bad"))
	transport.EXPECT().Remove("lamp", "").Return(errors.Wrap(api.ErrClosed, "closed"))
	transport.EXPECT().Updated(api.Scope{ID: "lamp", Band: "state"}, gomock.Any()).Return(nil, errors.New("broken"))

	service := MakeWebService(WebServiceOptions{Transport: transport})
	server := httptest.NewServer(service.Handler())
	defer server.Close()
	defer service.Close()

	client, err := MakeClient(ClientOptions{ServerAddr: server.URL})
	testutil.AssertNil(t, err)

	err = client.Update("lamp", "state", api.Value{"on": true})
	testutil.Assert(t, "Expected invalid argument", api.IsInvalidArgument(err))

	err = client.Remove("lamp", "")
	testutil.AssertEquals(t, "Expected closed", api.ErrClosed, errors.Cause(err))

	resp, err := gohttp.Get(server.URL + "/updates/lamp/state")
	testutil.AssertNil(t, err)
	resp.Body.Close()
	testutil.AssertEquals(t, "Unexpected status", gohttp.StatusInternalServerError, resp.StatusCode)
}

func TestWebServiceClientEmptyId(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// Any transport call fails the test.
	transport := mock_pathtransport.NewMockTransport(ctrl)

	service := MakeWebService(WebServiceOptions{Transport: transport})
	server := httptest.NewServer(service.Handler())
	defer server.Close()
	defer service.Close()

	client, err := MakeClient(ClientOptions{ServerAddr: server.URL})
	testutil.AssertNil(t, err)

	_, err = client.Get("", "state")
	testutil.Assert(t, "Expected invalid argument", api.IsInvalidArgument(err))

	err = client.Update("", "state", api.Value{"on": true})
	testutil.Assert(t, "Expected invalid argument", api.IsInvalidArgument(err))

	err = client.Remove("", "state")
	testutil.Assert(t, "Expected invalid argument", api.IsInvalidArgument(err))
}

func TestMakeClientRequiresAddr(t *testing.T) {
	_, err := MakeClient(ClientOptions{})
	testutil.Assert(t, "Expected configuration error", api.IsConfiguration(err))
}

func testService(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()

	transport, err := lib.New(lib.Options{Host: "mem://"})

	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	service := MakeWebService(WebServiceOptions{Transport: transport})
	server := httptest.NewServer(service.Handler())

	t.Cleanup(func() {
		service.Close()
		server.Close()
		transport.Close()
	})

	client, err := MakeClient(ClientOptions{ServerAddr: server.URL})

	if err != nil {
		t.Fatalf("MakeClient failed: %v", err)
	}

	return server, client
}
