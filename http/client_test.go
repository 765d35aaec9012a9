package http

import (
	"strings"
	"testing"

	"github.com/h2non/gock"
	"github.com/pkg/errors"

	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/internal/testutil"
)

func TestClientHtmlFailure(t *testing.T) {
	defer gock.Off()

	gock.New(TEST_SERVER_ADDR).
		Get("/things/lamp/state").
		Reply(502).
		SetHeader(CONTENT_TYPE, "text/html").
		BodyString("<html>bad gateway</html>")

	client := testClient(t)

	_, err := client.Get("lamp", "state")
	testutil.AssertNonNil(t, err)
	testutil.Assert(t, "Unexpected invalid argument", !api.IsInvalidArgument(err))
	testutil.Assert(t, "Expected status in error", strings.Contains(err.Error(), "(502)"))
	testutil.Assert(t, "Expected body in error", strings.Contains(err.Error(), "bad gateway"))
	testutil.Assert(t, "Pending mocks", gock.IsDone())
}

func TestClientJsonFailure(t *testing.T) {
	defer gock.Off()

	gock.New(TEST_SERVER_ADDR).
		Put("/things/lamp/state").
		Reply(500).
		JSON(errorMessage{Error: "store broke"})

	gock.New(TEST_SERVER_ADDR).
		Delete("/things/lamp").
		Reply(400).
		JSON(errorMessage{Error: "bad id"})

	client := testClient(t)

	err := client.Update("lamp", "state", api.Value{"on": true})
	testutil.AssertNonNil(t, err)
	testutil.Assert(t, "Expected server message", strings.Contains(err.Error(), "(500): store broke"))

	err = client.Remove("lamp", "")
	testutil.Assert(t, "Expected invalid argument", api.IsInvalidArgument(err))
	testutil.Assert(t, "Pending mocks", gock.IsDone())
}

func TestClientUnavailable(t *testing.T) {
	defer gock.Off()

	gock.New(TEST_SERVER_ADDR).
		Get("/things/lamp/state").
		Reply(503).
		JSON(errorMessage{Error: "transport closed"})

	client := testClient(t)

	_, err := client.Get("lamp", "state")
	testutil.AssertEquals(t, "Expected closed", api.ErrClosed, errors.Cause(err))
}

func TestClientInvalidArgumentsSendNothing(t *testing.T) {
	defer gock.Off()
	gock.Intercept()

	client := testClient(t)

	_, err := client.Get("", "state")
	testutil.Assert(t, "Expected invalid argument", api.IsInvalidArgument(err))

	_, err = client.Get("lamp", "")
	testutil.Assert(t, "Expected invalid argument", api.IsInvalidArgument(err))

	err = client.Update("", "state", api.Value{"on": true})
	testutil.Assert(t, "Expected invalid argument", api.IsInvalidArgument(err))

	err = client.Update("lamp", "", api.Value{"on": true})
	testutil.Assert(t, "Expected invalid argument", api.IsInvalidArgument(err))

	err = client.Remove("", "state")
	testutil.Assert(t, "Expected invalid argument", api.IsInvalidArgument(err))

	testutil.Assert(t, "Unexpected request", !gock.HasUnmatchedRequest())
}

func testClient(t *testing.T) *Client {
	t.Helper()

	client, err := MakeClient(ClientOptions{ServerAddr: TEST_SERVER_ADDR})

	if err != nil {
		t.Fatalf("MakeClient failed: %v", err)
	}

	return client
}

const TEST_SERVER_ADDR = "http://example.org"
