package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	lib "github.com/johnny-morrice/pathtransport"
	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/internal/testutil"
	mock_pathtransport "github.com/johnny-morrice/pathtransport/mock"
)

func TestConsolePutGet(t *testing.T) {
	console, out := testConsole(t)

	err := console.Exec(`put lamp state {"on": true, "level": 2}`)
	testutil.AssertNil(t, err)

	err = console.Exec("get lamp state")
	testutil.AssertNil(t, err)

	text := out.String()
	testutil.Assert(t, "Missing level row", strings.Contains(text, "| level | 2 "))
	testutil.Assert(t, "Missing on row", strings.Contains(text, "| on    | true "))
}

func TestConsoleListAndRemove(t *testing.T) {
	console, out := testConsole(t)

	testutil.AssertNil(t, console.Exec(`put lamp state {"on": true}`))
	testutil.AssertNil(t, console.Exec(`put fan state {"on": true}`))
	testutil.AssertNil(t, console.Exec("rm lamp"))

	testutil.AssertNil(t, console.Exec("ls"))

	text := out.String()
	testutil.Assert(t, "Missing fan", strings.Contains(text, "| fan "))
	testutil.Assert(t, "Removed lamp listed", !strings.Contains(text, "lamp"))
}

func TestConsoleErrors(t *testing.T) {
	console, _ := testConsole(t)

	err := console.Exec("put lamp state not-json")
	testutil.AssertNonNil(t, err)

	err = console.Exec("get lamp")
	testutil.Assert(t, "Expected invalid argument", api.IsInvalidArgument(err))

	err = console.Exec("frobnicate")
	testutil.AssertNonNil(t, err)

	err = console.Exec("quit")
	testutil.AssertEquals(t, "Expected quit", ErrQuit, err)
}

func TestConsolePassesArguments(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transport := mock_pathtransport.NewMockTransport(ctrl)
	transport.EXPECT().Update("lamp", "state", api.Value{"name": "big lamp"}).Return(nil)
	transport.EXPECT().Remove("lamp", "state").Return(nil)

	console := MakeConsole(TerminalOptions{Transport: transport, Output: &bytes.Buffer{}})

	testutil.AssertNil(t, console.Exec(`put   lamp  state  {"name": "big lamp"}`))
	testutil.AssertNil(t, console.Exec("rm lamp state"))
}

func TestPrintRecord(t *testing.T) {
	buff := &bytes.Buffer{}

	err := PrintRecord(buff, api.Record{ID: "lamp", Band: "state", Deep: true})
	testutil.AssertNil(t, err)
	testutil.Assert(t, "Missing deep marker", strings.Contains(buff.String(), "(changed below band)"))
}

func TestComplete(t *testing.T) {
	testutil.AssertEquals(t, "Unexpected completion", []string{"get"}, complete("g"))
	testutil.AssertLenEquals(t, len(__COMMANDS), complete(""))
}

func testConsole(t *testing.T) (*Console, *bytes.Buffer) {
	t.Helper()

	transport, err := lib.New(lib.Options{Host: "mem://"})

	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	t.Cleanup(func() {
		transport.Close()
	})

	out := &bytes.Buffer{}
	console := MakeConsole(TerminalOptions{
		Transport:  transport,
		Output:     out,
		ListSettle: 50 * time.Millisecond,
	})

	return console, out
}
