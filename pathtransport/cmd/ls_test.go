package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/johnny-morrice/pathtransport/internal/testutil"
)

func TestPrintUntilSettled(t *testing.T) {
	ids := make(chan string, 2)
	ids <- "a"
	ids <- "b"

	buff := &bytes.Buffer{}
	done := make(chan struct{})

	go func() {
		printUntilSettled(buff, ids, time.Millisecond*20)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second * 2):
		t.Fatal("ls did not settle")
	}

	testutil.AssertEquals(t, "Unexpected ids", "a\nb\n", buff.String())
}
