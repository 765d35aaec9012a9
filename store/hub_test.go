package store

import (
	"testing"

	"github.com/johnny-morrice/pathtransport/internal/testutil"
)

func TestNest(t *testing.T) {
	nested := nest(true, []string{"state", "on"})
	expected := map[string]interface{}{
		"state": map[string]interface{}{"on": true},
	}
	testutil.AssertEquals(t, "Unexpected nesting", expected, nested)
	testutil.AssertEquals(t, "Unexpected bare value", "x", nest("x", nil))
}
