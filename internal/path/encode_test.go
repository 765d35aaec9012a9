package path

import (
	"testing"

	"github.com/johnny-morrice/pathtransport/internal/testutil"
)

func TestEncode(t *testing.T) {
	table := map[string]string{
		"plain":     "plain",
		"a/b":       "a%2fb",
		"$price":    "%24price",
		"#tag":      "%23tag",
		"v1.2":      "v1%2e2",
		"[0]":       "%5b0%5d",
		"100%":      "100%25",
		"":          "",
		"ünïcode/x": "ünïcode%2fx",
	}

	for raw, expected := range table {
		actual := Encode(raw)
		testutil.AssertEquals(t, "Unexpected encoding of "+raw, expected, actual)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	const count = 500
	rand := testutil.Rand()

	for i := 0; i < count; i++ {
		key := testutil.RandKey(rand, 0, 20)
		encoded := Encode(key)

		for _, c := range "/$#.][" {
			for _, e := range encoded {
				if e == c {
					t.Fatalf("Reserved character '%c' survived encoding of '%s': '%s'", c, key, encoded)
				}
			}
		}

		decoded, err := Decode(encoded)
		testutil.AssertNil(t, err)
		testutil.AssertEquals(t, "Round trip failed", key, decoded)
	}
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode("bad%zz")
	testutil.AssertNonNil(t, err)
	testutil.AssertEquals(t, "MustDecode fallback", "bad%zz", MustDecode("bad%zz"))
}

func TestPackRoundTripCompacts(t *testing.T) {
	value := map[string]interface{}{
		"name":      "hi",
		"on":        true,
		"level":     0.5,
		"zero":      0,
		"off":       false,
		"a.b":       "dotted",
		"empty":     "",
		"nothing":   nil,
		"none":      map[string]interface{}{},
		"list":      []interface{}{},
		"nested":    map[string]interface{}{"x.y": 1},
		"values[0]": []interface{}{1, 2},
	}

	packed := PackOut(value)

	_, hasDotted := packed["a%2eb"]
	testutil.Assert(t, "Expected encoded key", hasDotted)

	expected := map[string]interface{}{
		"name":      "hi",
		"on":        true,
		"level":     0.5,
		"zero":      0,
		"off":       false,
		"a.b":       "dotted",
		"nested":    map[string]interface{}{"x.y": 1},
		"values[0]": []interface{}{1, 2},
	}

	actual := PackIn(packed)
	testutil.AssertEquals(t, "Unexpected unpacked value", expected, actual)
}

func TestPackInNonMapping(t *testing.T) {
	testutil.AssertEquals(t, "nil", map[string]interface{}{}, PackIn(nil))
	testutil.AssertEquals(t, "scalar", map[string]interface{}{}, PackIn("text"))
}

func TestIsEmpty(t *testing.T) {
	empties := []interface{}{nil, "", map[string]interface{}{}, []interface{}{}, []string{}, map[string]string{}}
	for _, e := range empties {
		testutil.Assert(t, "Expected empty", IsEmpty(e))
	}

	full := []interface{}{"x", 0, false, 0.0, []string{"a"}, map[string]interface{}{"a": nil}}
	for _, f := range full {
		testutil.Assert(t, "Expected non empty", !IsEmpty(f))
	}
}
