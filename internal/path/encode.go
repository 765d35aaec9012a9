package path

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// Reserved characters may not appear in a store path segment.
const Reserved = "/$#.][" + "%"

// Encode escapes each reserved character as '%' followed by two lowercase hex
// digits. The escape character itself is escaped too, so Decode is exact.
func Encode(segment string) string {
	if !strings.ContainsAny(segment, Reserved) {
		return segment
	}

	buff := strings.Builder{}
	buff.Grow(len(segment) + 8)

	for i := 0; i < len(segment); i++ {
		c := segment[i]
		if strings.IndexByte(Reserved, c) >= 0 {
			fmt.Fprintf(&buff, "%%%02x", c)
		} else {
			buff.WriteByte(c)
		}
	}

	return buff.String()
}

// Decode is standard percent-decoding.
func Decode(segment string) (string, error) {
	decoded, err := url.PathUnescape(segment)

	if err != nil {
		return segment, errors.Wrap(err, "path.Decode failed")
	}

	return decoded, nil
}

// MustDecode falls back to the raw segment when it is not valid percent-encoding.
func MustDecode(segment string) string {
	decoded, err := Decode(segment)

	if err != nil {
		return segment
	}

	return decoded
}

// PackOut compacts a value and encodes its top level keys for storage.
func PackOut(value map[string]interface{}) map[string]interface{} {
	packed := map[string]interface{}{}

	for key, v := range value {
		if IsEmpty(v) {
			continue
		}

		packed[Encode(key)] = v
	}

	return packed
}

// PackIn decodes the top level keys of a stored value. Nested keys are left
// as stored.
func PackIn(stored interface{}) map[string]interface{} {
	unpacked := map[string]interface{}{}
	mapping, ok := stored.(map[string]interface{})

	if !ok {
		return unpacked
	}

	for key, v := range mapping {
		unpacked[MustDecode(key)] = v
	}

	return unpacked
}

// IsEmpty is the compaction rule: nil, "", and empty collections are dropped.
func IsEmpty(value interface{}) bool {
	if value == nil {
		return true
	}

	switch v := value.(type) {
	case string:
		return v == ""
	case map[string]interface{}:
		return len(v) == 0
	case []interface{}:
		return len(v) == 0
	}

	reflected := reflect.ValueOf(value)
	switch reflected.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return reflected.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return reflected.IsNil()
	}

	return false
}
