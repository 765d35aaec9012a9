// Package tree stores JSON trees as flat leaves: every non-map value is kept
// under the full slash path of its node. Maps are implied by their leaves, so
// an empty map does not exist.
package tree

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/johnny-morrice/pathtransport/internal/path"
)

// Leaves maps leaf paths to JSON encoded values.
type Leaves map[string][]byte

func (leaves Leaves) Keys() []string {
	keys := make([]string, 0, len(leaves))

	for k := range leaves {
		keys = append(keys, k)
	}

	sort.Strings(keys)
	return keys
}

var ErrInvalidKey = errors.New("invalid key")

// Normalize converts any JSON-compatible value into the plain decoded form:
// map[string]interface{}, []interface{}, string, float64, bool or nil.
func Normalize(value interface{}) (interface{}, error) {
	const failMsg = "tree.Normalize failed"

	if value == nil {
		return nil, nil
	}

	bs, err := json.Marshal(value)

	if err != nil {
		return nil, errors.Wrap(err, failMsg)
	}

	var normal interface{}
	err = json.Unmarshal(bs, &normal)

	if err != nil {
		return nil, errors.Wrap(err, failMsg)
	}

	return prune(normal), nil
}

// Flatten returns the leaves of value rooted at base.
func Flatten(base string, value interface{}) (Leaves, error) {
	const failMsg = "tree.Flatten failed"

	normal, err := Normalize(value)

	if err != nil {
		return nil, errors.Wrap(err, failMsg)
	}

	leaves := Leaves{}
	err = flatten(path.Clean(base), normal, leaves)

	if err != nil {
		return nil, errors.Wrap(err, failMsg)
	}

	return leaves, nil
}

func flatten(base string, value interface{}, leaves Leaves) error {
	switch v := value.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		for key, child := range v {
			if key == "" || strings.Contains(key, path.Separator) {
				return errors.Wrapf(ErrInvalidKey, "'%s' under '%s'", key, base)
			}

			err := flatten(join(base, key), child, leaves)

			if err != nil {
				return err
			}
		}

		return nil
	default:
		bs, err := json.Marshal(v)

		if err != nil {
			return err
		}

		leaves[base] = bs
		return nil
	}
}

// Unflatten rebuilds the value at base from leaves at or below it. It returns
// nil when there are none.
func Unflatten(base string, leaves Leaves) (interface{}, error) {
	const failMsg = "tree.Unflatten failed"

	base = path.Clean(base)
	baseDepth := len(path.Split(base))

	var root interface{}

	for _, key := range leaves.Keys() {
		if !IsUnder(key, base) {
			continue
		}

		var value interface{}
		err := json.Unmarshal(leaves[key], &value)

		if err != nil {
			return nil, errors.Wrapf(err, "%s at '%s'", failMsg, key)
		}

		rel := path.Split(key)[baseDepth:]

		if len(rel) == 0 {
			root = value
			continue
		}

		mapping, ok := root.(map[string]interface{})

		if !ok {
			mapping = map[string]interface{}{}
			root = mapping
		}

		insert(mapping, rel, value)
	}

	return root, nil
}

func insert(mapping map[string]interface{}, rel []string, value interface{}) {
	for _, segment := range rel[:len(rel)-1] {
		child, ok := mapping[segment].(map[string]interface{})

		if !ok {
			child = map[string]interface{}{}
			mapping[segment] = child
		}

		mapping = child
	}

	mapping[rel[len(rel)-1]] = value
}

// IsUnder reports whether key is node or one of its descendants.
func IsUnder(key, node string) bool {
	if node == "" {
		return true
	}

	return key == node || strings.HasPrefix(key, node+path.Separator)
}

// Descend walks value through the relative segments.
func Descend(value interface{}, rel []string) interface{} {
	for _, segment := range rel {
		mapping, ok := value.(map[string]interface{})

		if !ok {
			return nil
		}

		value = mapping[segment]
	}

	return value
}

// Children lists the immediate child keys of a value in key order.
func Children(value interface{}) []string {
	mapping, ok := value.(map[string]interface{})

	if !ok {
		return []string{}
	}

	keys := make([]string, 0, len(mapping))

	for k := range mapping {
		keys = append(keys, k)
	}

	SortKeys(keys)
	return keys
}

type ChildDiff struct {
	Key     string
	Old     interface{}
	New     interface{}
	Added   bool
	Changed bool
	Removed bool
}

// Diff compares the immediate children of two values.
func Diff(old, new interface{}) []ChildDiff {
	oldMap, _ := old.(map[string]interface{})
	newMap, _ := new.(map[string]interface{})

	keys := make([]string, 0, len(oldMap)+len(newMap))

	for k := range oldMap {
		keys = append(keys, k)
	}

	for k := range newMap {
		if _, present := oldMap[k]; !present {
			keys = append(keys, k)
		}
	}

	SortKeys(keys)

	diffs := []ChildDiff{}

	for _, k := range keys {
		o, hadOld := oldMap[k]
		n, hasNew := newMap[k]
		diff := ChildDiff{Key: k, Old: o, New: n}

		switch {
		case !hadOld && hasNew:
			diff.Added = true
		case hadOld && !hasNew:
			diff.Removed = true
		case !reflect.DeepEqual(o, n):
			diff.Changed = true
		default:
			continue
		}

		diffs = append(diffs, diff)
	}

	return diffs
}

func prune(value interface{}) interface{} {
	mapping, ok := value.(map[string]interface{})

	if !ok {
		return value
	}

	for k, child := range mapping {
		pruned := prune(child)

		if pruned == nil {
			delete(mapping, k)
		} else {
			mapping[k] = pruned
		}
	}

	if len(mapping) == 0 {
		return nil
	}

	return mapping
}

func join(base, key string) string {
	if base == "" {
		return key
	}

	return base + path.Separator + key
}
