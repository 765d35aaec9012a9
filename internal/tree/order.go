package tree

import (
	"sort"
	"strconv"
)

// SortKeys orders keys the way the realtime store orders children by key:
// keys that parse as 32 bit integers first, numerically, then the remaining
// keys lexicographically.
func SortKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		return KeyLess(keys[i], keys[j])
	})
}

func KeyLess(a, b string) bool {
	aNum, aIsNum := intKey(a)
	bNum, bIsNum := intKey(b)

	switch {
	case aIsNum && bIsNum:
		if aNum == bNum {
			return a < b
		}
		return aNum < bNum
	case aIsNum:
		return true
	case bIsNum:
		return false
	default:
		return a < b
	}
}

func intKey(key string) (int64, bool) {
	n, err := strconv.ParseInt(key, 10, 32)

	if err != nil {
		return 0, false
	}

	return n, true
}
