package store

import (
	"github.com/johnny-morrice/pathtransport/internal/tree"
)

// Overlay buffers writes over a Tx and reads them back. Backends without
// their own write transactions apply Pending and Deleted on commit.
type Overlay struct {
	Base    Tx
	Pending tree.Leaves
	Deleted map[string]bool
}

func MakeOverlay(base Tx) *Overlay {
	return &Overlay{
		Base:    base,
		Pending: tree.Leaves{},
		Deleted: map[string]bool{},
	}
}

func (overlay *Overlay) Get(key string) ([]byte, bool, error) {
	if value, present := overlay.Pending[key]; present {
		return value, true, nil
	}

	if overlay.Deleted[key] {
		return nil, false, nil
	}

	return overlay.Base.Get(key)
}

func (overlay *Overlay) Scan(prefix string) (tree.Leaves, error) {
	found, err := overlay.Base.Scan(prefix)

	if err != nil {
		return nil, err
	}

	for key := range overlay.Deleted {
		delete(found, key)
	}

	for key, value := range overlay.Pending {
		if tree.IsUnder(key, prefix) {
			found[key] = value
		}
	}

	return found, nil
}

func (overlay *Overlay) Any(prefix string) (bool, error) {
	for key := range overlay.Pending {
		if tree.IsUnder(key, prefix) {
			return true, nil
		}
	}

	for key := range overlay.Deleted {
		if tree.IsUnder(key, prefix) {
			found, err := overlay.Scan(prefix)
			return len(found) > 0, err
		}
	}

	return overlay.Base.Any(prefix)
}

func (overlay *Overlay) Put(key string, value []byte) error {
	delete(overlay.Deleted, key)
	overlay.Pending[key] = value
	return nil
}

func (overlay *Overlay) Delete(key string) error {
	delete(overlay.Pending, key)
	overlay.Deleted[key] = true
	return nil
}
