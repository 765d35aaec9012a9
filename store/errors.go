package store

import "github.com/pkg/errors"

var ErrReadOnly = errors.New("read only transaction")
var ErrUnknownScheme = errors.New("no dialer for scheme")
var ErrClosed = errors.New("store connection closed")
var ErrConflict = errors.New("write conflict")
