package api

import "github.com/pkg/errors"

var ErrInvalidArgument = errors.New("invalid argument")
var ErrConfiguration = errors.New("configuration error")
var ErrClosed = errors.New("transport closed")

func IsInvalidArgument(err error) bool {
	return errors.Cause(err) == ErrInvalidArgument
}

func IsConfiguration(err error) bool {
	return errors.Cause(err) == ErrConfiguration
}
