package stream

import "errors"

var (
	errNotConnected = errors.New("stream: not connected")
	errNoEndpoints  = errors.New("stream: no endpoints to connect to")
)
