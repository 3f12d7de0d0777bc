// Package errorx defines the errors returned by the ndt7 client.
package errorx

import (
	"errors"
	"fmt"
)

// ErrNoTargets is returned when the Locate API returned an empty
// list of suitable servers.
var ErrNoTargets = errors.New("locate: no targets available")

// ErrNoCapacity is returned when the Locate API answered with 204 No
// Content, meaning that M-Lab is temporarily out of capacity.
var ErrNoCapacity = errors.New("locate: platform out of capacity")

// ErrConnectTimeout is returned when establishing the WebSocket
// connection took longer than the connect timeout.
var ErrConnectTimeout = errors.New("connect: timed out")

// DiscoveryError wraps a transport or HTTP level failure that occurred
// while querying the Locate API.
type DiscoveryError struct {
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("locate failed: %s", e.Err.Error())
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// ServiceUnsupportedError indicates that a service URL path does not
// identify a recognized ndt7 endpoint.
type ServiceUnsupportedError struct {
	URL string
}

func (e *ServiceUnsupportedError) Error() string {
	return fmt.Sprintf("unsupported service URL: %s", e.URL)
}

// TransportError wraps a WebSocket or stream level failure occurred after
// the connection was established. We always hold the wrapped error behind
// a pointer so that this possibly large error does not inflate the size
// of values containing it.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s", e.Err.Error())
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// SerializationError wraps a failure to parse an incoming measurement
// message as JSON.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("cannot parse measurement: %s", e.Err.Error())
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// ProtocolViolationError indicates that the peer sent a message that is
// not valid for the current subtest direction.
type ProtocolViolationError struct {
	Reason string
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("protocol violation: %s", e.Reason)
}
