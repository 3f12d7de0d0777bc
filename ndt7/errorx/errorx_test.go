package errorx

import (
	"errors"
	"strings"
	"testing"
)

func TestTransportErrorUnwrap(t *testing.T) {
	inner := errors.New("connection reset by peer")
	err := &TransportError{Err: inner}
	if !errors.Is(err, inner) {
		t.Fatal("expected to unwrap the inner error")
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestSerializationErrorUnwrap(t *testing.T) {
	inner := errors.New("unexpected end of JSON input")
	err := &SerializationError{Err: inner}
	if !errors.Is(err, inner) {
		t.Fatal("expected to unwrap the inner error")
	}
}

func TestDiscoveryErrorUnwrap(t *testing.T) {
	inner := errors.New("dial tcp: i/o timeout")
	err := &DiscoveryError{Err: inner}
	if !errors.Is(err, inner) {
		t.Fatal("expected to unwrap the inner error")
	}
}

func TestServiceUnsupportedErrorMessage(t *testing.T) {
	err := &ServiceUnsupportedError{URL: "wss://example.org/ndt/v8/download"}
	if !strings.Contains(err.Error(), "/ndt/v8/download") {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestProtocolViolationErrorMessage(t *testing.T) {
	err := &ProtocolViolationError{Reason: "binary message during upload"}
	if !strings.Contains(err.Error(), "binary message") {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}
