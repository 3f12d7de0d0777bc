package client

import (
	"testing"

	"go.uber.org/goleak"
)

// The subtest engines spawn goroutines that must all be reaped once a
// stream closes, including when a peer misbehaves or vanishes.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
