package model

// The TCPInfo struct contains kernel counters measured by the server
// using TCP_INFO instrumentation. Not every kernel or platform exposes
// every counter, hence all fields are optional.
type TCPInfo struct {
	// BusyTime is the number of microseconds spent actively sending data.
	BusyTime *int64 `json:"BusyTime,omitempty"`

	// BytesAcked is the number of bytes acknowledged by the peer.
	BytesAcked *int64 `json:"BytesAcked,omitempty"`

	// BytesReceived is the number of bytes received from the peer.
	BytesReceived *int64 `json:"BytesReceived,omitempty"`

	// BytesSent is the number of bytes sent to the peer.
	BytesSent *int64 `json:"BytesSent,omitempty"`

	// BytesRetrans is the number of bytes retransmitted.
	BytesRetrans *int64 `json:"BytesRetrans,omitempty"`

	// ElapsedTime is the number of microseconds elapsed since the TCP
	// connection was established.
	ElapsedTime *int64 `json:"ElapsedTime,omitempty"`

	// MinRTT is the minimum round-trip time in microseconds.
	MinRTT *int64 `json:"MinRTT,omitempty"`

	// RTT is the smoothed round-trip time in microseconds.
	RTT *int64 `json:"RTT,omitempty"`

	// RTTVar is the round-trip time variance in microseconds.
	RTTVar *int64 `json:"RTTVar,omitempty"`

	// RWndLimited is the number of microseconds spent limited by the
	// receive window.
	RWndLimited *int64 `json:"RWndLimited,omitempty"`

	// SndBufLimited is the number of microseconds spent limited by the
	// send buffer.
	SndBufLimited *int64 `json:"SndBufLimited,omitempty"`
}
