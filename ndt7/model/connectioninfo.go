package model

// ConnectionInfo contains connection info. Only the server knows this
// information, hence only server measurements contain this structure.
type ConnectionInfo struct {
	// Client is the client endpoint as an `ip:port` string.
	Client string `json:"Client"`

	// Server is the server endpoint as an `ip:port` string.
	Server string `json:"Server"`

	// UUID is the internal unique identifier of this measurement.
	UUID string `json:"UUID,omitempty"`

	// StartTime is the connection start time in RFC 3339 format.
	StartTime string `json:"StartTime,omitempty"`
}
