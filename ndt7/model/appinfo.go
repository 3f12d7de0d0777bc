package model

// AppInfo contains an application level measurement. This structure is
// described in the ndt7 specification.
type AppInfo struct {
	// ElapsedTime is the number of microseconds elapsed since the
	// beginning of the subtest.
	ElapsedTime int64 `json:"ElapsedTime"`

	// NumBytes is the number of application level bytes transferred
	// so far.
	NumBytes int64 `json:"NumBytes"`
}
