// Package logging contains the logger used across the ndt7 client.
package logging

import (
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
)

// Logger is a logger that logs messages on the standard error in a
// structured JSON format. Emitting logs on the standard error keeps
// the standard output free for the emitters' measurement output.
var Logger = log.Logger{
	Handler: json.New(os.Stderr),
	Level:   log.WarnLevel,
}

// SetVerbose lowers the logging level so that debug messages emitted
// by the subtest engines become visible.
func SetVerbose() {
	Logger.Level = log.DebugLevel
}
