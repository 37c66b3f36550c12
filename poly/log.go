package poly

import "github.com/op/go-logging"

// log is the package logger.
var log = logging.MustGetLogger("poly")
