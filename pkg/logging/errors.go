package logging

import "errors"

// ErrInvalidLogLevel is returned by New when Config.Level is not one of
// the recognized level names.
var ErrInvalidLogLevel = errors.New("invalid log level")
