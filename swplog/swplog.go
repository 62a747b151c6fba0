// Package swplog centralizes the glog + github.com/pkg/errors logging idiom:
// unwrap a stack trace if the error carries one, then log at the appropriate
// glog level.
package swplog

import (
	"fmt"

	"github.com/pkg/errors"
)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func stackTrace(err error) errors.StackTrace {
	if e, ok := err.(stackTracer); ok {
		return e.StackTrace()
	}
	return nil
}

// Dropped logs a protocol-layer error that is swallowed rather than
// propagated to the caller (decode failures, link-send failures).
func Dropped(logf func(format string, args ...interface{}), context string, err error) {
	logf("%s: %s%+v", context, err, stackTrace(err))
}

// FatalString renders a fatal startup error: the message followed by its
// stack trace, if any.
func FatalString(err error) string {
	return fmt.Sprintf("%s%+v", err, stackTrace(err))
}
