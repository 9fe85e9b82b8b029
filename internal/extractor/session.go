package extractor

import (
	"context"
	"errors"
	"net"
)

// ErrSessionDead marks errors caused by the automation handle itself being
// invalidated, distinct from per-page failures. The engine reacts to it with
// the bounded reconnection protocol; everything else is per-task noise.
var ErrSessionDead = errors.New("render session dead")

// IsSessionDead reports whether err belongs to the session-dead class.
func IsSessionDead(err error) bool {
	return errors.Is(err, ErrSessionDead)
}

// ClassifyError maps an operation error onto the task error taxonomy.
func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorNone
	}
	if IsSessionDead(err) {
		return ErrorSessionDead
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTimeout
	}
	return ErrorWebDriver
}
