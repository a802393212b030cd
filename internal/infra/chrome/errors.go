package chrome

import (
	"context"
	"errors"
	"io"
	"strings"
)

var (
	// ErrEngineClosed is returned after Stop; the instance is shutting down.
	ErrEngineClosed = errors.New("engine is closed")
	// ErrEngineDown means the browser connection is gone and a restart is
	// needed before new contexts can be created.
	ErrEngineDown = errors.New("engine connection is down")
)

// IsSessionInterrupted reports whether err looks like the browser process or
// its DevTools connection went away mid-operation, as opposed to an ordinary
// render failure.
func IsSessionInterrupted(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrEngineDown) || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	s := err.Error()
	for _, marker := range []string{
		"target closed",
		"browser closed",
		"context canceled",
		"websocket",
		"connection refused",
	} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
