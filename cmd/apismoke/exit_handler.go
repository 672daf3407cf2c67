package main

import (
	"os"

	"github.com/loykin/apismoke/internal/common"
)

// ExitHandler lets tests observe termination instead of exiting.
type ExitHandler interface {
	Exit(code int)
	LogFatalError(err error, msg string, keyvals ...any)
}

type osExitHandler struct{}

func (osExitHandler) Exit(code int) {
	os.Exit(code)
}

// LogFatalError logs through the current default logger, which may have been
// replaced by the command's logging setup, and exits 1.
func (h osExitHandler) LogFatalError(err error, msg string, keyvals ...any) {
	common.LogError(msg, err, append([]any{"component", "main"}, keyvals...)...)
	h.Exit(1)
}

var exitHandler ExitHandler = osExitHandler{}
