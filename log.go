package goconstruct

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

var logger atomic.Pointer[zerolog.Logger]

func init() {
	nop := zerolog.Nop()
	logger.Store(&nop)
}

// SetLogger routes the engine's diagnostics (failed top-level calls at
// debug, switch dispatch at trace) to l. The default discards everything.
func SetLogger(l zerolog.Logger) { logger.Store(&l) }

// Logger returns the current engine logger.
func Logger() *zerolog.Logger { return logger.Load() }
