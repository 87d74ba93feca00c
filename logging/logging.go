// Package logging configures the process-wide commonlog backend used by
// every owiz component.
package logging

import (
	"sync"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"github.com/tliron/kutil/util"
)

// Logger names.
const (
	GC      = "owiz.gc"
	Machine = "owiz.machine"
	Modules = "owiz.modules"
)

var (
	mu          sync.Mutex
	initialized bool
)

// Init configures logging for the life of the process. verbosity follows
// commonlog: 0 logs notices and above, 1 adds info, 2 adds debug, negative
// values silence progressively more. An empty path logs to stderr. Only the
// first call takes effect until Shutdown.
func Init(verbosity int, path string) {
	mu.Lock()
	defer mu.Unlock()
	if initialized {
		return
	}
	commonlog.Initialize(verbosity, path)
	initialized = true
}

// Shutdown silences logging and allows Init to be called again.
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()
	if !initialized {
		return
	}
	commonlog.Configure(-4, nil)
	initialized = false
}

// Initialized reports whether Init has taken effect.
func Initialized() bool {
	mu.Lock()
	defer mu.Unlock()
	return initialized
}

// Get returns the named logger.
func Get(name string) commonlog.Logger {
	return commonlog.GetLogger(name)
}

// Exit flushes buffered log output and terminates the process.
func Exit(code int) {
	util.Exit(code)
}

// FlushOnSignals arranges for buffered log output to be flushed when the
// process is interrupted.
func FlushOnSignals() {
	util.ExitOnSignals()
}
