package gpu

import "log"

// Logger is the ambient logging interface, deliberately narrow enough
// that *log.Logger from the standard library satisfies it without any
// adapter. Debug-gated tracing (malformed chains, allocation failures,
// the config-write diagnostic) goes through this rather than a
// structured logging library — there is nothing in the corpus this core
// is grounded on that reaches for one, and a two-method interface keeps
// the core decoupled from any particular logging stack the embedder
// already runs.
type Logger interface {
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

// defaultLogger wraps the standard library's package-level logger so a
// Device always has somewhere to send diagnostics if the caller didn't
// supply one.
var defaultLogger Logger = log.Default()
