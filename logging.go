package settings

import "time"

// Operations reported through ResolutionEvent.Op.
const (
	OpRead     = "read"
	OpWrite    = "write"
	OpReset    = "reset"
	OpValidate = "validate"
)

// ResolutionEvent describes a single read, write, reset or rule evaluation.
type ResolutionEvent struct {
	Op       string
	Class    Class
	OwnerID  string
	Setting  string
	Source   Source
	Engine   string
	Expr     string
	Duration time.Duration
	Err      error
}

// Logger records resolution events.
type Logger interface {
	LogResolution(ResolutionEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(ResolutionEvent)

// LogResolution implements Logger.
func (f LoggerFunc) LogResolution(event ResolutionEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogResolution(ResolutionEvent) {}
