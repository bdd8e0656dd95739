package main

import (
	"io"

	"github.com/hashicorp/go-hclog"

	settings "github.com/goliatone/go-settings"
)

func newHCLogger(out io.Writer, level string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "settingsctl",
		Level:  hclog.LevelFromString(level),
		Output: out,
	})
}

// resolutionLogger forwards resolution events to hclog. Failures log at warn,
// everything else at debug.
type resolutionLogger struct {
	log hclog.Logger
}

func (l resolutionLogger) LogResolution(event settings.ResolutionEvent) {
	args := []any{
		"class", string(event.Class),
		"owner_id", event.OwnerID,
		"setting", event.Setting,
		"duration", event.Duration,
	}
	if event.Source != settings.SourceNone {
		args = append(args, "source", string(event.Source))
	}
	if event.Engine != "" {
		args = append(args, "engine", event.Engine, "expr", event.Expr)
	}
	if event.Err != nil {
		l.log.Warn(event.Op, append(args, "error", event.Err)...)
		return
	}
	l.log.Debug(event.Op, args...)
}
