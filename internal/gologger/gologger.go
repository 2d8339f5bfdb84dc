// Package gologger builds the zerolog loggers used across tsvload.
//
// Output is JSON on stdout by default. Options.Pretty switches to a console
// writer on stderr. DEBUG=1 in the environment lowers the global level to
// debug regardless of Options.Level.
package gologger

import (
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		function := ""
		fun := runtime.FuncForPC(pc)
		if fun != nil {
			funName := fun.Name()
			slash := strings.LastIndex(funName, "/")
			if slash > 0 {
				funName = funName[slash+1:]
			}
			function = " " + funName + "()"
		}
		return file + ":" + strconv.Itoa(line) + function
	}
}

// Options overrides the environment-driven defaults.
type Options struct {
	Level  string // debug, info, warn, error; empty keeps the current level
	Pretty bool
	Out    io.Writer // defaults to os.Stdout (os.Stderr when pretty)
}

// New returns a timestamped logger with a caller hook.
func New(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFieldName = "time"

	out := opts.Out
	if out == nil {
		out = os.Stdout
		if opts.Pretty {
			out = os.Stderr
		}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	logger = logger.Hook(CallerHook{})

	if opts.Pretty {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen})
	}
	if os.Getenv("DEBUG") == "1" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else if opts.Level != "" {
		zerolog.SetGlobalLevel(ParseLevel(opts.Level))
	}

	return logger
}

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type CallerHook struct{}

func (h CallerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Caller(3)
}
