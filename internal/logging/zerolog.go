package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewZerolog builds the component logger. Records are written to out as
// JSON; when console is set they are also pretty-printed to stdout.
func NewZerolog(out io.Writer, level string, console bool) zerolog.Logger {
	var writers []io.Writer
	if out != nil {
		writers = append(writers, out)
	}
	if console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}
	if len(writers) == 0 {
		return zerolog.Nop()
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Str("app", ServiceName).
		Logger()
}
