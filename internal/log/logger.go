package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"

	config "github.com/blockpulse/indexer/configs"
)

// InitLogger configures the zerolog globals once at process start. Component
// loggers created afterwards inherit the level set here.
func InitLogger() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	level := zerolog.WarnLevel
	if lvl, err := zerolog.ParseLevel(config.Cfg.Log.Level); err == nil && lvl != zerolog.NoLevel {
		level = lvl
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = NewLogger("indexer")
}

// NewLogger returns a logger tagged with the pipeline component emitting it,
// so one process running several stages stays greppable per stage.
func NewLogger(component string) zerolog.Logger {
	var out io.Writer = os.Stderr
	if config.Cfg.Log.Prettify {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	return zerolog.New(out).With().Timestamp().Caller().Str("component", component).Logger()
}
