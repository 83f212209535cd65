/*
Package log provides structured logging for doculexd using zerolog.

The package wraps zerolog with a single global Logger, configurable
level and output, and a handful of context-logger helpers for the
concerns this server actually has: per-connection and per-verb
scoping.

# Usage

	import "github.com/corvid-labs/doculex/pkg/log"

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	log.Info("doculexd starting")

	connLog := log.WithConnID(connID)
	connLog.Info().Msg("connection accepted")
	connLog.Error().Err(err).Msg("write failed")

	reqLog := connLog.With().Str("verb", "SET").Logger()
	reqLog.Debug().Msg("request handled")

# Design Patterns

Global Logger Pattern:
  - A single package-level Logger, initialized once via Init, used
    from every package without threading a logger through call chains.

Context Logger Pattern:
  - WithConnID and WithVerb derive child loggers that carry a field on
    every subsequent line, rather than repeating it at each call site.

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
*/
package log
