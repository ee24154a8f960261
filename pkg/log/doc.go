/*
Package log provides structured logging for fabricapi using zerolog.

The package wraps a single global zerolog.Logger. Until Init is called the
logger is a no-op, which keeps the codec silent when embedded in an
application that has its own logging. The fabricctl binary calls Init from
its configuration.

# Configuration

	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: true,
		Output:     os.Stderr,
	})

Level filters messages below the threshold. JSONOutput selects JSON lines
over the human-readable console writer. Output defaults to stderr so that
converted payloads written to stdout stay clean.

# Context Loggers

  - WithComponent: tags logs with the emitting package ("codec", "archive")
  - WithRecordType: tags logs with the record being converted
  - WithDiscriminator: tags union dispatch with union, field and value

Example:

	logger := log.WithRecordType("HealthInformation")
	logger.Debug().Str("property", name).Msg("skipping unknown property")

# Levels

The codec only logs at debug level: skipped unknown properties and union
dispatch decisions. Failures are returned as errors, never logged and
swallowed.
*/
package log
