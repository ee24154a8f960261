/*
Package config loads fabricctl settings.

Settings come from four layers, each overriding the one before:

 1. Built-in defaults (see Default)
 2. An optional YAML file passed with --config
 3. FABRICAPI_* environment variables, including ones set by a .env file
    in the working directory
 4. Command-line flags, applied by fabricctl itself

# File Format

	log:
	  level: debug      # debug, info, warn or error
	  json: true        # structured output instead of console output
	archive:
	  path: /var/lib/fabricapi
	metrics:
	  addr: 127.0.0.1:9090

Unknown keys are rejected so that typos surface immediately.

# Environment

	FABRICAPI_LOG_LEVEL     log.level
	FABRICAPI_LOG_JSON      log.json (any strconv.ParseBool value)
	FABRICAPI_ARCHIVE_PATH  archive.path
	FABRICAPI_METRICS_ADDR  metrics.addr
*/
package config
