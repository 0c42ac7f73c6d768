// Package config loads hookrt.yaml, the configuration file read by the
// hookrt command.
//
// # Configuration File Structure
//
//	log:
//	  level: info        # debug, info, warn, error
//	  format: text       # text or json
//	runtime:
//	  maxRenders: 1000   # renders allowed per update before giving up
//	  traceRenders: true # emit a span for every render
//	metrics:
//	  enabled: true
//	  namespace: hookrt
//	  buckets: [0.0005, 0.001, 0.005, 0.01, 0.05]
//	devtools:
//	  addr: localhost:7070
//	  allowedOrigins: ["http://localhost:3000"]
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    errors.Fprint(os.Stderr, err)
//	    os.Exit(1)
//	}
//	logger := cfg.Logger(os.Stderr)
package config
