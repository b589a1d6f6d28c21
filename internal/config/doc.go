// Package config provides configuration loading for the reactor CLI.
//
// The configuration is stored in reactor.yaml in the working directory, or in
// the file passed with --config. Every key can be overridden from the
// environment with the REACTOR_ prefix, dots replaced by underscores.
//
// # Configuration File Structure
//
//	log:
//	  level: info        # debug, info, warn, error
//	  format: text       # text, json
//	runtime:
//	  recursion_limit: 100
//	  debug: false
//	metrics:
//	  enabled: true
//	  namespace: reactor
//	  addr: ":9464"
//	tracing:
//	  enabled: false
//	  tracer_name: reactor
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	logger := cfg.Logger(os.Stderr)
//	rt := reactive.NewRuntime(cfg.RuntimeOptions(logger, cfg.Observers(reg)...)...)
package config
