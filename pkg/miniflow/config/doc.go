/*
Package config provides type-safe configuration extraction from map[string]any.

# Overview

Config wraps a map[string]any, as produced by decoding YAML or JSON, and
provides typed accessors that fall back to a default on missing keys or
type mismatches. The same wrapper reads loose values out of a run's
miniflow.State:

	threshold := config.New(state).Int("threshold", 8)

# Layering

Load stacks defaults, an optional YAML or JSON file, and dotted-key
overrides such as "store.backend" from command-line flags. Merge is the
primitive underneath it. Decode then fills a tagged struct:

	type ServerConfig struct {
	    Addr        string        `mapstructure:"addr"`
	    ReadTimeout time.Duration `mapstructure:"read_timeout"`
	}

	cfg, err := config.Load(defaults, "miniflow.yaml", map[string]any{"addr": ":9000"})
	if err != nil {
	    log.Fatal(err)
	}
	var sc ServerConfig
	err = cfg.Decode(&sc)

# Type Coercion

Duration accepts strings parsed with time.ParseDuration and numbers of
seconds. Int accepts decimal strings and truncates float64 values toward
zero, so a threshold of 7.5 reads as 7.

# Thread Safety

Config is safe for concurrent read access. Merge and Sub never modify
their inputs.
*/
package config
