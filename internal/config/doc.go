// Package config provides centralized configuration management for electcli.
// It handles loading configuration from multiple sources, validation, and the
// layout of output files.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority), optionally seeded from .env
//	2. A YAML configuration file (config.yaml, configs/config.yaml or ELECT_CONFIG_FILE)
//	3. Default values (lowest priority)
//
// Command-line flags are applied on top by each command.
//
// # Environment Variables
//
// All environment variables follow the pattern ELECT_<SECTION>_<FIELD>:
//
//	ELECT_LOGGING_LEVEL=debug
//	ELECT_PATHS_OUTPUT_DIR=out
//	ELECT_PIPELINE_SKIP_ROWS=3
//	ELECT_PIPELINE_ALL_SHEETS=true
//	ELECT_TELEMETRY_METRICS_FILE=out/electcli.prom
//
// # Validation
//
// Struct tags are checked with go-playground/validator at load time.
//
// # Output Layout
//
//	paths := config.NewPaths("out", "")
//	paths.ConstituenciesCSV // out/constituencies.csv
//	paths.ForSheet("2019")  // out/2019/...
package config
