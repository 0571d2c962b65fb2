// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/radiopage/internal/config"
	"github.com/ManuGH/radiopage/internal/version"
)

func runConfigCLI(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage()
		return 0
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:])
	case "dump":
		return runConfigDump(args[1:], os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage()
		return 2
	}
}

func printConfigUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  radiopage config validate --file|-f config.yaml")
	fmt.Fprintln(os.Stderr, "  radiopage config dump [--file|-f config.yaml] [--format=yaml|json]")
}

func runConfigValidate(args []string) int {
	fs := flag.NewFlagSet("radiopage config validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var file string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	configPath := strings.TrimSpace(file)
	if configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		return 2
	}

	if _, err := config.NewLoader(configPath, version.Version).Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error in %s:\n  %v\n", configPath, err)
		return 1
	}

	fmt.Printf("✓ %s is valid\n", configPath)
	return 0
}

// runConfigDump prints the effective configuration (defaults + file + env)
// with secrets redacted.
func runConfigDump(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("radiopage config dump", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var file, format string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	fs.StringVar(&format, "format", "yaml", "output format: yaml or json")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.NewLoader(strings.TrimSpace(file), version.Version).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}
	if cfg.Cache.RedisPassword != "" {
		cfg.Cache.RedisPassword = "***"
	}
	cfg.Upstream.BaseURL = maskURL(cfg.Upstream.BaseURL)
	cfg.Upstream.ScheduleBaseURL = maskURL(cfg.Upstream.ScheduleBaseURL)

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding config: %v\n", err)
			return 1
		}
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding config: %v\n", err)
			return 1
		}
		_ = enc.Close()
	default:
		fmt.Fprintf(os.Stderr, "Error: unsupported format %q\n", format)
		return 2
	}
	return 0
}
