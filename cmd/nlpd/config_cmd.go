// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	var validatePath string
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate a configuration file",
		Args:  noArgs,
		RunE: func(*cobra.Command, []string) error {
			if _, err := loadConfig(validatePath, overridesNone()); err != nil {
				return err
			}
			name := validatePath
			if name == "" {
				name = "defaults"
			}
			fmt.Fprintf(stdout, "✓ %s is valid\n", name)
			return nil
		},
	}
	validate.Flags().StringVarP(&validatePath, "file", "f", "", "path to YAML configuration file")

	var (
		dumpPath   string
		dumpFormat string
	)
	dump := &cobra.Command{
		Use:   "dump",
		Short: "Print the merged configuration (defaults, file, environment)",
		Args:  noArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg, err := loadConfig(dumpPath, overridesNone())
			if err != nil {
				return err
			}
			if cfg.Cache.Redis.Password != "" {
				cfg.Cache.Redis.Password = "***"
			}
			switch dumpFormat {
			case "yaml":
				enc := yaml.NewEncoder(stdout)
				enc.SetIndent(2)
				if err := enc.Encode(cfg); err != nil {
					return err
				}
				return enc.Close()
			case "json":
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			default:
				return fmt.Errorf("%w: unsupported format %q (yaml, json)", errUsage, dumpFormat)
			}
		},
	}
	dump.Flags().StringVarP(&dumpPath, "file", "f", "", "path to YAML configuration file")
	dump.Flags().StringVar(&dumpFormat, "format", "yaml", "output format: yaml or json")

	cmd.AddCommand(validate, dump)
	return cmd
}
