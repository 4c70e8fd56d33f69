package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/docscout/internal/config"
)

// loadConfig builds the run configuration: defaults, then the config file,
// then the flags the user actually set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.Verbose, err = cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}

	// A missing file is only an error when the user named it.
	if path := config.FindConfigFile(cfg.ConfigFilePath); path != "" {
		f, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		cfg.ApplyFile(f)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if err := applyOutputFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// addOutputFlags registers the flags shared by discover and analyze.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output-dir", "o", config.DefaultOutputDir, "Directory receiving the exported files")
	cmd.Flags().StringSliceP("format", "f", []string{config.FormatJSON, config.FormatMarkdown, config.FormatCSV},
		"Export formats (json, markdown, csv); empty disables file export")
	cmd.Flags().Bool("save-db", false, "Record the run in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")
	cmd.Flags().String("user-agent", config.DefaultUserAgent, "User-Agent sent with every request")
}

func applyOutputFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var errs []error
	if flags.Changed("output-dir") {
		v, err := flags.GetString("output-dir")
		errs = append(errs, err)
		cfg.OutputDir = v
	}
	if flags.Changed("format") {
		v, err := flags.GetStringSlice("format")
		errs = append(errs, err)
		cfg.Formats = v
	}
	if flags.Changed("db-dir") {
		v, err := flags.GetString("db-dir")
		errs = append(errs, err)
		cfg.DBDir = v
	}
	if flags.Changed("user-agent") {
		v, err := flags.GetString("user-agent")
		errs = append(errs, err)
		cfg.UserAgent = v
	}
	v, err := flags.GetBool("save-db")
	errs = append(errs, err)
	cfg.SaveToDB = v
	return errors.Join(errs...)
}
