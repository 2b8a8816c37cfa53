package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/aoi-inspection-client/internal/app"
	"github.com/samvad-hq/aoi-inspection-client/internal/config"
	"github.com/samvad-hq/aoi-inspection-client/internal/logger"
	"github.com/samvad-hq/aoi-inspection-client/pkg/aoi"
)

type commandContext struct {
	baseURL *string
	verbose *bool
	json    *bool

	once    sync.Once
	service *aoi.Service
	err     error
}

// aoiService loads config once and builds the adapter. --base-url wins over
// the configured AOI_BASE_URL.
func (c *commandContext) aoiService(cmd *cobra.Command) (*aoi.Service, error) {
	c.once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.err = err
			return
		}
		if u := strings.TrimSpace(*c.baseURL); u != "" {
			cfg.AOIBaseURL = u
		}
		level := cfg.LogLevel
		if *c.verbose {
			level = "debug"
		}
		c.service = app.NewAOIService(cfg, logger.NewWriter(cmd.ErrOrStderr(), level))
	})
	return c.service, c.err
}

func newRootCommand() *cobra.Command {
	var baseURL string
	var verbose, jsonOut bool
	ctx := &commandContext{baseURL: &baseURL, verbose: &verbose, json: &jsonOut}

	rootCmd := &cobra.Command{
		Use:           "aoictl",
		Short:         "Query AOI inspection results",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "AOI backend base URL (overrides AOI_BASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log each request to stderr")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Always print JSON, even on a terminal")

	rootCmd.AddCommand(newOptionsCommand(ctx))
	rootCmd.AddCommand(newSummaryCommand(ctx))
	rootCmd.AddCommand(newRawDataCommand(ctx))
	rootCmd.AddCommand(newDetailCommand(ctx))
	rootCmd.AddCommand(newImageCommand(ctx))

	return rootCmd
}
