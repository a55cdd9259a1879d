package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amaumene/festplan/internal/config"
	"github.com/amaumene/festplan/internal/services/festival"
	"github.com/amaumene/festplan/internal/utils"
	"github.com/spf13/cobra"
)

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <url>",
		Short: "Fetch a festival page and print the extracted screenings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
			logger.SetOutput(cmd.ErrOrStderr())

			venues, err := utils.LoadVenues(cfg.VenuesFile)
			if err != nil {
				return fmt.Errorf("failed to load venues: %w", err)
			}
			client := festival.NewClient(
				festival.NewExtractor(festival.WithFestival(cfg.FestivalBaseURL, cfg.FestivalName), festival.WithVenues(venues)),
				logger,
				festival.WithCacheTTL(0),
			)

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			result, err := client.Parse(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
