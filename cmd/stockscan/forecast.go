package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newthinker/stockscan/internal/app"
	"github.com/newthinker/stockscan/internal/core"
	"github.com/newthinker/stockscan/internal/forecast"
	"github.com/newthinker/stockscan/internal/pipeline"
)

var forecastSample int

var forecastCmd = &cobra.Command{
	Use:   "forecast <identifier>",
	Short: "Print the linear trend forecast for an ISIN or ticker as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().IntVar(&forecastSample, "sample", pipeline.DefaultSampleSize, "number of most recent daily bars to fit")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	symbol, ok := a.Resolver.Resolve(ctx, args[0])
	if !ok {
		return core.ErrSymbolNotResolved
	}
	series, ok := a.Fetcher.Series(ctx, symbol, core.CategoryDaily)
	if !ok {
		return core.WrapError(core.ErrNoData, fmt.Errorf("no daily series for %s", symbol))
	}

	result := forecast.Compute(pipeline.Sample(series, forecastSample))
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"symbol":   symbol,
		"points":   len(series),
		"forecast": result,
		"summary":  result.Summary(),
	})
}
