package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/newthinker/stockscan/internal/app"
	"github.com/newthinker/stockscan/internal/pipeline"
)

var scanJSON bool

var scanCmd = &cobra.Command{
	Use:   "scan <identifier>",
	Short: "Run the advice pipeline for an ISIN or ticker and print its events",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print every event as a JSON line")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	outcome := a.Pipeline.Run(ctx, args[0], func(e pipeline.Event) {
		if scanJSON {
			enc.Encode(map[string]any{"event": e.Type, "data": e.Data})
			return
		}
		switch d := e.Data.(type) {
		case pipeline.ProgressEvent:
			status := d.Status
			if d.Message != "" {
				status += ": " + d.Message
			}
			fmt.Fprintf(os.Stderr, "[%3d%%] %s (%s)\n", d.Percent, d.Step, status)
		case pipeline.StepFailed:
			fmt.Fprintf(os.Stderr, "failed: %s: %s\n", d.Step, d.Message)
		case pipeline.Chunk:
			fmt.Fprint(out, d.Text)
		}
	})

	if !scanJSON {
		fmt.Fprintln(out)
	}
	if !outcome.Success {
		return fmt.Errorf("advice run failed: %s", outcome.Reason)
	}
	if !scanJSON {
		fmt.Fprintf(os.Stderr, "session: %s\n", outcome.SessionID)
	}
	return nil
}
