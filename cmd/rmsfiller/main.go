// Command rmsfiller automates the RMS class-routine page: "scrape" exports
// every slot's subjects and reachable dates as a workbook, "fill" replays an
// edited workbook back into the attendance modal.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pranjalchakraborty/RMS-filler/internal/browser"
	"github.com/pranjalchakraborty/RMS-filler/internal/logger"
	"github.com/pranjalchakraborty/RMS-filler/internal/task"
	"github.com/pranjalchakraborty/RMS-filler/pkg/config"
	"github.com/pranjalchakraborty/RMS-filler/pkg/notify"
	"github.com/pranjalchakraborty/RMS-filler/pkg/report"
	"github.com/pranjalchakraborty/RMS-filler/pkg/routine"
)

func main() {
	root := &cobra.Command{
		Use:           "rmsfiller",
		Short:         "Scrape and bulk-fill the RMS class routine page",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(scrapeCmd(), fillCmd())

	if err := root.Execute(); err != nil {
		logrus.Errorf("❌ %v", err)
		os.Exit(1)
	}
}

// setup wires a runner from configuration. The returned cleanup shuts the
// browser session down.
func setup() (*task.Runner, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger.Init(cfg)

	b := browser.New(cfg)
	runner := &task.Runner{
		Session:    b,
		Page:       routine.NewChromePage(cfg.WaitTimeout, cfg.SubmitTimeout),
		Exporter:   report.FileExporter{Dir: cfg.OutputDir},
		Notifier:   notify.NewClient(cfg.WebhookURL),
		RunTimeout: cfg.RunTimeout,
	}
	return runner, b.Close, nil
}

func scrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Scrape every slot's subjects and reachable dates into " + report.ScrapeFileName,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, cleanup, err := setup()
			if err != nil {
				return err
			}
			defer cleanup()

			ack := runner.Dispatch(task.Scrape{})
			if !ack.Accepted {
				return fmt.Errorf("scrape rejected: %s", ack.Reason)
			}
			runner.Wait()
			return nil
		},
	}
}

func fillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fill <workbook.xlsx>",
		Short: "Replay an edited workbook's Ready rows into the attendance modal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading workbook: %w", err)
			}
			input, err := report.DecodeInput(data)
			if err != nil {
				return err
			}

			runner, cleanup, err := setup()
			if err != nil {
				return err
			}
			defer cleanup()

			ack := runner.Dispatch(task.Fill{Headers: input.Headers, Rows: input.Rows})
			if !ack.Accepted {
				return fmt.Errorf("fill rejected: %s", ack.Reason)
			}
			runner.Wait()
			return nil
		},
	}
}
