package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/groblegark/cadence/internal/client"
	"github.com/groblegark/cadence/internal/model"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Inspect synced daily metrics",
}

// exitDailyErr prints a friendlier message when the metrics backend is off.
func exitDailyErr(err error) {
	if client.IsBackendDisabled(err) {
		fmt.Fprintln(os.Stderr, "Error: the server's metrics backend is disabled")
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}

var dailyGetCmd = &cobra.Command{
	Use:   "get [<date>]",
	Short: "Show one day's metrics (defaults to today)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date := time.Now().Format("2006-01-02")
		if len(args) == 1 {
			date = args[0]
		}
		row, err := apiClient.GetDaily(context.Background(), date)
		if err != nil {
			exitDailyErr(err)
		}
		if jsonOutput {
			printJSON(row)
			return nil
		}
		printDailyTable([]*model.DailyMetrics{row})
		return nil
	},
}

var dailyRangeCmd = &cobra.Command{
	Use:   "range <start> <end>",
	Short: "Show metrics for an inclusive date range",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := apiClient.GetDailyRange(context.Background(), args[0], args[1])
		if err != nil {
			exitDailyErr(err)
		}
		if jsonOutput {
			printJSON(rows)
			return nil
		}
		if len(rows) == 0 {
			fmt.Println("no rows in range")
			return nil
		}
		printDailyTable(rows)
		return nil
	},
}

var dailyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all daily metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		export, err := apiClient.ExportDaily(context.Background())
		if err != nil {
			exitDailyErr(err)
		}
		printJSON(export)
		return nil
	},
}

var dailyImportCmd = &cobra.Command{
	Use:   "import [<file>]",
	Short: "Import a daily-metrics export (reads stdin when no file is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if len(args) == 1 {
			data, err = os.ReadFile(args[0])
		} else {
			data, err = readStdin()
		}
		if err != nil {
			return err
		}

		var export model.DailyExport
		if err := json.Unmarshal(data, &export); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing export: %v\n", err)
			os.Exit(1)
		}

		count, err := apiClient.ImportDaily(context.Background(), &export)
		if err != nil {
			exitDailyErr(err)
		}
		fmt.Printf("imported %d rows\n", count)
		return nil
	},
}

func init() {
	dailyCmd.AddCommand(dailyGetCmd)
	dailyCmd.AddCommand(dailyRangeCmd)
	dailyCmd.AddCommand(dailyExportCmd)
	dailyCmd.AddCommand(dailyImportCmd)
}
