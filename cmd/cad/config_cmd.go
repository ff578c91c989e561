package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/groblegark/cadence/internal/model"
	"github.com/groblegark/cadence/internal/schema"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage tracker configuration (checklist, rhythm, actions, scoring)",
}

func parseCategory(arg string) (schema.Category, error) {
	cat := schema.Category(arg)
	for _, known := range schema.Categories {
		if cat == known {
			return cat, nil
		}
	}
	return "", &schema.UnknownCategoryError{Category: arg}
}

var configGetCmd = &cobra.Command{
	Use:   "get <category>",
	Short: "Show the current value of a config category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := parseCategory(args[0])
		if err != nil {
			return err
		}
		data, err := apiClient.GetConfig(context.Background(), cat)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printRawJSON(data)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <category> [<json-value>]",
	Short: "Replace a config category (reads stdin when no value is given)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := parseCategory(args[0])
		if err != nil {
			return err
		}

		var value []byte
		if len(args) == 2 {
			value = []byte(args[1])
		} else {
			value, err = readStdin()
			if err != nil {
				return err
			}
		}
		if !json.Valid(value) {
			fmt.Fprintln(os.Stderr, "Error: value must be valid JSON")
			os.Exit(1)
		}

		data, err := apiClient.SetConfig(context.Background(), cat, value)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printRawJSON(data)
		return nil
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset <category>",
	Short: "Reset a config category to its default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := parseCategory(args[0])
		if err != nil {
			return err
		}
		data, err := apiClient.ResetConfig(context.Background(), cat)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("reset %s to default\n", cat)
		printRawJSON(data)
		return nil
	},
}

var configHistoryCmd = &cobra.Command{
	Use:   "history <category>",
	Short: "Show prior values of a config category, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := parseCategory(args[0])
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		entries, err := apiClient.ConfigHistory(context.Background(), cat, limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if jsonOutput {
			printJSON(entries)
			return nil
		}
		if len(entries) == 0 {
			fmt.Println("no history")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%d  %s\n", e.ID, e.CreatedAt.Format("2006-01-02 15:04:05"))
			printRawJSON(e.Data)
		}
		return nil
	},
}

var configExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all config categories as a snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshot, err := apiClient.ExportConfigs(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printJSON(snapshot)
		return nil
	},
}

var configImportCmd = &cobra.Command{
	Use:   "import [<file>]",
	Short: "Import a config snapshot (reads stdin when no file is given)",
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

		var snapshot model.ConfigSnapshot
		if err := json.Unmarshal(data, &snapshot); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing snapshot: %v\n", err)
			os.Exit(1)
		}

		applied, err := apiClient.ImportConfigs(context.Background(), &snapshot)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("imported %d categories: %v\n", len(applied), applied)
		return nil
	},
}

func init() {
	configHistoryCmd.Flags().Int("limit", 0, "maximum entries to show (server default when 0)")

	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configResetCmd)
	configCmd.AddCommand(configHistoryCmd)
	configCmd.AddCommand(configExportCmd)
	configCmd.AddCommand(configImportCmd)
}
