package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/groblegark/cadence/internal/model"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printRawJSON(raw json.RawMessage) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(buf.String())
}

func readStdin() ([]byte, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return data, nil
}

func printDailyTable(rows []*model.DailyMetrics) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tDONE\tACTIONS\tSCORE")
	for _, r := range rows {
		done := 0
		for _, v := range r.Checklist {
			if v {
				done++
			}
		}
		actions := 0
		for _, n := range r.Actions {
			actions += n
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", r.Date, done, actions, r.Score)
	}
	w.Flush()
}
