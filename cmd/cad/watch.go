package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/groblegark/cadence/internal/events"
	"github.com/groblegark/cadence/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream config and daily-metrics change events",
	Long: `Stream change events as they happen.

By default events come over the server's SSE endpoint. With --nats the
command subscribes to the NATS bus directly, which also surfaces events
published by other server instances sharing the bus.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		topicsFlag, _ := cmd.Flags().GetString("topics")
		natsURL, _ := cmd.Flags().GetString("nats")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if natsURL != "" {
			return watchNATS(ctx, natsURL, topicsFlag)
		}

		var topics []string
		if topicsFlag != "" {
			topics = strings.Split(topicsFlag, ",")
		}

		ch, err := apiClient.Watch(ctx, topics)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		for {
			select {
			case <-ctx.Done():
				return nil
			case evt, ok := <-ch:
				if !ok {
					// Server closed the stream.
					return nil
				}
				if evt.Event == "ping" {
					continue
				}
				if jsonOutput {
					printJSON(evt)
					continue
				}
				printWatchEvent(evt.Event, string(evt.Data))
			}
		}
	},
}

// watchNATS consumes the event bus directly. The topic flag is a single NATS
// subject pattern here; it defaults to every cadence subject.
func watchNATS(ctx context.Context, url, topic string) error {
	if topic == "" {
		topic = events.TopicWildcard
	}

	sub, err := events.NewNATSSubscriber(url)
	if err != nil {
		return err
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(topic)
	if err != nil {
		return err
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			env, err := events.DecodeEnvelope(msg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "skipping malformed event: %v\n", err)
				continue
			}
			if jsonOutput {
				printJSON(env)
				continue
			}
			printWatchEvent(env.Topic, string(env.Data))
		}
	}
}

func printWatchEvent(name, data string) {
	ts := time.Now().Format("15:04:05")
	fmt.Printf("%s %s %s\n",
		ui.RenderMuted(ts),
		ui.RenderAccent(name),
		data,
	)
}

func init() {
	watchCmd.Flags().String("topics", "", "comma-separated topic patterns (e.g. cadence.config.*)")
	watchCmd.Flags().String("nats", "", "subscribe via NATS at this URL instead of the server's SSE stream")
}
