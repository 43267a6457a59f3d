package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/nfrund/hermes/internal/filter"
	"github.com/nfrund/hermes/internal/hermes"
	"github.com/nfrund/hermes/internal/pubsub"
	"github.com/nfrund/hermes/internal/storage"
	"github.com/nfrund/hermes/internal/topicmgr"
)

var (
	subCount  int
	subWhere  string
	subRecord bool
)

var subCmd = &cobra.Command{
	Use:   "sub <pattern>...",
	Short: "Print messages matching subscription patterns",
	Long: `Subscribe to one or more patterns and print every message until interrupted.

--where takes a Tengo expression evaluated for each message with the variables
topic, payload (decoded JSON), size and params (catalog path parameters).
--record saves every audio frame under frames/<siteId>/ in the working directory.

Examples:
  hermes-cli sub "hermes/#"
  hermes-cli sub "hermes/intent/+" --where 'payload.intent.confidenceScore > 0.8'
  hermes-cli sub "hermes/audioServer/+/audioFrame" --record --count 100`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		deps, err := connect(ctx)
		if err != nil {
			return err
		}
		defer deps.Close()

		var where *filter.Filter
		if subWhere != "" {
			where, err = filter.Compile(subWhere, filter.WithTopics(deps.Topics))
			if err != nil {
				return err
			}
		}

		recorder := audioStore()
		out := cmd.OutOrStdout()
		var seen atomic.Int64

		handler := func(ctx context.Context, msg pubsub.Message) error {
			if where != nil {
				ok, err := where.Match(ctx, msg)
				if err != nil || !ok {
					return err
				}
			}
			if subRecord {
				if err := record(ctx, deps.Topics, recorder, msg); err != nil {
					slog.Warn("failed to record frame", "topic", msg.Topic, "error", err)
				}
			}

			fmt.Fprintf(out, "%s %s\n", msg.Topic, describePayload(msg.Payload))
			if subCount > 0 && seen.Add(1) >= int64(subCount) {
				cancel()
			}
			return nil
		}

		for _, pattern := range args {
			if _, err := deps.Engine.On(pattern, handler); err != nil {
				return err
			}
		}

		<-ctx.Done()
		return nil
	},
}

// record saves msg when it is an audio frame of the catalog.
func record(ctx context.Context, topics *topicmgr.Manager, recorder *storage.AudioStore, msg pubsub.Message) error {
	topic, params, ok := topics.Resolve(msg.Topic)
	if !ok || topic.Name() != hermes.TopicAudioFrame.Name() {
		return nil
	}
	path, err := recorder.SaveFrame(ctx, params["siteId"], msg.Payload)
	if err != nil {
		return err
	}
	slog.Debug("recorded audio frame", "path", path)
	return nil
}

func init() {
	rootCmd.AddCommand(subCmd)

	subCmd.Flags().IntVarP(&subCount, "count", "n", 0, "Exit after this many messages")
	subCmd.Flags().StringVar(&subWhere, "where", "", "Tengo filter expression")
	subCmd.Flags().BoolVar(&subRecord, "record", false, "Save audio frames to frames/<siteId>/")
}
