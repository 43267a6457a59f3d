package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/hermes/internal/filter"
	"github.com/nfrund/hermes/internal/pubsub"
)

var waitWhere string

var waitCmd = &cobra.Command{
	Use:   "wait <pattern>",
	Short: "Block until one matching message arrives",
	Long: `Wait for the first message on a pattern, optionally filtered with a Tengo
expression, and print it. Exits non-zero when --timeout expires first.

Examples:
  hermes-cli wait "hermes/hotword/+/detected" --timeout 1m
  hermes-cli wait hermes/tts/sayFinished --where 'payload.id == "42"'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()

		var match pubsub.Predicate
		if waitWhere != "" {
			f, err := filter.Compile(waitWhere, filter.WithTopics(deps.Topics), filter.WithLogger(deps.Logger))
			if err != nil {
				return err
			}
			match = f.Predicate()
		}

		msg, err := deps.Engine.WaitFor(cmd.Context(), args[0], match, deps.Config.RequestTimeout)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", msg.Topic, describePayload(msg.Payload))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)

	waitCmd.Flags().StringVar(&waitWhere, "where", "", "Tengo filter expression")
}
