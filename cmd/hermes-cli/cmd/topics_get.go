package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/hermes/cmd/hermes-cli/internal/topics"
)

var getOutputFormat string

// topicsGetCmd represents the topics get command
var topicsGetCmd = &cobra.Command{
	Use:   "get <topic-name>",
	Short: "Show details of a catalog topic",
	Long: `Show the component, payload kind, description, subscription pattern,
path parameters and example payload of a catalog topic.

Examples:
  hermes-cli topics get hermes/tts/say
  hermes-cli topics get "hermes/audioServer/{siteId}/playBytes/{id}" --format json`,
	Args: cobra.ExactArgs(1),
	RunE: topicsGetHandler,
}

func topicsGetHandler(cmd *cobra.Command, args []string) error {
	manager, err := catalog()
	if err != nil {
		return err
	}

	topic, found := manager.Get(args[0])
	if !found {
		return fmt.Errorf("topic '%s' not found, use 'hermes-cli topics list' to see all topics", args[0])
	}
	return topics.DisplayTopicDetails(cmd.OutOrStdout(), topic, getOutputFormat)
}

func init() {
	topicsCmd.AddCommand(topicsGetCmd)

	topicsGetCmd.Flags().StringVarP(&getOutputFormat, "format", "f", "table", "Output format (table, json)")
}
