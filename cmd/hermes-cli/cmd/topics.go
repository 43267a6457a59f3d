package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nfrund/hermes/internal/hermes"
	"github.com/nfrund/hermes/internal/topicmgr"
)

// topicsCmd represents the topics command
var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Explore the Hermes topic catalog",
	Long: `The topics command provides tools for discovering, inspecting, and validating
the topics of the Hermes protocol.

Available subcommands:
  list      List catalog topics with optional filtering
  get       Show details of a topic
  validate  Validate a topic template
  resolve   Find the catalog topic of a concrete topic

Examples:
  hermes-cli topics list
  hermes-cli topics list --component tts
  hermes-cli topics get "hermes/hotword/{modelId}/detected"
  hermes-cli topics resolve hermes/intent/turnOnLights`,
}

// catalog returns a manager holding the Hermes topic catalog.
func catalog() (*topicmgr.Manager, error) {
	m := topicmgr.NewManager()
	if err := hermes.RegisterTopics(m); err != nil {
		return nil, err
	}
	return m, nil
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}
