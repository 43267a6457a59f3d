package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/nfrund/hermes/cmd/hermes-cli/internal/topics"
	"github.com/nfrund/hermes/internal/topicmgr"
)

var errValidationFailed = errors.New("validation failed")

// topicsValidateCmd represents the topics validate command
var topicsValidateCmd = &cobra.Command{
	Use:   "validate <topic-template>",
	Short: "Validate a topic template",
	Long: `Validate a topic template such as "hermes/hotword/{modelId}/detected".

The validation checks that every segment is a camelCase identifier and that
parameters are well formed. If the template belongs to the catalog, its
definition is validated as well.

Examples:
  hermes-cli topics validate hermes/tts/say
  hermes-cli topics validate "hermes/audioServer/{siteId}/audioFrame"`,
	Args: cobra.ExactArgs(1),
	RunE: topicsValidateHandler,
}

func topicsValidateHandler(cmd *cobra.Command, args []string) error {
	name := args[0]
	v := topicmgr.NewValidator()

	nameErr := v.ValidateName(name)
	var defErr error
	if nameErr == nil {
		manager, err := catalog()
		if err != nil {
			return err
		}
		if topic, ok := manager.Get(name); ok {
			defErr = v.ValidateDefinition(topic)
		}
	}

	topics.DisplayValidationResult(cmd.OutOrStdout(), name, nameErr, defErr)
	if nameErr != nil || defErr != nil {
		return errValidationFailed
	}
	return nil
}

func init() {
	topicsCmd.AddCommand(topicsValidateCmd)
}
