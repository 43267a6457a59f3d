package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/hermes/internal/topicmgr"
)

var errNoMatch = errors.New("no topic matched")

var matchCmd = &cobra.Command{
	Use:   "match <pattern> <topic>...",
	Short: "Test topics against a subscription pattern",
	Long: `Report which topics a subscription pattern matches. "+" matches exactly one
segment and a trailing "#" matches zero or more segments.

Examples:
  hermes-cli match "hermes/intent/#" hermes/intent/lights hermes/intent
  hermes-cli match "hermes/+/load" hermes/tts/load hermes/tts/say`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := topicmgr.CompilePattern(args[0])
		if err != nil {
			return err
		}

		matched := 0
		for _, topic := range args[1:] {
			mark := "✗"
			if m.Match(topic) {
				mark = "✓"
				matched++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, topic)
		}
		if matched == 0 {
			return errNoMatch
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
}
