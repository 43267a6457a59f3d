package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nfrund/hermes/internal/hermes"
)

var (
	sayLang    string
	saySession string
	sayNoWait  bool
)

var sayCmd = &cobra.Command{
	Use:   "say <text>...",
	Short: "Speak a sentence through the TTS component",
	Long: `Publish hermes/tts/say on the configured site and wait for sayFinished.

Examples:
  hermes-cli say "Dinner is ready" --site kitchen
  hermes-cli say Bonjour --lang fr --no-wait`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()

		msg := hermes.Say{
			SiteID:    deps.Config.SiteID,
			SessionID: saySession,
			Text:      strings.Join(args, " "),
			Lang:      sayLang,
		}
		out := cmd.OutOrStdout()

		if sayNoWait {
			id, err := deps.Client.TTS.Say(cmd.Context(), msg)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "say request %s sent\n", id)
			return nil
		}

		finished, err := deps.Client.TTS.SayAndWait(cmd.Context(), msg, 0)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "say request %s finished\n", finished.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sayCmd)

	sayCmd.Flags().StringVar(&sayLang, "lang", "", "Language code")
	sayCmd.Flags().StringVar(&saySession, "session", "", "Session id")
	sayCmd.Flags().BoolVar(&sayNoWait, "no-wait", false, "Do not wait for sayFinished")
}
