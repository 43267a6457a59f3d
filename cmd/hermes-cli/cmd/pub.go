package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"

	"github.com/nfrund/hermes/internal/topicmgr"
)

var (
	pubFile string
	pubSet  []string
)

var pubCmd = &cobra.Command{
	Use:   "pub <topic> [payload]",
	Short: "Publish a message",
	Long: `Publish a payload on a concrete topic. The payload is taken from the second
argument or, with --file, from a file (for binary audio topics). --set applies
path=value edits to the JSON payload (or to an empty object).

Examples:
  hermes-cli pub hermes/hotword/toggleOn '{"siteId":"kitchen"}'
  hermes-cli pub hermes/tts/say --set text="Hello there" --set siteId=kitchen
  hermes-cli pub hermes/audioServer/kitchen/playBytes/1 --file ding.wav`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := args[0]

		var payload []byte
		switch {
		case pubFile != "" && len(args) == 2:
			return fmt.Errorf("use either a payload argument or --file, not both")
		case pubFile != "":
			b, err := afero.ReadFile(fs, pubFile)
			if err != nil {
				return err
			}
			payload = b
		case len(args) == 2:
			payload = []byte(args[1])
		}

		if len(pubSet) > 0 {
			edited, err := applySets(payload, pubSet)
			if err != nil {
				return err
			}
			payload = edited
		}

		if manager, err := catalog(); err == nil {
			if t, _, ok := manager.Resolve(topic); ok && t.Kind() == topicmgr.KindJSON && len(payload) > 0 && !json.Valid(payload) {
				return fmt.Errorf("%s expects a JSON payload", t.Name())
			}
		}

		deps, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()

		if err := deps.Engine.Publish(cmd.Context(), topic, payload); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "published %d bytes on %s\n", len(payload), topic)
		return nil
	},
}

// applySets edits a JSON payload with path=value pairs in sjson path syntax.
// Values that parse as JSON (numbers, booleans, objects) are set raw.
func applySets(payload []byte, sets []string) ([]byte, error) {
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	if !json.Valid(payload) {
		return nil, fmt.Errorf("--set needs a JSON payload")
	}
	for _, set := range sets {
		path, value, ok := strings.Cut(set, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("invalid --set %q, expected path=value", set)
		}
		var err error
		if json.Valid([]byte(value)) {
			payload, err = sjson.SetRawBytes(payload, path, []byte(value))
		} else {
			payload, err = sjson.SetBytes(payload, path, value)
		}
		if err != nil {
			return nil, fmt.Errorf("--set %s: %w", path, err)
		}
	}
	return payload, nil
}

func init() {
	rootCmd.AddCommand(pubCmd)

	pubCmd.Flags().StringVar(&pubFile, "file", "", "Read the payload from a file")
	pubCmd.Flags().StringArrayVar(&pubSet, "set", nil, "Set a JSON field as path=value (repeatable)")
}
