package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// topicsResolveCmd represents the topics resolve command
var topicsResolveCmd = &cobra.Command{
	Use:   "resolve <topic>",
	Short: "Find the catalog topic of a concrete topic",
	Long: `Resolve a concrete topic to its catalog template and print the extracted
path parameters.

Example:
  hermes-cli topics resolve hermes/audioServer/kitchen/playBytes/42`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := catalog()
		if err != nil {
			return err
		}
		topic, params, ok := manager.Resolve(args[0])
		if !ok {
			return fmt.Errorf("%s is not a catalog topic", args[0])
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s, %s)\n", topic.Name(), topic.Component(), topic.Kind())
		names := make([]string, 0, len(params))
		for k := range params {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			fmt.Fprintf(out, "  %s = %s\n", k, params[k])
		}
		return nil
	},
}

func init() {
	topicsCmd.AddCommand(topicsResolveCmd)
}
