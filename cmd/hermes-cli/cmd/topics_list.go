package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nfrund/hermes/cmd/hermes-cli/internal/topics"
	"github.com/nfrund/hermes/internal/topicmgr"
)

var (
	listOutputFormat string
	listComponent    string
	listKind         string
	listFilter       string
	listSummaryOnly  bool
)

// topicsListCmd represents the topics list command
var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog topics",
	Long: `List the topics of the Hermes protocol.

Examples:
  hermes-cli topics list                           # All topics as a table
  hermes-cli topics list --format json             # All topics as JSON
  hermes-cli topics list --component audio_server  # Only audio server topics
  hermes-cli topics list --kind audio              # Only binary audio topics
  hermes-cli topics list --filter "hermes/asr/#"   # Topics under a wildcard
  hermes-cli topics list --summary                 # Topic count per component

Output formats:
  table - Human-readable table format (default)
  json  - Machine-readable JSON format`,
	Args: cobra.NoArgs,
	RunE: topicsListHandler,
}

func topicsListHandler(cmd *cobra.Command, args []string) error {
	manager, err := catalog()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if listSummaryOnly {
		topics.DisplayComponentSummary(out, manager.GetStats())
		return nil
	}

	var topicList []topicmgr.Topic
	switch {
	case listFilter != "":
		topicList, err = manager.FindTopics(listFilter)
		if err != nil {
			return err
		}
	case listComponent != "":
		topicList = manager.ListByComponent(listComponent)
	default:
		topicList = manager.List()
	}

	if listKind != "" {
		kind := topicmgr.PayloadKind(strings.ToLower(listKind))
		filtered := topicList[:0:0]
		for _, t := range topicList {
			if t.Kind() == kind {
				filtered = append(filtered, t)
			}
		}
		topicList = filtered
	}

	switch listOutputFormat {
	case "json":
		return topics.DisplayTopicsJSON(out, topicList)
	case "table":
		topics.DisplayTopicsTable(out, topicList)
		return nil
	default:
		return fmt.Errorf("unsupported output format %q, use 'table' or 'json'", listOutputFormat)
	}
}

func init() {
	topicsCmd.AddCommand(topicsListCmd)

	topicsListCmd.Flags().StringVarP(&listOutputFormat, "format", "f", "table", "Output format (table, json)")
	topicsListCmd.Flags().StringVarP(&listComponent, "component", "c", "", "Filter topics by component")
	topicsListCmd.Flags().StringVarP(&listKind, "kind", "k", "", "Filter topics by payload kind (json, audio, raw)")
	topicsListCmd.Flags().StringVar(&listFilter, "filter", "", "Filter topics by a wildcard pattern")
	topicsListCmd.Flags().BoolVar(&listSummaryOnly, "summary", false, "Show topic counts per component")
}
