package topics

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nfrund/hermes/internal/topicmgr"
)

// TopicDisplay represents a topic for display purposes
type TopicDisplay struct {
	Name        string                 `json:"name"`
	Component   string                 `json:"component"`
	Kind        string                 `json:"kind"`
	Description string                 `json:"description"`
	Pattern     string                 `json:"pattern"`
	Params      []string               `json:"params,omitempty"`
	Example     string                 `json:"example,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

func toDisplay(topic topicmgr.Topic) TopicDisplay {
	return TopicDisplay{
		Name:        topic.Name(),
		Component:   topic.Component(),
		Kind:        string(topic.Kind()),
		Description: topic.Description(),
		Pattern:     topic.Pattern(),
		Params:      topic.Template().Params(),
		Example:     topic.Example(),
		Metadata:    topic.Metadata(),
	}
}

// ComponentTitle turns a component id such as "audio_server" into "Audio Server".
func ComponentTitle(component string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(component, "_", " "))
}

// DisplayTopicsTable displays topics in a formatted table
func DisplayTopicsTable(w io.Writer, topics []topicmgr.Topic) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "NAME\tCOMPONENT\tKIND\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t---------\t----\t-----------")

	if len(topics) == 0 {
		fmt.Fprintln(tw, "No topics found")
		return
	}
	for _, topic := range topics {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			topic.Name(),
			topic.Component(),
			topic.Kind(),
			truncateString(topic.Description(), 50))
	}
}

// DisplayTopicsJSON displays topics in JSON format
func DisplayTopicsJSON(w io.Writer, topics []topicmgr.Topic) error {
	topicDisplays := make([]TopicDisplay, len(topics))
	for i, topic := range topics {
		topicDisplays[i] = toDisplay(topic)
	}

	output := struct {
		Topics []TopicDisplay `json:"topics"`
		Count  int            `json:"count"`
	}{
		Topics: topicDisplays,
		Count:  len(topicDisplays),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// DisplayComponentSummary prints the number of topics per component.
func DisplayComponentSummary(w io.Writer, stats topicmgr.RegistryStats) {
	components := make([]string, 0, len(stats.ComponentBreakdown))
	for c := range stats.ComponentBreakdown {
		components = append(components, c)
	}
	sort.Strings(components)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()
	for _, c := range components {
		fmt.Fprintf(tw, "%s\t%d\n", ComponentTitle(c), stats.ComponentBreakdown[c])
	}
	fmt.Fprintf(tw, "Total\t%d\n", stats.TotalTopics)
}

// DisplayTopicDetails displays detailed information for a specific topic
func DisplayTopicDetails(w io.Writer, topic topicmgr.Topic, format string) error {
	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(toDisplay(topic))
	}

	fmt.Fprintf(w, "Name:        %s\n", topic.Name())
	fmt.Fprintf(w, "Component:   %s\n", ComponentTitle(topic.Component()))
	fmt.Fprintf(w, "Kind:        %s\n", topic.Kind())
	fmt.Fprintf(w, "Description: %s\n", topic.Description())
	fmt.Fprintf(w, "Pattern:     %s\n", topic.Pattern())
	if params := topic.Template().Params(); len(params) > 0 {
		fmt.Fprintf(w, "Params:      %s\n", strings.Join(params, ", "))
	}
	if topic.Example() != "" {
		fmt.Fprintf(w, "Example:     %s\n", topic.Example())
	}

	metadata := topic.Metadata()
	if len(metadata) > 0 {
		keys := make([]string, 0, len(metadata))
		for k := range metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(w, "Metadata:\n")
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %v\n", k, metadata[k])
		}
	}

	return nil
}

// DisplayValidationResult displays topic validation results with appropriate formatting
func DisplayValidationResult(w io.Writer, name string, nameErr, defErr error) {
	if nameErr != nil {
		fmt.Fprintf(w, "❌ Topic name validation failed: %v\n", nameErr)
		return
	}

	if defErr != nil {
		fmt.Fprintf(w, "❌ Topic validation failed: %v\n", defErr)
		return
	}

	fmt.Fprintf(w, "✅ Topic '%s' is valid\n", name)
}

// truncateString truncates a string to maxLen characters, adding "..." if truncated
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
