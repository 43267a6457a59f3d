package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nfrund/hermes/internal/hermes"
)

var (
	injectEntities      []string
	injectKind          string
	injectCrossLanguage string
	injectReset         bool
	injectNoWait        bool
)

var injectCmd = &cobra.Command{
	Use:   "inject",
	Short: "Inject entity values into the ASR and NLU models",
	Long: `Publish hermes/injection/perform and wait for complete or failure.

Each --entity takes name=value1,value2. With --reset, previously injected
values are cleared instead.

Examples:
  hermes-cli inject --entity room=kitchen,attic --entity color=teal
  hermes-cli inject --entity room=garage --kind addFromVanilla
  hermes-cli inject --reset`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		var req hermes.InjectionRequest
		if !injectReset {
			values, err := parseEntities(injectEntities)
			if err != nil {
				return err
			}
			kind := hermes.InjectionKind(injectKind)
			if kind != hermes.InjectionAdd && kind != hermes.InjectionAddFromVanilla {
				return fmt.Errorf("unknown injection kind %q", injectKind)
			}
			req = hermes.InjectionRequest{
				CrossLanguage: injectCrossLanguage,
				Operations:    []hermes.InjectionOperation{{Kind: kind, Values: values}},
			}
		}

		deps, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer deps.Close()
		injection := deps.Client.Injection

		switch {
		case injectReset && injectNoWait:
			id, err := injection.Reset(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "reset %s sent\n", id)
		case injectReset:
			res, err := injection.ResetAndWait(cmd.Context(), 0)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "reset %s complete\n", res.RequestID)
		case injectNoWait:
			id, err := injection.Perform(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "injection %s sent\n", id)
		default:
			res, err := injection.PerformAndWait(cmd.Context(), req, 0)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "injection %s complete\n", res.RequestID)
		}
		return nil
	},
}

// parseEntities turns ["room=kitchen,attic"] into {"room": ["kitchen", "attic"]}.
func parseEntities(specs []string) (map[string][]string, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one --entity is required")
	}
	values := make(map[string][]string, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || list == "" {
			return nil, fmt.Errorf("invalid --entity %q, expected name=value1,value2", spec)
		}
		for _, v := range strings.Split(list, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values[name] = append(values[name], v)
			}
		}
	}
	return values, nil
}

func init() {
	rootCmd.AddCommand(injectCmd)

	injectCmd.Flags().StringArrayVarP(&injectEntities, "entity", "e", nil, "Entity values as name=value1,value2 (repeatable)")
	injectCmd.Flags().StringVar(&injectKind, "kind", string(hermes.InjectionAdd), "Operation kind (add, addFromVanilla)")
	injectCmd.Flags().StringVar(&injectCrossLanguage, "cross-language", "", "Language used to pronounce foreign values")
	injectCmd.Flags().BoolVar(&injectReset, "reset", false, "Clear injected values instead")
	injectCmd.Flags().BoolVar(&injectNoWait, "no-wait", false, "Do not wait for completion")
}
