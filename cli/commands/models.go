package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lumenlabs/lumen/core"
)

func (a *App) newModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List available models",
		Long: `List the models this build knows about, with their capabilities
and token limits. No API key is required.`,
		RunE: a.runModels,
	}
}

func (a *App) runModels(cmd *cobra.Command, args []string) error {
	// The model catalog is static, so no API key is needed.
	client, err := a.newClient("", a.cfg, core.NoopTelemetryHook{})
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	models := client.Provider().Models()

	if a.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(models)
	}

	for _, m := range models {
		fmt.Fprintln(a.stdout, m.ID)
		if m.DisplayName != "" {
			fmt.Fprintf(a.stdout, "  name:         %s\n", m.DisplayName)
		}
		fmt.Fprintf(a.stdout, "  capabilities: %s\n", joinFeatures(m.Capabilities))
		if m.InputLimit > 0 {
			fmt.Fprintf(a.stdout, "  input limit:  %d tokens\n", m.InputLimit)
		}
		if m.OutputLimit > 0 {
			fmt.Fprintf(a.stdout, "  output limit: %d tokens\n", m.OutputLimit)
		}
	}

	return nil
}

func joinFeatures(features []core.Feature) string {
	names := make([]string, len(features))
	for i, f := range features {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
