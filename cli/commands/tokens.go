package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumenlabs/lumen/core"
)

func (a *App) newTokensCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Count tokens for a prompt",
		Long: `Count how many tokens a prompt occupies for the selected model,
without generating anything.

Example:
  lumen tokens --model gemini-pro --prompt "How long is this?"`,
		RunE: a.runTokens,
	}

	cmd.Flags().StringVar(&a.tokensPrompt, "prompt", "", "Prompt to tokenize (required)")
	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}

func (a *App) runTokens(cmd *cobra.Command, args []string) error {
	if a.model == "" {
		return exitWithCode(ExitValidation, fmt.Errorf("model required: use --model flag or set default_model in config"))
	}

	apiKey, err := a.resolveAPIKey()
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	client, err := a.newClient(apiKey, a.cfg, logTelemetry{logger: a.logger})
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	resp, err := client.CountTokens(cmd.Context(), core.ModelID(a.model),
		core.NewUserContent(core.Text(a.tokensPrompt)))
	if err != nil {
		return a.handleRequestError(err)
	}

	if a.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]int{"total_tokens": resp.TotalTokens})
	}

	fmt.Fprintf(a.stdout, "%d tokens\n", resp.TotalTokens)
	return nil
}
