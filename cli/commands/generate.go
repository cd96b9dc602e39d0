package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumenlabs/lumen/core"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitProvider   = 2
	ExitNetwork    = 3
)

func (a *App) newGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Send a content generation request",
		Long: `Send a content generation request to the Gemini API.

Examples:
  lumen generate --model gemini-1.5-flash-latest --prompt "Hello"
  lumen generate --prompt "Hello" --stream
  lumen generate --prompt "Hello" --json`,
		RunE: a.runGenerate,
	}

	cmd.Flags().StringVar(&a.genPrompt, "prompt", "", "User prompt (required)")
	cmd.Flags().StringVar(&a.genSystem, "system", "", "System instruction")
	cmd.Flags().Float32Var(&a.genTemperature, "temperature", 0, "Temperature (0 = use default)")
	cmd.Flags().IntVar(&a.genMaxTokens, "max-tokens", 0, "Max output tokens (0 = use default)")
	cmd.Flags().BoolVar(&a.genStream, "stream", false, "Enable streaming output")

	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}

func (a *App) runGenerate(cmd *cobra.Command, args []string) error {
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

	builder := client.Generate(core.ModelID(a.model))
	if a.genSystem != "" {
		builder = builder.System(a.genSystem)
	}
	builder = builder.User(a.genPrompt)

	if a.genTemperature > 0 {
		builder = builder.Temperature(a.genTemperature)
	}
	if a.genMaxTokens > 0 {
		builder = builder.MaxOutputTokens(a.genMaxTokens)
	}

	ctx := cmd.Context()

	if a.genStream {
		return a.runStreamingGenerate(ctx, builder)
	}
	return a.runSingleGenerate(ctx, builder)
}

func (a *App) runSingleGenerate(ctx context.Context, builder *core.GenerateBuilder) error {
	resp, err := builder.GetResponse(ctx)
	if err != nil {
		return a.handleRequestError(err)
	}

	if a.jsonOutput {
		return a.outputJSON(resp)
	}

	// Text output
	fmt.Fprintf(a.stdout, "> %s\n", a.genPrompt)
	fmt.Fprintln(a.stdout, resp.Text())

	a.printUsage(resp)
	return nil
}

func (a *App) runStreamingGenerate(ctx context.Context, builder *core.GenerateBuilder) error {
	stream, err := builder.Stream(ctx)
	if err != nil {
		return a.handleRequestError(err)
	}

	if a.jsonOutput {
		// Accumulate for JSON output
		resp, err := core.DrainStream(ctx, stream)
		if err != nil {
			return a.handleRequestError(err)
		}
		return a.outputJSON(resp)
	}

	// Stream text output
	fmt.Fprintf(a.stdout, "> %s\n", a.genPrompt)

	for chunk := range stream.Ch {
		fmt.Fprint(a.stdout, chunk.Text())
	}

	// Err and Final close once the stream winds down, so a blocking
	// read is safe here.
	var streamErr error
	for err := range stream.Err {
		streamErr = err
	}
	var finalResp *core.GenerateContentResponse
	for resp := range stream.Final {
		finalResp = resp
	}

	// Print final newline
	fmt.Fprintln(a.stdout)

	if streamErr != nil {
		return a.handleRequestError(streamErr)
	}

	a.printUsage(finalResp)
	return nil
}

// printUsage writes token usage to stderr in verbose mode.
func (a *App) printUsage(resp *core.GenerateContentResponse) {
	if !a.verbose || resp == nil || resp.UsageMetadata == nil {
		return
	}
	fmt.Fprintf(a.stderr, "Usage: %d prompt + %d candidates = %d total tokens\n",
		resp.UsageMetadata.PromptTokenCount,
		resp.UsageMetadata.CandidatesTokenCount,
		resp.UsageMetadata.TotalTokenCount)
}

func (a *App) handleRequestError(err error) error {
	var blocked *core.BlockedError
	if errors.As(err, &blocked) {
		if a.jsonOutput {
			a.outputSimpleErrorJSON("prompt_blocked", blocked.Error())
		} else {
			fmt.Fprintf(a.stderr, "Error: %s\n", blocked.Error())
		}
		return exitWithCode(ExitProvider, err)
	}

	var stopped *core.StoppedError
	if errors.As(err, &stopped) {
		if a.jsonOutput {
			a.outputSimpleErrorJSON("response_stopped", stopped.Error())
		} else {
			fmt.Fprintf(a.stderr, "Error: %s\n", stopped.Error())
			if stopped.Response != nil {
				if partial := stopped.Response.Text(); partial != "" {
					fmt.Fprintf(a.stderr, "Partial output:\n%s\n", partial)
				}
			}
		}
		return exitWithCode(ExitProvider, err)
	}

	var apiErr *core.APIError
	if errors.As(err, &apiErr) {
		if a.jsonOutput {
			a.outputAPIErrorJSON(apiErr)
		} else {
			fmt.Fprintf(a.stderr, "Error: %s\n", apiErr.Message)
			if apiErr.RequestID != "" {
				fmt.Fprintf(a.stderr, "  Request ID: %s\n", apiErr.RequestID)
			}
		}

		// Determine exit code based on error type
		switch {
		case errors.Is(err, core.ErrNetwork):
			return exitWithCode(ExitNetwork, err)
		default:
			return exitWithCode(ExitProvider, err)
		}
	}

	// Network errors
	if errors.Is(err, core.ErrNetwork) {
		if a.jsonOutput {
			a.outputSimpleErrorJSON("network_error", err.Error())
		} else {
			fmt.Fprintf(a.stderr, "Error: network error: %v\n", err)
		}
		return exitWithCode(ExitNetwork, err)
	}

	// Validation errors
	if errors.Is(err, core.ErrModelRequired) || errors.Is(err, core.ErrNoContent) {
		if a.jsonOutput {
			a.outputSimpleErrorJSON("validation_error", err.Error())
		} else {
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
		}
		return exitWithCode(ExitValidation, err)
	}

	// Generic error
	if a.jsonOutput {
		a.outputSimpleErrorJSON("error", err.Error())
	} else {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
	return exitWithCode(ExitProvider, err)
}

func (a *App) outputJSON(resp *core.GenerateContentResponse) error {
	output := map[string]interface{}{
		"text": resp.Text(),
	}
	if len(resp.Candidates) > 0 {
		output["finish_reason"] = resp.Candidates[0].FinishReason
	}
	if resp.UsageMetadata != nil {
		output["usage"] = map[string]int{
			"prompt_tokens":     resp.UsageMetadata.PromptTokenCount,
			"candidates_tokens": resp.UsageMetadata.CandidatesTokenCount,
			"total_tokens":      resp.UsageMetadata.TotalTokenCount,
		}
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func (a *App) outputAPIErrorJSON(apiErr *core.APIError) {
	output := map[string]interface{}{
		"error": map[string]interface{}{
			"type":       apiErr.Code,
			"message":    apiErr.Message,
			"status":     apiErr.Status,
			"request_id": apiErr.RequestID,
		},
	}

	enc := json.NewEncoder(a.stderr)
	enc.SetIndent("", "  ")
	enc.Encode(output)
}

func (a *App) outputSimpleErrorJSON(errType, message string) {
	output := map[string]interface{}{
		"error": map[string]interface{}{
			"type":    errType,
			"message": message,
		},
	}

	enc := json.NewEncoder(a.stderr)
	enc.SetIndent("", "  ")
	enc.Encode(output)
}

// exitError wraps an error with an exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) ExitCode() int {
	return e.code
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}
