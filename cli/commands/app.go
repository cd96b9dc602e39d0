// Package commands implements the Lumen CLI commands.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumenlabs/lumen/cli/config"
	"github.com/lumenlabs/lumen/cli/keystore"
	"github.com/lumenlabs/lumen/cli/logging"
	"github.com/lumenlabs/lumen/core"
	"github.com/lumenlabs/lumen/gemini"
)

// ConfigLoader loads CLI config from a path.
type ConfigLoader func(path string) (*config.Config, error)

// ClientFactory builds a client for the given API key and configuration.
type ClientFactory func(apiKey string, cfg *config.Config, hook core.TelemetryHook) (*core.Client, error)

// KeystoreFactory creates a keystore instance.
type KeystoreFactory func() (keystore.Keystore, error)

// AppOption customizes App dependencies.
type AppOption func(*App)

// App holds CLI state and runtime dependencies.
type App struct {
	root *cobra.Command

	loadConfig  ConfigLoader
	newClient   ClientFactory
	newKeystore KeystoreFactory
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
	logger      *slog.Logger

	cfgFile    string
	model      string
	jsonOutput bool
	verbose    bool
	logFile    string
	cfg        *config.Config

	genPrompt      string
	genSystem      string
	genTemperature float32
	genMaxTokens   int
	genStream      bool
	tokensPrompt   string
	initModel      string
}

// WithConfigLoader injects a config loader dependency.
func WithConfigLoader(loader ConfigLoader) AppOption {
	return func(a *App) {
		if loader != nil {
			a.loadConfig = loader
		}
	}
}

// WithClientFactory injects a client factory dependency.
func WithClientFactory(factory ClientFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.newClient = factory
		}
	}
}

// WithKeystoreFactory injects a keystore factory dependency.
func WithKeystoreFactory(factory KeystoreFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.newKeystore = factory
		}
	}
}

// WithIO injects process I/O streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) AppOption {
	return func(a *App) {
		if stdin != nil {
			a.stdin = stdin
		}
		if stdout != nil {
			a.stdout = stdout
		}
		if stderr != nil {
			a.stderr = stderr
		}
	}
}

// NewApp creates a new CLI app with default dependencies.
func NewApp(opts ...AppOption) *App {
	a := &App{
		loadConfig:  config.LoadConfig,
		newClient:   defaultClientFactory,
		newKeystore: keystore.NewKeystore,
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		logger:      logging.Nop(),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.root = a.newRootCommand()
	return a
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "lumen",
		Short: "Lumen - Go SDK and CLI for the Gemini API",
		Long: `Lumen is a command-line interface for the Google Gemini API.

Use Lumen to generate content, stream responses, count tokens, and
manage API keys from the terminal.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		SilenceUsage: true,
	}

	// Global flags available to all commands.
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.lumen/config.yaml)")
	root.PersistentFlags().StringVar(&a.model, "model", "", "model ID (e.g. gemini-1.5-flash-latest)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "emit JSON output")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "enable debug logging")
	root.PersistentFlags().StringVar(&a.logFile, "log-file", "", "also write JSON logs to this file")

	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.AddCommand(a.newGenerateCommand())
	root.AddCommand(a.newModelsCommand())
	root.AddCommand(a.newTokensCommand())
	root.AddCommand(a.newKeysCommand())
	root.AddCommand(a.newInitCommand())
	root.AddCommand(a.newVersionCommand())

	return root
}

// Execute runs the root command.
func (a *App) Execute() error {
	return a.root.Execute()
}

// Execute runs the CLI with default dependencies.
func Execute() error {
	return NewApp().Execute()
}

func (a *App) initConfig() error {
	path := a.cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := a.loadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	// Apply config defaults if flags not set.
	if a.model == "" && cfg.DefaultModel != "" {
		a.model = cfg.DefaultModel
	}

	return a.initLogging()
}

func (a *App) initLogging() error {
	opts := []logging.Option{
		logging.WithDebug(a.verbose),
		logging.WithWriter(a.stderr),
	}
	if a.jsonOutput {
		opts = append(opts, logging.WithJSON(true))
	} else {
		opts = append(opts, logging.WithPretty(true))
	}
	logger := logging.New(opts...)

	if a.logFile != "" {
		f, err := os.OpenFile(a.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		// The handle stays open for the life of the process.
		fileLogger := logging.New(
			logging.WithDebug(a.verbose),
			logging.WithJSON(true),
			logging.WithWriter(f),
		)
		logger = logging.Multi(logger, fileLogger)
	}

	a.logger = logger
	return nil
}

// defaultKeyName is the keystore entry the CLI reads API keys from.
const defaultKeyName = "gemini"

// defaultKeyEnv is the environment variable checked before the keystore.
const defaultKeyEnv = "GEMINI_API_KEY"

// resolveAPIKey finds the API key to use: the environment variable first
// (GEMINI_API_KEY, or api_key_env from config), then the keystore.
func (a *App) resolveAPIKey() (string, error) {
	envVar := defaultKeyEnv
	if a.cfg != nil && a.cfg.APIKeyEnv != "" {
		envVar = a.cfg.APIKeyEnv
	}
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}

	ks, err := a.newKeystore()
	if err != nil {
		return "", fmt.Errorf("failed to open keystore: %w", err)
	}

	key, err := ks.Get(defaultKeyName)
	if err != nil {
		if _, ok := err.(*keystore.ErrKeyNotFound); ok {
			return "", fmt.Errorf("no API key configured: set %s or run 'lumen keys set %s'", envVar, defaultKeyName)
		}
		return "", fmt.Errorf("failed to read API key: %w", err)
	}

	return key, nil
}

func defaultClientFactory(apiKey string, cfg *config.Config, hook core.TelemetryHook) (*core.Client, error) {
	var opts []gemini.Option
	if cfg != nil {
		if cfg.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(cfg.BaseURL))
		}
		if cfg.APIVersion != "" {
			opts = append(opts, gemini.WithAPIVersion(cfg.APIVersion))
		}
	}

	provider := gemini.New(apiKey, opts...)
	return core.NewClient(provider, core.WithTelemetry(hook)), nil
}

// logTelemetry forwards request lifecycle events to the CLI logger.
type logTelemetry struct {
	logger *slog.Logger
}

func (t logTelemetry) OnRequestStart(e core.RequestStartEvent) {
	t.logger.Debug("request started",
		"request_id", e.RequestID,
		"provider", e.Provider,
		"op", e.Op,
		"model", e.Model,
	)
}

func (t logTelemetry) OnRequestEnd(e core.RequestEndEvent) {
	attrs := []any{
		"request_id", e.RequestID,
		"op", e.Op,
		"duration", e.Duration(),
	}
	if e.Usage != nil {
		attrs = append(attrs, "total_tokens", e.Usage.TotalTokenCount)
	}
	if e.Err != nil {
		attrs = append(attrs, "error", e.Err)
		t.logger.Debug("request failed", attrs...)
		return
	}
	t.logger.Debug("request completed", attrs...)
}
