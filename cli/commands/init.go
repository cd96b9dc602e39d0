package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"text/template"

	"github.com/spf13/cobra"
)

func (a *App) newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <project-name>",
		Short: "Initialize a new Lumen project",
		Long: `Initialize a new Lumen project with a starter layout.

Creates a project directory with:
  - main.go: A starter Go file using the Lumen SDK
  - lumen.yaml: Project configuration

Example:
  lumen init mybot
  lumen init mybot --model gemini-1.5-flash-latest`,
		Args: cobra.ExactArgs(1),
		RunE: a.runInit,
	}

	cmd.Flags().StringVar(&a.initModel, "model", "gemini-1.5-flash-latest", "Default model for generated code")

	return cmd
}

func (a *App) runInit(cmd *cobra.Command, args []string) error {
	projectPath := args[0]
	projectName := filepath.Base(projectPath)

	// Validate project name (just the base name, not full path)
	if err := validateProjectName(projectName); err != nil {
		return err
	}

	// Check if directory already exists
	if _, err := os.Stat(projectPath); err == nil {
		return fmt.Errorf("directory %q already exists", projectPath)
	}

	if err := os.MkdirAll(projectPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", projectPath, err)
	}

	// Generate main.go
	mainPath := filepath.Join(projectPath, "main.go")
	if err := generateFile(mainPath, mainGoTemplate, templateData{
		Model: a.initModel,
	}); err != nil {
		return fmt.Errorf("failed to create main.go: %w", err)
	}

	// Generate lumen.yaml
	configPath := filepath.Join(projectPath, "lumen.yaml")
	if err := generateFile(configPath, lumenYamlTemplate, templateData{
		Model: a.initModel,
	}); err != nil {
		return fmt.Errorf("failed to create lumen.yaml: %w", err)
	}

	// Print success message
	fmt.Fprintf(a.stdout, "Created Lumen project: %s\n\n", projectName)
	fmt.Fprintln(a.stdout, "Next steps:")
	fmt.Fprintf(a.stdout, "  cd %s\n", projectPath)
	fmt.Fprintf(a.stdout, "  export %s=<your-key>\n", defaultKeyEnv)
	fmt.Fprintln(a.stdout, "  go run main.go")

	return nil
}

func validateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("project name cannot be empty")
	}

	// Check for invalid characters
	validName := regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid project name %q: must start with a letter and contain only letters, numbers, underscores, and hyphens", name)
	}

	// Check for reserved names
	reserved := []string{".", "..", "lumen"}
	for _, r := range reserved {
		if name == r {
			return fmt.Errorf("invalid project name %q: reserved name", name)
		}
	}

	return nil
}

type templateData struct {
	Model string
}

func generateFile(path string, tmplContent string, data templateData) error {
	tmpl, err := template.New("file").Parse(tmplContent)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return tmpl.Execute(f, data)
}

// Templates

var mainGoTemplate = `package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lumenlabs/lumen/core"
	"github.com/lumenlabs/lumen/gemini"
)

func main() {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "GEMINI_API_KEY not set")
		os.Exit(1)
	}

	p := gemini.New(apiKey)
	c := core.NewClient(p)

	resp, err := c.Generate("{{.Model}}").
		User("Hello, world!").
		GetResponse(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	fmt.Println(resp.Text())
}
`

var lumenYamlTemplate = `# Lumen project configuration
default_model: {{.Model}}

# The API key is read from GEMINI_API_KEY or the encrypted keystore.
# Store one with 'lumen keys set gemini'.
`
