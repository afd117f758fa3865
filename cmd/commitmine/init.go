package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/commitmine/internal/config"
)

//go:embed templates/commitmine.yaml
var configTemplate embed.FS

// templatePath is the embedded configuration template.
const templatePath = "templates/commitmine.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new commitmine configuration file",
		Long: `Initialize creates a new .commitmine configuration file in the current directory.

The generated file documents every option with its default value:
- Start URL and issue page prefix
- Fix keywords and bug/feature label vocabularies
- Crawl tuning (concurrency, retries, timeouts, page limit)
- Per-tracker headers and cookies
- Output directory, database and object storage

Examples:
  # Create .commitmine in current directory
  commitmine init

  # Create config file at a specific path
  commitmine init -o myconfig.yaml

  # Force overwrite existing file
  commitmine init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to set:")
	fmt.Fprintln(out, "  - The commits page to start from")
	fmt.Fprintln(out, "  - Request headers and cookies per tracker")
	fmt.Fprintln(out, "  - The labels that mark bug and feature issues")

	return nil
}
