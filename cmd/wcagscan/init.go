package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/wcagscan/internal/config"
	"github.com/nao1215/wcagscan/internal/fsutil"
)

//go:embed templates/wcagscan.yaml
var configTemplate embed.FS

// configTemplatePath is the template location inside configTemplate.
const configTemplatePath = "templates/wcagscan.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new wcagscan configuration file",
		Long: `Initialize creates a new .wcagscan configuration file in the current directory.

The generated file includes:
- Default timeouts for page loads and the login form
- The axe-core script source
- JUnit and HTML report settings
- Commented login selectors

Targets and credentials are not stored in this file. Set them in the
environment or in a .env file (TEST_SITE_URLS, TEST_USERNAME, TEST_PASSWORD).

Examples:
  # Create .wcagscan in current directory
  wcagscan init

  # Create config file at a specific path
  wcagscan init -o ci/wcagscan.yaml

  # Force overwrite existing file
  wcagscan init -f`,
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

	content, err := configTemplate.ReadFile(configTemplatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if err := fsutil.AtomicWrite(outputPath, content); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure settings such as:")
	fmt.Fprintln(out, "  - Per-target and login timeouts")
	fmt.Fprintln(out, "  - A local axe-core build for offline runs")
	fmt.Fprintln(out, "  - Report paths, titles and themes")

	return nil
}
