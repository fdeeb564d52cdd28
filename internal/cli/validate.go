package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mwhite/overdraft/internal/harness"
)

// ValidationIssue describes one scenario file that failed validation.
type ValidationIssue struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// ValidationResult holds validation results for a scenario directory.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Files  int               `json:"files"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenarios-dir>",
		Short: "Validate scenario files without running them",
		Long: `Validate YAML scenario files without executing their flows.

Performs strict decoding (unknown fields are rejected) and semantic
validation: required fields, known outcome names, well-formed checks.
Faster than run for authoring feedback.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	scenarioFiles, err := findScenarioFiles(scenariosDir, "")
	if err != nil {
		return fmt.Errorf("failed to find scenarios: %w", err)
	}

	if len(scenarioFiles) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no scenario files found in %s", scenariosDir))
	}

	formatter.VerboseLog("Found %d scenario file(s) in %s", len(scenarioFiles), scenariosDir)

	result := ValidationResult{Files: len(scenarioFiles)}

	for _, scenarioFile := range scenarioFiles {
		formatter.VerboseLog("Validating %s", scenarioFile)
		if _, err := harness.LoadScenario(scenarioFile); err != nil {
			result.Issues = append(result.Issues, ValidationIssue{
				File:    scenarioFile,
				Message: err.Error(),
			})
		}
	}

	result.Valid = len(result.Issues) == 0

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		if result.Valid {
			fmt.Fprintf(cmd.OutOrStdout(), "%d scenario file(s) valid\n", result.Files)
		} else {
			for _, issue := range result.Issues {
				fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s\n  %s\n", issue.File, indentLines(issue.Message))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d scenario file(s) invalid\n", len(result.Issues), result.Files)
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario file(s) invalid", len(result.Issues)))
	}
	return nil
}
