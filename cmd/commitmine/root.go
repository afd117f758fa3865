package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/commitmine/internal/log"
)

// NewRootCmd creates the root command for commitmine.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commitmine",
		Short: "Mine a repository's commit history for issue and file indices",
		Long: `commitmine crawls the commit history pages of a hosted repository,
resolves the issues each commit references and classifies them as bug or
feature issues by their labels.

It writes three JSON indices:
  commit_issue_dict.json   issue id -> commit titles
  file_bug_issue.json      file path -> bug issue ids
  file_feature_issue.json  file path -> feature issue ids`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json-log", false, "Write logs as JSON")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewShowCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getJSONLogFlag retrieves the json-log flag from the command or its parent.
func getJSONLogFlag(cmd *cobra.Command) bool {
	jsonLog, err := cmd.Flags().GetBool("json-log")
	if err != nil {
		jsonLog, err = cmd.Root().PersistentFlags().GetBool("json-log")
		if err != nil {
			return false
		}
	}
	return jsonLog
}

// setupLogger creates the redacting logger and installs it as default.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	logger := log.New(cmd.ErrOrStderr(), getVerboseFlag(cmd), getJSONLogFlag(cmd))
	slog.SetDefault(logger)
	return logger
}
