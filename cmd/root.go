package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/h0uter/multimr/application"
	"github.com/h0uter/multimr/config"
	"github.com/h0uter/multimr/domain"
)

// version is set at build time via -ldflags.
var version = "dev"

//nolint:gochecknoglobals // required by cobra CLI pattern
var (
	configPath  string
	dryRun      bool
	verbose     bool
	assignee    string
	title       string
	description string
	reviewers   []string
	labelKey    string
	draft       bool
	mode        string
	workers     int
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var rootCmd = &cobra.Command{
	Use:   "multimr [repo...]",
	Short: "Create the same merge request across many repositories",
	Long: `multimr drives one logical change through a set of independently
managed repositories: per repository it inspects the working tree, plans the
branch, commits pending edits, pushes, and asks the configured backend to
open the merge request. Failures stay isolated to their repository.

Repositories are positional arguments; without any, every git repository
directly under the configured working_dir is processed.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true, // main prints the final error
	RunE:          run,
}

// Execute runs the CLI. The returned error drives the process exit code.
func Execute() error {
	return rootCmd.Execute()
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to the configuration file (default: multimr.yaml lookup)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false,
		"Plan everything but perform no git mutation and no backend call")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	rootCmd.Flags().StringVar(&assignee, "assignee", "",
		"Assignee for the merge requests (overrides the configured default)")
	rootCmd.Flags().StringVar(&title, "title", "",
		"Title of the merge requests; also names the branch and the commit")
	rootCmd.Flags().StringVar(&description, "description", "",
		"Description of the merge requests")
	rootCmd.Flags().StringArrayVar(&reviewers, "reviewer", nil,
		"Reviewer to request (repeatable; overrides configured reviewers)")
	rootCmd.Flags().StringVar(&labelKey, "label", "",
		"Change category label to apply: feat or fix")
	rootCmd.Flags().BoolVar(&draft, "draft", false,
		"Create the requests as drafts")
	rootCmd.Flags().StringVar(&mode, "mode", string(domain.FromMain),
		"Workflow mode: from-main or from-feature")
	rootCmd.Flags().IntVar(&workers, "workers", 1,
		"Number of repositories processed concurrently")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, err := buildService(cfg)
	if err != nil {
		return fmt.Errorf("failed to assemble services: %w", err)
	}

	ctx, stop := signal.NotifyContext(
		cmd.Context(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	summary, err := svc.Run(ctx, cfg, application.RunOptions{
		DryRun:      dryRun,
		Verbose:     verbose,
		Mode:        domain.WorkflowMode(mode),
		Title:       title,
		Description: description,
		Assignee:    assignee,
		Reviewers:   reviewers,
		Label:       labelKey,
		Draft:       draft,
		Repos:       args,
		Workers:     workers,
	})
	if err != nil {
		return err
	}

	if !summary.OK() {
		return fmt.Errorf(
			"%d of %d repositories failed",
			summary.CountByStatus(domain.StatusFailed), len(summary.Outcomes),
		)
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		found, err := config.FindConfigFile()
		if err != nil {
			// No file at all is fine: flags can carry the required fields.
			logger.Debug("no config file found, using defaults")
			return config.Default(), nil
		}
		path = found
	}

	logger.Debugf("Using config file: %s", path)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
