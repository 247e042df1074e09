// Package application drives the per-repository workflow: inspect, plan,
// commit, push, create request. Repositories are independent units of work;
// one repository's failure never affects its siblings.
package application

import (
	"context"
	"sync"

	logger "github.com/sirupsen/logrus"

	"github.com/h0uter/multimr/config"
	"github.com/h0uter/multimr/domain"
)

// CreateService orchestrates one run across every selected repository.
type CreateService struct {
	git      domain.Git
	backend  domain.Backend
	reporter domain.Reporter
	planner  *Planner
}

// NewCreateService wires the orchestrator with its collaborators.
func NewCreateService(
	git domain.Git,
	backend domain.Backend,
	reporter domain.Reporter,
) *CreateService {
	return &CreateService{
		git:      git,
		backend:  backend,
		reporter: reporter,
		planner:  NewPlanner(git),
	}
}

// RunOptions holds the run-time overrides for a single run. Flag values
// here always win over configured defaults.
type RunOptions struct {
	DryRun      bool
	Verbose     bool
	Mode        domain.WorkflowMode
	Title       string
	Description string
	Assignee    string
	Reviewers   []string
	Label       string // change-category key ("feat" or "fix")
	Draft       bool
	Repos       []string // explicit repository paths; empty means discover
	Workers     int
}

// Run validates the run-wide prerequisites, processes every repository, and
// returns the assembled summary. A non-nil error means the run aborted
// before any repository was touched; per-repository failures are reported
// inside the summary instead.
func (s *CreateService) Run(
	ctx context.Context,
	cfg *config.Config,
	opts RunOptions,
) (*domain.RunSummary, error) {
	if opts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	spec, err := s.buildSpec(cfg, opts)
	if err != nil {
		return nil, err
	}

	if availErr := s.backend.Available(ctx); availErr != nil {
		return nil, availErr
	}

	repos := opts.Repos
	if len(repos) == 0 {
		repos, err = s.git.Discover(ctx, cfg.WorkingDir)
		if err != nil {
			return nil, err
		}
	}
	if len(repos) == 0 {
		return nil, domain.StepErrorf(
			domain.KindConfig, "no repositories found under %q", cfg.WorkingDir,
		)
	}

	logger.Infof("Processing %d repositories with backend %q (dry-run: %v)",
		len(repos), s.backend.Name(), opts.DryRun)

	summary := s.processAll(ctx, repos, cfg, opts, spec)
	s.reporter.RunFinished(summary)
	return summary, nil
}

// buildSpec merges configuration defaults with run-time overrides and
// validates the run-wide required fields.
func (s *CreateService) buildSpec(
	cfg *config.Config,
	opts RunOptions,
) (domain.MergeRequestSpec, error) {
	assignee := opts.Assignee
	if assignee == "" {
		assignee = cfg.Assignee
	}
	if assignee == "" {
		return domain.MergeRequestSpec{}, domain.StepErrorf(
			domain.KindConfig,
			"no assignee: set one with --assignee or in the configuration file",
		)
	}

	if opts.Title == "" {
		return domain.MergeRequestSpec{}, domain.StepErrorf(
			domain.KindConfig, "a title is required (--title)",
		)
	}

	reviewers := opts.Reviewers
	if len(reviewers) == 0 {
		reviewers = cfg.Reviewers
	}

	label, err := cfg.LabelFor(opts.Label)
	if err != nil {
		return domain.MergeRequestSpec{}, domain.NewStepError(domain.KindConfig, err)
	}
	var labels []string
	if label != "" {
		labels = []string{label}
	}

	return domain.MergeRequestSpec{
		Title:       opts.Title,
		Description: opts.Description,
		Assignee:    assignee,
		Reviewers:   reviewers,
		Labels:      labels,
		Draft:       opts.Draft,
		DryRun:      opts.DryRun,
	}, nil
}

// processAll fans the repositories out over a bounded worker pool. Results
// flow through a single channel so the summary has one writer; the final
// summary is ordered by input order regardless of completion order.
func (s *CreateService) processAll(
	ctx context.Context,
	repos []string,
	cfg *config.Config,
	opts RunOptions,
	spec domain.MergeRequestSpec,
) *domain.RunSummary {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(repos) {
		workers = len(repos)
	}

	jobs := make(chan string)
	results := make(chan domain.RepoOutcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- domain.RepoOutcome{
					Repo:   path,
					Result: s.processRepository(ctx, path, cfg, opts, spec),
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range repos {
			jobs <- path
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	byRepo := make(map[string]domain.ExecutionResult, len(repos))
	for outcome := range results {
		s.reporter.RepoFinished(outcome.Repo, outcome.Result)
		byRepo[outcome.Repo] = outcome.Result
	}

	summary := &domain.RunSummary{}
	for _, path := range repos {
		summary.Outcomes = append(summary.Outcomes, domain.RepoOutcome{
			Repo:   path,
			Result: byRepo[path],
		})
	}
	return summary
}

// processRepository runs the full pipeline for one repository and converts
// any step error into its ExecutionResult. Cancellation before the pipeline
// starts yields Skipped rather than Failed.
func (s *CreateService) processRepository(
	ctx context.Context,
	path string,
	cfg *config.Config,
	opts RunOptions,
	spec domain.MergeRequestSpec,
) domain.ExecutionResult {
	if ctx.Err() != nil {
		return domain.SkippedResult("cancelled before start")
	}
	s.reporter.RepoStarted(path)

	state, err := s.git.Inspect(ctx, path)
	if err != nil {
		return domain.FailedResult(err, domain.KindRepoAccess)
	}
	logger.Debugf("%s: branch %s, dirty %v, ahead %d, behind %d",
		path, state.CurrentBranch, state.Dirty, state.Ahead, state.Behind)

	plan, err := s.planner.Plan(ctx, opts.Mode, state, spec.Title, cfg.BaseBranch)
	if err != nil {
		return domain.FailedResult(err, domain.KindBranchConflict)
	}
	logger.Debugf("%s: target %s (base %s, create: %v)",
		path, plan.TargetBranch, plan.BaseBranch, plan.CreateNew)

	if spec.DryRun {
		logger.Infof("[dry-run] %s: would use branch %s onto %s and invoke %s",
			path, plan.TargetBranch, plan.BaseBranch, s.backend.Name())
		return domain.SimulatedResult(plan.TargetBranch)
	}

	pushed, err := s.materialize(ctx, path, state, plan, spec)
	if err != nil {
		if ctx.Err() != nil && domain.KindOf(err, "") != domain.KindHookFailure {
			return domain.SkippedResult("cancelled")
		}
		return domain.FailedResult(err, domain.KindPush)
	}
	if !pushed && !state.Dirty && !plan.CreateNew {
		// Nothing new to publish: the branch is already on the remote, so a
		// request is assumed to exist from an earlier run.
		return domain.SkippedResult("remote branch already up to date")
	}

	mr, err := s.backend.Create(ctx, domain.CreateRequest{
		RepoPath:     path,
		Spec:         spec,
		SourceBranch: plan.TargetBranch,
		TargetBranch: plan.BaseBranch,
	})
	if err != nil {
		return domain.FailedResult(err, domain.KindBackend)
	}

	return domain.CreatedResult(plan.TargetBranch, mr.URL)
}

// materialize performs the mutating git steps of a live run: switch to the
// planned branch, commit pending changes, push. It reports whether the push
// actually transferred anything.
func (s *CreateService) materialize(
	ctx context.Context,
	path string,
	state domain.RepositoryState,
	plan domain.BranchPlan,
	spec domain.MergeRequestSpec,
) (bool, error) {
	if plan.TargetBranch != state.CurrentBranch {
		if err := s.git.Switch(ctx, path, plan.TargetBranch, plan.CreateNew); err != nil {
			return false, err
		}
	}

	if state.Dirty {
		if err := s.git.CommitAll(ctx, path, spec.Title); err != nil {
			return false, err
		}
	}

	return s.git.Push(ctx, path, plan.TargetBranch)
}
