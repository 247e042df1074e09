package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h0uter/multimr/application"
	"github.com/h0uter/multimr/config"
	"github.com/h0uter/multimr/domain"
	testdoubles "github.com/h0uter/multimr/test"
)

// --- helpers ---

func buildTestConfig() *config.Config {
	return &config.Config{
		Assignee:   "alice",
		WorkingDir: "/workspace",
		Reviewers:  []string{"bob"},
		Backend:    config.BackendConfig{Type: "glab"},
	}
}

func baseOptions() application.RunOptions {
	return application.RunOptions{
		Mode:  domain.FromMain,
		Title: "Update pipeline",
	}
}

func resultFor(summary *domain.RunSummary, repo string) domain.ExecutionResult {
	for _, o := range summary.Outcomes {
		if o.Repo == repo {
			return o.Result
		}
	}
	return domain.ExecutionResult{}
}

// --- tests ---

func TestCreateService_Run(t *testing.T) {
	t.Parallel()

	t.Run("should process a mixed set of repositories independently", func(t *testing.T) {
		t.Parallel()

		// given: repo1 dirty on main, repo2 clean on its feature branch,
		// repo3 unreadable.
		git := &testdoubles.SpyGit{
			Repos: []string{"/w/repo1", "/w/repo2", "/w/repo3"},
			States: map[string]domain.RepositoryState{
				"/w/repo1": {Path: "/w/repo1", CurrentBranch: "main", Dirty: true},
				"/w/repo2": {Path: "/w/repo2", CurrentBranch: "ft/foo"},
			},
			InspectErr: map[string]error{
				"/w/repo3": domain.StepErrorf(
					domain.KindRepoAccess, "not a git repository",
				),
			},
			Branches: map[string]bool{"/w/repo2:main": true},
		}
		backend := &testdoubles.SpyBackend{
			CreatedMR: &domain.MergeRequest{ID: 7, URL: "https://gitlab.com/g/r/-/merge_requests/7"},
		}
		reporter := &testdoubles.SpyReporter{}
		svc := application.NewCreateService(git, backend, reporter)

		// when
		summary, err := svc.Run(context.Background(), buildTestConfig(), baseOptions())

		// then
		require.NoError(t, err)
		require.Len(t, summary.Outcomes, 3)
		assert.False(t, summary.OK())

		repo1 := resultFor(summary, "/w/repo1")
		assert.Equal(t, domain.StatusCreated, repo1.Status)
		assert.Equal(t, "Update-pipeline", repo1.Branch)

		repo2 := resultFor(summary, "/w/repo2")
		assert.Equal(t, domain.StatusCreated, repo2.Status)
		assert.Equal(t, "ft/foo", repo2.Branch)

		repo3 := resultFor(summary, "/w/repo3")
		assert.Equal(t, domain.StatusFailed, repo3.Status)
		assert.Equal(t, domain.KindRepoAccess, repo3.Kind)

		// repo1 needed a commit, repo2 did not
		require.Len(t, git.Commits, 1)
		assert.Equal(t, "/w/repo1", git.Commits[0].Path)
		assert.Equal(t, "Update pipeline", git.Commits[0].Message)
		assert.ElementsMatch(t, []string{"/w/repo1", "/w/repo2"}, git.PushedRepo)
		assert.Len(t, backend.Requests, 2)
	})

	t.Run("should perform no mutation and no backend call in dry-run mode", func(t *testing.T) {
		t.Parallel()

		// given
		git := &testdoubles.SpyGit{
			Repos: []string{"/w/repo1"},
			States: map[string]domain.RepositoryState{
				"/w/repo1": {Path: "/w/repo1", CurrentBranch: "main", Dirty: true},
			},
		}
		backend := &testdoubles.SpyBackend{}
		svc := application.NewCreateService(git, backend, &testdoubles.SpyReporter{})

		opts := baseOptions()
		opts.DryRun = true

		// when
		summary, err := svc.Run(context.Background(), buildTestConfig(), opts)

		// then
		require.NoError(t, err)
		assert.Empty(t, git.Switches)
		assert.Empty(t, git.Commits)
		assert.Empty(t, git.PushedRepo)
		assert.Empty(t, backend.Requests)

		result := resultFor(summary, "/w/repo1")
		assert.Equal(t, domain.StatusCreated, result.Status)
		assert.True(t, result.Simulated)
		assert.Empty(t, result.URL)
	})

	t.Run("should plan the same target branch in dry-run and live mode", func(t *testing.T) {
		t.Parallel()

		// given: two services over identical state
		newFixture := func() (*testdoubles.SpyGit, *application.CreateService) {
			git := &testdoubles.SpyGit{
				Repos: []string{"/w/repo1"},
				States: map[string]domain.RepositoryState{
					"/w/repo1": {Path: "/w/repo1", CurrentBranch: "main", Dirty: true},
				},
			}
			return git, application.NewCreateService(
				git, &testdoubles.SpyBackend{}, &testdoubles.SpyReporter{},
			)
		}
		_, liveSvc := newFixture()
		_, drySvc := newFixture()

		dryOpts := baseOptions()
		dryOpts.DryRun = true

		// when
		liveSummary, liveErr := liveSvc.Run(context.Background(), buildTestConfig(), baseOptions())
		drySummary, dryErr := drySvc.Run(context.Background(), buildTestConfig(), dryOpts)

		// then
		require.NoError(t, liveErr)
		require.NoError(t, dryErr)
		assert.Equal(t,
			resultFor(liveSummary, "/w/repo1").Branch,
			resultFor(drySummary, "/w/repo1").Branch,
		)
	})

	t.Run("should abort before touching any repository when no assignee resolves", func(t *testing.T) {
		t.Parallel()

		// given
		git := &testdoubles.SpyGit{Repos: []string{"/w/repo1"}}
		svc := application.NewCreateService(
			git, &testdoubles.SpyBackend{}, &testdoubles.SpyReporter{},
		)
		cfg := buildTestConfig()
		cfg.Assignee = ""

		// when
		summary, err := svc.Run(context.Background(), cfg, baseOptions())

		// then
		require.Error(t, err)
		assert.Nil(t, summary)
		assert.Equal(t, domain.KindConfig, domain.KindOf(err, ""))
		assert.Empty(t, git.DiscoveredRoots)
		assert.Empty(t, git.InspectedPaths)
	})

	t.Run("should let the assignee flag override the configured default", func(t *testing.T) {
		t.Parallel()

		// given
		git := &testdoubles.SpyGit{
			Repos: []string{"/w/repo1"},
			States: map[string]domain.RepositoryState{
				"/w/repo1": {Path: "/w/repo1", CurrentBranch: "main", Dirty: true},
			},
		}
		backend := &testdoubles.SpyBackend{}
		svc := application.NewCreateService(git, backend, &testdoubles.SpyReporter{})

		opts := baseOptions()
		opts.Assignee = "carol"

		// when
		_, err := svc.Run(context.Background(), buildTestConfig(), opts)

		// then
		require.NoError(t, err)
		require.Len(t, backend.Requests, 1)
		assert.Equal(t, "carol", backend.Requests[0].Spec.Assignee)
	})

	t.Run("should isolate a push failure to its own repository", func(t *testing.T) {
		t.Parallel()

		// given
		git := &testdoubles.SpyGit{
			Repos: []string{"/w/a", "/w/b", "/w/c"},
			States: map[string]domain.RepositoryState{
				"/w/a": {Path: "/w/a", CurrentBranch: "main", Dirty: true},
				"/w/b": {Path: "/w/b", CurrentBranch: "main", Dirty: true},
				"/w/c": {Path: "/w/c", CurrentBranch: "main", Dirty: true},
			},
			PushErr: map[string]error{
				"/w/b": domain.StepErrorf(domain.KindPush, "authentication failed"),
			},
		}
		backend := &testdoubles.SpyBackend{}
		svc := application.NewCreateService(git, backend, &testdoubles.SpyReporter{})

		// when
		summary, err := svc.Run(context.Background(), buildTestConfig(), baseOptions())

		// then
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCreated, resultFor(summary, "/w/a").Status)
		assert.Equal(t, domain.StatusCreated, resultFor(summary, "/w/c").Status)

		failed := resultFor(summary, "/w/b")
		assert.Equal(t, domain.StatusFailed, failed.Status)
		assert.Equal(t, domain.KindPush, failed.Kind)
	})

	t.Run("should skip a clean repository whose branch is already pushed", func(t *testing.T) {
		t.Parallel()

		// given: second run over an unchanged repository
		git := &testdoubles.SpyGit{
			Repos: []string{"/w/repo1"},
			States: map[string]domain.RepositoryState{
				"/w/repo1": {Path: "/w/repo1", CurrentBranch: "ft/foo", HasUpstream: true},
			},
			Branches: map[string]bool{"/w/repo1:main": true},
			PushNoOp: map[string]bool{"/w/repo1": true},
		}
		backend := &testdoubles.SpyBackend{}
		svc := application.NewCreateService(git, backend, &testdoubles.SpyReporter{})

		// when
		summary, err := svc.Run(context.Background(), buildTestConfig(), baseOptions())

		// then
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSkipped, resultFor(summary, "/w/repo1").Status)
		assert.Empty(t, git.PushedRepo)
		assert.Empty(t, backend.Requests)
	})

	t.Run("should keep summary outcomes in input order with concurrent workers", func(t *testing.T) {
		t.Parallel()

		// given
		repos := []string{"/w/r1", "/w/r2", "/w/r3", "/w/r4"}
		states := make(map[string]domain.RepositoryState, len(repos))
		for _, r := range repos {
			states[r] = domain.RepositoryState{Path: r, CurrentBranch: "main", Dirty: true}
		}
		git := &testdoubles.SpyGit{Repos: repos, States: states}
		svc := application.NewCreateService(
			git, &testdoubles.SpyBackend{}, &testdoubles.SpyReporter{},
		)

		opts := baseOptions()
		opts.Workers = 4

		// when
		summary, err := svc.Run(context.Background(), buildTestConfig(), opts)

		// then
		require.NoError(t, err)
		require.Len(t, summary.Outcomes, len(repos))
		for i, repo := range repos {
			assert.Equal(t, repo, summary.Outcomes[i].Repo)
			assert.Equal(t, domain.StatusCreated, summary.Outcomes[i].Result.Status)
		}
	})

	t.Run("should skip repositories not yet started when the run is cancelled", func(t *testing.T) {
		t.Parallel()

		// given
		git := &testdoubles.SpyGit{
			Repos: []string{"/w/r1", "/w/r2"},
		}
		backend := &testdoubles.SpyBackend{}
		svc := application.NewCreateService(git, backend, &testdoubles.SpyReporter{})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// when
		summary, err := svc.Run(ctx, buildTestConfig(), baseOptions())

		// then
		require.NoError(t, err)
		for _, o := range summary.Outcomes {
			assert.Equal(t, domain.StatusSkipped, o.Result.Status)
		}
		assert.Empty(t, backend.Requests)
	})

	t.Run("should abort the run when the backend is unavailable", func(t *testing.T) {
		t.Parallel()

		// given
		git := &testdoubles.SpyGit{Repos: []string{"/w/repo1"}}
		backend := &testdoubles.SpyBackend{
			AvailableErr: domain.StepErrorf(domain.KindConfig, "glab is not installed"),
		}
		svc := application.NewCreateService(git, backend, &testdoubles.SpyReporter{})

		// when
		summary, err := svc.Run(context.Background(), buildTestConfig(), baseOptions())

		// then
		require.Error(t, err)
		assert.Nil(t, summary)
		assert.Empty(t, git.InspectedPaths)
	})
}
