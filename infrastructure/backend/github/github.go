// Package github creates pull requests through the GitHub REST API.
package github

import (
	"context"
	"strings"

	gh "github.com/google/go-github/v68/github"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/h0uter/multimr/domain"
	backendPkg "github.com/h0uter/multimr/infrastructure/backend"
	"github.com/h0uter/multimr/infrastructure/shell"
)

const backendName = "github"

// Backend implements domain.Backend on the GitHub API client.
type Backend struct {
	token  string
	runner shell.Runner
	client *gh.Client
}

// New creates a GitHub backend with the given token. The runner is only
// used to read each repository's origin URL.
func New(token string, runner shell.Runner) domain.Backend {
	httpClient := oauth2.NewClient(
		context.Background(),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
	)
	return &Backend{
		token:  token,
		runner: runner,
		client: gh.NewClient(httpClient),
	}
}

func (b *Backend) Name() string { return backendName }

// Available verifies a token was configured.
func (b *Backend) Available(_ context.Context) error {
	if b.token == "" {
		return domain.StepErrorf(
			domain.KindConfig,
			"github backend requires backend.token in the configuration",
		)
	}
	return nil
}

// Create opens the pull request, then best-effort applies assignee,
// reviewers, and labels. The request exists once Create succeeds, so
// secondary calls log a warning instead of failing the repository.
func (b *Backend) Create(
	ctx context.Context,
	req domain.CreateRequest,
) (*domain.MergeRequest, error) {
	remote, err := backendPkg.ResolveRemote(ctx, b.runner, req.RepoPath)
	if err != nil {
		return nil, domain.NewStepError(domain.KindBackend, err)
	}
	if !strings.Contains(remote.Host, "github.com") {
		return nil, domain.StepErrorf(
			domain.KindBackend, "origin %q is not a GitHub remote", remote.Host,
		)
	}

	spec := req.Spec
	pr, _, err := b.client.PullRequests.Create(ctx, remote.Org, remote.Repo, &gh.NewPullRequest{
		Title: gh.String(spec.Title),
		Body:  gh.String(spec.Description),
		Head:  gh.String(req.SourceBranch),
		Base:  gh.String(req.TargetBranch),
		Draft: gh.Bool(spec.Draft),
	})
	if err != nil {
		return nil, domain.StepErrorf(
			domain.KindBackend, "failed to create pull request on %s: %w",
			remote.Project(), err,
		)
	}
	number := pr.GetNumber()

	if spec.Assignee != "" {
		_, _, assignErr := b.client.Issues.AddAssignees(
			ctx, remote.Org, remote.Repo, number, []string{spec.Assignee},
		)
		if assignErr != nil {
			logger.Warnf("PR #%d created but assigning %q failed: %v",
				number, spec.Assignee, assignErr)
		}
	}

	if len(spec.Reviewers) > 0 {
		_, _, reviewErr := b.client.PullRequests.RequestReviewers(
			ctx, remote.Org, remote.Repo, number,
			gh.ReviewersRequest{Reviewers: spec.Reviewers},
		)
		if reviewErr != nil {
			logger.Warnf("PR #%d created but requesting reviewers failed: %v",
				number, reviewErr)
		}
	}

	if len(spec.Labels) > 0 {
		_, _, labelErr := b.client.Issues.AddLabelsToIssue(
			ctx, remote.Org, remote.Repo, number, spec.Labels,
		)
		if labelErr != nil {
			logger.Warnf("PR #%d created but labeling failed: %v", number, labelErr)
		}
	}

	return &domain.MergeRequest{ID: number, URL: pr.GetHTMLURL()}, nil
}
