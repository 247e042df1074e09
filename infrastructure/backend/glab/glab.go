// Package glab creates merge requests by invoking the GitLab CLI as a
// subprocess. Its output is captured in full and parsed after the process
// exits; nothing is written to the terminal while it runs.
package glab

import (
	"context"
	"regexp"
	"strings"

	"github.com/h0uter/multimr/domain"
	"github.com/h0uter/multimr/infrastructure/shell"
)

const backendName = "glab"

// mrURLPattern matches the merge request URL glab prints on success.
var mrURLPattern = regexp.MustCompile(`https?://\S+/merge_requests/\d+`)

// Backend implements domain.Backend on top of the glab CLI.
type Backend struct {
	runner shell.Runner
}

// New creates a glab backend. The token is unused: glab carries its own
// authentication state.
func New(_ string, runner shell.Runner) domain.Backend {
	return &Backend{runner: runner}
}

func (b *Backend) Name() string { return backendName }

// Available verifies the glab CLI is installed.
func (b *Backend) Available(_ context.Context) error {
	if err := b.runner.LookPath("glab"); err != nil {
		return domain.StepErrorf(
			domain.KindConfig,
			"GitLab CLI `glab` is not installed; install it or configure another backend",
		)
	}
	return nil
}

// Create invokes `glab mr create` with the full merge request spec and
// parses the created request's URL from the captured output.
func (b *Backend) Create(
	ctx context.Context,
	req domain.CreateRequest,
) (*domain.MergeRequest, error) {
	args := buildArgs(req)

	stdout, stderr, err := b.runner.Run(ctx, req.RepoPath, "glab", args...)
	if err != nil {
		return nil, domain.StepErrorf(
			domain.KindBackend, "glab mr create failed: %v: %s",
			err, strings.TrimSpace(string(stderr)),
		)
	}

	url := mrURLPattern.FindString(string(stdout))
	if url == "" {
		// Some glab versions print the URL on stderr.
		url = mrURLPattern.FindString(string(stderr))
	}
	if url == "" {
		return nil, domain.StepErrorf(
			domain.KindBackend, "glab produced no merge request URL: %s",
			strings.TrimSpace(string(stdout)),
		)
	}

	return &domain.MergeRequest{URL: url}, nil
}

func buildArgs(req domain.CreateRequest) []string {
	spec := req.Spec
	args := []string{
		"mr", "create",
		"--title", spec.Title,
		"--description", spec.Description,
		"--source-branch", req.SourceBranch,
		"--target-branch", req.TargetBranch,
		"--assignee", spec.Assignee,
		"--yes",
	}
	for _, reviewer := range spec.Reviewers {
		args = append(args, "--reviewer", reviewer)
	}
	for _, label := range spec.Labels {
		args = append(args, "--label", label)
	}
	if spec.Draft {
		args = append(args, "--draft")
	}
	return args
}
