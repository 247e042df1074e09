// Package gitlab creates merge requests through the GitLab REST API.
package gitlab

import (
	"context"
	"errors"
	"strings"

	logger "github.com/sirupsen/logrus"
	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/h0uter/multimr/domain"
	backendPkg "github.com/h0uter/multimr/infrastructure/backend"
	"github.com/h0uter/multimr/infrastructure/shell"
)

const backendName = "gitlab"

var errClientNotInitialized = errors.New("gitlab client not initialized")

// Backend implements domain.Backend on the GitLab API client.
type Backend struct {
	token  string
	runner shell.Runner
	client *gl.Client
}

// New creates a GitLab backend with the given token. The runner is only
// used to read each repository's origin URL.
func New(token string, runner shell.Runner) domain.Backend {
	client, err := gl.NewClient(token)
	if err != nil {
		// Return a backend that fails on use rather than panicking at construction.
		return &Backend{token: token, runner: runner, client: nil}
	}
	return &Backend{token: token, runner: runner, client: client}
}

func (b *Backend) Name() string { return backendName }

// Available verifies a token was configured and the client initialized.
func (b *Backend) Available(_ context.Context) error {
	if b.token == "" {
		return domain.StepErrorf(
			domain.KindConfig,
			"gitlab backend requires backend.token in the configuration",
		)
	}
	if b.client == nil {
		return domain.NewStepError(domain.KindConfig, errClientNotInitialized)
	}
	return nil
}

// Create opens the merge request against the project named by the origin
// URL. GitLab identifies assignee and reviewers by user ID, so usernames
// from the spec are resolved first; unresolvable names are logged and
// dropped rather than failing the repository.
func (b *Backend) Create(
	ctx context.Context,
	req domain.CreateRequest,
) (*domain.MergeRequest, error) {
	if b.client == nil {
		return nil, domain.NewStepError(domain.KindBackend, errClientNotInitialized)
	}

	remote, err := backendPkg.ResolveRemote(ctx, b.runner, req.RepoPath)
	if err != nil {
		return nil, domain.NewStepError(domain.KindBackend, err)
	}

	spec := req.Spec
	title := spec.Title
	if spec.Draft && !strings.HasPrefix(title, "Draft:") {
		title = "Draft: " + title
	}

	opts := &gl.CreateMergeRequestOptions{
		Title:        gl.Ptr(title),
		Description:  gl.Ptr(spec.Description),
		SourceBranch: gl.Ptr(req.SourceBranch),
		TargetBranch: gl.Ptr(req.TargetBranch),
	}

	if spec.Assignee != "" {
		if id, ok := b.lookupUserID(ctx, spec.Assignee); ok {
			opts.AssigneeID = gl.Ptr(id)
		}
	}
	if reviewerIDs := b.lookupUserIDs(ctx, spec.Reviewers); len(reviewerIDs) > 0 {
		opts.ReviewerIDs = &reviewerIDs
	}
	if len(spec.Labels) > 0 {
		labels := gl.LabelOptions(spec.Labels)
		opts.Labels = &labels
	}

	mr, _, err := b.client.MergeRequests.CreateMergeRequest(
		remote.Project(), opts, gl.WithContext(ctx),
	)
	if err != nil {
		return nil, domain.StepErrorf(
			domain.KindBackend, "failed to create merge request on %s: %w",
			remote.Project(), err,
		)
	}

	return &domain.MergeRequest{ID: mr.IID, URL: mr.WebURL}, nil
}

func (b *Backend) lookupUserIDs(ctx context.Context, usernames []string) []int {
	ids := make([]int, 0, len(usernames))
	for _, name := range usernames {
		if id, ok := b.lookupUserID(ctx, name); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (b *Backend) lookupUserID(ctx context.Context, username string) (int, bool) {
	users, _, err := b.client.Users.ListUsers(
		&gl.ListUsersOptions{Username: gl.Ptr(username)},
		gl.WithContext(ctx),
	)
	if err != nil || len(users) == 0 {
		logger.Warnf("could not resolve GitLab user %q: %v", username, err)
		return 0, false
	}
	if len(users) > 1 {
		logger.Debugf("username %q matched %d users, using the first", username, len(users))
	}
	return users[0].ID, true
}
