package domain

import "context"

// Git abstracts the local git operations the pipeline needs. Read methods
// never mutate repository state; write methods are only reached on live runs.
type Git interface {
	// Discover lists the git repositories directly under root.
	Discover(ctx context.Context, root string) ([]string, error)

	// Inspect reads the repository's current branch, dirty state, and remote
	// tracking status. No side effects.
	Inspect(ctx context.Context, path string) (RepositoryState, error)

	// BranchExists reports whether a local branch with the given name exists.
	BranchExists(ctx context.Context, path, branch string) (bool, error)

	// DescendsFrom reports whether branch descends from base, i.e. base's tip
	// is an ancestor of branch's tip.
	DescendsFrom(ctx context.Context, path, branch, base string) (bool, error)

	// Switch checks out the given branch, creating it when create is true.
	Switch(ctx context.Context, path, branch string, create bool) error

	// CommitAll stages all pending changes and commits them with the given
	// message, retrying exactly once when a pre-commit hook mutates files.
	CommitAll(ctx context.Context, path, message string) error

	// Push pushes the branch to its remote. It returns false without any
	// network call when the remote tracking branch already matches the local
	// tip, so repeated runs stay idempotent.
	Push(ctx context.Context, path, branch string) (bool, error)
}
