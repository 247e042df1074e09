// Package gitrepo implements domain.Git. Read-only inspection goes through
// go-git; mutating operations shell out to the git binary so the user's
// pre-commit hooks and credential configuration apply.
package gitrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	logger "github.com/sirupsen/logrus"

	"github.com/h0uter/multimr/domain"
	"github.com/h0uter/multimr/infrastructure/shell"
)

const defaultRemote = "origin"

// Service implements domain.Git for repositories on the local filesystem.
type Service struct {
	runner shell.Runner
}

// NewService creates a git service using the given runner for subprocess calls.
func NewService(runner shell.Runner) *Service {
	return &Service{runner: runner}
}

// Discover lists the git repositories directly under root.
func (s *Service) Discover(_ context.Context, root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, domain.StepErrorf(
			domain.KindRepoAccess, "failed to read working dir %q: %w", root, err,
		)
	}

	var repos []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(root, entry.Name())
		if _, statErr := os.Stat(filepath.Join(path, ".git")); statErr == nil {
			repos = append(repos, path)
		}
	}
	sort.Strings(repos)
	return repos, nil
}

// Inspect reads the repository's current branch, dirty state, and remote
// tracking status.
func (s *Service) Inspect(_ context.Context, path string) (domain.RepositoryState, error) {
	state := domain.RepositoryState{Path: path, Name: filepath.Base(path)}

	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return state, domain.StepErrorf(
			domain.KindRepoAccess, "failed to open repository %q: %w", path, err,
		)
	}

	head, err := repo.Head()
	if err != nil {
		return state, domain.StepErrorf(
			domain.KindRepoAccess, "failed to resolve HEAD in %q: %w", path, err,
		)
	}
	state.CurrentBranch = head.Name().Short()

	worktree, err := repo.Worktree()
	if err != nil {
		return state, domain.StepErrorf(
			domain.KindRepoAccess, "failed to open worktree in %q: %w", path, err,
		)
	}
	status, err := worktree.Status()
	if err != nil {
		return state, domain.StepErrorf(
			domain.KindRepoAccess, "failed to read status of %q: %w", path, err,
		)
	}
	state.Dirty = !status.IsClean()

	ahead, behind, hasUpstream := aheadBehind(repo, state.CurrentBranch)
	state.Ahead = ahead
	state.Behind = behind
	state.HasUpstream = hasUpstream

	return state, nil
}

// BranchExists reports whether a local branch with the given name exists.
func (s *Service) BranchExists(_ context.Context, path, branch string) (bool, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return false, domain.StepErrorf(
			domain.KindRepoAccess, "failed to open repository %q: %w", path, err,
		)
	}
	_, err = repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return false, nil
	}
	return true, nil
}

// DescendsFrom reports whether base's tip is an ancestor of branch's tip.
func (s *Service) DescendsFrom(_ context.Context, path, branch, base string) (bool, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return false, domain.StepErrorf(
			domain.KindRepoAccess, "failed to open repository %q: %w", path, err,
		)
	}

	branchCommit, err := commitAt(repo, plumbing.NewBranchReferenceName(branch))
	if err != nil {
		return false, err
	}
	baseCommit, err := commitAt(repo, plumbing.NewBranchReferenceName(base))
	if err != nil {
		return false, err
	}

	ok, err := baseCommit.IsAncestor(branchCommit)
	if err != nil {
		return false, fmt.Errorf("failed to walk history of %q: %w", path, err)
	}
	return ok, nil
}

// Switch checks out the given branch, creating it when create is true.
func (s *Service) Switch(ctx context.Context, path, branch string, create bool) error {
	args := []string{"switch"}
	if create {
		args = append(args, "-c")
	}
	args = append(args, branch)

	_, stderr, err := s.runner.Run(ctx, path, "git", args...)
	if err != nil {
		return domain.StepErrorf(
			domain.KindRepoAccess, "git switch %s failed: %v: %s",
			branch, err, strings.TrimSpace(string(stderr)),
		)
	}
	return nil
}

// CommitAll stages everything and commits. When the first commit attempt
// fails, typically because a pre-commit hook reformatted files, the
// mutated files are re-staged and the commit is retried exactly once.
func (s *Service) CommitAll(ctx context.Context, path, message string) error {
	if err := s.stageAll(ctx, path); err != nil {
		return err
	}

	_, stderr, err := s.runner.Run(ctx, path, "git", "commit", "-m", message)
	if err == nil {
		return nil
	}
	logger.Debugf("commit failed in %s, re-staging and retrying once: %s",
		path, strings.TrimSpace(string(stderr)))

	if stageErr := s.stageAll(ctx, path); stageErr != nil {
		return stageErr
	}
	_, stderr, err = s.runner.Run(ctx, path, "git", "commit", "-m", message)
	if err != nil {
		return domain.StepErrorf(
			domain.KindHookFailure, "commit failed twice in %q: %v: %s",
			path, err, strings.TrimSpace(string(stderr)),
		)
	}
	return nil
}

func (s *Service) stageAll(ctx context.Context, path string) error {
	_, stderr, err := s.runner.Run(ctx, path, "git", "add", "--all")
	if err != nil {
		return domain.StepErrorf(
			domain.KindHookFailure, "git add failed in %q: %v: %s",
			path, err, strings.TrimSpace(string(stderr)),
		)
	}
	return nil
}

// Push pushes the branch to origin, setting the upstream. When the remote
// tracking branch already matches the local tip the push is skipped entirely.
func (s *Service) Push(ctx context.Context, path, branch string) (bool, error) {
	upToDate, err := s.remoteUpToDate(path, branch)
	if err != nil {
		return false, err
	}
	if upToDate {
		logger.Debugf("%s: remote branch %s already at local tip, skipping push", path, branch)
		return false, nil
	}

	_, stderr, err := s.runner.Run(
		ctx, path, "git", "push", "--set-upstream", defaultRemote, branch,
	)
	if err != nil {
		return false, domain.StepErrorf(
			domain.KindPush, "git push failed in %q: %v: %s",
			path, err, strings.TrimSpace(string(stderr)),
		)
	}
	return true, nil
}

// remoteUpToDate reports whether origin/<branch> exists and points at the
// same commit as the local branch.
func (s *Service) remoteUpToDate(path, branch string) (bool, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return false, domain.StepErrorf(
			domain.KindRepoAccess, "failed to open repository %q: %w", path, err,
		)
	}

	localRef, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return false, nil
	}
	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName(defaultRemote, branch), true)
	if err != nil {
		return false, nil
	}
	return localRef.Hash() == remoteRef.Hash(), nil
}

func commitAt(repo *gogit.Repository, name plumbing.ReferenceName) (*object.Commit, error) {
	ref, err := repo.Reference(name, true)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", name.Short(), err)
	}
	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", ref.Hash(), err)
	}
	return commit, nil
}

// aheadBehind counts the commits the local branch is ahead of and behind its
// remote tracking branch. A repository with no upstream reports zeros.
func aheadBehind(repo *gogit.Repository, branch string) (ahead, behind int, hasUpstream bool) {
	localRef, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return 0, 0, false
	}
	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName(defaultRemote, branch), true)
	if err != nil {
		return 0, 0, false
	}

	if localRef.Hash() == remoteRef.Hash() {
		return 0, 0, true
	}

	localCommit, err := repo.CommitObject(localRef.Hash())
	if err != nil {
		return 0, 0, true
	}
	remoteCommit, err := repo.CommitObject(remoteRef.Hash())
	if err != nil {
		return 0, 0, true
	}

	return countExclusive(localCommit, remoteCommit),
		countExclusive(remoteCommit, localCommit),
		true
}

// countExclusive counts commits reachable from `from` but not from `other`.
func countExclusive(from, other *object.Commit) int {
	bases, err := from.MergeBase(other)
	if err != nil {
		return 0
	}
	ignore := make([]plumbing.Hash, 0, len(bases))
	for _, b := range bases {
		ignore = append(ignore, b.Hash)
	}

	count := 0
	iter := object.NewCommitPreorderIter(from, nil, ignore)
	_ = iter.ForEach(func(*object.Commit) error {
		count++
		return nil
	})
	return count
}
