package application

import (
	"context"
	"strings"

	"github.com/h0uter/multimr/domain"
)

// defaultBases are the branch names guessed as the base when none is
// configured explicitly.
var defaultBases = []string{"main", "master"}

// Planner decides the target branch for one repository. Planning never
// mutates the repository; a dry run and a live run produce the identical
// plan for the same state.
type Planner struct {
	git domain.Git
}

// NewPlanner creates a planner that queries branch existence and ancestry
// through the given git service.
func NewPlanner(git domain.Git) *Planner {
	return &Planner{git: git}
}

// Plan computes the branch plan for one repository. baseOverride, when
// non-empty, always wins over the main/master guess.
func (p *Planner) Plan(
	ctx context.Context,
	mode domain.WorkflowMode,
	state domain.RepositoryState,
	title, baseOverride string,
) (domain.BranchPlan, error) {
	base, err := p.resolveBase(ctx, state, baseOverride)
	if err != nil {
		return domain.BranchPlan{}, err
	}
	onBase := state.CurrentBranch == base

	switch mode {
	case domain.FromFeature:
		if onBase {
			return domain.BranchPlan{}, domain.StepErrorf(
				domain.KindBranchConflict,
				"current branch %q is the base branch; no feature branch to reuse",
				state.CurrentBranch,
			)
		}
		return domain.BranchPlan{
			TargetBranch: state.CurrentBranch,
			BaseBranch:   base,
			CreateNew:    false,
		}, nil

	case domain.FromMain:
		if !onBase {
			// Already on a per-repository feature branch: reuse it.
			return domain.BranchPlan{
				TargetBranch: state.CurrentBranch,
				BaseBranch:   base,
				CreateNew:    false,
			}, nil
		}
		return p.planNewBranch(ctx, state, title, base)

	default:
		return domain.BranchPlan{}, domain.StepErrorf(
			domain.KindConfig, "unknown workflow mode %q", mode,
		)
	}
}

// planNewBranch names the branch after the title. An existing branch with
// that name is reused when it descends from the base, and rejected as a
// conflict when it diverges; it is never overwritten.
func (p *Planner) planNewBranch(
	ctx context.Context,
	state domain.RepositoryState,
	title, base string,
) (domain.BranchPlan, error) {
	target := BranchNameFor(title)

	exists, err := p.git.BranchExists(ctx, state.Path, target)
	if err != nil {
		return domain.BranchPlan{}, err
	}
	if !exists {
		return domain.BranchPlan{
			TargetBranch: target,
			BaseBranch:   base,
			CreateNew:    true,
		}, nil
	}

	descends, err := p.git.DescendsFrom(ctx, state.Path, target, base)
	if err != nil {
		return domain.BranchPlan{}, err
	}
	if !descends {
		return domain.BranchPlan{}, domain.StepErrorf(
			domain.KindBranchConflict,
			"branch %q already exists but does not descend from %q",
			target, base,
		)
	}

	return domain.BranchPlan{
		TargetBranch: target,
		BaseBranch:   base,
		CreateNew:    false,
	}, nil
}

// resolveBase returns the explicitly configured base or, failing that, the
// main/master branch the repository actually has. The current branch is
// preferred when it is itself a default base.
func (p *Planner) resolveBase(
	ctx context.Context,
	state domain.RepositoryState,
	baseOverride string,
) (string, error) {
	if baseOverride != "" {
		return baseOverride, nil
	}

	for _, candidate := range defaultBases {
		if state.CurrentBranch == candidate {
			return candidate, nil
		}
	}
	for _, candidate := range defaultBases {
		exists, err := p.git.BranchExists(ctx, state.Path, candidate)
		if err != nil {
			return "", err
		}
		if exists {
			return candidate, nil
		}
	}

	// No main or master at all: fall back to the first default name so the
	// backend gets a target; the push or request step will surface the error.
	return defaultBases[0], nil
}

// BranchNameFor derives a branch name from a merge request title by
// collapsing whitespace runs into single dashes.
func BranchNameFor(title string) string {
	return strings.Join(strings.Fields(title), "-")
}
