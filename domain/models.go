package domain

// WorkflowMode selects the branch-planning policy for a run.
type WorkflowMode string

const (
	// FromMain assumes repositories start on the shared base branch, so a
	// feature branch named after the request title must be created.
	FromMain WorkflowMode = "from-main"
	// FromFeature assumes each repository was already switched to its own
	// feature branch, which is reused verbatim.
	FromFeature WorkflowMode = "from-feature"
)

// RepositoryState is a read-only snapshot of one repository's local git state.
type RepositoryState struct {
	Path          string
	Name          string
	CurrentBranch string
	Dirty         bool
	Ahead         int // commits local is ahead of the remote tracking branch
	Behind        int // commits local is behind the remote tracking branch
	HasUpstream   bool
}

// BranchPlan is the planning decision for one repository. It is computed
// once per repository and never mutated afterwards.
type BranchPlan struct {
	TargetBranch string
	BaseBranch   string
	CreateNew    bool
}

// MergeRequestSpec describes the request to create, built by merging the
// configuration defaults with run-time flag overrides.
type MergeRequestSpec struct {
	Title       string
	Description string
	Assignee    string
	Reviewers   []string
	Labels      []string
	Draft       bool
	DryRun      bool
}

// ResultStatus is the terminal state of one repository's pipeline.
type ResultStatus string

const (
	StatusCreated ResultStatus = "created"
	StatusSkipped ResultStatus = "skipped"
	StatusFailed  ResultStatus = "failed"
)

// ExecutionResult is the outcome for a single repository, independent of
// every other repository's outcome.
type ExecutionResult struct {
	Status  ResultStatus
	Branch  string
	URL     string
	Reason  string // set when skipped
	Kind    Kind   // set when failed
	Message string // set when failed
	// Simulated marks results synthesized by a dry run so the display can
	// distinguish them from real ones.
	Simulated bool
}

// CreatedResult builds a successful outcome for a live run.
func CreatedResult(branch, url string) ExecutionResult {
	return ExecutionResult{Status: StatusCreated, Branch: branch, URL: url}
}

// SimulatedResult builds the placeholder outcome a dry run produces instead
// of invoking the backend. It carries no real URL.
func SimulatedResult(branch string) ExecutionResult {
	return ExecutionResult{Status: StatusCreated, Branch: branch, Simulated: true}
}

// SkippedResult builds an outcome for a repository that needed no work.
func SkippedResult(reason string) ExecutionResult {
	return ExecutionResult{Status: StatusSkipped, Reason: reason}
}

// FailedResult converts an error into a failed outcome, classifying it with
// the embedded StepError kind when present and falling back otherwise.
func FailedResult(err error, fallback Kind) ExecutionResult {
	return ExecutionResult{
		Status:  StatusFailed,
		Kind:    KindOf(err, fallback),
		Message: err.Error(),
	}
}

// RepoOutcome pairs a repository identifier with its result.
type RepoOutcome struct {
	Repo   string
	Result ExecutionResult
}

// RunSummary is the ordered collection of per-repository outcomes for one
// run. Outcomes follow the input order regardless of completion order.
type RunSummary struct {
	Outcomes []RepoOutcome
}

// OK reports whether the run contained no failed repository.
func (s *RunSummary) OK() bool {
	return s.CountByStatus(StatusFailed) == 0
}

// CountByStatus returns how many repositories ended in the given status.
func (s *RunSummary) CountByStatus(status ResultStatus) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Result.Status == status {
			n++
		}
	}
	return n
}
