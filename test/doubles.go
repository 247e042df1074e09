// Package testdoubles provides test doubles (spies, stubs, dummies) for
// domain interfaces. These are hand-crafted implementations, no mock
// frameworks.
package testdoubles

import (
	"context"
	"sync"

	"github.com/h0uter/multimr/domain"
)

// ---------------------------------------------------------------------------
// SpyGit
// ---------------------------------------------------------------------------

// SpyGit implements domain.Git as a configurable spy. Configure the response
// fields for the methods your test exercises, then inspect the call-tracking
// fields to verify behavior. All mutating-call records are safe for
// concurrent workers.
type SpyGit struct {
	mu sync.Mutex

	// --- Discover ---
	Repos       []string
	DiscoverErr error
	// spy: roots that were listed
	DiscoveredRoots []string

	// --- Inspect ---
	States     map[string]domain.RepositoryState // path -> state
	InspectErr map[string]error                  // path -> error
	// spy: paths inspected
	InspectedPaths []string

	// --- BranchExists ---
	Branches map[string]bool // "path:branch" -> exists

	// --- DescendsFrom ---
	Descends map[string]bool // "path:branch" -> descends from base

	// --- Switch ---
	SwitchErr error
	// spy: switches performed
	Switches []SwitchCall

	// --- CommitAll ---
	CommitErr map[string]error // path -> error
	// spy: commits performed
	Commits []CommitCall

	// --- Push ---
	PushErr    map[string]error // path -> error
	PushNoOp   map[string]bool  // path -> remote already up to date
	PushedRepo []string
}

// SwitchCall records one Switch invocation.
type SwitchCall struct {
	Path   string
	Branch string
	Create bool
}

// CommitCall records one CommitAll invocation.
type CommitCall struct {
	Path    string
	Message string
}

func (g *SpyGit) Discover(_ context.Context, root string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.DiscoveredRoots = append(g.DiscoveredRoots, root)
	return g.Repos, g.DiscoverErr
}

func (g *SpyGit) Inspect(_ context.Context, path string) (domain.RepositoryState, error) {
	g.mu.Lock()
	g.InspectedPaths = append(g.InspectedPaths, path)
	g.mu.Unlock()
	if err, ok := g.InspectErr[path]; ok && err != nil {
		return domain.RepositoryState{Path: path}, err
	}
	if state, ok := g.States[path]; ok {
		return state, nil
	}
	return domain.RepositoryState{Path: path, CurrentBranch: "main"}, nil
}

func (g *SpyGit) BranchExists(_ context.Context, path, branch string) (bool, error) {
	return g.Branches[path+":"+branch], nil
}

func (g *SpyGit) DescendsFrom(_ context.Context, path, branch, _ string) (bool, error) {
	return g.Descends[path+":"+branch], nil
}

func (g *SpyGit) Switch(_ context.Context, path, branch string, create bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Switches = append(g.Switches, SwitchCall{Path: path, Branch: branch, Create: create})
	return g.SwitchErr
}

func (g *SpyGit) CommitAll(_ context.Context, path, message string) error {
	g.mu.Lock()
	g.Commits = append(g.Commits, CommitCall{Path: path, Message: message})
	g.mu.Unlock()
	return g.CommitErr[path]
}

func (g *SpyGit) Push(_ context.Context, path, _ string) (bool, error) {
	if err := g.PushErr[path]; err != nil {
		return false, err
	}
	if g.PushNoOp[path] {
		return false, nil
	}
	g.mu.Lock()
	g.PushedRepo = append(g.PushedRepo, path)
	g.mu.Unlock()
	return true, nil
}

// ---------------------------------------------------------------------------
// SpyBackend
// ---------------------------------------------------------------------------

// SpyBackend implements domain.Backend as a configurable spy.
type SpyBackend struct {
	mu sync.Mutex

	BackendName  string
	AvailableErr error
	CreatedMR    *domain.MergeRequest
	CreateErr    map[string]error // repo path -> error

	// spy: requests received
	Requests []domain.CreateRequest
}

func (b *SpyBackend) Name() string {
	if b.BackendName == "" {
		return "spy"
	}
	return b.BackendName
}

func (b *SpyBackend) Available(_ context.Context) error {
	return b.AvailableErr
}

func (b *SpyBackend) Create(
	_ context.Context,
	req domain.CreateRequest,
) (*domain.MergeRequest, error) {
	b.mu.Lock()
	b.Requests = append(b.Requests, req)
	b.mu.Unlock()
	if err := b.CreateErr[req.RepoPath]; err != nil {
		return nil, err
	}
	if b.CreatedMR != nil {
		return b.CreatedMR, nil
	}
	return &domain.MergeRequest{ID: 1, URL: "https://example.com/mr/1"}, nil
}

// ---------------------------------------------------------------------------
// SpyReporter
// ---------------------------------------------------------------------------

// SpyReporter implements domain.Reporter, recording every event.
type SpyReporter struct {
	mu sync.Mutex

	Started   []string
	Finished  []domain.RepoOutcome
	Summaries []*domain.RunSummary
}

func (r *SpyReporter) RepoStarted(repo string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Started = append(r.Started, repo)
}

func (r *SpyReporter) RepoFinished(repo string, result domain.ExecutionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finished = append(r.Finished, domain.RepoOutcome{Repo: repo, Result: result})
}

func (r *SpyReporter) RunFinished(summary *domain.RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Summaries = append(r.Summaries, summary)
}

// ---------------------------------------------------------------------------
// StubRunner
// ---------------------------------------------------------------------------

// RunnerCall records one subprocess invocation received by StubRunner.
type RunnerCall struct {
	Dir  string
	Name string
	Args []string
}

// StubRunner implements shell.Runner with canned responses keyed by the
// command name (first key match wins: "name arg0", then "name").
type StubRunner struct {
	mu sync.Mutex

	Stdout map[string][]byte
	Stderr map[string][]byte
	Errs   map[string]error
	// LookPathErr is returned for every LookPath call.
	LookPathErr error

	Calls []RunnerCall
}

func (r *StubRunner) Run(
	_ context.Context,
	dir, name string,
	args ...string,
) ([]byte, []byte, error) {
	r.mu.Lock()
	r.Calls = append(r.Calls, RunnerCall{Dir: dir, Name: name, Args: args})
	r.mu.Unlock()

	keys := []string{name}
	if len(args) > 0 {
		keys = []string{name + " " + args[0], name}
	}
	for _, key := range keys {
		if err, ok := r.Errs[key]; ok && err != nil {
			return nil, []byte(err.Error()), err
		}
		out, hasOut := r.Stdout[key]
		errOut, hasErrOut := r.Stderr[key]
		if hasOut || hasErrOut {
			return out, errOut, nil
		}
	}
	return nil, nil, nil
}

func (r *StubRunner) LookPath(_ string) error {
	return r.LookPathErr
}
