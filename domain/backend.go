package domain

import "context"

// CreateRequest carries everything a backend needs to open one merge request.
type CreateRequest struct {
	RepoPath     string
	Spec         MergeRequestSpec
	SourceBranch string
	TargetBranch string
}

// MergeRequest is the created request as reported by a backend.
type MergeRequest struct {
	ID  int
	URL string
}

// Backend abstracts the external system used to actually create the merge
// request. Implementations exist for subprocess invocation of a hosting
// provider's CLI and for native API clients; the orchestration never depends
// on a concrete one.
type Backend interface {
	// Name returns the backend identifier (e.g. "glab", "github", "gitlab").
	Name() string

	// Available verifies the backend can run at all (CLI installed, token
	// present). Called once before any repository is touched.
	Available(ctx context.Context) error

	// Create opens the merge request and returns its parsed result. It is a
	// bounded operation and must honor ctx cancellation.
	Create(ctx context.Context, req CreateRequest) (*MergeRequest, error)
}
