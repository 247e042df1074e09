package domain

// Reporter receives per-repository completion events (in completion order,
// not discovery order) and the final summary. Implementations own the
// display; the orchestrator never writes to the terminal itself.
type Reporter interface {
	RepoStarted(repo string)
	RepoFinished(repo string, result ExecutionResult)
	RunFinished(summary *RunSummary)
}
