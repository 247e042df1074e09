// Package report renders run progress and the final summary through the
// structured logger. It is the only component that writes output during a
// run; subprocess output never reaches the terminal directly.
package report

import (
	logger "github.com/sirupsen/logrus"

	"github.com/h0uter/multimr/domain"
)

// LogReporter implements domain.Reporter on logrus.
type LogReporter struct{}

// NewLogReporter creates the default reporter.
func NewLogReporter() *LogReporter {
	return &LogReporter{}
}

func (r *LogReporter) RepoStarted(repo string) {
	logger.Debugf("processing %s", repo)
}

func (r *LogReporter) RepoFinished(repo string, result domain.ExecutionResult) {
	switch result.Status {
	case domain.StatusCreated:
		if result.Simulated {
			logger.Infof("%s: [simulated] would create request from branch %s",
				repo, result.Branch)
			return
		}
		logger.Infof("%s: created %s (branch %s)", repo, result.URL, result.Branch)
	case domain.StatusSkipped:
		logger.Warnf("%s: skipped: %s", repo, result.Reason)
	case domain.StatusFailed:
		logger.Errorf("%s: failed (%s): %s", repo, result.Kind, result.Message)
	}
}

func (r *LogReporter) RunFinished(summary *domain.RunSummary) {
	logger.Infof("Run complete: %d created, %d skipped, %d failed",
		summary.CountByStatus(domain.StatusCreated),
		summary.CountByStatus(domain.StatusSkipped),
		summary.CountByStatus(domain.StatusFailed),
	)
}
