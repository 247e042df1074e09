package cmd

import (
	"go.uber.org/dig"

	"github.com/h0uter/multimr/application"
	"github.com/h0uter/multimr/config"
	"github.com/h0uter/multimr/domain"
	backendPkg "github.com/h0uter/multimr/infrastructure/backend"
	ghBackend "github.com/h0uter/multimr/infrastructure/backend/github"
	glBackend "github.com/h0uter/multimr/infrastructure/backend/gitlab"
	glabBackend "github.com/h0uter/multimr/infrastructure/backend/glab"
	"github.com/h0uter/multimr/infrastructure/gitrepo"
	"github.com/h0uter/multimr/infrastructure/report"
	"github.com/h0uter/multimr/infrastructure/shell"
)

// buildService assembles the orchestrator and its collaborators through a
// dig container: config, subprocess runner, git service, backend registry,
// the configured backend, and the reporter.
func buildService(cfg *config.Config) (*application.CreateService, error) {
	container := dig.New()

	providers := []any{
		func() *config.Config { return cfg },
		func() shell.Runner { return shell.NewExecRunner() },
		func(runner shell.Runner) domain.Git { return gitrepo.NewService(runner) },
		func() domain.Reporter { return report.NewLogReporter() },
		buildBackendRegistry,
		resolveBackend,
		application.NewCreateService,
	}
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	var svc *application.CreateService
	if err := container.Invoke(func(s *application.CreateService) {
		svc = s
	}); err != nil {
		return nil, err
	}
	return svc, nil
}

func buildBackendRegistry() *backendPkg.Registry {
	reg := backendPkg.NewRegistry()
	reg.Register("glab", glabBackend.New)
	reg.Register("github", ghBackend.New)
	reg.Register("gitlab", glBackend.New)
	return reg
}

func resolveBackend(
	cfg *config.Config,
	reg *backendPkg.Registry,
	runner shell.Runner,
) (domain.Backend, error) {
	return reg.Get(cfg.Backend.Type, cfg.Backend.Token, runner)
}
