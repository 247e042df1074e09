package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/h0uter/multimr/infrastructure/shell"
)

// Remote holds the parsed components of a repository's origin URL.
type Remote struct {
	Host string // e.g. "github.com"
	Org  string
	Repo string
}

// ResolveRemote reads the origin URL of the repository at repoPath and
// parses it into host, organisation, and repository name.
func ResolveRemote(ctx context.Context, runner shell.Runner, repoPath string) (*Remote, error) {
	stdout, stderr, err := runner.Run(ctx, repoPath, "git", "remote", "get-url", "origin")
	if err != nil {
		return nil, fmt.Errorf(
			"git remote get-url origin failed in %q: %v: %s",
			repoPath, err, strings.TrimSpace(string(stderr)),
		)
	}
	return ParseRemoteURL(strings.TrimSpace(string(stdout)))
}

// ParseRemoteURL extracts host, org, and repo name from a Git remote URL.
// It supports the HTTPS and SSH layouts used by GitHub and GitLab:
//
//	HTTPS: https://{host}/{org}/{repo}[.git]
//	SSH:   git@{host}:{org}/{repo}[.git]
func ParseRemoteURL(rawURL string) (*Remote, error) {
	cleaned := strings.TrimSuffix(rawURL, ".git")

	var host, pathPart string
	switch {
	case strings.HasPrefix(cleaned, "git@"):
		hostAndPath := strings.TrimPrefix(cleaned, "git@")
		parts := strings.SplitN(hostAndPath, ":", 2)
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid SSH remote URL: %s", rawURL)
		}
		host, pathPart = parts[0], parts[1]
	case strings.HasPrefix(cleaned, "https://"), strings.HasPrefix(cleaned, "http://"):
		trimmed := strings.TrimPrefix(strings.TrimPrefix(cleaned, "https://"), "http://")
		var ok bool
		host, pathPart, ok = strings.Cut(trimmed, "/")
		if !ok {
			return nil, fmt.Errorf("invalid HTTP remote URL: %s", rawURL)
		}
	default:
		return nil, fmt.Errorf("unsupported remote URL: %s", rawURL)
	}

	segments := strings.Split(strings.Trim(pathPart, "/"), "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return nil, fmt.Errorf("cannot extract org/repo from remote URL: %s", rawURL)
	}

	// GitLab subgroups: everything before the final segment is the namespace.
	org := strings.Join(segments[:len(segments)-1], "/")
	repo := segments[len(segments)-1]

	return &Remote{Host: host, Org: org, Repo: repo}, nil
}

// Project returns the "org/repo" path used by hosting-provider APIs.
func (r *Remote) Project() string {
	return r.Org + "/" + r.Repo
}
