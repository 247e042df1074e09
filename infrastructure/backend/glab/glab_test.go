package glab_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h0uter/multimr/domain"
	"github.com/h0uter/multimr/infrastructure/backend/glab"
	testdoubles "github.com/h0uter/multimr/test"
	"github.com/h0uter/multimr/test/domain/entitybuilders"
)

func buildRequest(spec domain.MergeRequestSpec) domain.CreateRequest {
	return domain.CreateRequest{
		RepoPath:     "/w/repo1",
		Spec:         spec,
		SourceBranch: "Update-shared-pipeline",
		TargetBranch: "main",
	}
}

func TestBackend_Available(t *testing.T) {
	t.Parallel()

	t.Run("should succeed when the CLI is on PATH", func(t *testing.T) {
		t.Parallel()

		// given
		backend := glab.New("", &testdoubles.StubRunner{})

		// when
		err := backend.Available(context.Background())

		// then
		assert.NoError(t, err)
	})

	t.Run("should report a configuration error when the CLI is missing", func(t *testing.T) {
		t.Parallel()

		// given
		runner := &testdoubles.StubRunner{LookPathErr: assert.AnError}
		backend := glab.New("", runner)

		// when
		err := backend.Available(context.Background())

		// then
		require.Error(t, err)
		assert.Equal(t, domain.KindConfig, domain.KindOf(err, ""))
	})
}

func TestBackend_Create(t *testing.T) {
	t.Parallel()

	t.Run("should pass the full spec to the CLI and parse the URL", func(t *testing.T) {
		t.Parallel()

		// given
		spec := entitybuilders.NewSpecBuilder().
			WithTitle("Update shared pipeline").
			WithAssignee("alice").
			WithReviewers("bob", "carol").
			WithLabels("enhancement").
			AsDraft().
			BuildSpec()
		runner := &testdoubles.StubRunner{
			Stdout: map[string][]byte{
				"glab mr": []byte(
					"Creating merge request...\n" +
						"https://gitlab.com/group/repo/-/merge_requests/42\n",
				),
			},
		}
		backend := glab.New("", runner)

		// when
		mr, err := backend.Create(context.Background(), buildRequest(spec))

		// then
		require.NoError(t, err)
		assert.Equal(t, "https://gitlab.com/group/repo/-/merge_requests/42", mr.URL)

		require.Len(t, runner.Calls, 1)
		call := runner.Calls[0]
		assert.Equal(t, "/w/repo1", call.Dir)
		assert.Equal(t, "glab", call.Name)
		assert.Equal(t, []string{
			"mr", "create",
			"--title", "Update shared pipeline",
			"--description", "Synchronized change across repositories.",
			"--source-branch", "Update-shared-pipeline",
			"--target-branch", "main",
			"--assignee", "alice",
			"--yes",
			"--reviewer", "bob",
			"--reviewer", "carol",
			"--label", "enhancement",
			"--draft",
		}, call.Args)
	})

	t.Run("should fall back to stderr when the URL is printed there", func(t *testing.T) {
		t.Parallel()

		// given
		spec := entitybuilders.NewSpecBuilder().BuildSpec()
		runner := &testdoubles.StubRunner{
			Stderr: map[string][]byte{
				"glab mr": []byte("https://gitlab.com/g/r/-/merge_requests/7\n"),
			},
		}
		backend := glab.New("", runner)

		// when
		mr, err := backend.Create(context.Background(), buildRequest(spec))

		// then
		require.NoError(t, err)
		assert.Equal(t, "https://gitlab.com/g/r/-/merge_requests/7", mr.URL)
	})

	t.Run("should classify a CLI failure as a backend error", func(t *testing.T) {
		t.Parallel()

		// given
		spec := entitybuilders.NewSpecBuilder().BuildSpec()
		runner := &testdoubles.StubRunner{
			Errs: map[string]error{"glab mr": assert.AnError},
		}
		backend := glab.New("", runner)

		// when
		mr, err := backend.Create(context.Background(), buildRequest(spec))

		// then
		require.Error(t, err)
		assert.Nil(t, mr)
		assert.Equal(t, domain.KindBackend, domain.KindOf(err, ""))
	})

	t.Run("should fail when the output carries no merge request URL", func(t *testing.T) {
		t.Parallel()

		// given
		spec := entitybuilders.NewSpecBuilder().BuildSpec()
		runner := &testdoubles.StubRunner{
			Stdout: map[string][]byte{"glab mr": []byte("nothing useful\n")},
		}
		backend := glab.New("", runner)

		// when
		mr, err := backend.Create(context.Background(), buildRequest(spec))

		// then
		require.Error(t, err)
		assert.Nil(t, mr)
		assert.Equal(t, domain.KindBackend, domain.KindOf(err, ""))
	})
}
