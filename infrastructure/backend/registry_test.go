package backend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h0uter/multimr/infrastructure/backend"
	"github.com/h0uter/multimr/infrastructure/backend/glab"
	"github.com/h0uter/multimr/infrastructure/backend/github"
	"github.com/h0uter/multimr/infrastructure/backend/gitlab"
	testdoubles "github.com/h0uter/multimr/test"
)

func buildRegistry() *backend.Registry {
	registry := backend.NewRegistry()
	registry.Register("glab", glab.New)
	registry.Register("github", github.New)
	registry.Register("gitlab", gitlab.New)
	return registry
}

func TestRegistry_Get(t *testing.T) {
	t.Parallel()

	t.Run("should return a configured backend for each registered name", func(t *testing.T) {
		t.Parallel()

		// given
		registry := buildRegistry()
		runner := &testdoubles.StubRunner{}

		for _, name := range []string{"glab", "github", "gitlab"} {
			// when
			b, err := registry.Get(name, "token", runner)

			// then
			require.NoError(t, err)
			assert.Equal(t, name, b.Name())
		}
	})

	t.Run("should fail for an unregistered backend type", func(t *testing.T) {
		t.Parallel()

		// given
		registry := buildRegistry()

		// when
		b, err := registry.Get("bitbucket", "", &testdoubles.StubRunner{})

		// then
		require.Error(t, err)
		assert.Nil(t, b)
		assert.Contains(t, err.Error(), "bitbucket")
	})

	t.Run("should list every registered backend name", func(t *testing.T) {
		t.Parallel()

		// given
		registry := buildRegistry()

		// when
		names := registry.Names()

		// then
		assert.ElementsMatch(t, []string{"glab", "github", "gitlab"}, names)
	})
}
