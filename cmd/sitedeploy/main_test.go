//go:build unit

package main //nolint:testpackage // tests unexported functions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInjectAppContext(t *testing.T) {
	t.Parallel()

	t.Run("should resolve every controller from the container", func(t *testing.T) {
		t.Parallel()

		// given, when
		appContext := injectAppContext()

		// then
		require.NotNil(t, appContext)
		assert.Len(t, appContext.GetControllers(), 7)
		assert.Equal(t, "auto", appContext.GetDefaultController().GetBind().Use)
	})
}

func TestBuildRootCommand(t *testing.T) {
	t.Parallel()

	t.Run("should register every subcommand with its flags", func(t *testing.T) {
		t.Parallel()

		// given
		appContext := injectAppContext()

		// when
		root := buildRootCommand(appContext.GetDefaultController())
		addSubcommands(root, appContext)

		// then
		names := make([]string, 0, len(root.Commands()))
		for _, sub := range root.Commands() {
			names = append(names, sub.Name())
		}
		assert.ElementsMatch(t, []string{"auto", "homepage", "reports", "status", "unlock", "watch", "history"}, names)

		for _, flag := range []string{"config", "dry-run", "verbose"} {
			assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
		}

		status, _, err := root.Find([]string{"status"})
		require.NoError(t, err)
		assert.NotNil(t, status.Flags().Lookup("json"))
		assert.NotNil(t, status.Flags().Lookup("history"))

		unlock, _, err := root.Find([]string{"unlock"})
		require.NoError(t, err)
		assert.NotNil(t, unlock.Flags().Lookup("yes"))
		assert.NotNil(t, unlock.Flags().Lookup("force"))
	})
}
