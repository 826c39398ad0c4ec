// Package testutil provides shared test helpers for opening throwaway
// stores and config files.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studyowl/offline/internal/store"
)

// OpenStore opens an in-memory durable store with the full schema and
// closes it when the test finishes.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()

	s := store.New(":memory:")
	require.NoError(t, s.Open(context.Background()))
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

// SetupTestConfig writes a minimal config file into tmpDir and returns its
// path.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	configContent := fmt.Sprintf(`database:
  path: %s
api:
  base_url: https://api.example.com/v1
student:
  id: student-1
`,
		filepath.Join(tmpDir, "offline.db"),
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}
