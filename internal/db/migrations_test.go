package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderMigrationSizesVectorColumn(t *testing.T) {
	content, err := fs.ReadFile(migrationsFS, "migrations/0001_init.sql")
	require.NoError(t, err)

	rendered := renderMigration(string(content), 768)
	require.Contains(t, rendered, "vector(768)")
	require.NotContains(t, rendered, "{{embed_dim}}")
}

func TestMigrationsCarryNoStraySemicolons(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	for _, entry := range entries {
		content, err := fs.ReadFile(migrationsFS, "migrations/"+entry.Name())
		require.NoError(t, err)
		// the runner splits on ";", so comments must never contain one
		for _, line := range strings.Split(string(content), "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				require.NotContains(t, line, ";", "comment in %s", entry.Name())
			}
		}
	}
}
