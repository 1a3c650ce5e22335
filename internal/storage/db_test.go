package storage

import (
	"testing"
	"testing/fstest"

	"github.com/namikmesic/graphstream/internal/storage/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesOrdered(t *testing.T) {
	fsys := fstest.MapFS{
		"010_indexes.up.sql":   {Data: []byte("")},
		"002_threads.up.sql":   {Data: []byte("")},
		"001_initial.up.sql":   {Data: []byte("")},
		"001_initial.down.sql": {Data: []byte("")},
		"README":               {Data: []byte("")},
	}

	names, err := migrationFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_initial.up.sql", "002_threads.up.sql", "010_indexes.up.sql"}, names)
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := migrationFiles(migrations.FS)
	require.NoError(t, err)
	assert.Contains(t, names, "001_initial.up.sql")
}
