package content

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

// loadFS loads a table from an in-memory content pack
func loadFS(t *testing.T, files map[string]string) (*Table, error) {
	t.Helper()
	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return Load(context.Background(), fsys, LoadOptions{Workers: 2})
}

func mustLoadFS(t *testing.T, files map[string]string) *Table {
	t.Helper()
	table, err := loadFS(t, files)
	require.NoError(t, err)
	return table
}
