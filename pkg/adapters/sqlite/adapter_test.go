package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapql/pkg/adapter"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   adapter.Config
		expected string
	}{
		{"default", adapter.Config{}, ":memory:"},
		{"path", adapter.Config{Path: "/tmp/x.db"}, "/tmp/x.db"},
		{
			"pragmas",
			adapter.Config{Path: "/tmp/x.db", Options: map[string]string{"foreign_keys": "1", "busy_timeout": "5000"}},
			"file:/tmp/x.db?_pragma=busy_timeout%285000%29&_pragma=foreign_keys%281%29",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildDSN(tt.config))
		})
	}
}

func TestAdapter_ConnectAndQuery(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, adapter.Config{Type: "sqlite", Path: path}))
	defer func() { _ = adp.Close() }()

	_, err := os.Stat(path)
	require.NoError(t, err, "database file was not created")

	require.NoError(t, adp.Exec(ctx, "create table t (id integer, name varchar)"))
	require.NoError(t, adp.Exec(ctx, "insert into t values (?, ?), (?, ?)", 1, "a", 2, "b"))

	rows, err := adp.Query(ctx, "select name from t where id = ?", 2)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	require.True(t, rows.Next())
	var name string
	require.NoError(t, rows.Scan(&name))
	assert.Equal(t, "b", name)
	assert.False(t, rows.Next())
	require.NoError(t, rows.Err())
}

func TestAdapter_Dialect(t *testing.T) {
	adp := New(nil)
	assert.Equal(t, "sqlite", adp.Dialect().Name)
	assert.Equal(t, "sqlite", adp.DialectConfig().Name)
	assert.True(t, adapter.IsRegistered("sqlite"))
	d, ok := adapter.DialectFor("sqlite")
	require.True(t, ok)
	assert.Equal(t, "sqlite", d)
}
