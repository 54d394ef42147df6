package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks
var (
	_ Store = (*Memory)(nil)
	_ Store = (*Gorm)(nil)
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()

	g, err := OpenGorm(Options{Driver: DriverSQLite, DSN: ":memory:"}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": g,
	}
}

func TestStore_GetSet(t *testing.T) {
	ctx := context.Background()

	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			v, err := s.Get(ctx, "missing")
			require.NoError(t, err)
			assert.Zero(t, v)

			require.NoError(t, s.Set(ctx, "best", 1200))
			v, err = s.Get(ctx, "best")
			require.NoError(t, err)
			assert.Equal(t, 1200.0, v)

			require.NoError(t, s.Set(ctx, "best", 3400.5))
			v, err = s.Get(ctx, "best")
			require.NoError(t, err)
			assert.Equal(t, 3400.5, v)

			v, err = s.Get(ctx, "other")
			require.NoError(t, err)
			assert.Zero(t, v)
		})
	}
}

func TestGorm_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scores.db")
	opts := Options{Driver: DriverSQLite, DSN: path}

	g, err := OpenGorm(opts, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, g.Set(ctx, "best", 777))
	require.NoError(t, g.Close())

	g, err = OpenGorm(opts, zerolog.Nop())
	require.NoError(t, err)
	defer g.Close()

	v, err := g.Get(ctx, "best")
	require.NoError(t, err)
	assert.Equal(t, 777.0, v)
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "default is memory", opts: Options{}},
		{name: "memory", opts: Options{Driver: DriverMemory}},
		{name: "sqlite", opts: Options{Driver: DriverSQLite}},
		{name: "unknown", opts: Options{Driver: "mongo"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.opts, zerolog.Nop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, s.Close())
		})
	}
}
