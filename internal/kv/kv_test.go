package kv_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/victornm/etrivia/internal/kv"
)

func TestStores(t *testing.T) {
	tests := map[string]struct {
		arrange func(t *testing.T) kv.Store
	}{
		"memory": {
			arrange: func(t *testing.T) kv.Store {
				return kv.NewMemory()
			},
		},

		"redis": {
			arrange: func(t *testing.T) kv.Store {
				rs := miniredis.RunT(t)
				rc := redis.NewUniversalClient(&redis.UniversalOptions{
					Addrs: []string{rs.Addr()},
				})
				t.Cleanup(func() { rc.Close() })
				return kv.NewRedis(rc)
			},
		},

		"sqlite": {
			arrange: func(t *testing.T) kv.Store {
				s, err := kv.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "trivia.db"))
				require.NoError(t, err)
				t.Cleanup(func() { s.Close() })
				return s
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			s := tt.arrange(t)

			_, err := s.Get(ctx, "missing")
			require.ErrorIs(t, err, kv.ErrNotFound)

			require.NoError(t, s.Set(ctx, "k", "v1"))
			v, err := s.Get(ctx, "k")
			require.NoError(t, err)
			require.Equal(t, "v1", v)

			require.NoError(t, s.Set(ctx, "k", "v2"))
			v, err = s.Get(ctx, "k")
			require.NoError(t, err)
			require.Equal(t, "v2", v, "set should overwrite")
		})
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "trivia.db")

	s, err := kv.OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "quizLeaderboard", "[]"))
	require.NoError(t, s.Close())

	s, err = kv.OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.Get(ctx, "quizLeaderboard")
	require.NoError(t, err)
	require.Equal(t, "[]", v)
}
