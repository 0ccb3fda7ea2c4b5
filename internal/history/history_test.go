package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeUnderTest runs the same contract suite against every Store
// implementation.
func storeUnderTest(t *testing.T, name string, open func(t *testing.T) Store) {
	t.Run(name, func(t *testing.T) {
		t.Parallel()

		t.Run("empty store accepts nothing", func(t *testing.T) {
			t.Parallel()
			store := open(t)

			ok, err := store.Accepted(context.Background(), "alice", "1-boot-1-gdt")
			require.NoError(t, err)
			assert.False(t, ok)

			tasks, err := store.AcceptedTasks(context.Background(), "alice")
			require.NoError(t, err)
			assert.Empty(t, tasks)
		})

		t.Run("append then query", func(t *testing.T) {
			t.Parallel()
			store := open(t)
			ctx := context.Background()

			rec := &Record{UserID: "alice", Task: "1-boot-1-gdt", Branch: "submit/1-boot-1-gdt", Accepted: true}
			require.NoError(t, store.Append(ctx, rec))
			assert.NotEmpty(t, rec.ID, "Append should stamp an ID")
			assert.False(t, rec.CreatedAt.IsZero(), "Append should stamp a timestamp")

			ok, err := store.Accepted(ctx, "alice", "1-boot-1-gdt")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = store.Accepted(ctx, "bob", "1-boot-1-gdt")
			require.NoError(t, err)
			assert.False(t, ok, "acceptance is per user")
		})

		t.Run("duplicate append is a no-op", func(t *testing.T) {
			t.Parallel()
			store := open(t)
			ctx := context.Background()

			first := &Record{UserID: "alice", Task: "1-boot-1-gdt", Accepted: true}
			require.NoError(t, store.Append(ctx, first))
			second := &Record{UserID: "alice", Task: "1-boot-1-gdt", Branch: "submit/retry", Accepted: true}
			require.NoError(t, store.Append(ctx, second))

			tasks, err := store.AcceptedTasks(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, []string{"1-boot-1-gdt"}, tasks)
		})

		t.Run("accepted tasks are sorted", func(t *testing.T) {
			t.Parallel()
			store := open(t)
			ctx := context.Background()

			for _, task := range []string{"2-mm-1-frames", "1-boot-1-gdt", "1-boot-2-paging"} {
				require.NoError(t, store.Append(ctx, &Record{UserID: "alice", Task: task, Accepted: true}))
			}

			tasks, err := store.AcceptedTasks(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, []string{"1-boot-1-gdt", "1-boot-2-paging", "2-mm-1-frames"}, tasks)
		})
	})
}

func TestStores(t *testing.T) {
	t.Parallel()

	storeUnderTest(t, "sqlite", func(t *testing.T) Store {
		store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		return store
	})

	storeUnderTest(t, "memory", func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestSQLiteStore_Reopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, &Record{UserID: "alice", Task: "1-boot-1-gdt", Accepted: true}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	ok, err := reopened.Accepted(ctx, "alice", "1-boot-1-gdt")
	require.NoError(t, err)
	assert.True(t, ok, "acceptance must survive process restarts")
}

func TestMemoryStore_Len(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, &Record{UserID: "alice", Task: "1-boot-1-gdt", Accepted: true}))
	require.NoError(t, store.Append(ctx, &Record{UserID: "bob", Task: "1-boot-1-gdt", Accepted: true}))
	require.NoError(t, store.Append(ctx, &Record{UserID: "alice", Task: "1-boot-1-gdt", Accepted: true}))
	assert.Equal(t, 2, store.Len())
}
