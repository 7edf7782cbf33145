package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/birdayz/procnet/store"
	"github.com/birdayz/procnet/store/storetest"
)

func TestMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return store.NewMemory() })
}

func TestDir(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := store.NewDir(t.TempDir())
		assert.NoError(t, err)
		return s
	})
}

func TestDirLayout(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := store.NewDir(root)
	assert.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.Set(ctx, "workspaces/demo.xml", []byte("<ProcessorNetwork/>")))
	b, err := os.ReadFile(filepath.Join(root, "workspaces", "demo.xml"))
	assert.NoError(t, err)
	assert.Equal(t, "<ProcessorNetwork/>", string(b))

	_, err = os.Stat(filepath.Join(root, "workspaces", "demo.xml.tmp"))
	assert.True(t, os.IsNotExist(err))

	// The lock file is not a key.
	keys, err := s.List(ctx, "")
	assert.NoError(t, err)
	assert.Equal(t, []string{"workspaces/demo.xml"}, keys)

	assert.True(t, errors.Is(s.Set(ctx, "x.tmp", nil), store.ErrInvalidKey))
}

func TestDirectoryLock(t *testing.T) {
	dir := t.TempDir()

	first, err := store.NewDir(dir)
	assert.NoError(t, err)

	_, err = store.NewDir(dir)
	assert.True(t, errors.Is(err, store.ErrLocked), "got %v", err)

	assert.NoError(t, first.Close())
	_, err = os.Stat(filepath.Join(dir, store.LockFileName))
	assert.True(t, os.IsNotExist(err))

	second, err := store.NewDir(dir)
	assert.NoError(t, err)
	assert.NoError(t, second.Close())
}

func TestDirectoryLockTwice(t *testing.T) {
	l := store.NewDirectoryLock(t.TempDir())
	assert.NoError(t, l.Lock())
	assert.True(t, l.IsLocked())
	assert.Error(t, l.Lock())
	assert.NoError(t, l.Unlock())
	assert.False(t, l.IsLocked())
	assert.NoError(t, l.Unlock())
}
