// Package storetest checks that a store.Store implementation behaves like
// the reference memory store.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"
	"golang.org/x/sync/errgroup"

	"github.com/birdayz/procnet/store"
)

// Run runs the conformance tests. newStore must return an empty store; Run
// closes it.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		assert.NoError(t, s.Set(ctx, "workspaces/a.xml", []byte("a")))
		got, err := s.Get(ctx, "workspaces/a.xml")
		assert.NoError(t, err)
		assert.Equal(t, "a", string(got))

		assert.NoError(t, s.Set(ctx, "workspaces/a.xml", []byte("b")))
		got, err = s.Get(ctx, "workspaces/a.xml")
		assert.NoError(t, err)
		assert.Equal(t, "b", string(got))
	})

	t.Run("missing key", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		_, err := s.Get(ctx, "nope")
		assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
		assert.NoError(t, s.Delete(ctx, "nope"))
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		assert.NoError(t, s.Set(ctx, "k", []byte("v")))
		assert.NoError(t, s.Delete(ctx, "k"))
		_, err := s.Get(ctx, "k")
		assert.True(t, errors.Is(err, store.ErrNotFound))
	})

	t.Run("list by prefix", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		for _, k := range []string{"b/2", "a/1", "b/1", "c"} {
			assert.NoError(t, s.Set(ctx, k, []byte(k)))
		}
		keys, err := s.List(ctx, "b/")
		assert.NoError(t, err)
		assert.Equal(t, []string{"b/1", "b/2"}, keys)

		keys, err = s.List(ctx, "")
		assert.NoError(t, err)
		assert.Equal(t, []string{"a/1", "b/1", "b/2", "c"}, keys)
	})

	t.Run("invalid keys", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		for _, k := range []string{"", "/abs", "a//b", "../escape", "a/./b"} {
			err := s.Set(ctx, k, []byte("x"))
			assert.True(t, errors.Is(err, store.ErrInvalidKey), "key %q: %v", k, err)
		}
	})

	t.Run("values are copied", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		v := []byte("abc")
		assert.NoError(t, s.Set(ctx, "k", v))
		v[0] = 'x'
		got, err := s.Get(ctx, "k")
		assert.NoError(t, err)
		assert.Equal(t, "abc", string(got))
	})

	t.Run("concurrent writers", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		var g errgroup.Group
		for i := 0; i < 16; i++ {
			key := fmt.Sprintf("w/%02d", i)
			g.Go(func() error { return s.Set(ctx, key, []byte(key)) })
		}
		assert.NoError(t, g.Wait())
		keys, err := s.List(ctx, "w/")
		assert.NoError(t, err)
		assert.Equal(t, 16, len(keys))
	})

	t.Run("closed", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Close())
		_, err := s.Get(ctx, "k")
		assert.True(t, errors.Is(err, store.ErrClosed), "got %v", err)
	})
}
