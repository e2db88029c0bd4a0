// Package kvstoretest holds the behaviour every kvstore.Store must share.
package kvstoretest

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/quidome/ecoquest-go/pkg/kvstore"
)

// NewStore constructs a fresh, empty Store for a test.
type NewStore func(t *testing.T) kvstore.Store

func RunConformance(t *testing.T, newStore NewStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("MissingKeyIsNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "absent")
		if !kvstore.IsNotFound(err) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SetGetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		want := []byte(`[{"hash":"abc"}]`)
		if err := s.Set(ctx, "ecoquest_photo_hashes", want); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, err := s.Get(ctx, "ecoquest_photo_hashes")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("got %q want %q", got, want)
		}
	})

	t.Run("SetReplaces", func(t *testing.T) {
		s := newStore(t)
		if err := s.Set(ctx, "k", []byte("one")); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := s.Set(ctx, "k", []byte("two")); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, err := s.Get(ctx, "k")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if string(got) != "two" {
			t.Fatalf("got %q want %q", got, "two")
		}
	})

	t.Run("ReturnedValueIsACopy", func(t *testing.T) {
		s := newStore(t)
		if err := s.Set(ctx, "k", []byte("value")); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, _ := s.Get(ctx, "k")
		got[0] = 'X'
		again, _ := s.Get(ctx, "k")
		if string(again) != "value" {
			t.Fatalf("store value was mutated through Get result: %q", again)
		}
	})

	t.Run("RejectsPathLikeKeys", func(t *testing.T) {
		s := newStore(t)
		err := s.Set(ctx, "../escape", []byte("x"))
		if !errors.Is(err, kvstore.ErrInvalidKey) {
			t.Fatalf("expected ErrInvalidKey, got %v", err)
		}
	})
}
