// Package sessiontest holds the behaviour every session.Store driver must share.
package sessiontest

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/portalfiscal/internal/portal/domain"
	"github.com/aussiebroadwan/portalfiscal/internal/portal/session"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// RunStoreTests exercises a driver. newStore must return an empty store.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) session.Store) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	record := func(id string, updated time.Time) domain.Session {
		return domain.Session{
			ID:          id,
			Ref:         "01JNEXAMPLE",
			SealedToken: "sealed-" + id,
			CSRF:        "csrf-" + id,
			CreatedAt:   base,
			UpdatedAt:   updated,
		}
	}

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "nope")
		require.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("put then get round trips every field", func(t *testing.T) {
		s := newStore(t)

		want := record("a", base)
		want.Dialog = domain.ConfirmDialog("Confirmar Eliminación", "¿Seguro?", "/admin/dialog/confirm", "/admin/dialog/close")
		want.Pending = &domain.PendingDeletion{ClientID: "7", Name: "ACME"}
		want.Draft = &domain.ClientDraft{Name: "ACME", UsoCfdiID: "1", FormaPagoID: "3", AttachPDF: true}
		require.NoError(t, s.Put(ctx, want))

		got, err := s.Get(ctx, "a")
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("session mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("put overwrites", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, record("a", base)))

		updated := record("a", base.Add(time.Minute))
		updated.SealedToken = ""
		require.NoError(t, s.Put(ctx, updated))

		got, err := s.Get(ctx, "a")
		require.NoError(t, err)
		require.Empty(t, got.SealedToken)
		require.True(t, got.UpdatedAt.Equal(base.Add(time.Minute)))
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, record("a", base)))
		require.NoError(t, s.Delete(ctx, "a"))
		require.NoError(t, s.Delete(ctx, "a"), "deleting twice is fine")

		_, err := s.Get(ctx, "a")
		require.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("delete idle before", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, record("old1", base.Add(-3*time.Hour))))
		require.NoError(t, s.Put(ctx, record("old2", base.Add(-2*time.Hour))))
		require.NoError(t, s.Put(ctx, record("fresh", base)))

		n, err := s.DeleteIdleBefore(ctx, base.Add(-time.Hour))
		require.NoError(t, err)
		require.Equal(t, 2, n)

		_, err = s.Get(ctx, "fresh")
		require.NoError(t, err)
		_, err = s.Get(ctx, "old1")
		require.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, newStore(t).Ping(ctx))
	})
}
