package fiscalsdk_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/portalfiscal/pkg/fiscalsdk"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSession(t *testing.T) {
	t.Parallel()

	var deleted []string
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/admin/clients":
			_, _ = io.WriteString(w, `[{"id":7,"name":"ACME","slug":"acme","usoCfdiId":1,"formaPagoId":"3","attachPdf":true}]`)
		case r.Method == http.MethodPost && r.URL.Path == "/api/admin/clients":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, map[string]any{
				"name":        "Globex",
				"usoCfdiId":   float64(1),
				"formaPagoId": "EF",
				"attachPdf":   true,
			}, body)
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":8,"slug":"globex"}`)
		case r.Method == http.MethodDelete:
			deleted = append(deleted, r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	})
	session := client.NewSessionFromToken("tok-1")
	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		links, err := session.ListClients(ctx)
		require.NoError(t, err)

		want := []fiscalsdk.ClientLink{{ID: "7", Name: "ACME", Slug: "acme", UsoCfdiID: "1", FormaPagoID: "3", AttachPDF: true}}
		if diff := cmp.Diff(want, links); diff != "" {
			t.Fatalf("links mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("create", func(t *testing.T) {
		out, err := session.CreateClient(ctx, fiscalsdk.CreateClientRequest{
			Name:        "Globex",
			UsoCfdiID:   "1",
			FormaPagoID: "EF",
			AttachPDF:   true,
		})
		require.NoError(t, err)
		require.Equal(t, "globex", out.Slug)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, session.DeleteClient(ctx, "7"))
		require.Equal(t, []string{"/api/admin/clients/7"}, deleted)
	})

	t.Run("expired token", func(t *testing.T) {
		_, err := client.NewSessionFromToken("stale").ListClients(ctx)
		require.True(t, fiscalsdk.IsUnauthorized(err))
	})
}
