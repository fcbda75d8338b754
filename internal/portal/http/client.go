package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/portalfiscal/internal/portal/view"
	"github.com/aussiebroadwan/portalfiscal/pkg/fiscalsdk"
	"github.com/aussiebroadwan/portalfiscal/pkg/httpx"
	"github.com/aussiebroadwan/portalfiscal/pkg/slogx"
)

const (
	msgInvalidLink    = "El enlace del cliente no es válido o no se encontró."
	msgClientUpstream = "No se pudo conectar con el servidor."
)

// ClientHandler serves the public page behind a shared link.
type ClientHandler struct {
	API   *fiscalsdk.SDKClient
	Views *view.Renderer
}

// lookupFailure is what a failed lookup shows instead of the client data.
type lookupFailure struct {
	status   int
	message  string
	backLink bool
}

func (h *ClientHandler) lookup(r *http.Request, slug string) (*fiscalsdk.ClientData, *lookupFailure) {
	data, err := h.API.GetClientData(r.Context(), slug)
	if err == nil {
		return data, nil
	}

	log := slogx.FromContext(r.Context())
	if fiscalsdk.IsNotFound(err) {
		return nil, &lookupFailure{status: http.StatusNotFound, message: msgInvalidLink, backLink: true}
	}
	log.Warn("client lookup failed", "slug", slug, "error", err)
	var apiErr *fiscalsdk.APIError
	if errors.As(err, &apiErr) {
		return nil, &lookupFailure{status: http.StatusBadGateway, message: msgClientUpstream}
	}
	return nil, &lookupFailure{status: http.StatusBadGateway, message: err.Error()}
}

func (h *ClientHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	data, fail := h.lookup(r, slug)
	if fail != nil {
		renderMessage(w, r, h.Views, fail.status, view.MessagePage{
			Message:  fail.message,
			BackLink: fail.backLink,
		})
		return
	}

	// A payload missing either half renders nothing rather than half a page.
	if !data.Complete() {
		w.WriteHeader(http.StatusOK)
		return
	}

	render(w, r, h.Views, http.StatusOK, view.PageClient, view.NewClientPage(data, slug))
}

// HandleText returns the copy text as text/plain for browsers that cannot
// write to the clipboard.
func (h *ClientHandler) HandleText(w http.ResponseWriter, r *http.Request) {
	data, fail := h.lookup(r, r.PathValue("slug"))
	if fail != nil {
		httpx.WriteText(w, fail.status, fail.message)
		return
	}
	if !data.Complete() {
		w.WriteHeader(http.StatusOK)
		return
	}
	httpx.WriteText(w, http.StatusOK, view.CopyText(data))
}
