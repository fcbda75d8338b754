package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/portalfiscal/internal/portal/constancia"
	"github.com/aussiebroadwan/portalfiscal/internal/portal/view"
	"github.com/aussiebroadwan/portalfiscal/pkg/slogx"
)

const msgConstanciaUnavailable = "No se pudo descargar la constancia. Intenta de nuevo más tarde."

// ConstanciaHandler serves the global PDF linked from client pages.
type ConstanciaHandler struct {
	Source constancia.Source
	Views  *view.Renderer
}

func (h *ConstanciaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h.Source.Serve(w, r)
	if err == nil {
		return
	}

	log := slogx.FromContext(r.Context())
	if errors.Is(err, constancia.ErrStreamBroken) {
		log.Warn("constancia download interrupted", "error", err)
		return
	}
	log.Error("constancia unavailable", "error", err)
	renderMessage(w, r, h.Views, http.StatusBadGateway, view.MessagePage{Message: msgConstanciaUnavailable})
}
