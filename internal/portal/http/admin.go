package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/aussiebroadwan/portalfiscal/internal/portal/domain"
	"github.com/aussiebroadwan/portalfiscal/internal/portal/session"
	"github.com/aussiebroadwan/portalfiscal/internal/portal/view"
	"github.com/aussiebroadwan/portalfiscal/pkg/fiscalsdk"
	"github.com/aussiebroadwan/portalfiscal/pkg/httpx"
	"github.com/aussiebroadwan/portalfiscal/pkg/slogx"
)

const (
	msgSessionExpired = "Tu sesión ha expirado. Por favor, inicia sesión de nuevo."
	msgAdminLoad      = "Error al conectar con el servidor."
)

const (
	actionConfirm = "/admin/dialog/confirm"
	actionClose   = "/admin/dialog/close"
)

// AdminHandler serves the link management screen. Every action is a form
// post that updates the session (dialog, draft, pending deletion) and
// redirects back to GET /admin.
type AdminHandler struct {
	Sessions  *session.Service
	API       *fiscalsdk.SDKClient
	Views     *view.Renderer
	PublicURL string
}

func (h *AdminHandler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	sess := SessionFromContext(ctx)
	api := h.API.NewSessionFromToken(TokenFromContext(ctx))
	httpx.NoCache(w)

	var (
		clients    []fiscalsdk.ClientLink
		usosCFDI   []fiscalsdk.CatalogItem
		formasPago []fiscalsdk.CatalogItem
	)
	// Each fetch keeps its own error; the client list's 401/403 wins.
	var clientsErr, usosErr, formasErr error
	var g errgroup.Group
	g.Go(func() error {
		clients, clientsErr = api.ListClients(ctx)
		return nil
	})
	g.Go(func() error {
		usosCFDI, usosErr = h.API.ListUsosCFDI(ctx)
		return nil
	})
	g.Go(func() error {
		formasPago, formasErr = h.API.ListFormasPago(ctx)
		return nil
	})
	_ = g.Wait()

	if fiscalsdk.IsUnauthorized(clientsErr) {
		h.expired(w, r)
		return
	}
	if err := errors.Join(clientsErr, usosErr, formasErr); err != nil {
		log.Error("failed to load admin screen", "error", err)
		renderMessage(w, r, h.Views, http.StatusBadGateway, view.MessagePage{Message: msgAdminLoad})
		return
	}

	origin := view.Origin(r, h.PublicURL)
	rows := make([]view.AdminClient, len(clients))
	for i, c := range clients {
		rows[i] = view.AdminClient{
			ID:   c.ID.String(),
			Name: c.Name,
			Slug: c.Slug,
			URL:  view.ClientURL(origin, c.Slug),
		}
	}

	render(w, r, h.Views, http.StatusOK, view.PageAdmin, view.AdminPage{
		CSRF:       sess.CSRF,
		Clients:    rows,
		UsosCFDI:   usosCFDI,
		FormasPago: formasPago,
		Draft:      draftWithDefaults(sess.Draft, usosCFDI, formasPago),
		Dialog:     sess.Dialog,
	})
}

// draftWithDefaults preselects the first catalogue entries when the admin
// has not picked any yet.
func draftWithDefaults(d *domain.ClientDraft, usos, formas []fiscalsdk.CatalogItem) domain.ClientDraft {
	var draft domain.ClientDraft
	if d != nil {
		draft = *d
	}
	if draft.UsoCfdiID == "" && len(usos) > 0 {
		draft.UsoCfdiID = usos[0].ID.String()
	}
	if draft.FormaPagoID == "" && len(formas) > 0 {
		draft.FormaPagoID = formas[0].ID.String()
	}
	return draft
}

func (h *AdminHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	sess := SessionFromContext(ctx)

	draft := domain.ClientDraft{
		Name:        strings.TrimSpace(r.PostForm.Get("name")),
		UsoCfdiID:   strings.TrimSpace(r.PostForm.Get("usoCfdiId")),
		FormaPagoID: strings.TrimSpace(r.PostForm.Get("formaPagoId")),
		AttachPDF:   isChecked(r.PostForm.Get("attachPdf")),
	}
	if draft.Name == "" || draft.UsoCfdiID == "" || draft.FormaPagoID == "" {
		sess.Draft = &draft
		sess.OpenDialog(domain.InfoDialog("Error", "Por favor, completa todos los campos.", ""))
		h.saveAndReturn(w, r, sess)
		return
	}

	api := h.API.NewSessionFromToken(TokenFromContext(ctx))
	created, err := api.CreateClient(ctx, fiscalsdk.CreateClientRequest{
		Name:        draft.Name,
		UsoCfdiID:   fiscalsdk.ID(draft.UsoCfdiID),
		FormaPagoID: fiscalsdk.ID(draft.FormaPagoID),
		AttachPDF:   draft.AttachPDF,
	})
	switch {
	case fiscalsdk.IsUnauthorized(err):
		h.expired(w, r)
		return
	case err != nil:
		log.Warn("failed to create client", "error", err)
		sess.Draft = &draft
		sess.OpenDialog(domain.InfoDialog("Error", failureText(err, "No se pudo crear el cliente."), ""))
	default:
		log.Info("client link created", "slug", created.Slug)
		next := draft.AfterCreate()
		sess.Draft = &next
		sess.OpenDialog(domain.InfoDialog(
			"¡Enlace Creado con Éxito!",
			fmt.Sprintf(`El enlace para "%s" es:`, draft.Name),
			view.ClientURL(view.Origin(r, h.PublicURL), created.Slug),
		))
	}
	h.saveAndReturn(w, r, sess)
}

// HandleCopy reports the outcome of the clipboard write the browser
// attempted. Without JavaScript copied is 0 and the admin gets the URL to
// copy by hand.
func (h *AdminHandler) HandleCopy(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	name := r.PostForm.Get("name")
	url := view.ClientURL(view.Origin(r, h.PublicURL), r.PostForm.Get("slug"))

	if r.PostForm.Get("copied") == "1" {
		sess.OpenDialog(domain.InfoDialog(
			"Enlace Copiado",
			fmt.Sprintf(`Se ha copiado el enlace para "%s" al portapapeles.`, name),
			url,
		))
	} else {
		sess.OpenDialog(domain.InfoDialog(
			"Error al Copiar",
			"No se pudo copiar el enlace automáticamente. Por favor, cópialo de forma manual.",
			url,
		))
	}
	h.saveAndReturn(w, r, sess)
}

func (h *AdminHandler) HandleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	id := strings.TrimSpace(r.PostForm.Get("id"))
	name := r.PostForm.Get("name")
	if id == "" {
		httpx.SeeOther(w, r, "/admin")
		return
	}

	sess.Pending = &domain.PendingDeletion{ClientID: id, Name: name}
	sess.OpenDialog(domain.ConfirmDialog(
		"Confirmar Eliminación",
		fmt.Sprintf(`¿Estás seguro de que quieres eliminar el enlace para "%s"? Esta acción no se puede deshacer.`, name),
		actionConfirm,
		actionClose,
	))
	h.saveAndReturn(w, r, sess)
}

// HandleConfirm deletes the pending client. Without a pending deletion it
// does nothing.
func (h *AdminHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	sess := SessionFromContext(ctx)
	if sess.Pending == nil {
		httpx.SeeOther(w, r, "/admin")
		return
	}

	api := h.API.NewSessionFromToken(TokenFromContext(ctx))
	err := api.DeleteClient(ctx, fiscalsdk.ID(sess.Pending.ClientID))
	switch {
	case fiscalsdk.IsUnauthorized(err):
		h.expired(w, r)
		return
	case err != nil:
		log.Warn("failed to delete client", "client_id", sess.Pending.ClientID, "error", err)
		// The marker stays so the admin can retry from the same dialog.
		sess.OpenDialog(domain.ConfirmDialog("Error", failureText(err, "No se pudo eliminar el cliente."), actionConfirm, actionClose))
	default:
		log.Info("client link deleted", "client_id", sess.Pending.ClientID)
		sess.CloseDialog()
	}
	h.saveAndReturn(w, r, sess)
}

// HandleClose dismisses the dialog: cancel, the close button, "Aceptar" and
// backdrop clicks all post here.
func (h *AdminHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	sess.CloseDialog()
	h.saveAndReturn(w, r, sess)
}

func (h *AdminHandler) saveAndReturn(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	if err := h.Sessions.Save(r.Context(), sess); err != nil {
		slogx.FromContext(r.Context()).Error("failed to save session", "error", err)
		renderMessage(w, r, h.Views, http.StatusInternalServerError, view.MessagePage{Message: msgAdminLoad})
		return
	}
	httpx.SeeOther(w, r, "/admin")
}

// expired shows the session-expired notice; the page navigates to /logout
// on its own after two seconds.
func (h *AdminHandler) expired(w http.ResponseWriter, r *http.Request) {
	slogx.FromContext(r.Context()).Info("upstream rejected bearer token")
	httpx.NoCache(w)
	renderMessage(w, r, h.Views, http.StatusUnauthorized, view.MessagePage{
		Message:    msgSessionExpired,
		AutoLogout: true,
	})
}

func isChecked(v string) bool {
	return v == "1" || v == "on" || v == "true"
}

// failureText is fixed for API rejections and the error's own message for
// transport failures.
func failureText(err error, rejected string) string {
	var apiErr *fiscalsdk.APIError
	if errors.As(err, &apiErr) {
		return rejected
	}
	return err.Error()
}
