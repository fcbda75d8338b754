package view

import (
	"github.com/aussiebroadwan/portalfiscal/internal/portal/domain"
	"github.com/aussiebroadwan/portalfiscal/pkg/fiscalsdk"
)

type LoginPage struct {
	Username string
	Error    string
}

type AdminPage struct {
	CSRF       string
	Clients    []AdminClient
	UsosCFDI   []fiscalsdk.CatalogItem
	FormasPago []fiscalsdk.CatalogItem
	Draft      domain.ClientDraft
	Dialog     *domain.Dialog
}

// AdminClient is a row of the existing links list.
type AdminClient struct {
	ID   string
	Name string
	Slug string
	URL  string
}

type ClientPage struct {
	Profile      *fiscalsdk.ClientProfile
	Identity     *fiscalsdk.FiscalIdentity
	Address      string
	CopyText     string
	TextURL      string
	ShowDownload bool
}

// NewClientPage builds the ready state of the client screen. data must be
// complete.
func NewClientPage(data *fiscalsdk.ClientData, slug string) ClientPage {
	return ClientPage{
		Profile:      data.Cliente,
		Identity:     data.DatosFijos,
		Address:      AddressLine(data.DatosFijos),
		CopyText:     CopyText(data),
		TextURL:      ClientPath(slug) + "/texto",
		ShowDownload: bool(data.Cliente.AttachPDF),
	}
}

// MessagePage is a bare message screen: errors and the session expiry notice.
type MessagePage struct {
	Message    string
	BackLink   bool
	AutoLogout bool
}
