package domain

// PendingDeletion marks the client link a confirm dialog is about to delete.
type PendingDeletion struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
}

// ClientDraft is the create-link form as the admin last left it.
type ClientDraft struct {
	Name        string `json:"name"`
	UsoCfdiID   string `json:"uso_cfdi_id"`
	FormaPagoID string `json:"forma_pago_id"`
	AttachPDF   bool   `json:"attach_pdf"`
}

// AfterCreate keeps the catalogue selections for the next link and clears
// the rest.
func (d ClientDraft) AfterCreate() ClientDraft {
	return ClientDraft{UsoCfdiID: d.UsoCfdiID, FormaPagoID: d.FormaPagoID}
}
