package domain

type DialogKind string

const (
	DialogInfo    DialogKind = "info"
	DialogConfirm DialogKind = "confirm"
)

// Dialog is the content of the admin modal. Info dialogs may carry a URL to
// show in a read-only field; confirm dialogs carry the form actions of their
// two buttons.
type Dialog struct {
	Kind          DialogKind `json:"kind"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	URL           string     `json:"url,omitempty"`
	ConfirmAction string     `json:"confirm_action,omitempty"`
	CancelAction  string     `json:"cancel_action,omitempty"`
}

func InfoDialog(title, body, url string) *Dialog {
	return &Dialog{Kind: DialogInfo, Title: title, Body: body, URL: url}
}

func ConfirmDialog(title, body, confirmAction, cancelAction string) *Dialog {
	return &Dialog{
		Kind:          DialogConfirm,
		Title:         title,
		Body:          body,
		ConfirmAction: confirmAction,
		CancelAction:  cancelAction,
	}
}

func (d *Dialog) IsConfirm() bool {
	return d != nil && d.Kind == DialogConfirm
}
