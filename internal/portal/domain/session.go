package domain

import "time"

// Session is the server-side record behind the portal_session cookie.
type Session struct {
	ID          string           `json:"id"`           // base64url SHA-256 of the cookie value
	Ref         string           `json:"ref"`          // ULID safe to log
	SealedToken string           `json:"sealed_token"` // bearer token sealed at rest, empty when logged out
	CSRF        string           `json:"csrf"`
	Dialog      *Dialog          `json:"dialog,omitempty"`
	Pending     *PendingDeletion `json:"pending,omitempty"`
	Draft       *ClientDraft     `json:"draft,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// HasToken reports whether the session is logged in.
func (s *Session) HasToken() bool {
	return s != nil && s.SealedToken != ""
}

// OpenDialog replaces whatever dialog is showing.
func (s *Session) OpenDialog(d *Dialog) {
	s.Dialog = d
}

// CloseDialog dismisses the dialog and forgets any deletion awaiting
// confirmation.
func (s *Session) CloseDialog() {
	s.Dialog = nil
	s.Pending = nil
}

// Logout drops the token and every piece of admin screen state.
func (s *Session) Logout() {
	s.SealedToken = ""
	s.Dialog = nil
	s.Pending = nil
	s.Draft = nil
}
