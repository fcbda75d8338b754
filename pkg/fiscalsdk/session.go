package fiscalsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Session performs bearer-authenticated admin calls. It is immutable and
// safe for concurrent use.
type Session struct {
	client *SDKClient
	token  string
}

// Token returns the bearer token the session was built with.
func (s *Session) Token() string {
	return s.token
}

// ListClients returns every client link owned by the admin.
func (s *Session) ListClients(ctx context.Context) ([]ClientLink, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/api/admin/clients", nil, nil)
	if err != nil {
		return nil, err
	}

	var links []ClientLink
	if err := decodeJSON(resp, &links); err != nil {
		return nil, err
	}
	return links, nil
}

// CreateClient creates a client link. The server assigns the slug.
func (s *Session) CreateClient(ctx context.Context, req CreateClientRequest) (*CreateClientResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode client: %w", err)
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/api/admin/clients", bytes.NewReader(body), jsonHeaders)
	if err != nil {
		return nil, err
	}

	var out CreateClientResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteClient removes a client link. The response body is ignored.
func (s *Session) DeleteClient(ctx context.Context, id ID) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/api/admin/clients/"+url.PathEscape(id.String()), nil, nil)
	if err != nil {
		return err
	}
	return drainStatus(resp)
}
