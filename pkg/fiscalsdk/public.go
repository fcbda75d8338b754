package fiscalsdk

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// GetClientData fetches the public fiscal view for a client slug. Either
// part of the result may be nil when the API omits it.
func (c *SDKClient) GetClientData(ctx context.Context, slug string) (*ClientData, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/client-data/"+url.PathEscape(slug), nil, nil)
	if err != nil {
		return nil, err
	}

	var data ClientData
	if err := decodeJSON(resp, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Download is a streamed binary response. The caller must close Body.
type Download struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// DownloadConstancia opens the Constancia de Situación Fiscal PDF.
func (c *SDKClient) DownloadConstancia(ctx context.Context) (*Download, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/download/constancia", nil, nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/pdf"
	}
	return &Download{
		Body:          resp.Body,
		ContentType:   ct,
		ContentLength: resp.ContentLength,
	}, nil
}
