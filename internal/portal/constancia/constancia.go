// Package constancia serves the "Constancia de Situación Fiscal" PDF linked
// from client pages. The document is global; there is one per issuer.
package constancia

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/portalfiscal/pkg/fiscalsdk"
)

// Source answers a download request. It must not write to w when it
// returns an error, so the caller can still render an error page.
type Source interface {
	Serve(w http.ResponseWriter, r *http.Request) error
}

// Downloader is the part of the fiscal API client an APISource needs.
type Downloader interface {
	DownloadConstancia(ctx context.Context) (*fiscalsdk.Download, error)
}

// APISource streams the PDF from the fiscal API.
type APISource struct {
	API Downloader
}

func NewAPISource(api Downloader) *APISource {
	return &APISource{API: api}
}

func (s *APISource) Serve(w http.ResponseWriter, r *http.Request) error {
	dl, err := s.API.DownloadConstancia(r.Context())
	if err != nil {
		return fmt.Errorf("download constancia: %w", err)
	}
	defer dl.Body.Close()

	h := w.Header()
	h.Set("Content-Type", dl.ContentType)
	h.Set("Content-Disposition", `inline; filename="constancia-situacion-fiscal.pdf"`)
	h.Set("Cache-Control", "private, max-age=300")
	if dl.ContentLength > 0 {
		h.Set("Content-Length", strconv.FormatInt(dl.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)

	// Headers are out; a failed copy can only be logged by the caller.
	if _, err := io.Copy(w, dl.Body); err != nil {
		return fmt.Errorf("%w: %w", ErrStreamBroken, err)
	}
	return nil
}
