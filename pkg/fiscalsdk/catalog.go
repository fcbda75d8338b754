package fiscalsdk

import (
	"context"
	"net/http"
)

// ListUsosCFDI returns the CFDI use catalogue in server order.
func (c *SDKClient) ListUsosCFDI(ctx context.Context) ([]CatalogItem, error) {
	return c.listCatalog(ctx, "/api/usos-cfdi")
}

// ListFormasPago returns the payment form catalogue in server order.
func (c *SDKClient) ListFormasPago(ctx context.Context) ([]CatalogItem, error) {
	return c.listCatalog(ctx, "/api/formas-pago")
}

func (c *SDKClient) listCatalog(ctx context.Context, path string) ([]CatalogItem, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var items []CatalogItem
	if err := decodeJSON(resp, &items); err != nil {
		return nil, err
	}
	return items, nil
}
