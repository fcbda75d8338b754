package view_test

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/portalfiscal/internal/portal/domain"
	"github.com/aussiebroadwan/portalfiscal/internal/portal/view"
	"github.com/aussiebroadwan/portalfiscal/pkg/fiscalsdk"
	"github.com/aussiebroadwan/portalfiscal/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func acme() *fiscalsdk.ClientData {
	return &fiscalsdk.ClientData{
		Cliente: &fiscalsdk.ClientProfile{
			Name:                 "ACME",
			UsoCfdiClave:         "G03",
			UsoCfdiDescripcion:   "Gastos en general",
			FormaPagoClave:       "03",
			FormaPagoDescripcion: "Transferencia electrónica de fondos",
			AttachPDF:            true,
		},
		DatosFijos: &fiscalsdk.FiscalIdentity{
			Nombre:            "ORPE Servicios SA de CV",
			RFC:               "OSE010101AB1",
			Calle:             "Av. Reforma",
			NumExt:            "100",
			Colonia:           "Centro",
			Municipio:         "Cuauhtémoc",
			Estado:            "Ciudad de México",
			CP:                "06000",
			RegimenFiscal:     "601 - General de Ley Personas Morales",
			CorreoElectronico: "facturas@orpe.mx",
		},
	}
}

func TestCopyText(t *testing.T) {
	want := "DATOS FISCALES\n" +
		"---------------------------------\n" +
		"Nombre/Razón Social: ORPE Servicios SA de CV\n" +
		"RFC: OSE010101AB1\n" +
		"Calle: Av. Reforma\n" +
		"Número Exterior: 100\n" +
		"Colonia: Centro\n" +
		"Municipio/Localidad: Cuauhtémoc\n" +
		"Estado: Ciudad de México\n" +
		"C.P.: 06000\n" +
		"Régimen Fiscal: 601 - General de Ley Personas Morales\n" +
		"Correo Electrónico: facturas@orpe.mx\n" +
		"---------------------------------\n" +
		"USO DE CFDI: G03 - Gastos en general\n" +
		"FORMA DE PAGO: 03 - Transferencia electrónica de fondos"

	require.Equal(t, want, view.CopyText(acme()))
}

func TestAddressLine(t *testing.T) {
	require.Equal(t,
		"Av. Reforma No. Ext. 100, Col. Centro, Cuauhtémoc, Ciudad de México, C.P. 06000",
		view.AddressLine(acme().DatosFijos))
}

func TestClientURL(t *testing.T) {
	require.Equal(t, "https://portal.orpe.mx/cliente/acme", view.ClientURL("https://portal.orpe.mx/", "acme"))
	require.Equal(t, view.ClientURL("http://x", "a b"), view.ClientURL("http://x", "a b"))
	require.Equal(t, "http://x/cliente/a%20b", view.ClientURL("http://x", "a b"))
}

func TestOrigin(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://internal:8080/admin", nil)
		require.Equal(t, "https://portal.orpe.mx", view.Origin(req, "https://portal.orpe.mx/"))
	})

	t.Run("request host", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://localhost:8080/admin", nil)
		require.Equal(t, "http://localhost:8080", view.Origin(req, ""))

		req.TLS = &tls.ConnectionState{}
		require.Equal(t, "https://localhost:8080", view.Origin(req, ""))
	})

	origin := func(t *testing.T, trusted, remote string) string {
		t.Helper()
		prefixes, err := httpx.ParseTrustedProxies(trusted)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "http://10.0.0.5:8080/admin", nil)
		req.RemoteAddr = remote + ":40000"
		req.Header.Set("X-Forwarded-Proto", "https")
		req.Header.Set("X-Forwarded-Host", "portal.orpe.mx, 10.0.0.5")

		var got string
		httpx.TrustProxies(prefixes)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			got = view.Origin(r, "")
		})).ServeHTTP(httptest.NewRecorder(), req)
		return got
	}

	t.Run("trusted proxy headers", func(t *testing.T) {
		require.Equal(t, "https://portal.orpe.mx", origin(t, "10.0.0.0/8", "10.0.0.2"))
	})

	t.Run("spoofed proxy headers", func(t *testing.T) {
		require.Equal(t, "http://10.0.0.5:8080", origin(t, "10.0.0.0/8", "198.51.100.4"))
		require.Equal(t, "http://10.0.0.5:8080", origin(t, "", "10.0.0.2"))
	})
}

func render(t *testing.T, page string, data any) *httptest.ResponseRecorder {
	t.Helper()
	r, err := view.NewRenderer()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, r.Render(rec, http.StatusOK, page, data))
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	return rec
}

func TestRenderLogin(t *testing.T) {
	body := render(t, view.PageLogin, view.LoginPage{Username: "admin", Error: "Las credenciales son incorrectas."}).Body.String()

	require.Contains(t, body, "<title>Portal Fiscal ORPE</title>")
	require.Contains(t, body, "Las credenciales son incorrectas.")
	require.Contains(t, body, `data-busy-label="Entrando..."`)
	require.Contains(t, body, `value="admin"`)
}

func TestRenderAdmin(t *testing.T) {
	t.Run("empty list without dialog", func(t *testing.T) {
		body := render(t, view.PageAdmin, view.AdminPage{CSRF: "tok"}).Body.String()

		require.Contains(t, body, "Aún no has creado ningún enlace.")
		require.NotContains(t, body, "modal-backdrop")
	})

	t.Run("list, selections and confirm dialog", func(t *testing.T) {
		body := render(t, view.PageAdmin, view.AdminPage{
			CSRF:       "tok",
			Clients:    []view.AdminClient{{ID: "7", Name: "ACME", Slug: "acme", URL: "http://x/cliente/acme"}},
			UsosCFDI:   []fiscalsdk.CatalogItem{{ID: "1", Clave: "G01", Descripcion: "Adquisición"}, {ID: "2", Clave: "G03", Descripcion: "Gastos"}},
			FormasPago: []fiscalsdk.CatalogItem{{ID: "3", Clave: "03", Descripcion: "Transferencia"}},
			Draft:      domain.ClientDraft{UsoCfdiID: "2", FormaPagoID: "3"},
			Dialog:     domain.ConfirmDialog("Confirmar Eliminación", "¿Seguro?", "/admin/dialog/confirm", "/admin/dialog/close"),
		}).Body.String()

		require.Contains(t, body, `<span class="client-name">ACME</span>`)
		require.Contains(t, body, `data-copy-url="http://x/cliente/acme"`)
		require.Contains(t, body, `<option value="2" selected>G03 - Gastos</option>`)
		require.Contains(t, body, `<option value="1">G01 - Adquisición</option>`)
		require.Contains(t, body, "Sí, Eliminar")
		require.Contains(t, body, "Cancelar")
		require.NotContains(t, body, "Aceptar")
	})

	t.Run("info dialog with url", func(t *testing.T) {
		body := render(t, view.PageAdmin, view.AdminPage{
			CSRF:   "tok",
			Dialog: domain.InfoDialog("¡Enlace Creado con Éxito!", `El enlace para "ACME" es:`, "http://x/cliente/acme"),
		}).Body.String()

		require.Contains(t, body, "¡Enlace Creado con Éxito!")
		require.Contains(t, body, `<p class="modal-url">http://x/cliente/acme</p>`)
		require.Contains(t, body, "Aceptar")
		require.NotContains(t, body, "Sí, Eliminar")
	})
}

func TestRenderClient(t *testing.T) {
	t.Run("with download", func(t *testing.T) {
		body := render(t, view.PageClient, view.NewClientPage(acme(), "acme")).Body.String()

		require.Contains(t, body, "Datos Fiscales para: ACME")
		require.Contains(t, body, `href="/constancia"`)
		require.Contains(t, body, `rel="noopener noreferrer"`)
		require.Contains(t, body, "Descargar Constancia de Situación Fiscal (PDF)")
		require.Contains(t, body, `href="/cliente/acme/texto"`)
	})

	t.Run("without download", func(t *testing.T) {
		data := acme()
		data.Cliente.AttachPDF = false

		body := render(t, view.PageClient, view.NewClientPage(data, "acme")).Body.String()
		require.NotContains(t, body, "Descargar Constancia")
	})
}

func TestRenderMessage(t *testing.T) {
	body := render(t, view.PageMessage, view.MessagePage{
		Message:    "Tu sesión ha expirado. Por favor, inicia sesión de nuevo.",
		AutoLogout: true,
	}).Body.String()

	require.Contains(t, body, `<meta http-equiv="refresh" content="2;url=/logout">`)
	require.NotContains(t, body, "Volver al inicio")
}

func TestRenderUnknownPage(t *testing.T) {
	r, err := view.NewRenderer()
	require.NoError(t, err)
	require.Error(t, r.Render(httptest.NewRecorder(), http.StatusOK, "nope", nil))
}

func TestAssets(t *testing.T) {
	srv := http.StripPrefix("/assets/", view.Assets())

	for _, name := range []string{"app.css", "portal.js"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/"+name, nil))
		require.Equal(t, http.StatusOK, rec.Code, name)
	}
}
