package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/portalfiscal/internal/portal/domain"
	"github.com/aussiebroadwan/portalfiscal/internal/portal/session"
	"github.com/aussiebroadwan/portalfiscal/internal/portal/session/drivers/memory"
	"github.com/aussiebroadwan/portalfiscal/internal/portal/view"
	"github.com/aussiebroadwan/portalfiscal/pkg/cryptox"
	"github.com/aussiebroadwan/portalfiscal/pkg/fiscalsdk"
	"github.com/aussiebroadwan/portalfiscal/pkg/slogx"
)

const (
	adminUsername = "admin"
	adminPassword = "s3creta"
	adminToken    = "tok-admin"
	publicURL     = "https://portal.test"
)

// fakeAPI is an in-process stand-in for the fiscal API.
type fakeAPI struct {
	mu sync.Mutex

	clients     []fiscalsdk.ClientLink
	created     []map[string]any
	deleted     []string
	listCalls   int
	loginCalls  int
	rejectToken bool
	rejectDelay time.Duration
	failCatalog bool
	tokens      map[string]string // username -> token

	srv *httptest.Server
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	f := &fakeAPI{
		clients: []fiscalsdk.ClientLink{
			{ID: "7", Name: "ACME", Slug: "acme"},
			{ID: "8", Name: "Globex", Slug: "globex"},
		},
		tokens: map[string]string{adminUsername: adminToken},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", f.login)
	mux.HandleFunc("GET /api/admin/clients", f.authed(f.listClients))
	mux.HandleFunc("POST /api/admin/clients", f.authed(f.createClient))
	mux.HandleFunc("DELETE /api/admin/clients/{id}", f.authed(f.deleteClient))
	mux.HandleFunc("GET /api/usos-cfdi", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		fail := f.failCatalog
		f.mu.Unlock()
		if fail {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "catalogue unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "clave": "G01", "descripcion": "Adquisición de mercancías"},
			{"id": 3, "clave": "G03", "descripcion": "Gastos en general"},
		})
	})
	mux.HandleFunc("GET /api/formas-pago", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 2, "clave": "03", "descripcion": "Transferencia electrónica de fondos"},
			{"id": 4, "clave": "04", "descripcion": "Tarjeta de crédito"},
		})
	})
	mux.HandleFunc("GET /api/client-data/{slug}", f.clientData)
	mux.HandleFunc("GET /api/download/constancia", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	f.loginCalls++
	token, ok := f.tokens[req.Username]
	f.mu.Unlock()

	if !ok || req.Password != adminPassword {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (f *fakeAPI) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		reject, delay := f.rejectToken, f.rejectDelay
		f.mu.Unlock()
		if reject || !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			time.Sleep(delay)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "token expired"})
			return
		}
		next(w, r)
	}
}

func (f *fakeAPI) listClients(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	writeJSON(w, http.StatusOK, f.clients)
}

func (f *fakeAPI) createClient(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, body)

	name, _ := body["name"].(string)
	if name == "Falla" {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "db down"})
		return
	}
	slug := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	f.clients = append(f.clients, fiscalsdk.ClientLink{ID: "9", Name: name, Slug: slug})
	writeJSON(w, http.StatusCreated, map[string]any{"id": 9, "slug": slug})
}

func (f *fakeAPI) deleteClient(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	if id == "99" {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "cannot delete"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeAPI) clientData(w http.ResponseWriter, r *http.Request) {
	switch r.PathValue("slug") {
	case "acme":
		writeJSON(w, http.StatusOK, map[string]any{
			"cliente": map[string]any{
				"name":                   "ACME",
				"uso_cfdi_clave":         "G03",
				"uso_cfdi_descripcion":   "Gastos en general",
				"forma_pago_clave":       "03",
				"forma_pago_descripcion": "Transferencia electrónica de fondos",
				"attach_pdf":             1,
			},
			"datosFijos": map[string]any{
				"nombre":             "ORPE Servicios SA de CV",
				"rfc":                "OSE010101AB1",
				"calle":              "Av. Reforma",
				"num_ext":            100,
				"colonia":            "Centro",
				"municipio":          "Cuauhtémoc",
				"estado":             "Ciudad de México",
				"cp":                 "06000",
				"regimen_fiscal":     "601 - General de Ley Personas Morales",
				"correo_electronico": "facturas@orpe.mx",
			},
		})
	case "parcial":
		writeJSON(w, http.StatusOK, map[string]any{"cliente": map[string]any{"name": "Parcial"}})
	case "roto":
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
	}
}

func (f *fakeAPI) setRejectToken(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectToken = v
}

// setSlowReject makes bearer calls answer 401 only after delay.
func (f *fakeAPI) setSlowReject(delay time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectToken = true
	f.rejectDelay = delay
}

func (f *fakeAPI) setFailCatalog(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failCatalog = v
}

func (f *fakeAPI) addUser(username, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[username] = token
}

func (f *fakeAPI) snapshot() (listCalls, loginCalls int, created []map[string]any, deleted []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.loginCalls, append([]map[string]any(nil), f.created...), append([]string(nil), f.deleted...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// harness wires a Router to a fake API and an in-memory session store.
type harness struct {
	t        *testing.T
	api      *fakeAPI
	store    *memory.Store
	sessions *session.Service
	router   *Router
}

func newHarness(t *testing.T, configure ...func(*Router)) *harness {
	t.Helper()

	api := newFakeAPI(t)
	store := memory.NewStore()
	sealer, err := cryptox.NewSealer([]byte("test master key material"))
	require.NoError(t, err)
	sessions := session.NewService(store, sealer, time.Hour)

	views, err := view.NewRenderer()
	require.NoError(t, err)

	r := NewRouter(sessions, fiscalsdk.NewSDKClient(api.srv.URL), views, "test", slogx.Discard())
	r.PublicURL = publicURL
	for _, fn := range configure {
		fn(r)
	}
	r.ApplyRoutes()

	return &harness{t: t, api: api, store: store, sessions: sessions, router: r}
}

// do sends a request through the router. form may be nil.
func (h *harness) do(method, path string, form url.Values, cookie string) *httptest.ResponseRecorder {
	h.t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookie})
	}

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

// login signs in as the admin and returns the session cookie value.
func (h *harness) login() string {
	h.t.Helper()
	return h.loginAs(adminUsername)
}

func (h *harness) loginAs(username string) string {
	h.t.Helper()

	rec := h.do(http.MethodPost, "/login", url.Values{
		"username": {username},
		"password": {adminPassword},
	}, "")
	require.Equal(h.t, http.StatusSeeOther, rec.Code)
	require.Equal(h.t, "/admin", rec.Header().Get("Location"))

	cookie := sessionCookie(rec)
	require.NotNil(h.t, cookie)
	return cookie.Value
}

// session loads the stored record behind a cookie.
func (h *harness) session(cookie string) *domain.Session {
	h.t.Helper()
	sess, err := h.sessions.Load(h.t.Context(), cookie)
	require.NoError(h.t, err)
	return sess
}

// post submits an admin form with the session's CSRF token.
func (h *harness) post(cookie, path string, form url.Values) *httptest.ResponseRecorder {
	h.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", h.session(cookie).CSRF)
	return h.do(http.MethodPost, path, form, cookie)
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

// expiredJWT is a bearer token whose exp claim is an hour in the past.
func expiredJWT(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   adminUsername,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte("upstream secret"))
	require.NoError(t, err)
	return token
}
