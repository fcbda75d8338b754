package http

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/aussiebroadwan/portalfiscal/internal/portal/constancia"
	"github.com/aussiebroadwan/portalfiscal/internal/portal/session"
	"github.com/aussiebroadwan/portalfiscal/internal/portal/view"
	"github.com/aussiebroadwan/portalfiscal/pkg/fiscalsdk"
	"github.com/aussiebroadwan/portalfiscal/pkg/httpx"
	"github.com/aussiebroadwan/portalfiscal/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	sessions *session.Service
	api      *fiscalsdk.SDKClient
	views    *view.Renderer

	// Constancia serves GET /constancia. Defaults to streaming from the API.
	Constancia constancia.Source

	// PublicURL overrides the origin used to build client links.
	PublicURL string

	// TrustedProxies are the peers whose forwarding headers are believed.
	TrustedProxies []netip.Prefix

	// CookieSecure marks the session cookie Secure.
	CookieSecure bool

	// CheckTokenExpiry makes the guard reject bearer tokens whose exp claim
	// has passed without asking the API.
	CheckTokenExpiry bool

	now func() time.Time
}

func NewRouter(
	sessions *session.Service,
	api *fiscalsdk.SDKClient,
	views *view.Renderer,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		sessions:     sessions,
		api:          api,
		views:        views,
		Constancia:   constancia.NewAPISource(api),
		now:          time.Now,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.SecurityHeaders,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.middlewares = append(r.middlewares, httpx.TrustProxies(r.TrustedProxies))

	r.registerLogin()
	r.registerAdmin()
	r.registerClient()
	r.registerSystem()

	r.Mux.Handle("GET /assets/", http.StripPrefix("/assets/", view.Assets()))

	// Unknown paths land on the login screen.
	r.Mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/login", http.StatusFound)
	})
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerLogin() {
	h := &LoginHandler{
		Sessions:     r.sessions,
		API:          r.api,
		Views:        r.views,
		CookieSecure: r.CookieSecure,
	}

	r.Mux.Handle("GET /login",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// Rate limited by IP + username to slow down credential guessing
	r.Mux.Handle("POST /login",
		httpx.Chain(http.HandlerFunc(h.HandlePost),
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "username"),
		),
	)

	logout := &LogoutHandler{Sessions: r.sessions, CookieSecure: r.CookieSecure}
	r.Mux.Handle("GET /logout", logout)
	r.Mux.Handle("POST /logout", logout)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{
		Sessions:  r.sessions,
		API:       r.api,
		Views:     r.views,
		PublicURL: r.PublicURL,
	}

	guard := RequireSession(r.sessions, r.CheckTokenExpiry, r.now)
	csrf := RequireCSRF(r.sessions)

	r.Mux.Handle("GET /admin",
		httpx.Chain(http.HandlerFunc(h.HandleLoad),
			httpx.RateLimitBySession(httpx.LenientLimit, session.CookieName),
			guard,
		),
	)

	posts := map[string]http.HandlerFunc{
		"POST /admin/clients":                h.HandleCreate,
		"POST /admin/clients/copy":           h.HandleCopy,
		"POST /admin/clients/delete-request": h.HandleDeleteRequest,
		"POST /admin/dialog/confirm":         h.HandleConfirm,
		"POST /admin/dialog/close":           h.HandleClose,
	}
	for pattern, fn := range posts {
		r.Mux.Handle(pattern,
			httpx.Chain(fn,
				httpx.RateLimitBySession(httpx.ModerateLimit, session.CookieName),
				guard,
				csrf,
			),
		)
	}
}

func (r *Router) registerClient() {
	h := &ClientHandler{API: r.api, Views: r.views}

	r.Mux.Handle("GET /cliente/{slug}",
		httpx.Chain(http.HandlerFunc(h.HandlePage),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /cliente/{slug}/texto",
		httpx.Chain(http.HandlerFunc(h.HandleText),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	dl := &ConstanciaHandler{Source: r.Constancia, Views: r.views}
	r.Mux.Handle("GET /constancia",
		httpx.Chain(dl,
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.sessions),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
