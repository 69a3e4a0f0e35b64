package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tutorhub/sso/internal/sso/domain"
	"github.com/tutorhub/sso/internal/sso/service"
	"github.com/tutorhub/sso/internal/sso/store"
	"github.com/tutorhub/sso/pkg/httpx"
	"github.com/tutorhub/sso/pkg/jwtx"
	"github.com/tutorhub/sso/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	origin       string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store            store.Store
	ExchangeService  *service.ExchangeService
	BootstrapService *service.BootstrapService
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	origin, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		origin:       origin,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSSO()
	r.registerSystem()
	r.registerBootstrap()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSSO() {
	authorizeHandler := &AuthorizeHandler{
		ExchangeService: r.ExchangeService,
		Origin:          r.origin,
	}

	// GET /authorize - consumers start flows here, lenient limit
	r.Mux.Handle("GET /v1/sso/authorize",
		httpx.Chain(authorizeHandler,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /login - authentication attempts, limited by IP + username to
	// slow brute force without letting one attacker lock a username out
	loginHandler := &LoginHandler{ExchangeService: r.ExchangeService}
	r.Mux.Handle("POST /v1/sso/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "username"),
		),
	)

	// POST /token - code exchange, moderate limit
	tokenHandler := &TokenHandler{ExchangeService: r.ExchangeService}
	r.Mux.Handle("POST /v1/sso/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /session - consumers validate on every page load, lenient limit
	sessionHandler := &SessionHandler{ExchangeService: r.ExchangeService}
	r.Mux.Handle("GET /v1/sso/session",
		httpx.Chain(sessionHandler,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /logout - moderate limit
	logoutHandler := &LogoutHandler{ExchangeService: r.ExchangeService}
	r.Mux.Handle("POST /v1/sso/logout",
		httpx.Chain(logoutHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /userinfo - resource servers resolve the account behind an
	// access token
	userInfoHandler := &UserInfoHandler{ExchangeService: r.ExchangeService}
	r.Mux.Handle("GET /v1/userinfo",
		httpx.Chain(userInfoHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// GET /subjects/{id} - student-affairs account lookup, view:all only
	subjectHandler := &SubjectHandler{ExchangeService: r.ExchangeService}
	r.Mux.Handle("GET /v1/subjects/{id}",
		httpx.Chain(subjectHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequirePermission(domain.PermViewAll, domain.HasPermission),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerBootstrap() {
	h := &BootstrapHandler{BootstrapService: r.BootstrapService}
	r.Mux.Handle("POST /v1/bootstrap",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}
