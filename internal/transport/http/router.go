package http

import (
	"net/http"

	"github.com/authcore-api/internal/application/flow"
	"github.com/authcore-api/internal/application/identity"
	"github.com/authcore-api/internal/application/session"
	"github.com/authcore-api/internal/application/verification"
	"github.com/authcore-api/internal/config"
	"github.com/authcore-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/authcore-api/internal/infrastructure/jwt"
	"github.com/authcore-api/internal/infrastructure/smtp"
	"github.com/authcore-api/internal/infrastructure/sns"
	"github.com/authcore-api/internal/infrastructure/throttle"
	"github.com/authcore-api/internal/transport/http/handler"
	appmiddleware "github.com/authcore-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	ArtifactRepo   *dynamo.ArtifactRepo
	UserRepo       *dynamo.UserRepo
	Mailer         smtp.Mailer
	SMSSender      sns.SMSSender
	JWTProvider    *jwtinfra.Provider
	Limiter        *throttle.Limiter
	OAuthVerifiers map[string]handler.ProfileVerifier
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, applied to endpoints that send mail or SMS.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	verifySvc := verification.NewService(verification.Deps{
		Artifacts: deps.ArtifactRepo,
		Mailer:    deps.Mailer,
		SMSSender: deps.SMSSender,
		Limiter:   deps.Limiter,
		TTL:       cfg.TTL,
		BaseURL:   cfg.BaseURL,
	})
	identitySvc := identity.NewService(deps.UserRepo)
	sessionSvc := session.NewService(deps.JWTProvider)
	flowSvc := flow.NewService(verifySvc, identitySvc, sessionSvc, cfg.Channels)

	healthH := handler.NewHealthHandler()
	authorizeH := handler.NewAuthorizeHandler(flowSvc)
	verifyEmailH := handler.NewVerifyEmailHandler(flowSvc)
	oauthH := handler.NewOAuthHandler(flowSvc, deps.OAuthVerifiers)
	sessionH := handler.NewSessionHandler()

	// Magic-link landing page. Lives outside /v1 because emailed URLs are
	// browser-facing, not API calls.
	r.Get("/verify-email", verifyEmailH.Verify)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check", healthH.Ping)

		r.With(sensitiveRL.Limit).Post("/auth/{channel}", authorizeH.Action)
		r.With(sensitiveRL.Limit).Post("/auth/oauth/{provider}", oauthH.Callback)

		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.JWTProvider))
			r.Get("/session", sessionH.Introspect)
		})
	})

	return r
}
