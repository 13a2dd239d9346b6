// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	chathub "github.com/campushub/groupify/internal/app/chat"
	aboutfeature "github.com/campushub/groupify/internal/app/features/about"
	adminfeature "github.com/campushub/groupify/internal/app/features/admin"
	auditlogfeature "github.com/campushub/groupify/internal/app/features/auditlog"
	authgooglefeature "github.com/campushub/groupify/internal/app/features/authgoogle"
	chatfeature "github.com/campushub/groupify/internal/app/features/chat"
	contactfeature "github.com/campushub/groupify/internal/app/features/contact"
	dashboardfeature "github.com/campushub/groupify/internal/app/features/dashboard"
	errorsfeature "github.com/campushub/groupify/internal/app/features/errors"
	groupsfeature "github.com/campushub/groupify/internal/app/features/groups"
	healthfeature "github.com/campushub/groupify/internal/app/features/health"
	homefeature "github.com/campushub/groupify/internal/app/features/home"
	loginfeature "github.com/campushub/groupify/internal/app/features/login"
	logoutfeature "github.com/campushub/groupify/internal/app/features/logout"
	onboardingfeature "github.com/campushub/groupify/internal/app/features/onboarding"
	settingsfeature "github.com/campushub/groupify/internal/app/features/settings"
	signupfeature "github.com/campushub/groupify/internal/app/features/signup"
	studentsfeature "github.com/campushub/groupify/internal/app/features/students"
	suggestionsfeature "github.com/campushub/groupify/internal/app/features/suggestions"
	termsfeature "github.com/campushub/groupify/internal/app/features/terms"
	"github.com/campushub/groupify/internal/app/membership"
	"github.com/campushub/groupify/internal/app/store/audit"
	oauthstate "github.com/campushub/groupify/internal/app/store/oauthstate"
	profilestore "github.com/campushub/groupify/internal/app/store/profiles"
	"github.com/campushub/groupify/internal/app/system/auditlog"
	"github.com/campushub/groupify/internal/app/system/auth"
	"github.com/campushub/groupify/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// Groupify initializes the template engine, applies session and CSRF
// middleware, builds the shared membership engine and chat hub, and mounts
// the feature routers: home, auth, onboarding, dashboard, groups, students,
// suggestions, chat, settings, and the admin area.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionTTL, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// The UserFetcher makes LoadSessionUser fetch fresh profile data on each
	// request, so role changes and membership updates take effect immediately.
	sessionMgr.SetUserFetcher(profilestore.NewFetcher(db))

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	// Shared infrastructure for the feature handlers.
	errLog := errorsfeature.NewErrorLogger(logger)
	engine := membership.NewEngine(db, logger)
	hub := chathub.NewHub(logger)
	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
	loginLimiter := ratelimit.NewLoginLimiter()
	googleEnabled := appCfg.GoogleClientID != "" && appCfg.GoogleClientSecret != ""

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// CSRF protection for every form post. Safe methods (including the
	// chat feed websocket upgrade, which is a GET) pass through.
	r.Use(csrf.Protect([]byte(appCfg.SessionKey),
		csrf.Secure(secure),
		csrf.Path("/")))

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, appCfg.BaseURL, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Public pages
	homeHandler := homefeature.NewHandler(db, logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	aboutHandler := aboutfeature.NewHandler(db, logger)
	r.Mount("/about", aboutfeature.Routes(aboutHandler))

	contactHandler := contactfeature.NewHandler(db, logger)
	r.Mount("/contact", contactfeature.Routes(contactHandler))

	termsHandler := termsfeature.NewHandler(db, logger)
	r.Mount("/terms", termsfeature.Routes(termsHandler))

	// Authentication
	signupHandler := signupfeature.NewHandler(db, sessionMgr, errLog, auditLogger, logger)
	r.Mount("/signup", signupfeature.Routes(signupHandler))

	loginHandler := loginfeature.NewHandler(db, sessionMgr, errLog, auditLogger, loginLimiter, googleEnabled, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLogger, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	googleHandler := authgooglefeature.NewHandler(db, sessionMgr, errLog, auditLogger, oauthstate.New(db),
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Onboarding: one-time profile completion and cluster selection
	onboardingHandler := onboardingfeature.NewHandler(db, errLog, logger)
	r.Mount("/onboarding", onboardingfeature.Routes(onboardingHandler, sessionMgr))

	// Student-facing pages
	dashboardHandler := dashboardfeature.NewHandler(db, engine, errLog, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	groupsHandler := groupsfeature.NewHandler(db, engine, errLog, auditLogger, logger)
	r.Mount("/groups", groupsfeature.Routes(groupsHandler, sessionMgr))

	studentsHandler := studentsfeature.NewHandler(db, engine, errLog, auditLogger, logger)
	r.Mount("/students", studentsfeature.Routes(studentsHandler, sessionMgr))

	suggestionsHandler := suggestionsfeature.NewHandler(db, errLog, logger)
	r.Mount("/suggestions", suggestionsfeature.Routes(suggestionsHandler, sessionMgr))

	chatHandler := chatfeature.NewHandler(db, hub, errLog, logger)
	r.Mount("/chat", chatfeature.Routes(chatHandler, sessionMgr))

	settingsHandler := settingsfeature.NewHandler(db, engine, errLog, auditLogger, logger)
	r.Mount("/settings", settingsfeature.Routes(settingsHandler, sessionMgr))

	// Admin area
	adminHandler := adminfeature.NewHandler(db, errLog, auditLogger, logger)
	r.Mount("/admin", adminfeature.Routes(adminHandler, sessionMgr))

	auditHandler := auditlogfeature.NewHandler(db, errLog, logger)
	r.Mount("/admin/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	return r, nil
}
