// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"
	"strings"

	uierrors "github.com/campushub/groupify/internal/app/features/errors"
	profilestore "github.com/campushub/groupify/internal/app/store/profiles"
	"github.com/campushub/groupify/internal/app/system/auditlog"
	"github.com/campushub/groupify/internal/app/system/auth"
	"github.com/campushub/groupify/internal/app/system/normalize"
	"github.com/campushub/groupify/internal/app/system/ratelimit"
	"github.com/campushub/groupify/internal/app/system/timeouts"
	"github.com/campushub/groupify/internal/app/system/viewdata"
	"github.com/campushub/groupify/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	DB            *mongo.Database
	Log           *zap.Logger
	ErrLog        *uierrors.ErrorLogger
	SessionMgr    *auth.SessionManager
	AuditLog      *auditlog.Logger
	Limiter       *ratelimit.LoginLimiter
	Profiles      *profilestore.Store
	GoogleEnabled bool
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	limiter *ratelimit.LoginLimiter,
	googleEnabled bool,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:            db,
		Log:           logger,
		ErrLog:        errLog,
		SessionMgr:    sessionMgr,
		AuditLog:      audit,
		Limiter:       limiter,
		Profiles:      profilestore.New(db),
		GoogleEnabled: googleEnabled,
	}
}

type loginFormData struct {
	viewdata.BaseVM
	Error         string
	Email         string
	ReturnURL     string
	GoogleEnabled bool
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok && u != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	templates.Render(w, r, "login", loginFormData{
		BaseVM:        viewdata.NewBaseVM(r, h.DB, "Sign in", "/"),
		ReturnURL:     query.Get(r, "return"),
		GoogleEnabled: h.GoogleEnabled,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "login: parse form failed", err, "Invalid form data.", "/login")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	ret := strings.TrimSpace(r.FormValue("return"))

	renderErr := func(msg string) {
		templates.Render(w, r, "login", loginFormData{
			BaseVM:        viewdata.NewBaseVM(r, h.DB, "Sign in", "/"),
			Error:         msg,
			Email:         email,
			ReturnURL:     ret,
			GoogleEnabled: h.GoogleEnabled,
		})
	}

	if email == "" || password == "" {
		renderErr("Please enter your email and password.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if allowed, reason := h.Limiter.Check(r, email); !allowed {
		h.AuditLog.LoginFailedRateLimit(ctx, r, email, reason)
		renderErr(reason)
		return
	}

	p, err := h.Profiles.GetByEmail(ctx, email)
	switch {
	case err == mongo.ErrNoDocuments:
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
		// Same message as a wrong password so the form does not leak
		// which addresses have accounts.
		renderErr("Invalid email or password.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "login: find profile failed", err, "A server error occurred.", "/login")
		return
	}

	if normalize.AuthMethod(p.AuthMethod) == "google" {
		dest := "/auth/google"
		if ret != "" {
			dest += "?return=" + ret
		}
		http.Redirect(w, r, dest, http.StatusSeeOther)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, p.ID, email)
		renderErr("Invalid email or password.")
		return
	}

	h.Limiter.ResetEmail(email)

	if err := h.SessionMgr.SignIn(w, r, p.ID.Hex()); err != nil {
		h.ErrLog.LogServerError(w, r, "login: create session failed", err, "Unable to create session. Please try again.", "/login")
		return
	}

	h.AuditLog.LoginSuccess(ctx, r, p.ID, "internal", email)

	h.redirectAfterLogin(w, r, p, ret)
}

// redirectAfterLogin routes a freshly signed-in user to onboarding until
// their profile is complete, then to the requested page.
func (h *Handler) redirectAfterLogin(w http.ResponseWriter, r *http.Request, p *models.Profile, returnURL string) {
	if !p.ProfileCompleted && p.Role != models.RoleAdmin {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}
	dest := urlutil.SafeReturn(returnURL, "", "/dashboard")
	http.Redirect(w, r, dest, http.StatusSeeOther)
}
