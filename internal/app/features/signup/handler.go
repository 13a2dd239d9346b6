// internal/app/features/signup/handler.go
package signup

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/campushub/groupify/internal/app/features/errors"
	profilestore "github.com/campushub/groupify/internal/app/store/profiles"
	"github.com/campushub/groupify/internal/app/system/auditlog"
	"github.com/campushub/groupify/internal/app/system/auth"
	"github.com/campushub/groupify/internal/app/system/inputval"
	"github.com/campushub/groupify/internal/app/system/timeouts"
	"github.com/campushub/groupify/internal/app/system/viewdata"
	"github.com/campushub/groupify/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Profiles   *profilestore.Store
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		ErrLog:     errLog,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Profiles:   profilestore.New(db),
	}
}

type signupFormData struct {
	viewdata.BaseVM
	Error    string
	FullName string
	Email    string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /signup                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeSignup(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok && u != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	templates.Render(w, r, "signup", signupFormData{
		BaseVM: viewdata.NewBaseVM(r, h.DB, "Create account", "/"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /signup                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSignupPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "signup: parse form failed", err, "Invalid form data.", "/signup")
		return
	}

	fullName := strings.TrimSpace(r.FormValue("full_name"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")

	renderErr := func(msg string) {
		templates.Render(w, r, "signup", signupFormData{
			BaseVM:   viewdata.NewBaseVM(r, h.DB, "Create account", "/"),
			Error:    msg,
			FullName: fullName,
			Email:    email,
		})
	}

	switch {
	case fullName == "":
		renderErr("Please enter your full name.")
		return
	case !inputval.IsValidEmail(email):
		renderErr("Please enter a valid email address.")
		return
	case len(password) < minPasswordLen:
		renderErr("Password must be at least 8 characters.")
		return
	case password != confirm:
		renderErr("Passwords do not match.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "signup: hash password failed", err, "A server error occurred.", "/signup")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Profiles.Create(ctx, models.Profile{
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		AuthMethod:   "internal",
		Role:         models.RoleStudent,
	})
	switch {
	case errors.Is(err, profilestore.ErrDuplicateEmail):
		renderErr("An account with that email already exists.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "signup: create profile failed", err, "A server error occurred.", "/signup")
		return
	}

	h.AuditLog.AccountCreated(ctx, r, p.ID, p.Email, "internal")

	if err := h.SessionMgr.SignIn(w, r, p.ID.Hex()); err != nil {
		h.Log.Error("signup: sign-in after account creation failed",
			zap.Error(err), zap.String("user_id", p.ID.Hex()))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.Log.Info("account created", zap.String("user_id", p.ID.Hex()))

	// New accounts always go through onboarding next.
	http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
}
