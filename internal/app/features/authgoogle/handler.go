// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	uierrors "github.com/campushub/groupify/internal/app/features/errors"
	"github.com/campushub/groupify/internal/app/store/oauthstate"
	profilestore "github.com/campushub/groupify/internal/app/store/profiles"
	"github.com/campushub/groupify/internal/app/system/auditlog"
	"github.com/campushub/groupify/internal/app/system/auth"
	"github.com/campushub/groupify/internal/app/system/timeouts"
	"github.com/campushub/groupify/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// stateTTL bounds how long an OAuth round trip may take.
const stateTTL = 10 * time.Minute

// Handler handles Google OAuth sign-in.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	StateStore *oauthstate.Store
	Profiles   *profilestore.Store

	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://groupify.example.edu/auth/google/callback"
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	stateStore *oauthstate.Store,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:           db,
		Log:          logger,
		SessionMgr:   sessionMgr,
		ErrLog:       errLog,
		AuditLog:     audit,
		StateStore:   stateStore,
		Profiles:     profilestore.New(db),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
	}
}

// Enabled reports whether OAuth credentials are configured.
func (h *Handler) Enabled() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

func (h *Handler) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

// googleUserInfo is the subset of the userinfo response we read.
type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google – begin flow                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeBegin(w http.ResponseWriter, r *http.Request) {
	if !h.Enabled() {
		h.ErrLog.LogBadRequest(w, r, "google oauth not configured", nil,
			"Google sign-in is not available.", "/login")
		return
	}

	state, err := randomState()
	if err != nil {
		h.ErrLog.LogServerError(w, r, "generate oauth state failed", err,
			"A server error occurred.", "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ret := query.Get(r, "return")
	if err := h.StateStore.Save(ctx, state, ret, time.Now().Add(stateTTL)); err != nil {
		h.ErrLog.LogServerError(w, r, "save oauth state failed", err,
			"A server error occurred.", "/login")
		return
	}

	http.Redirect(w, r, h.oauthConfig().AuthCodeURL(state), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := query.Get(r, "error"); errParam != "" {
		// The user cancelled at the consent screen.
		h.Log.Info("google oauth denied", zap.String("error", errParam))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	state := query.Get(r, "state")
	code := query.Get(r, "code")
	if state == "" || code == "" {
		h.ErrLog.LogBadRequest(w, r, "oauth callback missing state or code", nil,
			"Sign-in failed. Please try again.", "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ret, valid, err := h.StateStore.Validate(ctx, state)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "validate oauth state failed", err,
			"Sign-in failed. Please try again.", "/login")
		return
	}
	if !valid {
		h.ErrLog.LogBadRequest(w, r, "oauth state invalid or expired", nil,
			"Sign-in expired. Please try again.", "/login")
		return
	}

	token, err := h.oauthConfig().Exchange(ctx, code)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "oauth code exchange failed", err,
			"Sign-in failed. Please try again.", "/login")
		return
	}

	info, err := h.fetchUserInfo(ctx, token)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "fetch google userinfo failed", err,
			"Sign-in failed. Please try again.", "/login")
		return
	}
	if !info.VerifiedEmail || info.Email == "" {
		h.ErrLog.LogBadRequest(w, r, "google account email not verified", nil,
			"Your Google account email is not verified.", "/login")
		return
	}

	p, err := h.findOrCreateProfile(ctx, info)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "find-or-create google profile failed", err,
			"A server error occurred.", "/login")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, p.ID.Hex()); err != nil {
		h.ErrLog.LogServerError(w, r, "create session failed", err,
			"Unable to create session. Please try again.", "/login")
		return
	}

	h.AuditLog.GoogleLoginSuccess(ctx, r, p.ID, p.Email)
	h.Log.Info("google sign-in", zap.String("user_id", p.ID.Hex()))

	if !p.ProfileCompleted && p.Role != models.RoleAdmin {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, urlutil.SafeReturn(ret, "", "/dashboard"), http.StatusSeeOther)
}

func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := h.oauthConfig().Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// findOrCreateProfile looks up the profile for a verified Google email,
// creating a fresh student account on first sign-in.
func (h *Handler) findOrCreateProfile(ctx context.Context, info *googleUserInfo) (*models.Profile, error) {
	p, err := h.Profiles.GetByEmail(ctx, info.Email)
	switch {
	case err == nil:
		return p, nil
	case err != mongo.ErrNoDocuments:
		return nil, err
	}

	name := info.Name
	if name == "" {
		name = info.Email
	}

	created, err := h.Profiles.Create(ctx, models.Profile{
		Email:      info.Email,
		FullName:   name,
		AuthMethod: "google",
		Role:       models.RoleStudent,
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
