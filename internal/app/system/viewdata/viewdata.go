// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"context"
	"net/http"
	"time"

	settingsstore "github.com/campushub/groupify/internal/app/store/settings"
	"github.com/campushub/groupify/internal/app/system/auth"
	"github.com/campushub/groupify/internal/app/system/authz"
	"github.com/campushub/groupify/internal/app/system/timeouts"
	"github.com/campushub/groupify/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
	"go.mongodb.org/mongo-driver/mongo"
)

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(r, db, "Page Title", "/default-back"),
//	    // page-specific fields...
//	}
type BaseVM struct {
	// User context (from auth middleware)
	IsLoggedIn       bool
	Role             string
	UserName         string
	ProfileCompleted bool
	HasGroup         bool

	// Formation window (from system settings)
	SystemFrozen  bool
	Deadline      *time.Time
	DeadlineDays  int  // whole days remaining, clamped at zero
	HasDeadline   bool // false when no deadline is configured
	DeadlinePast  bool

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// CSRF protection
	CSRFToken string // Token for form submission
}

// NewBaseVM creates a fully populated BaseVM for a page.
// This is the preferred way to create a BaseVM for embedding in view models.
//
// Parameters:
//   - r: the HTTP request
//   - db: database for loading system settings (can be nil for defaults)
//   - title: the page title
//   - backDefault: default URL for the back button if none in request
func NewBaseVM(r *http.Request, db *mongo.Database, title, backDefault string) BaseVM {
	role, name, _, signedIn := authz.UserCtx(r)

	vm := BaseVM{
		IsLoggedIn:  signedIn,
		Role:        role,
		UserName:    name,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
	}

	if user, ok := auth.CurrentUser(r); ok {
		vm.ProfileCompleted = user.ProfileCompleted
		vm.HasGroup = user.GroupID != ""
	}

	if db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()

		settings, err := settingsstore.New(db).Get(ctx)
		if err == nil {
			applySettings(&vm, settings, time.Now())
		}
	}

	return vm
}

func applySettings(vm *BaseVM, settings models.SystemSettings, now time.Time) {
	vm.SystemFrozen = settings.IsSystemFrozen
	vm.Deadline = settings.Deadline
	if days, ok := settings.DaysUntilDeadline(now); ok {
		vm.HasDeadline = true
		vm.DeadlineDays = days
		vm.DeadlinePast = settings.Deadline.Before(now)
	}
}

// GetSettings returns the system settings, or defaults if not available.
func GetSettings(ctx context.Context, db *mongo.Database) models.SystemSettings {
	if db == nil {
		return models.SystemSettings{}
	}

	settings, err := settingsstore.New(db).Get(ctx)
	if err != nil {
		return models.SystemSettings{}
	}
	return settings
}
