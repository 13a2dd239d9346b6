// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/campushub/groupify/internal/app/store/audit"
	"github.com/campushub/groupify/internal/app/system/viewdata"
)

// listItem is a single audit event row, with IDs resolved to names.
type listItem struct {
	ID         string
	Timestamp  time.Time
	Category   string
	EventType  string
	ActorName  string
	TargetName string
	IP         string
	Success    bool
	Details    map[string]string
}

type listData struct {
	viewdata.BaseVM

	Items []listItem

	Category  string
	EventType string
	StartDate string
	EndDate   string

	Categories []categoryOption
	EventTypes []string

	Page       int
	TotalPages int
	Total      int64
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
}

type categoryOption struct {
	Value string
	Label string
}

func allCategories() []categoryOption {
	return []categoryOption{
		{Value: audit.CategoryAuth, Label: "Authentication"},
		{Value: audit.CategoryAdmin, Label: "Administration"},
	}
}

// eventTypesForCategory returns the event types offered in the filter
// dropdown for a category; empty category means all of them.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedRateLimit,
		audit.EventGoogleLoginSuccess,
		audit.EventLogout,
		audit.EventAccountCreated,
	}

	adminEvents := []string{
		audit.EventGroupCreated,
		audit.EventGroupUpdated,
		audit.EventGroupDeleted,
		audit.EventGroupFrozen,
		audit.EventGroupUnfrozen,
		audit.EventApplicationApproved,
		audit.EventApplicationDeclined,
		audit.EventInviteSent,
		audit.EventInviteAccepted,
		audit.EventMemberRemoved,
		audit.EventMemberLeft,
		audit.EventSystemFrozen,
		audit.EventSystemUnfrozen,
		audit.EventDeadlineSet,
		audit.EventStudentReset,
		audit.EventDataExported,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents))
		all = append(all, authEvents...)
		all = append(all, adminEvents...)
		return all
	default:
		return nil
	}
}
