// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/campushub/groupify/internal/app/store/oauthstate"
	settingsstore "github.com/campushub/groupify/internal/app/store/settings"
	"go.uber.org/zap"
)

// OAuthStateCleanupJob removes expired OAuth state tokens.
// This is a backup for when MongoDB's TTL index cleanup is delayed.
func OAuthStateCleanupJob(stateStore *oauthstate.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := stateStore.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// DeadlineFreezeJob freezes the system once the group-formation deadline has
// passed. An admin unfreezing after the deadline wins until the next tick;
// clearing the deadline is the way to reopen formation for good.
func DeadlineFreezeJob(settings *settingsstore.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "deadline-freeze",
		Interval: 1 * time.Minute,
		Run: func(ctx context.Context) error {
			s, err := settings.Get(ctx)
			if err != nil {
				return err
			}
			if s.Deadline == nil || s.IsSystemFrozen {
				return nil
			}
			if time.Now().Before(*s.Deadline) {
				return nil
			}
			if err := settings.SetFrozen(ctx, true); err != nil {
				return err
			}
			logger.Info("group formation deadline passed; system frozen",
				zap.Time("deadline", *s.Deadline))
			return nil
		},
	}
}
