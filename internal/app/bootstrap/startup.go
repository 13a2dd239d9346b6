// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/campushub/groupify/internal/app/resources"
	clusterstore "github.com/campushub/groupify/internal/app/store/clusters"
	"github.com/campushub/groupify/internal/app/store/oauthstate"
	profilestore "github.com/campushub/groupify/internal/app/store/profiles"
	settingsstore "github.com/campushub/groupify/internal/app/store/settings"
	"github.com/campushub/groupify/internal/app/system/tasks"
	"github.com/campushub/groupify/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It loads
// shared templates, seeds the cluster catalog, makes sure the settings
// document exists, and creates or promotes the bootstrap admin account.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	db := deps.MongoDatabase

	if err := clusterstore.New(db).Seed(ctx); err != nil {
		logger.Error("cluster seed failed", zap.Error(err))
		return err
	}

	if err := ensureSettingsDocument(ctx, db); err != nil {
		logger.Error("settings bootstrap failed", zap.Error(err))
		return err
	}

	if appCfg.AdminEmail != "" {
		if err := ensureAdminAccount(ctx, db, appCfg, logger); err != nil {
			logger.Error("admin bootstrap failed", zap.Error(err))
			return err
		}
	}

	jobRunner = tasks.NewRunner(logger,
		tasks.OAuthStateCleanupJob(oauthstate.New(db), logger),
		tasks.DeadlineFreezeJob(settingsstore.New(db), logger),
	)
	jobRunner.Start()

	return nil
}

// jobRunner lives for the whole process; Shutdown stops it.
var jobRunner *tasks.Runner

// ensureSettingsDocument creates the singleton system settings document if
// it does not exist yet: not frozen, no deadline.
func ensureSettingsDocument(ctx context.Context, db *mongo.Database) error {
	store := settingsstore.New(db)
	exists, err := store.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return store.SetFrozen(ctx, false)
}

// ensureAdminAccount creates the configured admin profile, or promotes an
// existing profile with that email to admin. The password is only used on
// creation; changing an existing admin's password is out of scope here.
func ensureAdminAccount(ctx context.Context, db *mongo.Database, appCfg AppConfig, logger *zap.Logger) error {
	profiles := profilestore.New(db)

	existing, err := profiles.GetByEmail(ctx, appCfg.AdminEmail)
	switch {
	case err == mongo.ErrNoDocuments:
		// fall through to creation
	case err != nil:
		return err
	default:
		if existing.Role == models.RoleAdmin {
			return nil
		}
		if err := profiles.SetRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			return err
		}
		logger.Info("promoted existing profile to admin",
			zap.String("email", appCfg.AdminEmail))
		return nil
	}

	if appCfg.AdminPassword == "" {
		return fmt.Errorf("admin_password is required to create admin account %q", appCfg.AdminEmail)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(appCfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = profiles.Create(ctx, models.Profile{
		Email:            appCfg.AdminEmail,
		FullName:         appCfg.AdminName,
		PasswordHash:     string(hash),
		AuthMethod:       "internal",
		Role:             models.RoleAdmin,
		ProfileCompleted: true,
	})
	if err != nil {
		return err
	}

	logger.Info("created bootstrap admin account",
		zap.String("email", appCfg.AdminEmail))
	return nil
}
