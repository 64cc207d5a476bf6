package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nekogravitycat/daycare-sub-backend/internal/api"
	"github.com/nekogravitycat/daycare-sub-backend/internal/auth"
	"github.com/nekogravitycat/daycare-sub-backend/internal/config"
	"github.com/nekogravitycat/daycare-sub-backend/internal/jobs"
	"github.com/nekogravitycat/daycare-sub-backend/internal/mailer"
	"github.com/nekogravitycat/daycare-sub-backend/internal/organization"
	"github.com/nekogravitycat/daycare-sub-backend/internal/platform"
	"github.com/nekogravitycat/daycare-sub-backend/internal/shift"
	"github.com/nekogravitycat/daycare-sub-backend/internal/user"
)

// Container holds the initialized components that are needed externally.
type Container struct {
	Router    *gin.Engine
	Scheduler *jobs.Scheduler
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) (*Container, error) {
	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTokenTTL)
	mail := NewMailer(cfg, logger)

	// User Module
	userRepo := user.NewPgxRepository(pool)
	userService := user.NewService(userRepo, passwordHasher, mail, logger, user.Settings{
		SiteURL:        cfg.SiteURL,
		LoginTokenTTL:  cfg.LoginTokenTTL,
		InviteTokenTTL: cfg.InviteTokenTTL,
	})

	// Organization Module
	orgRepo := organization.NewPgxRepository(pool)
	orgService := organization.NewService(orgRepo)

	// Shift Module
	shiftRepo := shift.NewPgxRepository(pool)
	shiftService := shift.NewService(shiftRepo, orgService, logger)

	// Platform Module
	platformRepo := platform.NewPgxRepository(pool)
	platformService := platform.NewService(platformRepo, orgService, userService, logger)

	// Router
	router, err := api.NewRouter(api.Config{
		IsProduction:    cfg.IsProduction,
		ProdOrigins:     cfg.ProdOrigins,
		AuthRateLimit:   cfg.AuthRateLimit,
		Logger:          logger,
		UserService:     userService,
		OrgService:      orgService,
		ShiftService:    shiftService,
		PlatformService: platformService,
		JWTManager:      jwtManager,
	})
	if err != nil {
		return nil, err
	}

	scheduler, err := jobs.NewScheduler(cfg.CleanupSchedule, userService, logger)
	if err != nil {
		return nil, err
	}

	return &Container{
		Router:    router,
		Scheduler: scheduler,
	}, nil
}

// NewMailer sends through SendGrid when an API key is configured and logs
// messages otherwise.
func NewMailer(cfg *config.Config, logger *zap.Logger) mailer.Mailer {
	if cfg.SendGridAPIKey == "" {
		logger.Warn("SENDGRID_API_KEY not set, emails will be logged instead of sent")
		return mailer.NewLogMailer(logger)
	}
	return mailer.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFromEmail, cfg.MailFromName)
}

// ShutdownTimeout bounds graceful HTTP shutdown.
const ShutdownTimeout = 5 * time.Second
