package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/daycare-sub-backend/internal/auth"
	"github.com/nekogravitycat/daycare-sub-backend/internal/logging"
	"github.com/nekogravitycat/daycare-sub-backend/internal/organization"
	orgHttp "github.com/nekogravitycat/daycare-sub-backend/internal/organization/http"
	"github.com/nekogravitycat/daycare-sub-backend/internal/platform"
	platformHttp "github.com/nekogravitycat/daycare-sub-backend/internal/platform/http"
	"github.com/nekogravitycat/daycare-sub-backend/internal/shift"
	shiftHttp "github.com/nekogravitycat/daycare-sub-backend/internal/shift/http"
	"github.com/nekogravitycat/daycare-sub-backend/internal/user"
	userHttp "github.com/nekogravitycat/daycare-sub-backend/internal/user/http"
)

// Config holds the services and settings the router is assembled from.
type Config struct {
	IsProduction  bool
	ProdOrigins   string
	AuthRateLimit string
	Logger        *zap.Logger

	UserService     user.Service
	OrgService      organization.Service
	ShiftService    shift.Service
	PlatformService platform.Service
	JWTManager      *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) (*gin.Engine, error) {
	origins := allowedOrigins(cfg.IsProduction, cfg.ProdOrigins)
	if len(origins) == 0 {
		return nil, fmt.Errorf("PROD_ORIGINS is required in production")
	}

	r := gin.New()

	// Global Middleware:
	// - Logger: one structured line per request.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(logging.GinLogger(cfg.Logger), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	config := cors.DefaultConfig()
	config.AllowOrigins = origins
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// authMiddleware: Validates the JWT and rejects signed-out sessions.
	authMiddleware := auth.AuthRequired(cfg.JWTManager, cfg.UserService)
	// platformAdminMiddleware: Further checks if the authenticated user is a platform admin.
	platformAdminMiddleware := RequirePlatformAdmin(cfg.OrgService)

	rateLimit, err := NewAuthRateLimiter(cfg.AuthRateLimit)
	if err != nil {
		return nil, err
	}

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	userHandler := userHttp.NewHandler(cfg.UserService, cfg.OrgService, cfg.JWTManager)
	orgHandler := orgHttp.NewHandler(cfg.OrgService)
	shiftHandler := shiftHttp.NewHandler(cfg.ShiftService)
	platformHandler := platformHttp.NewHandler(cfg.PlatformService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware, rateLimit)
		orgHttp.RegisterRoutes(v1, orgHandler, authMiddleware)
		shiftHttp.RegisterRoutes(v1, shiftHandler, authMiddleware)
		platformHttp.RegisterRoutes(v1, platformHandler, authMiddleware, platformAdminMiddleware)
	}

	return r, nil
}

// allowedOrigins returns the comma separated production origins, or the local
// frontend origins during development.
func allowedOrigins(isProduction bool, prodOrigins string) []string {
	if !isProduction {
		return []string{
			"http://localhost:3000", // Frontend
			"http://localhost:8081", // Swagger
		}
	}

	var origins []string
	for _, o := range strings.Split(prodOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
