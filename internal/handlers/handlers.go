package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"aperture/api/internal/audit"
	"aperture/api/internal/config"
	"aperture/api/internal/middleware"
	"aperture/api/internal/models"
	"aperture/api/internal/ratelimit"
	"aperture/api/internal/repository"
	"aperture/api/internal/service"
	"aperture/api/internal/storage"
)

type HandlerSet struct {
	log          zerolog.Logger
	cfg          *config.AppConfig
	authService  *service.AuthService
	adminService *service.AdminService
	users        *repository.UserRepository
	roles        *repository.RoleRepository
	projects     *repository.ProjectRepository
	bookings     *repository.BookingRepository
	recorder     *audit.Recorder
	limiter      ratelimit.Limiter
	store        *storage.ObjectStore
	db           *pgxpool.Pool
	cache        *redis.Client
}

func NewHandlerSet(
	log zerolog.Logger,
	db *pgxpool.Pool,
	cache *redis.Client,
	store *storage.ObjectStore,
	limiter ratelimit.Limiter,
	lockouts ratelimit.LockoutTracker,
	recorder *audit.Recorder,
	cfg *config.AppConfig,
) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	auth := service.NewAuthService(userRepo, lockouts, recorder, cfg, log)
	admin := service.NewAdminService(userRepo, recorder, log)

	return HandlerSet{
		log:          log,
		cfg:          cfg,
		authService:  auth,
		adminService: admin,
		users:        userRepo,
		roles:        roleRepo,
		projects:     projectRepo,
		bookings:     bookingRepo,
		recorder:     recorder,
		limiter:      limiter,
		store:        store,
		db:           db,
		cache:        cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register",
			middleware.RateLimit(h.limiter, h.cfg.RateLimit.Register, middleware.KeyByIP("auth:register"), h.log),
			h.RegisterUser,
		)
		auth.POST("/login",
			middleware.RateLimit(h.limiter, h.cfg.RateLimit.Login, middleware.KeyByIP("auth:login"), h.log),
			h.Login,
		)

		session := v1.Group("/auth")
		session.Use(middleware.RequireSession(h.cfg, h.authService))
		session.POST("/logout", h.Logout)
		session.GET("/me", h.Me)
		session.POST("/password",
			middleware.RateLimit(h.limiter, h.cfg.RateLimit.PasswordChange, middleware.KeyByUser("auth:password"), h.log),
			h.ChangePassword,
		)
	}

	admin := v1.Group("/admin")
	admin.Use(
		middleware.RequireSession(h.cfg, h.authService),
		middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin),
	)
	admin.GET("/users", h.AdminListUsers)
	admin.GET("/roles", h.AdminListRoles)
	admin.PATCH("/users/:id/status", h.AdminSetUserStatus)
	admin.PUT("/users/:id/roles", h.AdminSetUserRoles)
	admin.POST("/users/:id/password", h.AdminResetPassword)
	admin.PUT("/users/:id/tier", h.AdminSetUserTier)

	projects := v1.Group("/projects")
	projects.Use(middleware.RequireSession(h.cfg, h.authService))
	projects.GET("", h.ListProjects)
	projects.GET("/:id", h.GetProject)
	projects.PATCH("/:id/status", h.SetProjectStatus)
	projects.GET("/:id/assets", h.ListProjectAssets)
	projects.GET("/:id/assets/:assetId/download", h.DownloadProjectAsset)

	bookings := v1.Group("/bookings")
	bookings.POST("",
		middleware.RateLimit(h.limiter, h.cfg.RateLimit.Booking, middleware.KeyByIP("bookings:create"), h.log),
		h.CreateBooking,
	)
}

// Failure bodies keep one stable shape so clients branch on the status
// code and the success flag, never on prose.
func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}
