package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"penthrey/api/internal/cache"
	"penthrey/api/internal/config"
	"penthrey/api/internal/middleware"
	"penthrey/api/internal/models"
	"penthrey/api/internal/notify"
	"penthrey/api/internal/repository"
	"penthrey/api/internal/service"
	"penthrey/api/internal/storage"
)

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	auth     *service.AuthService
	orgs     *service.OrgService
	db       *pgxpool.Pool
	cache    *redis.Client
	store    *storage.ObjectStore
	users    *repository.UserRepository
	orgRepo  *repository.OrganizationRepository
	sessions *repository.SessionRepository
}

func NewHandlerSet(
	log zerolog.Logger,
	db *pgxpool.Pool,
	redisClient *redis.Client,
	store *storage.ObjectStore,
	notifier notify.Notifier,
	cfg *config.AppConfig,
) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)
	resetRepo := repository.NewResetRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	revoker := cache.NewRevocationList(redisClient)

	auth := service.NewAuthService(userRepo, orgRepo, verificationRepo, resetRepo, inviteRepo, sessionRepo, revoker, notifier, cfg, log)
	orgs := service.NewOrgService(userRepo, orgRepo, inviteRepo, notifier, cfg, log)

	return HandlerSet{
		log:      log,
		cfg:      cfg,
		auth:     auth,
		orgs:     orgs,
		db:       db,
		cache:    redisClient,
		store:    store,
		users:    userRepo,
		orgRepo:  orgRepo,
		sessions: sessionRepo,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.RegisterUser)
	auth.POST("/login", h.Login)
	auth.POST("/token/refresh", h.Refresh)
	auth.POST("/password/reset/request", h.RequestPasswordReset)
	auth.POST("/password/reset/confirm", h.ConfirmPasswordReset)
	auth.POST("/email/verify", h.VerifyEmail)

	authed := v1.Group("/auth")
	authed.Use(middleware.Auth(h.cfg, h.users))
	authed.POST("/logout", h.Logout)
	authed.GET("/profile", h.GetProfile)
	authed.PUT("/profile", h.UpdateProfile)
	authed.POST("/profile/avatar", h.UploadAvatar)
	authed.POST("/password/change", h.ChangePassword)
	authed.POST("/email/verify/resend", h.ResendVerification)
	authed.GET("/dashboard", h.Dashboard)
	authed.GET("/sessions", h.ListSessions)

	users := v1.Group("/auth/users")
	users.Use(
		middleware.Auth(h.cfg, h.users),
		middleware.RequireOrganization(),
		middleware.RequireRoles(models.UserRoleAdmin, models.UserRoleManager),
	)
	users.GET("", h.ListMembers)
	users.GET("/:id", h.GetMember)
	users.PUT("/:id", h.UpdateMember)
	users.DELETE("/:id", h.RemoveMember)

	orgs := v1.Group("/organizations")
	orgs.Use(middleware.Auth(h.cfg, h.users))
	orgs.POST("/create", h.CreateOrganization)
	orgs.POST("/invites/accept", h.AcceptInvite)

	sameOrg := v1.Group("/organizations")
	sameOrg.Use(middleware.Auth(h.cfg, h.users), middleware.RequireOrganization())
	sameOrg.GET("", h.GetOrganization)
	sameOrg.PUT("", h.UpdateOrganization)
	sameOrg.GET("/stats", h.OrganizationStats)
	sameOrg.GET("/members", h.ListMembers)
	sameOrg.GET("/members/:id", h.GetMember)

	managed := v1.Group("/organizations")
	managed.Use(
		middleware.Auth(h.cfg, h.users),
		middleware.RequireOrganization(),
		middleware.RequireRoles(models.UserRoleAdmin, models.UserRoleManager),
	)
	managed.PUT("/members/:id", h.UpdateMember)
	managed.DELETE("/members/:id", h.RemoveMember)
	managed.POST("/logo", h.UploadLogo)
	managed.GET("/invites", h.ListInvites)
	managed.POST("/invites/send", h.SendInvite)
	// Static segment; ":id" as a sibling of send/accept would not route.
	managed.POST("/invites/cancel/:id", h.CancelInvite)

	adminOnly := v1.Group("/organizations")
	adminOnly.Use(
		middleware.Auth(h.cfg, h.users),
		middleware.RequireOrganization(),
		middleware.RequireRoles(models.UserRoleAdmin),
	)
	adminOnly.POST("/leave", h.LeaveOrganization)

	// Declining an invite deliberately needs no authentication: the token
	// arrives by email and the recipient may not have an account.
	v1.POST("/organizations/invites/decline", h.DeclineInvite)
}
