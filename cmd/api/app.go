package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "groupmanager/api/swagger" // swagger docs
	"groupmanager/internal/config"
	"groupmanager/internal/database"
	"groupmanager/internal/handler"
	"groupmanager/internal/mail"
	"groupmanager/internal/middleware"
	"groupmanager/internal/policy"
	"groupmanager/internal/repository"
	"groupmanager/internal/service"
	"groupmanager/internal/tokenstore"
	"groupmanager/internal/validation"
	"groupmanager/internal/websocket"
	"groupmanager/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// app holds the wired dependency graph (Repository -> Service -> Handler).
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	db    *gorm.DB
	redis *redis.Client
	hub   *websocket.Hub

	auth    service.AuthService
	users   service.UserService
	groups  service.GroupService
	members service.MemberService
	audit   service.AuditService
	roles   service.RoleService
	stats   service.StatisticsService
}

func prepareSchema(ctx context.Context, db *gorm.DB) error {
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	return database.SeedTypeUsers(ctx, db)
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.Get()

	db, err := database.NewConnection(cfg.Database.DSN(), log)
	if err != nil {
		return nil, err
	}
	if err := prepareSchema(ctx, db); err != nil {
		return nil, err
	}
	log.Info().Str("host", cfg.Database.Host).Msg("connected to PostgreSQL")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}

	var mailer mail.Mailer
	if cfg.SMTP.Enabled() {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Addr:     cfg.SMTP.Addr(),
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			StartTLS: cfg.SMTP.StartTLS,
		}, log)
	} else {
		log.Warn().Msg("SMTP_HOST not set, invitation e-mails are only logged")
		mailer = mail.NewLogMailer(log)
	}

	hub := websocket.NewHub(log, cfg.Origins())

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	typeUserRepo := repository.NewTypeUserRepository(db)
	txManager := repository.NewTransactionManager(db)

	authz := policy.NewEvaluator(groupRepo)
	invites := service.NewInvites(mailer, cfg.SMTP.AppURL)

	return &app{
		cfg:     cfg,
		log:     log,
		db:      db,
		redis:   rdb,
		hub:     hub,
		auth:    service.NewAuthService(userRepo, tokenstore.NewRedisDenylist(rdb), []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL),
		users:   service.NewUserService(userRepo, auditRepo, txManager, validation.NewUserValidator(userRepo), authz, invites, hub),
		groups:  service.NewGroupService(groupRepo, userRepo, auditRepo, txManager, authz, invites, hub),
		members: service.NewMemberService(memberRepo, groupRepo, userRepo, auditRepo, txManager, authz, invites, hub),
		audit:   service.NewAuditService(auditRepo, authz),
		roles:   service.NewRoleService(typeUserRepo),
		stats:   service.NewStatisticsService(repository.NewStatisticsRepository(db), authz),
	}, nil
}

func (a *app) close() {
	if err := a.redis.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close redis")
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (a *app) router() *gin.Engine {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	validation.RegisterBindingTagNames()

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(a.log), middleware.Metrics())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = a.cfg.Origins()
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Request-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(a.hub, a.auth, c)
	})

	requireAuth := middleware.RequireAuth(a.auth)
	loginLimit := middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: a.cfg.Auth.LoginRate,
		Burst:             a.cfg.Auth.LoginBurst,
	})
	handler.RegisterAPI(router.Group("/api"), requireAuth,
		handler.NewAuthHandler(a.auth, handler.AuthOptions{
			RequireAuth:   requireAuth,
			LoginLimit:    loginLimit,
			TokenTTL:      a.cfg.Auth.TokenTTL,
			SecureCookies: a.cfg.IsProduction(),
		}),
		handler.NewUserHandler(a.users),
		handler.NewGroupHandler(a.groups),
		handler.NewMemberHandler(a.members),
		handler.NewAuditHandler(a.audit),
		handler.NewRoleHandler(a.roles),
		handler.NewStatisticsHandler(a.stats),
	)
	return router
}

// serve runs the API until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	go a.hub.Run()
	defer a.hub.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		a.log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	a.log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	<-drained
	return nil
}
