package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"gatekeeper/config"
	"gatekeeper/internal/adapters/auth"
	"gatekeeper/internal/adapters/cache"
	"gatekeeper/internal/adapters/email"
	delivery "gatekeeper/internal/delivery/http"
	"gatekeeper/internal/delivery/http/controllers"
	"gatekeeper/internal/delivery/http/middleware"
	"gatekeeper/internal/domain"
	"gatekeeper/internal/repository/postgres"
	"gatekeeper/internal/services"
)

const (
	serviceTimeout = 10 * time.Second
	tokenExpiry    = 24 * time.Hour
	countCacheTTL  = 30 * time.Second
)

// @title Gatekeeper API
// @version 1.0
// @description Event participation eligibility and registration service.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("ping database", "error", err)
		os.Exit(1)
	}

	var counts domain.AttendanceCountCache
	if cfg.RedisAddr != "" {
		rdb := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unavailable, counts served from the database", "error", err)
		} else {
			counts = cache.NewCountsCache(rdb, countCacheTTL)
		}
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("create mailer", "error", err)
		os.Exit(1)
	}

	userRepo := postgres.NewUserRepository(db)
	orgRepo := postgres.NewOrganizationRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	membershipRepo := postgres.NewMembershipRepository(db)
	invitationRepo := postgres.NewInvitationRepository(db)
	blacklistRepo := postgres.NewBlacklistRepository(db)
	questionnaireRepo := postgres.NewQuestionnaireRepository(db)
	participationRepo := postgres.NewParticipationRepository(db)

	issuer := auth.NewJWTIssuer(cfg.JWTSecret)
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	hasher := auth.NewBcryptHasher(0)

	emailSvc := services.NewEmailService(mailer, email.NewTemplateRenderer())
	userSvc := services.NewUserService(userRepo, hasher, issuer, tokenExpiry)
	eligibilitySvc := services.NewEligibilityService(
		userRepo, eventRepo, orgRepo, membershipRepo, invitationRepo,
		blacklistRepo, questionnaireRepo, participationRepo,
		counts, logger, serviceTimeout,
	)
	participationSvc := services.NewParticipationService(
		eligibilitySvc, userRepo, eventRepo, orgRepo, membershipRepo,
		invitationRepo, participationRepo, counts, emailSvc,
		logger, serviceTimeout,
	)

	eligibilityCtrl := controllers.NewEligibilityController(logger, participationSvc)
	participationCtrl := controllers.NewParticipationController(logger, participationSvc)
	authCtrl := controllers.NewAuthController(logger, userSvc)

	mux := delivery.NewRouter(eligibilityCtrl, participationCtrl, authCtrl, verifier, logger)
	handler := middleware.LoggingMiddleware(logger, mux)
	if len(cfg.AllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.AllowedOrigins, handler)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
