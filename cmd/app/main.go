package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/flibisk/lowther-loudspeakers-sub001/external/abstractapi"
	"github.com/flibisk/lowther-loudspeakers-sub001/external/mailerlite"
	"github.com/flibisk/lowther-loudspeakers-sub001/external/resend"

	"github.com/flibisk/lowther-loudspeakers-sub001/internal/config"
	"github.com/flibisk/lowther-loudspeakers-sub001/internal/db"
	"github.com/flibisk/lowther-loudspeakers-sub001/internal/middleware"
	"github.com/flibisk/lowther-loudspeakers-sub001/internal/repository"
	"github.com/flibisk/lowther-loudspeakers-sub001/internal/services"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// ======================
	// INFRA
	// ======================
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	if err := db.Migrate(pool); err != nil {
		log.Fatal(err)
	}

	// ======================
	// EXTERNALS
	// ======================
	var mailer services.EmailSender
	if cfg.ResendAPIKey != "" {
		m, err := resend.NewResendMailer(cfg.ResendAPIKey, cfg.EmailFrom)
		if err != nil {
			log.Fatal(err)
		}
		mailer = m
	} else {
		logger.Warn("RESEND_API_KEY not set, email delivery disabled")
	}

	var list services.MailingList
	if cfg.MailerLiteAPIKey != "" {
		l, err := mailerlite.NewMailerLiteClient(cfg.MailerLiteAPIKey, cfg.MailerLiteGroupID)
		if err != nil {
			log.Fatal(err)
		}
		list = l
	} else {
		logger.Warn("MAILERLITE_API_KEY not set, mailing-list sync disabled")
	}

	var emailValidator services.EmailValidator
	if cfg.UseEmailReputation {
		emailValidator, err = abstractapi.NewAbstractReputationValidator(cfg.AbstractAPIKey)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		emailValidator = services.NewLocalValidator()
	}

	// ======================
	// REPOSITORIES
	// ======================
	codeRepo := repository.NewVerificationCodeRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	// ======================
	// SERVICES
	// ======================
	notifySvc := services.NewNotificationService(mailer, list, logger)
	userSvc := services.NewUserService(userRepo, logger)
	authSvc := services.NewAuthService(codeRepo, userSvc, notifySvc, emailValidator,
		cfg.CodeTTL, cfg.DiscountCode, cfg.DiscountPercent, logger)
	profileSvc := services.NewProfileService(userRepo, logger)

	sessions := middleware.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure)

	// ======================
	// ECHO
	// ======================
	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	api := e.Group("/api")

	// ======================
	// ROUTES (ONLY REGISTRATION)
	// ======================
	registerAuthRoutes(api, authSvc, userSvc, sessions)
	registerProfileRoutes(api, profileSvc, sessions)

	// ======================
	// SERVER
	// ======================
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
