// Package app wires the form services together and builds the HTTP router.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"properforms/internal/config"
	"properforms/internal/domain/auth"
	"properforms/internal/domain/export"
	"properforms/internal/domain/feed"
	"properforms/internal/domain/field"
	"properforms/internal/domain/form"
	"properforms/internal/domain/submission"
	"properforms/internal/domain/upload"
	"properforms/internal/middleware"
	"properforms/internal/pkg/captcha"
	"properforms/internal/pkg/cipher"
	"properforms/internal/pkg/hooks"
	"properforms/internal/pkg/jwt"
	"properforms/internal/pkg/mailer"
)

// App holds the long-lived services of one process.
type App struct {
	Config *config.Config
	Log    *zap.Logger
	DB     *gorm.DB
	Events *hooks.Dispatcher
	Tokens *jwt.Service

	Auth        *auth.Service
	Forms       *form.Service
	Files       *upload.Service
	Submissions *submission.Service
	Submitter   *form.Submitter
	Export      *export.Service
	Feed        *feed.Hub
}

// Migrate creates or updates every table the services use.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&auth.User{},
		&form.Form{},
		&submission.Submission{},
		&upload.File{},
		&upload.UsedNonce{},
	)
}

func New(cfg *config.Config, log *zap.Logger, db *gorm.DB) (*App, error) {
	sealer, err := cipher.New(cfg.FileSecret)
	if err != nil {
		return nil, fmt.Errorf("init file cipher: %w", err)
	}

	events := hooks.New()
	tokens := jwt.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	forms := form.NewService(form.NewRepository(db), field.DefaultRegistry(), events, log, cfg.FormCacheTTL)
	files := upload.NewService(upload.NewRepository(db), forms, tokens, sealer, log, upload.Options{
		DefaultExtensions: cfg.UploadExtensions,
		NonceTTL:          cfg.NonceTTL,
	})
	subs := submission.NewService(submission.NewRepository(db), forms, files, events, log, cfg.FormCacheTTL)

	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			NoTLS:    cfg.SMTPNoTLS,
		}, log)
	} else {
		log.Warn("SMTP_HOST not set, notification emails are only logged")
		mail = mailer.NewLogMailer(log)
	}

	submitter := form.NewSubmitter(forms, subs, tokens,
		captcha.New(cfg.CaptchaSecret, cfg.CaptchaVerifyURL, cfg.CaptchaTimeout),
		mail, events, log,
		form.SubmitOptions{
			PublicBaseURL:      cfg.PublicBaseURL,
			IntegrationTimeout: cfg.IntegrationTimeout,
			NonceTTL:           cfg.NonceTTL,
			CaptchaRequired:    cfg.CaptchaRequired,
		},
	)

	hub := feed.NewHub(log)
	hub.Subscribe(events)

	a := &App{
		Config:      cfg,
		Log:         log,
		DB:          db,
		Events:      events,
		Tokens:      tokens,
		Auth:        auth.NewService(auth.NewRepository(db), tokens, log),
		Forms:       forms,
		Files:       files,
		Submissions: subs,
		Submitter:   submitter,
		Export:      export.NewService(forms, subs, cfg.PublicBaseURL, log),
		Feed:        hub,
	}
	events.On(hooks.FormDeleted, hooks.DefaultPriority, a.purgeForm)
	return a, nil
}

// purgeForm removes the submissions and files of a deleted form.
func (a *App) purgeForm(ctx context.Context, payload any) {
	formID, ok := payload.(int64)
	if !ok {
		return
	}
	if err := a.Submissions.DeleteByForm(ctx, formID); err != nil {
		a.Log.Error("submissions of deleted form kept", zap.Int64("form_id", formID), zap.Error(err))
	}
	if err := a.Files.DeleteForForm(ctx, formID); err != nil {
		a.Log.Error("files of deleted form kept", zap.Int64("form_id", formID), zap.Error(err))
	}
}

// Router builds the gin engine with every route mounted.
func (a *App) Router() *gin.Engine {
	if config.IsProdLike(a.Config.AppEnv) {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.ErrorLogger(a.Log))
	r.Use(middleware.RequestLogger(a.Log))
	r.Use(middleware.CORS(a.Config.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth(a.Tokens))

	auth.NewHandler(a.Auth).RegisterRoutes(v1)
	form.NewHandler(a.Forms, a.Submitter, a.Files, a.Submissions).RegisterRoutes(v1, protected)
	upload.RegisterRoutes(v1, protected, upload.NewHandler(a.Files))
	export.RegisterRoutes(protected, export.NewHandler(a.Export))
	feed.RegisterRoutes(r, feed.NewHandler(a.Feed, a.Tokens, a.Log, a.Config.CORSAllowedOrigins))

	return r
}
