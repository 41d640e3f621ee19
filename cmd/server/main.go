package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/mail"
	"github.com/goliatone/go-accounts/social"
	"github.com/goliatone/go-accounts/social/providers/google"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config *Config
	logger *glog.BaseLogger
	bunDB  *bun.DB
	repo   accounts.RepositoryManager
	auther *accounts.Auther
	tokens accounts.TokenService
	mailer accounts.Mailer
	srv    router.Server[*fiber.App]
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("accounts"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := LoadConfig()
	if err != nil {
		lgr.Error("unable to load configuration", "error", err)
		os.Exit(1)
	}

	if cfg.Debug {
		fmt.Println(print.MaybeHighlightJSON(cfg))
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		lgr.Error("unable to initialize persistence", "error", err)
		os.Exit(1)
	}

	if err := WithMailer(ctx, app); err != nil {
		lgr.Error("unable to initialize mailer", "error", err)
		os.Exit(1)
	}

	if err := WithAuth(ctx, app); err != nil {
		lgr.Error("unable to initialize auth", "error", err)
		os.Exit(1)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		lgr.Error("unable to initialize http server", "error", err)
		os.Exit(1)
	}

	lgr.Info("accounts server listening", "address", cfg.Address)

	app.srv.Serve(cfg.Address)

	WaitExitSignal()

	if err := app.srv.Shutdown(ctx); err != nil {
		lgr.Error("shutdown error", "error", err)
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.config.Persistence.GetDSN())
	if err != nil {
		return err
	}

	persistence.RegisterModel((*accounts.Account)(nil))

	client, err := persistence.New(app.config.Persistence, db, sqlitedialect.New())
	if err != nil {
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(accounts.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	app.bunDB = client.DB()
	app.repo = accounts.NewRepositoryManager(client.DB())

	return nil
}

func WithMailer(ctx context.Context, app *App) error {
	sender := mail.LogSender{Logger: app.GetLogger("mail")}

	mailer, err := mail.NewTemplatedMailer(sender, mail.Config{
		AppName: app.config.AppName,
		BaseURL: app.config.MailBaseURL,
	})
	if err != nil {
		return err
	}

	app.mailer = mailer
	return nil
}

func WithAuth(ctx context.Context, app *App) error {
	provider := accounts.NewAccountProvider(app.repo.Accounts()).
		WithLogger(app.GetLogger("provider"))

	app.auther = accounts.NewAuthenticator(provider, app.config).
		WithLogger(app.GetLogger("auth"))

	app.tokens = app.auther.TokenService()

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:       app.config.AppName,
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	routeAuther, err := accounts.NewHTTPAuthenticator(app.auther, app.tokens, app.config)
	if err != nil {
		return err
	}
	routeAuther.Logger = app.GetLogger("http")

	service := accounts.NewAccountService(app.repo).
		WithLogger(app.GetLogger("accounts"))

	register := accounts.NewRegisterAccountHandler(app.repo, app.auther).
		WithMailer(app.mailer).
		WithLogger(app.GetLogger("register"))

	login := accounts.NewLoginHandler(app.repo, app.auther).
		WithLogger(app.GetLogger("login"))

	forgot := accounts.NewForgotPasswordHandler(app.repo, app.mailer).
		WithLogger(app.GetLogger("forgot"))

	reset := accounts.NewResetPasswordHandler(app.repo).
		WithMailer(app.mailer).
		WithLogger(app.GetLogger("reset"))

	// change-password acknowledges in the response only, no email goes out
	change := accounts.NewChangePasswordHandler(app.repo).
		WithLogger(app.GetLogger("change"))

	accounts.RegisterAccountRoutes(srv.Router(), app.config,
		accounts.WithControllerLogger(app.GetLogger("controller")),
		accounts.WithControllerDebug(app.config.Debug),
		accounts.WithControllerRepo(app.repo),
		accounts.WithControllerAuther(routeAuther),
		accounts.WithControllerService(service),
		accounts.WithControllerHandlers(register, login, forgot, reset, change),
	)

	if app.config.GoogleClientID != "" {
		external := accounts.NewExternalLoginHandler(app.repo, app.auther).
			WithLogger(app.GetLogger("external"))

		states := social.NewEncryptedStateManager([]byte(app.config.StateSecret), 0)

		social.RegisterRoutes(srv.Router(),
			social.WithProvider(google.New(google.Config{
				ClientID:     app.config.GoogleClientID,
				ClientSecret: app.config.GoogleClientSecret,
				CallbackURL:  app.config.GoogleCallbackURL,
			})),
			social.WithStateManager(states),
			social.WithLoginHandler(external),
			social.WithLogger(app.GetLogger("social")),
		)
	}

	app.srv = srv
	return nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
