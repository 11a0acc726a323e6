package main

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	sightings "github.com/goliatone/go-sightings"
	"github.com/goliatone/go-sightings/middleware/authware"
	"github.com/goliatone/go-sightings/provider/fcm"
	"github.com/goliatone/go-sightings/provider/firebase"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

//go:embed views
var viewsFS embed.FS

type namedLogger struct {
	name string
}

func (l namedLogger) Error(format string, args ...any) { l.printf("ERR", format, args...) }
func (l namedLogger) Warn(format string, args ...any)  { l.printf("WRN", format, args...) }
func (l namedLogger) Info(format string, args ...any)  { l.printf("INF", format, args...) }
func (l namedLogger) Debug(format string, args ...any) { l.printf("DBG", format, args...) }

func (l namedLogger) printf(level, format string, args ...any) {
	fmt.Printf("["+level+"] "+l.name+" "+format+"\n", args...)
}

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := setupPersistence(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "persistence: %v\n", err)
		os.Exit(1)
	}

	repo := sightings.NewRepositoryManager(db)
	tokens := sightings.NewTokenService(cfg, sightings.WithTokenServiceLogger(namedLogger{name: "tokens"}))

	sink := sightings.ActivitySinkFunc(func(ctx context.Context, event sightings.ActivityEvent) error {
		namedLogger{name: "activity"}.Info("%s actor=%s post=%s", event.EventType, event.Actor.ID, event.PostID)
		return nil
	})

	resolver := sightings.NewAuthResolver(repo, tokens).
		WithLogger(namedLogger{name: "auth"}).
		WithActivitySink(sink)

	if cfg.Firebase.ProjectID != "" {
		verifier, err := firebase.NewVerifier(firebase.Config{
			ProjectID:       cfg.Firebase.ProjectID,
			JWKSURL:         cfg.Firebase.JWKSURL,
			RefreshInterval: cfg.Firebase.RefreshInterval,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "firebase: %v\n", err)
			os.Exit(1)
		}
		defer verifier.Close()
		resolver.WithFirebaseVerifier(verifier)
	}

	var notifier sightings.Notifier
	if cfg.FCM.ServerKey != "" {
		notifier, err = fcm.NewNotifier(fcm.Config{
			ServerKey: cfg.FCM.ServerKey,
			Topic:     cfg.FCM.Topic,
			Timeout:   cfg.FCM.Timeout,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "fcm: %v\n", err)
			os.Exit(1)
		}
	}

	machine := sightings.NewPostStateMachine(
		repo.Posts(),
		sightings.WithStateMachineLogger(namedLogger{name: "posts"}),
		sightings.WithStateMachineActivitySink(sink),
		sightings.WithStateMachineNotifier(notifier),
	)

	session := sightings.NewAdminSession(cfg)
	session.Logger = namedLogger{name: "session"}

	requireAdmin := authware.RequireAdmin(authware.Config{
		Resolver:        resolver,
		AdminCookieName: cfg.GetAdminCookieName(),
	})
	requireUser := authware.RequireUser(authware.Config{
		Resolver:   resolver,
		AuthScheme: cfg.GetAuthScheme(),
	})
	requireAny := authware.RequireAny(authware.Config{
		Resolver:        resolver,
		AdminCookieName: cfg.GetAdminCookieName(),
		AuthScheme:      cfg.GetAuthScheme(),
	})

	srv := setupServer(cfg)

	adminAuth := sightings.NewAdminAuthController(
		sightings.WithAdminAuthLogger(namedLogger{name: "admin-auth"}),
		sightings.WithAdminAuthRepo(repo),
		sightings.WithAdminAuthResolver(resolver),
		sightings.WithAdminAuthSession(session),
		sightings.WithAdminAuthDebug(cfg.Debug),
	)
	userAuth := sightings.NewUserAuthController(
		sightings.WithUserAuthLogger(namedLogger{name: "user-auth"}),
		sightings.WithUserAuthRepo(repo),
		sightings.WithUserAuthResolver(resolver),
	)
	posts := sightings.NewPostsController(
		sightings.WithPostsLogger(namedLogger{name: "posts"}),
		sightings.WithPostsRepo(repo),
		sightings.WithPostsStateMachine(machine),
	)
	users := sightings.NewUsersController(
		sightings.WithUsersLogger(namedLogger{name: "users"}),
		sightings.WithUsersRepo(repo),
	)
	species := sightings.NewSpeciesController(
		sightings.WithSpeciesLogger(namedLogger{name: "species"}),
		sightings.WithSpeciesRepo(repo),
	)
	notifications := sightings.NewNotificationsController(
		sightings.WithNotificationsLogger(namedLogger{name: "notifications"}),
		sightings.WithNotificationsRepo(repo),
		sightings.WithNotificationsNotifier(notifier),
	)

	r := srv.Router()
	sightings.RegisterAdminAuthRoutes(r, adminAuth, requireAdmin)
	sightings.RegisterUserAuthRoutes(r, userAuth)
	sightings.RegisterPostRoutes(r, posts, requireAny, requireUser, requireAdmin)
	sightings.RegisterUserRoutes(r, users, requireUser)
	sightings.RegisterSpeciesRoutes(r, species, requireAdmin)
	sightings.RegisterNotificationRoutes(r, notifications, requireAdmin)

	r.Get("/health", func(ctx router.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx.Context(), cfg.Persistence.GetPingTimeout())
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			return ctx.JSON(router.StatusInternalServerError, map[string]string{
				"status": "degraded",
			})
		}
		return ctx.JSON(router.StatusOK, map[string]string{
			"status": "ok",
		})
	}).SetName("health")

	srv.Serve(":" + cfg.Port)

	WaitExitSignal()
}

func setupServer(cfg AppConfig) router.Server[*fiber.App] {
	views, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	engine := django.NewFileSystem(http.FS(views), ".html")

	return router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			StrictRouting:     false,
			PassLocalsToViews: true,
			Views:             engine,
		}))
	})
}

func setupPersistence(ctx context.Context, cfg AppConfig) (*bun.DB, error) {
	db, err := sql.Open(sqliteshim.ShimName, cfg.Persistence.GetDSN())
	if err != nil {
		return nil, err
	}

	persistence.RegisterModel((*sightings.Admin)(nil))
	persistence.RegisterModel((*sightings.UserType)(nil))
	persistence.RegisterModel((*sightings.User)(nil))
	persistence.RegisterModel((*sightings.Species)(nil))
	persistence.RegisterModel((*sightings.Post)(nil))
	persistence.RegisterModel((*sightings.PostImage)(nil))

	client, err := persistence.New(cfg.Persistence, db, sqlitedialect.New())
	if err != nil {
		return nil, err
	}

	migrationsFS, err := fs.Sub(sightings.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return nil, err
	}
	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)
	if err := client.ValidateDialects(ctx); err != nil {
		return nil, err
	}

	if err := client.Migrate(ctx); err != nil {
		return nil, err
	}

	return client.DB(), nil
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
