package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event-admin/config"
	"event-admin/internal/actor"
	"event-admin/internal/adminapi"
	"event-admin/internal/catalog"
	"event-admin/internal/handlers"
	"event-admin/internal/inflight"
	"event-admin/internal/services"
	"event-admin/internal/tui"
	_ "event-admin/migrations"
	"event-admin/monitoring"
	"event-admin/security"
	"event-admin/utils"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const monitorInterval = 15 * time.Second

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app := pocketbase.New()

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.IsDevelopment(),
	})

	app.RootCmd.AddCommand(tuiCommand(ctx, app, cfg))

	// Without a subcommand the binary serves on PORT.
	if len(os.Args) == 1 {
		app.RootCmd.SetArgs([]string{"serve", "--http=0.0.0.0:" + cfg.Port})
	}

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		output := cfg.LogFile
		if output == "" {
			output = "stderr"
		}
		log, err := utils.NewLogger(cfg.Environment, cfg.LogLevel, output)
		if err != nil {
			return err
		}

		rt := newRuntime(ctx, cfg, log)
		app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
			rt.close()
			return e.Next()
		})

		var fallback actor.Provider
		if cfg.AdminName != "" {
			fallback = actor.Static(cfg.AdminName)
		}
		dash := rt.dashboard(actor.FromContext{Fallback: fallback})

		opts := handlers.RouteOptions{EnableMetrics: cfg.EnableMetrics}
		if rt.redis != nil {
			opts.Redis = rt.redis
			opts.Limiter = security.NewRateLimiter(rt.redis, cfg.MutationRateLimit, log).Middleware()
			go monitoring.NewMonitor(rt.redis, inflight.RedisKeyPrefix, log).Run(ctx, monitorInterval)
		}
		handlers.Register(se.Router, dash, opts)

		log.Info("admin routes registered",
			zap.String("environment", cfg.Environment),
			zap.Bool("api_configured", dash.Configured()),
			zap.Bool("redis", rt.redis != nil),
			zap.Int("events", dash.Catalog.Len()),
		)
		return se.Next()
	})

	return app.Start()
}

func tuiCommand(ctx context.Context, app *pocketbase.PocketBase, cfg *config.Config) *cobra.Command {
	var eventID, adminName, adminEmail string

	command := &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal admin dashboard",
		RunE: func(command *cobra.Command, args []string) error {
			// Log lines would draw over the screen, so only a log file is used.
			log, err := utils.NewLogger(cfg.Environment, cfg.LogLevel, cfg.LogFile)
			if err != nil {
				return err
			}

			var who actor.Provider = actor.Static(actor.DefaultName)
			switch {
			case adminEmail != "":
				if err := app.Bootstrap(); err != nil {
					return fmt.Errorf("bootstrap: %w", err)
				}
				who = actor.Lookup{App: app, Email: adminEmail}
				if _, err := who.ActorName(ctx); err != nil {
					return err
				}
			case adminName != "":
				who = actor.Static(adminName)
			case cfg.AdminName != "":
				who = actor.Static(cfg.AdminName)
			}

			rt := newRuntime(ctx, cfg, log)
			defer rt.close()

			model, err := tui.NewModel(rt.dashboard(who), eventID)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
				return nil
			}
			return err
		},
	}

	command.Flags().StringVar(&eventID, "event", "", "event id or slug to open (default: first in the catalog)")
	command.Flags().StringVar(&adminName, "admin", "", "name recorded on check-ins and payment reviews")
	command.Flags().StringVar(&adminEmail, "as", "", "email of an admins record whose name is recorded")
	return command
}

// runtime is the wiring shared by the HTTP server and the terminal
// dashboard. Optional parts (Redis, PubNub, the admin API) degrade to
// in-process defaults when missing.
type runtime struct {
	cfg      *config.Config
	log      *zap.Logger
	redis    *redis.Client
	api      services.AdminAPI
	tracker  inflight.Tracker
	notifier services.Notifier
	catalog  *catalog.Catalog
}

func newRuntime(ctx context.Context, cfg *config.Config, log *zap.Logger) *runtime {
	rt := &runtime{cfg: cfg, log: log}

	if cfg.RedisURL != "" {
		client, err := utils.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, using in-process in-flight markers", zap.Error(err))
		} else {
			rt.redis = client
			rt.tracker = inflight.NewRedis(client, cfg.InflightTTL)
		}
	}

	if cfg.PubNubEnabled() {
		n, err := services.NewPubNubNotifier(services.PubNubConfig{
			PublishKey:   cfg.PubNubPublishKey,
			SubscribeKey: cfg.PubNubSubscribeKey,
			SecretKey:    cfg.PubNubSecretKey,
			UserID:       cfg.PubNubUserID,
			Channel:      cfg.ActivityChannel,
		}, log)
		if err != nil {
			log.Warn("activity notifications disabled", zap.Error(err))
		} else {
			rt.notifier = n
		}
	}

	client, err := adminapi.New(adminapi.Config{
		BaseURL:      cfg.AdminAPIURL,
		Token:        cfg.AdminAPIToken,
		Timeout:      cfg.RequestTimeout,
		FailureRatio: cfg.BreakerFailureRatio,
	}, adminapi.WithLogger(log))
	if err != nil {
		// Every view reports the configuration error instead.
		log.Error("admin API not configured", zap.Error(err))
	} else {
		rt.api = client
	}

	rt.catalog = catalog.New(nil)
	if cfg.EventsFile != "" {
		cat, err := catalog.Load(cfg.EventsFile)
		if err != nil {
			log.Error("failed to load event catalog", zap.String("path", cfg.EventsFile), zap.Error(err))
		} else {
			rt.catalog = cat
		}
	}
	return rt
}

func (rt *runtime) dashboard(who actor.Provider) *services.Dashboard {
	return services.NewDashboard(services.Deps{
		API:      rt.api,
		Tracker:  rt.tracker,
		Actor:    who,
		Notifier: rt.notifier,
		Log:      rt.log,
	}, rt.catalog)
}

func (rt *runtime) close() {
	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil {
			rt.log.Warn("failed to close redis", zap.Error(err))
		}
	}
	_ = rt.log.Sync()
}
