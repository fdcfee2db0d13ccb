package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/rs/zerolog/log"
	"github.com/samber/do"
	"github.com/urfave/cli/v2"

	"wildAppAPI/handlers"
	"wildAppAPI/internal/config"
	"wildAppAPI/internal/logger"
	"wildAppAPI/internal/store"
	"wildAppAPI/internal/store/pgstore"
	"wildAppAPI/internal/workers"
	"wildAppAPI/middleware"
	"wildAppAPI/services"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.IsDev(), cfg.LogLevel, cfg.SentryDSN)
	defer logger.Flush()

	container := newContainer(cfg)

	app := &cli.App{
		Name:  "wildapp",
		Usage: "WildApp challenge API",
		Commands: []*cli.Command{
			commandServe(container),
			commandMigrate(container),
			commandCron(container),
			commandSweepStreaks(container),
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("command failed")
		logger.Flush()
		os.Exit(1)
	}
}

func commandServe(container *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Action: func(c *cli.Context) error {
			cfg := do.MustInvoke[*config.Config](container)
			if err := cfg.ValidateServe(); err != nil {
				return err
			}
			initClerk(cfg)

			middleware.InitPrometheus()
			services.InitMetrics()

			st, err := do.Invoke[store.Store](container)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			limiter := middleware.NewRateLimiter(5, 30)
			if err := limiter.TrustProxies(cfg.TrustedProxies); err != nil {
				return err
			}
			go limiter.CleanupVisitors(ctx)

			postService := do.MustInvoke[*services.PostService](container)
			userService := do.MustInvoke[*services.UserService](container)
			r := newRouter(routerDeps{
				health:      handlers.NewHealthHandler(st),
				webhook:     handlers.NewWebhookHandler(userService, cfg.ClerkWebhookSecret),
				users:       handlers.NewUserHandler(userService, postService, do.MustInvoke[*services.AchievementService](container)),
				posts:       handlers.NewPostHandler(postService, do.MustInvoke[*services.EngagementService](container)),
				friends:     handlers.NewFriendHandler(do.MustInvoke[*services.SocialService](container)),
				challenges:  handlers.NewChallengeHandler(do.MustInvoke[*services.ChallengeService](container)),
				submissions: handlers.NewSubmissionHandler(do.MustInvoke[*services.ModerationService](container)),
				invites:     handlers.NewInviteHandler(do.MustInvoke[*services.InviteService](container)),
				leaderboard: handlers.NewLeaderboardHandler(do.MustInvoke[*services.LeaderboardService](container)),
				limiter:     limiter,
				verify:      middleware.ClerkVerifier,
				metricsUser: cfg.MetricsUser,
				metricsPass: cfg.MetricsPass,
			})

			corsHandler := gorillaHandlers.CORS(
				gorillaHandlers.AllowedOrigins([]string{"*"}),
				gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
				gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
				gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
				gorillaHandlers.AllowCredentials(),
			)

			server := http.Server{
				Addr:         ":" + cfg.Port,
				Handler:      corsHandler(r),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  120 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				log.Info().Str("addr", server.Addr).Msg("starting server")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case err := <-serveErr:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
			case <-ctx.Done():
				log.Info().Msg("shutdown signal received")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("server shutdown error")
			}

			// Drains queued push notifications and closes the pool and redis.
			if err := container.Shutdown(); err != nil {
				log.Error().Err(err).Msg("container shutdown error")
			}
			log.Info().Msg("server shutdown complete")
			return nil
		},
	}
}

func commandMigrate(container *do.Injector) *cli.Command {
	run := func(command string) cli.ActionFunc {
		return func(c *cli.Context) error {
			cfg := do.MustInvoke[*config.Config](container)
			if err := cfg.ValidateDatabase(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(c.Context, 5*time.Minute)
			defer cancel()
			return pgstore.Migrate(ctx, cfg.DatabaseURL, command, c.Args().Slice()...)
		}
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "apply or inspect database migrations",
		Subcommands: []*cli.Command{
			{Name: "up", Usage: "migrate to the latest version", Action: run("up")},
			{Name: "down", Usage: "roll back one version", Action: run("down")},
			{Name: "status", Usage: "print migration status", Action: run("status")},
		},
	}
}

func commandCron(container *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "cron",
		Usage: "run the scheduled jobs",
		Action: func(c *cli.Context) error {
			cfg := do.MustInvoke[*config.Config](container)
			if err := cfg.ValidateDatabase(); err != nil {
				return err
			}

			cal := do.MustInvoke[*services.Calendar](container)
			runner, err := workers.NewRunner(cal.Loc,
				workers.NewStreakSweepJob(do.MustInvoke[*services.PostService](container)),
				workers.NewDailyChallengeJob(do.MustInvoke[*services.ChallengeService](container), cal.Today),
			)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info().Msg("starting cron")
			runner.Start()
			<-ctx.Done()

			<-runner.Stop().Done()
			log.Info().Msg("cron stopped")
			return container.Shutdown()
		},
	}
}

func commandSweepStreaks(container *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "sweep-streaks",
		Usage: "reset lapsed streaks once and exit",
		Action: func(c *cli.Context) error {
			cfg := do.MustInvoke[*config.Config](container)
			if err := cfg.ValidateDatabase(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(c.Context, 2*time.Minute)
			defer cancel()

			n, err := do.MustInvoke[*services.PostService](container).SweepBrokenStreaks(ctx)
			if err != nil {
				return err
			}
			log.Info().Int64("reset", n).Msg("streak sweep finished")
			return container.Shutdown()
		},
	}
}
