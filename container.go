package main

import (
	"context"
	"fmt"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/samber/do"

	"wildAppAPI/internal/cache"
	"wildAppAPI/internal/config"
	"wildAppAPI/internal/lock"
	"wildAppAPI/internal/notification"
	"wildAppAPI/internal/places"
	"wildAppAPI/internal/storage"
	"wildAppAPI/internal/store"
	"wildAppAPI/internal/store/memstore"
	"wildAppAPI/internal/store/pgstore"
	"wildAppAPI/services"
)

// dbPool wraps the optional pool so a missing DATABASE_URL in development
// still resolves.
type dbPool struct {
	pool *pgxpool.Pool
}

func (p *dbPool) Shutdown() error {
	if p.pool != nil {
		log.Info().Msg("closing database connection pool")
		p.pool.Close()
	}
	return nil
}

type redisConn struct {
	client *redis.Client
}

func (c *redisConn) Shutdown() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

type dispatcher struct {
	*services.NotificationDispatcher
}

func (d *dispatcher) Shutdown() error {
	d.Stop()
	return nil
}

func newContainer(cfg *config.Config) *do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)

	do.Provide(injector, func(i *do.Injector) (*time.Location, error) {
		return time.LoadLocation(cfg.TimeZone)
	})

	do.Provide(injector, func(i *do.Injector) (*services.Calendar, error) {
		return services.NewCalendar(do.MustInvoke[*time.Location](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*dbPool, error) {
		if cfg.DatabaseURL == "" {
			return &dbPool{}, nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse database URL: %w", err)
		}
		poolConfig.MaxConns = 25
		poolConfig.MinConns = 5
		poolConfig.MaxConnLifetime = time.Hour
		poolConfig.MaxConnIdleTime = 30 * time.Minute
		poolConfig.HealthCheckPeriod = time.Minute

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		log.Info().Msg("connected to database")
		return &dbPool{pool: pool}, nil
	})

	do.Provide(injector, func(i *do.Injector) (store.Store, error) {
		db := do.MustInvoke[*dbPool](i)
		if db.pool == nil {
			log.Warn().Msg("DATABASE_URL not set, using in-memory store")
			return memstore.New(), nil
		}
		return pgstore.New(db.pool), nil
	})

	do.Provide(injector, func(i *do.Injector) (*redisConn, error) {
		if cfg.RedisURL == "" {
			return &redisConn{}, nil
		}
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		client := redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		log.Info().Msg("connected to redis")
		return &redisConn{client: client}, nil
	})

	do.Provide(injector, func(i *do.Injector) (lock.Locker, error) {
		if rc := do.MustInvoke[*redisConn](i); rc.client != nil {
			return lock.NewRedisLocker(rc.client), nil
		}
		return lock.NewLocalLocker(), nil
	})

	do.Provide(injector, func(i *do.Injector) (cache.Cache, error) {
		if rc := do.MustInvoke[*redisConn](i); rc.client != nil {
			return cache.New(rc.client), nil
		}
		return cache.New(nil), nil
	})

	do.Provide(injector, func(i *do.Injector) (storage.ObjectStorage, error) {
		if cfg.S3Bucket == "" {
			log.Warn().Msg("S3_BUCKET not set, uploads are kept in memory")
			return storage.NewMemoryStorage(), nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return storage.NewS3Storage(ctx, storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
	})

	do.Provide(injector, func(i *do.Injector) (*dispatcher, error) {
		var provider services.PushNotificationProvider = services.LogPushProvider{}
		if cfg.FCMServiceAccountJSON != "" {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			fcm, err := notification.NewFCMService(ctx, cfg.FCMServiceAccountJSON)
			if err != nil {
				log.Warn().Err(err).Msg("could not initialize FCM, push notifications are logged only")
			} else {
				provider = fcm
				log.Info().Msg("FCM push provider initialized")
			}
		}
		st := do.MustInvoke[store.Store](i)
		return &dispatcher{services.NewNotificationDispatcher(st, provider)}, nil
	})

	do.Provide(injector, func(i *do.Injector) (*places.Client, error) {
		return places.NewClient(cfg.OverpassURL), nil
	})

	provideServices(injector, cfg)
	return injector
}

func provideServices(injector *do.Injector, cfg *config.Config) {
	do.Provide(injector, func(i *do.Injector) (*services.UserService, error) {
		return services.NewUserService(do.MustInvoke[store.Store](i), do.MustInvoke[storage.ObjectStorage](i)), nil
	})
	do.Provide(injector, func(i *do.Injector) (*services.PostService, error) {
		return services.NewPostService(do.MustInvoke[store.Store](i), do.MustInvoke[storage.ObjectStorage](i), do.MustInvoke[*services.Calendar](i)), nil
	})
	do.Provide(injector, func(i *do.Injector) (*services.AchievementService, error) {
		return services.NewAchievementService(do.MustInvoke[store.Store](i)), nil
	})
	do.Provide(injector, func(i *do.Injector) (*services.EngagementService, error) {
		return services.NewEngagementService(do.MustInvoke[store.Store](i), do.MustInvoke[*dispatcher](i), do.MustInvoke[*services.Calendar](i)), nil
	})
	do.Provide(injector, func(i *do.Injector) (*services.SocialService, error) {
		return services.NewSocialService(do.MustInvoke[store.Store](i), do.MustInvoke[lock.Locker](i), do.MustInvoke[*dispatcher](i), do.MustInvoke[*services.Calendar](i)), nil
	})
	do.Provide(injector, func(i *do.Injector) (*services.ModerationService, error) {
		return services.NewModerationService(do.MustInvoke[store.Store](i), do.MustInvoke[storage.ObjectStorage](i), do.MustInvoke[*dispatcher](i), do.MustInvoke[*services.Calendar](i), cfg.ModeratorIDs), nil
	})
	do.Provide(injector, func(i *do.Injector) (*services.ChallengeService, error) {
		return services.NewChallengeService(do.MustInvoke[store.Store](i), do.MustInvoke[*places.Client](i), do.MustInvoke[*services.Calendar](i)), nil
	})
	do.Provide(injector, func(i *do.Injector) (*services.InviteService, error) {
		return services.NewInviteService(do.MustInvoke[store.Store](i), do.MustInvoke[*dispatcher](i), do.MustInvoke[*services.Calendar](i), cfg.ShareLinkBase), nil
	})
	do.Provide(injector, func(i *do.Injector) (*services.LeaderboardService, error) {
		return services.NewLeaderboardService(do.MustInvoke[store.Store](i), do.MustInvoke[cache.Cache](i)), nil
	})
}

func initClerk(cfg *config.Config) {
	clerk.SetKey(cfg.ClerkSecretKey)
	log.Info().Msg("clerk initialized")
}
