package internal

import (
	"context"
	"fmt"
	"time"

	"storagify/file-api/aws"
	"storagify/file-api/cloudflare"
	"storagify/file-api/config"
	"storagify/file-api/db"
	"storagify/file-api/internal/media"
	"storagify/file-api/internal/service"
	"storagify/file-api/pkg/security"

	"github.com/chenyahui/gin-cache/persist"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps holds everything handlers need. It's built once at startup.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Media    media.Store
	Cache    persist.CacheStore
	Notifier *service.Notifier
	Auth     *service.AuthService
	Uploads  *service.UploadService

	// Set when files are stored on the local filesystem and served by us
	Local *media.LocalStore

	redis *redis.Client
	stop  chan struct{}
}

// NewDeps connects to the database, media store and cache configured in cfg
func NewDeps(ctx context.Context, cfg *config.Config) (*Deps, error) {
	conn, err := db.New(cfg.Database)
	if err != nil {
		return nil, err
	}

	store, err := NewMediaStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media store, %w", err)
	}

	d := Build(cfg, conn, store, service.NewMailer(cfg.Mail))

	if cfg.Cache.Type == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis, %w", err)
		}

		d.redis = client
		d.Cache = persist.NewRedisStore(client)
	}

	return d, nil
}

// Build wires the services on top of already created clients
func Build(cfg *config.Config, conn *gorm.DB, store media.Store, mailer service.Mailer) *Deps {
	notifier := service.NewNotifier(mailer, cfg.Mail.Timeout, cfg.App.Name, cfg.Upload.MaxSize)
	tokens := security.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Expiry)

	d := &Deps{
		Config:   cfg,
		DB:       conn,
		Media:    store,
		Cache:    persist.NewMemoryStore(time.Minute),
		Notifier: notifier,
		Auth:     service.NewAuthService(conn, security.NewHasher(), tokens, notifier),
		Uploads:  service.NewUploadService(conn, store, notifier, cfg.Upload.MaxBytes, cfg.Storage.Timeout),
		stop:     make(chan struct{}),
	}

	if local, ok := store.(*media.LocalStore); ok {
		d.Local = local
	}

	return d
}

func NewMediaStore(ctx context.Context, cfg *config.Config) (media.Store, error) {
	switch cfg.Storage.Type {
	case "s3":
		c, err := aws.NewS3(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}

		return media.NewS3Store(c.C, c.Bucket, c.Region, cfg.AWS.PublicURL), nil
	case "r2":
		c, err := cloudflare.NewR2(ctx, cfg.Cloudflare)
		if err != nil {
			return nil, err
		}

		return media.NewS3Store(c.C, c.Bucket, "auto", cfg.Cloudflare.PublicURL), nil
	case "local":
		return media.NewLocalStore(cfg.Storage.Local.Root, cfg.Storage.Local.PublicURL)
	}

	return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
}

// Stop is closed when the dependencies are shut down
func (d *Deps) Stop() <-chan struct{} {
	return d.stop
}

// Close waits for pending notifications and releases all connections
func (d *Deps) Close() {
	close(d.stop)
	d.Notifier.Wait()

	if err := d.Auth.Close(); err != nil {
		zap.L().Warn("Failed to close user cache", zap.Error(err))
	}

	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			zap.L().Warn("Failed to close redis client", zap.Error(err))
		}
	}

	if sqlDB, err := d.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			zap.L().Warn("Failed to close database", zap.Error(err))
		}
	}
}
