package app

import (
	"net/http"
	"time"

	"storagify/file-api/app/file"
	"storagify/file-api/app/root"
	"storagify/file-api/app/user"
	"storagify/file-api/internal"
	"storagify/file-api/internal/model"
	"storagify/file-api/pkg/middleware"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"

	// Room for multipart boundaries and the other form fields
	multipartOverhead = 1 << 20
)

func NewRouter(d *internal.Deps) *gin.Engine {
	cfg := d.Config
	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     cfg.Host.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "HEAD", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.TurnstileHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		ginzap.RecoveryWithZap(zap.L(), true),
		middleware.NewRequestIDMiddleware(),
		middleware.MetricsMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 8 << 20

	auth := middleware.NewAuthMiddleware(d.Auth)
	turnstile := middleware.NewTurnstileMiddleware(middleware.TurnstileConfig{
		Enabled: cfg.Security.Turnstile.Enabled,
		Secret:  cfg.Security.Turnstile.Secret,
	})
	rateLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.Security.RateLimit,
		Burst:             cfg.Security.RateLimit * 2,
	}, d.Stop())

	// GET /		-> Welcome message and endpoint groups
	router.GET("/", cacheFor(d.Cache, time.Minute), root.Index(cfg.App.Name))

	// GET /metrics		-> Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if d.Local != nil {
		// GET /media/*path	-> Serves files of the local media store
		router.StaticFS("/media", d.Local.FileSystem())
	}

	m := router.Group("/api", rateLimiter)
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", root.Heartbeat)
	}

	a := m.Group("/auth", middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/auth/register	-> Registers a new user and returns a token
		a.POST("/register", turnstile, func(c *gin.Context) { user.UserRegister(c, d) })

		// POST /api/auth/login		-> Logs in a user and returns a token
		a.POST("/login", func(c *gin.Context) { user.UserLogin(c, d) })

		// GET /api/auth/profile	-> Returns the logged in user
		a.GET("/profile", auth, func(c *gin.Context) { user.UserProfile(c, d) })
	}

	bodyLimit := middleware.BodySizeLimiter(cfg.Upload.MaxBytes + multipartOverhead)

	u := m.Group("/upload", auth)
	{
		// POST /api/upload/file	-> Uploads a file of any type
		u.POST("/file", bodyLimit, func(c *gin.Context) { file.FileUpload(c, d, model.KindGeneric) })

		// POST /api/upload/image	-> Uploads an image
		u.POST("/image", bodyLimit, func(c *gin.Context) { file.FileUpload(c, d, model.KindImage) })

		// POST /api/upload/video	-> Uploads a video
		u.POST("/video", bodyLimit, func(c *gin.Context) { file.FileUpload(c, d, model.KindVideo) })

		// GET /api/upload/files	-> Returns all files of the user
		u.GET("/files", func(c *gin.Context) { file.FileList(c, d) })

		// GET /api/upload/file/:id	-> Returns a file owned by the user
		u.GET("/file/:id", func(c *gin.Context) { file.FileFetch(c, d) })

		// DELETE /api/upload/file/:id	-> Deletes a file owned by the user
		u.DELETE("/file/:id", func(c *gin.Context) { file.FileDelete(c, d) })
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success":   false,
			"message":   "Route not found",
			"error":     "NotFoundError",
			"requestID": c.GetString("requestID"),
		})
	})

	return router
}

// MakeLogger replaces the global zap logger with a colored development
// logger at the given level
func MakeLogger(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, err := cfg.Build()
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(log)
	return nil
}

// cacheFor caches whole responses by request URI. The request ID header of
// the response that got cached is not replayed, the current one is kept.
func cacheFor(store persist.CacheStore, d time.Duration) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, d,
		cache.WithBeforeReplyWithCache(func(_ *gin.Context, rc *cache.ResponseCache) {
			rc.Header.Del(middleware.RequestIDHeader)
		}),
	)
}
