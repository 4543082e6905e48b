package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"github.com/streethall/hoa/internal/activity"
	"github.com/streethall/hoa/internal/config"
	"github.com/streethall/hoa/internal/db"
	"github.com/streethall/hoa/internal/http/api/admin"
	"github.com/streethall/hoa/internal/http/api/admin/handlers"
	"github.com/streethall/hoa/internal/http/api/front"
	"github.com/streethall/hoa/internal/http/middleware"
	"github.com/streethall/hoa/internal/logging"
	"github.com/streethall/hoa/internal/service"
	"github.com/streethall/hoa/internal/settings"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// CreateAdminParams holds inputs for the bootstrap admin account.
type CreateAdminParams struct {
	Username string
	Password string
	Email    string
}

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, closeDB, err := openDatabase(dsn)
	if err != nil {
		return err
	}
	defer closeDB()
	if errMigrate := db.Migrate(conn.WithContext(ctx)); errMigrate != nil {
		return errMigrate
	}
	log.Infof("migrated database for config=%s", configPath)
	return nil
}

// CreateAdmin creates the admin account, or promotes and reactivates an existing one.
func CreateAdmin(ctx context.Context, cfg config.AppConfig, params CreateAdminParams) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, closeDB, err := openDatabase(dsn)
	if err != nil {
		return err
	}
	defer closeDB()
	if errMigrate := db.Migrate(conn.WithContext(ctx)); errMigrate != nil {
		return errMigrate
	}
	users := service.NewUserService(conn, activity.NewRecorder(nil))
	user, created, errEnsure := users.EnsureAdmin(ctx, service.RegisterInput{
		Username: params.Username,
		Password: params.Password,
		Email:    params.Email,
	})
	if errEnsure != nil {
		return errEnsure
	}
	if created {
		log.Infof("created admin %s (id=%d)", user.Username, user.ID)
	} else {
		log.Infof("promoted existing user %s (id=%d) to admin", user.Username, user.ID)
	}
	return nil
}

// openDatabase opens dsn for a one-shot command. The returned func closes the pool.
func openDatabase(dsn string) (*gorm.DB, func(), error) {
	conn, err := db.Open(dsn, db.Options{})
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("database handle: %w", err)
	}
	return conn, func() {
		if errClose := sqlDB.Close(); errClose != nil {
			log.WithError(errClose).Warn("close database")
		}
	}, nil
}

// RunServer boots the HTTP API and blocks until ctx is cancelled or the listener fails.
func RunServer(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	appCfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logCloser, err := logging.Setup(appCfg.Logging)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := logCloser.Close(); errClose != nil {
			fmt.Printf("close log file: %v\n", errClose)
		}
	}()

	conn, err := db.Open(appCfg.Database.DSN, db.Options{
		MaxOpenConns:  appCfg.Database.MaxOpenConns,
		MaxIdleConns:  appCfg.Database.MaxIdleConns,
		SlowThreshold: time.Duration(appCfg.Database.SlowThresholdMS) * time.Millisecond,
	})
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn.WithContext(ctx)); errMigrate != nil {
		return errMigrate
	}
	if errRefresh := settings.Refresh(ctx, conn); errRefresh != nil {
		return errRefresh
	}

	deps := admin.Deps{DB: conn, JWT: appCfg.JWTConfig()}
	var publisher activity.Publisher
	if appCfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     appCfg.Redis.Addr,
			Password: appCfg.Redis.Password,
			DB:       appCfg.Redis.DB,
		})
		defer func() {
			if errClose := client.Close(); errClose != nil {
				log.WithError(errClose).Warn("close redis client")
			}
		}()
		if errPing := client.Ping(ctx).Err(); errPing != nil {
			log.WithError(errPing).Warnf("redis %s unreachable; activity is still recorded", appCfg.Redis.Addr)
		}
		redisPublisher := activity.NewRedisPublisher(client, appCfg.Redis.Channel)
		publisher = redisPublisher
		deps.Activity = redisPublisher
		deps.Redis = redisPinger{client: client}
	}
	deps.Services = service.New(conn, activity.NewRecorder(publisher))

	srv := &http.Server{
		Addr:         appCfg.Server.Addr,
		Handler:      newCORS(appCfg.Server.CORSOrigins).Handler(newEngine(deps)),
		ReadTimeout:  appCfg.Server.ReadTimeout(),
		WriteTimeout: appCfg.Server.WriteTimeout(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("listening on %s (config=%s)", srv.Addr, configPath)
		if errServe := srv.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", errServe)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newEngine builds the gin engine with both route groups.
func newEngine(deps admin.Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery())
	admin.RegisterAdminRoutes(engine, deps)
	front.RegisterFrontRoutes(engine, deps.Services, deps.JWT)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return engine
}

// newCORS allows the configured origins with credentials, or any origin without them when none are configured.
func newCORS(origins []string) *cors.Cors {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         600,
	}
	if len(origins) == 0 {
		opts.AllowOriginFunc = func(string) bool { return true }
	} else {
		opts.AllowedOrigins = origins
		opts.AllowCredentials = true
	}
	return cors.New(opts)
}

// redisPinger adapts the go-redis client to the health check.
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

var _ handlers.Pinger = redisPinger{}
