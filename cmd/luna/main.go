package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lunalabs/luna/internal/auth"
	"github.com/lunalabs/luna/internal/dreams"
	"github.com/lunalabs/luna/internal/server"
	"github.com/lunalabs/luna/internal/session"
	"github.com/lunalabs/luna/internal/users"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	if err := run(logger); err != nil {
		logger.Fatal("luna exited with error", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	// ── Configuration ────────────────────────────────────────────────────────
	viper.SetConfigName("luna")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	viper.SetDefault("server.rate_limit_rps", 20)
	viper.SetDefault("server.max_body_bytes", 1<<20)
	viper.SetDefault("database.url", "")
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("seed_demo_users", true)

	if err := viper.ReadInConfig(); err != nil {
		var cfgNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgNotFound) {
			return fmt.Errorf("read config: %w", err)
		}
		logger.Warn("no config file found, using defaults and env vars")
	}

	// ── Storage ──────────────────────────────────────────────────────────────
	// With no database configured Luna runs fully in memory, which is the
	// simulated mode the frontend develops against.
	var (
		userSvc    *users.Service
		dreamStore dreams.Store
	)
	databaseURL := viper.GetString("database.url")
	if databaseURL != "" {
		db, err := pgxpool.New(context.Background(), databaseURL)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer db.Close()
		if err := db.Ping(context.Background()); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		logger.Info("connected to postgres")

		userSvc = users.NewService(users.NewRepository(db), logger)
		dreamStore = dreams.NewRepository(db)
	} else {
		dir := users.NewDirectory()
		if viper.GetBool("seed_demo_users") {
			if err := seedDemoAccounts(dir); err != nil {
				return fmt.Errorf("seed demo users: %w", err)
			}
			logger.Info("seeded demo accounts")
		}
		userSvc = users.NewService(dir, logger)
		dreamStore = dreams.NewMemoryStore()
	}

	// ── Sessions ─────────────────────────────────────────────────────────────
	var sessions session.Registry
	redisAddr := viper.GetString("redis.addr")
	if redisAddr != "" {
		redisReg, err := session.NewRedisRegistry(redisAddr, viper.GetString("redis.password"), viper.GetInt("redis.db"))
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisReg.Close() //nolint:errcheck
		sessions = redisReg
		logger.Info("session registry: redis", zap.String("addr", redisAddr))
	} else {
		memReg := session.NewMemoryRegistry()
		sessions = memReg
		logger.Info("session registry: in-memory")

		// Expired in-memory sessions need an explicit sweep; Redis uses TTLs.
		quit := make(chan struct{})
		defer close(quit)
		go func() {
			ticker := time.NewTicker(10 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if purged := memReg.PurgeExpired(time.Now()); purged > 0 {
						server.RecordSessionEvent("expired")
						logger.Info("purged expired sessions", zap.Int("count", purged))
					}
				case <-quit:
					return
				}
			}
		}()
	}

	// ── HTTP Router ───────────────────────────────────────────────────────────
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	authHandler := server.NewAuthHandler(userSvc, sessions, dreamStore, logger)
	dreamsHandler := server.NewDreamsHandler(dreamStore, dreams.CannedInterpreter{}, userSvc, logger)

	router := server.NewRouter(server.Config{
		CORSOrigins:  viper.GetStringSlice("server.cors_origins"),
		RateLimitRPS: viper.GetInt("server.rate_limit_rps"),
		MaxBodyBytes: viper.GetInt64("server.max_body_bytes"),
	}, authHandler, dreamsHandler, sessions, logger)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", viper.GetInt("server.port")),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("luna API listening", zap.Int("port", viper.GetInt("server.port")))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP listen error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ──────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down luna...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	logger.Info("luna stopped")
	return nil
}

// seedDemoAccounts fills a fresh in-memory directory with the two accounts
// the frontend's demo flows assume exist. Their passwords are fixed and
// documented; never enable seeding against a real user store.
func seedDemoAccounts(dir *users.Directory) error {
	if err := auth.SeedDemoUsers(dir); err != nil {
		return err
	}
	passwords := map[string]string{
		"demo@luna.com":    "demo1234",
		"test@example.com": "test1234",
	}
	ctx := context.Background()
	for email, password := range passwords {
		u, err := dir.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.PasswordHash = string(hash)
		if err := dir.Update(ctx, u); err != nil {
			return err
		}
	}
	return nil
}
