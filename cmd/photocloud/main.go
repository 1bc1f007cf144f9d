package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/zornyy/photoCloud/internal/blobstore"
	"github.com/zornyy/photoCloud/internal/config"
	"github.com/zornyy/photoCloud/internal/db"
	"github.com/zornyy/photoCloud/internal/handler"
	"github.com/zornyy/photoCloud/internal/job"
	"github.com/zornyy/photoCloud/internal/middleware"
	"github.com/zornyy/photoCloud/internal/repo"
	"github.com/zornyy/photoCloud/internal/schedule"
	"github.com/zornyy/photoCloud/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "photocloud",
		Short: "photocloud backend server",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run photocloud server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := setup(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg, conn)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, conn, err := setup(configPath)
			if err != nil {
				return err
			}
			defer conn.Close()
			logutil.GetLogger(context.Background()).Info("migrations applied")
			return nil
		},
	}

	adminCmd := newCreateAdminCmd(&configPath)

	rootCmd.AddCommand(runCmd, migrateCmd, adminCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func setup(configPath string) (*config.Config, *sql.DB, error) {
	if configPath == "" {
		return nil, nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return cfg, conn, nil
}

func newCreateAdminCmd(configPath *string) *cobra.Command {
	var username, email, plainPassword, fullName string
	var quotaMB int64

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "seed an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer conn.Close()
			if quotaMB == 0 {
				quotaMB = cfg.QuotaMB * 10
			}
			authService := service.NewAuthService(repo.NewUserRepo(conn), []byte(cfg.JWTSecret), time.Hour, cfg.QuotaMB)
			user, err := authService.RegisterWithQuota(cmd.Context(), username, email, plainPassword, fullName, quotaMB)
			if err != nil {
				return err
			}
			logutil.GetLogger(context.Background()).Info("admin created",
				zap.String("user_id", user.ID),
				zap.String("username", user.Username),
				zap.Int64("quota_mb", user.StorageQuotaMB),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "admin", "admin username")
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&plainPassword, "password", "", "admin password")
	cmd.Flags().StringVar(&fullName, "full-name", "Administrator", "admin display name")
	cmd.Flags().Int64Var(&quotaMB, "quota-mb", 0, "storage quota in MB (default 10x the account default)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("uploads", cfg.Uploads.Type),
	)

	userRepo := repo.NewUserRepo(conn)
	photoRepo := repo.NewPhotoRepo(conn)

	store, err := blobstore.New(cfg.Uploads)
	if err != nil {
		return fmt.Errorf("init upload store: %w", err)
	}

	jwtSecret := []byte(cfg.JWTSecret)
	jwtTTL := time.Hour * time.Duration(cfg.JWTTTLHours)
	authService := service.NewAuthService(userRepo, jwtSecret, jwtTTL, cfg.QuotaMB)
	userService := service.NewUserService(userRepo)
	photoService := service.NewPhotoService(photoRepo, userRepo, store)

	deps := handler.RouterDeps{
		Auth:          handler.NewAuthHandler(authService),
		Users:         handler.NewUserHandler(userService),
		Photos:        handler.NewPhotoHandler(photoService),
		Guard:         middleware.NewGuard(userRepo, jwtSecret),
		AuthRateLimit: time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewOrphanSweepJob(userRepo, photoRepo, store), cfg.SweepSpec); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
