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

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-library-service/internal/core/cache"
	"go-library-service/internal/core/config"
	"go-library-service/internal/core/database"
	"go-library-service/internal/core/logger"
	"go-library-service/internal/core/server"
	bookmodel "go-library-service/internal/feature/book"
	loanmodel "go-library-service/internal/feature/loan"
	usermodel "go-library-service/internal/feature/user"
	"go-library-service/internal/repo"
	"go-library-service/internal/service"
	"go-library-service/internal/transport/http/handler"
	"go-library-service/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	// 数据库（失败直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(
			&usermodel.UserModel{},
			&bookmodel.BookModel{},
			&loanmodel.LoanModel{},
		); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	// 缓存（可选；未配置 addr 则直连 DB）
	var c *cache.Cache
	if cfg.Redis.Addr != "" {
		c = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := c.Ping(pingCtx); err != nil {
			log.Warn("redis unreachable, cache disabled", zap.Error(err))
			c = nil
		}
		pingCancel()
	}

	// 依赖按层显式构造：repo → service → handler
	ledger := repo.NewLoanLedger(db)
	userRepo := repo.NewUserRepo(db, ledger)
	bookRepo := repo.NewBookRepo(db, ledger)
	userSvc := service.NewUserService(userRepo, ledger, c)
	bookSvc := service.NewBookService(bookRepo, c, time.Duration(cfg.Cache.BookDetailTTLSec)*time.Second)

	router.Register(handler.NewUserHandler(userSvc))
	router.Register(handler.NewBookHandler(bookSvc))
	r := router.NewAPIEngine(log)

	// HTTP Server
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("library api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
	)

	// 异步启动
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("library api start FAILED", zap.Error(err))
		}
	}()
	log.Info("library api started SUCCESS")

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("library api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
