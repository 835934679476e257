// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jason-s-yu/fourcard/internal/assets"
	"github.com/jason-s-yu/fourcard/internal/auth"
	"github.com/jason-s-yu/fourcard/internal/config"
	"github.com/jason-s-yu/fourcard/internal/feed"
	"github.com/jason-s-yu/fourcard/internal/handlers"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)

	if err := auth.Init(cfg.TokenExpiry); err != nil {
		logger.Fatalf("auth init: %v", err)
	}

	paths := assets.BuiltinThemes()
	extra, err := assets.ParseThemes(cfg.ThemePaths)
	if err != nil {
		logger.Fatalf("ASSET_THEMES: %v", err)
	}
	for name, base := range extra {
		paths[name] = base
	}
	themes, err := assets.NewThemes(paths, cfg.DefaultTheme)
	if err != nil {
		logger.Fatalf("themes: %v", err)
	}

	for _, th := range themes.List() {
		missing, err := assets.Missing(filepath.Join(cfg.AssetsDir, th.Name))
		if err != nil {
			logger.WithField("theme", th.Name).Warnf("asset check skipped: %v", err)
			continue
		}
		if len(missing) > 0 {
			logger.WithFields(logrus.Fields{"theme": th.Name, "missing": missing}).Warn("Theme is missing card images")
		}
	}

	var publisher feed.Publisher = feed.Nop{}
	if cfg.RedisAddr != "" {
		rp, err := feed.ConnectRedis(cfg.RedisAddr, cfg.RedisDB, cfg.FeedQueue)
		if err != nil {
			logger.Warnf("round feed disabled: %v", err)
		} else {
			defer rp.Close()
			publisher = rp
			logger.Infof("Publishing rounds to Redis list %s", rp.Queue)
		}
	}

	srv := handlers.NewTableServer(themes, publisher, logger, cfg.MaxTables)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go srv.Tables.RunSweeper(sweepCtx, time.Minute, cfg.TableIdleTimeout, logger)

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(cfg.AssetsDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Running on %s", cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server exited: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
	logger.Info("Server stopped")
}
