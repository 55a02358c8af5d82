package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/warelay/warelay/config"
	"github.com/warelay/warelay/internal/adminapi"
	"github.com/warelay/warelay/internal/app"
	"github.com/warelay/warelay/internal/cloudapi"
	"github.com/warelay/warelay/internal/restore"
	"github.com/warelay/warelay/internal/sendapi"
	"github.com/warelay/warelay/internal/webhook"
	"github.com/warelay/warelay/internal/webserver"
	"go.uber.org/zap"
)

var (
	h        bool
	initDb   bool
	confFile string
)

func init() {
	flag.BoolVar(&h, "h", false, "help usage")
	flag.StringVar(&confFile, "c", "warelay.yml", "config file")
	flag.BoolVar(&initDb, "initdb", false, "drop and recreate all tables, then exit")
}

func main() {
	flag.Parse()
	if h {
		flag.Usage()
		os.Exit(0)
	}

	_ = godotenv.Load()

	if _, err := os.Stat(confFile); os.IsNotExist(err) {
		confFile = ""
	}
	cfg, err := config.Load(confFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	application := app.NewApplication(cfg)
	if err := application.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer application.Release()

	if initDb {
		application.InitDb()
		zap.S().Info("database initialized")
		return
	}

	server := webserver.Init(application)

	cloudapi.Init(cfg)
	webhook.InitRouter()
	sendapi.InitRouter(cloudapi.Get())
	restore.InitRouter(restore.NewClient(cfg))
	adminapi.InitRouter()

	go func() {
		zap.S().Infof("listening on %s", cfg.System.Listen)
		if err := server.Listen(); err != nil {
			zap.S().Errorf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zap.S().Errorf("shutdown error: %v", err)
	}
	zap.S().Info("server stopped")
}
