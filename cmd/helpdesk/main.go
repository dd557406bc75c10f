package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"helpdesk/internal/app"
	"helpdesk/pkg/config"
	"helpdesk/pkg/logger"
)

// build metadata - set via ldflags during build/release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")

	addrFlag := flag.String("addr", "", "listen address (host:port), overrides config and env")
	dbFlag := flag.String("db", "./data/helpdesk", "pebble database path")
	cfgFlag := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	setFlags := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	cfgPath := *cfgFlag
	if cfgPath == "" {
		cfgPath = os.Getenv("HELPDESK_CONFIG")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	config.ApplyEnv(cfg)

	logger.Init(cfg.Logging.Level)

	// explicit flags win over env and config file
	addr := cfg.Addr()
	if setFlags["addr"] {
		addr = *addrFlag
	}
	dbPath := cfg.Storage.DBPath
	if dbPath == "" || setFlags["db"] {
		dbPath = *dbFlag
	}

	a, err := app.New(cfg, addr, dbPath, version, commit, buildDate)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
