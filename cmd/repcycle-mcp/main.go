package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/repcycle/internal/catalog"
	"github.com/claude/repcycle/internal/coach"
	"github.com/claude/repcycle/internal/config"
	"github.com/claude/repcycle/internal/mcp"
	"github.com/claude/repcycle/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (local mode)")
	serverURL := flag.String("server", "", "RepCycle server URL for remote mode (e.g. https://repcycle.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("REPCYCLE_AUTH_API_KEY"), "API key sent on mutating calls in remote mode")
	userID := flag.Int("user", 1, "user ID for local mode")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("repcycle-mcp", Version)
		return
	}

	// stdout carries the MCP protocol, so logs go to stderr
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if (*configPath == "") == (*serverURL == "") {
		fmt.Fprintf(os.Stderr, "Usage: repcycle-mcp (-config <config.yaml> [-user N] | -server <URL> [-api-key KEY])\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var c mcp.Coach
	if *serverURL != "" {
		c = mcp.NewHTTPClient(*serverURL, *apiKey)
		log.Info("remote mode", "server", *serverURL)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		cat, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			log.Error("failed to load catalog", "error", err)
			os.Exit(1)
		}
		store, closeStore, err := storage.Open(context.Background(), cfg.Database, "migrations", log)
		if err != nil {
			log.Error("failed to open storage", "error", err)
			os.Exit(1)
		}
		defer closeStore()
		c = coach.New(store, cat, cfg.Engine.Tuning(), nil, log)
		log.Info("local mode", "driver", cfg.Database.Driver, "user_id", *userID)
	}

	s := mcp.New(c, Version, log)
	uid := *userID
	err := mcpserver.ServeStdio(s, mcpserver.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return mcp.WithUserID(ctx, uid)
	}))
	if err != nil {
		log.Error("stdio server stopped", "error", err)
		os.Exit(1)
	}
}
