// Command liftlog-mcp serves LiftLog statistics to MCP clients over stdio.
//
// With -url it reads from a running LiftLog server; otherwise it opens the
// database named in -config directly and acts as the -user login.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/stats"
	"github.com/claude/liftlog/internal/storage"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	baseURL := flag.String("url", "", "LiftLog server URL (reads over HTTP instead of the database)")
	configPath := flag.String("config", "config.yaml", "path to config file")
	login := flag.String("user", "local", "login to act as when reading the database")
	flag.Parse()

	// stdout carries the protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx := context.Background()
	var (
		ds     mcp.DataSource
		userID = 1
	)
	if *baseURL != "" {
		ds = mcp.NewHTTPClient(*baseURL)
		log.Info("reading from server", "url", *baseURL)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		db, err := storage.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		userID, err = db.GetOrCreateUser(ctx, *login, *login)
		if err != nil {
			log.Error("failed to resolve user", "login", *login, "error", err)
			os.Exit(1)
		}
		cache := stats.NewCache(cfg.Cache.SizeMB, cfg.Cache.TTL(), nil, log)
		ds = stats.NewService(db, cache, log)
		log.Info("reading from database", "user", *login, "user_id", userID)
	}

	s := mcp.New(ds, Version, log)
	err := server.ServeStdio(s, server.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return mcp.WithUserID(ctx, userID)
	}))
	if err != nil {
		log.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
