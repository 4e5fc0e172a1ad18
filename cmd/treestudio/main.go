// Package main is the entry point for lsystree studio, the interactive
// tree editor.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/lsystree/internal/app"
	"github.com/Faultbox/lsystree/internal/config"
	"github.com/Faultbox/lsystree/internal/logger"
	"github.com/Faultbox/lsystree/internal/studio"
)

func main() {
	runtime.LockOSThread()

	flags := config.RegisterFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := app.Open(ctx, cfg)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	defer env.Close()

	s, err := studio.New(cfg, env.Session)
	if err != nil {
		logger.Error("failed to create studio", zap.Error(err))
		env.Close()
		logger.Sync()
		os.Exit(1)
	}
	defer s.Close()

	s.Run(ctx)
	logger.Info("studio closed normally")
}
