// hermes-gateway is the long-running messaging gateway. It records its PID
// so "local" hermes sessions know they can send, keeps the channel directory
// fresh, and serves the send/list API on loopback.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xbyt4/hermes-agent/pkg/api"
	"github.com/0xbyt4/hermes-agent/pkg/bus"
	"github.com/0xbyt4/hermes-agent/pkg/channels"
	"github.com/0xbyt4/hermes-agent/pkg/channels/directory"
	"github.com/0xbyt4/hermes-agent/pkg/config"
	"github.com/0xbyt4/hermes-agent/pkg/gateway"
	"github.com/0xbyt4/hermes-agent/pkg/logger"
	"github.com/0xbyt4/hermes-agent/pkg/tools"
)

func main() {
	home := flag.String("home", "", "hermes home directory (default $HERMES_HOME or ~/.hermes)")
	logLevel := flag.String("log-level", "", "debug, info, warn or error")
	flag.Parse()

	if *logLevel != "" {
		logger.SetLevel(*logLevel)
	}

	if *home != "" {
		os.Setenv("HERMES_HOME", *home)
	}

	if err := run(); err != nil {
		logger.ErrorCF("gateway", "Gateway exited with error", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := config.NewFileLoader("")
	cfg, err := loader.LoadGatewayConfig()
	if err != nil {
		return err
	}

	pidFile := gateway.NewPIDFile(gateway.DefaultPIDPath())
	if pidFile.IsGatewayRunning() {
		pid, _ := pidFile.ReadPID()
		return fmt.Errorf("gateway already running (pid %d)", pid)
	}
	if err := pidFile.Write(); err != nil {
		return err
	}
	defer pidFile.Remove()

	store, err := directory.Open(cfg.DirectoryPath())
	if err != nil {
		return err
	}
	defer store.Close()

	msgBus := bus.NewMessageBus()
	defer msgBus.Close()

	manager := channels.NewManager()
	refresher := directory.NewRefresher(store, loader, manager.Listers())
	refresh := func(ctx context.Context) error {
		err := refresher.Refresh(ctx)
		data := map[string]interface{}{}
		if n, cerr := store.Count(ctx); cerr == nil {
			data["entries"] = n
		}
		if err != nil {
			data["error"] = err.Error()
		}
		msgBus.PublishSystem(bus.SystemEvent{
			Type:   bus.EventDirectoryRefreshed,
			Source: "directory",
			Data:   data,
		})
		return err
	}

	if err := refresh(ctx); err != nil {
		logger.WarnCF("gateway", "Initial directory refresh incomplete", map[string]interface{}{
			"error": err.Error(),
		})
	}

	scheduler, err := gateway.NewRefreshScheduler(cfg.Directory.RefreshSchedule, refresh)
	if err != nil {
		return err
	}
	go scheduler.Run(ctx)

	gate := tools.NewAvailabilityGate(nil, pidFile)
	tool := tools.NewSendMessageTool(gate, loader, store, manager, store, msgBus)

	server := api.NewServer(cfg.Gateway, api.Deps{
		Dispatcher: tool,
		Loader:     loader,
		Directory:  store,
		Refresh:    refresh,
		PIDFile:    pidFile,
		Bus:        msgBus,
	})
	if err := server.Start(ctx); err != nil {
		return err
	}

	msgBus.PublishSystem(bus.SystemEvent{
		Type:   bus.EventGatewayStarted,
		Source: "gateway",
		Data: map[string]interface{}{
			"pid":       os.Getpid(),
			"platforms": cfg.EnabledPlatforms(),
		},
	})
	logger.InfoCF("gateway", "Gateway running", map[string]interface{}{
		"pid":       os.Getpid(),
		"pid_file":  pidFile.Path(),
		"platforms": len(cfg.EnabledPlatforms()),
	})

	<-ctx.Done()

	logger.InfoC("gateway", "Shutting down")
	msgBus.PublishSystem(bus.SystemEvent{Type: bus.EventGatewayStopping, Source: "gateway"})
	return server.Stop()
}
