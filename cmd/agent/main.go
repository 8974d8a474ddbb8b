package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	ks "github.com/kardianos/service"

	"debugtrail/internal/config"
	"debugtrail/internal/logging"
	agentservice "debugtrail/internal/service"
)

type program struct {
	cfg    *config.Config
	logger *logging.Logger
	svc    *agentservice.Service
	done   chan struct{}
}

func (p *program) Start(s ks.Service) error {
	// Start should not block; Run returns after Stop.
	p.svc = agentservice.New(p.cfg, p.logger)
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		if err := p.svc.Run(); err != nil {
			p.logger.Error("service run failed", "err", err)
		}
	}()
	return nil
}

func (p *program) Stop(s ks.Service) error {
	if p.svc == nil {
		return nil
	}
	p.svc.Stop()
	<-p.done
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func main() {
	install := flag.Bool("install", false, "install service")
	uninstall := flag.Bool("uninstall", false, "uninstall service")
	runNow := flag.Bool("run", false, "run in foreground")
	cfgPath := flag.String("config", "", "path to config.toml (default: user config dir)")
	flag.Parse()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config load error:", err)
		os.Exit(1)
	}
	logger := logging.New(cfg)

	args := []string{}
	if *cfgPath != "" {
		args = append(args, "-config", *cfgPath)
	}
	svcConfig := &ks.Config{
		Name:        "DebugTrail",
		DisplayName: "DebugTrail",
		Description: "Records debugger lifecycle events into a replayable log",
		Arguments:   args,
	}

	prg := &program{cfg: cfg, logger: logger}
	s, err := ks.New(prg, svcConfig)
	if err != nil {
		logger.Error("service.New failed", "err", err)
		os.Exit(1)
	}

	if *install {
		if err := s.Install(); err != nil {
			logger.Error("install failed", "err", err)
		} else {
			logger.Info("service installed")
		}
		return
	}
	if *uninstall {
		if err := s.Uninstall(); err != nil {
			logger.Error("uninstall failed", "err", err)
		} else {
			logger.Info("service uninstalled")
		}
		return
	}
	if *runNow {
		svc := agentservice.New(cfg, logger)
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sig
			svc.Stop()
		}()
		if err := svc.Run(); err != nil {
			logger.Error("run failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := s.Run(); err != nil {
		logger.Error("service run error", "err", err)
	}
}
