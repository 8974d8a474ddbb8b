package service

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"debugtrail/internal/broadcast"
	"debugtrail/internal/config"
	"debugtrail/internal/export"
	"debugtrail/internal/logging"
	"debugtrail/internal/present"
	"debugtrail/internal/probe"
	"debugtrail/internal/trace"
	"debugtrail/internal/tracker"
)

// Service hosts a tracker: it feeds it notifications from the spool file,
// shows the log in a terminal panel and writes the exports on shutdown.
type Service struct {
	cfg    *config.Config
	log    *logging.Logger
	tr     *tracker.Tracker
	ws     *trace.Workspace
	loop   *broadcast.Loop
	panel  *present.Panel
	follow *trace.Follower
	dog    *probe.Watchdog
	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*Service)

// WithOutput sets where the panel renders. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Service) { s.panel = present.NewPanel(w, s.cfg.UseColor()) }
}

func WithWatchdog(w *probe.Watchdog) Option {
	return func(s *Service) { s.dog = w }
}

func New(cfg *config.Config, logger *logging.Logger, opts ...Option) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{cfg: cfg, log: logger, ctx: ctx, cancel: cancel}
	s.ws = trace.NewWorkspace()
	s.loop = broadcast.NewLoop()
	s.tr = tracker.New(logger, tracker.WithDeliver(s.loop.Deliver()), tracker.WithWorkspace(s.ws))
	s.panel = present.NewPanel(os.Stdout, cfg.UseColor())
	s.follow = trace.NewFollower(cfg.SpoolPath)
	for _, opt := range opts {
		opt(s)
	}
	if s.dog == nil && cfg.WatchdogSeconds > 0 {
		s.dog = probe.NewWatchdog(logger.With("component", "watchdog"))
	}
	// notifications left over from an earlier run are not replayed
	if err := s.follow.SkipToEnd(); err != nil {
		s.log.Error("spool skip failed", "path", cfg.SpoolPath, "err", err)
	}
	return s
}

func (s *Service) Tracker() *tracker.Tracker { return s.tr }

func (s *Service) Panel() *present.Panel { return s.panel }

// Run blocks until Stop is called, then exports the log.
func (s *Service) Run() error {
	s.log.Info("service starting", "spool", s.cfg.SpoolPath)
	if err := s.panel.Attach(s.tr); err != nil {
		return err
	}

	// The loop outlives the readers so the final poll still reaches the panel.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan error, 1)
	go func() { loopDone <- s.loop.Run(loopCtx) }()

	g, ctx := errgroup.WithContext(s.ctx)
	g.Go(func() error {
		interval := time.Duration(s.cfg.PollIntervalMillis) * time.Millisecond
		err := s.follow.Watch(ctx, interval, s.pollOnce, func(err error) {
			s.log.Warn("spool watch error", "err", err)
		})
		if err != nil && ctx.Err() == nil && interval > 0 {
			s.log.Warn("spool watch unavailable, polling instead", "err", err)
			return RunEvery(ctx, interval, s.pollOnce)
		}
		return err
	})
	if s.dog != nil && s.cfg.WatchdogSeconds > 0 {
		g.Go(func() error {
			return RunEvery(ctx, time.Duration(s.cfg.WatchdogSeconds)*time.Second, func() { s.watchOnce(ctx) })
		})
	}
	err := g.Wait()

	s.log.Info("service stopping")
	s.pollOnce()
	stopLoop()
	if lerr := <-loopDone; !errors.Is(lerr, context.Canceled) {
		err = errors.Join(err, lerr)
	}
	s.panel.Detach()
	if cerr := s.tr.Close(); cerr != nil {
		s.log.Error("tracker close failed", "err", cerr)
	}
	if xerr := s.writeExports(); xerr != nil {
		err = errors.Join(err, xerr)
	}
	return err
}

func (s *Service) pollOnce() {
	notes, err := s.follow.Poll()
	if err != nil {
		s.log.Error("spool read failed", "err", err)
	}
	for _, n := range notes {
		if err := trace.Apply(n, s.tr, s.ws); err != nil {
			s.log.Error("notification rejected", "kind", n.Kind, "err", err)
			continue
		}
		if s.dog == nil {
			continue
		}
		switch n.Kind {
		case trace.ProcessStarted:
			s.dog.Watch(n.Session.ID(), n.Session.PID)
		case trace.ProcessStopped:
			s.dog.Forget(n.Session.ID())
		}
	}
}

func (s *Service) watchOnce(ctx context.Context) {
	for _, id := range s.dog.Check(ctx) {
		s.log.Warn("debuggee vanished without stop notification", "session", id)
		s.tr.ProcessStopped(trace.SessionSnapshot{SessionID: id})
	}
}

func (s *Service) writeExports() error {
	var errs []error
	if s.cfg.ExportPath != "" && len(s.tr.ExportLog()) > 0 {
		path, err := export.WriteText(s.cfg.ExportPath, s.tr.ExportLog())
		if err != nil {
			errs = append(errs, err)
		} else {
			s.log.Info("log exported", "path", path)
		}
	}
	if s.cfg.ArchivePath != "" {
		a, err := export.OpenArchive(s.cfg.ArchivePath)
		if err != nil {
			errs = append(errs, err)
		} else {
			defer a.Close()
			snap, err := a.Save(s.tr.Events())
			if err != nil {
				errs = append(errs, err)
			} else {
				s.log.Info("log archived", "path", s.cfg.ArchivePath, "export", snap.ID, "events", snap.Count)
			}
		}
	}
	return errors.Join(errs...)
}

func (s *Service) Stop() {
	s.cancel()
}
