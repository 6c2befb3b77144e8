package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tsukikage7/cronkit/app"
	"github.com/Tsukikage7/cronkit/config"
	"github.com/Tsukikage7/cronkit/lock"
	"github.com/Tsukikage7/cronkit/logger"
	"github.com/Tsukikage7/cronkit/metrics"
	"github.com/Tsukikage7/cronkit/scheduler"
	"github.com/Tsukikage7/cronkit/tracing"
)

func newRunCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadDaemon(cfgFile)
			if err != nil {
				return err
			}
			application, err := buildApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return application.Run()
		},
	}

	cmd.Flags().StringVarP(&cfgFile, "config", "c", "cronkit.yaml", "config file")
	return cmd
}

// buildApp 按配置组装日志、锁、追踪、指标和调度器.
func buildApp(ctx context.Context, cfg *config.Config) (*app.Application, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	log, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		return nil, err
	}

	opts := []app.Option{
		app.Name("cronkit"),
		app.Version(version),
		app.Logger(log),
		app.RegisterCleanup("logger", func(context.Context) error {
			_ = log.Sync()
			return nil
		}, app.PriorityLogger),
	}
	if cfg.Scheduler.ShutdownTimeout > 0 {
		opts = append(opts, app.GracefulTimeout(cfg.Scheduler.ShutdownTimeout))
	}

	tp, err := tracing.NewTracer(&cfg.Tracing, "cronkit", version)
	if err != nil {
		return nil, err
	}
	opts = append(opts, app.RegisterShutdowner("tracer", tp, app.PriorityExporter))

	mutex, err := lock.New(ctx, &cfg.Lock)
	if err != nil {
		return nil, err
	}
	if closer, ok := mutex.(interface{ Close() error }); ok {
		opts = append(opts, app.RegisterCloser("lock", closer, app.PriorityBackend))
	}

	schedOpts := []scheduler.Option{
		scheduler.WithLogger(log),
		scheduler.WithMutex(mutex),
		scheduler.WithTracerProvider(tp),
		scheduler.WithNotifier(scheduler.LogNotifier(log)),
		scheduler.WithMaxConcurrency(cfg.Scheduler.MaxConcurrency),
	}
	if cfg.Scheduler.Tick > 0 {
		schedOpts = append(schedOpts, scheduler.WithTickInterval(cfg.Scheduler.Tick))
	}
	if cfg.Scheduler.DefaultMutexTTL != 0 {
		schedOpts = append(schedOpts, scheduler.WithDefaultMutexTTL(cfg.Scheduler.DefaultMutexTTL))
	}

	var services []app.Service
	if cfg.Metrics.Enabled {
		collector, err := metrics.NewMetrics(&cfg.Metrics)
		if err != nil {
			return nil, err
		}
		schedOpts = append(schedOpts, scheduler.WithNotifier(collector))
		services = append(services, metrics.NewServer(collector, cfg.Metrics.Addr, log))
	}

	s, err := scheduler.New(schedOpts...)
	if err != nil {
		return nil, err
	}
	if err := registerTasks(s, cfg.Tasks, log); err != nil {
		return nil, err
	}
	services = append(services, scheduler.NewService(s))

	log.With(
		logger.Int("tasks", len(cfg.Tasks)),
		logger.String("lock", cfg.Lock.Type),
		logger.Duration("tick", max(cfg.Scheduler.Tick, time.Second)),
	).Info("[App] cronkit configured")

	opts = append(opts, app.Services(services...))
	return app.New(opts...), nil
}
