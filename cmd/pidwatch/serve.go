package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/ja7ad/pidwatch/pkg/config"
	"github.com/ja7ad/pidwatch/pkg/fusefs"
	"github.com/ja7ad/pidwatch/pkg/logging"
	"github.com/ja7ad/pidwatch/pkg/monitor"
	"github.com/ja7ad/pidwatch/pkg/server"
	"github.com/ja7ad/pidwatch/pkg/source"
	"github.com/ja7ad/pidwatch/pkg/system/host"
	"github.com/ja7ad/pidwatch/pkg/system/util"
)

type serveOpts struct {
	configPath string
	tree       bool
	fuseDebug  bool

	// flag values, applied over the config file only when set
	cfg config.Config
	src string
}

func serveCmd() *cobra.Command { return newServeCmd(&serveOpts{}) }

func newServeCmd(o *serveOpts) *cobra.Command {
	def := config.Default()

	cmd := &cobra.Command{
		Use:   "serve [PID|PID..PID]...",
		Short: "Run the agent",
		Long: `Run the sampler and expose the table over HTTP and/or a FUSE mount.
PIDs given as arguments (or in the config file) are registered at startup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.resolve(cmd)
			if err != nil {
				return err
			}
			cfg.PIDs = append(cfg.PIDs, args...)
			return serve(cmd.Context(), cfg, *o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.configPath, "config", "c", "", "YAML config file")
	f.DurationVarP(&o.cfg.Interval, "interval", "i", def.Interval, "sampling interval (e.g. 5s, 500ms)")
	f.StringVar(&o.src, "source", string(def.Source), fmt.Sprintf("CPU time source %v", source.Kinds()))
	f.IntVar(&o.cfg.MaxEntries, "max-entries", def.MaxEntries, "registry capacity (0 = unbounded)")
	f.StringVarP(&o.cfg.Listen, "listen", "l", def.Listen, `HTTP listen address ("" disables HTTP)`)
	f.StringVarP(&o.cfg.Mount, "mount", "m", def.Mount, "FUSE mount point (Linux)")
	f.StringVar(&o.cfg.Log.Level, "log-level", def.Log.Level, "debug, info, warn or error")
	f.StringVar(&o.cfg.Log.Format, "log-format", def.Log.Format, "text or json")
	f.StringVar(&o.cfg.Log.File, "log-file", def.Log.File, "rotating log file instead of stderr")
	f.BoolVar(&o.tree, "tree", false, "also register every descendant of the given PIDs")
	f.BoolVar(&o.fuseDebug, "fuse-debug", false, "log FUSE protocol traffic")
	return cmd
}

// resolve loads the config file and overlays the flags the user set.
func (o *serveOpts) resolve(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}

	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "interval":
			cfg.Interval = o.cfg.Interval
		case "source":
			cfg.Source = source.Kind(o.src)
		case "max-entries":
			cfg.MaxEntries = o.cfg.MaxEntries
		case "listen":
			cfg.Listen = o.cfg.Listen
		case "mount":
			cfg.Mount = o.cfg.Mount
		case "log-level":
			cfg.Log.Level = o.cfg.Log.Level
		case "log-format":
			cfg.Log.Format = o.cfg.Log.Format
		case "log-file":
			cfg.Log.File = o.cfg.Log.File
		}
	})
	return cfg, cfg.Validate()
}

func serve(ctx context.Context, cfg config.Config, o serveOpts) error {
	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() {
		_ = closer.Close()
	}()
	slog.SetDefault(logger)

	pids, err := util.ParsePIDs(cfg.PIDs)
	if err != nil {
		return err
	}
	if o.tree {
		pids = expandTrees(pids)
	}

	src, err := source.New(cfg.Source)
	if err != nil {
		return err
	}

	hs, err := host.Collect(ctx, clockTicks())
	if err != nil {
		logger.Warn("host summary incomplete", "err", err)
	}
	logger.Info("host", hs.LogAttrs()...)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := monitor.New(src,
		monitor.WithInterval(cfg.Interval),
		monitor.WithMaxEntries(cfg.MaxEntries),
		monitor.WithLogger(logger),
	)
	if err := m.Start(ctx); err != nil {
		return err
	}
	defer m.Stop()

	for _, pid := range pids {
		if _, err := m.Write([]byte(strconv.Itoa(pid))); err != nil {
			return fmt.Errorf("register %d: %w", pid, err)
		}
	}
	if len(pids) > 0 {
		logger.Info("registered at startup", "count", len(pids))
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Listen != "" {
		srv := server.New(cfg.Listen, m, logger)
		g.Go(func() error { return srv.Run(gctx) })
	}

	if cfg.Mount != "" {
		mnt, err := fusefs.New(cfg.Mount, m, logger, fusefs.Options{Debug: o.fuseDebug})
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			return watchMount(gctx, mnt, logger, cfg.Listen == "")
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info("shutting down", "tracked", m.Len(), "passes", m.Passes())
	return err
}

type mountHandle interface {
	Dir() string
	Done() <-chan struct{}
	Unmount() error
}

// watchMount unmounts on ctx cancellation. A mount removed from outside is
// logged; when it was the only surface the agent has nothing left to serve
// and the error stops it.
func watchMount(ctx context.Context, mnt mountHandle, logger *slog.Logger, only bool) error {
	select {
	case <-ctx.Done():
		return mnt.Unmount()
	case <-mnt.Done():
	}
	if only {
		logger.Error("fuse mount removed, no surface left", "dir", mnt.Dir())
		return fmt.Errorf("%s: %w", mnt.Dir(), fusefs.ErrUnmounted)
	}
	logger.Warn("fuse mount removed, serving http only", "dir", mnt.Dir())
	return nil
}
