package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/llehouerou/musicplayer/internal/daemon"
	"github.com/llehouerou/musicplayer/internal/errmsg"
	"github.com/llehouerou/musicplayer/internal/ipc"
	"github.com/llehouerou/musicplayer/internal/logger"
	"github.com/llehouerou/musicplayer/internal/mpris"
	"github.com/llehouerou/musicplayer/internal/notify"
	"github.com/llehouerou/musicplayer/internal/player"
	"github.com/llehouerou/musicplayer/internal/stderr"
)

// How long restart waits for the old daemon to exit.
const (
	restartWait = 5 * time.Second
	restartPoll = 100 * time.Millisecond
)

func newDaemonCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the playback daemon",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Run the daemon in the foreground",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				fmt.Fprintln(a.stderr, "Starting daemon in foreground (use Ctrl+C to stop)...")
				return a.runDaemon(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop the running daemon",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.stopDaemon(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Report whether the daemon is running",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.daemonStatus(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "restart",
			Short: "Stop the daemon and start a new one in the background",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.restartDaemon(cmd.Context())
			},
		},
	)
	return cmd
}

func (a *app) pidFile() (daemon.PIDFile, error) {
	path, err := a.cfg.PIDPath()
	if err != nil {
		return daemon.PIDFile{}, &opError{op: errmsg.OpReadPIDFile, err: err}
	}
	return daemon.PIDFile{Path: path}, nil
}

// runDaemon serves until Shutdown, SIGINT or SIGTERM.
func (a *app) runDaemon(ctx context.Context) error {
	logCfg := a.cfg.Log
	if a.verbose {
		logCfg.Level = "debug"
	}
	console := a.stderr
	var capture *stderr.Capture
	if a.stderr == os.Stderr {
		if c, err := stderr.Start(); err == nil {
			capture = c
			console = c.Console
		}
	}

	log, err := logger.New(logCfg, console)
	if err != nil {
		if capture != nil {
			capture.Stop()
		}
		return &opError{op: errmsg.OpDaemonStart, err: err}
	}
	defer func() { _ = log.Sync() }()
	if capture != nil {
		// Stop syncs the logger after the last native line.
		capture.Forward(log.Named("native"))
		defer capture.Stop()
	}

	pf, err := a.pidFile()
	if err != nil {
		return err
	}
	if err := pf.Acquire(); err != nil {
		return &opError{op: errmsg.OpDaemonStart, err: err}
	}
	defer func() {
		if err := pf.Release(); err != nil {
			log.Warn("release PID file", zap.Error(err))
		}
	}()

	ln, err := ipc.Listen(a.cfg.ListenAddr)
	if err != nil {
		return &opError{op: errmsg.OpDaemonStart, err: err}
	}

	p := player.New(a.newSink(),
		player.WithVolume(a.cfg.InitialVolume),
		player.WithLogger(log.Named("player")),
	)
	d := daemon.New(p,
		daemon.WithLogger(log.Named("daemon")),
		daemon.WithTickInterval(a.cfg.TickInterval),
		daemon.WithQuietWindow(a.cfg.QuietWindow),
		daemon.WithRetryBudget(a.cfg.RetryBudget),
		daemon.WithIOTimeout(a.cfg.IOTimeout),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.MPRIS {
		adapter, err := mpris.New(d, log.Named("mpris"))
		if err != nil {
			log.Warn("mpris unavailable", zap.Error(err))
		} else {
			defer adapter.Close()
		}
	}
	if a.cfg.Notifications {
		n, err := notify.New()
		if err != nil {
			log.Warn("notifications unavailable", zap.Error(err))
		} else {
			go announceTracks(ctx, d.Subscribe(), notify.NewAnnouncer(n), log.Named("notify"))
		}
	}

	log.Info("daemon started",
		zap.String("addr", ln.Addr().String()),
		zap.Int("pid", os.Getpid()))

	err = d.Run(ctx, ln)
	switch {
	case errors.Is(err, daemon.ErrShutdown), errors.Is(err, context.Canceled):
		log.Info("daemon stopped")
		return nil
	default:
		return err
	}
}

// announceTracks shows a notification for every track the daemon moved to
// by itself.
func announceTracks(ctx context.Context, sub *daemon.Subscription, ann *notify.Announcer, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case ev := <-sub.TrackChanged:
			if !ev.Auto || ev.Current == "" {
				continue
			}
			if err := ann.Announce(ev.Current); err != nil {
				log.Debug("notification failed", zap.Error(err))
			}
		}
	}
}

func (a *app) stopDaemon(ctx context.Context) error {
	pf, err := a.pidFile()
	if err != nil {
		return err
	}
	if _, err := os.Stat(pf.Path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(a.stdout, "Daemon is not running")
		return nil
	}

	_, err = a.client().Send(ctx, ipc.Simple(ipc.CmdShutdown))
	if err == nil {
		fmt.Fprintln(a.stdout, "Daemon stopped")
		return nil
	}
	a.log.Debug("graceful shutdown failed", zap.Error(err))

	pid, err := pf.Read()
	if err != nil {
		return &opError{op: errmsg.OpReadPIDFile, err: err}
	}
	if err := daemon.Terminate(pid); err != nil {
		return &opError{op: errmsg.OpDaemonStop, err: err}
	}
	fmt.Fprintln(a.stdout, "Daemon stopped (forced)")
	return nil
}

func (a *app) daemonStatus(ctx context.Context) error {
	pf, err := a.pidFile()
	if err != nil {
		return err
	}

	pid, err := pf.Read()
	switch {
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintln(a.stdout, "Daemon is not running")
		return nil
	case err != nil:
		fmt.Fprintln(a.stdout, "Daemon status unknown (invalid PID file)")
		return nil
	}

	if _, alive := pf.Running(); !alive {
		fmt.Fprintln(a.stdout, "Daemon is not running (stale PID file)")
		if err := os.Remove(pf.Path); err != nil {
			a.log.Debug("remove stale PID file", zap.Error(err))
		}
		return nil
	}

	fmt.Fprintf(a.stdout, "Daemon is running (PID: %d)\n", pid)
	resp, err := a.client().Send(ctx, ipc.Simple(ipc.CmdGetStatus))
	if err == nil && resp.Kind == ipc.RespStatus {
		fmt.Fprintf(a.stdout, "  State: %s\n", resp.Status.State)
		fmt.Fprintf(a.stdout, "  Playlist: %s\n", trackCount(resp.Status.PlaylistLength))
	}
	return nil
}

func (a *app) restartDaemon(ctx context.Context) error {
	if err := a.stopDaemon(ctx); err != nil {
		return err
	}
	pf, err := a.pidFile()
	if err != nil {
		return err
	}
	if err := waitExit(ctx, pf); err != nil {
		return &opError{op: errmsg.OpDaemonStop, err: err}
	}

	exe, err := os.Executable()
	if err != nil {
		return &opError{op: errmsg.OpDaemonStart, err: err}
	}
	args := []string{"daemon", "start"}
	if a.configPath != "" {
		args = append(args, "--config", a.configPath)
	}
	child := exec.Command(exe, args...) //nolint:gosec // re-executes this binary
	if err := child.Start(); err != nil {
		return &opError{op: errmsg.OpDaemonStart, err: err}
	}
	fmt.Fprintf(a.stdout, "Daemon restarted (PID: %d)\n", child.Process.Pid)
	return child.Process.Release()
}

// waitExit polls until the PID file no longer names a live process.
func waitExit(ctx context.Context, pf daemon.PIDFile) error {
	ctx, cancel := context.WithTimeout(ctx, restartWait)
	defer cancel()
	ticker := time.NewTicker(restartPoll)
	defer ticker.Stop()
	for {
		if _, alive := pf.Running(); !alive {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.New("daemon did not exit in time")
		case <-ticker.C:
		}
	}
}
