// Package cli implements the musicplayer command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/llehouerou/musicplayer/internal/config"
	"github.com/llehouerou/musicplayer/internal/errmsg"
	"github.com/llehouerou/musicplayer/internal/ipc"
	"github.com/llehouerou/musicplayer/internal/logger"
	"github.com/llehouerou/musicplayer/internal/player"
	"github.com/llehouerou/musicplayer/internal/tui"
)

const startHint = "Make sure the daemon is running: musicplayer daemon start"

// app carries what every subcommand shares.
type app struct {
	configPath string
	verbose    bool

	cfg *config.Config
	log *zap.Logger

	stdout io.Writer
	stderr io.Writer

	loadConfig func(path string) (*config.Config, error)
	newSink    func() player.Sink
	tui        func(ctx context.Context, client *ipc.Client) error
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:     stdout,
		stderr:     stderr,
		log:        zap.NewNop(),
		loadConfig: config.Load,
		newSink:    player.NewSpeakerSink,
		tui:        tui.Run,
	}
}

// opError renders as a user-facing "Failed to <op>: <err>" message.
type opError struct {
	op  errmsg.Op
	err error
}

func (e *opError) Error() string { return errmsg.Format(e.op, e.err) }
func (e *opError) Unwrap() error { return e.err }

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	return execute(context.Background(), newApp(os.Stdout, os.Stderr), os.Args[1:])
}

func execute(ctx context.Context, a *app, args []string) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	_ = a.log.Sync()
	if err == nil {
		return 0
	}
	fmt.Fprintln(a.stderr, "Error:", err)
	if errors.Is(err, ipc.ErrDaemonUnreachable) {
		fmt.Fprintln(a.stderr, "  "+startHint)
	}
	return 1
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "musicplayer",
		Short:         "A small music player daemon and its remote controls.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.tui(cmd.Context(), a.client())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (overrides the XDG and local config)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug details to stderr")

	root.AddCommand(
		newDaemonCmd(a),
		newPlayCmd(a),
		newSimpleCmd(a, "pause", "Pause playback", ipc.CmdPause, errmsg.OpPause),
		newSimpleCmd(a, "stop", "Stop playback", ipc.CmdStop, errmsg.OpStop),
		newSimpleCmd(a, "next", "Skip to the next playable track", ipc.CmdNext, errmsg.OpNext),
		newSimpleCmd(a, "prev", "Go back to the previous playable track", ipc.CmdPrevious, errmsg.OpPrevious),
		newSimpleCmd(a, "clear", "Remove every track from the playlist", ipc.CmdClearPlaylist, errmsg.OpClearPlaylist),
		newVolumeCmd(a),
		newAddCmd(a),
		newStatusCmd(a),
		newPlaylistCmd(a),
		&cobra.Command{
			Use:   "tui",
			Short: "Open the terminal interface",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.tui(cmd.Context(), a.client())
			},
		},
	)
	return root
}

// setup loads the configuration and the front-end logger. The daemon
// builds its own logger from the config.
func (a *app) setup() error {
	cfg, err := a.loadConfig(a.configPath)
	if err != nil {
		return &opError{op: errmsg.OpLoadConfig, err: err}
	}
	a.cfg = cfg

	if a.verbose {
		log, err := logger.New(config.LogConfig{Level: "debug"}, a.stderr)
		if err != nil {
			return err
		}
		a.log = log
	}
	return nil
}

func (a *app) client() *ipc.Client {
	c := ipc.NewClient(a.cfg.ListenAddr)
	if a.cfg.IOTimeout > 0 {
		c.Timeout = a.cfg.IOTimeout
	}
	return c
}

// send performs one exchange. Transport failures are wrapped with op;
// Error responses come back as *ipc.CommandError.
func (a *app) send(ctx context.Context, op errmsg.Op, cmd ipc.Command) (ipc.Response, error) {
	a.log.Debug("sending command", zap.String("command", string(cmd.Kind)), zap.String("addr", a.cfg.ListenAddr))
	resp, err := a.client().Send(ctx, cmd)
	if err != nil {
		if errors.Is(err, ipc.ErrDaemonUnreachable) {
			op = errmsg.OpConnect
		}
		return resp, &opError{op: op, err: err}
	}
	if err := resp.Err(); err != nil {
		return resp, err
	}
	return resp, nil
}

// expect fails when resp is not of kind want.
func expect(resp ipc.Response, want ipc.ResponseKind) error {
	if resp.Kind != want {
		return fmt.Errorf("unexpected response %s, want %s", resp.Kind, want)
	}
	return nil
}
