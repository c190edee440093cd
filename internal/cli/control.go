package cli

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/llehouerou/musicplayer/internal/errmsg"
	"github.com/llehouerou/musicplayer/internal/ipc"
)

const okMessage = "Command executed successfully"

func (a *app) runOK(cmd *cobra.Command, op errmsg.Op, c ipc.Command) error {
	if _, err := a.send(cmd.Context(), op, c); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, okMessage)
	return nil
}

func newSimpleCmd(a *app, use, short string, kind ipc.CommandKind, op errmsg.Op) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runOK(cmd, op, ipc.Simple(kind))
		},
	}
}

func newPlayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "play [path]",
		Short: "Play a file, resume, or start the playlist",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				abs, err := filepath.Abs(args[0])
				if err != nil {
					return err
				}
				path = abs
			}
			return a.runOK(cmd, errmsg.OpPlay, ipc.Play(path))
		},
	}
}

func newVolumeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "volume <level>",
		Short: "Set the volume (0-100)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(args[0])
			if err != nil {
				return err
			}
			return a.runOK(cmd, errmsg.OpSetVolume, ipc.SetVolume(level))
		},
	}
}

// parseLevel accepts 0..255 like the protocol and clamps to 100.
func parseLevel(s string) (int, error) {
	level, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid volume %q: want a number between 0 and 100", s)
	}
	return min(int(level), 100), nil
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>...",
		Short: "Add files or directories to the playlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := absPaths(args)
			if err != nil {
				return err
			}
			return a.runOK(cmd, errmsg.OpAddTracks, ipc.AddTracks(paths...))
		},
	}
}

// absPaths resolves paths against the client's working directory.
func absPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		out = append(out, abs)
	}
	return out, nil
}
