package cli

import (
	"fmt"
	"io"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/musicplayer/internal/errmsg"
	"github.com/llehouerou/musicplayer/internal/ipc"
	"github.com/llehouerou/musicplayer/internal/trackinfo"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what is playing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := a.send(cmd.Context(), errmsg.OpGetStatus, ipc.Simple(ipc.CmdGetStatus))
			if err != nil {
				return err
			}
			if err := expect(resp, ipc.RespStatus); err != nil {
				return err
			}
			printStatus(a.stdout, *resp.Status)
			return nil
		},
	}
}

func printStatus(w io.Writer, st ipc.Status) {
	fmt.Fprintf(w, "State:    %s\n", st.State)
	if track, ok := st.Track(); ok {
		fmt.Fprintf(w, "Track:    %s\n", trackinfo.Label(track))
	} else {
		fmt.Fprintln(w, "Track:    None")
	}
	if st.Duration > 0 {
		fmt.Fprintf(w, "Time:     %s / %s\n", formatSeconds(st.Position), formatSeconds(st.Duration))
	}
	fmt.Fprintf(w, "Volume:   %d%%\n", st.Volume)
	fmt.Fprintf(w, "Playlist: %s\n", trackCount(st.PlaylistLength))
	if idx, ok := st.Index(); ok {
		fmt.Fprintf(w, "Position: %d of %d\n", idx+1, st.PlaylistLength)
	}
}

func newPlaylistCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "playlist",
		Short: "List the playlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := a.send(cmd.Context(), errmsg.OpGetPlaylist, ipc.Simple(ipc.CmdGetPlaylist))
			if err != nil {
				return err
			}
			if err := expect(resp, ipc.RespPlaylist); err != nil {
				return err
			}
			printPlaylist(a.stdout, resp.Tracks)
			return nil
		},
	}
}

func printPlaylist(w io.Writer, tracks []string) {
	if len(tracks) == 0 {
		fmt.Fprintln(w, "Playlist is empty")
		fmt.Fprintln(w, "Add tracks with: musicplayer add <path>")
		return
	}
	for i, track := range tracks {
		fmt.Fprintf(w, "%4d. %s\n", i+1, trackinfo.Label(track))
	}
	fmt.Fprintf(w, "\nTotal: %s\n", trackCount(len(tracks)))
}

func trackCount(n int) string {
	if n == 1 {
		return "1 track"
	}
	return humanize.Comma(int64(n)) + " tracks"
}

// formatSeconds renders seconds as m:ss.
func formatSeconds(sec float64) string {
	total := int(math.Max(sec, 0))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
