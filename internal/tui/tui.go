// Package tui is a terminal remote control for the daemon. It only talks
// the control protocol, so quitting it leaves playback running.
package tui

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/musicplayer/internal/ipc"
	"github.com/llehouerou/musicplayer/internal/keymap"
	"github.com/llehouerou/musicplayer/internal/player"
	"github.com/llehouerou/musicplayer/internal/trackinfo"
)

const (
	pollInterval = 500 * time.Millisecond
	// The playlist is refreshed on every playlistEvery-th poll.
	playlistEvery  = 5
	volumeStep     = 5
	requestTimeout = 2 * time.Second
)

// Sender performs one protocol exchange. *ipc.Client implements it.
type Sender interface {
	Send(ctx context.Context, cmd ipc.Command) (ipc.Response, error)
}

type tickMsg time.Time

type statusMsg struct {
	status ipc.Status
	label  string
	err    error
}

type playlistMsg struct {
	names []string
	err   error
}

type commandDoneMsg struct {
	kind ipc.CommandKind
	err  error
}

// Model is the bubbletea model.
type Model struct {
	client Sender
	keys   *keymap.Resolver

	status  ipc.Status
	label   string
	names   []string
	offline bool
	lastErr string
	ticks   int
	width   int
	height  int
}

// New creates a model polling through client.
func New(client Sender) Model {
	return Model{
		client: client,
		keys:   keymap.NewResolver(keymap.Bindings),
		width:  80,
		height: 24,
	}
}

// Run starts the interface on the alternate screen and blocks until quit.
func Run(ctx context.Context, client *ipc.Client) error {
	p := tea.NewProgram(New(client), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.pollStatus(), m.pollPlaylist(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.ticks++
		cmds := []tea.Cmd{m.pollStatus(), tick()}
		if m.ticks%playlistEvery == 0 {
			cmds = append(cmds, m.pollPlaylist())
		}
		return m, tea.Batch(cmds...)

	case statusMsg:
		if msg.err != nil {
			m.offline = errors.Is(msg.err, ipc.ErrDaemonUnreachable)
			if !m.offline {
				m.lastErr = msg.err.Error()
			}
			return m, nil
		}
		m.offline = false
		m.status = msg.status
		m.label = msg.label
		return m, nil

	case playlistMsg:
		if msg.err == nil {
			m.names = msg.names
		}
		return m, nil

	case commandDoneMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
		} else {
			m.lastErr = ""
		}
		cmds := []tea.Cmd{m.pollStatus()}
		if msg.kind == ipc.CmdClearPlaylist {
			cmds = append(cmds, m.pollPlaylist())
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, ok := m.keys.Resolve(msg.String())
	if !ok {
		return m, nil
	}
	switch action {
	case keymap.ActionQuit:
		return m, tea.Quit
	case keymap.ActionPlayPause:
		if m.status.State == player.Playing {
			return m, m.send(ipc.Simple(ipc.CmdPause))
		}
		return m, m.send(ipc.Play(""))
	case keymap.ActionNextTrack:
		return m, m.send(ipc.Simple(ipc.CmdNext))
	case keymap.ActionPrevTrack:
		return m, m.send(ipc.Simple(ipc.CmdPrevious))
	case keymap.ActionStop:
		return m, m.send(ipc.Simple(ipc.CmdStop))
	case keymap.ActionClearPlaylist:
		return m, m.send(ipc.Simple(ipc.CmdClearPlaylist))
	case keymap.ActionVolumeUp:
		m.status.Volume = min(m.status.Volume+volumeStep, 100)
		return m, m.send(ipc.SetVolume(m.status.Volume))
	case keymap.ActionVolumeDown:
		m.status.Volume = max(m.status.Volume-volumeStep, 0)
		return m, m.send(ipc.SetVolume(m.status.Volume))
	}
	return m, nil
}

func (m Model) send(cmd ipc.Command) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := client.Send(ctx, cmd)
		if err == nil {
			err = resp.Err()
		}
		return commandDoneMsg{kind: cmd.Kind, err: err}
	}
}

func (m Model) pollStatus() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := client.Send(ctx, ipc.Simple(ipc.CmdGetStatus))
		if err != nil {
			return statusMsg{err: err}
		}
		if resp.Kind != ipc.RespStatus || resp.Status == nil {
			return statusMsg{err: errors.New("unexpected status response")}
		}
		msg := statusMsg{status: *resp.Status}
		if track, ok := resp.Status.Track(); ok {
			msg.label = trackinfo.Label(track)
		}
		return msg
	}
}

func (m Model) pollPlaylist() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := client.Send(ctx, ipc.Simple(ipc.CmdGetPlaylist))
		if err != nil {
			return playlistMsg{err: err}
		}
		names := make([]string, len(resp.Tracks))
		for i, t := range resp.Tracks {
			names[i] = filepath.Base(t)
		}
		return playlistMsg{names: names}
	}
}
