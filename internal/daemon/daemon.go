// Package daemon runs the playback control loop.
//
// A single goroutine owns command handling: it multiplexes accepted
// connections, in-process requests and a periodic auto-advance tick, so
// exactly one command is decoded, dispatched and answered at a time.
package daemon

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/llehouerou/musicplayer/internal/ipc"
	"github.com/llehouerou/musicplayer/internal/player"
	"github.com/llehouerou/musicplayer/internal/playlist"
)

// Defaults for the loop timing.
const (
	DefaultTickInterval = 500 * time.Millisecond
	DefaultQuietWindow  = 2 * time.Second
	DefaultRetryBudget  = 5
	DefaultIOTimeout    = 5 * time.Second

	acceptBackoff = 100 * time.Millisecond
)

var (
	// ErrShutdown is returned by Run after a Shutdown command was answered.
	ErrShutdown = errors.New("daemon shut down")

	// ErrNotRunning is returned by Submit once the loop has exited.
	ErrNotRunning = errors.New("daemon not running")
)

// Listener is the part of *ipc.Listener the loop needs.
type Listener interface {
	Accept() (*ipc.Conn, error)
	Close() error
}

type request struct {
	cmd   ipc.Command
	reply chan ipc.Response
}

// Daemon owns the playlist and drives a player.
type Daemon struct {
	player player.Interface

	mu       sync.Mutex // guards playlist; never held across player.Load
	playlist *playlist.Playlist

	log          *zap.Logger
	now          func() time.Time
	tickInterval time.Duration
	quietWindow  time.Duration
	retryBudget  int
	ioTimeout    time.Duration

	manualMu   sync.Mutex
	lastManual time.Time

	requests chan request
	done     chan struct{}
	doneOnce sync.Once

	subs   []*Subscription
	subsMu sync.Mutex
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithLogger sets the daemon logger.
func WithLogger(log *zap.Logger) Option {
	return func(d *Daemon) { d.log = log }
}

// WithClock replaces time.Now for the quiet window.
func WithClock(now func() time.Time) Option {
	return func(d *Daemon) { d.now = now }
}

// WithTickInterval sets how often auto-advance is checked.
func WithTickInterval(interval time.Duration) Option {
	return func(d *Daemon) { d.tickInterval = interval }
}

// WithQuietWindow sets how long auto-advance stays off after a manual
// track change.
func WithQuietWindow(window time.Duration) Option {
	return func(d *Daemon) { d.quietWindow = window }
}

// WithRetryBudget sets how many candidates Next and Previous try.
func WithRetryBudget(n int) Option {
	return func(d *Daemon) { d.retryBudget = n }
}

// WithIOTimeout bounds a single connection exchange. Zero disables it.
func WithIOTimeout(timeout time.Duration) Option {
	return func(d *Daemon) { d.ioTimeout = timeout }
}

// New creates a daemon with an empty playlist.
func New(p player.Interface, opts ...Option) *Daemon {
	d := &Daemon{
		player:       p,
		playlist:     playlist.New(),
		log:          zap.NewNop(),
		now:          time.Now,
		tickInterval: DefaultTickInterval,
		quietWindow:  DefaultQuietWindow,
		retryBudget:  DefaultRetryBudget,
		ioTimeout:    DefaultIOTimeout,
		requests:     make(chan request),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.retryBudget < 1 {
		d.retryBudget = 1
	}
	if d.tickInterval <= 0 {
		d.tickInterval = DefaultTickInterval
	}
	// Start outside the quiet window so a fresh daemon can auto-advance.
	d.lastManual = d.now().Add(-d.quietWindow - time.Second)
	return d
}

// Run serves ln until ctx is cancelled or a Shutdown command is handled.
// It closes ln before returning and may be called only once.
func (d *Daemon) Run(ctx context.Context, ln Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer d.stop()
	defer ln.Close()

	conns := make(chan *ipc.Conn)
	go d.acceptLoop(ctx, ln, conns)

	ticker := time.NewTicker(d.tickInterval)
	defer ticker.Stop()

	d.log.Info("daemon loop started",
		zap.Duration("tick", d.tickInterval),
		zap.Duration("quiet_window", d.quietWindow))

	for {
		select {
		case <-ctx.Done():
			d.log.Info("daemon loop stopped", zap.Error(ctx.Err()))
			return ctx.Err()

		case conn := <-conns:
			if d.serve(conn) {
				d.log.Info("shutdown requested")
				return ErrShutdown
			}

		case req := <-d.requests:
			req.reply <- d.Handle(req.cmd)
			if req.cmd.Kind == ipc.CmdShutdown {
				d.log.Info("shutdown requested")
				return ErrShutdown
			}

		case <-ticker.C:
			d.autoAdvance()
		}
	}
}

func (d *Daemon) acceptLoop(ctx context.Context, ln Listener, conns chan<- *ipc.Conn) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			d.log.Warn("accept failed", zap.Error(err))
			select {
			case <-time.After(acceptBackoff):
				continue
			case <-ctx.Done():
				return
			}
		}
		select {
		case conns <- conn:
		case <-ctx.Done():
			_ = conn.Close()
			return
		}
	}
}

// serve handles one exchange and reports whether it was a Shutdown.
func (d *Daemon) serve(conn *ipc.Conn) bool {
	defer conn.Close()

	log := d.log.With(zap.String("conn_id", uuid.NewString()))
	if addr := conn.RemoteAddr(); addr != nil {
		log = log.With(zap.String("remote", addr.String()))
	}

	if d.ioTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(d.ioTimeout))
	}

	cmd, err := conn.Recv()
	if err != nil {
		log.Debug("dropping connection", zap.Error(err))
		return false
	}
	log.Debug("command received", zap.String("command", string(cmd.Kind)))

	resp := d.Handle(cmd)
	if resp.Kind == ipc.RespError {
		log.Info("command failed",
			zap.String("command", string(cmd.Kind)),
			zap.String("error", resp.Message))
	}
	if err := conn.Send(resp); err != nil {
		log.Warn("send response failed", zap.Error(err))
	}
	return cmd.Kind == ipc.CmdShutdown
}

// Submit routes a command through the loop, as if it came from a
// connection. It fails with ErrNotRunning once Run has returned.
func (d *Daemon) Submit(ctx context.Context, cmd ipc.Command) (ipc.Response, error) {
	req := request{cmd: cmd, reply: make(chan ipc.Response, 1)}
	select {
	case d.requests <- req:
	case <-d.done:
		return ipc.Response{}, ErrNotRunning
	case <-ctx.Done():
		return ipc.Response{}, ctx.Err()
	}
	select {
	case resp := <-req.reply:
		return resp, nil
	case <-ctx.Done():
		return ipc.Response{}, ctx.Err()
	}
}

// Subscribe creates a new event subscription. Its Done channel is closed
// when the loop exits.
func (d *Daemon) Subscribe() *Subscription {
	d.subsMu.Lock()
	defer d.subsMu.Unlock()
	sub := newSubscription()
	select {
	case <-d.done:
		sub.close()
	default:
		d.subs = append(d.subs, sub)
	}
	return sub
}

func (d *Daemon) stop() {
	d.doneOnce.Do(func() {
		d.subsMu.Lock()
		close(d.done)
		for _, sub := range d.subs {
			sub.close()
		}
		d.subs = nil
		d.subsMu.Unlock()
	})
}

func (d *Daemon) markManual() {
	d.manualMu.Lock()
	d.lastManual = d.now()
	d.manualMu.Unlock()
}

func (d *Daemon) sinceManual() time.Duration {
	d.manualMu.Lock()
	defer d.manualMu.Unlock()
	return d.now().Sub(d.lastManual)
}

// autoAdvance loads the next track once the current one has drained,
// unless a manual track change happened within the quiet window. A track
// that fails to load is skipped silently; the following tick moves on.
func (d *Daemon) autoAdvance() {
	if d.sinceManual() <= d.quietWindow {
		return
	}
	if !d.player.IsIdle() || d.player.State() != player.Playing {
		return
	}

	before := d.snapshot()

	d.mu.Lock()
	track, ok := d.playlist.Next()
	d.mu.Unlock()
	if !ok {
		d.log.Debug("auto-advance: end of playlist")
		d.publish(before, d.snapshot(), true)
		return
	}

	if err := d.player.Load(track); err != nil {
		d.log.Warn("auto-advance: load failed", zap.String("path", track), zap.Error(err))
		d.publish(before, d.snapshot(), true)
		return
	}
	d.log.Info("auto-advance", zap.String("path", track))
	d.publish(before, d.snapshot(), true)
}

// snapshot captures what subscribers are told about.
type snapshot struct {
	state  player.State
	track  string
	volume int
	length int
	index  int
}

func (d *Daemon) snapshot() snapshot {
	track, _ := d.player.CurrentTrack()
	d.mu.Lock()
	length := d.playlist.Len()
	index, ok := d.playlist.CurrentIndex()
	d.mu.Unlock()
	if !ok {
		index = -1
	}
	return snapshot{
		state:  d.player.State(),
		track:  track,
		volume: d.player.Volume(),
		length: length,
		index:  index,
	}
}

func (d *Daemon) publish(before, after snapshot, auto bool) {
	d.subsMu.Lock()
	defer d.subsMu.Unlock()
	if len(d.subs) == 0 {
		return
	}
	for _, sub := range d.subs {
		if before.state != after.state {
			sub.sendState(StateChange{Previous: before.state, Current: after.state})
		}
		if before.track != after.track {
			sub.sendTrack(TrackChange{
				Previous: before.track,
				Current:  after.track,
				Index:    after.index,
				Auto:     auto,
			})
		}
		if before.length != after.length || before.index != after.index {
			sub.sendPlaylist(PlaylistChange{Length: after.length, Index: after.index})
		}
		if before.volume != after.volume {
			sub.sendVolume(VolumeChange{Volume: after.volume})
		}
	}
}
