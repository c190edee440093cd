package daemon

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/llehouerou/musicplayer/internal/ipc"
	"github.com/llehouerou/musicplayer/internal/player"
)

// startRun runs d on a loopback listener and returns a client for it and
// a channel carrying Run's result.
func startRun(t *testing.T, d *Daemon) (*ipc.Client, <-chan error) {
	t.Helper()
	ln, err := ipc.Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	finished := make(chan struct{})
	go func() {
		done <- d.Run(ctx, ln)
		close(finished)
	}()
	t.Cleanup(func() {
		cancel()
		<-finished
	})

	return ipc.NewClient(ln.Addr().String()), done
}

func TestRun_ServesCommands(t *testing.T) {
	m := player.NewMock()
	d := New(m, WithLogger(zaptest.NewLogger(t)))
	client, _ := startRun(t, d)
	ctx := context.Background()

	resp, err := client.Send(ctx, ipc.Play(""))
	require.NoError(t, err)
	assert.Equal(t, ipc.Error("Playlist is empty"), resp)

	resp, err = client.Send(ctx, ipc.SetVolume(55))
	require.NoError(t, err)
	assert.Equal(t, ipc.RespOk, resp.Kind)

	resp, err = client.Send(ctx, ipc.Simple(ipc.CmdGetStatus))
	require.NoError(t, err)
	require.Equal(t, ipc.RespStatus, resp.Kind)
	assert.Equal(t, 55, resp.Status.Volume)
	assert.Equal(t, player.Stopped, resp.Status.State)
}

func TestRun_BadLineDoesNotStopLoop(t *testing.T) {
	d := New(player.NewMock(), WithLogger(zaptest.NewLogger(t)))
	client, _ := startRun(t, d)

	raw, err := net.Dial("tcp", client.Addr)
	require.NoError(t, err)
	_, err = raw.Write([]byte("this is not json\n"))
	require.NoError(t, err)
	_, err = bufio.NewReader(raw).ReadString('\n')
	assert.ErrorIs(t, err, io.EOF, "a malformed command gets no response")
	raw.Close()

	resp, err := client.Send(context.Background(), ipc.Simple(ipc.CmdGetPlaylist))
	require.NoError(t, err)
	assert.Equal(t, ipc.RespPlaylist, resp.Kind)
}

func TestRun_Shutdown(t *testing.T) {
	d := New(player.NewMock())
	client, done := startRun(t, d)

	resp, err := client.Send(context.Background(), ipc.Simple(ipc.CmdShutdown))
	require.NoError(t, err)
	assert.Equal(t, ipc.RespOk, resp.Kind, "Shutdown is answered before the loop exits")

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrShutdown)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}

	_, err = d.Submit(context.Background(), ipc.Simple(ipc.CmdGetStatus))
	assert.ErrorIs(t, err, ErrNotRunning)

	_, err = client.Send(context.Background(), ipc.Simple(ipc.CmdGetStatus))
	assert.ErrorIs(t, err, ipc.ErrDaemonUnreachable, "listener is closed on exit")
}

func TestRun_ContextCancel(t *testing.T) {
	d := New(player.NewMock())
	ln, err := ipc.Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, ln) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_AutoAdvanceTicks(t *testing.T) {
	m := player.NewMock()
	d := New(m, WithTickInterval(5*time.Millisecond), WithQuietWindow(10*time.Millisecond))
	client, _ := startRun(t, d)
	tracks := makeTracks(t, "a.mp3", "b.mp3")
	ctx := context.Background()

	_, err := client.Send(ctx, ipc.AddTracks(tracks...))
	require.NoError(t, err)
	_, err = client.Send(ctx, ipc.Play(""))
	require.NoError(t, err)
	m.SimulateFinished()

	require.Eventually(t, func() bool {
		return len(m.LoadCalls()) == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, tracks, m.LoadCalls())
}

// chanListener never yields a connection; Accept blocks until Close.
type chanListener struct {
	closed chan struct{}
	once   sync.Once
}

func newChanListener() *chanListener {
	return &chanListener{closed: make(chan struct{})}
}

func (l *chanListener) Accept() (*ipc.Conn, error) {
	<-l.closed
	return nil, net.ErrClosed
}

func (l *chanListener) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

func TestRun_QuietWindow(t *testing.T) {
	tracks := makeTracks(t, "a.mp3", "b.mp3")

	synctest.Test(t, func(t *testing.T) {
		m := player.NewMock()
		d := New(m)
		ln := newChanListener()
		ctx := context.Background()

		done := make(chan error, 1)
		go func() { done <- d.Run(ctx, ln) }()

		_, err := d.Submit(ctx, ipc.AddTracks(tracks...))
		require.NoError(t, err)
		resp, err := d.Submit(ctx, ipc.Play(""))
		require.NoError(t, err)
		require.Equal(t, ipc.RespOk, resp.Kind)
		m.SimulateFinished()

		time.Sleep(1900 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, tracks[:1], m.LoadCalls(), "no auto-advance inside the quiet window")

		time.Sleep(700 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, tracks, m.LoadCalls(), "auto-advance on the first tick past the window")

		resp, err = d.Submit(ctx, ipc.Simple(ipc.CmdShutdown))
		require.NoError(t, err)
		assert.Equal(t, ipc.RespOk, resp.Kind)
		assert.True(t, errors.Is(<-done, ErrShutdown))
	})
}

func TestSubmit_ContextCancelled(t *testing.T) {
	d := New(player.NewMock())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Submit(ctx, ipc.Simple(ipc.CmdGetStatus))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_NonPositiveTickIntervalFallsBack(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		d := New(player.NewMock(), WithTickInterval(interval), WithRetryBudget(0))
		assert.Equal(t, DefaultTickInterval, d.tickInterval, "interval %v", interval)
		assert.Equal(t, 1, d.retryBudget)

		client, done := startRun(t, d)
		resp, err := client.Send(context.Background(), ipc.Simple(ipc.CmdShutdown))
		require.NoError(t, err)
		assert.Equal(t, ipc.RespOk, resp.Kind)
		assert.ErrorIs(t, <-done, ErrShutdown)
	}
}
