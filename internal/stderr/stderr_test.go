package stderr

import (
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestForward_LogsNonEmptyLines(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	forward(strings.NewReader("ALSA lib pcm.c: underrun\n\n   \n  second line  \n"), zap.New(core))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "native stderr", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "ALSA lib pcm.c: underrun", entries[0].ContextMap()["line"])
	assert.Equal(t, "second line", entries[1].ContextMap()["line"])
}

func TestCapture_ForwardWithoutPipeIsNoop(t *testing.T) {
	c := &Capture{}
	c.Forward(zap.NewNop())
	assert.Nil(t, c.log)
}

// journal records writes and syncs in the order they happen.
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) Write(p []byte) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, "write "+strings.TrimSpace(string(p)))
	return len(p), nil
}

func (j *journal) Sync() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, "sync")
	return nil
}

func TestCapture_DrainLogsPendingLinesBeforeSync(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	c := &Capture{r: r, w: w, done: make(chan struct{})}

	j := &journal{}
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{MessageKey: "msg"})
	c.Forward(zap.New(zapcore.NewCore(enc, j, zapcore.DebugLevel)))

	_, err = w.WriteString("late underrun\n")
	require.NoError(t, err)
	c.drain()

	require.Len(t, j.events, 2)
	assert.Contains(t, j.events[0], "late underrun")
	assert.Equal(t, "sync", j.events[1])
}
