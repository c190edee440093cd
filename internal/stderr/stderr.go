// Package stderr captures output that native audio libraries write straight
// to file descriptor 2 and forwards it to the daemon log.
package stderr

import (
	"bufio"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Capture holds a redirected file descriptor 2.
type Capture struct {
	// Console is where stderr pointed before Start.
	Console *os.File

	orig int
	r, w *os.File
	log  *zap.Logger // set by Forward
	done chan struct{}
}

// Forward logs every captured line at warn level until Stop, which also
// syncs log once the last line is written.
func (c *Capture) Forward(log *zap.Logger) {
	if c.r == nil {
		return
	}
	c.log = log
	go func() {
		defer close(c.done)
		forward(c.r, log)
	}()
}

func forward(r io.Reader, log *zap.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			log.Warn("native stderr", zap.String("line", line))
		}
	}
}

// drain closes the write end once fd 2 no longer points at it, waits for
// the forwarded lines and flushes the logger.
func (c *Capture) drain() {
	_ = c.w.Close()
	if c.log != nil {
		<-c.done
		_ = c.log.Sync()
	}
	_ = c.r.Close()
}
