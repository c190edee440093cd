// Package notify provides desktop notifications via D-Bus.
package notify

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/llehouerou/musicplayer/internal/trackinfo"
)

const appName = "musicplayer"

// ErrUnavailable is returned by New when no notification server can be
// reached.
var ErrUnavailable = errors.New("desktop notifications unavailable")

// Urgency represents notification priority levels per freedesktop spec.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification contains data for a desktop notification.
type Notification struct {
	Title      string  // Summary text (required)
	Body       string  // Body text (optional, supports basic markup)
	Icon       string  // Path to image file or icon name (optional)
	Timeout    int32   // ms, -1 = server default, 0 = never expire
	ReplacesID uint32  // 0 = new notification, >0 = replace existing
	Urgency    Urgency // Low, Normal, Critical
	Category   string  // freedesktop category hint, e.g. "x-gnome.music"
	Transient  bool    // skip the notification history
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify sends a notification and returns its ID.
	Notify(n Notification) (uint32, error)
	// Close closes a notification by ID.
	Close(id uint32) error
}

// "Now playing" bubbles stay up trackTimeout ms and are filed under
// trackCategory.
const (
	trackTimeout  = 5000
	trackCategory = "x-gnome.music"
)

// Announcer shows a "now playing" notification per track. Each one
// replaces the previous so only one is ever on screen.
type Announcer struct {
	n Notifier

	mu     sync.Mutex
	lastID uint32
}

// NewAnnouncer creates an Announcer sending through n.
func NewAnnouncer(n Notifier) *Announcer {
	return &Announcer{n: n}
}

// Announce notifies that path started playing.
func (a *Announcer) Announce(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	notif := TrackNotification(path)
	notif.ReplacesID = a.lastID
	id, err := a.n.Notify(notif)
	if err != nil {
		return fmt.Errorf("notify %s: %w", filepath.Base(path), err)
	}
	if id != 0 {
		a.lastID = id
	}
	return nil
}

// TrackNotification builds the "now playing" notification for path.
func TrackNotification(path string) Notification {
	n := Notification{
		Title:     filepath.Base(path),
		Icon:      trackinfo.FindAlbumArt(path),
		Timeout:   trackTimeout,
		Urgency:   UrgencyLow,
		Category:  trackCategory,
		Transient: true,
	}
	if n.Icon == "" {
		n.Icon = "audio-x-generic"
	}

	info, err := trackinfo.Read(path)
	if err != nil {
		return n
	}
	n.Title = info.Title
	var body []string
	if info.Artist != "" {
		body = append(body, info.Artist)
	}
	if info.Album != "" {
		body = append(body, info.Album)
	}
	n.Body = strings.Join(body, " - ")
	return n
}
