package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/musicplayer/internal/player"
)

const (
	playSymbol  = "▶"
	pauseSymbol = "⏸"
	stopSymbol  = "■"

	filledBlock = "▓"
	emptyBlock  = "░"
)

var boxStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("240")).
	Padding(0, 1)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	currentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Lines taken by everything but the playlist: two boxes of two content
// lines each, the playlist border, help and error lines.
const chromeHeight = 2*4 + 2 + 2

func (m Model) View() string {
	inner := max(m.width-4, 10)

	if m.offline {
		body := titleStyle.Render("Daemon not running") + "\n" +
			dimStyle.Render(truncate("Start it with: musicplayer daemon start", inner))
		return boxStyle.Width(inner+2).Render(body) + "\n" + dimStyle.Render("q quit")
	}

	var b strings.Builder
	b.WriteString(boxStyle.Width(inner + 2).Render(m.headerView(inner)))
	b.WriteString("\n")
	b.WriteString(boxStyle.Width(inner + 2).Render(m.nowPlayingView(inner)))
	b.WriteString("\n")
	b.WriteString(boxStyle.Width(inner + 2).Render(m.playlistView(inner, max(m.height-chromeHeight, 1))))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(truncate(m.keys.Help(), m.width)))
	if m.lastErr != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(truncate(m.lastErr, m.width)))
	}
	return b.String()
}

func (m Model) headerView(width int) string {
	left := stateLabel(m.status.State)
	right := fmt.Sprintf("Volume %d%%  ·  %s", m.status.Volume, countLabel(m.status.PlaylistLength))
	if idx, ok := m.status.Index(); ok {
		right = fmt.Sprintf("#%d  ·  %s", idx+1, right)
	}
	return row(titleStyle.Render(left), dimStyle.Render(right), width) + "\n" + strings.Repeat(" ", width)
}

func (m Model) nowPlayingView(width int) string {
	title := "No track selected"
	if m.label != "" {
		title = m.label
	}
	bar := progressBar(m.status.Position, m.status.Duration, width, m.status.State)
	return titleStyle.Render(truncate(title, width)) + "\n" + bar
}

// playlistView shows up to height entries, scrolled to keep the cursor
// in view.
func (m Model) playlistView(width, height int) string {
	if len(m.names) == 0 {
		return dimStyle.Render(truncate("Playlist is empty · add tracks with: musicplayer add <path>", width))
	}

	cursor, hasCursor := m.status.Index()
	start := 0
	if hasCursor && cursor >= height {
		start = cursor - height + 1
	}
	end := min(start+height, len(m.names))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		prefix := "  "
		if hasCursor && i == cursor {
			prefix = playSymbol + " "
		}
		line := truncate(fmt.Sprintf("%s%d. %s", prefix, i+1, m.names[i]), width)
		if hasCursor && i == cursor {
			line = currentStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func stateLabel(s player.State) string {
	switch s {
	case player.Playing:
		return playSymbol + " PLAYING"
	case player.Paused:
		return pauseSymbol + " PAUSED"
	default:
		return stopSymbol + " STOPPED"
	}
}

func countLabel(n int) string {
	if n == 1 {
		return "1 track"
	}
	return fmt.Sprintf("%d tracks", n)
}

// progressBar renders "▶  1:23  ▓▓▓░░░  4:56" in width cells.
func progressBar(position, duration float64, width int, state player.State) string {
	status := playSymbol
	switch state {
	case player.Paused:
		status = pauseSymbol
	case player.Stopped:
		status = stopSymbol
	}

	posStr := formatSeconds(position)
	durStr := formatSeconds(duration)

	fixed := lipgloss.Width(status) + 2 + lipgloss.Width(posStr) + 2 + 2 + lipgloss.Width(durStr)
	barWidth := width - fixed
	if barWidth < 3 {
		return status + "  " + posStr + " / " + durStr
	}

	var ratio float64
	if duration > 0 {
		ratio = math.Min(math.Max(position/duration, 0), 1)
	}
	filled := min(int(float64(barWidth)*ratio), barWidth)
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, barWidth-filled)

	return status + "  " + posStr + "  " + bar + "  " + durStr
}

func formatSeconds(sec float64) string {
	total := int(math.Max(sec, 0))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
