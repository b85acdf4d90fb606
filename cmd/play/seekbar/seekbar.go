// Package seekbar renders an amplitude profile as a row of bars and turns
// taps and drags on it into seek requests.
package seekbar

import (
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Block characters for bar heights (8 levels per row, bottom to top).
// Index 0 = empty, 8 = full cell.
const blockChars = " ▁▂▃▄▅▆▇█"

var (
	playedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("27")) // Blue
	unplayedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("51")) // Cyan
)

// SeekMsg is emitted once per completed tap or drag.
type SeekMsg struct {
	Position time.Duration
}

// Model is the seek bar. The zero value renders nothing and ignores input
// until SetSize gives it a width.
type Model struct {
	samples  []int
	heights  []float64
	barCount int // requested bar count, 0 = one bar per column

	width            int
	height           int
	originX, originY int

	position time.Duration
	duration time.Duration

	// Drag state. dragging is true from press until release or tap.
	dragging     bool
	dragFraction float64
	slopConsumed bool
	touchSlop    float64

	detector detector
}

// New creates a seek bar. barCount 0 means one bar per terminal column.
func New(barCount, height int, touchSlop float64) Model {
	if height < 1 {
		height = 1
	}
	if touchSlop < 0 {
		touchSlop = 0
	}
	return Model{
		barCount:  barCount,
		height:    height,
		touchSlop: touchSlop,
	}
}

// SetSamples replaces the amplitude samples and recomputes the bar profile.
func (m Model) SetSamples(samples []int) Model {
	m.samples = samples
	m.heights = Reduce(samples, m.Bars())
	return m
}

// SetSize is the layout callback. Gestures are ignored while width is 0.
func (m Model) SetSize(width, height int) Model {
	before := m.Bars()
	m.width = max(width, 0)
	if height > 0 {
		m.height = height
	}
	if m.Bars() != before || (m.heights == nil && m.samples != nil) {
		m.heights = Reduce(m.samples, m.Bars())
	}
	return m
}

// SetOrigin positions the bar area on screen so mouse coordinates can be
// translated into bar-local ones.
func (m Model) SetOrigin(x, y int) Model {
	m.originX, m.originY = x, y
	return m
}

// SetPlayback feeds the externally observed playback position.
func (m Model) SetPlayback(position, duration time.Duration) Model {
	m.position = position
	m.duration = duration
	return m
}

// Bars returns the effective bar count.
func (m Model) Bars() int {
	if m.barCount > 0 {
		return m.barCount
	}
	return m.width
}

// Width returns the laid out width in cells.
func (m Model) Width() int { return m.width }

// Height returns the number of rows the bar occupies.
func (m Model) Height() int { return m.height }

// Heights returns the current bar profile.
func (m Model) Heights() []float64 { return m.heights }

// Dragging reports whether a press or drag is in progress.
func (m Model) Dragging() bool { return m.dragging }

// Progress is the fraction of the track shown as played. It follows the
// drag while one is in progress and the playback position otherwise.
func (m Model) Progress() float64 {
	if m.dragging {
		return m.dragFraction
	}
	if m.duration <= 0 {
		return 0
	}
	return float64(m.position) / float64(m.duration)
}

// ProgressIndex is the bar boundary between played and unplayed bars.
func (m Model) ProgressIndex() float64 {
	return float64(m.Bars()) * m.Progress()
}

// Press starts a gesture at x cells from the left edge of the bar.
func (m Model) Press(x float64) Model {
	if m.width == 0 {
		return m
	}
	m.dragging = true
	m.dragFraction = x / float64(m.width)
	m.slopConsumed = false
	return m
}

// Drag moves the pointer by delta cells. The first delta of a gesture also
// applies the touch slop the detector swallowed, so the highlight does not
// jump when the drag is recognized.
func (m Model) Drag(delta float64) Model {
	if m.width == 0 || !m.dragging {
		return m
	}
	if !m.slopConsumed {
		m.slopConsumed = true
		slop := m.touchSlop
		if delta < 0 {
			slop = -slop
		}
		m.dragFraction += slop / float64(m.width)
	}
	m.dragFraction += delta / float64(m.width)
	return m
}

// Release ends a drag and emits a seek to the final drag fraction.
func (m Model) Release() (Model, tea.Cmd) {
	if m.width == 0 || !m.dragging {
		return m, nil
	}
	fraction := m.dragFraction
	m.dragging = false
	return m, m.seekCmd(fraction)
}

// Tap emits a seek to x cells from the left edge.
func (m Model) Tap(x float64) (Model, tea.Cmd) {
	if m.width == 0 {
		return m, nil
	}
	m.dragging = false
	return m, m.seekCmd(x / float64(m.width))
}

func (m Model) seekCmd(fraction float64) tea.Cmd {
	pos := PositionAt(m.duration, fraction)
	return func() tea.Msg {
		return SeekMsg{Position: pos}
	}
}

// PositionAt maps a fraction of the bar onto a position in a track of the
// given duration, rounded to whole milliseconds.
func PositionAt(duration time.Duration, fraction float64) time.Duration {
	if math.IsNaN(fraction) || duration <= 0 {
		return 0
	}
	fraction = math.Min(math.Max(fraction, 0), 1)
	ms := math.Round(float64(duration.Milliseconds()) * fraction)
	return time.Duration(ms) * time.Millisecond
}

// Update handles mouse input. Everything else is ignored.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	mouse, ok := msg.(tea.MouseMsg)
	if !ok {
		return m, nil
	}
	return m.handleMouse(mouse)
}

// View renders the bars, played ones first.
func (m Model) View() string {
	if m.width == 0 || len(m.heights) == 0 {
		return strings.Repeat("\n", max(m.height-1, 0))
	}

	bars := len(m.heights)
	played := playedColumns(m.width, bars, m.ProgressIndex())
	levels := make([]int, m.width)
	for col := range levels {
		h := m.heights[columnBar(col, m.width, bars)]
		levels[col] = max(int(math.Round(h*float64(m.height*8))), 1)
	}

	runes := []rune(blockChars)
	var sb strings.Builder
	for row := 0; row < m.height; row++ {
		if row > 0 {
			sb.WriteString("\n")
		}
		base := (m.height - 1 - row) * 8

		// Emit runs of equally styled columns to keep escape codes down.
		var run strings.Builder
		runPlayed := played[0]
		for col := 0; col < m.width; col++ {
			if played[col] != runPlayed {
				sb.WriteString(styleFor(runPlayed).Render(run.String()))
				run.Reset()
				runPlayed = played[col]
			}
			fill := min(max(levels[col]-base, 0), 8)
			run.WriteRune(runes[fill])
		}
		sb.WriteString(styleFor(runPlayed).Render(run.String()))
	}
	return sb.String()
}

// columnBar maps a terminal column to the bar drawn in it.
func columnBar(col, width, bars int) int {
	return col * bars / width
}

// playedColumns marks the columns whose bar lies before the progress index.
func playedColumns(width, bars int, progress float64) []bool {
	played := make([]bool, width)
	for col := range played {
		played[col] = float64(columnBar(col, width, bars)) < progress
	}
	return played
}

func styleFor(played bool) lipgloss.Style {
	if played {
		return playedStyle
	}
	return unplayedStyle
}

// Preview renders a single-row profile without progress, for non
// interactive output.
func Preview(samples []int, width int) string {
	m := New(0, 1, 0).SetSize(width, 1).SetSamples(samples)
	return m.View()
}
