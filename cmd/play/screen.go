package play

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/gigurra/waveseek/cmd/play/picker"
	"github.com/gigurra/waveseek/cmd/play/seekbar"
	"github.com/gigurra/waveseek/cmd/play/viewstate"
	"github.com/mattn/go-runewidth"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	clockStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250"))
	playingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))  // Green
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226")) // Yellow
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	barStyle     = lipgloss.NewStyle().PaddingLeft(marginX)
)

var clipboardWriteAll = clipboard.WriteAll

const (
	marginX = 2
	// Rows above the seek bar on the player screen: title and a blank line.
	barTop = 2
)

// controller is the part of the view-state holder the screen drives.
type controller interface {
	State() viewstate.State
	Subscribe() (<-chan viewstate.State, func())
	OnFilePicked(ctx context.Context, ref string) error
	Reset()
	Seek(position time.Duration)
	SeekBy(delta time.Duration)
	PlayPause() error
}

type stateMsg viewstate.State

type pickedMsg struct {
	path string
	err  error
}

type dialogMsg struct {
	path string
	err  error
}

type fileGoneMsg struct {
	path string
}

type keyMap struct {
	PlayPause key.Binding
	Back      key.Binding
	Forward   key.Binding
	Backward  key.Binding
	Copy      key.Binding
	Quit      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PlayPause, k.Backward, k.Forward, k.Copy, k.Back, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

type pickerKeyMap struct {
	Open   key.Binding
	Dialog key.Binding
	Quit   key.Binding
}

func (k pickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Dialog, k.Quit}
}

func (k pickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var playerKeys = keyMap{
	PlayPause: key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "play/pause")),
	Back:      key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
	Forward:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "forward")),
	Backward:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "rewind")),
	Copy:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy time")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

var pickerKeys = pickerKeyMap{
	Open:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Dialog: key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "browse")),
	Quit:   key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
}

type screenOptions struct {
	Bars        int
	BarHeight   int
	TouchSlop   float64
	SeekStep    time.Duration
	OpenDialog  bool
	InitialFile string
}

type model struct {
	ctx    context.Context
	ctl    controller
	picker picker.Picker
	opts   screenOptions

	states      <-chan viewstate.State
	unsubscribe func()
	state       viewstate.State

	bar   seekbar.Model
	input textinput.Model
	help  help.Model

	width  int
	height int
	status string

	stopWatch context.CancelFunc
}

func newModel(ctx context.Context, ctl controller, p picker.Picker, opts screenOptions) model {
	input := textinput.New()
	input.Placeholder = "path/to/song.mp3"
	input.Prompt = "File: "
	input.Focus()

	states, unsubscribe := ctl.Subscribe()
	return model{
		ctx:         ctx,
		ctl:         ctl,
		picker:      p,
		opts:        opts,
		states:      states,
		unsubscribe: unsubscribe,
		bar:         seekbar.New(opts.Bars, opts.BarHeight, opts.TouchSlop).SetOrigin(marginX, barTop),
		input:       input,
		help:        help.New(),
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForState(m.states), textinput.Blink}
	if m.opts.InitialFile != "" {
		cmds = append(cmds, m.pickCmd(m.opts.InitialFile))
	} else if m.opts.OpenDialog {
		cmds = append(cmds, m.dialogCmd())
	}
	return tea.Batch(cmds...)
}

func waitForState(states <-chan viewstate.State) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-states
		if !ok {
			return nil
		}
		return stateMsg(s)
	}
}

func (m model) pickCmd(path string) tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		return pickedMsg{path: path, err: ctl.OnFilePicked(ctx, path)}
	}
}

func (m model) dialogCmd() tea.Cmd {
	if m.picker == nil {
		return nil
	}
	ctx, p := m.ctx, m.picker
	return func() tea.Msg {
		path, err := p.Pick(ctx)
		return dialogMsg{path: path, err: err}
	}
}

// watchFileCmd reports when path is removed or renamed. The parent directory
// is watched since a watch on the file itself is dropped on rename.
func watchFileCmd(ctx context.Context, path string) tea.Cmd {
	return func() tea.Msg {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil
		}
		defer watcher.Close()

		if err := watcher.Add(filepath.Dir(path)); err != nil {
			return nil
		}

		for {
			select {
			case <-ctx.Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					return fileGoneMsg{path: path}
				}
			case <-watcher.Errors:
				return nil
			}
		}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar = m.bar.SetSize(max(m.width-2*marginX, 0), 0)
		m.help.Width = m.width
		m.input.Width = max(m.width-2*marginX-len(m.input.Prompt)-1, 10)
		return m, nil

	case stateMsg:
		return m.applyState(viewstate.State(msg))

	case pickedMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		return m, nil

	case dialogMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		if msg.path == "" {
			return m, nil
		}
		return m.open(msg.path)

	case fileGoneMsg:
		if msg.path == m.state.File {
			m.ctl.Reset()
			m.status = fmt.Sprintf("%s was removed", filepath.Base(msg.path))
		}
		return m, nil

	case seekbar.SeekMsg:
		m.ctl.Seek(msg.Position)
		return m, nil

	case tea.MouseMsg:
		if m.state.Phase == viewstate.Idle {
			return m, nil
		}
		var cmd tea.Cmd
		m.bar, cmd = m.bar.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.state.Phase == viewstate.Idle {
			return m.updatePicker(msg)
		}
		return m.updatePlayer(msg)
	}

	return m, nil
}

func (m model) applyState(s viewstate.State) (tea.Model, tea.Cmd) {
	prev := m.state
	m.state = s
	cmds := []tea.Cmd{waitForState(m.states)}

	if s.File != prev.File {
		if m.stopWatch != nil {
			m.stopWatch()
			m.stopWatch = nil
		}
		if s.File != "" {
			ctx, cancel := context.WithCancel(m.ctx)
			m.stopWatch = cancel
			cmds = append(cmds, watchFileCmd(ctx, s.File))
			m.status = ""
		}
	}

	switch {
	case s.Phase == viewstate.Ready && (prev.Phase != viewstate.Ready || prev.File != s.File):
		m.bar = m.bar.SetSamples(s.Samples)
	case s.Phase != viewstate.Ready && prev.Phase == viewstate.Ready:
		m.bar = m.bar.SetSamples(nil)
	}
	m.bar = m.bar.SetPlayback(s.Position, s.Duration)

	if s.Phase == viewstate.Idle && prev.Phase != viewstate.Idle {
		m.input.Focus()
	}
	return m, tea.Batch(cmds...)
}

func (m model) open(path string) (tea.Model, tea.Cmd) {
	path = picker.ExpandPath(path)
	if err := picker.Validate(path); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.status = ""
	m.input.SetValue("")
	m.input.Blur()
	return m, m.pickCmd(path)
}

func (m model) quit() (tea.Model, tea.Cmd) {
	if m.stopWatch != nil {
		m.stopWatch()
		m.stopWatch = nil
	}
	m.ctl.Reset()
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	return m, tea.Quit
}

func (m model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, pickerKeys.Quit):
		return m.quit()
	case key.Matches(msg, pickerKeys.Dialog):
		return m, m.dialogCmd()
	case key.Matches(msg, pickerKeys.Open):
		if strings.TrimSpace(m.input.Value()) == "" {
			return m, nil
		}
		return m.open(m.input.Value())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) updatePlayer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, playerKeys.Quit):
		return m.quit()
	case key.Matches(msg, playerKeys.Back):
		m.ctl.Reset()
		m.status = ""
	case key.Matches(msg, playerKeys.PlayPause):
		if err := m.ctl.PlayPause(); err != nil {
			m.status = err.Error()
		}
	case key.Matches(msg, playerKeys.Forward):
		m.ctl.SeekBy(m.opts.SeekStep)
	case key.Matches(msg, playerKeys.Backward):
		m.ctl.SeekBy(-m.opts.SeekStep)
	case key.Matches(msg, playerKeys.Copy):
		ts := formatClock(m.state.Position)
		if err := clipboardWriteAll(ts); err != nil {
			m.status = fmt.Sprintf("copy failed: %v", err)
		} else {
			m.status = "copied " + ts
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.state.Phase == viewstate.Idle {
		return m.pickerView()
	}
	return m.playerView()
}

func (m model) pickerView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("waveseek"))
	b.WriteString("\n\n")
	b.WriteString(strings.Repeat(" ", marginX))
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	if m.status != "" {
		b.WriteString(statusStyle.Render("  " + m.status))
		b.WriteString("\n")
	}
	b.WriteString("  ")
	b.WriteString(m.help.View(pickerKeys))
	b.WriteString("\n")
	return b.String()
}

func (m model) playerView() string {
	var b strings.Builder

	name := filepath.Base(m.state.File)
	if m.width > 0 {
		name = clipTitle(name, m.width)
	}
	b.WriteString(titleStyle.Render(name))
	b.WriteString("\n\n")

	b.WriteString(barStyle.Render(m.bar.View()))
	b.WriteString("\n\n")

	b.WriteString("  ")
	b.WriteString(clockStyle.Render(formatClock(m.state.Position) + " / " + formatClock(m.state.Duration)))
	b.WriteString("  ")
	switch {
	case m.state.Phase == viewstate.Extracting:
		b.WriteString(helpStyle.Render("analysing waveform…"))
	case m.state.IsPlaying:
		b.WriteString(playingStyle.Render("▶ playing"))
	default:
		b.WriteString(pausedStyle.Render("⏸ paused"))
	}
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(statusStyle.Render("  " + m.status))
	}
	b.WriteString("\n  ")
	b.WriteString(m.help.View(playerKeys))
	b.WriteString("\n")
	return b.String()
}

// formatClock renders d as mm:ss, or h:mm:ss from an hour up.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	h, mins, s := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mins, s)
	}
	return fmt.Sprintf("%02d:%02d", mins, s)
}

// clipTitle shortens s to at most cells terminal columns, marking the cut
// with an ellipsis.
func clipTitle(s string, cells int) string {
	if cells <= 0 {
		return ""
	}
	return runewidth.Truncate(s, cells, "…")
}
