package seekbar

import (
	"math"

	tea "github.com/charmbracelet/bubbletea"
)

type gesturePhase int

const (
	phaseIdle gesturePhase = iota
	phasePressed
	phaseDragging
)

// detector turns raw terminal mouse events into taps and drags. A press
// becomes a drag only once the pointer has travelled further than the touch
// slop; the first reported delta excludes the slop, like a platform drag
// detector does.
type detector struct {
	phase  gesturePhase
	pressX float64
	lastX  float64
}

func (m Model) contains(x, y int) bool {
	return m.width > 0 &&
		x >= m.originX && x < m.originX+m.width &&
		y >= m.originY && y < m.originY+m.height
}

func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	x := float64(msg.X - m.originX)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !m.contains(msg.X, msg.Y) {
			return m, nil
		}
		m.detector = detector{phase: phasePressed, pressX: x, lastX: x}
		return m.Press(x), nil

	case tea.MouseActionMotion:
		switch m.detector.phase {
		case phasePressed:
			travel := x - m.detector.pressX
			if math.Abs(travel) <= m.touchSlop {
				return m, nil
			}
			m.detector.phase = phaseDragging
			m.detector.lastX = x
			return m.Drag(travel - math.Copysign(m.touchSlop, travel)), nil
		case phaseDragging:
			delta := x - m.detector.lastX
			m.detector.lastX = x
			if delta == 0 {
				return m, nil
			}
			return m.Drag(delta), nil
		}

	case tea.MouseActionRelease:
		d := m.detector
		m.detector = detector{}
		switch d.phase {
		case phasePressed:
			return m.Tap(d.pressX)
		case phaseDragging:
			return m.Release()
		}
	}
	return m, nil
}
