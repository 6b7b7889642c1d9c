package components

import (
	tea "charm.land/bubbletea/v2"
)

// MenuItem is one entry of a Menu. Shortcut, when set, is a key that runs
// the item directly.
type MenuItem struct {
	Label    string
	Shortcut string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical list of actions. The cursor never rests on a disabled
// item.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu creates a menu with the cursor on the first enabled item.
func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items}
	if i := m.step(-1, 1); i >= 0 {
		m.Selected = i
	}
	return m
}

// step returns the next enabled index from start in direction dir, or -1.
func (m Menu) step(start, dir int) int {
	for i := start + dir; i >= 0 && i < len(m.Items); i += dir {
		if !m.Items[i].Disabled {
			return i
		}
	}
	return -1
}

func (m Menu) run(i int) tea.Cmd {
	item := m.Items[i]
	if item.Disabled || item.Action == nil {
		return nil
	}
	return item.Action()
}

// Update moves the cursor and runs actions.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if i := m.step(m.Selected, -1); i >= 0 {
			m.Selected = i
		}
		return m, nil
	case "down", "j":
		if i := m.step(m.Selected, 1); i >= 0 {
			m.Selected = i
		}
		return m, nil
	case "enter":
		if m.Selected >= 0 && m.Selected < len(m.Items) {
			return m, m.run(m.Selected)
		}
		return m, nil
	}

	for i, item := range m.Items {
		if item.Shortcut != "" && item.Shortcut == key && !item.Disabled {
			m.Selected = i
			return m, m.run(i)
		}
	}
	return m, nil
}
