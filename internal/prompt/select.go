package prompt

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const pageSize = 10

type selectModel struct {
	label   string
	options []string
	cursor  int
	offset  int
	done    bool
	aborted bool
}

func newSelectModel(label string, options []string) selectModel {
	return selectModel{label: label, options: options}
}

func (m selectModel) Init() tea.Cmd {
	return nil
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc":
		m.aborted = true
		return m, tea.Quit
	case "enter":
		m.done = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		} else {
			m.cursor = len(m.options) - 1
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		} else {
			m.cursor = 0
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.options) - 1
	}

	m.offset = scrollOffset(m.offset, m.cursor, len(m.options))
	return m, nil
}

func (m selectModel) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", questionStyle.Render("?"), labelStyle.Render(m.label))

	if m.done {
		fmt.Fprintf(&b, " %s\n", answerStyle.Render(m.options[m.cursor]))
		return b.String()
	}
	if m.aborted {
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(" " + hintStyle.Render("(use arrow keys)") + "\n")
	end := min(m.offset+pageSize, len(m.options))
	for i := m.offset; i < end; i++ {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("❯ "+m.options[i]) + "\n")
		} else {
			b.WriteString("  " + m.options[i] + "\n")
		}
	}
	if len(m.options) > pageSize {
		b.WriteString(hintStyle.Render("(move up and down to reveal more choices)") + "\n")
	}
	return b.String()
}

// scrollOffset keeps cursor inside the visible page
func scrollOffset(offset, cursor, total int) int {
	if total <= pageSize {
		return 0
	}
	if cursor < offset {
		return cursor
	}
	if cursor >= offset+pageSize {
		return cursor - pageSize + 1
	}
	return offset
}
