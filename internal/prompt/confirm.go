package prompt

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

type confirmModel struct {
	label   string
	def     bool
	value   bool
	done    bool
	aborted bool
}

func newConfirmModel(label string, def bool) confirmModel {
	return confirmModel{label: label, def: def, value: def}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc":
		m.aborted = true
		return m, tea.Quit
	case "enter":
		m.value = m.def
	case "y", "Y":
		m.value = true
	case "n", "N":
		m.value = false
	default:
		return m, nil
	}

	m.done = true
	return m, tea.Quit
}

func (m confirmModel) View() string {
	question := fmt.Sprintf("%s %s", questionStyle.Render("?"), labelStyle.Render(m.label))
	if m.done {
		answer := "No"
		if m.value {
			answer = "Yes"
		}
		return fmt.Sprintf("%s %s\n", question, answerStyle.Render(answer))
	}
	if m.aborted {
		return question + "\n"
	}

	hint := "(y/N)"
	if m.def {
		hint = "(Y/n)"
	}
	return fmt.Sprintf("%s %s ", question, hintStyle.Render(hint))
}
