package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
)

var (
	// ErrAborted is returned when the operator cancels a prompt
	ErrAborted = errors.New("prompt aborted")
	// ErrNoOptions is returned when Select is called without options
	ErrNoOptions = errors.New("no options to select from")
)

// Prompter asks the operator to choose or confirm
type Prompter interface {
	Select(label string, options []string) (int, error)
	Confirm(label string, def bool) (bool, error)
}

// Terminal prompts interactively using small bubbletea programs
type Terminal struct {
	input  io.Reader
	output io.Writer
}

// NewTerminal creates a prompter on stdin/stdout
func NewTerminal() *Terminal {
	return &Terminal{input: os.Stdin, output: os.Stdout}
}

// NewTerminalWithIO creates a prompter reading keys from in and rendering to out
func NewTerminalWithIO(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{input: in, output: out}
}

// Select shows options as a list and returns the index of the chosen one
func (t *Terminal) Select(label string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, ErrNoOptions
	}

	final, err := t.run(newSelectModel(label, options))
	if err != nil {
		return -1, err
	}

	model := final.(selectModel)
	if model.aborted {
		return -1, ErrAborted
	}

	log.Debug().Str("label", label).Str("choice", options[model.cursor]).Msg("Selected option")
	return model.cursor, nil
}

// Confirm asks a yes/no question. Enter accepts def.
func (t *Terminal) Confirm(label string, def bool) (bool, error) {
	final, err := t.run(newConfirmModel(label, def))
	if err != nil {
		return false, err
	}

	model := final.(confirmModel)
	if model.aborted {
		return false, ErrAborted
	}

	log.Debug().Str("label", label).Bool("answer", model.value).Msg("Confirmed prompt")
	return model.value, nil
}

func (t *Terminal) run(model tea.Model) (tea.Model, error) {
	program := tea.NewProgram(model, tea.WithInput(t.input), tea.WithOutput(t.output))

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to run prompt: %w", err)
	}
	return final, nil
}
