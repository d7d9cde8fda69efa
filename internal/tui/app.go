package tui

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/quantmind-br/bundlefile/internal/config"
)

type state int

const (
	stateMenu state = iota
	stateForm
	stateConfirm
	stateSaved
	stateError
)

// Model is the bubbletea model of the editor. The menu lists Categories
// followed by a save entry at index len(Categories).
type Model struct {
	state       state
	values      *ConfigValues
	menuIndex   int
	currentForm *huh.Form
	err         error
	dirty       bool
	saveFunc    func(*config.Config) error
	accessible  bool
	target      string
	styles      styles
}

// Options configures an editor session
type Options struct {
	Config *config.Config
	// SaveFunc persists the edited configuration
	SaveFunc   func(*config.Config) error
	Accessible bool
	// Target is the file shown as the save destination
	Target string
	Input  io.Reader
	Output io.Writer
}

// NewModel starts in the menu with the values of opts.Config, or the
// defaults when it is nil
func NewModel(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	return Model{
		values:     FromConfig(cfg),
		saveFunc:   opts.SaveFunc,
		accessible: opts.Accessible,
		target:     opts.Target,
		styles:     newStyles(opts.Accessible),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, isKey := msg.(tea.KeyMsg)

	switch m.state {
	case stateMenu:
		if isKey {
			return m.updateMenu(key)
		}
	case stateForm:
		if isKey && key.String() == "esc" {
			m.state = stateMenu
			m.currentForm = nil
			return m, nil
		}
		return m.updateCurrentForm(msg)
	case stateConfirm:
		if isKey {
			return m.updateConfirm(key)
		}
	case stateSaved, stateError:
		if isKey {
			return m, tea.Quit
		}
	}
	return m, nil
}

// updateCurrentForm forwards msg to the open form and returns to the menu
// once it completes
func (m Model) updateCurrentForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.currentForm == nil {
		m.state = stateMenu
		return m, nil
	}
	next, cmd := m.currentForm.Update(msg)
	if f, ok := next.(*huh.Form); ok {
		m.currentForm = f
	}
	if m.currentForm.State != huh.StateCompleted {
		return m, cmd
	}
	m.dirty = true
	m.state = stateMenu
	m.currentForm = nil
	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		if !m.dirty {
			return m, tea.Quit
		}
		m.state = stateConfirm
	case "up", "k":
		m.menuIndex = max(m.menuIndex-1, 0)
	case "down", "j":
		m.menuIndex = min(m.menuIndex+1, len(Categories))
	case "s":
		return m.handleSave()
	case "enter":
		if m.menuIndex == len(Categories) {
			return m.handleSave()
		}
		return m.openForm(Categories[m.menuIndex].ID)
	}
	return m, nil
}

func (m Model) openForm(category string) (tea.Model, tea.Cmd) {
	form := GetFormForCategory(category, m.values, m.accessible)
	if form == nil {
		return m, nil
	}
	m.state = stateForm
	m.currentForm = form
	return m, form.Init()
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		return m.handleSave()
	case "n", "N", "esc":
		return m, tea.Quit
	case "c":
		m.state = stateMenu
	}
	return m, nil
}

// handleSave validates the edited values and hands them to the save func
func (m Model) handleSave() (tea.Model, tea.Cmd) {
	cfg, err := m.values.ToConfig()
	if err == nil && m.saveFunc != nil {
		err = m.saveFunc(cfg)
	}
	if err != nil {
		m.state = stateError
		m.err = err
		return m, nil
	}
	m.state = stateSaved
	m.dirty = false
	return m, nil
}

// Err returns the error that ended the session, if any
func (m Model) Err() error {
	return m.err
}

func (m Model) View() string {
	var body string
	switch m.state {
	case stateMenu:
		body = m.renderMenu()
	case stateForm:
		if m.currentForm != nil {
			body = m.currentForm.View()
		}
	case stateConfirm:
		body = m.styles.confirm.Render("You have unsaved changes.\n\nSave before quitting?\n\n[y] Yes  [n] No  [c] Cancel")
	case stateSaved:
		dest := "Configuration saved."
		if m.target != "" {
			dest = "Configuration saved to " + m.target
		}
		body = m.styles.ok.Render(dest) + "\n\nPress any key to exit."
	case stateError:
		body = m.styles.fail.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\nPress any key to exit."
	}
	return m.styles.title.Render("bundlefile configuration") + "\n\n" + body
}

func (m Model) menuLine(i int, label string) string {
	if i == m.menuIndex {
		return m.styles.selected.Render("> " + label)
	}
	return m.styles.unselected.Render("  " + label)
}

func (m Model) renderMenu() string {
	var s strings.Builder
	for i, cat := range Categories {
		s.WriteString(m.menuLine(i, cat.Name))
		if i == m.menuIndex {
			s.WriteString(m.styles.hint.Render("  " + cat.Description))
		}
		s.WriteString("\n")
	}

	save := "Save to " + m.target
	if m.target == "" {
		save = "Save"
	}
	if m.dirty {
		save += " *"
	}
	s.WriteString("\n" + m.menuLine(len(Categories), save) + "\n\n")
	s.WriteString(m.styles.help.Render("up/down navigate, enter select, s save, q quit"))
	return s.String()
}

// Run starts the editor and blocks until the user quits
func Run(opts Options) error {
	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}

	final, err := tea.NewProgram(NewModel(opts), progOpts...).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok {
		return m.Err()
	}
	return nil
}
