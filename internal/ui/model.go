// Package ui implements the interactive terminal interface: a filterable
// template list, a slot-filling form, and a rendered-prompt view with
// clipboard copy.
package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/dbod-pe/promptpack/internal/clipboard"
	"github.com/dbod-pe/promptpack/internal/errors"
	"github.com/dbod-pe/promptpack/internal/models"
	"github.com/dbod-pe/promptpack/internal/service"
)

// createGlamourRenderer creates a glamour renderer with contrast handling
// matched to the terminal's color capabilities
func createGlamourRenderer(wordWrap int) (*glamour.TermRenderer, error) {
	if style := os.Getenv("GLAMOUR_STYLE"); style != "" {
		return glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(wordWrap),
		)
	}

	profile := termenv.ColorProfile()

	var styleOption glamour.TermRendererOption
	switch {
	case profile == termenv.Ascii:
		styleOption = glamour.WithAutoStyle()
	case lipgloss.HasDarkBackground():
		styleOption = glamour.WithStandardStyle("dark")
	default:
		styleOption = glamour.WithStandardStyle("light")
	}

	return glamour.NewTermRenderer(
		styleOption,
		glamour.WithColorProfile(profile),
		glamour.WithWordWrap(wordWrap),
	)
}

// viewState identifies the active screen
type viewState int

const (
	viewList viewState = iota
	viewPreview
	viewForm
	viewResult
)

// templateItem adapts a template to the list delegate's item interface
type templateItem struct {
	tmpl *models.Template
}

func (i templateItem) FilterValue() string { return i.tmpl.FilterValue() }
func (i templateItem) Title() string       { return i.tmpl.Title() }
func (i templateItem) Description() string { return i.tmpl.ListDescription() }

// Messages for async operations
type loadCompleteMsg struct {
	templates []*models.Template
	err       error
}

type renderCompleteMsg struct {
	result *service.RenderResult
	err    error
}

type clearStatusMsg struct{}

// loadTemplatesCmd loads the library (fast with the metadata cache)
func loadTemplatesCmd(svc *service.Service) tea.Cmd {
	return func() tea.Msg {
		templates, err := svc.ListTemplates()
		return loadCompleteMsg{templates: templates, err: err}
	}
}

// renderCmd runs validation and substitution off the update loop
func renderCmd(svc *service.Service, id string, inputs map[string]interface{}) tea.Cmd {
	return func() tea.Msg {
		result, err := svc.Render(id, inputs)
		return renderCompleteMsg{result: result, err: err}
	}
}

func clearStatusCmd() tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// Model is the root bubbletea model
type Model struct {
	service      *service.Service
	errorHandler *errors.TUIErrorHandler

	state    viewState
	list     list.Model
	viewport viewport.Model
	form     *SlotForm

	glamourRenderer *glamour.TermRenderer

	current *models.Template
	result  *service.RenderResult

	statusMsg string
	width     int
	height    int
	ready     bool
}

// NewModel creates the root model for the interactive interface
func NewModel(svc *service.Service) *Model {
	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 80, 20)
	l.Title = "Prompt Templates"
	l.SetShowStatusBar(false)
	l.Styles.Title = StyleTitle

	vp := viewport.New(80, 20)

	renderer, err := createGlamourRenderer(78)
	if err != nil {
		renderer = nil
	}

	return &Model{
		service:         svc,
		errorHandler:    errors.NewTUIErrorHandler(false),
		state:           viewList,
		list:            l,
		viewport:        vp,
		glamourRenderer: renderer,
	}
}

// Init loads the template library
func (m *Model) Init() tea.Cmd {
	return loadTemplatesCmd(m.service)
}

// Update handles all messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.list.SetSize(msg.Width-2, msg.Height-4)
		m.viewport.Width = msg.Width - 2
		m.viewport.Height = msg.Height - 6
		if m.form != nil {
			m.form.Resize(msg.Width, msg.Height)
		}
		return m, nil

	case loadCompleteMsg:
		if msg.err != nil {
			m.statusMsg = m.errorHandler.FormatError(msg.err)
			return m, clearStatusCmd()
		}
		items := make([]list.Item, len(msg.templates))
		for i, t := range msg.templates {
			items[i] = templateItem{tmpl: t}
		}
		return m, m.list.SetItems(items)

	case renderCompleteMsg:
		if msg.err != nil {
			m.statusMsg = m.errorHandler.FormatError(msg.err)
			return m, clearStatusCmd()
		}
		m.result = msg.result
		m.state = viewResult
		m.viewport.SetContent(msg.result.Text)
		m.viewport.GotoTop()
		if msg.result.TranscriptPath != "" {
			m.statusMsg = fmt.Sprintf("Transcript saved to %s", msg.result.TranscriptPath)
			return m, clearStatusCmd()
		}
		return m, nil

	case clearStatusMsg:
		m.statusMsg = ""
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, m.updateActiveComponent(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global quit, except while typing in the form or filtering
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state {
	case viewList:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "enter":
			if item, ok := m.list.SelectedItem().(templateItem); ok {
				m.showPreview(item.tmpl)
				return m, nil
			}
		case "r":
			if item, ok := m.list.SelectedItem().(templateItem); ok {
				m.showForm(item.tmpl)
				return m, nil
			}
		}

	case viewPreview:
		switch msg.String() {
		case "esc", "q":
			m.state = viewList
			return m, nil
		case "r":
			m.showForm(m.current)
			return m, nil
		case "c":
			return m, m.copyToClipboard(m.current.Content)
		}

	case viewForm:
		switch msg.String() {
		case "esc":
			m.state = viewList
			m.form = nil
			return m, nil
		case "ctrl+s":
			inputs := m.form.Values()
			m.form = nil
			m.state = viewList
			return m, renderCmd(m.service, m.current.ID, inputs)
		}

	case viewResult:
		switch msg.String() {
		case "esc", "q":
			m.state = viewList
			m.result = nil
			return m, nil
		case "c":
			return m, m.copyToClipboard(m.result.Text)
		case "r":
			m.showForm(m.current)
			return m, nil
		}
	}

	return m, m.updateActiveComponent(msg)
}

// updateActiveComponent routes messages to the component of the active view
func (m *Model) updateActiveComponent(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.state {
	case viewList:
		m.list, cmd = m.list.Update(msg)
	case viewPreview, viewResult:
		m.viewport, cmd = m.viewport.Update(msg)
	case viewForm:
		cmd = m.form.Update(msg)
	}
	return cmd
}

func (m *Model) showPreview(tmpl *models.Template) {
	m.current = tmpl
	m.state = viewPreview

	content := tmpl.Content
	if m.glamourRenderer != nil {
		if rendered, err := m.glamourRenderer.Render(content); err == nil {
			content = rendered
		}
	}
	m.viewport.SetContent(content)
	m.viewport.GotoTop()
}

func (m *Model) showForm(tmpl *models.Template) {
	if tmpl == nil {
		return
	}
	m.current = tmpl
	m.form = NewSlotForm(tmpl)
	if m.ready {
		m.form.Resize(m.width, m.height)
	}
	m.state = viewForm
}

func (m *Model) copyToClipboard(text string) tea.Cmd {
	if err := clipboard.Copy(text); err != nil {
		m.statusMsg = m.errorHandler.FormatError(err)
	} else {
		m.statusMsg = "Copied to clipboard"
	}
	return clearStatusCmd()
}

// View renders the active screen
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var body string
	var help string

	switch m.state {
	case viewList:
		body = m.list.View()
		help = "enter: preview • r: render • /: filter • q: quit"

	case viewPreview:
		title := StyleTitle.Render(m.current.Title())
		body = title + "\n" + m.viewport.View()
		help = "r: render • c: copy raw • esc: back"

	case viewForm:
		title := StyleTitle.Render("Render: " + m.current.Title())
		body = title + "\n" + m.form.View()
		help = "tab/shift+tab: fields • ctrl+s: render • esc: cancel"

	case viewResult:
		title := StyleTitle.Render("Rendered: " + m.current.Title())
		body = title + "\n" + m.viewport.View()
		help = "c: copy • r: render again • esc: back"
	}

	status := ""
	if m.statusMsg != "" {
		status = "\n" + StyleWarning.Render(m.statusMsg)
	}

	return body + status + "\n" + StyleHelp.Render(help)
}

// Run starts the interactive interface and blocks until exit
func Run(svc *service.Service) error {
	p := tea.NewProgram(NewModel(svc), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCommandFailed, "Interactive interface failed")
	}
	return nil
}
