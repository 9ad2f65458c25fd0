package ui

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/cloudtodo/internal/auth"
	"github.com/idilsaglam/cloudtodo/internal/model"
	"github.com/idilsaglam/cloudtodo/internal/todo"
)

// Authenticator is the sign-in side of the gate. *auth.Store implements it.
type Authenticator interface {
	Session() (*auth.Session, error)
	SignIn(token string) (*auth.Session, error)
}

// Connect builds the controller for a signed-in session.
type Connect func(*auth.Session) *todo.Controller

type screen int

const (
	screenGate screen = iota
	screenTodos
)

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeEdit
)

const (
	inputName = iota
	inputDescription
)

const (
	notSynced = "not synced yet, press r to reload"
	reloading = "reloading..."
)

// ctrlMsg tags controller results with the session that issued them so a
// late reply cannot land in the next user's list.
type ctrlMsg struct {
	gen int
	msg tea.Msg
}

// listItem adapts model.Todo to bubbles/list.Item
type listItem struct{ todo model.Todo }

func (i listItem) Title() string       { return i.todo.Name }
func (i listItem) Description() string { return i.todo.Description }
func (i listItem) FilterValue() string { return i.todo.Name }

// Custom delegate: name on the first line, description below.
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 2 }
func (d itemDelegate) Spacing() int                              { return 1 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	t := current
	name := t.Title.Render(it.todo.Name)
	if !it.todo.HasID() {
		name += " " + t.Pending.Render(t.SymUnsynced+" unsynced")
	}
	prefix := strings.Repeat(" ", lipgloss.Width(t.SymCursor))
	if index == m.Index() {
		prefix = t.Selected.Render(t.SymCursor)
	}
	width := m.Width() - lipgloss.Width(prefix)
	fmt.Fprintln(w, prefix+Truncate(name, width))
	fmt.Fprint(w, strings.Repeat(" ", lipgloss.Width(prefix))+Truncate(t.Muted.Render(it.todo.Description), width))
}

// App is the Bubble Tea model: an authentication gate in front of the
// todo list and its create form.
type App struct {
	auth    Authenticator
	connect Connect
	logger  *slog.Logger

	screen  screen
	session *auth.Session
	ctrl    *todo.Controller
	gen     int

	width, height int

	gateInput textinput.Model
	gateErr   string

	list    list.Model
	spinner spinner.Model
	mode    mode
	inputs  [2]textinput.Model
	focus   int
	editID  string
	detail  bool
	status  string
}

func NewApp(authn Authenticator, connect Connect, logger *slog.Logger) App {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := App{
		auth:    authn,
		connect: connect,
		logger:  logger,
		width:   80,
		height:  24,
	}

	m.gateInput = textinput.New()
	m.gateInput.Prompt = "> "
	m.gateInput.Placeholder = "Paste your access token..."
	m.gateInput.EchoMode = textinput.EchoPassword
	m.gateInput.EchoCharacter = '•'
	m.gateInput.CharLimit = 4096

	for i := range m.inputs {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.CharLimit = 200
		m.inputs[i] = ti
	}
	m.inputs[inputName].Placeholder = "Name"
	m.inputs[inputDescription].Placeholder = "Description"

	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.HelpStyle = current.Help
	l.Styles.PaginationStyle = current.Help
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")

	// Extend help with our bindings
	extra := []key.Binding{
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "details")),
		key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sign out")),
	}
	l.AdditionalShortHelpKeys = func() []key.Binding { return extra }
	l.AdditionalFullHelpKeys = func() []key.Binding { return extra }
	m.list = l

	sess, err := authn.Session()
	switch {
	case errors.Is(err, auth.ErrExpired):
		m.gateErr = "Session expired, sign in again"
	case err != nil:
		m.gateErr = err.Error()
	}
	if sess != nil {
		m.enter(sess)
	} else {
		m.gateInput.Focus()
	}
	m.relayout()
	return m
}

func (m App) Init() tea.Cmd {
	if m.screen == screenGate {
		return textinput.Blink
	}
	return tea.Batch(m.wrap(m.ctrl.LoadAll()), m.spinner.Tick)
}

// enter opens the todo screen for sess.
func (m *App) enter(sess *auth.Session) {
	m.session = sess
	m.ctrl = m.connect(sess)
	m.gen++
	m.screen = screenTodos
	m.mode = modeBrowse
	m.gateErr = ""
	m.status = ""
	m.gateInput.SetValue("")
	m.gateInput.Blur()
	m.list.SetItems(nil)
	m.logger.Info("signed in", "user", sess.CurrentUser().Name)
}

func (m *App) signOut() {
	if err := m.session.SignOut(); err != nil {
		if errors.Is(err, auth.ErrEnvToken) {
			m.status = "signed in through " + auth.TokenEnv + ", unset it to sign out"
			return
		}
		m.logger.Error("sign out", "error", err)
		m.status = "sign out failed: " + err.Error()
		return
	}
	m.logger.Info("signed out", "user", m.session.CurrentUser().Name)
	m.session = nil
	m.ctrl = nil
	m.gen++
	m.screen = screenGate
	m.detail = false
	m.status = ""
	m.gateInput.SetValue("")
	m.gateInput.Focus()
}

func (m App) wrap(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	gen := m.gen
	return func() tea.Msg { return ctrlMsg{gen: gen, msg: cmd()} }
}

// syncList mirrors the controller's list into the list widget.
func (m *App) syncList() tea.Cmd {
	todos := m.ctrl.Todos()
	items := make([]list.Item, 0, len(todos))
	for _, t := range todos {
		items = append(items, listItem{todo: t})
	}
	return m.list.SetItems(items)
}

func (m *App) relayout() {
	reserved := 7 // greeting, status, borders
	if m.mode != modeBrowse {
		reserved += 5
	}
	if m.detail {
		reserved += m.height / 3
	}
	h := m.height - reserved
	if h < 3 {
		h = 3
	}
	m.list.SetSize(m.width-4, h)
	for i := range m.inputs {
		m.inputs[i].Width = m.width - 10
	}
	m.gateInput.Width = m.width - 10
}

func (m App) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it.todo, ok
}

func (m App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.relayout()
		return m, nil

	case ctrlMsg:
		if msg.gen != m.gen || m.ctrl == nil {
			return m, nil
		}
		m.ctrl.Handle(msg.msg)
		if _, ok := msg.msg.(todo.LoadedMsg); ok && m.status == reloading {
			m.status = ""
		}
		return m, m.syncList()

	case spinner.TickMsg:
		if m.ctrl == nil || m.ctrl.State() != todo.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.screen == screenGate {
		return m.updateGate(msg)
	}
	if m.mode != modeBrowse {
		return m.updateForm(msg)
	}
	return m.updateBrowse(msg)
}

func (m App) updateGate(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			sess, err := m.auth.SignIn(m.gateInput.Value())
			switch {
			case errors.Is(err, auth.ErrEmptyToken):
				m.gateErr = "Paste a token first"
				return m, nil
			case errors.Is(err, auth.ErrEnvToken):
				m.gateErr = "Unset " + auth.TokenEnv + " to sign in with another token"
				return m, nil
			case err != nil:
				m.gateErr = err.Error()
				return m, nil
			}
			m.enter(sess)
			m.relayout()
			return m, tea.Batch(m.wrap(m.ctrl.LoadAll()), m.spinner.Tick)
		}
	}
	var cmd tea.Cmd
	m.gateInput, cmd = m.gateInput.Update(msg)
	return m, cmd
}

func (m App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "tab", "shift+tab", "up", "down":
			m.inputs[m.focus].Blur()
			m.focus = 1 - m.focus
			return m, m.inputs[m.focus].Focus()
		case "esc":
			m.leaveForm()
			return m, nil
		case "enter":
			if m.mode == modeAdd {
				return m.submitAdd()
			}
			return m.submitEdit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if m.mode == modeAdd {
		field := model.FieldName
		if m.focus == inputDescription {
			field = model.FieldDescription
		}
		m.ctrl.SetField(model.FieldUpdate{Field: field, Value: m.inputs[m.focus].Value()})
	}
	return m, cmd
}

func (m App) submitAdd() (tea.Model, tea.Cmd) {
	cmd := m.ctrl.Submit()
	if cmd == nil {
		m.status = "Name and description are required"
		return m, nil
	}
	m.status = ""
	m.leaveForm()
	return m, tea.Batch(m.wrap(cmd), m.syncList())
}

func (m App) submitEdit() (tea.Model, tea.Cmd) {
	name := strings.TrimSpace(m.inputs[inputName].Value())
	desc := strings.TrimSpace(m.inputs[inputDescription].Value())
	if name == "" || desc == "" {
		m.status = "Name and description cannot be empty"
		return m, nil
	}
	cmd := m.ctrl.Update(m.editID, name, desc)
	m.status = ""
	m.leaveForm()
	return m, tea.Batch(m.wrap(cmd), m.syncList())
}

// leaveForm returns to browsing. The inputs go back to the create form
// state so an edit does not clobber a half-typed new todo.
func (m *App) leaveForm() {
	form := m.ctrl.Form()
	m.inputs[inputName].SetValue(form.Name)
	m.inputs[inputDescription].SetValue(form.Description)
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.mode = modeBrowse
	m.editID = ""
	m.relayout()
}

func (m *App) openForm(md mode) tea.Cmd {
	m.mode = md
	m.focus = inputName
	m.inputs[inputDescription].Blur()
	m.relayout()
	return m.inputs[inputName].Focus()
}

func (m App) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok || m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch k.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "esc":
		if m.list.FilterState() == list.Unfiltered {
			return m, tea.Quit
		}
	case "a":
		m.status = ""
		return m, m.openForm(modeAdd)
	case "e":
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		if !t.HasID() {
			m.status = notSynced
			return m, nil
		}
		m.editID = t.ID
		m.inputs[inputName].SetValue(t.Name)
		m.inputs[inputDescription].SetValue(t.Description)
		m.inputs[inputName].CursorEnd()
		m.status = ""
		return m, m.openForm(modeEdit)
	case "d":
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		if !t.HasID() {
			m.status = notSynced
			return m, nil
		}
		m.status = ""
		cmd := m.ctrl.Remove(t.ID)
		return m, tea.Batch(m.wrap(cmd), m.syncList())
	case "r":
		m.status = reloading
		return m, m.wrap(m.ctrl.LoadAll())
	case "v":
		m.detail = !m.detail
		m.relayout()
		return m, nil
	case "o":
		m.signOut()
		if m.screen == screenGate {
			return m, textinput.Blink
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m App) View() string {
	if m.screen == screenGate {
		return m.viewGate()
	}
	t := current

	var b strings.Builder
	todos := m.ctrl.Todos()
	unsynced := 0
	for _, td := range todos {
		if !td.HasID() {
			unsynced++
		}
	}
	fmt.Fprintf(&b, "%s   %s %d  %s %d\n",
		t.Title.Render("Hello "+m.session.CurrentUser().Name),
		t.Accent.Render("Todos"), len(todos),
		t.Pending.Render(t.SymUnsynced), unsynced,
	)

	if m.mode != modeBrowse {
		title := "Create todo"
		if m.mode == modeEdit {
			title = "Edit todo"
		}
		form := title + "\n" + m.inputs[inputName].View() + "\n" + m.inputs[inputDescription].View()
		bar := lipgloss.NewStyle().Border(t.Border).BorderForeground(t.BorderColor).Padding(0, 1)
		b.WriteString(bar.Render(form) + "\n")
	}

	if m.ctrl.State() == todo.Loading {
		b.WriteString(m.spinner.View() + " Loading todos...\n")
	} else {
		b.WriteString(m.list.View() + "\n")
	}

	if m.detail {
		if sel, ok := m.selected(); ok {
			b.WriteString(t.Accent.Render(sel.Name) + "\n")
			b.WriteString(RenderMarkdown(sel.Description, m.width-6) + "\n")
		}
	}

	if m.status != "" {
		b.WriteString(t.Error.Render(m.status) + "\n")
	} else if m.mode != modeBrowse {
		b.WriteString(t.Help.Render("tab switch field • enter save • esc cancel") + "\n")
	}
	return panelString(strings.TrimRight(b.String(), "\n"))
}

func (m App) viewGate() string {
	t := current
	lines := []string{
		t.Title.Render("Sign in"),
		t.Muted.Render("Paste an access token issued by your identity provider."),
		"",
		m.gateInput.View(),
	}
	if m.gateErr != "" {
		lines = append(lines, "", t.Error.Render(t.SymFail+" "+m.gateErr))
	}
	lines = append(lines, "", t.Help.Render("enter sign in • esc quit"))
	return panelString(strings.Join(lines, "\n"))
}

// Run starts the interactive program on the alternate screen.
func Run(app App) error {
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
