package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"kiraye/session"
	"kiraye/tui/styles"
	"kiraye/tui/views"
)

const notifyFor = 3 * time.Second

type model struct {
	deps          views.Deps
	activeTab     views.Tab
	width, height int
	notification  string
	notifyErr     bool
	notifyUntil   time.Time

	browse  views.Browse
	form    views.Form
	profile views.Profile
	account views.Account
}

type notifyExpiredMsg struct{}

func initialModel(d views.Deps) model {
	return model{
		deps:    d,
		browse:  views.NewBrowse(d),
		form:    views.NewForm(d),
		profile: views.NewProfile(d),
		account: views.NewAccount(d),
	}
}

// Run starts the interactive client and blocks until the user quits.
func Run(d views.Deps) error {
	p := tea.NewProgram(initialModel(d), tea.WithAltScreen(), tea.WithContext(d.Ctx))

	// Send blocks until the event loop reads it, and logout can happen
	// inside Update.
	unsubscribe := d.Session.Subscribe(func(e session.Event) {
		go p.Send(views.SessionMsg{Identity: e.Identity})
	})
	defer unsubscribe()

	_, err := p.Run()
	return err
}

func (m model) Init() tea.Cmd {
	return m.browse.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if !m.typing() {
				return m, tea.Quit
			}
		case "f1":
			return m.switchTab(views.TabBrowse, 0)
		case "f2":
			return m.switchTab(views.TabPost, 0)
		case "f3":
			return m.switchTab(views.TabProfile, 0)
		case "f4":
			return m.switchTab(views.TabAccount, 0)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.browse = m.browse.SetSize(msg.Width, msg.Height-4)
		m.form = m.form.SetSize(msg.Width, msg.Height-4)
		m.profile = m.profile.SetSize(msg.Width, msg.Height-4)
		m.account = m.account.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case views.NavigateMsg:
		return m.switchTab(msg.To, msg.EditID)

	case views.NotifyMsg:
		m, cmd := m.notify(msg.Text, msg.Err)
		return m, cmd

	case notifyExpiredMsg:
		return m, nil

	case views.SessionMsg:
		text := "Logged out."
		if msg.Identity.LoggedIn() {
			text = "Welcome, " + msg.Identity.UserName + "."
		}
		var cmd tea.Cmd
		m, cmd = m.notify(text, false)
		cmds = append(cmds, cmd)
	}

	// Keys go to the active tab; everything else to all tabs.
	var cmd tea.Cmd
	if _, ok := msg.(tea.KeyMsg); ok {
		switch m.activeTab {
		case views.TabBrowse:
			m.browse, cmd = m.browse.Update(msg)
		case views.TabPost:
			m.form, cmd = m.form.Update(msg)
		case views.TabProfile:
			m.profile, cmd = m.profile.Update(msg)
		case views.TabAccount:
			m.account, cmd = m.account.Update(msg)
		}
		return m, tea.Batch(append(cmds, cmd)...)
	}

	m.browse, cmd = m.browse.Update(msg)
	cmds = append(cmds, cmd)
	m.form, cmd = m.form.Update(msg)
	cmds = append(cmds, cmd)
	m.profile, cmd = m.profile.Update(msg)
	cmds = append(cmds, cmd)
	m.account, cmd = m.account.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m model) typing() bool {
	switch m.activeTab {
	case views.TabBrowse:
		return m.browse.Typing()
	case views.TabPost:
		return m.form.Typing()
	case views.TabAccount:
		return m.account.Typing()
	}
	return false
}

func (m model) switchTab(to views.Tab, editID int) (tea.Model, tea.Cmd) {
	m.activeTab = to
	var cmd tea.Cmd
	switch to {
	case views.TabPost:
		m.form, cmd = m.form.Open(editID)
	case views.TabProfile:
		m.profile, cmd = m.profile.Reload()
	}
	return m, cmd
}

func (m model) notify(text string, isErr bool) (model, tea.Cmd) {
	m.notification = text
	m.notifyErr = isErr
	m.notifyUntil = time.Now().Add(notifyFor)
	return m, tea.Tick(notifyFor, func(time.Time) tea.Msg { return notifyExpiredMsg{} })
}

func (m model) View() string {
	var content string
	switch m.activeTab {
	case views.TabBrowse:
		content = m.browse.View()
	case views.TabPost:
		content = m.form.View()
	case views.TabProfile:
		content = m.profile.View()
	case views.TabAccount:
		content = m.account.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), content, m.renderStatusBar())
}

func (m model) renderTabs() string {
	var rendered []string
	for i, name := range views.TabNames {
		if views.Tab(i) == m.activeTab {
			rendered = append(rendered, styles.TabActive.Render(name))
		} else {
			rendered = append(rendered, styles.TabInactive.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...) + "\n"
}

func (m model) renderStatusBar() string {
	left := "F1 Browse  F2 Post  F3 Profile  F4 Account  ctrl+c Quit"
	if id := m.deps.Session.Identity(); id.LoggedIn() {
		left += "  · " + firstNonEmpty(id.UserName, id.Email) + " (" + string(id.Role) + ")"
	}

	right := ""
	if time.Now().Before(m.notifyUntil) {
		style := styles.Notification
		if m.notifyErr {
			style = style.Foreground(styles.ErrorColor)
		}
		right = style.Render(m.notification)
	}

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 0)
	return styles.StatusBar.Render(left) + lipgloss.NewStyle().Width(gap).Render("") + right
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
