package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"kiraye/tui/styles"
)

type loginMsg struct {
	err error
}

type passwordMsg struct {
	text string
	err  error
}

// Account logs in and out and changes the password.
type Account struct {
	deps  Deps
	width int

	login    []textinput.Model // email, password
	password []textinput.Model // current, new, repeat
	focus    int
	busy     bool
	status   string
	isErr    bool
}

func secret(in textinput.Model) textinput.Model {
	in.EchoMode = textinput.EchoPassword
	in.EchoCharacter = '•'
	return in
}

func newInput(placeholder string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = ""
	in.CharLimit = 120
	return in
}

func NewAccount(d Deps) Account {
	a := Account{
		deps:  d,
		login: []textinput.Model{newInput("you@example.com"), secret(newInput("password"))},
		password: []textinput.Model{
			secret(newInput("current password")),
			secret(newInput("new password")),
			secret(newInput("repeat new password")),
		},
	}
	a, _ = a.setFocus(0)
	return a
}

func (a Account) SetSize(w, _ int) Account {
	a.width = w
	return a
}

func (a Account) Typing() bool {
	return true
}

func (a Account) fields() []textinput.Model {
	if a.deps.Session.LoggedIn() {
		return a.password
	}
	return a.login
}

func (a Account) setFocus(i int) (Account, tea.Cmd) {
	for j := range a.login {
		a.login[j].Blur()
	}
	for j := range a.password {
		a.password[j].Blur()
	}
	fields := a.fields()
	a.focus = (i + len(fields)) % len(fields)
	return a, fields[a.focus].Focus()
}

func (a Account) Update(msg tea.Msg) (Account, tea.Cmd) {
	switch msg := msg.(type) {
	case SessionMsg:
		for j := range a.login {
			a.login[j].SetValue("")
		}
		for j := range a.password {
			a.password[j].SetValue("")
		}
		return a.setFocus(0)

	case loginMsg:
		a.busy = false
		if msg.err != nil {
			a.status, a.isErr = errorText(msg.err), true
			return a, nil
		}
		a.status, a.isErr = "", false
		return a, navigate(TabBrowse, 0)

	case passwordMsg:
		a.busy = false
		if msg.err != nil {
			a.status, a.isErr = errorText(msg.err), true
			return a, nil
		}
		for j := range a.password {
			a.password[j].SetValue("")
		}
		a.status, a.isErr = msg.text, false
		return a.setFocus(0)

	case tea.KeyMsg:
		if a.busy {
			return a, nil
		}
		switch msg.String() {
		case "tab", "down":
			return a.setFocus(a.focus + 1)
		case "shift+tab", "up":
			return a.setFocus(a.focus - 1)
		case "ctrl+o":
			if a.deps.Session.LoggedIn() {
				a.deps.Auth.Logout()
				a.status, a.isErr = "Logged out.", false
			}
			return a, nil
		case "enter":
			if a.focus < len(a.fields())-1 {
				return a.setFocus(a.focus + 1)
			}
			return a.submit()
		}

		var cmd tea.Cmd
		if a.deps.Session.LoggedIn() {
			a.password[a.focus], cmd = a.password[a.focus].Update(msg)
		} else {
			a.login[a.focus], cmd = a.login[a.focus].Update(msg)
		}
		return a, cmd
	}
	return a, nil
}

func (a Account) submit() (Account, tea.Cmd) {
	a.busy = true
	a.status, a.isErr = "", false
	auth, ctx := a.deps.Auth, a.deps.Ctx

	if !a.deps.Session.LoggedIn() {
		email, password := a.login[0].Value(), a.login[1].Value()
		return a, func() tea.Msg { return loginMsg{err: auth.Login(ctx, email, password)} }
	}
	current, next, repeat := a.password[0].Value(), a.password[1].Value(), a.password[2].Value()
	return a, func() tea.Msg {
		text, err := auth.ChangePassword(ctx, current, next, repeat)
		return passwordMsg{text: text, err: err}
	}
}

func (a Account) View() string {
	var labels []string
	var title, hint string
	id := a.deps.Session.Identity()
	if id.LoggedIn() {
		title = "Signed in as " + firstNonBlank(id.UserName, id.Email)
		labels = []string{"Current", "New", "Repeat"}
		hint = "enter change password  ctrl+o log out"
	} else {
		title = "Log in"
		labels = []string{"Email", "Password"}
		hint = "enter log in"
	}

	var rows []string
	for i, in := range a.fields() {
		label := styles.Label
		if i == a.focus {
			label = styles.LabelFocused
		}
		rows = append(rows, label.Render(labels[i])+in.View())
	}

	out := styles.Title.Render(title) + "\n" +
		styles.Card.Width(max(a.width-2, 40)).Render(strings.Join(rows, "\n")) + "\n"
	switch {
	case a.busy:
		out += styles.Pending.Render("working…")
	case a.status != "" && a.isErr:
		out += styles.Error.Render(a.status)
	case a.status != "":
		out += styles.Success.Render(a.status)
	default:
		out += styles.Muted.Render(hint)
	}
	return out
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
