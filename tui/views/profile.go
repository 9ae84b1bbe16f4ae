package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"kiraye/services"
	"kiraye/tui/styles"
)

type ownMsg struct {
	resp services.OwnResponse
}

type profileDeleteMsg struct {
	req services.DeleteRequest
	err error
}

type clearNoticeMsg struct{}

// Profile lists the signed-in user's own listings with edit and delete.
type Profile struct {
	deps     Deps
	width    int
	selected int
	confirm  int // listing id awaiting y/n
	expanded bool
	spinner  spinner.Model
}

func NewProfile(d Deps) Profile {
	return Profile{
		deps:    d,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Pending)),
	}
}

func (p Profile) SetSize(w, _ int) Profile {
	p.width = w
	return p
}

// Reload fetches the user's listings, or clears them when logged out.
func (p Profile) Reload() (Profile, tea.Cmd) {
	p.confirm = 0
	req, err := p.deps.Profile.Load()
	if err != nil {
		return p, nil
	}
	profile, ctx := p.deps.Profile, p.deps.Ctx
	return p, tea.Batch(
		func() tea.Msg { return ownMsg{resp: profile.Fetch(ctx, req)} },
		p.spinner.Tick,
	)
}

func (p Profile) Update(msg tea.Msg) (Profile, tea.Cmd) {
	profile := p.deps.Profile

	switch msg := msg.(type) {
	case SessionMsg:
		if !msg.Identity.LoggedIn() {
			profile.Reset()
			p.selected, p.confirm = 0, 0
			return p, nil
		}
		return p.Reload()

	case ownMsg:
		if profile.Apply(msg.resp) {
			p.selected = min(p.selected, max(len(profile.Items())-1, 0))
		}

	case profileDeleteMsg:
		if !profile.FinishDelete(msg.req, msg.err) {
			if msg.err != nil {
				return p, notify(errorText(msg.err), true)
			}
			return p, notify(services.DeletedNotice, false)
		}
		if msg.err != nil {
			return p, nil
		}
		return p, tea.Tick(services.DeletedNoticeAfter, func(time.Time) tea.Msg { return clearNoticeMsg{} })

	case clearNoticeMsg:
		profile.ClearNotice()

	case spinner.TickMsg:
		if !profile.Loading() {
			return p, nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return p, cmd

	case tea.KeyMsg:
		return p.updateKeys(msg)
	}
	return p, nil
}

func (p Profile) updateKeys(msg tea.KeyMsg) (Profile, tea.Cmd) {
	profile := p.deps.Profile
	items := profile.Items()

	if p.confirm != 0 {
		id := p.confirm
		p.confirm = 0
		if msg.String() != "y" {
			return p, nil
		}
		req, err := profile.BeginDelete(id)
		if err != nil {
			return p, notify(errorText(err), true)
		}
		p.selected = min(p.selected, max(len(profile.Items())-1, 0))
		ctx := p.deps.Ctx
		return p, func() tea.Msg {
			return profileDeleteMsg{req: req, err: profile.SoftDelete(ctx, id)}
		}
	}

	switch msg.String() {
	case "up", "k":
		if p.selected > 0 {
			p.selected--
		}
	case "down", "j":
		if p.selected < len(items)-1 {
			p.selected++
		}
	case "enter":
		p.expanded = !p.expanded
	case "r":
		return p.Reload()
	case "e":
		if p.selected < len(items) {
			return p, navigate(TabPost, items[p.selected].ID)
		}
	case "n":
		return p, navigate(TabPost, 0)
	case "d":
		if p.selected < len(items) {
			p.confirm = items[p.selected].ID
		}
	}
	return p, nil
}

func (p Profile) View() string {
	profile := p.deps.Profile
	id := profile.Identity()
	if !id.LoggedIn() {
		return styles.Muted.Render("Log in on the Account tab to see your listings.")
	}

	name := id.UserName
	if name == "" {
		name = id.Email
	}
	lines := []string{
		styles.Title.Render(name) + styles.Muted.Render(" "+string(id.Role)),
	}
	if id.Email != "" {
		lines = append(lines, styles.Label.Render("Email")+id.Email)
	}
	if id.Phone != "" {
		lines = append(lines, styles.Label.Render("Phone")+id.Phone)
	}
	card := styles.Card.Width(max(p.width-2, 40)).Render(strings.Join(lines, "\n"))

	var body []string
	switch {
	case profile.Loading():
		body = append(body, p.spinner.View()+" loading your listings…")
	case profile.Err() != nil:
		body = append(body, styles.Error.Render(errorText(profile.Err())))
	}
	if n := profile.Notice(); n != "" {
		body = append(body, styles.Success.Render(n))
	}

	items := profile.Items()
	if len(items) == 0 && !profile.Loading() {
		body = append(body, styles.Muted.Render("You have not posted any listings yet. Press n to post one."))
	}
	for i, l := range items {
		row := fmt.Sprintf("%-6d %-36s %-14s %12s", l.ID, truncate(l.Title, 36), truncate(l.CityName, 14), formatPrice(l.Price))
		if i == p.selected {
			row = styles.TableSelected.Render(row)
		}
		body = append(body, row)
	}
	if p.confirm != 0 {
		body = append(body, styles.Pending.Render(fmt.Sprintf("Delete listing #%d? y/n", p.confirm)))
	} else {
		body = append(body, styles.Muted.Render("enter details  e edit  d delete  n new  r reload"))
	}
	if p.expanded && p.selected < len(items) {
		body = append(body, renderListing(items[p.selected], max(p.width-4, 40)))
	}

	return card + "\n" + strings.Join(body, "\n")
}
