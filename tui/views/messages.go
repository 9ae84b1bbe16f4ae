package views

import (
	"context"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"kiraye/api"
	"kiraye/models"
	"kiraye/services"
	"kiraye/session"
)

// Deps are the services the views drive. They are mutated only from
// Update; commands receive the values they need and never touch them.
type Deps struct {
	Ctx      context.Context
	Browse   *services.Browse
	Catalog  *services.Catalog
	Listings *services.Listings
	Profile  *services.Profile
	Auth     *services.Auth
	Session  *session.State
	Logger   *slog.Logger
	// Query is the browse query string to open with, e.g. "CityId=1&page=2".
	Query string
}

type Tab int

const (
	TabBrowse Tab = iota
	TabPost
	TabProfile
	TabAccount
)

var TabNames = []string{"Browse", "Post", "Profile", "Account"}

// NavigateMsg switches tabs. EditID opens the post tab on an existing
// listing.
type NavigateMsg struct {
	To     Tab
	EditID int
}

type NotifyMsg struct {
	Text string
	Err  bool
}

// SessionMsg is sent when the user logs in or out.
type SessionMsg struct {
	Identity models.Identity
}

type citiesMsg struct {
	cities []models.City
	err    error
}

// regionsMsg is tagged with the view whose selection asked for it.
type regionsMsg struct {
	owner string
	resp  services.RegionResponse
}

func navigate(to Tab, editID int) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{To: to, EditID: editID} }
}

func notify(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return NotifyMsg{Text: text, Err: isErr} }
}

func loadCities(d Deps) tea.Cmd {
	return func() tea.Msg {
		cities, err := d.Catalog.Cities(d.Ctx)
		return citiesMsg{cities: cities, err: err}
	}
}

func fetchRegions(d Deps, owner string, req services.RegionRequest) tea.Cmd {
	return func() tea.Msg {
		return regionsMsg{owner: owner, resp: services.FetchRegions(d.Ctx, d.Catalog, req)}
	}
}

func cityOptions(cities []models.City) []option {
	out := make([]option, len(cities))
	for i, c := range cities {
		out[i] = option{ID: c.ID, Name: c.Name}
	}
	return out
}

func regionOptions(regions []models.Region) []option {
	out := make([]option, len(regions))
	for i, r := range regions {
		out[i] = option{ID: r.ID, Name: r.Name}
	}
	return out
}

// errorText flattens an error for a one-line status, including any
// per-field messages.
func errorText(err error) string {
	if err == nil {
		return ""
	}
	e, ok := api.As(err)
	if !ok {
		return err.Error()
	}
	if e.Message != "" && len(e.Fields) > 0 {
		return e.Message + " " + strings.Join(e.Lines(), "; ")
	}
	return strings.ReplaceAll(api.Message(err), "\n", "; ")
}
