package views

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"kiraye/api"
	"kiraye/api/apitest"
	"kiraye/logging"
	"kiraye/models"
	"kiraye/services"
	"kiraye/session"
	"kiraye/storage"
)

func newDeps(t *testing.T) (Deps, *apitest.Server) {
	t.Helper()

	srv := apitest.New()
	t.Cleanup(srv.Close)
	srv.Cities = []models.City{{ID: 1, Name: "Bakı"}, {ID: 2, Name: "Gəncə"}}
	srv.Regions[1] = []models.Region{{ID: 11, Name: "Nəsimi", CityID: 1}, {ID: 12, Name: "Yasamal", CityID: 1}}
	srv.Regions[2] = []models.Region{{ID: 21, Name: "Kəpəz", CityID: 2}}

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "tui.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := logging.Discard()
	client := api.NewWithHTTPClient(srv.URL, srv.Client(), 2*time.Second, log)
	sess := session.New(store, log)
	catalog := services.NewCatalog(client, store, time.Hour, log)

	return Deps{
		Ctx:      context.Background(),
		Browse:   services.NewBrowse(client, 12, log),
		Catalog:  catalog,
		Listings: services.NewListings(client, catalog, sess, log),
		Profile:  services.NewProfile(client, sess, log),
		Auth:     services.NewAuth(client, sess, store, log),
		Session:  sess,
		Logger:   log,
	}, srv
}

func seed(srv *apitest.Server, n int, owner string) {
	for i := 1; i <= n; i++ {
		srv.Listings = append(srv.Listings, models.Listing{
			ID:       i,
			Title:    fmt.Sprintf("Flat %d", i),
			CityID:   1,
			RegionID: 11,
			Rooms:    2,
			Price:    decimal.NewFromInt(int64(400 + i)),
			OwnerID:  owner,
		})
	}
}

// run executes cmd and any batch it expands to. Commands that do not
// finish quickly, like cursor blinks, are dropped.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(3 * time.Second):
		return nil
	}

	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, run(c)...)
	}
	return out
}

// settle feeds the browse view its own responses until it stops issuing
// requests and returns anything it sent upward.
func settle(t *testing.T, b Browse, cmd tea.Cmd) (Browse, []tea.Msg) {
	t.Helper()
	var outward []tea.Msg
	for range 10 {
		var next []tea.Cmd
		for _, msg := range run(cmd) {
			switch msg.(type) {
			case pageMsg, regionsMsg, citiesMsg, detailMsg, browseDeleteMsg:
				var c tea.Cmd
				b, c = b.Update(msg)
				if c != nil {
					next = append(next, c)
				}
			case NotifyMsg, NavigateMsg:
				outward = append(outward, msg)
			}
		}
		if len(next) == 0 {
			return b, outward
		}
		cmd = tea.Batch(next...)
	}
	t.Fatal("browse view never settled")
	return b, nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPicker_MatchesFoldedNames(t *testing.T) {
	p := newPicker("", "")
	p.SetOptions([]option{{1, "Bakı"}, {2, "Gəncə"}, {3, "Sumqayıt"}})
	p.Focus()

	require.Zero(t, p.Selected().ID)

	for _, r := range "gen" {
		p.Update(key(string(r)))
	}
	require.Equal(t, 2, p.Selected().ID)

	p.Select(3)
	require.Equal(t, 3, p.Selected().ID)

	changed, _ := p.Update(key("right"))
	require.True(t, changed)
	require.Zero(t, p.Selected().ID, "stepping past the last option wraps to none")
}

func TestPicker_DisabledIgnoresKeys(t *testing.T) {
	p := newPicker("", "pick a city first")
	p.SetOptions([]option{{1, "Nəsimi"}})
	p.disabled = true

	changed, _ := p.Update(key("right"))
	require.False(t, changed)
	require.Contains(t, p.View(), "pick a city first")
}

func TestBrowse_OpensSharedQuery(t *testing.T) {
	d, srv := newDeps(t)
	seed(srv, 30, "")
	d.Query = "CityId=1&RegionId=11&page=2"

	b := NewBrowse(d)
	b, _ = settle(t, b, b.Init())

	require.Equal(t, 2, d.Browse.List.Page())
	require.Len(t, d.Browse.List.Items(), 12)
	require.Equal(t, 1, b.sel.CityID())
	require.Equal(t, 11, b.sel.RegionID())
	require.Equal(t, 11, b.region.Selected().ID)
	require.Len(t, srv.Requests("/Region/GetRegionsByCityId/1"), 1)

	reqs := srv.Requests("/House/Filter")
	require.Len(t, reqs, 1)
	require.Equal(t, "2", reqs[0].Query.Get("PageNumber"))
}

func TestBrowse_PageKeys(t *testing.T) {
	d, srv := newDeps(t)
	seed(srv, 30, "")

	b := NewBrowse(d)
	b, _ = settle(t, b, b.Init())

	b, cmd := b.Update(key("]"))
	b, _ = settle(t, b, cmd)
	require.Equal(t, 2, d.Browse.List.Page())

	b, cmd = b.Update(key("3"))
	b, _ = settle(t, b, cmd)
	require.Equal(t, 3, d.Browse.List.Page())
	require.Len(t, d.Browse.List.Items(), 6)

	_, cmd = b.Update(key("9"))
	require.Nil(t, cmd, "pages past the end are ignored")
	require.Len(t, srv.Requests("/House/Filter"), 3)
}

func TestBrowse_InvalidFilterMakesNoRequest(t *testing.T) {
	d, srv := newDeps(t)
	b := NewBrowse(d)
	b, _ = settle(t, b, b.Init())
	before := len(srv.Requests("/House/Filter"))

	b.inputs[1].SetValue("cheap")
	b, cmd := b.apply()
	require.Nil(t, cmd)
	require.True(t, b.isErr)
	require.Contains(t, b.status, "MinPrice")
	require.Len(t, srv.Requests("/House/Filter"), before)
}

func TestBrowse_CityChangeLoadsRegionsOnce(t *testing.T) {
	d, srv := newDeps(t)
	b := NewBrowse(d)
	b, _ = settle(t, b, b.Init())
	require.True(t, b.region.disabled)

	b, _ = b.setFocus(focusCity)
	b, cmd := b.Update(key("right"))
	require.True(t, b.sel.Pending())
	b, _ = settle(t, b, cmd)

	require.Equal(t, 1, b.sel.CityID())
	require.False(t, b.region.disabled)
	require.Len(t, b.sel.Regions(), 2)
	require.Len(t, srv.Requests("/Region/GetRegionsByCityId/1"), 1)

	b, cmd = b.Update(key("enter"))
	b, _ = settle(t, b, cmd)
	require.Equal(t, "CityId=1", d.Browse.QueryString())
	require.False(t, b.Typing())
}

func TestBrowse_DeleteRollsBackOnFailure(t *testing.T) {
	d, srv := newDeps(t)
	seed(srv, 3, "u1")
	require.True(t, d.Session.Login(apitest.Token("u1", "User", time.Hour), session.Profile{UserName: "Aysel"}))
	srv.Fail("/House/SoftDelete/1", 500, "application/json", `{"message":"Database unavailable"}`)

	b := NewBrowse(d)
	b, _ = settle(t, b, b.Init())

	b, cmd := b.Update(key("d"))
	require.Nil(t, cmd)
	require.Contains(t, b.status, "Delete listing #1? y/n")
	require.True(t, b.Typing())

	b, cmd = b.Update(key("y"))
	require.Len(t, d.Browse.List.Items(), 2, "removed before the server answers")

	b, _ = settle(t, b, cmd)
	require.Len(t, d.Browse.List.Items(), 3)
	require.True(t, b.isErr)
	require.Contains(t, b.status, "Database unavailable")
}

func TestBrowse_DeleteCanBeCancelled(t *testing.T) {
	d, srv := newDeps(t)
	seed(srv, 3, "u1")
	require.True(t, d.Session.Login(apitest.Token("u1", "User", time.Hour), session.Profile{}))

	b := NewBrowse(d)
	b, _ = settle(t, b, b.Init())

	b, _ = b.Update(key("d"))
	b, cmd := b.Update(key("n"))
	require.Nil(t, cmd)
	require.Len(t, d.Browse.List.Items(), 3)
	require.Empty(t, b.status)
	require.False(t, b.Typing())
	require.Empty(t, srv.Requests("/House/SoftDelete/1"))
}

func TestBrowse_LateDeleteFailureKeepsNewerPage(t *testing.T) {
	d, srv := newDeps(t)
	seed(srv, 15, "u1")
	require.True(t, d.Session.Login(apitest.Token("u1", "User", time.Hour), session.Profile{}))
	srv.Fail("/House/SoftDelete/1", 500, "application/json", `{"message":"Database unavailable"}`)

	b := NewBrowse(d)
	b, _ = settle(t, b, b.Init())

	b, _ = b.Update(key("d"))
	b, deleteCmd := b.Update(key("y"))
	require.NotNil(t, deleteCmd)

	b, cmd := b.Update(key("]"))
	b, _ = settle(t, b, cmd)
	require.Equal(t, 2, d.Browse.List.Page())
	require.Equal(t, []int{13, 14, 15}, listingIDs(d.Browse.List.Items()))

	b, _ = settle(t, b, deleteCmd)
	require.Equal(t, 2, d.Browse.List.Page())
	require.Equal(t, []int{13, 14, 15}, listingIDs(d.Browse.List.Items()))
	require.Equal(t, 15, d.Browse.List.TotalCount())
	require.True(t, b.isErr)
}

func TestBrowse_DeleteOthersListingIsRefused(t *testing.T) {
	d, srv := newDeps(t)
	seed(srv, 2, "someone-else")
	require.True(t, d.Session.Login(apitest.Token("u1", "User", time.Hour), session.Profile{}))

	b := NewBrowse(d)
	b, _ = settle(t, b, b.Init())

	b, cmd := b.Update(key("d"))
	require.Nil(t, cmd)
	require.Equal(t, services.ErrNotOwner.Error(), b.status)
	require.Empty(t, srv.Requests("/House/SoftDelete/1"))
}

func listingIDs(items []models.Listing) []int {
	out := make([]int, len(items))
	for i, l := range items {
		out[i] = l.ID
	}
	return out
}

// openEdit loads listing id into the post tab.
func openEdit(t *testing.T, f Form, id int) Form {
	t.Helper()
	f, cmd := f.Open(id)
	for _, msg := range run(cmd) {
		if m, ok := msg.(editDataMsg); ok {
			require.NoError(t, m.err)
			f, _ = f.Update(m)
			return f
		}
	}
	t.Fatalf("listing %d never loaded", id)
	return f
}

func TestForm_LateSubmitResultLeavesNewerFormAlone(t *testing.T) {
	d, srv := newDeps(t)
	seed(srv, 2, "u1")
	srv.Listings[0].Images = []models.Image{{ID: 8, URL: "https://img/8.jpg"}}
	srv.Listings[1].Images = []models.Image{{ID: 9, URL: "https://img/9.jpg"}}
	require.True(t, d.Session.Login(apitest.Token("u1", "User", time.Hour), session.Profile{}))

	f := openEdit(t, NewForm(d), 1)
	f, submitA := f.submit()
	require.True(t, f.form.Submitting())

	f = openEdit(t, f, 2)
	require.Equal(t, 2, f.form.ID())
	require.True(t, f.form.RemoveImage(9))

	var cmd tea.Cmd
	for _, msg := range run(submitA) {
		if m, ok := msg.(submitMsg); ok {
			require.NoError(t, m.err)
			f, cmd = f.Update(m)
		}
	}

	require.False(t, f.form.Succeeded())
	require.Equal(t, []int{9}, f.form.RemovedImageIDs())
	msgs := run(cmd)
	require.Len(t, msgs, 1)
	require.Equal(t, NotifyMsg{Text: "Listing updated."}, msgs[0])
}
