package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"kiraye/models"
	"kiraye/services"
	"kiraye/tui/styles"
)

const browseOwner = "browse"

type browseFocus int

const (
	focusList browseFocus = iota
	focusSearch
	focusMin
	focusMax
	focusRooms
	focusCity
	focusRegion
	focusCount
)

type pageMsg struct {
	resp services.PageResponse
}

type detailMsg struct {
	listing models.Listing
	err     error
}

type browseDeleteMsg struct {
	id   int
	snap services.Snapshot
	err  error
}

// Browse is the public search tab: a filter bar over a paged table.
type Browse struct {
	deps          Deps
	width, height int

	inputs   []textinput.Model // search, min, max, rooms
	city     picker
	region   picker
	sel      *services.Selection
	sort     string
	focus    browseFocus
	selected int
	confirm  int // listing id awaiting y/n
	detail   *models.Listing

	spinner spinner.Model
	pages   paginator.Model
	status  string
	isErr   bool
}

func NewBrowse(d Deps) Browse {
	placeholders := []string{"title or address", "min", "max", "rooms"}
	inputs := make([]textinput.Model, len(placeholders))
	for i, p := range placeholders {
		in := textinput.New()
		in.Placeholder = p
		in.Prompt = ""
		in.CharLimit = 60
		inputs[i] = in
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Pending))
	pg := paginator.New()
	pg.Type = paginator.Dots

	return Browse{
		deps:    d,
		inputs:  inputs,
		city:    newPicker("type a city", ""),
		region:  newPicker("type a region", "pick a city first"),
		sel:     services.NewSelection(nil),
		spinner: sp,
		pages:   pg,
	}
}

func (b Browse) Init() tea.Cmd {
	req := b.deps.Browse.Open(b.deps.Query)
	return tea.Batch(loadCities(b.deps), b.fetch(req))
}

func (b Browse) SetSize(w, h int) Browse {
	b.width, b.height = w, h
	return b
}

// Typing reports whether keys are going to a text field.
func (b Browse) Typing() bool {
	return b.focus != focusList || b.confirm != 0
}

func (b Browse) fetch(req services.PageRequest) tea.Cmd {
	browse, ctx := b.deps.Browse, b.deps.Ctx
	return tea.Batch(
		func() tea.Msg { return pageMsg{resp: browse.Fetch(ctx, req)} },
		b.spinner.Tick,
	)
}

func (b Browse) Update(msg tea.Msg) (Browse, tea.Cmd) {
	switch msg := msg.(type) {
	case citiesMsg:
		if msg.err != nil {
			b.setStatus(errorText(msg.err), true)
			return b, nil
		}
		b.sel.SetCities(msg.cities)
		b.city.SetOptions(cityOptions(msg.cities))
		return b, b.syncSelection()

	case regionsMsg:
		if msg.owner != browseOwner || !b.sel.ApplyRegions(msg.resp) {
			return b, nil
		}
		b.refreshRegionPicker()
		if err := b.sel.Err(); err != nil {
			b.setStatus(errorText(err), true)
		}

	case pageMsg:
		if !b.deps.Browse.Apply(msg.resp) {
			return b, nil
		}
		list := b.deps.Browse.List
		if req, ok := list.Overflow(); ok {
			return b, b.fetch(req)
		}
		b.selected = min(b.selected, max(len(list.Items())-1, 0))
		b.detail = nil
		if err := list.Err(); err != nil {
			b.setStatus(errorText(err), true)
		} else if b.isErr {
			b.setStatus("", false)
		}

	case detailMsg:
		if msg.err != nil {
			b.setStatus(errorText(msg.err), true)
			return b, nil
		}
		b.detail = &msg.listing

	case browseDeleteMsg:
		list := b.deps.Browse.List
		if msg.err != nil {
			if list.Restore(msg.snap) {
				b.selected = min(b.selected, max(len(list.Items())-1, 0))
			}
			b.setStatus(errorText(msg.err), true)
			return b, nil
		}
		// reload so the page fills back up
		return b, tea.Batch(b.fetch(list.Refresh(list.Filters())), notify(services.DeletedNotice, false))

	case spinner.TickMsg:
		if !b.deps.Browse.List.Loading() {
			return b, nil
		}
		var cmd tea.Cmd
		b.spinner, cmd = b.spinner.Update(msg)
		return b, cmd

	case tea.KeyMsg:
		if b.focus == focusList {
			return b.updateList(msg)
		}
		return b.updateFilters(msg)
	}
	return b, nil
}

func (b Browse) updateList(msg tea.KeyMsg) (Browse, tea.Cmd) {
	list := b.deps.Browse.List
	items := list.Items()

	if b.confirm != 0 {
		id := b.confirm
		b.confirm = 0
		b.setStatus("", false)
		if msg.String() != "y" {
			return b, nil
		}
		return b.delete(id)
	}

	switch key := msg.String(); key {
	case "/", "f":
		return b.setFocus(focusSearch)
	case "up", "k":
		if b.selected > 0 {
			b.selected--
			b.detail = nil
		}
	case "down", "j":
		if b.selected < len(items)-1 {
			b.selected++
			b.detail = nil
		}
	case "[":
		return b.gotoPage(list.Page() - 1)
	case "]":
		return b.gotoPage(list.Page() + 1)
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		return b.gotoPage(int(key[0] - '0'))
	case "s":
		switch b.sort {
		case "":
			b.sort = models.SortAsc
		case models.SortAsc:
			b.sort = models.SortDesc
		default:
			b.sort = ""
		}
		return b.apply()
	case "r":
		return b, b.fetch(list.Refresh(list.Filters()))
	case "x":
		return b.clear()
	case "enter":
		if l, ok := b.current(); ok {
			listings, ctx := b.deps.Listings, b.deps.Ctx
			return b, func() tea.Msg {
				full, err := listings.Get(ctx, l.ID)
				return detailMsg{listing: full, err: err}
			}
		}
	case "e":
		if l, ok := b.current(); ok {
			if !b.deps.Profile.Owns(l) {
				b.setStatus("You can only edit your own listings.", true)
				return b, nil
			}
			return b, navigate(TabPost, l.ID)
		}
	case "d":
		return b.askDelete()
	}
	return b, nil
}

func (b Browse) updateFilters(msg tea.KeyMsg) (Browse, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return b.setFocus(focusList)
	case "enter":
		return b.apply()
	case "tab":
		return b.setFocus(b.focus%(focusCount-1) + 1)
	case "shift+tab":
		return b.setFocus((b.focus+focusCount-3)%(focusCount-1) + 1)
	}

	switch b.focus {
	case focusCity:
		changed, cmd := b.city.Update(msg)
		if changed {
			return b, tea.Batch(cmd, b.selectCity(b.city.Selected().ID))
		}
		return b, cmd
	case focusRegion:
		changed, cmd := b.region.Update(msg)
		if changed {
			b.sel.SetRegion(b.region.Selected().ID)
		}
		return b, cmd
	default:
		i := int(b.focus - focusSearch)
		var cmd tea.Cmd
		b.inputs[i], cmd = b.inputs[i].Update(msg)
		return b, cmd
	}
}

func (b Browse) setFocus(f browseFocus) (Browse, tea.Cmd) {
	for i := range b.inputs {
		b.inputs[i].Blur()
	}
	b.city.Blur()
	b.region.Blur()
	b.focus = f

	switch {
	case f == focusCity:
		return b, b.city.Focus()
	case f == focusRegion:
		return b, b.region.Focus()
	case f >= focusSearch && f <= focusRooms:
		return b, b.inputs[f-focusSearch].Focus()
	}
	return b, nil
}

func (b *Browse) selectCity(id int) tea.Cmd {
	req, ok := b.sel.SetCity(id)
	b.refreshRegionPicker()
	if !ok {
		return nil
	}
	return fetchRegions(b.deps, browseOwner, req)
}

func (b *Browse) refreshRegionPicker() {
	b.region.SetOptions(regionOptions(b.sel.Regions()))
	b.region.Select(b.sel.RegionID())
	b.region.disabled = !b.sel.RegionEnabled()
	if b.sel.Pending() {
		b.region.empty = "loading regions…"
	} else {
		b.region.empty = "pick a city first"
	}
}

// syncSelection points the pickers and text fields at the filters the
// page was opened with.
func (b *Browse) syncSelection() tea.Cmd {
	f := b.deps.Browse.Filters()
	b.inputs[0].SetValue(f.Search.Or(""))
	if v, ok := f.MinPrice.Get(); ok {
		b.inputs[1].SetValue(v.String())
	}
	if v, ok := f.MaxPrice.Get(); ok {
		b.inputs[2].SetValue(v.String())
	}
	if v, ok := f.Rooms.Get(); ok {
		b.inputs[3].SetValue(fmt.Sprint(v))
	}
	b.sort = f.SortByPrice.Or("")

	req, ok := b.sel.Preset(f.CityID.Or(0), f.RegionID.Or(0), "")
	b.city.Select(b.sel.CityID())
	b.refreshRegionPicker()
	if !ok {
		return nil
	}
	return fetchRegions(b.deps, browseOwner, req)
}

func (b Browse) apply() (Browse, tea.Cmd) {
	base := b.deps.Browse.Filters()
	base.CityID, base.RegionID = optID(b.sel.CityID()), optID(b.sel.RegionID())

	next, err := services.ParseFilterInput(base, services.FilterInput{
		Search:   b.inputs[0].Value(),
		MinPrice: b.inputs[1].Value(),
		MaxPrice: b.inputs[2].Value(),
		Rooms:    b.inputs[3].Value(),
		Sort:     b.sort,
	})
	if err != nil {
		b.setStatus(errorText(err), true)
		return b, nil
	}

	b.setStatus("", false)
	b, _ = b.setFocus(focusList)
	req, ok := b.deps.Browse.ApplyFilters(next)
	if !ok {
		return b, nil
	}
	b.selected = 0
	return b, b.fetch(req)
}

func (b Browse) clear() (Browse, tea.Cmd) {
	for i := range b.inputs {
		b.inputs[i].SetValue("")
	}
	b.sort = ""
	b.city.Select(0)
	b.selectCity(0)
	return b.apply()
}

func (b Browse) gotoPage(n int) (Browse, tea.Cmd) {
	req, ok := b.deps.Browse.SetPage(n)
	if !ok {
		return b, nil
	}
	b.selected = 0
	return b, b.fetch(req)
}

// askDelete checks the session and ownership, then waits for y/n.
func (b Browse) askDelete() (Browse, tea.Cmd) {
	l, ok := b.current()
	if !ok {
		return b, nil
	}
	if _, err := b.deps.Session.RequireToken(); err != nil {
		b.setStatus(errorText(err), true)
		return b, nil
	}
	if !b.deps.Profile.Owns(l) {
		b.setStatus(services.ErrNotOwner.Error(), true)
		return b, nil
	}
	b.confirm = l.ID
	b.setStatus(fmt.Sprintf("Delete listing #%d? y/n", l.ID), false)
	return b, nil
}

func (b Browse) delete(id int) (Browse, tea.Cmd) {
	if _, err := b.deps.Session.RequireToken(); err != nil {
		b.setStatus(errorText(err), true)
		return b, nil
	}
	snap, ok := b.deps.Browse.List.Remove(id)
	if !ok {
		return b, nil
	}
	b.selected = min(b.selected, max(len(b.deps.Browse.List.Items())-1, 0))
	b.detail = nil
	profile, ctx := b.deps.Profile, b.deps.Ctx
	return b, func() tea.Msg {
		return browseDeleteMsg{id: id, snap: snap, err: profile.SoftDelete(ctx, id)}
	}
}

func (b Browse) current() (models.Listing, bool) {
	items := b.deps.Browse.List.Items()
	if b.selected < 0 || b.selected >= len(items) {
		return models.Listing{}, false
	}
	return items[b.selected], true
}

func (b *Browse) setStatus(text string, isErr bool) {
	b.status, b.isErr = text, isErr
}

func optID(id int) models.Opt[int] {
	if id == 0 {
		return models.None[int]()
	}
	return models.Some(id)
}

func (b Browse) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		b.renderFilters(),
		b.renderHeader(),
		b.renderTable(),
		b.renderDetail(),
	)
}

func (b Browse) renderFilters() string {
	labels := []string{"Search", "Min price", "Max price", "Rooms"}
	var rows []string
	for i, in := range b.inputs {
		rows = append(rows, b.label(labels[i], focusSearch+browseFocus(i))+in.View())
	}
	rows = append(rows,
		b.label("City", focusCity)+b.city.View(),
		b.label("Region", focusRegion)+b.region.View(),
	)

	sort := "none"
	if b.sort != "" {
		sort = "price " + b.sort
	}
	rows = append(rows, styles.Label.Render("Sort")+styles.Value.Render(sort))
	return styles.Card.Width(max(b.width-2, 40)).Render(strings.Join(rows, "\n"))
}

func (b Browse) label(text string, f browseFocus) string {
	if b.focus == f {
		return styles.LabelFocused.Render(text)
	}
	return styles.Label.Render(text)
}

func (b Browse) renderHeader() string {
	list := b.deps.Browse.List
	total := list.TotalPages()

	pages := fmt.Sprintf("Page %d/%d", list.Page(), max(total, 1))
	if total > 1 && total <= 15 {
		b.pages.SetTotalPages(total)
		b.pages.Page = list.Page() - 1
		pages += "  " + b.pages.View()
	}

	header := styles.Title.Render("Listings") +
		styles.Value.Render(fmt.Sprintf(" %d found  ", list.TotalCount())) +
		styles.Muted.Render(pages)
	if list.Loading() {
		header += " " + b.spinner.View()
	}
	if q := b.deps.Browse.QueryString(); q != "" {
		header += "  " + styles.Muted.Render("?"+q)
	}
	if b.status != "" {
		style := styles.Success
		if b.isErr {
			style = styles.Error
		}
		header += "\n" + style.Render(b.status)
	}
	return header
}

func (b Browse) renderTable() string {
	items := b.deps.Browse.List.Items()
	if len(items) == 0 {
		if b.deps.Browse.List.Loading() {
			return styles.Muted.Render("  loading…")
		}
		return styles.Muted.Render("  No listings match these filters.")
	}

	header := fmt.Sprintf("%-6s %-32s %-14s %-14s %5s %12s", "ID", "Title", "City", "Region", "Rooms", "Price")
	rows := []string{styles.TableHeader.Render(header)}
	for i, l := range items {
		row := fmt.Sprintf("%-6d %-32s %-14s %-14s %5d %12s",
			l.ID,
			truncate(l.Title, 32),
			truncate(l.CityName, 14),
			truncate(l.RegionName, 14),
			l.Rooms,
			formatPrice(l.Price),
		)
		if i == b.selected {
			row = styles.TableSelected.Render(row)
		}
		rows = append(rows, row)
	}
	rows = append(rows, styles.Muted.Render("/ filter  enter details  [ ] page  1-9 jump  s sort  x clear  e edit  d delete"))
	return strings.Join(rows, "\n")
}

func (b Browse) renderDetail() string {
	if b.detail == nil {
		return ""
	}
	return renderListing(*b.detail, max(b.width-4, 40))
}

func renderListing(l models.Listing, width int) string {
	lines := []string{
		styles.Title.Render(l.Title) + " " + styles.Price.Render(formatPrice(l.Price)),
		styles.Label.Render("Address") + l.Address,
		styles.Label.Render("Location") + strings.Trim(l.CityName+", "+l.RegionName, ", "),
		styles.Label.Render("Rooms") + fmt.Sprint(l.Rooms),
	}
	if len(l.AmenityNames) > 0 {
		lines = append(lines, styles.Label.Render("Amenities")+strings.Join(l.AmenityNames, ", "))
	}
	if owner := strings.TrimSpace(l.OwnerName + " " + l.OwnerSurname); owner != "" {
		lines = append(lines, styles.Label.Render("Owner")+owner)
	}
	if l.ContactPhone != "" {
		lines = append(lines, styles.Label.Render("Phone")+l.ContactPhone)
	}
	if l.Email != "" {
		lines = append(lines, styles.Label.Render("Email")+l.Email)
	}
	if cover := l.Cover(); cover != "" {
		lines = append(lines, styles.Label.Render("Photos")+fmt.Sprintf("%d  ", len(l.Images))+styles.Muted.Render(truncate(cover, width-20)))
	}
	if l.Description != "" {
		lines = append(lines, "")
		lines = append(lines, wrapText(l.Description, width-4)...)
	}
	return styles.DetailCard.Width(width).Render(strings.Join(lines, "\n"))
}
